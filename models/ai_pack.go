package models

// AIPack is the generated content attached to a submission
type AIPack struct {
	AIResponse            string `json:"ai_response"`
	AISummary             string `json:"ai_summary"`
	AIRecommendedActions  string `json:"ai_recommended_actions"`
	PredictedStars        *int   `json:"predicted_stars"`
	PredictionExplanation string `json:"prediction_explanation"`
}
