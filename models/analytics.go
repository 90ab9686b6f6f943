package models

// RatingDistribution maps "1".."5" to the number of reviews with that rating
type RatingDistribution map[string]int

// NewRatingDistribution returns a distribution with every star key present
func NewRatingDistribution() RatingDistribution {
	return RatingDistribution{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
}

// Stats is the headline summary shown on the admin dashboard
type Stats struct {
	TotalReviews       int                `json:"total_reviews"`
	AverageRating      float64            `json:"average_rating"`
	RatingDistribution RatingDistribution `json:"rating_distribution"`
}

// TrendSeries holds daily review counts, oldest day first
type TrendSeries struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// RadarAnalysis holds the derived per-aspect scores
type RadarAnalysis struct {
	ServiceQuality      float64 `json:"service_quality"`
	FoodQuality         float64 `json:"food_quality"`
	ValueForMoney       float64 `json:"value_for_money"`
	Ambience            float64 `json:"ambience"`
	OverallSatisfaction float64 `json:"overall_satisfaction"`
	ResponseTime        float64 `json:"response_time"`
}

// PredictionComparison tallies predicted stars against the given rating
type PredictionComparison struct {
	Matches  int `json:"matches"`
	AIHigher int `json:"ai_higher"`
	AILower  int `json:"ai_lower"`
}

// Analytics is the full chart payload for the analytics page
type Analytics struct {
	// Totals
	TotalReviews       int                `json:"total_reviews"`
	AverageRating      float64            `json:"average_rating"`
	RatingDistribution RatingDistribution `json:"rating_distribution"`

	// Charts
	TrendsOverTime       TrendSeries          `json:"trends_over_time"`
	RadarAnalysis        RadarAnalysis        `json:"radar_analysis"`
	PredictionComparison PredictionComparison `json:"prediction_comparison"`

	// Satisfaction
	PositiveReviews    int      `json:"positive_reviews"`
	PositivePercentage float64  `json:"positive_percentage"`
	AIAccuracy         *float64 `json:"ai_accuracy"`

	Insights []string `json:"insights"`
}
