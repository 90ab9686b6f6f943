package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout written into Submission.Timestamp.
// Lexicographic order of these strings is chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000"

type SubmissionStatus string

const (
	StatusCompleted SubmissionStatus = "completed"
	StatusFailed    SubmissionStatus = "failed"
)

// IsValid reports whether the status is one of the known values
func (s SubmissionStatus) IsValid() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Submission represents one customer feedback event together with its AI pack
type Submission struct {
	ID                    string           `json:"id"`
	Rating                int              `json:"rating"`
	ReviewText            string           `json:"review_text"`
	UserID                *string          `json:"user_id"`
	Username              *string          `json:"username"`
	AIResponse            string           `json:"ai_response"`
	AISummary             string           `json:"ai_summary"`
	AIRecommendedActions  string           `json:"ai_recommended_actions"`
	PredictedStars        *int             `json:"predicted_stars"`
	PredictionExplanation string           `json:"prediction_explanation"`
	Timestamp             string           `json:"timestamp"`
	Status                SubmissionStatus `json:"status"`
}

// SubmissionCreate represents the request body of the submit-review endpoint
type SubmissionCreate struct {
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	ReviewText string `json:"review_text" binding:"required,notblank"`
}

// SubmissionUpdate is a partial update. Nil fields are left untouched.
// Identity, rating, review text and author are immutable and have no field here.
type SubmissionUpdate struct {
	AIResponse            *string           `json:"ai_response,omitempty"`
	AISummary             *string           `json:"ai_summary,omitempty"`
	AIRecommendedActions  *string           `json:"ai_recommended_actions,omitempty"`
	PredictedStars        *int              `json:"predicted_stars,omitempty" binding:"omitempty,min=1,max=5"`
	PredictionExplanation *string           `json:"prediction_explanation,omitempty"`
	Status                *SubmissionStatus `json:"status,omitempty" binding:"omitempty,oneof=completed failed"`
}

// IsEmpty reports whether the update carries no fields at all
func (u SubmissionUpdate) IsEmpty() bool {
	return u.AIResponse == nil && u.AISummary == nil && u.AIRecommendedActions == nil &&
		u.PredictedStars == nil && u.PredictionExplanation == nil && u.Status == nil
}

// Apply merges the update into s and stamps the new timestamp
func (u SubmissionUpdate) Apply(s Submission, now time.Time) Submission {
	if u.AIResponse != nil {
		s.AIResponse = *u.AIResponse
	}
	if u.AISummary != nil {
		s.AISummary = *u.AISummary
	}
	if u.AIRecommendedActions != nil {
		s.AIRecommendedActions = *u.AIRecommendedActions
	}
	if u.PredictedStars != nil {
		stars := *u.PredictedStars
		s.PredictedStars = &stars
	}
	if u.PredictionExplanation != nil {
		s.PredictionExplanation = *u.PredictionExplanation
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	s.Timestamp = FormatTimestamp(now)
	return s
}

// SubmissionFilter narrows Load results. Zero values mean no filtering.
type SubmissionFilter struct {
	Rating     int
	DatePrefix string
}

// Matches reports whether s passes the filter
func (f SubmissionFilter) Matches(s Submission) bool {
	if f.Rating != 0 && s.Rating != f.Rating {
		return false
	}
	if f.DatePrefix != "" && !strings.HasPrefix(s.Timestamp, f.DatePrefix) {
		return false
	}
	return true
}

// FormatTimestamp renders t in the stored timestamp layout
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// UnmarshalJSON accepts ratings stored as numbers or numeric strings so that
// hand-edited files still load.
func (s *Submission) UnmarshalJSON(data []byte) error {
	type plain Submission
	aux := struct {
		*plain
		Rating         json.RawMessage `json:"rating"`
		PredictedStars json.RawMessage `json:"predicted_stars"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if rating, ok := coerceInt(aux.Rating); ok {
		s.Rating = rating
	} else {
		s.Rating = 0
	}
	if stars, ok := coerceInt(aux.PredictedStars); ok {
		s.PredictedStars = &stars
	} else {
		s.PredictedStars = nil
	}
	return nil
}

func coerceInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), true
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
			return v, true
		}
	}
	return 0, false
}
