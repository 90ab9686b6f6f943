package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"feedback-service-server/models"
)

// Date range selectors accepted by the analytics endpoint
const (
	RangeAll   = "all"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

const (
	trendDays   = 7
	dateLayout  = "2006-01-02"
	emptyResult = "No reviews found for the selected filters. Try adjusting your filters or submit more reviews."
	noInsights  = "No significant insights at this time."
)

var rangeDays = map[string]int{
	RangeWeek:  7,
	RangeMonth: 30,
	RangeYear:  365,
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04",
}

// AnalyticsQuery selects the submissions fed to ComputeAnalytics. Zero values
// mean no filter. Start and End bound an inclusive window and take precedence
// over DateRange.
type AnalyticsQuery struct {
	DateRange string
	Rating    int
	Start     *time.Time
	End       *time.Time
}

func (q AnalyticsQuery) filtersByDate() bool {
	return (q.DateRange != "" && q.DateRange != RangeAll) || q.Start != nil || q.End != nil
}

// ParseAnalyticsDate reads an ISO-8601 datetime or a plain date. A plain end
// date covers the whole day.
func ParseAnalyticsDate(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(dateLayout, value, time.Local); err == nil {
		if endOfDay {
			return t.Add(24*time.Hour - time.Nanosecond), nil
		}
		return t, nil
	}
	if t, ok := parseTimestamp(value); ok {
		return t, nil
	}
	return time.Time{}, validationf("Invalid date %q, expected YYYY-MM-DD or an ISO-8601 datetime", value)
}

// parseTimestamp accepts ISO-8601 with a time part or a plain date
func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if !strings.Contains(value, "T") {
		t, err := time.ParseInLocation(dateLayout, value, time.Local)
		return t, err == nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func filterForAnalytics(subs []models.Submission, q AnalyticsQuery, now time.Time) []models.Submission {
	out := make([]models.Submission, 0, len(subs))
	for _, sub := range subs {
		if q.Rating != 0 && sub.Rating != q.Rating {
			continue
		}
		if q.filtersByDate() && !inDateWindow(sub.Timestamp, q, now) {
			continue
		}
		out = append(out, sub)
	}
	return out
}

func inDateWindow(timestamp string, q AnalyticsQuery, now time.Time) bool {
	at, ok := parseTimestamp(timestamp)
	if !ok {
		return false
	}
	if q.Start != nil || q.End != nil {
		if q.Start != nil && at.Before(*q.Start) {
			return false
		}
		if q.End != nil && at.After(*q.End) {
			return false
		}
		return true
	}
	days, known := rangeDays[q.DateRange]
	if !known {
		return false
	}
	return !at.Before(now.AddDate(0, 0, -days))
}

// ComputeStats summarizes every submission for the dashboard header
func ComputeStats(subs []models.Submission) models.Stats {
	ratings, distribution := tallyRatings(subs)
	return models.Stats{
		TotalReviews:       len(subs),
		AverageRating:      roundTo(meanOf(ratings), 2),
		RatingDistribution: distribution,
	}
}

// ComputeAnalytics filters subs by q and aggregates the chart payload.
// now anchors the trend window and the relative date ranges.
func ComputeAnalytics(subs []models.Submission, q AnalyticsQuery, now time.Time) models.Analytics {
	filtered := filterForAnalytics(subs, q, now)
	trend := dailyTrend(filtered, now)

	if len(filtered) == 0 {
		return models.Analytics{
			RatingDistribution: models.NewRatingDistribution(),
			TrendsOverTime:     trend,
			Insights:           []string{emptyResult},
		}
	}

	ratings, distribution := tallyRatings(filtered)
	total := len(ratings)
	avg := meanOf(ratings)

	positive := 0
	for _, r := range ratings {
		if r >= 4 {
			positive++
		}
	}
	positivePct := 0.0
	if total > 0 {
		positivePct = float64(positive) / float64(total) * 100
	}

	comparison, withPrediction := comparePredictions(filtered)
	var accuracy *float64
	if withPrediction > 0 {
		pct := float64(comparison.Matches) / float64(withPrediction) * 100
		accuracy = &pct
	}

	insights := buildInsights(avg, positivePct, accuracy, distribution["1"], total, trend.Data)

	if accuracy != nil {
		rounded := roundTo(*accuracy, 1)
		accuracy = &rounded
	}
	return models.Analytics{
		TotalReviews:         total,
		AverageRating:        roundTo(avg, 2),
		RatingDistribution:   distribution,
		TrendsOverTime:       trend,
		RadarAnalysis:        radarFrom(avg),
		PredictionComparison: comparison,
		PositiveReviews:      positive,
		PositivePercentage:   roundTo(positivePct, 1),
		AIAccuracy:           accuracy,
		Insights:             insights,
	}
}

// tallyRatings keeps ratings in [1,5] and counts them per star
func tallyRatings(subs []models.Submission) ([]float64, models.RatingDistribution) {
	distribution := models.NewRatingDistribution()
	ratings := make([]float64, 0, len(subs))
	for _, sub := range subs {
		if !validStars(sub.Rating) {
			continue
		}
		ratings = append(ratings, float64(sub.Rating))
		distribution[strconv.Itoa(sub.Rating)]++
	}
	return ratings, distribution
}

func meanOf(values []float64) float64 {
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

func roundTo(value float64, places int) float64 {
	rounded, err := stats.Round(value, places)
	if err != nil {
		return value
	}
	return rounded
}

func dailyTrend(subs []models.Submission, now time.Time) models.TrendSeries {
	trend := models.TrendSeries{
		Labels: make([]string, 0, trendDays),
		Data:   make([]int, 0, trendDays),
	}
	for i := trendDays - 1; i >= 0; i-- {
		label := now.AddDate(0, 0, -i).Format(dateLayout)
		count := 0
		for _, sub := range subs {
			if strings.HasPrefix(sub.Timestamp, label) {
				count++
			}
		}
		trend.Labels = append(trend.Labels, label)
		trend.Data = append(trend.Data, count)
	}
	return trend
}

func radarFrom(avg float64) models.RadarAnalysis {
	score := func(offset float64) float64 {
		return roundTo(math.Max(0, math.Min(5, avg+offset)), 2)
	}
	return models.RadarAnalysis{
		ServiceQuality:      score(0.3),
		FoodQuality:         score(0.2),
		ValueForMoney:       score(-0.1),
		Ambience:            score(0.1),
		OverallSatisfaction: score(0),
		ResponseTime:        score(0.4),
	}
}

// comparePredictions counts only records whose predicted stars are valid
func comparePredictions(subs []models.Submission) (models.PredictionComparison, int) {
	var cmp models.PredictionComparison
	counted := 0
	for _, sub := range subs {
		if sub.PredictedStars == nil || !validStars(*sub.PredictedStars) {
			continue
		}
		counted++
		predicted := *sub.PredictedStars
		switch {
		case predicted == sub.Rating:
			cmp.Matches++
		case predicted > sub.Rating:
			cmp.AIHigher++
		default:
			cmp.AILower++
		}
	}
	return cmp, counted
}

func buildInsights(avg, positivePct float64, accuracy *float64, oneStar, total int, trend []int) []string {
	var insights []string
	if avg < 3 {
		insights = append(insights, "⚠️ Average rating is below 3 stars. Immediate action required to improve customer satisfaction.")
	}
	if positivePct < 50 {
		insights = append(insights, "📉 Less than 50% of reviews are positive. Focus on addressing common complaints.")
	}
	if accuracy != nil {
		if *accuracy > 80 {
			insights = append(insights, "✅ AI prediction accuracy is excellent. The system is performing well.")
		} else if *accuracy < 60 {
			insights = append(insights, "⚠️ AI prediction accuracy needs improvement. Consider reviewing the prediction model.")
		}
	}
	if float64(oneStar) > float64(total)*0.2 {
		insights = append(insights, "🚨 High number of 1-star reviews detected. Urgent intervention needed.")
	}
	if len(trend) > 1 && trend[0] > 0 && float64(trend[len(trend)-1]) > float64(trend[0])*1.5 {
		insights = append(insights, "📈 Review volume is increasing. Great opportunity to gather more feedback.")
	}
	if len(insights) == 0 {
		return []string{noInsights}
	}
	return insights
}
