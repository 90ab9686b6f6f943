package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSONObject finds a JSON object in free-form model output. The whole
// document is tried first, then the span from the first '{' to the last '}'.
// Arrays, scalars and invalid JSON are rejected.
func ExtractJSONObject(raw string) (gjson.Result, bool) {
	trimmed := strings.TrimSpace(raw)
	if obj, ok := parseObject(trimmed); ok {
		return obj, true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, false
	}
	return parseObject(trimmed[start : end+1])
}

func parseObject(doc string) (gjson.Result, bool) {
	if doc == "" || !gjson.Valid(doc) {
		return gjson.Result{}, false
	}
	result := gjson.Parse(doc)
	if !result.IsObject() {
		return gjson.Result{}, false
	}
	return result, true
}

// modelOutput is the typed view of the model's JSON object
type modelOutput struct {
	Response    string
	Summary     string
	Actions     string
	Stars       int
	HasStars    bool
	Explanation string
}

func decodeModelOutput(obj gjson.Result) modelOutput {
	out := modelOutput{
		Response:    fieldText(obj, "ai_response"),
		Summary:     fieldText(obj, "ai_summary"),
		Actions:     fieldText(obj, "ai_recommended_actions"),
		Explanation: fieldText(obj, "prediction_explanation"),
	}
	out.Stars, out.HasStars = starsField(obj.Get("predicted_stars"))
	return out
}

// complete reports whether every customer and admin facing text is present
func (m modelOutput) complete() bool {
	return m.Response != "" && m.Summary != "" && m.Actions != ""
}

func fieldText(obj gjson.Result, key string) string {
	value := obj.Get(key)
	if !value.Exists() || value.Type == gjson.Null {
		return ""
	}
	return strings.TrimSpace(value.String())
}

// starsField accepts integral numbers and numeric strings in [1,5]
func starsField(value gjson.Result) (int, bool) {
	var stars int
	switch value.Type {
	case gjson.Number:
		if value.Num != math.Trunc(value.Num) {
			return 0, false
		}
		stars = int(value.Num)
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(value.Str))
		if err != nil {
			return 0, false
		}
		stars = n
	default:
		return 0, false
	}
	if !validStars(stars) {
		return 0, false
	}
	return stars, true
}
