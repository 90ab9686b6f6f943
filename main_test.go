package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"feedback-service-server/services"
)

const sampleSubmissions = `[
  {"id": "sub_1", "rating": 5, "review_text": "Excellent", "predicted_stars": 5, "timestamp": "2025-03-09T10:00:00.000000", "status": "completed"},
  {"id": "sub_2", "rating": 2, "review_text": "Cold food", "predicted_stars": 3, "timestamp": "2025-01-02T10:00:00.000000", "status": "completed"}
]`

func writeSamples(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "submissions.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleSubmissions), 0o644))
	return path
}

func TestRunAnalyticsPrintsJSON(t *testing.T) {
	path := writeSamples(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)

	var out bytes.Buffer
	require.NoError(t, runAnalytics(&out, &analyticsFlags{file: path, dateRange: services.RangeAll}, now))
	assert.Equal(t, int64(2), gjson.Get(out.String(), "total_reviews").Int())
	assert.Equal(t, 50.0, gjson.Get(out.String(), "ai_accuracy").Float())

	out.Reset()
	require.NoError(t, runAnalytics(&out, &analyticsFlags{file: path, dateRange: services.RangeWeek}, now))
	assert.Equal(t, int64(1), gjson.Get(out.String(), "total_reviews").Int())
	assert.Equal(t, int64(1), gjson.Get(out.String(), "trends_over_time.data.5").Int())

	out.Reset()
	require.NoError(t, runAnalytics(&out, &analyticsFlags{file: path, stats: true}, now))
	assert.Equal(t, 3.5, gjson.Get(out.String(), "average_rating").Float())
}

func TestRunAnalyticsErrors(t *testing.T) {
	now := time.Now()
	assert.Error(t, runAnalytics(&bytes.Buffer{}, &analyticsFlags{file: filepath.Join(t.TempDir(), "missing.json")}, now))
	assert.Error(t, runAnalytics(&bytes.Buffer{}, &analyticsFlags{file: writeSamples(t), startDate: "soon"}, now))
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}
