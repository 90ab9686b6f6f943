package services

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-service-server/database"
	"feedback-service-server/models"
	"feedback-service-server/types"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(event string, submission models.Submission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event+":"+submission.ID)
}

func newTestSubmissionService(t *testing.T) (*SubmissionService, *database.SubmissionStore, *recordingNotifier) {
	t.Helper()
	store, err := database.NewSubmissionStore(filepath.Join(t.TempDir(), "submissions.json"))
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	ai := NewAIService(nil, testAIConfig(time.Second, 1))
	return NewSubmissionService(store, ai, notifier), store, notifier
}

var submissionIDPattern = regexp.MustCompile(`^sub_\d{14}_[0-9a-f]{8}$`)

func TestSubmitAnonymousNegativeReview(t *testing.T) {
	svc, store, notifier := newTestSubmissionService(t)

	saved, err := svc.Submit(context.Background(), models.SubmissionCreate{Rating: 1, ReviewText: "Terrible service, rude staff"}, nil)
	require.NoError(t, err)

	assert.Regexp(t, submissionIDPattern, saved.ID)
	assert.Equal(t, models.StatusCompleted, saved.Status)
	assert.Nil(t, saved.UserID)
	assert.Nil(t, saved.Username)
	require.NotNil(t, saved.PredictedStars)
	assert.LessOrEqual(t, *saved.PredictedStars, 2)
	assert.Contains(t, saved.AIResponse, "sorry")

	stored, err := store.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, stored)
	assert.Equal(t, []string{EventSubmissionCreated + ":" + saved.ID}, notifier.events)
}

func TestSubmitRecordsAuthor(t *testing.T) {
	svc, _, _ := newTestSubmissionService(t)
	author := &types.Principal{UserID: "usr_1", Username: "alice", Role: "user"}

	saved, err := svc.Submit(context.Background(), models.SubmissionCreate{Rating: 5, ReviewText: "Fantastic"}, author)
	require.NoError(t, err)

	require.NotNil(t, saved.UserID)
	require.NotNil(t, saved.Username)
	assert.Equal(t, "usr_1", *saved.UserID)
	assert.Equal(t, "alice", *saved.Username)
	assert.Contains(t, saved.AIResponse, "Thank you alice")
}

func TestSubmitValidatesInput(t *testing.T) {
	svc, store, notifier := newTestSubmissionService(t)

	_, err := svc.Submit(context.Background(), models.SubmissionCreate{Rating: 6, ReviewText: "ok"}, nil)
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = svc.Submit(context.Background(), models.SubmissionCreate{Rating: 3, ReviewText: " \n\t"}, nil)
	assert.True(t, errors.Is(err, ErrValidation))

	subs, err := store.Load(models.SubmissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.Empty(t, notifier.events)
}

func TestUpdateSubmission(t *testing.T) {
	svc, _, notifier := newTestSubmissionService(t)
	saved, err := svc.Submit(context.Background(), models.SubmissionCreate{Rating: 3, ReviewText: "Fine"}, nil)
	require.NoError(t, err)

	_, err = svc.Update(saved.ID, models.SubmissionUpdate{})
	assert.True(t, errors.Is(err, ErrValidation))

	bad := 0
	_, err = svc.Update(saved.ID, models.SubmissionUpdate{PredictedStars: &bad})
	assert.True(t, errors.Is(err, ErrValidation))

	stars := 4
	updated, err := svc.Update(saved.ID, models.SubmissionUpdate{PredictedStars: &stars})
	require.NoError(t, err)
	require.NotNil(t, updated.PredictedStars)
	assert.Equal(t, 4, *updated.PredictedStars)
	assert.Equal(t, saved.AIResponse, updated.AIResponse)

	_, err = svc.Update("sub_missing", models.SubmissionUpdate{PredictedStars: &stars})
	assert.True(t, errors.Is(err, database.ErrNotFound))

	assert.Equal(t, []string{
		EventSubmissionCreated + ":" + saved.ID,
		EventSubmissionUpdated + ":" + saved.ID,
	}, notifier.events)
}

func TestReprocessRestoresFailedSubmission(t *testing.T) {
	svc, store, notifier := newTestSubmissionService(t)
	saved, err := svc.Submit(context.Background(), models.SubmissionCreate{Rating: 1, ReviewText: "Awful, rude waiter"}, nil)
	require.NoError(t, err)

	failed := models.StatusFailed
	broken := processingFailedResponse
	_, err = store.Update(saved.ID, models.SubmissionUpdate{Status: &failed, AIResponse: &broken})
	require.NoError(t, err)

	pending, err := svc.PendingReprocess()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, saved.ID, pending[0].ID)

	restored, err := svc.Reprocess(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, restored.Status)
	assert.Equal(t, saved.AIResponse, restored.AIResponse)
	assert.Equal(t, saved.ReviewText, restored.ReviewText)

	pending, err = svc.PendingReprocess()
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.Reprocess(context.Background(), "sub_missing")
	assert.True(t, errors.Is(err, database.ErrNotFound))
	assert.Equal(t, EventSubmissionUpdated+":"+saved.ID, notifier.events[len(notifier.events)-1])
}
