package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"feedback-service-server/database"
	"feedback-service-server/metrics"
	"feedback-service-server/models"
	"feedback-service-server/types"
)

// Events published to the admin live feed
const (
	EventSubmissionCreated = "submission_created"
	EventSubmissionUpdated = "submission_updated"
)

const processingFailedResponse = "AI processing failed. Please try again later."

// SubmissionRepository is the persistence used by SubmissionService
type SubmissionRepository interface {
	Load(filter models.SubmissionFilter) ([]models.Submission, error)
	Get(id string) (models.Submission, error)
	Append(submission models.Submission) (models.Submission, error)
	Update(id string, patch models.SubmissionUpdate) (models.Submission, error)
}

// Notifier receives every stored change
type Notifier interface {
	Publish(event string, submission models.Submission)
}

// PackGenerator produces the AI pack for a review
type PackGenerator interface {
	Generate(ctx context.Context, rating int, reviewText, username string) models.AIPack
}

// SubmissionService ties pack generation, persistence and notification together
type SubmissionService struct {
	store    SubmissionRepository
	packs    PackGenerator
	notifier Notifier
	now      func() time.Time
}

// NewSubmissionService creates the service. notifier may be nil.
func NewSubmissionService(store SubmissionRepository, packs PackGenerator, notifier Notifier) *SubmissionService {
	return &SubmissionService{
		store:    store,
		packs:    packs,
		notifier: notifier,
		now:      time.Now,
	}
}

// Submit generates the AI pack for a review and persists the full record.
// author is nil for anonymous submissions.
func (s *SubmissionService) Submit(ctx context.Context, req models.SubmissionCreate, author *types.Principal) (models.Submission, error) {
	if !validStars(req.Rating) {
		return models.Submission{}, validationf("Rating must be between 1 and 5")
	}
	if strings.TrimSpace(req.ReviewText) == "" {
		return models.Submission{}, validationf("Review text must not be empty")
	}

	var userID, username *string
	name := ""
	if author != nil {
		id, uname := author.UserID, author.Username
		userID, username = &id, &uname
		name = uname
	}

	pack := s.packs.Generate(ctx, req.Rating, req.ReviewText, name)
	now := s.now()
	submission := models.Submission{
		ID:                    newSubmissionID(now),
		Rating:                req.Rating,
		ReviewText:            req.ReviewText,
		UserID:                userID,
		Username:              username,
		AIResponse:            pack.AIResponse,
		AISummary:             pack.AISummary,
		AIRecommendedActions:  pack.AIRecommendedActions,
		PredictedStars:        pack.PredictedStars,
		PredictionExplanation: pack.PredictionExplanation,
		Timestamp:             models.FormatTimestamp(now),
		Status:                models.StatusCompleted,
	}

	saved, err := s.store.Append(submission)
	if err != nil {
		return models.Submission{}, errors.Wrap(err, "save submission")
	}
	metrics.SubmissionsTotal.WithLabelValues(strconv.Itoa(saved.Rating)).Inc()
	log.WithFields(log.Fields{"id": saved.ID, "rating": saved.Rating}).Info("📝 Submission stored")
	s.publish(EventSubmissionCreated, saved)
	return saved, nil
}

// List returns stored submissions matching filter, newest first
func (s *SubmissionService) List(filter models.SubmissionFilter) ([]models.Submission, error) {
	return s.store.Load(filter)
}

// Get returns one submission
func (s *SubmissionService) Get(id string) (models.Submission, error) {
	return s.store.Get(id)
}

// Update applies an admin or background correction to a stored submission
func (s *SubmissionService) Update(id string, patch models.SubmissionUpdate) (models.Submission, error) {
	if patch.IsEmpty() {
		return models.Submission{}, validationf("No fields to update")
	}
	if patch.PredictedStars != nil && !validStars(*patch.PredictedStars) {
		return models.Submission{}, validationf("predicted_stars must be between 1 and 5")
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return models.Submission{}, validationf("Unknown status %q", *patch.Status)
	}

	updated, err := s.store.Update(id, patch)
	if err != nil {
		return models.Submission{}, err
	}
	log.WithField("id", id).Info("✏️ Submission updated")
	s.publish(EventSubmissionUpdated, updated)
	return updated, nil
}

// Reprocess regenerates the AI pack of a stored submission and marks it
// completed. When the new pack cannot be stored the record is flagged failed.
func (s *SubmissionService) Reprocess(ctx context.Context, id string) (models.Submission, error) {
	current, err := s.store.Get(id)
	if err != nil {
		return models.Submission{}, err
	}

	name := ""
	if current.Username != nil {
		name = *current.Username
	}
	pack := s.packs.Generate(ctx, current.Rating, current.ReviewText, name)
	completed := models.StatusCompleted
	updated, err := s.store.Update(id, models.SubmissionUpdate{
		AIResponse:            &pack.AIResponse,
		AISummary:             &pack.AISummary,
		AIRecommendedActions:  &pack.AIRecommendedActions,
		PredictedStars:        pack.PredictedStars,
		PredictionExplanation: &pack.PredictionExplanation,
		Status:                &completed,
	})
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.markFailed(id)
		}
		return models.Submission{}, errors.Wrap(err, "reprocess submission")
	}

	log.WithField("id", id).Info("🔁 Submission reprocessed")
	s.publish(EventSubmissionUpdated, updated)
	return updated, nil
}

// PendingReprocess lists submissions that failed or lack a prediction
func (s *SubmissionService) PendingReprocess() ([]models.Submission, error) {
	all, err := s.store.Load(models.SubmissionFilter{})
	if err != nil {
		return nil, err
	}
	var pending []models.Submission
	for _, sub := range all {
		if sub.Status == models.StatusFailed || sub.PredictedStars == nil {
			pending = append(pending, sub)
		}
	}
	return pending, nil
}

func (s *SubmissionService) markFailed(id string) {
	failed := models.StatusFailed
	response := processingFailedResponse
	if _, err := s.store.Update(id, models.SubmissionUpdate{Status: &failed, AIResponse: &response}); err != nil {
		log.WithError(err).WithField("id", id).Error("❌ Could not flag submission as failed")
	}
}

func (s *SubmissionService) publish(event string, submission models.Submission) {
	if s.notifier != nil {
		s.notifier.Publish(event, submission)
	}
}

// newSubmissionID renders sub_<YYYYmmddHHMMSS>_<8 hex>
func newSubmissionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "sub_" + now.Format("20060102150405") + "_" + suffix
}
