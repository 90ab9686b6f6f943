package jobs

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"feedback-service-server/models"
)

// Reprocessor is the part of the submission service the job drives
type Reprocessor interface {
	PendingReprocess() ([]models.Submission, error)
	Reprocess(ctx context.Context, id string) (models.Submission, error)
}

// ReprocessJob periodically regenerates AI packs for submissions that failed
// or have no prediction
type ReprocessJob struct {
	service  Reprocessor
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewReprocessJob creates a new reprocess job
func NewReprocessJob(service Reprocessor, interval time.Duration) *ReprocessJob {
	return &ReprocessJob{
		service:  service,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the reprocess job
func (j *ReprocessJob) Start(ctx context.Context) {
	go j.run(ctx)
	log.WithField("interval", j.interval).Info("🚀 Reprocess job started")
}

// Stop stops the job and waits for the current pass to finish
func (j *ReprocessJob) Stop() {
	j.once.Do(func() { close(j.stop) })
	<-j.done
	log.Info("🛑 Reprocess job stopped")
}

func (j *ReprocessJob) run(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce(ctx)
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce reprocesses every pending submission and returns how many succeeded
func (j *ReprocessJob) RunOnce(ctx context.Context) int {
	pending, err := j.service.PendingReprocess()
	if err != nil {
		log.WithError(err).Error("❌ Error listing submissions to reprocess")
		return 0
	}
	if len(pending) == 0 {
		return 0
	}
	log.WithField("count", len(pending)).Info("⏰ Reprocessing submissions")

	succeeded := 0
	for _, sub := range pending {
		if ctx.Err() != nil {
			break
		}
		if _, err := j.service.Reprocess(ctx, sub.ID); err != nil {
			log.WithError(err).WithField("id", sub.ID).Warn("Failed to reprocess submission")
			continue
		}
		succeeded++
	}
	return succeeded
}
