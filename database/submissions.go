package database

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"feedback-service-server/models"
)

// SubmissionStore persists submissions to a single JSON file
type SubmissionStore struct {
	file *jsonFile[models.Submission]
	now  func() time.Time
}

// NewSubmissionStore opens (or creates) the submissions file at path
func NewSubmissionStore(path string) (*SubmissionStore, error) {
	file, err := openJSONFile[models.Submission](path, "submissions")
	if err != nil {
		return nil, err
	}
	return &SubmissionStore{file: file, now: time.Now}, nil
}

// Path returns the backing file location
func (s *SubmissionStore) Path() string {
	return s.file.path
}

// Load returns the submissions passing filter, newest first
func (s *SubmissionStore) Load(filter models.SubmissionFilter) ([]models.Submission, error) {
	defer s.file.timed("load")()

	s.file.mu.Lock()
	records, err := s.file.readLocked()
	s.file.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]models.Submission, 0, len(records))
	for _, record := range records {
		if filter.Matches(record) {
			out = append(out, record)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Get returns the submission with the given id
func (s *SubmissionStore) Get(id string) (models.Submission, error) {
	defer s.file.timed("get")()

	s.file.mu.Lock()
	defer s.file.mu.Unlock()

	records, err := s.file.readLocked()
	if err != nil {
		return models.Submission{}, err
	}
	for _, record := range records {
		if record.ID == id {
			return record, nil
		}
	}
	return models.Submission{}, errors.Wrapf(ErrNotFound, "submission %s", id)
}

// Append adds submission and rewrites the file before returning
func (s *SubmissionStore) Append(submission models.Submission) (models.Submission, error) {
	defer s.file.timed("append")()

	s.file.mu.Lock()
	defer s.file.mu.Unlock()

	records, err := s.file.readLocked()
	if err != nil {
		return models.Submission{}, errors.Wrap(ErrPersistence, err.Error())
	}
	for _, record := range records {
		if record.ID == submission.ID {
			return models.Submission{}, errors.Wrapf(ErrDuplicate, "submission id %s", submission.ID)
		}
	}

	records = append(records, submission)
	if err := s.file.writeLocked(records); err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

// Update merges patch into the submission with the given id. The store is
// left untouched when the id is unknown.
func (s *SubmissionStore) Update(id string, patch models.SubmissionUpdate) (models.Submission, error) {
	defer s.file.timed("update")()

	s.file.mu.Lock()
	defer s.file.mu.Unlock()

	records, err := s.file.readLocked()
	if err != nil {
		return models.Submission{}, errors.Wrap(ErrPersistence, err.Error())
	}

	for i, record := range records {
		if record.ID != id {
			continue
		}
		updated := patch.Apply(record, s.now())
		records[i] = updated
		if err := s.file.writeLocked(records); err != nil {
			return models.Submission{}, err
		}
		return updated, nil
	}
	return models.Submission{}, errors.Wrapf(ErrNotFound, "submission %s", id)
}

func sortNewestFirst(submissions []models.Submission) {
	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].Timestamp > submissions[j].Timestamp
	})
}
