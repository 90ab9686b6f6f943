package database

import (
	"strings"

	"github.com/pkg/errors"

	"feedback-service-server/models"
)

// UserStore persists accounts with the same file discipline as submissions
type UserStore struct {
	file *jsonFile[models.User]
}

// NewUserStore opens (or creates) the users file at path
func NewUserStore(path string) (*UserStore, error) {
	file, err := openJSONFile[models.User](path, "users")
	if err != nil {
		return nil, err
	}
	return &UserStore{file: file}, nil
}

// FindByEmail looks a user up by case-insensitive email
func (s *UserStore) FindByEmail(email string) (models.User, error) {
	return s.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) }, email)
}

// FindByID looks a user up by id
func (s *UserStore) FindByID(id string) (models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id }, id)
}

func (s *UserStore) find(match func(models.User) bool, key string) (models.User, error) {
	s.file.mu.Lock()
	defer s.file.mu.Unlock()

	users, err := s.file.readLocked()
	if err != nil {
		return models.User{}, err
	}
	for _, user := range users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, errors.Wrapf(ErrNotFound, "user %s", key)
}

// Create appends user, rejecting an email that is already registered
func (s *UserStore) Create(user models.User) (models.User, error) {
	defer s.file.timed("create")()

	s.file.mu.Lock()
	defer s.file.mu.Unlock()

	users, err := s.file.readLocked()
	if err != nil {
		return models.User{}, errors.Wrap(ErrPersistence, err.Error())
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, errors.Wrapf(ErrDuplicate, "email %s", user.Email)
		}
		if existing.ID == user.ID {
			return models.User{}, errors.Wrapf(ErrDuplicate, "user id %s", user.ID)
		}
	}

	users = append(users, user)
	if err := s.file.writeLocked(users); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Count returns the number of stored users
func (s *UserStore) Count() (int, error) {
	s.file.mu.Lock()
	defer s.file.mu.Unlock()

	users, err := s.file.readLocked()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
