package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"feedback-service-server/config"
	"feedback-service-server/database"
	"feedback-service-server/models"
	"feedback-service-server/types"
	"feedback-service-server/utils"
)

// UserRepository is the account storage used by AuthService
type UserRepository interface {
	FindByEmail(email string) (models.User, error)
	FindByID(id string) (models.User, error)
	Create(user models.User) (models.User, error)
}

// AuthService handles registration, login and token issuing
type AuthService struct {
	users  UserRepository
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserRepository, cfg config.JWTConfig) *AuthService {
	hours := cfg.ExpiryHours
	if hours <= 0 {
		hours = 30 * 24
	}
	return &AuthService{
		users:  users,
		secret: cfg.Secret,
		ttl:    time.Duration(hours) * time.Hour,
		now:    time.Now,
	}
}

// Register creates a user account and returns a token for it
func (s *AuthService) Register(req models.RegisterRequest) (models.AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return models.AuthResponse{}, validationf("Passwords do not match")
	}
	user, err := s.createUser(strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password, models.RoleUser)
	if err != nil {
		return models.AuthResponse{}, err
	}
	log.WithField("user_id", user.ID).Info("✅ User registered")
	return s.issue(user)
}

// Login checks credentials and returns a fresh token
func (s *AuthService) Login(req models.LoginRequest) (models.AuthResponse, error) {
	user, err := s.users.FindByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.AuthResponse{}, ErrInvalidCredentials
		}
		return models.AuthResponse{}, err
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		log.WithField("user_id", user.ID).Warn("❌ Invalid password")
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Verify parses a bearer token into the caller identity
func (s *AuthService) Verify(token string) (types.Principal, error) {
	claims, err := utils.VerifyToken(token, s.secret)
	if err != nil {
		return types.Principal{}, err
	}
	return claims.Principal(), nil
}

// Me returns the stored public view of the caller
func (s *AuthService) Me(principal types.Principal) (models.UserPublic, error) {
	user, err := s.users.FindByID(principal.UserID)
	if err != nil {
		return models.UserPublic{}, err
	}
	return user.Public(), nil
}

// EnsureDefaultUsers seeds the admin and demo accounts when they are missing
func (s *AuthService) EnsureDefaultUsers(cfg config.AuthConfig) error {
	defaults := []struct {
		username string
		email    string
		password string
		role     models.UserRole
	}{
		{username: "admin", email: cfg.DefaultAdminEmail, password: cfg.DefaultAdminPassword, role: models.RoleAdmin},
		{username: "user", email: cfg.DefaultUserEmail, password: cfg.DefaultUserPassword, role: models.RoleUser},
	}

	for _, d := range defaults {
		if d.email == "" || d.password == "" {
			continue
		}
		_, err := s.users.FindByEmail(d.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}
		if _, err := s.createUser(d.username, d.email, d.password, d.role); err != nil {
			return errors.Wrapf(err, "seed %s account", d.role)
		}
		log.WithFields(log.Fields{"email": d.email, "role": d.role}).Info("👤 Seeded default account")
	}
	return nil
}

func (s *AuthService) createUser(username, email, password string, role models.UserRole) (models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}
	user := models.User{
		ID:           "usr_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    models.FormatTimestamp(s.now()),
	}
	created, err := s.users.Create(user)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return models.User{}, validationf("Email already registered")
		}
		return models.User{}, err
	}
	return created, nil
}

func (s *AuthService) issue(user models.User) (models.AuthResponse, error) {
	token, err := utils.GenerateToken(principalOf(user), s.secret, s.ttl)
	if err != nil {
		return models.AuthResponse{}, errors.Wrap(err, "sign token")
	}
	return models.AuthResponse{AccessToken: token, User: user.Public()}, nil
}

func principalOf(user models.User) types.Principal {
	return types.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}
}
