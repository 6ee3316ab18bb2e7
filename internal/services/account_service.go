package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"storefront/internal/caching"
	"storefront/internal/common"
	"storefront/internal/jobs"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	confirmTokenTTL = 72 * time.Hour
	resetTokenTTL   = time.Hour
)

type RegisterInput struct {
	Email     string  `json:"email" validate:"required,email,max=254"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	FirstName string  `json:"first_name" validate:"required,max=150"`
	LastName  string  `json:"last_name" validate:"required,max=150"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// AccountService covers registration, confirmation and password management
type AccountService interface {
	Register(ctx context.Context, input *RegisterInput) (*models.User, error)
	Confirm(ctx context.Context, token string) error
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update *models.ProfileUpdate) (*models.User, error)
	ListUsers(ctx context.Context, filter *models.UserFilter) ([]*models.User, error)
}

type accountService struct {
	userRepo repositories.UserRepository
	cacheSvc caching.CacheService
	queue    jobs.Enqueuer
	logger   *zap.Logger
	baseURL  string
	hashCost int
}

func NewAccountService(userRepo repositories.UserRepository, cacheSvc caching.CacheService, queue jobs.Enqueuer, logger *zap.Logger, publicBaseURL string) AccountService {
	return &accountService{
		userRepo: userRepo,
		cacheSvc: cacheSvc,
		queue:    queue,
		logger:   logger,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates an inactive user and mails a confirmation link
func (s *accountService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        input.Phone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueToken(ctx, "confirm", user.ID, confirmTokenTTL)
	if err != nil {
		return nil, err
	}
	task, err := jobs.NewConfirmationEmailTask(user.Email, user.FirstName, s.link("/accounts/confirm", token))
	if err != nil {
		return nil, err
	}
	if err := jobs.Enqueue(ctx, s.queue, task); err != nil {
		s.logger.Error("confirmation email not queued", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return user, nil
}

func (s *accountService) Confirm(ctx context.Context, token string) error {
	userID, err := s.consumeToken(ctx, "confirm", token)
	if err != nil {
		return err
	}
	if err := s.userRepo.Activate(ctx, userID); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}
	s.logger.Info("account confirmed", zap.String("user_id", userID.String()))
	return nil
}

// Authenticate checks credentials; inactive accounts are refused
func (s *accountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// RequestPasswordReset silently does nothing for unknown emails
func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := s.issueToken(ctx, "reset", user.ID, resetTokenTTL)
	if err != nil {
		return err
	}
	task, err := jobs.NewPasswordResetEmailTask(user.Email, user.FirstName, s.link("/accounts/password-reset/confirm", token))
	if err != nil {
		return err
	}
	if err := jobs.Enqueue(ctx, s.queue, task); err != nil {
		s.logger.Error("password reset email not queued", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return nil
}

func (s *accountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.consumeToken(ctx, "reset", token)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *accountService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *accountService) UpdateProfile(ctx context.Context, userID uuid.UUID, update *models.ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Phone != nil {
		user.Phone = update.Phone
	}
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountService) ListUsers(ctx context.Context, filter *models.UserFilter) ([]*models.User, error) {
	filter.Search = common.SanitizeSearchQuery(filter.Search)
	return s.userRepo.List(ctx, filter)
}

func (s *accountService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

// issueToken stores a random token's hash under purpose and returns the raw token
func (s *accountService) issueToken(ctx context.Context, purpose string, userID uuid.UUID, ttl time.Duration) (string, error) {
	token, err := generateSecureToken()
	if err != nil {
		return "", err
	}
	if err := s.cacheSvc.SetString(ctx, caching.Key(purpose, hashToken(token)), userID.String(), ttl); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", purpose, err)
	}
	return token, nil
}

// consumeToken resolves and deletes a single-use token
func (s *accountService) consumeToken(ctx context.Context, purpose, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrInvalidToken
	}
	val, err := s.cacheSvc.TakeString(ctx, caching.Key(purpose, hashToken(token)))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read %s token: %w", purpose, err)
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

func (s *accountService) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}
