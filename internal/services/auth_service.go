package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"storefront/internal/caching"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenIssuer   = "storefront-auth"
	tokenAudience = "storefront-api"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is not active")
)

// AuthService issues and validates bearer tokens
type AuthService interface {
	GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	RevokeToken(ctx context.Context, claims *TokenClaims, refreshToken *string) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenClaims represents JWT claims; the jti is RegisteredClaims.ID
type TokenClaims struct {
	UserID  string `json:"user_id"`
	IsStaff bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

type authService struct {
	cacheSvc   caching.CacheService
	userRepo   repositories.UserRepository
	logger     *zap.Logger
	jwtSecret  []byte
	tokenTTL   time.Duration
	refreshTTL time.Duration
}

func NewAuthService(cacheSvc caching.CacheService, userRepo repositories.UserRepository, logger *zap.Logger, jwtSecret string, tokenTTL, refreshTTL time.Duration) AuthService {
	return &authService{
		cacheSvc:   cacheSvc,
		userRepo:   userRepo,
		logger:     logger,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		refreshTTL: refreshTTL,
	}
}

// GenerateTokens signs an access token and stores a fresh refresh token
func (s *authService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:  user.ID.String(),
		IsStaff: user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetString(ctx, refreshTokenKey(refreshToken), user.ID.String(), s.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenTTL.Seconds()),
		RefreshToken: refreshToken,
		UserID:       user.ID.String(),
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

// RefreshToken consumes a refresh token and issues a new pair
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	userIDStr, err := s.cacheSvc.TakeString(ctx, refreshTokenKey(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if userIDStr == "" {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return s.GenerateTokens(ctx, user)
}

// ValidateToken parses an access token and checks the blacklist
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) keyfunc(_ *jwt.Token) (interface{}, error) {
	return s.jwtSecret, nil
}

// RevokeToken blacklists the access token until it expires and drops the refresh token if given
func (s *authService) RevokeToken(ctx context.Context, claims *TokenClaims, refreshToken *string) error {
	if refreshToken != nil && *refreshToken != "" {
		if err := s.cacheSvc.Delete(ctx, refreshTokenKey(*refreshToken)); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}

	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.cacheSvc.SetString(ctx, caching.Key("token_blacklist", claims.ID), "revoked", ttl); err != nil {
		s.logger.Error("failed to blacklist token", zap.String("jti", claims.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.cacheSvc.GetString(ctx, caching.Key("token_blacklist", tokenID))
	if err != nil {
		return false, err
	}
	return val != "", nil
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func refreshTokenKey(token string) string {
	return caching.Key("refresh_token", hashToken(token))
}
