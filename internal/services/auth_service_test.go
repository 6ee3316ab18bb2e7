package services

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testJWTSecret = "test-signing-secret"

type AuthServiceTestSuite struct {
	suite.Suite
	cache    *MockCacheService
	userRepo *MockUserRepository
	service  AuthService
	ctx      context.Context
	user     *models.User
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.cache = new(MockCacheService)
	s.userRepo = new(MockUserRepository)
	s.service = NewAuthService(s.cache, s.userRepo, zap.NewNop(), testJWTSecret, 15*time.Minute, 24*time.Hour)
	s.ctx = context.Background()
	s.user = &models.User{ID: uuid.New(), Email: "ada@example.com", IsActive: true, IsStaff: true}
}

func (s *AuthServiceTestSuite) TearDownTest() {
	s.cache.AssertExpectations(s.T())
	s.userRepo.AssertExpectations(s.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

// issue generates a token pair and returns it with the refresh cache key
func (s *AuthServiceTestSuite) issue() (*models.TokenResponse, string) {
	var refreshKey string
	s.cache.On("SetString", mock.Anything, mock.AnythingOfType("string"), s.user.ID.String(), 24*time.Hour).
		Run(func(args mock.Arguments) { refreshKey = args.String(1) }).
		Return(nil).Once()

	tokens, err := s.service.GenerateTokens(s.ctx, s.user)
	s.Require().NoError(err)
	return tokens, refreshKey
}

func (s *AuthServiceTestSuite) TestGenerateAndValidate() {
	tokens, refreshKey := s.issue()
	s.Equal("Bearer", tokens.TokenType)
	s.Equal(900, tokens.ExpiresIn)
	s.Equal(refreshTokenKey(tokens.RefreshToken), refreshKey)
	s.NotContains(refreshKey, tokens.RefreshToken)

	s.cache.On("GetString", mock.Anything, "storefront:token_blacklist:"+tokens.TokenID).Return("", nil)

	claims, err := s.service.ValidateToken(s.ctx, tokens.AccessToken)
	s.Require().NoError(err)
	s.Equal(s.user.ID.String(), claims.UserID)
	s.True(claims.IsStaff)
	s.Equal(tokens.TokenID, claims.ID)
}

func (s *AuthServiceTestSuite) TestValidateToken_Revoked() {
	tokens, _ := s.issue()
	s.cache.On("GetString", mock.Anything, "storefront:token_blacklist:"+tokens.TokenID).Return("revoked", nil)

	_, err := s.service.ValidateToken(s.ctx, tokens.AccessToken)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestValidateToken_WrongSecret() {
	other := NewAuthService(s.cache, s.userRepo, zap.NewNop(), "another-secret", time.Minute, time.Hour)
	s.cache.On("SetString", mock.Anything, mock.Anything, mock.Anything, time.Hour).Return(nil).Once()
	tokens, err := other.GenerateTokens(s.ctx, s.user)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(s.ctx, tokens.AccessToken)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestValidateToken_Expired() {
	claims := TokenClaims{
		UserID: s.user.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(s.ctx, signed)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestRefreshToken_Rotates() {
	tokens, refreshKey := s.issue()
	s.cache.On("TakeString", mock.Anything, refreshKey).Return(s.user.ID.String(), nil).Once()
	s.userRepo.On("GetByID", mock.Anything, s.user.ID).Return(s.user, nil).Once()
	s.cache.On("SetString", mock.Anything, mock.AnythingOfType("string"), s.user.ID.String(), 24*time.Hour).Return(nil).Once()

	refreshed, err := s.service.RefreshToken(s.ctx, tokens.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(tokens.RefreshToken, refreshed.RefreshToken)
	s.NotEqual(tokens.TokenID, refreshed.TokenID)

	s.cache.On("TakeString", mock.Anything, refreshKey).Return("", nil).Once()
	_, err = s.service.RefreshToken(s.ctx, tokens.RefreshToken)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestRefreshToken_Unknown() {
	s.cache.On("TakeString", mock.Anything, refreshTokenKey("nope")).Return("", nil)

	_, err := s.service.RefreshToken(s.ctx, "nope")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestRefreshToken_InactiveUser() {
	s.user.IsActive = false
	s.cache.On("TakeString", mock.Anything, refreshTokenKey("tok")).Return(s.user.ID.String(), nil)
	s.userRepo.On("GetByID", mock.Anything, s.user.ID).Return(s.user, nil)

	_, err := s.service.RefreshToken(s.ctx, "tok")
	s.ErrorIs(err, ErrAccountInactive)
}

func (s *AuthServiceTestSuite) TestRevokeToken_BlacklistsUntilExpiry() {
	refresh := "refresh-value"
	claims := &TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
	}}
	s.cache.On("Delete", mock.Anything, refreshTokenKey(refresh)).Return(nil)
	s.cache.On("SetString", mock.Anything, "storefront:token_blacklist:jti-1", "revoked",
		mock.MatchedBy(func(ttl time.Duration) bool { return ttl > 9*time.Minute && ttl <= 10*time.Minute })).Return(nil)

	s.NoError(s.service.RevokeToken(s.ctx, claims, &refresh))
}

func (s *AuthServiceTestSuite) TestRevokeToken_AlreadyExpired() {
	claims := &TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "jti-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	s.NoError(s.service.RevokeToken(s.ctx, claims, nil))
}
