package services

import (
	"context"
	"errors"
	"time"

	"storefront/internal/caching"
	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartOwner identifies who is asking for a cart: the session cookie and, when logged in, the user
type CartOwner struct {
	SessionID string
	UserID    *uuid.UUID
}

type CartService interface {
	// Get returns nil without creating anything when no cart exists
	Get(ctx context.Context, owner CartOwner) (*models.Cart, error)
	AddItem(ctx context.Context, owner CartOwner, variantID uuid.UUID, quantity int) (*models.Cart, error)
	SetItemQuantity(ctx context.Context, owner CartOwner, variantID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner CartOwner, variantID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, owner CartOwner) error
	AttachToUser(ctx context.Context, sessionID string, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repositories.CartRepository
	variantRepo repositories.VariantRepository
	cacheSvc    caching.CacheService
	logger      *zap.Logger
	sessionTTL  time.Duration
}

func NewCartService(cartRepo repositories.CartRepository, variantRepo repositories.VariantRepository, cacheSvc caching.CacheService, logger *zap.Logger, sessionTTL time.Duration) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		variantRepo: variantRepo,
		cacheSvc:    cacheSvc,
		logger:      logger,
		sessionTTL:  sessionTTL,
	}
}

func (s *cartService) Get(ctx context.Context, owner CartOwner) (*models.Cart, error) {
	return s.resolve(ctx, owner)
}

// AddItem creates the cart on first use and merges quantity into an existing line
func (s *cartService) AddItem(ctx context.Context, owner CartOwner, variantID uuid.UUID, quantity int) (*models.Cart, error) {
	if _, err := s.variantRepo.GetByID(ctx, variantID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, &common.VariantNotFoundError{VariantID: variantID}
		}
		return nil, err
	}

	cart, err := s.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		if cart, err = s.create(ctx, owner); err != nil {
			return nil, err
		}
	}

	if err := s.cartRepo.AddItem(ctx, cart.ID, variantID, quantity); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(ctx, cart.ID)
}

// SetItemQuantity removes the line when quantity is zero or less
func (s *cartService) SetItemQuantity(ctx context.Context, owner CartOwner, variantID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, owner, variantID)
	}
	cart, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.SetItemQuantity(ctx, cart.ID, variantID, quantity); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(ctx, cart.ID)
}

func (s *cartService) RemoveItem(ctx context.Context, owner CartOwner, variantID uuid.UUID) (*models.Cart, error) {
	cart, err := s.existing(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.RemoveItem(ctx, cart.ID, variantID); err != nil {
		return nil, err
	}
	return s.cartRepo.GetByID(ctx, cart.ID)
}

// Clear empties the cart; a missing cart is already empty
func (s *cartService) Clear(ctx context.Context, owner CartOwner) error {
	cart, err := s.resolve(ctx, owner)
	if err != nil || cart == nil {
		return err
	}
	return s.cartRepo.Clear(ctx, cart.ID)
}

// AttachToUser hands the anonymous session cart to a user who just logged in
func (s *cartService) AttachToUser(ctx context.Context, sessionID string, userID uuid.UUID) error {
	if sessionID == "" {
		return nil
	}
	cart, err := s.sessionCart(ctx, sessionID)
	if err != nil || cart == nil {
		return err
	}
	if cart.UserID != nil {
		return nil
	}
	if err := s.cartRepo.AttachUser(ctx, cart.ID, userID); err != nil {
		return err
	}
	s.logger.Info("attached session cart to user", zap.String("cart_id", cart.ID.String()), zap.String("user_id", userID.String()))
	return nil
}

// resolve prefers the session cart, then the user's most recent cart
func (s *cartService) resolve(ctx context.Context, owner CartOwner) (*models.Cart, error) {
	if owner.SessionID != "" {
		cart, err := s.sessionCart(ctx, owner.SessionID)
		if err != nil {
			return nil, err
		}
		if cart != nil && (cart.UserID == nil || (owner.UserID != nil && *cart.UserID == *owner.UserID)) {
			return cart, nil
		}
	}

	if owner.UserID == nil {
		return nil, nil
	}
	cart, err := s.cartRepo.GetLatestByUser(ctx, *owner.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if owner.SessionID != "" {
		s.remember(ctx, owner.SessionID, cart.ID)
	}
	return cart, nil
}

// sessionCart follows the session mapping, dropping it when the cart is gone
func (s *cartService) sessionCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	cartID, ok, err := s.cacheSvc.GetCartSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if err := s.cacheSvc.DeleteCartSession(ctx, sessionID); err != nil {
				s.logger.Warn("failed to drop stale cart session", zap.String("session_id", sessionID), zap.Error(err))
			}
			return nil, nil
		}
		return nil, err
	}
	return cart, nil
}

func (s *cartService) existing(ctx context.Context, owner CartOwner) (*models.Cart, error) {
	cart, err := s.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, common.ErrNotFound
	}
	return cart, nil
}

func (s *cartService) create(ctx context.Context, owner CartOwner) (*models.Cart, error) {
	cart := &models.Cart{ID: uuid.New(), UserID: owner.UserID, Items: []*models.CartItem{}}
	if owner.SessionID != "" {
		sid := owner.SessionID
		cart.SessionKey = &sid
	}
	if err := s.cartRepo.Create(ctx, cart); err != nil {
		return nil, err
	}
	if owner.SessionID != "" {
		s.remember(ctx, owner.SessionID, cart.ID)
	}
	return cart, nil
}

func (s *cartService) remember(ctx context.Context, sessionID string, cartID uuid.UUID) {
	if err := s.cacheSvc.SetCartSession(ctx, sessionID, cartID, s.sessionTTL); err != nil {
		s.logger.Warn("failed to store cart session", zap.String("session_id", sessionID), zap.Error(err))
	}
}
