package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/common"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestContext(method, target, body string, userID *uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = common.NewRequestValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != nil {
		req = req.WithContext(context.WithValue(req.Context(), common.UserIDKey, *userID))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestStripeWebhook(t *testing.T) {
	t.Run("missing signature is rejected before the service", func(t *testing.T) {
		paymentSvc := new(MockPaymentService)
		h := NewPaymentHandlers(paymentSvc, new(MockOrderService), zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/webhooks/stripe", `{"type":"checkout.session.completed"}`, nil)

		require.NoError(t, h.StripeWebhook(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		paymentSvc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid signature returns 400", func(t *testing.T) {
		paymentSvc := new(MockPaymentService)
		h := NewPaymentHandlers(paymentSvc, new(MockOrderService), zap.NewNop())
		body := `{"type":"checkout.session.completed"}`
		c, rec := newTestContext(http.MethodPost, "/webhooks/stripe", body, nil)
		c.Request().Header.Set(StripeSignatureHeader, "t=1,v1=bad")
		paymentSvc.On("HandleWebhook", mock.Anything, []byte(body), "t=1,v1=bad").Return(services.ErrInvalidSignature)

		require.NoError(t, h.StripeWebhook(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "CLIENT_ERROR", decodeError(t, rec).Error.Code)
		paymentSvc.AssertExpectations(t)
	})

	t.Run("unknown transaction returns 404", func(t *testing.T) {
		paymentSvc := new(MockPaymentService)
		h := NewPaymentHandlers(paymentSvc, new(MockOrderService), zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/webhooks/stripe", `{}`, nil)
		c.Request().Header.Set(StripeSignatureHeader, "t=1,v1=abc")
		paymentSvc.On("HandleWebhook", mock.Anything, mock.Anything, "t=1,v1=abc").Return(common.ErrNotFound)

		require.NoError(t, h.StripeWebhook(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("verified event is acknowledged", func(t *testing.T) {
		paymentSvc := new(MockPaymentService)
		h := NewPaymentHandlers(paymentSvc, new(MockOrderService), zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/webhooks/stripe", `{}`, nil)
		c.Request().Header.Set(StripeSignatureHeader, "t=1,v1=abc")
		paymentSvc.On("HandleWebhook", mock.Anything, mock.Anything, "t=1,v1=abc").Return(nil)

		require.NoError(t, h.StripeWebhook(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	})
}

func TestCreateCheckoutSession_RequiresAuth(t *testing.T) {
	h := NewPaymentHandlers(new(MockPaymentService), new(MockOrderService), zap.NewNop())
	c, rec := newTestContext(http.MethodPost, "/api/v1/payments/checkout-session", `{"order_id":"`+uuid.NewString()+`"}`, nil)

	require.NoError(t, h.CreateCheckoutSession(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart_EmptyWithoutCart(t *testing.T) {
	cartSvc := new(MockCartService)
	h := NewCartHandlers(cartSvc, zap.NewNop())
	c, rec := newTestContext(http.MethodGet, "/api/v1/cart", "", nil)
	cartSvc.On("Get", mock.Anything, services.CartOwner{}).Return(nil, nil)

	require.NoError(t, h.GetCart(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Nil(t, view["id"])
	assert.Empty(t, view["items"])
	assert.Equal(t, float64(0), view["total_items"])
}

func TestAddCartItem(t *testing.T) {
	variantID := uuid.New()

	t.Run("returns computed totals", func(t *testing.T) {
		cartSvc := new(MockCartService)
		h := NewCartHandlers(cartSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/cart/items", `{"variant_id":"`+variantID.String()+`","quantity":3}`, nil)
		cart := &models.Cart{ID: uuid.New(), Items: []*models.CartItem{
			{VariantID: variantID, Quantity: 3, UnitPrice: decimal.RequireFromString("2.50"), ProductName: "Mug", VariantName: "Blue"},
		}}
		cartSvc.On("AddItem", mock.Anything, services.CartOwner{}, variantID, 3).Return(cart, nil)

		require.NoError(t, h.AddItem(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var view struct {
			TotalItems int             `json:"total_items"`
			TotalPrice decimal.Decimal `json:"total_price"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, 3, view.TotalItems)
		assert.True(t, decimal.RequireFromString("7.5").Equal(view.TotalPrice))
	})

	t.Run("unknown variant is 404", func(t *testing.T) {
		cartSvc := new(MockCartService)
		h := NewCartHandlers(cartSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/cart/items", `{"variant_id":"`+variantID.String()+`","quantity":1}`, nil)
		cartSvc.On("AddItem", mock.Anything, services.CartOwner{}, variantID, 1).
			Return(nil, &common.VariantNotFoundError{VariantID: variantID})

		require.NoError(t, h.AddItem(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing quantity defaults to one", func(t *testing.T) {
		cartSvc := new(MockCartService)
		h := NewCartHandlers(cartSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/cart/items", `{"variant_id":"`+variantID.String()+`"}`, nil)
		cartSvc.On("AddItem", mock.Anything, services.CartOwner{}, variantID, 1).Return(&models.Cart{ID: uuid.New()}, nil)

		require.NoError(t, h.AddItem(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		cartSvc.AssertExpectations(t)
	})

	t.Run("negative quantity fails validation", func(t *testing.T) {
		cartSvc := new(MockCartService)
		h := NewCartHandlers(cartSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/cart/items", `{"variant_id":"`+variantID.String()+`","quantity":-2}`, nil)

		require.NoError(t, h.AddItem(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Error.Code)
		cartSvc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPlaceOrder(t *testing.T) {
	userID := uuid.New()
	variantID := uuid.New()
	body := `{"items":[{"variant_id":"` + variantID.String() + `","quantity":2}]}`

	t.Run("unauthenticated", func(t *testing.T) {
		h := NewOrderHandlers(new(MockOrderService), zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/orders", body, nil)

		require.NoError(t, h.PlaceOrder(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		h := NewOrderHandlers(orderSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/orders", body, &userID)
		order := &models.Order{ID: uuid.New(), Status: models.OrderStatusPending, Total: decimal.NewFromInt(20)}
		orderSvc.On("PlaceOrder", mock.Anything, userID, mock.MatchedBy(func(req *services.PlaceOrderRequest) bool {
			return len(req.Items) == 1 && req.Items[0].VariantID == variantID && req.Items[0].Quantity == 2
		}), "").Return(order, false, nil)

		require.NoError(t, h.PlaceOrder(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		orderSvc.AssertExpectations(t)
	})

	t.Run("idempotent replay returns 200", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		h := NewOrderHandlers(orderSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/orders", body, &userID)
		c.Request().Header.Set(IdempotencyKeyHeader, "key-1")
		order := &models.Order{ID: uuid.New(), Status: models.OrderStatusPending}
		orderSvc.On("PlaceOrder", mock.Anything, userID, mock.Anything, "key-1").Return(order, true, nil)

		require.NoError(t, h.PlaceOrder(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("insufficient stock carries details", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		h := NewOrderHandlers(orderSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/orders", body, &userID)
		orderSvc.On("PlaceOrder", mock.Anything, userID, mock.Anything, "").Return(nil, false, &common.InsufficientStockError{
			VariantID: variantID, DisplayName: "Mug - Blue", Requested: 2, Available: 1,
		})

		require.NoError(t, h.PlaceOrder(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
		assert.Equal(t, "1", resp.Error.Details["available"])
		assert.Equal(t, variantID.String(), resp.Error.Details["variant_id"])
	})

	t.Run("in-flight duplicate is 409", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		h := NewOrderHandlers(orderSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/orders", body, &userID)
		c.Request().Header.Set(IdempotencyKeyHeader, "key-2")
		orderSvc.On("PlaceOrder", mock.Anything, userID, mock.Anything, "key-2").Return(nil, false, services.ErrIdempotencyInProgress)

		require.NoError(t, h.PlaceOrder(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("empty items fail validation", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		h := NewOrderHandlers(orderSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodPost, "/api/v1/orders", `{"items":[]}`, &userID)

		require.NoError(t, h.PlaceOrder(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		orderSvc.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("quantity above the line cap fails validation", func(t *testing.T) {
		orderSvc := new(MockOrderService)
		h := NewOrderHandlers(orderSvc, zap.NewNop())
		huge := `{"items":[{"variant_id":"` + variantID.String() + `","quantity":2147483647}]}`
		c, rec := newTestContext(http.MethodPost, "/api/v1/orders", huge, &userID)

		require.NoError(t, h.PlaceOrder(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		orderSvc.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetOrder_NotOwner(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	orderSvc := new(MockOrderService)
	h := NewOrderHandlers(orderSvc, zap.NewNop())
	c, rec := newTestContext(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", &userID)
	c.SetParamNames("id")
	c.SetParamValues(orderID.String())
	orderSvc.On("Get", mock.Anything, userID, false, orderID).Return(nil, common.ErrNotFound)

	require.NoError(t, h.GetOrder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrders_RejectsUnknownStatus(t *testing.T) {
	userID := uuid.New()
	h := NewOrderHandlers(new(MockOrderService), zap.NewNop())
	c, rec := newTestContext(http.MethodGet, "/api/v1/orders?status=lost", "", &userID)

	require.NoError(t, h.ListOrders(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Details, "status")
}

func TestListOrders_Ordering(t *testing.T) {
	t.Run("unknown ordering is rejected", func(t *testing.T) {
		userID := uuid.New()
		orderSvc := new(MockOrderService)
		h := NewOrderHandlers(orderSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodGet, "/api/v1/orders?ordering=id;drop", "", &userID)

		require.NoError(t, h.ListOrders(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error.Details, "ordering")
		orderSvc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("allowed ordering reaches the service", func(t *testing.T) {
		userID := uuid.New()
		orderSvc := new(MockOrderService)
		h := NewOrderHandlers(orderSvc, zap.NewNop())
		c, rec := newTestContext(http.MethodGet, "/api/v1/orders?ordering=-total", "", &userID)
		orderSvc.On("List", mock.Anything, userID, false, mock.MatchedBy(func(f *models.OrderFilter) bool {
			return f.Ordering == "-total"
		})).Return([]*models.Order{}, nil)

		require.NoError(t, h.ListOrders(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		orderSvc.AssertExpectations(t)
	})
}

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{"empty uses fallback", "", "name", false},
		{"allowed value", "?ordering=-name", "-name", false},
		{"unknown value", "?ordering=password", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/api/v1/categories"+tt.query, "", nil)
			got, err := common.ParseOrdering(c, "name", "name", "-name")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetLowStock(t *testing.T) {
	t.Run("lists variants with the threshold", func(t *testing.T) {
		stats := new(MockStatsProvider)
		h := NewStatsHandlers(stats, zap.NewNop())
		c, rec := newTestContext(http.MethodGet, "/api/v1/stats/low-stock?limit=20", "", nil)
		stats.On("LowStock", mock.Anything, 20).Return([]*models.LowStockVariant{{SKU: "TEE-S", Stock: 2}}, nil)
		stats.On("LowStockThreshold").Return(10)

		require.NoError(t, h.GetLowStock(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Threshold int                       `json:"threshold"`
			Results   []*models.LowStockVariant `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 10, body.Threshold)
		require.Len(t, body.Results, 1)
		assert.Equal(t, "TEE-S", body.Results[0].SKU)
		stats.AssertExpectations(t)
	})

	t.Run("default limit", func(t *testing.T) {
		stats := new(MockStatsProvider)
		h := NewStatsHandlers(stats, zap.NewNop())
		c, rec := newTestContext(http.MethodGet, "/api/v1/stats/low-stock", "", nil)
		stats.On("LowStock", mock.Anything, defaultLowStockLimit).Return([]*models.LowStockVariant{}, nil)
		stats.On("LowStockThreshold").Return(10)

		require.NoError(t, h.GetLowStock(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		stats.AssertExpectations(t)
	})

	t.Run("out of range limit is rejected", func(t *testing.T) {
		stats := new(MockStatsProvider)
		h := NewStatsHandlers(stats, zap.NewNop())
		c, rec := newTestContext(http.MethodGet, "/api/v1/stats/low-stock?limit=0", "", nil)

		require.NoError(t, h.GetLowStock(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		stats.AssertNotCalled(t, "LowStock", mock.Anything, mock.Anything)
	})
}

func TestUnexpectedErrorIsMasked(t *testing.T) {
	userID := uuid.New()
	orderSvc := new(MockOrderService)
	h := NewOrderHandlers(orderSvc, zap.NewNop())
	c, rec := newTestContext(http.MethodGet, "/api/v1/orders", "", &userID)
	orderSvc.On("List", mock.Anything, userID, false, mock.Anything).
		Return([]*models.Order(nil), errors.New("pq: connection reset by peer"))

	require.NoError(t, h.ListOrders(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHealthCheck(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		db, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer db.Close()
		db.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))

		h := NewHealthHandlers(db, fakePinger{}, fakePinger{}, "v1", zap.NewNop())
		c, rec := newTestContext(http.MethodGet, "/health", "", nil)

		require.NoError(t, h.HealthCheck(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		var status HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status.Status)
		assert.NoError(t, db.ExpectationsWereMet())
	})

	t.Run("storage down degrades to 503", func(t *testing.T) {
		db, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer db.Close()
		db.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))

		h := NewHealthHandlers(db, fakePinger{}, fakePinger{err: errors.New("bucket missing")}, "v1", zap.NewNop())
		c, rec := newTestContext(http.MethodGet, "/health", "", nil)

		require.NoError(t, h.HealthCheck(c))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var status HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "degraded", status.Status)
		assert.Equal(t, "unhealthy", status.Services["storage"])
		assert.Equal(t, "healthy", status.Services["database"])
	})

	t.Run("readiness ignores storage", func(t *testing.T) {
		db, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer db.Close()
		db.ExpectExec("SELECT 1").WillReturnResult(pgxmock.NewResult("SELECT", 1))

		h := NewHealthHandlers(db, fakePinger{}, fakePinger{err: errors.New("down")}, "v1", zap.NewNop())
		c, rec := newTestContext(http.MethodGet, "/health/ready", "", nil)

		require.NoError(t, h.ReadinessCheck(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
