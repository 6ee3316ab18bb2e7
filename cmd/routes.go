package main

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront/internal/caching"
	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/services"
)

const (
	sensitiveRateLimit  = 10
	sensitiveRateWindow = time.Minute
)

type routeDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	cache   caching.CacheService
	authSvc services.AuthService

	health   *handlers.HealthHandlers
	auth     *handlers.AuthHandlers
	accounts *handlers.AccountHandlers
	address  *handlers.AddressHandlers
	category *handlers.CategoryHandlers
	brand    *handlers.BrandHandlers
	product  *handlers.ProductHandlers
	cart     *handlers.CartHandlers
	order    *handlers.OrderHandlers
	payment  *handlers.PaymentHandlers
	review   *handlers.ReviewHandlers
	contact  *handlers.ContactHandlers
	stats    *handlers.StatsHandlers
}

func registerRoutes(e *echo.Echo, d routeDeps) {
	// Health endpoints (no auth required)
	e.GET("/health", d.health.HealthCheck)
	e.GET("/health/live", d.health.LivenessCheck)
	e.GET("/health/ready", d.health.ReadinessCheck)

	// Stripe signs the raw body; no auth, no version prefix
	e.POST("/webhooks/stripe", d.payment.StripeWebhook)

	versionMiddleware := middleware.NewVersionMiddleware()
	api := versionMiddleware.VersionGroup(e, versionMiddleware.CurrentVersion())
	api.Use(middleware.CartSession(d.cfg.CartSessionTTL, !d.cfg.IsDevelopment()))

	auth := middleware.JWTMiddleware(d.authSvc)
	optionalAuth := middleware.OptionalJWTMiddleware(d.authSvc)
	staff := []echo.MiddlewareFunc{auth, middleware.RequireStaff()}
	limited := middleware.RateLimit(d.cache, d.logger, sensitiveRateLimit, sensitiveRateWindow)

	// Tokens
	api.POST("/token", d.auth.ObtainToken, limited)
	api.POST("/token/refresh", d.auth.RefreshToken, limited)
	api.POST("/token/revoke", d.auth.RevokeToken, auth)

	// Accounts
	api.POST("/accounts/register", d.accounts.Register, limited)
	api.POST("/accounts/confirm", d.accounts.Confirm)
	api.POST("/accounts/password-reset", d.accounts.RequestPasswordReset, limited)
	api.POST("/accounts/password-reset/confirm", d.accounts.ConfirmPasswordReset, limited)
	api.GET("/accounts", d.accounts.ListUsers, staff...)
	api.GET("/accounts/:id", d.accounts.GetUser, staff...)

	// Current user
	api.GET("/me", d.auth.Me, auth)
	api.PATCH("/me", d.auth.UpdateMe, auth)
	api.POST("/me/password", d.auth.ChangePassword, auth)
	api.GET("/me/addresses", d.address.ListAddresses, auth)
	api.POST("/me/addresses", d.address.CreateAddress, auth)
	api.PUT("/me/addresses/:id", d.address.UpdateAddress, auth)
	api.DELETE("/me/addresses/:id", d.address.DeleteAddress, auth)
	api.POST("/me/addresses/:id/default", d.address.SetDefaultAddress, auth)

	// Catalog
	api.GET("/categories", d.category.ListCategories)
	api.GET("/categories/:id", d.category.GetCategory)
	api.POST("/categories", d.category.CreateCategory, staff...)
	api.PUT("/categories/:id", d.category.UpdateCategory, staff...)
	api.DELETE("/categories/:id", d.category.DeleteCategory, staff...)

	api.GET("/brands", d.brand.ListBrands)
	api.POST("/brands", d.brand.CreateBrand, staff...)
	api.PUT("/brands/:id", d.brand.UpdateBrand, staff...)
	api.DELETE("/brands/:id", d.brand.DeleteBrand, staff...)
	api.POST("/brands/:id/logo", d.brand.UploadLogo, staff...)

	api.GET("/products", d.product.ListProducts, optionalAuth)
	api.GET("/products/latest", d.product.LatestProducts)
	api.GET("/products/:slug", d.product.GetProduct, optionalAuth)
	api.POST("/products", d.product.CreateProduct, staff...)
	api.PUT("/products/:id", d.product.UpdateProduct, staff...)
	api.DELETE("/products/:id", d.product.DeleteProduct, staff...)
	api.POST("/products/:id/variants", d.product.CreateVariant, staff...)
	api.PUT("/variants/:id", d.product.UpdateVariant, staff...)
	api.DELETE("/variants/:id", d.product.DeleteVariant, staff...)
	api.POST("/products/:id/images", d.product.UploadImage, staff...)
	api.DELETE("/products/:id/images/:image_id", d.product.DeleteImage, staff...)
	api.POST("/products/:id/images/:image_id/primary", d.product.SetPrimaryImage, staff...)

	// Reviews
	api.GET("/products/:id/reviews", d.review.ListProductReviews)
	api.POST("/products/:id/reviews", d.review.CreateReview, auth)
	api.GET("/reviews", d.review.ListReviews, staff...)
	api.PATCH("/reviews/:id", d.review.UpdateReview, auth)
	api.DELETE("/reviews/:id", d.review.DeleteReview, auth)
	api.POST("/reviews/:id/approve", d.review.ApproveReview, staff...)
	api.POST("/reviews/:id/reject", d.review.RejectReview, staff...)

	// Cart
	api.GET("/cart", d.cart.GetCart, optionalAuth)
	api.DELETE("/cart", d.cart.ClearCart, optionalAuth)
	api.POST("/cart/items", d.cart.AddItem, optionalAuth)
	api.PATCH("/cart/items/:variant_id", d.cart.SetItemQuantity, optionalAuth)
	api.DELETE("/cart/items/:variant_id", d.cart.RemoveItem, optionalAuth)

	// Orders
	api.POST("/orders", d.order.PlaceOrder, auth)
	api.POST("/orders/checkout", d.order.Checkout, auth)
	api.GET("/orders", d.order.ListOrders, auth)
	api.GET("/orders/:id", d.order.GetOrder, auth)
	api.PATCH("/orders/:id/status", d.order.UpdateOrderStatus, staff...)
	api.GET("/orders/:id/payments", d.payment.ListOrderPayments, auth)

	// Payments
	api.POST("/payments/checkout-session", d.payment.CreateCheckoutSession, auth)
	api.GET("/payments/success/:order_id", d.payment.PaymentSucceeded, auth)
	api.GET("/payments/failed/:order_id", d.payment.PaymentFailed, auth)

	// Contact & stats
	api.POST("/contact", d.contact.SubmitContact, limited)
	api.GET("/stats", d.stats.GetStats, staff...)
	api.GET("/stats/dashboard", d.stats.GetDashboard, staff...)
	api.GET("/stats/low-stock", d.stats.GetLowStock, staff...)
}
