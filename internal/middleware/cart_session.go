package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	CartSessionCookie     = "cart_session"
	cartSessionContextKey = "cart_session_id"
)

// CartSession ensures every request carries a cart session id, issuing the cookie when missing
func CartSession(ttl time.Duration, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(CartSessionCookie); err == nil && cookie.Value != "" {
				c.Set(cartSessionContextKey, cookie.Value)
				return next(c)
			}

			sessionID, err := newSessionID()
			if err != nil {
				return err
			}
			c.SetCookie(&http.Cookie{
				Name:     CartSessionCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(cartSessionContextKey, sessionID)
			return next(c)
		}
	}
}

// CartSessionID returns the id set by CartSession, or "" outside it
func CartSessionID(c echo.Context) string {
	id, _ := c.Get(cartSessionContextKey).(string)
	return id
}

func newSessionID() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
