package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// RequireAuth validates the Bearer token and stores the caller's uid in the
// request context under "uid".
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := m.verify(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		c.Set("uid", uid)
		return next(c)
	}
}

// OptionalAuth sets "uid" when a valid token is present but lets anonymous
// requests through. Read endpoints use this so views can be personalized.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if uid, err := m.verify(c); err == nil {
			c.Set("uid", uid)
		}
		return next(c)
	}
}

func (m *AuthMiddleware) verify(c echo.Context) (string, error) {
	authz := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", echo.ErrUnauthorized
	}
	raw := strings.TrimPrefix(authz, "Bearer ")
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", echo.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", echo.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", echo.ErrUnauthorized
	}
	return sub, nil
}

// UID reads the authenticated caller from the context; empty for anonymous
// requests.
func UID(c echo.Context) string {
	if v, ok := c.Get("uid").(string); ok {
		return v
	}
	return ""
}
