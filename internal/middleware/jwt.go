package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/consultacpf/consulta-clientes/internal/auth"
)

// JWTAuth returns a middleware that validates access tokens, checks the token
// version and stores the caller's id and current role in locals.
func JWTAuth(tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		acc, err := tokens.Authorize(c.UserContext(), tokenStr)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrTokenExpired):
			return fiber.NewError(http.StatusUnauthorized, "token expired")
		case errors.Is(err, auth.ErrTokenInvalidated):
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		default:
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(auth.LocalAccountID, acc.ID)
		c.Locals(auth.LocalRole, acc.Role)
		return c.Next()
	}
}

// RequireRole rejects callers whose role, as set by JWTAuth, is not one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(auth.LocalRole).(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return fiber.NewError(http.StatusForbidden, "insufficient role")
	}
}
