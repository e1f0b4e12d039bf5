package auth

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "auth.claims"

// RequireUser rejects requests without a valid bearer token.
func RequireUser(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return deny(c, ErrMissingToken)
		}
		return verifyAndNext(c, v, token)
	}
}

// OptionalUser lets guests through but verifies a token when one is sent.
func OptionalUser(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}
		return verifyAndNext(c, v, token)
	}
}

// ClaimsFrom returns the verified claims stored by the middleware, if any.
func ClaimsFrom(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

func verifyAndNext(c *fiber.Ctx, v TokenVerifier, token string) error {
	if v == nil {
		return deny(c, ErrNotConfigured)
	}
	claims, err := v.Verify(c.UserContext(), token)
	if err != nil {
		return deny(c, err)
	}
	c.Locals(claimsKey, claims)
	return c.Next()
}

func deny(c *fiber.Ctx, err error) error {
	status, detail := StatusFor(err)
	slog.Debug("Request not authenticated", "path", c.Path(), "status", status, "error", err)
	return c.Status(status).JSON(fiber.Map{"detail": detail})
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
