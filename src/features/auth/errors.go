package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured   = errors.New("CLERK_ISSUER_URL not configured")
	ErrKeysUnavailable = errors.New("auth server unavailable")
	ErrUnknownKey      = errors.New("unable to find appropriate key")
	ErrTokenExpired    = errors.New("token has expired")
	ErrInvalidClaims   = errors.New("incorrect claims")
	ErrMissingToken    = errors.New("not authenticated")
)

// StatusFor maps a verification error to the HTTP status and detail message returned to clients.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return fiber.StatusInternalServerError, "CLERK_ISSUER_URL not configured"
	case errors.Is(err, ErrKeysUnavailable):
		return fiber.StatusInternalServerError, "Auth server unavailable"
	case errors.Is(err, ErrMissingToken):
		return fiber.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, ErrTokenExpired), errors.Is(err, jwt.ErrTokenExpired):
		return fiber.StatusUnauthorized, "Token has expired"
	case errors.Is(err, ErrUnknownKey):
		return fiber.StatusUnauthorized, "Unable to find appropriate key"
	case errors.Is(err, ErrInvalidClaims), errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fiber.StatusUnauthorized, "Incorrect claims. Please check the issuer and audience."
	default:
		return fiber.StatusUnauthorized, "Unable to parse authentication token: " + err.Error()
	}
}
