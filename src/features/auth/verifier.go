package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the verified token claims the service relies on.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject, which is the identity provider's user id.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Verifier checks RS256 tokens against the issuer's published key set.
// The key set is fetched lazily and held by a keyfunc on the instance. An
// unknown kid triggers at most one refetch per refreshInterval, and so does a
// failed fetch.
type Verifier struct {
	issuer          string
	jwksURL         string
	client          *http.Client
	timeout         time.Duration
	refreshInterval time.Duration
	now             func() time.Time

	mu        sync.Mutex
	keys      keyfunc.Keyfunc
	lastFetch time.Time
	fetchErr  error
}

// NewVerifier creates a verifier for issuerURL. An empty issuer yields a
// verifier that rejects every token with ErrNotConfigured.
func NewVerifier(issuerURL string, timeout time.Duration) *Verifier {
	issuer := strings.TrimRight(strings.TrimSpace(issuerURL), "/")
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	v := &Verifier{
		issuer:          issuer,
		client:          &http.Client{Timeout: timeout},
		timeout:         timeout,
		refreshInterval: 30 * time.Second,
		now:             time.Now,
	}
	if issuer != "" {
		v.jwksURL = issuer + "/.well-known/jwks.json"
	}
	return v
}

// Configured reports whether an issuer is set.
func (v *Verifier) Configured() bool {
	return v.issuer != ""
}

// Verify parses and validates token. Only RS256 signatures from the
// configured issuer are accepted.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if !v.Configured() {
		return nil, ErrNotConfigured
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.key(ctx, t)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrKeysUnavailable), errors.Is(err, ErrUnknownKey):
			return nil, err
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenInvalidClaims):
			return nil, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
		}
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	return claims, nil
}

// key resolves the signing key for t, refetching the key set once when its kid is unknown.
func (v *Verifier) key(ctx context.Context, t *jwt.Token) (any, error) {
	if kid, _ := t.Header["kid"].(string); kid == "" {
		return nil, ErrUnknownKey
	}

	keys, err := v.keySet(ctx, false)
	if err != nil {
		return nil, err
	}
	key, err := keys.KeyfuncCtx(ctx)(t)
	if err == nil || !errors.Is(err, jwkset.ErrKeyNotFound) {
		return key, err
	}

	if keys, err = v.keySet(ctx, true); err != nil {
		return nil, err
	}
	key, err = keys.KeyfuncCtx(ctx)(t)
	if errors.Is(err, jwkset.ErrKeyNotFound) {
		return nil, ErrUnknownKey
	}
	return key, err
}

// keySet returns the cached keyfunc, fetching a new key set when none is held
// or when refresh is set, unless a fetch already happened within refreshInterval.
func (v *Verifier) keySet(ctx context.Context, refresh bool) (keyfunc.Keyfunc, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keys != nil && !refresh {
		return v.keys, nil
	}
	if !v.lastFetch.IsZero() && v.now().Sub(v.lastFetch) < v.refreshInterval {
		if v.keys != nil {
			return v.keys, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, v.fetchErr)
	}

	v.lastFetch = v.now()
	keys, err := v.fetch(ctx)
	if err != nil {
		v.fetchErr = err
		slog.Error("Failed to fetch JWKS", "url", v.jwksURL, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}
	v.keys, v.fetchErr = keys, nil
	slog.Debug("JWKS refreshed", "url", v.jwksURL)
	return keys, nil
}

func (v *Verifier) fetch(ctx context.Context) (keyfunc.Keyfunc, error) {
	storage, err := jwkset.NewStorageFromHTTP(v.jwksURL, jwkset.HTTPClientStorageOptions{
		Client:      v.client,
		Ctx:         ctx,
		HTTPTimeout: v.timeout,
	})
	if err != nil {
		return nil, err
	}
	return keyfunc.New(keyfunc.Options{
		Ctx:          context.Background(),
		Storage:      storage,
		UseWhitelist: []jwkset.USE{jwkset.UseSig, ""},
	})
}
