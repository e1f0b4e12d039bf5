package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type testIssuer struct {
	t      *testing.T
	server *httptest.Server
	hits   atomic.Int32

	mu   sync.Mutex
	keys map[string]*rsa.PrivateKey
}

func newTestIssuer(t *testing.T, kids ...string) *testIssuer {
	t.Helper()
	iss := &testIssuer{t: t, keys: map[string]*rsa.PrivateKey{}}
	for _, kid := range kids {
		iss.addKey(kid)
	}
	iss.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/jwks.json" {
			http.NotFound(w, r)
			return
		}
		iss.hits.Add(1)
		iss.mu.Lock()
		defer iss.mu.Unlock()
		set := jwkset.NewMemoryStorage()
		for kid, key := range iss.keys {
			jwk, err := jwkset.NewJWKFromKey(&key.PublicKey, jwkset.JWKOptions{
				Metadata: jwkset.JWKMetadataOptions{KID: kid, USE: jwkset.UseSig},
			})
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			_ = set.KeyWrite(r.Context(), jwk)
		}
		raw, err := set.JSONPublic(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
	}))
	t.Cleanup(iss.server.Close)
	return iss
}

func (iss *testIssuer) addKey(kid string) {
	iss.t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		iss.t.Fatal(err)
	}
	iss.mu.Lock()
	iss.keys[kid] = key
	iss.mu.Unlock()
}

func (iss *testIssuer) sign(kid string, claims Claims) string {
	iss.t.Helper()
	iss.mu.Lock()
	key := iss.keys[kid]
	iss.mu.Unlock()
	if key == nil {
		var err error
		if key, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			iss.t.Fatal(err)
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		iss.t.Fatal(err)
	}
	return signed
}

func (iss *testIssuer) claims(sub string, ttl time.Duration) Claims {
	return Claims{
		Email: sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    iss.server.URL,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestVerifierNotConfigured(t *testing.T) {
	v := NewVerifier("", time.Second)
	if _, err := v.Verify(context.Background(), "anything"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if status, _ := StatusFor(ErrNotConfigured); status != fiber.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
}

func TestVerifierAcceptsValidTokenAndCachesKeys(t *testing.T) {
	iss := newTestIssuer(t, "key-1")
	v := NewVerifier(iss.server.URL+"/", time.Second)

	token := iss.sign("key-1", iss.claims("user_1", time.Hour))
	for i := 0; i < 3; i++ {
		claims, err := v.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if claims.UserID() != "user_1" || claims.Email != "user_1@example.com" {
			t.Errorf("unexpected claims %+v", claims)
		}
	}
	if hits := iss.hits.Load(); hits != 1 {
		t.Errorf("expected key set to be fetched once, got %d", hits)
	}
}

func TestVerifierRejections(t *testing.T) {
	iss := newTestIssuer(t, "key-1")

	wrongIssuer := iss.claims("user_1", time.Hour)
	wrongIssuer.Issuer = "https://evil.example.com"
	noSubject := iss.claims("", time.Hour)

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, iss.claims("user_1", time.Hour))
	hmac.Header["kid"] = "key-1"
	hmacToken, _ := hmac.SignedString([]byte("secret"))

	tests := []struct {
		name       string
		token      string
		wantErr    error
		wantStatus int
		wantDetail string
	}{
		{"expired", iss.sign("key-1", iss.claims("user_1", -time.Hour)), ErrTokenExpired, 401, "Token has expired"},
		{"wrong issuer", iss.sign("key-1", wrongIssuer), ErrInvalidClaims, 401, "Incorrect claims. Please check the issuer and audience."},
		{"missing subject", iss.sign("key-1", noSubject), ErrInvalidClaims, 401, "Incorrect claims. Please check the issuer and audience."},
		{"unknown kid", iss.sign("key-9", iss.claims("user_1", time.Hour)), ErrUnknownKey, 401, "Unable to find appropriate key"},
		{"hmac algorithm", hmacToken, nil, 401, ""},
		{"garbage", "not.a.token", nil, 401, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(iss.server.URL, time.Second)
			_, err := v.Verify(context.Background(), tt.token)
			if err == nil {
				t.Fatal("expected verification to fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			status, detail := StatusFor(err)
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
			if tt.wantDetail != "" && detail != tt.wantDetail {
				t.Errorf("expected detail %q, got %q", tt.wantDetail, detail)
			}
		})
	}
}

func TestVerifierRefreshesOnRotatedKey(t *testing.T) {
	iss := newTestIssuer(t, "key-1")
	v := NewVerifier(iss.server.URL, time.Second)

	if _, err := v.Verify(context.Background(), iss.sign("key-1", iss.claims("user_1", time.Hour))); err != nil {
		t.Fatal(err)
	}

	iss.addKey("key-2")
	rotated := iss.sign("key-2", iss.claims("user_1", time.Hour))

	// Within the refresh interval an unknown kid is rejected from cache.
	if _, err := v.Verify(context.Background(), rotated); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey before refresh interval, got %v", err)
	}
	if hits := iss.hits.Load(); hits != 1 {
		t.Fatalf("expected no refetch inside interval, got %d fetches", hits)
	}

	v.refreshInterval = 0
	if _, err := v.Verify(context.Background(), rotated); err != nil {
		t.Fatalf("expected rotated key to verify after refresh: %v", err)
	}
	if hits := iss.hits.Load(); hits != 2 {
		t.Errorf("expected exactly one refresh, got %d fetches", hits)
	}
}

func TestVerifierKeysUnavailable(t *testing.T) {
	var hits atomic.Int32
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer down.Close()

	iss := newTestIssuer(t, "key-1")
	claims := iss.claims("user_1", time.Hour)
	claims.Issuer = down.URL
	token := iss.sign("key-1", claims)

	now := time.Now()
	v := NewVerifier(down.URL, time.Second)
	v.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := v.Verify(context.Background(), token)
		if !errors.Is(err, ErrKeysUnavailable) {
			t.Fatalf("attempt %d: expected ErrKeysUnavailable, got %v", i, err)
		}
		status, detail := StatusFor(err)
		if status != fiber.StatusInternalServerError || detail != "Auth server unavailable" {
			t.Errorf("unexpected mapping %d %q", status, detail)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected a failed fetch to be retried once per interval, got %d fetches", n)
	}

	now = now.Add(v.refreshInterval)
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrKeysUnavailable) {
		t.Fatalf("expected ErrKeysUnavailable, got %v", err)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("expected a retry after the interval, got %d fetches", n)
	}
}

func TestVerifierRejectsMissingKid(t *testing.T) {
	iss := newTestIssuer(t, "key-1")
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, iss.claims("user_1", time.Hour))
	iss.mu.Lock()
	signed, err := token.SignedString(iss.keys["key-1"])
	iss.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}

	v := NewVerifier(iss.server.URL, time.Second)
	if _, err := v.Verify(context.Background(), signed); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	if hits := iss.hits.Load(); hits != 0 {
		t.Errorf("expected no key fetch for a token without kid, got %d", hits)
	}
}

func TestMiddleware(t *testing.T) {
	iss := newTestIssuer(t, "key-1")
	v := NewVerifier(iss.server.URL, time.Second)
	valid := iss.sign("key-1", iss.claims("user_1", time.Hour))

	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		if claims, ok := ClaimsFrom(c); ok {
			return c.SendString(claims.UserID())
		}
		return c.SendString("guest")
	}
	app.Get("/required", RequireUser(v), whoami)
	app.Get("/optional", OptionalUser(v), whoami)

	tests := []struct {
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"/required", "", 401, ""},
		{"/required", "Basic abc", 401, ""},
		{"/required", "Bearer " + valid, 200, "user_1"},
		{"/optional", "", 200, "guest"},
		{"/optional", "Bearer " + valid, 200, "user_1"},
		{"/optional", "Bearer broken", 401, ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != tt.wantStatus {
			t.Errorf("%s %q: expected %d, got %d", tt.path, tt.header, tt.wantStatus, resp.StatusCode)
			continue
		}
		if tt.wantBody != "" {
			buf := make([]byte, 64)
			n, _ := resp.Body.Read(buf)
			if string(buf[:n]) != tt.wantBody {
				t.Errorf("%s: expected body %q, got %q", tt.path, tt.wantBody, buf[:n])
			}
		}
	}
}
