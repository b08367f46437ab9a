package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/stagepass/stagepass-backend/pkg/auth"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "stagepass-test",
		ExpirationMinutes: 15,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleArtist,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	var seenUserID, seenRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		seenRole = RoleFromContext(r.Context())
	})

	handler := Auth(cfg, nil)(next)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/artist/revenue", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, userID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if seenUserID != userID.String() {
		t.Fatalf("expected user id %s in context, got %q", userID, seenUserID)
	}
	if seenRole != string(enums.UserRoleArtist) {
		t.Fatalf("expected artist role in context, got %q", seenRole)
	}
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	cfg := testJWTConfig()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	})
	handler := Auth(cfg, nil)(next)

	for _, header := range []string{"", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/artist/revenue", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	other := cfg
	other.Secret = "different-secret"

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	})
	handler := Auth(cfg, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artist/revenue", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, other, uuid.New()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for token signed with another secret, got %d", rec.Code)
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	cfg := testJWTConfig()

	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if UserIDFromContext(r.Context()) != "" {
			t.Fatalf("anonymous request must not carry a user id")
		}
	})
	handler := OptionalAuth(cfg, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drops/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !called {
		t.Fatalf("expected anonymous request to pass through")
	}
}

func TestOptionalAuthRejectsMalformedToken(t *testing.T) {
	cfg := testJWTConfig()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler must not run")
	})
	handler := OptionalAuth(cfg, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drops/abc", nil)
	req.Header.Set("Authorization", "Bearer junk")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", rec.Code)
	}
}
