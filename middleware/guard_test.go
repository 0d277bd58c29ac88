package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authcore "github.com/veilmail/authcore"
	"github.com/veilmail/authcore/principal"
	"github.com/veilmail/authcore/ratelimit"
	"github.com/veilmail/authcore/token"
)

func newTestEngine(t *testing.T) (*authcore.Engine, *principal.Static) {
	t.Helper()

	principals := principal.NewStatic("p1")
	cfg := authcore.Config{
		Token: token.Config{
			SigningMethod: token.MethodHS256,
			PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
			AccessTTL:     time.Hour,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Tiers: authcore.TierSet{
			Auth:  ratelimit.TierAuth,
			API:   ratelimit.TierAPI,
			Quota: ratelimit.TierQuota,
		},
	}

	engine, err := authcore.New().WithConfig(cfg).WithPrincipalStore(principals).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return engine, principals
}

func issueAccess(t *testing.T, engine *authcore.Engine) string {
	t.Helper()
	pair, err := engine.Issue(context.Background(), "p1", "p1@example.com")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	return pair.AccessToken
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := authcore.IdentityFromContext(r.Context()); ok {
			w.Header().Set("X-Test-Principal", identity.PrincipalID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestRequireAuthAdmitsValidToken(t *testing.T) {
	engine, _ := newTestEngine(t)
	handler := RequireAuth(engine)(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/mail", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, engine))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Test-Principal"); got != "p1" {
		t.Fatalf("bound principal = %q, want p1", got)
	}
}

func TestRequireAuthBearerPrefixIsExact(t *testing.T) {
	engine, _ := newTestEngine(t)
	handler := RequireAuth(engine)(echoIdentity())
	valid := issueAccess(t, engine)

	// Every variant carries a perfectly valid token; only the exact
	// "Bearer " prefix may reach verification.
	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"lowercase scheme", "bearer " + valid, "INVALID_TOKEN"},
		{"uppercase scheme", "BEARER " + valid, "INVALID_TOKEN"},
		{"missing space", "Bearer" + valid, "INVALID_TOKEN"},
		{"double space", "Bearer  " + valid, "INVALID_TOKEN"},
		{"wrong scheme", "Basic " + valid, "INVALID_TOKEN"},
		{"empty credential", "Bearer ", "INVALID_TOKEN"},
		{"no header", "", "MISSING_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/mail", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Success {
				t.Fatal("envelope success must be false")
			}
			if env.Error.Code != tc.code {
				t.Fatalf("code = %q, want %q", env.Error.Code, tc.code)
			}
		})
	}
}

func TestRequireAuthRejectsRevokedToken(t *testing.T) {
	engine, _ := newTestEngine(t)
	handler := RequireAuth(engine)(echoIdentity())
	access := issueAccess(t, engine)

	if err := engine.Logout(context.Background(), access); err != nil {
		t.Fatalf("logout: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/mail", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error.Code != "TOKEN_REVOKED" {
		t.Fatalf("code = %q, want TOKEN_REVOKED", env.Error.Code)
	}
}

func TestRequireAuthRejectsDeletedPrincipal(t *testing.T) {
	engine, principals := newTestEngine(t)
	handler := RequireAuth(engine)(echoIdentity())
	access := issueAccess(t, engine)

	principals.Remove("p1")

	req := httptest.NewRequest(http.MethodGet, "/mail", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if env := decodeEnvelope(t, rec); env.Error.Code != "PRINCIPAL_NOT_FOUND" {
		t.Fatalf("code = %q, want PRINCIPAL_NOT_FOUND", env.Error.Code)
	}
	if env := rec.Header().Get("X-Test-Principal"); env != "" {
		t.Fatal("handler must not run for a deleted principal")
	}
}

func TestRequireAuthUsesFirstAuthorizationHeader(t *testing.T) {
	engine, _ := newTestEngine(t)
	handler := RequireAuth(engine)(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/mail", nil)
	req.Header.Add("Authorization", "Bearer "+issueAccess(t, engine))
	req.Header.Add("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (first header wins)", rec.Code)
	}
}

func TestOptionalAuthAdmitsAnonymously(t *testing.T) {
	engine, _ := newTestEngine(t)
	handler := OptionalAuth(engine)(echoIdentity())

	for _, header := range []string{"", "Bearer garbage", "bearer nope"} {
		req := httptest.NewRequest(http.MethodGet, "/home", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("header %q: status = %d, want 200", header, rec.Code)
		}
		if rec.Header().Get("X-Test-Principal") != "" {
			t.Fatalf("header %q: no identity must be bound", header)
		}
	}
}

func TestOptionalAuthBindsValidIdentity(t *testing.T) {
	engine, _ := newTestEngine(t)
	handler := OptionalAuth(engine)(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, engine))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Test-Principal"); got != "p1" {
		t.Fatalf("bound principal = %q, want p1", got)
	}
}
