package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/diegojoyero/joyeria-backend/pkg/auth"
	"github.com/diegojoyero/joyeria-backend/pkg/config"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
)

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "diego-joyero", ExpirationMinutes: 60}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, adminID uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		AdminID: adminID,
		Email:   "admin@diegojoyero.pe",
		Role:    enums.AdminRoleAdmin,
		JTI:     "session-1",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminGateRejectsAPIRequestWithLoginURL(t *testing.T) {
	handler := AdminGate(testJWTConfig(), stubSessionVerifier{ok: true}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products?material=gold", nil)
	req.Header.Set("Accept", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "/admin/login?next=%2Fapi%2Fadmin%2Fv1%2Fproducts%3Fmaterial%3Dgold"
	if payload.Error.Details["login_url"] != want {
		t.Fatalf("expected login_url %q got %q", want, payload.Error.Details["login_url"])
	}
}

func TestAdminGateRedirectsBrowserNavigation(t *testing.T) {
	handler := AdminGate(testJWTConfig(), stubSessionVerifier{ok: true}, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin/pedidos", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302 got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/admin/login?next=%2Fadmin%2Fpedidos" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestAdminGateRejectsInvalidOrRevokedToken(t *testing.T) {
	cfg := testJWTConfig()

	invalid := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	invalid.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	AdminGate(cfg, stubSessionVerifier{ok: true}, nil, nil)(okHandler()).ServeHTTP(resp, invalid)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", resp.Code)
	}

	revoked := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	revoked.Header.Set("Authorization", "Bearer "+mintTestToken(t, cfg, uuid.New()))
	resp = httptest.NewRecorder()
	AdminGate(cfg, stubSessionVerifier{ok: false}, nil, nil)(okHandler()).ServeHTTP(resp, revoked)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", resp.Code)
	}
}

func TestAdminGateAllowsValidToken(t *testing.T) {
	cfg := testJWTConfig()
	adminID := uuid.New()

	var gotAdmin, gotAccess string
	var fromPkg uuid.UUID
	handler := AdminGate(cfg, stubSessionVerifier{ok: true}, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdmin = AdminIDFromContext(r.Context())
		gotAccess = AccessIDFromContext(r.Context())
		fromPkg, _ = auth.AdminIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, cfg, adminID))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotAdmin != adminID.String() || fromPkg != adminID {
		t.Fatalf("admin id not propagated: %q %s", gotAdmin, fromPkg)
	}
	if gotAccess != "session-1" {
		t.Fatalf("expected access id session-1, got %q", gotAccess)
	}
}

type stubAdminStatus struct {
	active bool
	err    error
}

func (s stubAdminStatus) IsActive(context.Context, uuid.UUID) (bool, error) {
	return s.active, s.err
}

func TestAdminGateRejectsDisabledAccount(t *testing.T) {
	cfg := testJWTConfig()
	token := mintTestToken(t, cfg, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	AdminGate(cfg, stubSessionVerifier{ok: true}, stubAdminStatus{active: false}, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for disabled admin, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	AdminGate(cfg, stubSessionVerifier{ok: true}, stubAdminStatus{active: true}, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for active admin, got %d", resp.Code)
	}
}
