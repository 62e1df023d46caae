package login

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/auth/cache"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/session"
	"github.com/tenantdesk/tenantdesk/internal/sessionapi"
)

func newTestService(t *testing.T, cfg *config.Config) (*Service, *fiber.App, *auth.Reconciler, *session.Store) {
	t.Helper()

	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	rec := auth.NewReconciler(store)
	app := fiber.New()

	s := &Service{}
	s.Init(app, cfg, rec)

	return s, app, rec, store
}

func postLogin(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return body
}

func TestPostInvalidPayload(t *testing.T) {
	_, app, _, _ := newTestService(t, &config.Config{})

	resp := postLogin(t, app, "{")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, ErrInvalidLoginPayload.Error(), body["error"])
}

func TestPostValidation(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		expectedTag string
	}{
		{
			name:        "missing mode",
			body:        `{}`,
			expectedTag: "required",
		},
		{
			name:        "unknown mode",
			body:        `{"mode":"magic"}`,
			expectedTag: "oneof",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, app, _, _ := newTestService(t, &config.Config{})

			resp := postLogin(t, app, tc.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, ErrInvalidLoginPayload.Error(), body["error"])

			fields, ok := body["fields"].([]any)
			require.True(t, ok)
			require.Len(t, fields, 1)

			field, ok := fields[0].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "Mode", field["failedField"])
			assert.Equal(t, tc.expectedTag, field["tag"])
		})
	}
}

func TestPostAppOnlyWithoutService(t *testing.T) {
	_, app, _, _ := newTestService(t, &config.Config{})

	resp := postLogin(t, app, `{"mode":"appOnly"}`)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, auth.ErrAppOnlyNotConfigured.Error(), body["error"])
}

func TestPostAppOnlyLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"u1"}`))
	})
	mux.HandleFunc("/v1/sessions/u1/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":"svc-1","displayName":"Automation"}}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := &config.Config{
		SessionService: config.SessionService{
			URL:          server.URL,
			ClientID:     "client-1",
			TenantID:     "tenant-1",
			ClientSecret: "hunter2",
		},
	}

	_, app, rec, store := newTestService(t, cfg)

	client, err := sessionapi.NewClient(server.URL, time.Second)
	require.NoError(t, err)

	probe := auth.NewAppOnly(cfg, client, store, rec, rec.Poke)
	rec.Bind(nil, probe, nil)

	// The other backends have nothing to say in this scenario.
	applyUnauthenticated(rec, auth.BackendInteractive)
	applyUnauthenticated(rec, auth.BackendHosted)

	resp := postLogin(t, app, `{"mode":"appOnly"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["isAuthenticated"])
	assert.Equal(t, "appOnly", body["authMode"])

	id, err := store.Get()
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func applyUnauthenticated(rec *auth.Reconciler, kind auth.BackendKind) {
	rec.Apply(auth.Status{
		Backend: kind,
		State:   auth.StateUnauthenticated,
		Seq:     1,
		At:      time.Now(),
	})
}

func TestPostInteractiveWithoutBackend(t *testing.T) {
	_, app, _, _ := newTestService(t, &config.Config{})

	resp := postLogin(t, app, `{"mode":"interactive"}`)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, auth.ErrInteractiveDisabled.Error(), body["error"])
}

func TestPostInteractiveDisabled(t *testing.T) {
	cfg := &config.Config{}

	_, app, rec, store := newTestService(t, cfg)

	db, err := cache.Open(":memory:")
	require.NoError(t, err)

	secrets, err := cache.NewSecretStore(t.TempDir(), false)
	require.NoError(t, err)

	probe := auth.NewInteractive(cfg, db, secrets, store, rec, rec.Poke, nil)
	rec.Bind(probe, nil, nil)

	resp := postLogin(t, app, `{"mode":"interactive"}`)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, auth.ErrInteractiveDisabled.Error(), body["error"])
}

func TestPostInteractiveRedirect(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	issuer := server.URL + "/common/v2.0"
	mux.HandleFunc("/common/v2.0/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{
			"issuer": %q,
			"authorization_endpoint": %q,
			"token_endpoint": %q,
			"jwks_uri": %q
		}`, issuer, server.URL+"/authorize", server.URL+"/token", server.URL+"/keys")
	})

	cfg := &config.Config{
		Webserver: config.Webserver{URL: "http://127.0.0.1:3000"},
		Interactive: config.Interactive{
			Enabled:      true,
			Authority:    server.URL,
			TenantID:     "common",
			ClientID:     "client-1",
			RedirectPath: "/auth/callback",
		},
	}

	s, app, rec, store := newTestService(t, cfg)

	db, err := cache.Open(":memory:")
	require.NoError(t, err)

	secrets, err := cache.NewSecretStore(t.TempDir(), false)
	require.NoError(t, err)

	probe := auth.NewInteractive(cfg, db, secrets, store, rec, rec.Poke, nil)
	rec.Bind(probe, nil, nil)

	resp := postLogin(t, app, `{"mode":"interactive"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)

	redirectURL, ok := body["redirectUrl"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(redirectURL, server.URL+"/authorize"))

	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "client-1", query.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:3000/auth/callback", query.Get("redirect_uri"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("code_challenge"))

	state := query.Get("state")
	require.Len(t, state, stateTokenLen)

	// The parked verifier is claimable exactly once.
	verifier, ok := s.Claim(state)
	assert.True(t, ok)
	assert.NotEmpty(t, verifier)

	_, ok = s.Claim(state)
	assert.False(t, ok)
}

func TestClaimUnknownOrExpired(t *testing.T) {
	s, _, _, _ := newTestService(t, &config.Config{})

	_, ok := s.Claim("never-stashed")
	assert.False(t, ok)

	s.mu.Lock()
	s.flows["old"] = flow{verifier: "v", expires: time.Now().Add(-time.Minute)}
	s.mu.Unlock()

	_, ok = s.Claim("old")
	assert.False(t, ok)
}
