package sessionapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient starts a stub session service and returns a client pointed at
// it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err, "failed to create client")

	return client
}

func TestNewClient(t *testing.T) {
	t.Run("empty url", func(t *testing.T) {
		client, err := NewClient("", time.Second)

		assert.ErrorIs(t, err, ErrBaseURLEmpty)
		assert.Nil(t, client)
	})

	t.Run("trailing slash is trimmed", func(t *testing.T) {
		client, err := NewClient("http://127.0.0.1:9999/", time.Second)

		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:9999", client.baseURL)
	})
}

func TestConfigure(t *testing.T) {
	t.Run("successful configure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/sessions", r.URL.Path)

			var creds Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "client-1", creds.ClientID)
			assert.Equal(t, "tenant-1", creds.TenantID)
			assert.Equal(t, "hunter2", creds.ClientSecret)

			_ = json.NewEncoder(w).Encode(map[string]string{"sessionId": "sess-1"})
		})

		sessionID, err := client.Configure(context.Background(), Credentials{
			ClientID:     "client-1",
			TenantID:     "tenant-1",
			ClientSecret: "hunter2",
		})

		require.NoError(t, err)
		assert.Equal(t, "sess-1", sessionID)
	})

	t.Run("incomplete credentials never reach the service", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request must not be sent")
		})

		_, err := client.Configure(context.Background(), Credentials{ClientID: "client-1"})

		assert.ErrorIs(t, err, ErrCredentialsIncomplete)
	})

	t.Run("empty session id in response", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		})

		_, err := client.Configure(context.Background(), Credentials{
			ClientID:     "client-1",
			TenantID:     "tenant-1",
			ClientSecret: "hunter2",
		})

		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	t.Run("successful login", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/sessions/sess-1/login", r.URL.Path)

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"user": User{ID: "sp-1", DisplayName: "tenantdesk automation"},
			})
		})

		user, err := client.Login(context.Background(), "sess-1")

		require.NoError(t, err)
		assert.Equal(t, "sp-1", user.ID)
		assert.Equal(t, "tenantdesk automation", user.DisplayName)
	})

	t.Run("empty session id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request must not be sent")
		})

		_, err := client.Login(context.Background(), "")

		assert.ErrorIs(t, err, ErrSessionIDEmpty)
	})

	t.Run("unknown session", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.Login(context.Background(), "sess-gone")

		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestStatus(t *testing.T) {
	t.Run("authenticated session", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/sessions/sess-1/status", r.URL.Path)

			_ = json.NewEncoder(w).Encode(Status{
				Authenticated: true,
				AuthMode:      "appOnly",
				User:          &User{ID: "sp-1", DisplayName: "tenantdesk automation"},
			})
		})

		status, err := client.Status(context.Background(), "sess-1")

		require.NoError(t, err)
		assert.True(t, status.Authenticated)
		assert.Equal(t, "appOnly", status.AuthMode)
		require.NotNil(t, status.User)
		assert.Equal(t, "sp-1", status.User.ID)
	})

	t.Run("signed-out session is a status, not an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(Status{Authenticated: false, Reason: "session expired"})
		})

		status, err := client.Status(context.Background(), "sess-1")

		require.NoError(t, err)
		assert.False(t, status.Authenticated)
		assert.Equal(t, "session expired", status.Reason)
	})

	t.Run("unknown session", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.Status(context.Background(), "sess-gone")

		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("server error is not a rejection", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		_, err := client.Status(context.Background(), "sess-1")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unreachable service is not a rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		client, err := NewClient(srv.URL, time.Second)
		require.NoError(t, err)
		srv.Close()

		_, err = client.Status(context.Background(), "sess-1")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestLogout(t *testing.T) {
	t.Run("successful logout", func(t *testing.T) {
		var called bool
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/sessions/sess-1/logout", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, client.Logout(context.Background(), "sess-1"))
		assert.True(t, called)
	})

	t.Run("already gone counts as logged out", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		assert.NoError(t, client.Logout(context.Background(), "sess-gone"))
	})

	t.Run("server error is reported", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		assert.Error(t, client.Logout(context.Background(), "sess-1"))
	})
}
