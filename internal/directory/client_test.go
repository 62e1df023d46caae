package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up a directory server stub and a client that stamps a
// static bearer token.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	stamp := AuthenticatorFunc(func(_ context.Context, req *http.Request) error {
		req.Header.Set("Authorization", "Bearer test-token")
		return nil
	})

	client, err := NewClient(server.URL, time.Second, stamp)
	require.NoError(t, err)

	return client
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("", time.Second, nil)
	assert.ErrorIs(t, err, ErrBaseURLEmpty)

	client, err := NewClient("http://127.0.0.1:9/", time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9", client.baseURL)
}

func TestListUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/users", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users":[
			{"id":"u-1","displayName":"Ada Admin","userPrincipalName":"ada@contoso.com","accountEnabled":true},
			{"id":"u-2","displayName":"Bob Builder","userPrincipalName":"bob@contoso.com","accountEnabled":false}
		]}`))
	})

	users, err := client.ListUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u-1", users[0].ID)
	assert.Equal(t, "Ada Admin", users[0].DisplayName)
	assert.True(t, users[0].AccountEnabled)
	assert.False(t, users[1].AccountEnabled)
}

func TestGetUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/users/u-1", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"u-1","displayName":"Ada Admin","userPrincipalName":"ada@contoso.com","mail":"ada@contoso.com","accountEnabled":true}`))
		})

		user, err := client.GetUser(context.Background(), "u-1")

		require.NoError(t, err)
		assert.Equal(t, "Ada Admin", user.DisplayName)
		assert.Equal(t, "ada@contoso.com", user.Mail)
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetUser(context.Background(), "gone")

		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.GetUser(context.Background(), "")

		assert.ErrorIs(t, err, ErrUserIDEmpty)
	})
}

func TestOrganization(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/organization", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"tenant-1","displayName":"Contoso","domain":"contoso.com"}`))
	})

	org, err := client.Organization(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Contoso", org.DisplayName)
	assert.Equal(t, "contoso.com", org.Domain)
}

// TestAuthenticatorErrorShortCircuits pins that a request which can not be
// authenticated never leaves the process.
func TestAuthenticatorErrorShortCircuits(t *testing.T) {
	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	deny := AuthenticatorFunc(func(context.Context, *http.Request) error {
		return ErrNotSignedIn
	})

	client, err := NewClient(server.URL, time.Second, deny)
	require.NoError(t, err)

	_, err = client.ListUsers(context.Background())

	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Zero(t, hits.Load())
}

func TestServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "directory on fire", http.StatusInternalServerError)
	})

	_, err := client.ListUsers(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
