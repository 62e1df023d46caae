package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/hostedapi"
)

func hostedClient(t *testing.T, server *httptest.Server) *hostedapi.Client {
	t.Helper()

	client, err := hostedapi.NewClient(server.URL, 2*time.Second)
	require.NoError(t, err)

	return client
}

func TestHostedResolveWithClaims(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions/r1/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"bearer-1","expiresAt":"2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/v1/sessions/r1/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"portal-1","name":"Portal Admin","email":"admin@contoso.com","grants":["userManagement","mailManagement"]}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.Set("r1"))

	sink := &recordingSink{}
	probe := NewHosted(hostedClient(t, server), store, sink)

	probe.Start()

	st := sink.waitFor(t, isAuthenticated)
	assert.Equal(t, BackendHosted, st.Backend)
	require.NotNil(t, st.Actor)
	assert.Equal(t, "portal-1", st.Actor.ID)
	assert.Equal(t, "Portal Admin", st.Actor.DisplayName)

	// The portal's claims constrain the capability set.
	perms := st.Grants.Permissions()
	assert.True(t, perms[PermUserManagement])
	assert.True(t, perms[PermMailManagement])
	assert.False(t, perms[PermDefenderManagement])
}

func TestHostedResolveWithoutClaims(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions/r1/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"bearer-1","expiresAt":"2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/v1/sessions/r1/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"portal-1","name":"Portal Admin"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &recordingSink{}
	probe := NewHosted(hostedClient(t, server), newTestStore(t), sink)

	probe.OnSessionChanged("r1")

	// No claims means the portal did not constrain capabilities.
	st := sink.waitFor(t, isAuthenticated)
	for _, perm := range AllPermissions() {
		assert.True(t, st.Grants.Permissions()[perm], perm)
	}
}

// TestHostedNeedsBothPrimitives pins the rule that a portal session counts
// only when the token and the user both resolve.
func TestHostedNeedsBothPrimitives(t *testing.T) {
	testCases := []struct {
		name     string
		tokenRes string
		userRes  string
	}{
		{name: "no token", tokenRes: `{}`, userRes: `{"id":"portal-1","name":"Portal Admin"}`},
		{name: "no user", tokenRes: `{"token":"bearer-1","expiresAt":"2030-01-01T00:00:00Z"}`, userRes: `{}`},
		{name: "neither", tokenRes: `{}`, userRes: `{}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/v1/sessions/r1/token", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.tokenRes))
			})
			mux.HandleFunc("/v1/sessions/r1/user", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.userRes))
			})

			server := httptest.NewServer(mux)
			defer server.Close()

			sink := &recordingSink{}
			probe := NewHosted(hostedClient(t, server), newTestStore(t), sink)

			probe.OnSessionChanged("r1")

			sink.waitFor(t, hasReason("not signed in at the hosting portal"))
		})
	}
}

func TestHostedFailureReasons(t *testing.T) {
	testCases := []struct {
		name           string
		handler        http.Handler
		expectedReason string
	}{
		{
			name:           "unknown session",
			handler:        http.NotFoundHandler(),
			expectedReason: "session not recognized by the hosting portal",
		},
		{
			name: "portal error",
			handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			}),
			expectedReason: "hosting portal unreachable",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			sink := &recordingSink{}
			probe := NewHosted(hostedClient(t, server), newTestStore(t), sink)

			probe.OnSessionChanged("r1")

			sink.waitFor(t, hasReason(tc.expectedReason))
		})
	}
}

func TestHostedWithoutSessionOrClient(t *testing.T) {
	sink := &recordingSink{}
	probe := NewHosted(nil, newTestStore(t), sink)

	probe.Start()

	st, ok := sink.last()
	require.True(t, ok)
	assert.Equal(t, StateUnauthenticated, st.State)
	assert.Equal(t, "no session id", st.Reason)

	_, err := probe.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoHostedSession)

	// With a session reference but no configured portal.
	probe.OnSessionChanged("r1")

	st, ok = sink.last()
	require.True(t, ok)
	assert.Equal(t, "hosting portal not configured", st.Reason)

	_, err = probe.Token(context.Background())
	assert.ErrorIs(t, err, ErrHostedNotConfigured)
}

func TestHostedTokenCaching(t *testing.T) {
	var tokenHits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions/r1/token", func(w http.ResponseWriter, _ *http.Request) {
		tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"bearer-1","expiresAt":"2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/v1/sessions/r1/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"portal-1","name":"Portal Admin"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &recordingSink{}
	probe := NewHosted(hostedClient(t, server), newTestStore(t), sink)

	probe.OnSessionChanged("r1")
	sink.waitFor(t, isAuthenticated)

	require.Equal(t, int64(1), tokenHits.Load())

	// The resolve already cached the token; handing it out is local.
	token, err := probe.Token(context.Background())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "bearer-1", token.Value)
	assert.Equal(t, int64(1), tokenHits.Load())
}

func TestHostedTokenRefetchNearExpiry(t *testing.T) {
	var tokenHits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions/r1/token", func(w http.ResponseWriter, _ *http.Request) {
		n := tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		// Always inside the expiry skew, so the cache never counts as fresh.
		expires := time.Now().Add(30 * time.Second).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, `{"token":"bearer-%d","expiresAt":"%s"}`, n, expires)
	})
	mux.HandleFunc("/v1/sessions/r1/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"portal-1","name":"Portal Admin"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &recordingSink{}
	probe := NewHosted(hostedClient(t, server), newTestStore(t), sink)

	probe.OnSessionChanged("r1")
	sink.waitFor(t, isAuthenticated)

	require.Equal(t, int64(1), tokenHits.Load())

	token, err := probe.Token(context.Background())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "bearer-2", token.Value)
	assert.Equal(t, int64(2), tokenHits.Load())
}

func TestHostedSignOut(t *testing.T) {
	var signedOut atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions/r1/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"bearer-1","expiresAt":"2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/v1/sessions/r1/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"portal-1","name":"Portal Admin"}`))
	})
	mux.HandleFunc("/v1/sessions/r1/signout", func(w http.ResponseWriter, _ *http.Request) {
		signedOut.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &recordingSink{}
	probe := NewHosted(hostedClient(t, server), newTestStore(t), sink)

	probe.OnSessionChanged("r1")
	sink.waitFor(t, isAuthenticated)

	require.NoError(t, probe.SignOut(context.Background()))
	assert.True(t, signedOut.Load())

	sink.waitFor(t, hasReason("signed out"))
}

func TestHostedSignOutRemoteFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions/r1/signout", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &recordingSink{}
	probe := NewHosted(hostedClient(t, server), newTestStore(t), sink)

	probe.OnSessionChanged("r1")
	sink.waitFor(t, hasReason("hosting portal unreachable"))

	// The local report still happens; only the remote part fails.
	err := probe.SignOut(context.Background())
	assert.Error(t, err)
	sink.waitFor(t, hasReason("signed out"))
}

// TestHostedSupersededResolveDiscarded starts a slow portal lookup, drops the
// session while it is in flight and verifies the late result never lands.
func TestHostedSupersededResolveDiscarded(t *testing.T) {
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions/slow/token", func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"bearer-1","expiresAt":"2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/v1/sessions/slow/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"portal-1","name":"Portal Admin"}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	sink := &recordingSink{}
	probe := NewHosted(hostedClient(t, server), newTestStore(t), sink)

	probe.OnSessionChanged("slow")
	probe.OnSessionChanged("")
	close(release)

	sink.waitFor(t, hasReason("no session id"))

	assert.Never(t, func() bool {
		return !sink.none(isAuthenticated)
	}, 300*time.Millisecond, 20*time.Millisecond, "superseded result leaked through")
}
