package directory

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/tenantdesk/tenantdesk/internal/auth"
)

// headerSessionID carries the session ID on app-only requests; the directory
// validates it against the session service instead of a bearer token.
const headerSessionID = "X-Session-Id"

// Provider implements Authenticator over the reconciled authentication
// state: interactive sign-ins send the delegated bearer token, hosted
// sessions relay the portal's token, and app-only sessions identify
// themselves by session ID.
type Provider struct {
	rec *auth.Reconciler
}

// NewProvider creates an authenticator bound to the reconciler.
func NewProvider(rec *auth.Reconciler) *Provider {
	return &Provider{rec: rec}
}

// Authenticate stamps the request for the current auth mode.
func (p *Provider) Authenticate(ctx context.Context, req *http.Request) error {
	state := p.rec.State()
	if !state.IsAuthenticated {
		return ErrNotSignedIn
	}

	switch state.AuthMode {
	case auth.BackendInteractive:
		token := p.rec.AccessToken(ctx)
		if token == nil {
			return ErrNoAccessToken
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	case auth.BackendHosted:
		hosted := p.rec.Hosted()
		if hosted == nil {
			return ErrNotSignedIn
		}

		token, err := hosted.Token(ctx)
		if err != nil {
			return errors.Wrap(err, "hosted session token")
		}
		req.Header.Set("Authorization", "Bearer "+token.Value)
	case auth.BackendAppOnly:
		req.Header.Set(headerSessionID, p.rec.SessionID())
	}

	return nil
}
