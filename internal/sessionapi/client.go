package sessionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultTimeout = 15 * time.Second

// Credentials carries the app registration a session is configured with.
type Credentials struct {
	ClientID     string `json:"clientId"`
	TenantID     string `json:"tenantId"`
	ClientSecret string `json:"clientSecret"`
}

// User describes the service principal identity a session resolves to.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	TenantID    string `json:"tenantId,omitempty"`
}

// Status is the service's verdict on a session.
type Status struct {
	Authenticated bool   `json:"authenticated"`
	AuthMode      string `json:"authMode,omitempty"`
	User          *User  `json:"user,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Client talks to the session service's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a session service client. A non-positive timeout falls
// back to the default.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLEmpty
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Configure registers app credentials with the service and returns the
// session ID the service minted for them.
func (c *Client) Configure(ctx context.Context, creds Credentials) (string, error) {
	if creds.ClientID == "" || creds.TenantID == "" || creds.ClientSecret == "" {
		return "", ErrCredentialsIncomplete
	}

	var response struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", creds, &response); err != nil {
		return "", err
	}
	if response.SessionID == "" {
		return "", errors.New("session service returned an empty session id")
	}

	return response.SessionID, nil
}

// Login asks the service to activate a configured session and returns the
// identity it signed in as.
func (c *Client) Login(ctx context.Context, sessionID string) (*User, error) {
	if sessionID == "" {
		return nil, ErrSessionIDEmpty
	}

	var response struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/sessions/%s/login", url.PathEscape(sessionID)), nil, &response); err != nil {
		return nil, err
	}
	if response.User == nil {
		return nil, errors.New("session service returned no user")
	}

	return response.User, nil
}

// Status queries the service's current verdict on a session. An unknown
// session comes back as ErrSessionNotFound; an authenticated:false body with
// a reason is a valid status, not an error.
func (c *Client) Status(ctx context.Context, sessionID string) (*Status, error) {
	if sessionID == "" {
		return nil, ErrSessionIDEmpty
	}

	var status Status
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/sessions/%s/status", url.PathEscape(sessionID)), nil, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// Logout tears the session down on the service. A session the service no
// longer knows counts as already logged out.
func (c *Client) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionIDEmpty
	}

	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v1/sessions/%s/logout", url.PathEscape(sessionID)), nil, nil)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}

	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "session service request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSessionNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("session service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}

	return nil
}
