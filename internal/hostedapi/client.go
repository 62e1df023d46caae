package hostedapi

import (
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

// Token is a bearer token the portal minted for a session.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// User is the identity the portal reports for a session. Grants lists the
// capability names the portal's claims carry; an empty list means the portal
// did not constrain them.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	Grants []string `json:"grants,omitempty"`
}

// Client talks to the hosting portal's session API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a hosting portal client. A non-positive timeout falls
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

// SessionToken fetches the portal's current bearer token for a session. It
// returns nil when the portal answers but holds no token for the reference.
func (c *Client) SessionToken(ctx context.Context, ref string) (*Token, error) {
	if ref == "" {
		return nil, ErrSessionRefEmpty
	}

	var token Token
	if err := c.get(ctx, fmt.Sprintf("/v1/sessions/%s/token", url.PathEscape(ref)), &token); err != nil {
		return nil, err
	}
	if token.Value == "" {
		return nil, nil
	}

	return &token, nil
}

// CurrentUser fetches the identity the portal reports for a session. It
// returns nil when the portal answers but nobody is signed in.
func (c *Client) CurrentUser(ctx context.Context, ref string) (*User, error) {
	if ref == "" {
		return nil, ErrSessionRefEmpty
	}

	var user User
	if err := c.get(ctx, fmt.Sprintf("/v1/sessions/%s/user", url.PathEscape(ref)), &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, nil
	}

	return &user, nil
}

// SignOut asks the portal to end the session. A reference the portal no
// longer knows counts as already signed out.
func (c *Client) SignOut(ctx context.Context, ref string) error {
	if ref == "" {
		return ErrSessionRefEmpty
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+fmt.Sprintf("/v1/sessions/%s/signout", url.PathEscape(ref)), nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "hosting portal request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("hosting portal returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "hosting portal request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSessionUnknown
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("hosting portal returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}

	return nil
}
