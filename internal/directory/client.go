package directory

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

// Authenticator stamps a request with credentials for the console's current
// sign-in. Implementations decide between a bearer token and a session
// header; the client stays oblivious.
type Authenticator interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// AuthenticatorFunc adapts a plain function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context, req *http.Request) error

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, req *http.Request) error {
	return f(ctx, req)
}

// User is a directory member as the tenant directory reports it.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail,omitempty"`
	AccountEnabled    bool   `json:"accountEnabled"`
}

// Organization is the tenant the directory belongs to.
type Organization struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Domain      string `json:"domain,omitempty"`
}

// Client talks to the tenant directory's REST API. Every request is stamped
// by the Authenticator, so the client follows whatever backend currently
// provides the sign-in.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authenticator
}

// NewClient creates a directory client. A non-positive timeout falls back to
// the default.
func NewClient(baseURL string, timeout time.Duration, auth Authenticator) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLEmpty
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		auth:       auth,
	}, nil
}

// ListUsers returns the directory's members.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var response struct {
		Users []User `json:"users"`
	}
	if err := c.get(ctx, "/v1/users", &response); err != nil {
		return nil, err
	}

	return response.Users, nil
}

// GetUser returns a single directory member.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrUserIDEmpty
	}

	var user User
	if err := c.get(ctx, fmt.Sprintf("/v1/users/%s", url.PathEscape(id)), &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// Organization returns the tenant the signed-in identity belongs to.
func (c *Client) Organization(ctx context.Context) (*Organization, error) {
	var org Organization
	if err := c.get(ctx, "/v1/organization", &org); err != nil {
		return nil, err
	}

	return &org, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	if c.auth != nil {
		if err = c.auth.Authenticate(ctx, req); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "directory request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("directory returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}

	return nil
}
