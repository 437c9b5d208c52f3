// Package client is the HTTP client for the coldread API. Every request reads
// the session token from the credential store at dispatch time, so a token
// written after the client was built is used by the very next call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coldread-dev/coldread/internal/cli/account"
	"github.com/coldread-dev/coldread/internal/cli/credstore"
)

const defaultTimeout = 30 * time.Second

// Client represents an HTTP client for the coldread API
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credstore.Store
	userAgent  string
}

// New creates a new API client. baseURL includes the /api prefix,
// e.g. https://app.coldread.io/api.
func New(baseURL string, store credstore.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		store:     store,
		userAgent: "coldread-cli",
	}
}

// SetUserAgent overrides the User-Agent header
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
// The bearer token is attached here, right before dispatch.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: fmt.Sprintf("%s %s", method, path), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(respBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// authorize attaches the stored token, if any. No token means the request
// goes out unauthenticated.
func (c *Client) authorize(req *http.Request) error {
	if c.store == nil {
		return nil
	}

	token, err := c.store.GetToken()
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read session token: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return nil
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// AuthResponse is returned by login and signup
type AuthResponse struct {
	Token string           `json:"token"`
	User  *account.Profile `json:"user"`
}

func (r *AuthResponse) validate() error {
	if r.Token == "" || r.User == nil {
		return fmt.Errorf("malformed auth response: missing token or user")
	}
	return nil
}

// Login authenticates the user and returns the bearer token and profile
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup creates an account and returns the bearer token and profile
func (c *Client) Signup(ctx context.Context, email, password, fullName string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", SignupRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	}, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the profile behind the stored token
func (c *Client) Me(ctx context.Context) (*account.Profile, error) {
	var user account.Profile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("malformed profile response: missing id")
	}
	return &user, nil
}

// ForgotPassword requests a password reset email
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{
		"email": email,
	}, nil)
}

// ResetPassword sets a new password using a reset token
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password", map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, nil)
}

// VerifyEmail confirms an email address and returns the backend's message
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", map[string]string{
		"token": token,
	}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Usage returns the analysis usage for the current period
func (c *Client) Usage(ctx context.Context) (*account.Usage, error) {
	var usage account.Usage
	if err := c.do(ctx, http.MethodGet, "/user/usage", nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// CompleteOnboarding marks onboarding as done and returns the updated profile
func (c *Client) CompleteOnboarding(ctx context.Context) (*account.Profile, error) {
	var user account.Profile
	if err := c.do(ctx, http.MethodPost, "/user/onboarding", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePlan switches the subscription tier and returns the updated profile
func (c *Client) UpdatePlan(ctx context.Context, tier account.Tier) (*account.Profile, error) {
	var user account.Profile
	if err := c.do(ctx, http.MethodPatch, "/user/plan", map[string]string{
		"subscription_tier": string(tier),
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
