// Copyright EDL Token Rotator Authors
// SPDX-License-Identifier: Apache-2.0
// The full text of the Apache license is available in the LICENSE file at
// the root of the repo.

// Package edl implements a client for the Earthdata Login (EDL) user
// token API. Tokens are issued against a user's long-lived credentials
// and expire after 60 days.
//
// API documentation: https://urs.earthdata.nasa.gov/documentation/for_users/user_token
package edl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// ErrCodeMaxTokenLimit is returned by EDL when the user already holds
	// the maximum number of active tokens.
	ErrCodeMaxTokenLimit = "max_token_limit"

	// expirationDateLayout is the date format EDL uses for token expiry.
	expirationDateLayout = "01/02/2006"

	createTokenPath = "/api/users/token"
	listTokensPath  = "/api/users/tokens"
	revokeTokenPath = "/api/users/revoke_token"
)

// Token is a bearer token issued by Earthdata Login.
type Token struct {
	AccessToken    string `json:"access_token"`
	TokenType      string `json:"token_type"`
	ExpirationDate string `json:"expiration_date"`
}

// ExpiresAt parses the token's expiration date. EDL reports dates only,
// so the returned time is midnight UTC of the expiry day.
func (t *Token) ExpiresAt() (time.Time, error) {
	expiresAt, err := time.Parse(expirationDateLayout, t.ExpirationDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token expiration date %q: %w", t.ExpirationDate, err)
	}
	return expiresAt, nil
}

// APIError is the error envelope returned by the EDL token endpoints.
type APIError struct {
	// Code is the machine-readable error code, e.g. "max_token_limit".
	Code string
	// Description is the human-readable error description.
	Description string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("edl: %s", e.Code)
	}
	return fmt.Sprintf("edl: %s: %s", e.Code, e.Description)
}

// Client calls the Earthdata Login user token API over HTTPS with HTTP
// basic authentication.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	// baseURL overrides the environment's base URL when non-empty. Used
	// by tests to point the client at a local server.
	baseURL string
}

// NewClient creates an EDL client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, logger: logger}
}

func (c *Client) resolveBaseURL(env Environment) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return env.BaseURL()
}

// ObtainToken returns a freshly issued bearer token for the user. When
// token creation fails because the user is at the token limit, all
// existing tokens are revoked and creation is attempted once more; any
// other API error fails the call.
func (c *Client) ObtainToken(ctx context.Context, env Environment, username, password string) (*Token, error) {
	token, err := c.CreateToken(ctx, env, username, password)
	if err == nil {
		return token, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != ErrCodeMaxTokenLimit {
		return nil, err
	}

	c.logger.Info("user is at the token limit, revoking existing tokens", "environment", string(env))
	tokens, err := c.ListTokens(ctx, env, username, password)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing tokens: %w", err)
	}
	for _, existing := range tokens {
		if existing.AccessToken == "" {
			continue
		}
		if err := c.RevokeToken(ctx, env, username, password, existing.AccessToken); err != nil {
			return nil, fmt.Errorf("failed to revoke existing token: %w", err)
		}
	}
	return c.CreateToken(ctx, env, username, password)
}

// CreateToken issues a new bearer token for the user.
func (c *Client) CreateToken(ctx context.Context, env Environment, username, password string) (*Token, error) {
	body, err := c.do(ctx, http.MethodPost, c.resolveBaseURL(env)+createTokenPath, username, password)
	if err != nil {
		return nil, err
	}
	token := &Token{}
	if err := json.Unmarshal(body, token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response contains no access token")
	}
	return token, nil
}

// ListTokens returns all of the user's active tokens.
func (c *Client) ListTokens(ctx context.Context, env Environment, username, password string) ([]Token, error) {
	body, err := c.do(ctx, http.MethodGet, c.resolveBaseURL(env)+listTokensPath, username, password)
	if err != nil {
		return nil, err
	}
	var tokens []Token
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token list response: %w", err)
	}
	return tokens, nil
}

// RevokeToken revokes one of the user's tokens.
func (c *Client) RevokeToken(ctx context.Context, env Environment, username, password, token string) error {
	revokeURL := c.resolveBaseURL(env) + revokeTokenPath + "?token=" + url.QueryEscape(token)
	_, err := c.do(ctx, http.MethodPost, revokeURL, username, password)
	return err
}

// do performs one authenticated request and returns the response body.
// EDL reports failures through a JSON error envelope rather than status
// codes alone, so the body is probed for an "error" key before the
// status code is considered.
func (c *Client) do(ctx context.Context, method, requestURL, username, password string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(username, password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", requestURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if code := gjson.GetBytes(body, "error"); code.Exists() {
		return nil, &APIError{
			Code:        code.String(),
			Description: gjson.GetBytes(body, "error_description").String(),
		}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s %s returned status %d", method, requestURL, resp.StatusCode)
	}
	return body, nil
}
