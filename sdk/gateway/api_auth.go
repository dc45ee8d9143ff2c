package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/xinsaaa/hailuo/sdk/captcha"
	"github.com/xinsaaa/hailuo/sdk/session"
)

// TokenResponse is the credential envelope returned by the login and
// registration operations.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SecurityStatus reports the caller IP's standing with the anti-automation
// layer.
type SecurityStatus struct {
	IP           string `json:"ip"`
	FailCount    int    `json:"fail_count"`
	IsBanned     bool   `json:"is_banned"`
	BanRemaining int    `json:"ban_remaining"`
	NeedCaptcha  bool   `json:"need_captcha"`
}

// PublicConfig is the unauthenticated configuration the views render from.
type PublicConfig struct {
	VideoPrice     float64 `json:"video_price"`
	BonusRate      float64 `json:"bonus_rate"`
	BonusMinAmount float64 `json:"bonus_min_amount"`
	MinRecharge    float64 `json:"min_recharge"`
	MaxRecharge    float64 `json:"max_recharge"`
}

// Captcha fetches a fresh challenge bundle.
func (c *Client) Captcha(ctx context.Context) (*captcha.Challenge, error) {
	data, err := c.get(ctx, "/captcha", nil)
	if err != nil {
		return nil, err
	}
	var challenge captcha.Challenge
	if err = json.Unmarshal(data, &challenge); err != nil {
		return nil, fmt.Errorf("gateway: parse captcha failed: %w", err)
	}
	return &challenge, nil
}

// SecurityStatus fetches the caller IP's security standing.
func (c *Client) SecurityStatus(ctx context.Context) (*SecurityStatus, error) {
	data, err := c.get(ctx, "/security/status", nil)
	if err != nil {
		return nil, err
	}
	var status SecurityStatus
	if err = json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("gateway: parse security status failed: %w", err)
	}
	return &status, nil
}

// RiskCheck submits the install's device fingerprint for a risk evaluation.
func (c *Client) RiskCheck(ctx context.Context) (map[string]any, error) {
	query := url.Values{}
	query.Set("device_fingerprint", c.fingerprint)
	return c.getJSON(ctx, "/risk/check", query)
}

// PublicConfig fetches the unauthenticated service configuration.
func (c *Client) PublicConfig(ctx context.Context) (*PublicConfig, error) {
	data, err := c.get(ctx, "/config", nil)
	if err != nil {
		return nil, err
	}
	var cfg PublicConfig
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("gateway: parse public config failed: %w", err)
	}
	return &cfg, nil
}

// SendEmailCode requests a verification code for the address.
func (c *Client) SendEmailCode(ctx context.Context, email string) error {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("gateway: marshal email code request failed: %w", err)
	}
	_, err = c.post(ctx, "/send-email-code", body)
	return err
}

// ForgotPassword resets a password using an emailed verification code.
func (c *Client) ForgotPassword(ctx context.Context, username, emailCode, newPassword string) error {
	body, err := json.Marshal(map[string]string{
		"username":     username,
		"email_code":   emailCode,
		"new_password": newPassword,
	})
	if err != nil {
		return fmt.Errorf("gateway: marshal forgot-password request failed: %w", err)
	}
	_, err = c.post(ctx, "/forgot-password", body)
	return err
}

// Register creates an account. The challenge is mandatory here: a missing or
// partial bundle is rejected client-side before any network call.
func (c *Client) Register(ctx context.Context, username, password string, solution *captcha.Solution) (*TokenResponse, error) {
	if solution == nil || solution.Challenge == nil {
		return nil, captcha.ErrMissingChallenge
	}
	body, err := credentialsBody(username, password)
	if err != nil {
		return nil, err
	}
	if body, err = solution.Apply(body); err != nil {
		return nil, err
	}
	data, err := c.post(ctx, "/register", body)
	if err != nil {
		return nil, err
	}
	return parseToken(data)
}

// Login authenticates a user. The challenge is optional as a whole: a nil
// solution sends a plain credentials payload and the server decides whether
// a challenge-less login is acceptable.
func (c *Client) Login(ctx context.Context, username, password string, solution *captcha.Solution) (*TokenResponse, error) {
	body, err := credentialsBody(username, password)
	if err != nil {
		return nil, err
	}
	if body, err = solution.Apply(body); err != nil {
		return nil, err
	}
	data, err := c.post(ctx, "/login", body)
	if err != nil {
		return nil, err
	}
	return parseToken(data)
}

// CurrentUser fetches the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, error) {
	data, err := c.get(ctx, "/users/me", nil)
	if err != nil {
		return nil, err
	}
	var user session.User
	if err = json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("gateway: parse user profile failed: %w", err)
	}
	return &user, nil
}

func credentialsBody(username, password string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal credentials failed: %w", err)
	}
	return body, nil
}

func parseToken(data []byte) (*TokenResponse, error) {
	var token TokenResponse
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("gateway: parse token response failed: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("gateway: token response missing access_token")
	}
	return &token, nil
}

// getJSON fetches a path and unmarshals the response into a generic map,
// for operations whose payload shape the views interpret themselves.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	data, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("gateway: parse %s response failed: %w", path, err)
	}
	return result, nil
}
