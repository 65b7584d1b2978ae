// internal/adapters/out/firebase/toolkit_client.go
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"drmoto/internal/domain/session"
)

const (
	DefaultToolkitURL     = "https://identitytoolkit.googleapis.com"
	DefaultSecureTokenURL = "https://securetoken.googleapis.com"
)

var (
	ErrToolkitNotConfigured = errors.New("firebase: identity toolkit api key is empty")
	errAdminNotConfigured   = errors.New("firebase: admin auth client is nil")
)

// ToolkitClient calls the Identity Toolkit REST API, which is the only way
// to verify a password server side.
type ToolkitClient struct {
	client         *http.Client
	baseURL        string
	secureTokenURL string
	apiKey         string
}

func NewToolkitClient(baseURL, secureTokenURL, apiKey string) *ToolkitClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultToolkitURL
	}
	secureTokenURL = strings.TrimRight(strings.TrimSpace(secureTokenURL), "/")
	if secureTokenURL == "" {
		secureTokenURL = DefaultSecureTokenURL
	}
	return &ToolkitClient{
		client:         &http.Client{Timeout: 15 * time.Second},
		baseURL:        baseURL,
		secureTokenURL: secureTokenURL,
		apiKey:         strings.TrimSpace(apiKey),
	}
}

// Configured reports whether an API key is present.
func (c *ToolkitClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Tokens is a signed-in (or refreshed) credential set.
type Tokens struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignInWithPassword exchanges email and password for tokens.
func (c *ToolkitClient) SignInWithPassword(ctx context.Context, email, password string, now time.Time) (Tokens, error) {
	if !c.Configured() {
		return Tokens{}, ErrToolkitNotConfigured
	}
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var res signInResponse
	if err := c.postJSON(ctx, c.baseURL+"/v1/accounts:signInWithPassword", payload, &res); err != nil {
		return Tokens{}, err
	}
	return Tokens{
		UID:          res.LocalID,
		Email:        res.Email,
		DisplayName:  res.DisplayName,
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    expiry(now, res.ExpiresIn),
	}, nil
}

// SendPasswordReset asks the provider to mail its own reset template.
func (c *ToolkitClient) SendPasswordReset(ctx context.Context, email, continueURL string) error {
	if !c.Configured() {
		return ErrToolkitNotConfigured
	}
	payload := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}
	if continueURL != "" {
		payload["continueUrl"] = continueURL
	}
	return c.postJSON(ctx, c.baseURL+"/v1/accounts:sendOobCode", payload, nil)
}

// Refresh trades a refresh token for a new ID token.
func (c *ToolkitClient) Refresh(ctx context.Context, refreshToken string, now time.Time) (Tokens, error) {
	if !c.Configured() {
		return Tokens{}, ErrToolkitNotConfigured
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.secureTokenURL+"/v1/token?key="+url.QueryEscape(c.apiKey),
		strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var res refreshResponse
	if err := c.do(req, &res); err != nil {
		return Tokens{}, err
	}
	return Tokens{
		UID:          res.UserID,
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    expiry(now, res.ExpiresIn),
	}, nil
}

func (c *ToolkitClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint+"?key="+url.QueryEscape(c.apiKey), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do maps transport failures to auth/network-request-failed and
// provider error bodies to their auth/* code.
func (c *ToolkitClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return session.NewProviderError(session.CodeNetwork, err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env errorEnvelope
		_ = json.Unmarshal(bodyBytes, &env)
		msg := env.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return session.NewProviderError(codeForToolkitMessage(msg),
			fmt.Errorf("identity toolkit: status=%d message=%s", resp.StatusCode, msg))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return session.NewProviderError(session.CodeInternal, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func expiry(now time.Time, expiresIn string) time.Time {
	secs, err := strconv.Atoi(strings.TrimSpace(expiresIn))
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return now.Add(time.Duration(secs) * time.Second)
}
