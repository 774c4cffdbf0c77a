// Package apiclient talks to the remote nutrition service.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/illegalcall/fitplan/internal/mapping"
	"github.com/illegalcall/fitplan/internal/models"
)

const (
	OpLogin           = "login"
	OpRegisterAccount = "register_account"
	OpCreateUser      = "create_user"
	OpGetUser         = "get_user"
	OpUpdateUser      = "update_user"
	OpGeneratePlan    = "generate_plan"
	OpLatestPlan      = "latest_plan"
	OpSendChat        = "send_chat"
)

// UnauthorizedFunc is called for every 401 response before the error reaches
// the caller.
type UnauthorizedFunc func(ctx context.Context)

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *Metrics

	mu     sync.RWMutex
	token  string
	onAuth []UnauthorizedFunc
}

type Option func(*Client)

// WithHTTPClient replaces the default transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for the service rooted at baseURL, e.g.
// http://localhost:8080/api/v1.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registers fn to run on every 401 response.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	c.onAuth = append(c.onAuth, fn)
	c.mu.Unlock()
}

// Login exchanges credentials for an access token using the OAuth2 password
// form.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	body, err := c.do(ctx, OpLogin, http.MethodPost, "/auth/login",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", err
	}

	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("login response carries no access_token")
	}
	return token, nil
}

func (c *Client) RegisterAccount(ctx context.Context, req models.RegisterAccountRequest) error {
	_, err := c.doJSON(ctx, OpRegisterAccount, http.MethodPost, "/auth/register", req)
	return err
}

// CreateUser registers a full profile and returns the new user id.
func (c *Client) CreateUser(ctx context.Context, profile mapping.ExternalProfile) (string, error) {
	body, err := c.doJSON(ctx, OpCreateUser, http.MethodPost, "/users/", profile)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", fmt.Errorf("create user response carries no id")
	}
	return id, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (mapping.ExternalProfile, error) {
	var profile mapping.ExternalProfile
	body, err := c.do(ctx, OpGetUser, http.MethodGet, "/users/"+url.PathEscape(userID), nil, "")
	if err != nil {
		return profile, err
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return profile, fmt.Errorf("failed to decode user profile: %w", err)
	}
	return profile, nil
}

// UpdateUser sends a partial profile; absent fields are left untouched
// remotely.
func (c *Client) UpdateUser(ctx context.Context, userID string, profile mapping.ExternalProfile) error {
	_, err := c.doJSON(ctx, OpUpdateUser, http.MethodPut, "/users/"+url.PathEscape(userID), profile)
	return err
}

func (c *Client) GeneratePlan(ctx context.Context, userID string) ([]models.DayPlan, error) {
	body, err := c.do(ctx, OpGeneratePlan, http.MethodPost, "/plans/generate?"+userQuery(userID), nil, "")
	if err != nil {
		return nil, err
	}
	return decodePlan(body)
}

// LatestPlan returns the user's current plan. A user without a plan gets an
// empty list and no error.
func (c *Client) LatestPlan(ctx context.Context, userID string) ([]models.DayPlan, error) {
	body, err := c.do(ctx, OpLatestPlan, http.MethodGet, "/plans/latest?"+userQuery(userID), nil, "")
	if errors.Is(err, ErrNotFound) {
		return []models.DayPlan{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodePlan(body)
}

func (c *Client) SendChat(ctx context.Context, userID, message string) (models.ChatReply, error) {
	var reply models.ChatReply
	body, err := c.doJSON(ctx, OpSendChat, http.MethodPost, "/chat/", models.ChatRequest{UserID: userID, Message: message})
	if err != nil {
		return reply, err
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return reply, fmt.Errorf("failed to decode chat reply: %w", err)
	}
	return reply, nil
}

func userQuery(userID string) string {
	return url.Values{"user_id": {userID}}.Encode()
}

// decodePlan reads the plan under summary.plan; a missing plan is empty.
func decodePlan(body []byte) ([]models.DayPlan, error) {
	raw := gjson.GetBytes(body, "summary.plan")
	if !raw.Exists() || raw.Type == gjson.Null {
		return []models.DayPlan{}, nil
	}
	var days []mapping.ExternalDay
	if err := json.Unmarshal([]byte(raw.Raw), &days); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return mapping.MapPlan(days), nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}
	return c.do(ctx, op, method, path, bytes.NewReader(data), "application/json")
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(op, 0, time.Since(start))
		return nil, fmt.Errorf("failed to send %s request: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.observe(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(ctx)
		}
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

func (c *Client) unauthorized(ctx context.Context) {
	c.mu.RLock()
	hooks := append([]UnauthorizedFunc(nil), c.onAuth...)
	c.mu.RUnlock()

	for _, fn := range hooks {
		fn(ctx)
	}
}
