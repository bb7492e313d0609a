// Package backend talks to the application's API for fixture setup and
// teardown: registering accounts the UI then signs into, and deleting the
// accounts a scenario created.
package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/medara-io/medara-e2e/internal/config"
	"github.com/medara-io/medara-e2e/internal/logging"
	"github.com/medara-io/medara-e2e/internal/models"
)

// CleanupConcurrency bounds the deletes CleanupUsers runs at once.
const CleanupConcurrency = 4

// User is the record register returns.
type User struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	AccountType models.AccountType `json:"account_type"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
}

// CleanupRecorder receives cleanup failures that were logged and swallowed.
type CleanupRecorder interface {
	RecordCleanupFailure(email string, err error)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client is the fixture-setup API client.
type Client struct {
	http     *resty.Client
	env      config.Environment
	logger   *zap.Logger
	recorder CleanupRecorder
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// WithRecorder collects swallowed cleanup failures.
func WithRecorder(recorder CleanupRecorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// New returns a client for env's API.
func New(env config.Environment, logger *zap.Logger, opts ...Option) *Client {
	httpClient := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("User-Agent", "medara-e2e").
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("x-environment", env.Name)

	c := &Client{
		http:   httpClient,
		env:    env,
		logger: logging.OrNop(logger).Named("backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account through the API. Any non-2xx status fails.
func (c *Client) Register(ctx context.Context, profile models.AccountProfile) (*User, error) {
	endpoint := c.env.APIURL("auth/register")
	var user User
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(profile).
		SetResult(&user).
		Post(endpoint)
	if err != nil {
		return nil, &NetworkError{Operation: "POST", URL: endpoint, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, newAPIError("register", resp)
	}

	c.logger.Debug("registered test user",
		zap.String("email", profile.Email),
		zap.String("id", user.ID))
	return &user, nil
}

// CleanupUser deletes a test account. Failures are logged and recorded but
// never returned; a 404 means there was nothing to delete.
func (c *Client) CleanupUser(ctx context.Context, email string) {
	endpoint := c.env.APIURL("test/users/" + url.PathEscape(email))
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(endpoint)
	if err != nil {
		c.cleanupFailed(email, &NetworkError{Operation: "DELETE", URL: endpoint, Err: err})
		return
	}
	if resp.StatusCode() == http.StatusNotFound {
		c.logger.Debug("test user already gone", zap.String("email", email))
		return
	}
	if !resp.IsSuccess() {
		c.cleanupFailed(email, newAPIError("cleanup", resp))
		return
	}
	c.logger.Debug("cleaned up test user", zap.String("email", email))
}

// CleanupUsers runs CleanupUser for every address with bounded concurrency.
func (c *Client) CleanupUsers(ctx context.Context, emails ...string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(CleanupConcurrency)
	for _, email := range emails {
		g.Go(func() error {
			c.CleanupUser(gctx, email)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Client) cleanupFailed(email string, err error) {
	c.logger.Warn("failed to clean up test user",
		zap.String("email", email),
		zap.Error(err))
	if c.recorder != nil {
		c.recorder.RecordCleanupFailure(email, err)
	}
}

// Health checks the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	endpoint := c.env.HealthURL()
	resp, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return &NetworkError{Operation: "GET", URL: endpoint, Err: err}
	}
	if !resp.IsSuccess() {
		return newAPIError("health", resp)
	}
	return nil
}

func newAPIError(operation string, resp *resty.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Operation:  operation,
		Message:    http.StatusText(resp.StatusCode()),
	}
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Message
	} else if raw := strings.TrimSpace(string(resp.Body())); raw != "" {
		apiErr.Details = raw
	}
	return apiErr
}
