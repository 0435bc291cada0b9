package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"followgraph/pkg/config"
	errs "followgraph/pkg/errors"
	"followgraph/pkg/logger"
	"followgraph/pkg/models"
	"followgraph/pkg/ratelimit"
	"followgraph/pkg/retry"
)

// Client talks to the v1.1 REST API with OAuth 1.0a user-context signing.
// Every request waits on the shared limiter first. Network and server
// errors are retried here; rate-limit errors are returned to the caller.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	limiter     ratelimit.Limiter
	retryConfig config.RetryConfig
	sleep       retry.SleepFunc
	logger      logger.Logger
}

// NewClient creates a signed API client from configuration
func NewClient(cfg *config.Config, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	}

	oauthConfig := oauth1.NewConfig(cfg.Twitter.ConsumerKey, cfg.Twitter.ConsumerSecret)
	token := oauth1.NewToken(cfg.Twitter.AccessToken, cfg.Twitter.AccessTokenSecret)
	httpClient := oauthConfig.Client(oauth1.NoContext, token)
	httpClient.Timeout = cfg.Twitter.RequestTimeout

	baseURL := strings.TrimRight(cfg.Twitter.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		limiter:     limiter,
		retryConfig: cfg.Retry,
		logger:      log,
	}
}

// SetSleep replaces the wait used between transport retries
func (c *Client) SetSleep(sleep retry.SleepFunc) {
	c.sleep = sleep
}

// FollowerIDs fetches one page of the ids following handle
func (c *Client) FollowerIDs(ctx context.Context, handle string, cursor *string) (*IDsPage, error) {
	return c.fetchIDs(ctx, FollowersIDsEndpoint, handle, cursor)
}

// FriendIDs fetches one page of the ids handle follows
func (c *Client) FriendIDs(ctx context.Context, handle string, cursor *string) (*IDsPage, error) {
	return c.fetchIDs(ctx, FriendsIDsEndpoint, handle, cursor)
}

func (c *Client) fetchIDs(ctx context.Context, endpoint, handle string, cursor *string) (*IDsPage, error) {
	var page IDsPage
	if err := c.getJSON(ctx, endpoint, idsParams(handle, cursor), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// LookupUsers resolves up to MaxLookupBatch ids. Ids with no live account
// are absent from the result; a batch where none resolve is not an error.
func (c *Client) LookupUsers(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxLookupBatch {
		return nil, fmt.Errorf("lookup batch of %d ids exceeds limit of %d", len(ids), MaxLookupBatch)
	}

	var users []User
	if err := c.getJSON(ctx, UsersLookupEndpoint, lookupByIDParams(ids), &users); err != nil {
		if errs.TypeOf(err) == errs.ErrorTypeNotFound {
			return nil, nil
		}
		return nil, err
	}

	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// LookupHandle resolves a screen name to its current profile
func (c *Client) LookupHandle(ctx context.Context, handle string) (*models.Profile, error) {
	var users []User
	if err := c.getJSON(ctx, UsersLookupEndpoint, lookupByHandleParams(handle), &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "user %s not found", SanitizeHandle(handle))
	}
	profile := users[0].Profile()
	return &profile, nil
}

func (c *Client) retryPolicy(ctx context.Context) *retry.Config {
	attempts := 1
	if c.retryConfig.Enabled && c.retryConfig.MaxAttempts > 0 {
		attempts = c.retryConfig.MaxAttempts
	}
	return &retry.Config{
		MaxAttempts: attempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    c.retryConfig.InitialDelay,
			MaxDelay:     c.retryConfig.MaxDelay,
			Multiplier:   c.retryConfig.Multiplier,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  c.logger,
		Sleep:   c.sleep,
	}
}

// getJSON performs a paced, signed GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, target interface{}) error {
	rawURL := c.baseURL + endpoint + "?" + params.Encode()

	return retry.Do(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.doJSON(ctx, rawURL, target)
	}, c.retryPolicy(ctx))
}

func (c *Client) doJSON(ctx context.Context, rawURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		return errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := checkResponse(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          req.URL.Path,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}
	return nil
}

// checkResponse maps a status and error envelope to a typed error.
// Error code 88 means rate limited whatever the status.
func checkResponse(status int, body []byte) error {
	var envelope ErrorResponse
	_ = json.Unmarshal(body, &envelope)

	if envelope.hasCode(errs.RateLimitExceededCode) {
		return errs.New(errs.ErrorTypeRateLimit, errs.RateLimitExceededCode, "rate limit exceeded")
	}
	if status >= 200 && status < 300 {
		return nil
	}

	message := envelope.message()
	if message == "" {
		message = http.StatusText(status)
	}
	return errs.New(errs.TypeForStatus(status), status, "%s", message)
}
