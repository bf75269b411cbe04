package mpesa

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// tokenRefreshMargin is subtracted from the gateway-reported lifetime so a
// cached token is never presented right at its expiry.
const tokenRefreshMargin = 60 * time.Second

// TokenCache stores OAuth access tokens. Implementations may be shared
// between processes.
type TokenCache interface {
	GetToken(ctx context.Context, key string) (string, bool, error)
	SetToken(ctx context.Context, key, token string, ttl time.Duration) error
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenCache is a process-local TokenCache.
type MemoryTokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
	now    func() time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]cachedToken), now: time.Now}
}

func (c *MemoryTokenCache) GetToken(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[key]
	if !ok || !c.now().Before(t.expiresAt) {
		delete(c.tokens, key)
		return "", false, nil
	}
	return t.value, true, nil
}

func (c *MemoryTokenCache) SetToken(_ context.Context, key, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = cachedToken{value: token, expiresAt: c.now().Add(ttl)}
	return nil
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

func (r tokenResponse) ttl() time.Duration {
	seconds, err := strconv.ParseInt(r.ExpiresIn.String(), 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds)*time.Second - tokenRefreshMargin
}

func (c *Client) tokenKey() string {
	return "mpesa:access_token:" + c.cfg.ConsumerKey
}

// accessToken returns a cached token or fetches a new one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	key := c.tokenKey()
	token, ok, err := c.cache.GetToken(ctx, key)
	if err != nil {
		c.logger.Warn("token cache read failed", slog.String("error", err.Error()))
	}
	if ok {
		return token, nil
	}

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret).
		SetQueryParam("grant_type", "client_credentials").
		SetHeader("Accept", "application/json").
		Get("/oauth/v1/generate")
	if err != nil {
		c.observe("token", outcomeError, started)
		return "", &GatewayError{Op: "token", Err: err}
	}
	if resp.IsError() {
		c.observe("token", outcomeRejected, started)
		return "", c.rejection("token", resp.StatusCode(), resp.Body())
	}

	var data tokenResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil || data.AccessToken == "" {
		c.observe("token", outcomeError, started)
		return "", &GatewayError{Op: "token", StatusCode: resp.StatusCode(), Description: "malformed token response", Err: err}
	}
	c.observe("token", outcomeOK, started)

	if ttl := data.ttl(); ttl > 0 {
		if err := c.cache.SetToken(ctx, key, data.AccessToken, ttl); err != nil {
			c.logger.Warn("token cache write failed", slog.String("error", err.Error()))
		}
	}
	return data.AccessToken, nil
}
