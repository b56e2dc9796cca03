package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"betstream/internal/domain"
)

// keepAliveResponse represents the exchange keep-alive API response
type keepAliveResponse struct {
	Token   string `json:"token"`
	Product string `json:"product"`
	Status  string `json:"status"` // SUCCESS or FAIL
	Error   string `json:"error"`
}

// KeepAliveClient keeps the exchange session token alive by polling
// the keep-alive endpoint. Stream reconnects re-authenticate with the
// latest token it holds.
type KeepAliveClient struct {
	appKey       string
	token        string
	mu           sync.RWMutex
	pollInterval time.Duration
	apiURL       string
	httpClient   *http.Client
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewKeepAliveClient creates a keep-alive client for a session token.
func NewKeepAliveClient(apiURL, appKey, token string, pollIntervalSec int) *KeepAliveClient {
	interval := 10 * time.Minute
	if pollIntervalSec > 0 {
		interval = time.Duration(pollIntervalSec) * time.Second
	}
	return &KeepAliveClient{
		appKey:       appKey,
		token:        token,
		pollInterval: interval,
		apiURL:       apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Start begins polling the keep-alive endpoint
func (c *KeepAliveClient) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	// Ping immediately on start
	if err := c.keepAlive(ctx); err != nil {
		slog.Warn("Initial session keep-alive failed", slog.Any("error", err))
		// Continue anyway - will retry on next tick
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Keep-alive polling panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Session keep-alive stopped")
				return
			case <-ticker.C:
				if err := c.keepAlive(ctx); err != nil {
					slog.Warn("Session keep-alive failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

// keepAlive pings the endpoint with retry logic
func (c *KeepAliveClient) keepAlive(ctx context.Context) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if i > 0 {
			// Exponential backoff: 1s, 2s, 4s
			delay := time.Duration(1<<uint(i-1)) * time.Second
			slog.Info("Retrying session keep-alive", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.doKeepAlive(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Warn("Session keep-alive attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
	}
	return lastErr
}

func (c *KeepAliveClient) doKeepAlive(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, nil)
	if err != nil {
		return err
	}

	req.Header.Set("X-Application", c.appKey)
	req.Header.Set("X-Authentication", c.Token())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var data keepAliveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return err
	}

	if data.Status != "SUCCESS" {
		return fmt.Errorf("%w: %s", domain.ErrAuthenticationFailed, data.Error)
	}

	// The endpoint may rotate the token
	if data.Token != "" && data.Token != c.Token() {
		c.mu.Lock()
		c.token = data.Token
		c.mu.Unlock()
		slog.Info("Session token rotated")
	}

	return nil
}

// Stop stops the polling
func (c *KeepAliveClient) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.wg.Wait()
	}
}

// Token returns the current session token
func (c *KeepAliveClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}
