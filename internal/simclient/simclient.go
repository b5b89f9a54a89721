// Package simclient is the boundary to the simulation controller (pysim):
// a startup reachability check (unreachable at startup is fatal and the
// process exits) and a PysimLink implementation consumed by internal/iface's
// simulated WLAN. The reachability check retries a flaky external dependency
// with exponential backoff (github.com/cenkalti/backoff/v4), the same shape
// as a retry wrapper around a health probe.
package simclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client reaches the simulation controller over HTTP at baseURL
// (PYSIM_URL).
type Client struct {
	baseURL    string
	httpClient *http.Client
	// recvClient has no timeout: Recv long-polls the controller and relies
	// on the caller's context for cancellation instead.
	recvClient *http.Client
}

// New builds a Client targeting baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		recvClient: &http.Client{},
	}
}

// CheckReachable retries a health probe against the controller with
// exponential backoff, giving up after maxElapsed. A failure here is fatal
// to process startup.
func (c *Client) CheckReachable(ctx context.Context, maxElapsed time.Duration) error {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
		backoff.WithMultiplier(2.0),
		backoff.WithMaxInterval(5*time.Second),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
	bo := backoff.WithContext(b, ctx)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("simclient: controller returned %d", resp.StatusCode)
		}
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		return fmt.Errorf("simclient: controller at %s unreachable: %w", c.baseURL, err)
	}
	return nil
}
