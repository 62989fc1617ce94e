package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/storyloom/storyloom-backend/internal/common"
	"github.com/storyloom/storyloom-backend/pkg/logger"
)

// Fetcher downloads one remote page and parses it into a traversable
// document. Implementations own the retry-on-timeout policy.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*RemoteDocument, error)
}

// FetchOptions tunes the HTTP fetcher
type FetchOptions struct {
	// Throttle is slept before every request so one import cannot
	// hammer the origin host.
	Throttle   time.Duration
	RetryDelay time.Duration
	Timeout    time.Duration
	// MaxAttempts bounds total tries per page, transient failures
	// included.
	MaxAttempts int
	UserAgent   string
}

// HTTPFetcher is the default Fetcher implementation
type HTTPFetcher struct {
	client *http.Client
	opts   FetchOptions
}

// NewHTTPFetcher creates a new HTTP fetcher
func NewHTTPFetcher(opts FetchOptions) *HTTPFetcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Fetch downloads url and parses the body. Transient failures (network
// errors, timeouts, 5xx) are retried up to MaxAttempts with a fixed
// delay; 4xx responses fail immediately. Exhausting the attempts
// surfaces as ErrOriginUnreachable. No caching: each page is fetched
// exactly once per import attempt.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*RemoteDocument, error) {
	if err := sleepCtx(ctx, f.opts.Throttle); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			logger.GetLogger().Warn().
				Str("url", url).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("retrying origin fetch")
			if err := sleepCtx(ctx, f.opts.RetryDelay); err != nil {
				return nil, err
			}
		}

		doc, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		if !retryable {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrOriginUnreachable, url, err)
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v",
		common.ErrOriginUnreachable, url, f.opts.MaxAttempts, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (doc *RemoteDocument, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Connection and timeout errors are the retryable class
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		doc, err := NewRemoteDocument(url, resp.Body)
		if err != nil {
			return nil, false, err
		}
		return doc, false, nil
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("origin returned %s", resp.Status)
	default:
		return nil, false, fmt.Errorf("origin returned %s", resp.Status)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
