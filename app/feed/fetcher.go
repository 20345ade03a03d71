package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
)

// FetchError wraps any failure to retrieve the upstream feed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch feed %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	httpClient    *http.Client
	userAgent     string
	timeout       time.Duration
	retries       uint64
	retryInterval time.Duration
}

func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration, retries uint64) *Fetcher {
	return &Fetcher{
		httpClient:    httpClient,
		userAgent:     userAgent,
		timeout:       timeout,
		retries:       retries,
		retryInterval: 500 * time.Millisecond,
	}
}

// Run fetches url, retrying transport errors and 5xx responses up to the configured
// number of retries.
func (f *Fetcher) Run(ctx context.Context, url string) ([]byte, error) {
	slog.Info("Fetching RSS", "url", url)

	var data []byte
	operation := func() error {
		var err error
		data, err = f.fetchOnce(ctx, url)
		return err
	}

	err := backoff.RetryNotify(operation, f.newBackOff(ctx), func(err error, delay time.Duration) {
		slog.Warn("Fetch failed, retrying", "url", url, "delay", delay.String(), "error", err)
	})
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	slog.Debug("Fetched RSS", "url", url, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}

func (f *Fetcher) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = f.retryInterval
	exp.MaxInterval = 30 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(exp, f.retries), ctx)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP error: %s", resp.Status)
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
