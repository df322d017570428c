package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent      string
	Timeout        time.Duration // per-fetch deadline, applied on top of the caller's context
	MaxAttempts    int           // total attempts including the first; 1 disables retries
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	HostRate       rate.Limit // sustained requests/sec per host
	HostBurst      int
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.UserAgent == "" {
		o.UserAgent = "housing-atlas/1.0"
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 15 * time.Second
	}
	if o.HostRate <= 0 {
		o.HostRate = 5
	}
	if o.HostBurst <= 0 {
		o.HostBurst = 5
	}
	return o
}

// HTTPFetcher is the production Fetcher. One limiter per host keeps
// concurrent source loads from hammering a single origin.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTP creates an HTTPFetcher. A nil client uses http.DefaultClient.
func NewHTTP(client *http.Client, opts HTTPOptions) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		client:   client,
		opts:     opts.withDefaults(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Download fetches rawURL, retrying transient failures (429, 5xx, network
// timeouts) with exponential backoff and jitter. The whole response is
// buffered before returning so a retried attempt never hands the caller a
// half-consumed body.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}

	var lastErr error
	for attempt := 0; attempt < f.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := f.backoff(attempt - 1)
			zap.L().Warn("fetcher: retrying download",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, eris.Wrap(ctx.Err(), "fetcher: cancelled during backoff")
			case <-timer.C:
			}
		}

		body, err := f.fetchOnce(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isTransient(err) {
			break
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: build request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: get %s", u.String())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused before the retry.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{URL: u.String(), Code: resp.StatusCode}
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read body of %s", u.String())
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (f *HTTPFetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(f.opts.HostRate, f.opts.HostBurst)
		f.limiters[host] = l
	}
	return l
}

// backoff computes the delay before retry number attempt+1, exponential with
// ±25% jitter.
func (f *HTTPFetcher) backoff(attempt int) time.Duration {
	delay := float64(f.opts.InitialBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(f.opts.MaxBackoff) {
		delay = float64(f.opts.MaxBackoff)
	}
	delay += (rand.Float64()*2 - 1) * delay * 0.25
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// statusError marks a non-200 response; 429 and 5xx are retryable.
type statusError struct {
	URL  string
	Code int
}

func (e *statusError) Error() string {
	return "fetcher: " + e.URL + " returned " + http.StatusText(e.Code)
}

// isTransient reports whether a fetch failure is worth retrying: retryable
// HTTP statuses and network timeouts.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
