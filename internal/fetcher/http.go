package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/project1899/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// HostRate is the initial requests per second allowed per host.
	HostRate rate.Limit
}

// AdaptiveLimiter is a per-host token bucket whose rate drifts up while a
// host answers normally and halves on every 429. The rate stays within
// [initial/4, initial*2].
type AdaptiveLimiter struct {
	limiter *rate.Limiter

	mu      sync.Mutex
	current rate.Limit
	floor   rate.Limit
	ceiling rate.Limit
}

// NewAdaptiveLimiter starts a limiter at initial events per second.
func NewAdaptiveLimiter(initial rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter: rate.NewLimiter(initial, burst),
		current: initial,
		floor:   initial / 4,
		ceiling: initial * 2,
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess raises the rate by a fifth.
func (a *AdaptiveLimiter) OnSuccess() {
	a.set(a.Limit() * 1.2)
}

// OnRateLimit halves the rate.
func (a *AdaptiveLimiter) OnRateLimit() {
	lim := a.set(a.Limit() * 0.5)
	zap.L().Warn("fetcher: host rate limited, slowing down", zap.Float64("rate", float64(lim)))
}

// Limit reports the current rate.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *AdaptiveLimiter) set(r rate.Limit) rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = min(max(r, a.floor), a.ceiling)
	a.limiter.SetLimit(a.current)
	return a.current
}

// HTTPFetcher downloads sources over HTTP(S). Requests to one host share an
// AdaptiveLimiter; transient failures retry under a resilience.Policy.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
	retry  resilience.Policy

	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
}

// NewHTTPFetcher fills unset options with defaults and builds the client.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "project1899/1.0"
	}
	if opts.HostRate == 0 {
		opts.HostRate = 10
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		retry:    resilience.DefaultPolicy().WithAttempts(opts.MaxRetries),
		limiters: make(map[string]*AdaptiveLimiter),
	}
}

func (f *HTTPFetcher) limiterFor(host string) *AdaptiveLimiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lim, ok := f.limiters[host]; ok {
		return lim
	}
	lim := NewAdaptiveLimiter(f.opts.HostRate, max(1, int(f.opts.HostRate)))
	f.limiters[host] = lim
	return lim
}

// do sends req, retrying network errors, 429 and 5xx answers. Any other
// response is returned to the caller with its body open.
func (f *HTTPFetcher) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	lim := f.limiterFor(req.URL.Host)
	target := req.URL.Redacted()

	return resilience.DoVal(ctx, f.retry, "http get "+target, func(ctx context.Context) (*http.Response, error) {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}
		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: get %s", target)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			lim.OnRateLimit()
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			_ = resp.Body.Close()
			return nil, resilience.Transient(eris.Errorf("fetcher: http %d from %s", resp.StatusCode, target), resp.StatusCode)
		}
		lim.OnSuccess()
		return resp, nil
	})
}

func (f *HTTPFetcher) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	return req, nil
}

// Download fetches the URL and returns the response body.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := f.newRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := f.do(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "download")
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("download: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	return resp.Body, nil
}

// DownloadToFile fetches the URL and writes it to the given path.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	return writeFile(path, body)
}

// DownloadIfChanged fetches the URL only if its ETag differs from etag.
// Returns (body, newETag, changed, error). If not changed, body is nil.
func (f *HTTPFetcher) DownloadIfChanged(ctx context.Context, rawURL string, etag string) (io.ReadCloser, string, bool, error) {
	req, err := f.newRequest(ctx, rawURL)
	if err != nil {
		return nil, "", false, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.do(ctx, req)
	if err != nil {
		return nil, "", false, eris.Wrap(err, "download if changed")
	}

	if resp.StatusCode == http.StatusNotModified {
		_ = resp.Body.Close()
		return nil, etag, false, nil
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, "", false, eris.Errorf("download if changed: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	return resp.Body, resp.Header.Get("ETag"), true, nil
}

// writeFile copies r into a new file at path, replacing it only once the copy completes.
func writeFile(path string, r io.Reader) (int64, error) {
	tmp := path + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}

	n, err := io.Copy(file, r)
	if err != nil {
		file.Close()   //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return n, eris.Wrap(err, "write file")
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return n, eris.Wrap(err, "close file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return n, eris.Wrap(err, "rename file")
	}
	return n, nil
}
