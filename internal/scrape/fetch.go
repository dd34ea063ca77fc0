package scrape

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// FetchConfig bounds the resilient fetch client's retry loop.
type FetchConfig struct {
	MaxAttempts    int
	MinWait        time.Duration
	MaxWait        time.Duration
	Multiplier     float64
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	HTTPProxy      string
}

func (c FetchConfig) withDefaults() FetchConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.MinWait <= 0 {
		c.MinWait = 3 * time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 15 * time.Second
	}
	if c.MaxWait < c.MinWait {
		c.MaxWait = c.MinWait
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	return c
}

// Client wraps outbound requests to one source with bounded retries and
// exponential backoff. Only transient transport failures (connection errors,
// timeouts, 5xx) are retried; 4xx responses propagate immediately. The
// client keeps a cookie jar, so a session established by one request is
// carried by the next.
type Client struct {
	cfg   FetchConfig
	http  *http.Client
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a fetch client with its own cookie jar.
func NewClient(cfg FetchConfig) *Client {
	cfg = cfg.withDefaults()

	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: invalid proxy URL %q: %v. Fetch client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   cfg.ReadTimeout,
		},
		sleep: sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Cookie returns the named cookie currently held for the URL.
func (c *Client) Cookie(u *url.URL, name string) (string, bool) {
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value, true
		}
	}
	return "", false
}

// Get performs a resilient GET.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	return c.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		applyHeader(req, header)
		return req, nil
	})
}

// PostForm performs a resilient form POST.
func (c *Client) PostForm(ctx context.Context, rawURL string, header http.Header, form url.Values) ([]byte, error) {
	encoded := form.Encode()
	return c.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, rawURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		applyHeader(req, header)
		return req, nil
	})
}

func applyHeader(req *http.Request, header http.Header) {
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

// Do runs the request built by build under the retry policy and returns the
// response body. build is called once per attempt so the request body can be
// re-read.
func (c *Client) Do(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	wait := c.cfg.MinWait

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		started := time.Now()
		body, retryable, err := c.attempt(ctx, build)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		log.Printf("fetch: attempt %d/%d failed after %s: %v", attempt, c.cfg.MaxAttempts, time.Since(started).Round(time.Millisecond), err)

		if attempt == c.cfg.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: backoff interrupted: %v", ErrSource, err)
		}
		wait = time.Duration(float64(wait) * c.cfg.Multiplier)
		if wait > c.cfg.MaxWait {
			wait = c.cfg.MaxWait
		}
	}

	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

// attempt runs one request. The second return value reports whether the
// failure is transient.
func (c *Client) attempt(ctx context.Context, build func() (*http.Request, error)) ([]byte, bool, error) {
	req, err := build()
	if err != nil {
		return nil, false, fmt.Errorf("%w: build request: %v", ErrSource, err)
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrSource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("%w: status %d from %s", ErrSource, resp.StatusCode, req.URL.Host)
	}
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("%w: status %d from %s", ErrSource, resp.StatusCode, req.URL.Host)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", ErrSource, err)
	}
	return body, false, nil
}
