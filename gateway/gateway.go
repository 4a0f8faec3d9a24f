// Package gateway fronts remote metadata services with a response cache, a
// FIFO admission limit and retry with back-off.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nezuko-cli/nezuko/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Request describes one outbound call. Requests with the same method, URL
// and body share a cache entry.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Check inspects a 2xx body. A non-nil error marks the attempt as
	// failed and retryable, and keeps the body out of the cache.
	Check func(body []byte) error
}

func (r Request) cacheKey() string {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	return method + " " + r.URL + "\n" + string(r.Body)
}

// Options configures a Gateway. Zero values fall back to the defaults below.
type Options struct {
	Client      Doer
	Concurrency int64
	CacheTTL    time.Duration
	Retries     int
	RetryDelay  time.Duration

	// Now and Sleep are replaced in tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

const (
	DefaultConcurrency = 3
	DefaultCacheTTL    = 5 * time.Minute
	DefaultRetries     = 3
	DefaultRetryDelay  = time.Second
)

type entry struct {
	body     []byte
	storedAt time.Time
}

// Gateway is safe for concurrent use. One instance is shared per process.
type Gateway struct {
	client  Doer
	sem     *semaphore.Weighted
	flight  singleflight.Group
	ttl     time.Duration
	retries int
	delay   time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	cache map[string]entry
}

// New constructs a Gateway.
func New(opts Options) *Gateway {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}

	return &Gateway{
		client:  opts.Client,
		sem:     semaphore.NewWeighted(opts.Concurrency),
		ttl:     opts.CacheTTL,
		retries: opts.Retries,
		delay:   opts.RetryDelay,
		now:     opts.Now,
		sleep:   opts.Sleep,
		cache:   make(map[string]entry),
	}
}

// Query returns the response body for req, from cache when a fresh entry
// exists. Identical concurrent requests share one outbound call. The shared
// call is detached from any single caller, so a caller giving up only ends
// its own wait.
func (g *Gateway) Query(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := req.cacheKey()
	if body, ok := g.cached(k); ok {
		return body, nil
	}

	flight := context.WithoutCancel(ctx)
	ch := g.flight.DoChan(k, func() (any, error) {
		if body, ok := g.cached(k); ok {
			return body, nil
		}

		if err := g.sem.Acquire(flight, 1); err != nil {
			return nil, err
		}
		defer g.sem.Release(1)

		body, err := g.attempt(flight, req)
		if err != nil {
			return nil, err
		}

		g.store(k, body)
		return body, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate drops every cached response.
func (g *Gateway) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache = make(map[string]entry)
}

func (g *Gateway) cached(k string) ([]byte, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.cache[k]
	if !ok || g.now().Sub(e.storedAt) >= g.ttl {
		return nil, false
	}
	return e.body, true
}

func (g *Gateway) store(k string, body []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, e := range g.cache {
		if now.Sub(e.storedAt) >= g.ttl {
			delete(g.cache, key)
		}
	}
	g.cache[k] = entry{body: body, storedAt: now}
}

func (g *Gateway) attempt(ctx context.Context, req Request) ([]byte, error) {
	var (
		lastErr    error
		lastStatus int
	)

	for i := 0; i < g.retries; i++ {
		body, status, err := g.do(ctx, req)
		lastStatus = status

		switch {
		case err == nil:
			return body, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case status == http.StatusTooManyRequests:
			lastErr = ErrRateLimited
			wait := g.delay * time.Duration(i+1)
			if after, ok := retryAfter(err); ok {
				wait = after
			}
			if i == g.retries-1 {
				continue
			}
			log.Warnf("gateway: rate limited by %s, waiting %s", req.URL, wait)
			if err := g.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		case !transient(status):
			return nil, &QueryError{Attempts: i + 1, Status: status, Err: err}
		}

		lastErr = err
		if i == g.retries-1 {
			break
		}
		log.Warnf("gateway: %s failed, retrying (%d/%d): %v", req.URL, i+1, g.retries, err)
		if err := g.sleep(ctx, g.delay); err != nil {
			return nil, err
		}
	}

	return nil, &QueryError{
		Attempts:  g.retries,
		Status:    lastStatus,
		Err:       lastErr,
		Exhausted: true,
	}
}

type rateLimitError struct {
	after time.Duration
	set   bool
}

func (e *rateLimitError) Error() string { return "rate limited" }

func retryAfter(err error) (time.Duration, bool) {
	var rl *rateLimitError
	if errors.As(err, &rl) && rl.set {
		return rl.after, true
	}
	return 0, false
}

func (g *Gateway) do(ctx context.Context, req Request) ([]byte, int, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if req.Body != nil {
		reader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, reader)
	if err != nil {
		return nil, 0, err
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		rl := &rateLimitError{}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
			rl.after, rl.set = time.Duration(secs)*time.Second, true
		}
		return nil, resp.StatusCode, rl
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("invalid response code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if req.Check != nil {
		if err := req.Check(body); err != nil {
			return nil, resp.StatusCode, err
		}
	}

	return body, resp.StatusCode, nil
}

// transient reports whether a failed attempt with this status may succeed
// on retry. Status 0 means the request never got a response.
func transient(status int) bool {
	switch {
	case status == 0, status >= 200 && status <= 299:
		return true
	case status == http.StatusRequestTimeout:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
