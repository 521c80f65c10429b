// Package webcache implements the conditional-GET web cache: it
// memoizes HTTP responses by URL path, revalidates via If-Modified-Since,
// compresses bodies at rest, serializes to a single on-disk file, and is
// safely shared by many concurrent workers. It also supports a fully
// offline mode that serves only from the cache (spec §4.3).
package webcache

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/gob"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	tderrors "tripdig/internal/errors"
	"tripdig/internal/logging"
	"tripdig/internal/politeness"
	"tripdig/internal/retry"
)

// ErrUnavailable is returned by Download when the retry budget is
// exhausted. Resolves the Design Notes open question in favor of a
// distinguishable signal rather than silently returning empty bytes;
// callers that want the original "empty body" behavior can treat it
// like any other error (spec §9).
var ErrUnavailable = errors.New("webcache: exhausted retries, URL unavailable")

// entry is the in-memory cache record for one URL path: the
// last-modified header value echoed back verbatim on revalidation, and
// the zlib-compressed body.
type entry struct {
	LastModified string
	Compressed   []byte
}

const fileFormatVersion = 1

type fileFormat struct {
	Version int
	Entries map[string]entry
}

// Default retry parameters, matching the original's retry_times/lower/upper.
const (
	DefaultRetryAttempts = 3
	DefaultRetryLower    = 5 * time.Second
	DefaultRetryUpper    = 15 * time.Second
)

// Cache is a thread-safe, conditional-GET HTTP cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	client *http.Client
	sem    *semaphore.Weighted
	robots *politeness.Checker

	offline bool

	retryAttempts int
	retryLower    time.Duration
	retryUpper    time.Duration

	sleep func(time.Duration)
}

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cache *Cache) { cache.client = c }
}

// WithMaxConcurrency bounds how many online fetches may be in flight at
// once, grounded in the ghcache throttlingTransport pattern (DESIGN.md).
// A value <= 0 leaves fetches unbounded.
func WithMaxConcurrency(n int64) Option {
	return func(cache *Cache) {
		if n > 0 {
			cache.sem = semaphore.NewWeighted(n)
		} else {
			cache.sem = nil
		}
	}
}

// WithRobotsChecker installs a politeness gate consulted before every
// online fetch.
func WithRobotsChecker(c *politeness.Checker) Option {
	return func(cache *Cache) { cache.robots = c }
}

// WithRetry overrides the retry attempt budget and backoff window.
func WithRetry(attempts int, lower, upper time.Duration) Option {
	return func(cache *Cache) {
		cache.retryAttempts = attempts
		cache.retryLower = lower
		cache.retryUpper = upper
	}
}

// withSleep overrides the sleep function; exposed unexported for tests
// that want to assert on backoff without actually waiting.
func withSleep(f func(time.Duration)) Option {
	return func(cache *Cache) { cache.sleep = f }
}

// New creates an empty, online-mode Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:       make(map[string]entry),
		client:        &http.Client{Timeout: 30 * time.Second},
		retryAttempts: DefaultRetryAttempts,
		retryLower:    DefaultRetryLower,
		retryUpper:    DefaultRetryUpper,
		sleep:         time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOnlineMode switches the cache to fetch from the network, falling
// back to the stored entry only for revalidation.
func (c *Cache) SetOnlineMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offline = false
}

// SetOfflineMode switches the cache to serve only from what is already
// cached; a miss is a terminal error.
func (c *Cache) SetOfflineMode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offline = true
}

func (c *Cache) isOffline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offline
}

func keyFor(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}

// Download returns the body bytes a fresh GET would yield, subject to
// the cache's freshness semantics, driving RetryStrategy across
// attempts. Thread-safe for arbitrary concurrent calls.
func (c *Cache) Download(ctx context.Context, rawurl string) ([]byte, error) {
	strat := retry.New(c.retryAttempts, c.retryLower, c.retryUpper)

	var wait time.Duration
	for {
		if wait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(0): // fallthrough guard; real sleep below
			}
			c.sleep(wait)
		}

		var body []byte
		var err error
		if c.isOffline() {
			body, err = c.downloadOffline(rawurl)
		} else {
			body, err = c.downloadOnline(ctx, rawurl)
		}
		if err == nil {
			return body, nil
		}

		logging.Debugf("webcache: attempt failed for %s: %v", rawurl, err)
		strat.RegisterError(err)

		var done bool
		wait, done = strat.Seconds()
		if done {
			return nil, ErrUnavailable
		}
	}
}

func (c *Cache) downloadOffline(rawurl string) ([]byte, error) {
	key, err := keyFor(rawurl)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		return nil, tderrors.NewNotInCacheError(rawurl)
	}
	return inflate(e.Compressed)
}

func (c *Cache) downloadOnline(ctx context.Context, rawurl string) ([]byte, error) {
	key, err := keyFor(rawurl)
	if err != nil {
		return nil, err
	}

	if c.robots != nil && !c.robots.Allowed(ctx, rawurl) {
		return nil, tderrors.NewPermanentHTTPError(rawurl, http.StatusForbidden)
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, nil)
	if err != nil {
		return nil, tderrors.NewNetworkError("build request", err)
	}
	if ok {
		req.Header.Set("If-Modified-Since", e.LastModified)
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, tderrors.NewNetworkError("acquire concurrency slot", err)
		}
		defer c.sem.Release(1)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, tderrors.NewNetworkError("GET "+rawurl, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		if !ok {
			return nil, tderrors.NewPermanentHTTPError(rawurl, resp.StatusCode)
		}
		return inflate(e.Compressed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, tderrors.NewPermanentHTTPError(rawurl, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, tderrors.NewNetworkError("read body", err)
	}

	lastModified := resp.Header.Get("Last-Modified")
	compressed, err := deflate(body)
	if err != nil {
		return nil, tderrors.NewNetworkError("compress body", err)
	}

	c.mu.Lock()
	c.entries[key] = entry{LastModified: lastModified, Compressed: compressed}
	c.mu.Unlock()

	return body, nil
}

func inflate(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func deflate(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load populates the in-memory cache from path. A missing file is
// interpreted as an empty cache, not an error.
func (c *Cache) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.mu.Lock()
			c.entries = make(map[string]entry)
			c.mu.Unlock()
			return nil
		}
		return err
	}
	defer f.Close()

	var ff fileFormat
	if err := gob.NewDecoder(f).Decode(&ff); err != nil {
		if err == io.EOF {
			c.mu.Lock()
			c.entries = make(map[string]entry)
			c.mu.Unlock()
			return nil
		}
		return err
	}

	if ff.Entries == nil {
		ff.Entries = make(map[string]entry)
	}

	c.mu.Lock()
	c.entries = ff.Entries
	c.mu.Unlock()
	return nil
}

// Dump persists the in-memory cache to path using a self-describing,
// version-tagged gob encoding.
func (c *Cache) Dump(path string) error {
	c.mu.Lock()
	snapshot := make(map[string]entry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gob.NewEncoder(f).Encode(fileFormat{Version: fileFormatVersion, Entries: snapshot})
}

// Len returns the number of entries currently cached, mainly for tests
// and progress reporting.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
