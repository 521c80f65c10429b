// Package politeness gates outbound fetches against a host's robots.txt,
// grounded in the teacher's isAllowedByRobots helper. It is consulted by
// internal/webcache before every online fetch; spec.md is silent on
// robots.txt but its Non-goals never exclude it, so this is additive
// politeness rather than a spec feature.
package politeness

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"tripdig/internal/logging"
)

const userAgent = "tripdig/1.0"

type entry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
	failed    bool
}

const (
	cacheTTL         = 30 * time.Minute
	negativeCacheTTL = 10 * time.Minute
)

// Checker caches robots.txt per host and answers whether a path may be
// fetched. The zero value is not usable; construct with NewChecker.
type Checker struct {
	mu     sync.Mutex
	cache  map[string]*entry
	client *http.Client
}

// NewChecker creates a Checker using client for robots.txt fetches.
func NewChecker(client *http.Client) *Checker {
	return &Checker{cache: make(map[string]*entry), client: client}
}

// Allowed reports whether rawurl's path may be fetched per its host's
// robots.txt. On any failure to obtain robots.txt, it fails open (true)
// — a missing or unreachable robots.txt never blocks the crawl.
func (c *Checker) Allowed(ctx context.Context, rawurl string) bool {
	parsed, err := url.Parse(rawurl)
	if err != nil || parsed.Host == "" {
		return true
	}
	host := parsed.Host

	c.mu.Lock()
	if e, ok := c.cache[host]; ok {
		age := time.Since(e.fetchedAt)
		if !e.failed && age < cacheTTL {
			data := e.data
			c.mu.Unlock()
			return testPath(data, parsed.Path)
		}
		if e.failed && age < negativeCacheTTL {
			c.mu.Unlock()
			return true
		}
	}
	c.mu.Unlock()

	data, err := c.fetch(ctx, parsed.Scheme, host)

	c.mu.Lock()
	c.cache[host] = &entry{data: data, fetchedAt: time.Now(), failed: err != nil}
	c.mu.Unlock()

	if err != nil {
		logging.Debugf("politeness: could not fetch robots.txt for %s: %v", host, err)
		return true
	}
	return testPath(data, parsed.Path)
}

func testPath(data *robotstxt.RobotsData, path string) bool {
	group := data.FindGroup(userAgent)
	if group == nil {
		group = data.FindGroup("*")
	}
	return group.Test(path)
}

func (c *Checker) fetch(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+host+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return robotstxt.FromBytes(body)
}
