// Package crawl implements the WebEntity hierarchy: Board, Page, Thread
// and Post, plus the classify helper that turns a link into a WorkUnit.
// Each non-leaf entity's Process fetches its API URL, decodes JSON, and
// returns the next tier's entities for the caller to push onto a
// worker pool.
package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"tripdig/internal/config"
	"tripdig/internal/links"
	"tripdig/internal/webcache"
)

// Env carries the dependencies every entity's Process needs, threaded
// explicitly instead of read off a package-global cache.
type Env struct {
	Cache *webcache.Cache
}

// WorkUnit is implemented by every crawl-tree node. The marker method
// keeps the interface from being satisfiable by unrelated types.
type WorkUnit interface {
	isWorkUnit()
}

// Tripcode is a ten-character public (DES-crypt) or secure cipher as
// emitted by the site, with an optional solved key filled in by a Solver.
type Tripcode struct {
	Cipher string
	Key    string
}

// Solved reports whether a key has been filled in.
func (t *Tripcode) Solved() bool {
	return t != nil && t.Key != ""
}

// Public and Secure tripcode patterns, matched against a post's raw
// trip string (spec §3).
var (
	PublicPattern = regexp.MustCompile(`^!([./0-9A-Za-z]{10})`)
	SecurePattern = regexp.MustCompile(`!!([./0-9A-Za-z]{10})`)
)

// Board exposes a catalog endpoint returning page indices.
type Board struct {
	Name string
}

func (Board) isWorkUnit() {}

func (b Board) apiPath() string { return fmt.Sprintf(config.CatalogEndpointTemplate, b.Name) }

// APIURL returns the board's catalog API URL.
func (b Board) APIURL() string { return links.CreateAPIURL(b.apiPath()) }

// URL returns the board's page-host URL.
func (b Board) URL() string { return links.CreateURL("/"+b.Name+"/", "") }

type catalogPage struct {
	Page    int `json:"page"`
	Threads []struct {
		No int64 `json:"no"`
	} `json:"threads"`
}

// Process fetches the board's catalog and yields one Page per entry.
func (b Board) Process(ctx context.Context, env *Env) ([]Page, error) {
	body, err := env.Cache.Download(ctx, b.APIURL())
	if err != nil {
		return nil, nil
	}

	var catalog []catalogPage
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("crawl: decode catalog for /%s/: %w", b.Name, err)
	}

	pages := make([]Page, 0, len(catalog))
	for _, cp := range catalog {
		pages = append(pages, Page{Board: b.Name, Index: cp.Page})
	}
	return pages, nil
}

// Page returns a JSON listing of thread summaries for one catalog page.
type Page struct {
	Board string
	Index int
}

func (Page) isWorkUnit() {}

func (p Page) apiPath() string {
	return fmt.Sprintf(config.PageEndpointTemplate, p.Board, p.Index)
}

// APIURL returns the page's API URL.
func (p Page) APIURL() string { return links.CreateAPIURL(p.apiPath()) }

type pageListing struct {
	Threads []struct {
		Posts []struct {
			No int64 `json:"no"`
		} `json:"posts"`
	} `json:"threads"`
}

// Process fetches the page's thread listing and yields one Thread per
// entry (each thread's OP post carries the thread's number).
func (p Page) Process(ctx context.Context, env *Env) ([]Thread, error) {
	body, err := env.Cache.Download(ctx, p.APIURL())
	if err != nil {
		return nil, nil
	}

	var listing pageListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("crawl: decode page /%s/%d: %w", p.Board, p.Index, err)
	}

	threads := make([]Thread, 0, len(listing.Threads))
	for _, t := range listing.Threads {
		if len(t.Posts) == 0 {
			continue
		}
		threads = append(threads, Thread{Board: p.Board, ID: t.Posts[0].No})
	}
	return threads, nil
}

// Thread returns a JSON object {posts: [...]}; Process yields one Post
// per post whose trip field matches the public or secure pattern.
type Thread struct {
	Board string
	ID    int64
}

func (Thread) isWorkUnit() {}

func (t Thread) apiPath() string {
	return fmt.Sprintf(config.ThreadEndpointTemplate, t.Board, t.ID)
}

// APIURL returns the thread's API URL.
func (t Thread) APIURL() string { return links.CreateAPIURL(t.apiPath()) }

// URL returns the thread's page-host URL.
func (t Thread) URL() string {
	return links.CreateURL("/"+t.Board+"/res/"+strconv.FormatInt(t.ID, 10), "")
}

// RawPost is a post's full JSON shape, exported so orchestrators that
// scan free-text fields (dump-words, dump-ngrams) can read fields
// Thread.Process itself does not need.
type RawPost struct {
	No       int64  `json:"no"`
	Time     int64  `json:"time"`
	Name     string `json:"name"`
	Trip     string `json:"trip"`
	Com      string `json:"com"`
	Email    string `json:"email"`
	Sub      string `json:"sub"`
	Filename string `json:"filename"`
}

// RawThread is a thread's full JSON shape.
type RawThread struct {
	Posts []RawPost `json:"posts"`
}

// Download populates the cache for this thread without decoding the
// body, mirroring the original's download()/download_and_decode() split.
func (t Thread) Download(ctx context.Context, env *Env) error {
	_, err := env.Cache.Download(ctx, t.APIURL())
	return err
}

// DownloadAndDecode fetches and JSON-decodes this thread's body.
func (t Thread) DownloadAndDecode(ctx context.Context, env *Env) (*RawThread, error) {
	body, err := env.Cache.Download(ctx, t.APIURL())
	if err != nil {
		return nil, err
	}
	var rt RawThread
	if err := json.Unmarshal(body, &rt); err != nil {
		return nil, fmt.Errorf("crawl: decode thread /%s/res/%d: %w", t.Board, t.ID, err)
	}
	return &rt, nil
}

// Process fetches the thread and yields a Post for every post bearing
// a trip field and at least one matched tripcode fragment. HTML-entity
// decoding uses html.UnescapeString, a pure stateless function, so it
// requires no synchronization across concurrent workers (spec §4.5).
//
// A download failure yields zero children silently, matching
// Board.Process/Page.Process — the underlying webcache.Download call
// already logged it. A JSON decode failure is propagated, the same
// way Board.Process/Page.Process propagate theirs, so the caller's
// own error logging fires (spec §7: "JSON decode failure … Log;
// entity produces zero children").
func (t Thread) Process(ctx context.Context, env *Env) ([]Post, error) {
	body, err := env.Cache.Download(ctx, t.APIURL())
	if err != nil {
		return nil, nil
	}

	var rt RawThread
	if err := json.Unmarshal(body, &rt); err != nil {
		return nil, fmt.Errorf("crawl: decode thread /%s/res/%d: %w", t.Board, t.ID, err)
	}

	var posts []Post
	for _, rp := range rt.Posts {
		if rp.Trip == "" {
			continue
		}

		var public, secure *Tripcode
		if m := PublicPattern.FindStringSubmatch(rp.Trip); m != nil {
			public = &Tripcode{Cipher: m[1]}
		}
		if m := SecurePattern.FindStringSubmatch(rp.Trip); m != nil {
			secure = &Tripcode{Cipher: m[1]}
		}
		if public == nil && secure == nil {
			continue
		}

		posts = append(posts, Post{
			Name:     html.UnescapeString(rp.Name),
			Time:     rp.Time,
			Board:    t.Board,
			ThreadID: t.ID,
			PostID:   rp.No,
			Public:   public,
			Secure:   secure,
		})
	}
	return posts, nil
}

// Post is an immutable leaf of the crawl tree: a post carrying at
// least one tripcode fragment.
type Post struct {
	Name     string
	Time     int64
	Board    string
	ThreadID int64
	PostID   int64
	Public   *Tripcode
	Secure   *Tripcode
}

func (Post) isWorkUnit() {}

// Solved reports whether every present fragment has a non-empty key.
func (p Post) Solved() bool {
	if p.Public != nil && !p.Public.Solved() {
		return false
	}
	if p.Secure != nil && !p.Secure.Solved() {
		return false
	}
	return true
}

// Less orders posts by time, matching spec §3's natural order.
func (p Post) Less(other Post) bool {
	return p.Time < other.Time
}

// Equal identifies posts for deduplication by (board, thread, post).
func (p Post) Equal(other Post) bool {
	return p.Board == other.Board && p.ThreadID == other.ThreadID && p.PostID == other.PostID
}

// classify accepts a full URL or a bare /board/, /board/page or
// /board/res/thread shorthand and returns the matching WorkUnit. It
// tries patterns in specificity order: thread, then page, then board.
func classify(link string) (WorkUnit, error) {
	path, err := pathOf(link)
	if err != nil {
		return nil, err
	}

	if m := links.ThreadPattern.FindStringSubmatch(path); m != nil {
		id, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("crawl: bad thread id in %q: %w", link, err)
		}
		return Thread{Board: m[1], ID: id}, nil
	}
	if m := links.PagePattern.FindStringSubmatch(path); m != nil {
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("crawl: bad page index in %q: %w", link, err)
		}
		return Page{Board: m[1], Index: idx}, nil
	}
	if m := links.BoardPattern.FindStringSubmatch(path); m != nil {
		return Board{Name: m[1]}, nil
	}
	return nil, fmt.Errorf("crawl: %q does not match a board, page or thread", link)
}

// Classify is the exported entry point for classify.
func Classify(link string) (WorkUnit, error) {
	return classify(link)
}

// pathOf extracts the path component from either a full URL or a bare
// shorthand like "/g/res/123".
func pathOf(link string) (string, error) {
	if strings.HasPrefix(link, "/") {
		return link, nil
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("crawl: %q is not a valid URL: %w", link, err)
	}
	if u.Path == "" {
		return "", fmt.Errorf("crawl: %q has no path", link)
	}
	return u.Path, nil
}
