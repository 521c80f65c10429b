// Package links builds canonical URLs for the imageboard and its API
// host, and classifies a path into board/page/thread shorthand.
package links

import (
	"net/url"
	"regexp"
	"sync"
)

const (
	pageHost = "boards.4chan.org"
	apiHost  = "a.4cdn.org"
)

var (
	mu     sync.RWMutex
	scheme = "http"
)

// Compiled in order of specificity so callers can try thread, then page,
// then board and stop at the first match.
var (
	ThreadPattern = regexp.MustCompile(`^/([a-zA-Z0-9]+)/res/(\d+)/?$`)
	PagePattern   = regexp.MustCompile(`^/([a-zA-Z0-9]+)/(\d+)/?$`)
	BoardPattern  = regexp.MustCompile(`^/([a-zA-Z0-9]+)/?$`)
)

// SetScheme sets the process-wide scheme ("http" or "https"). Must be
// called before the worker pool starts; treated as read-only afterward.
func SetScheme(s string) {
	mu.Lock()
	defer mu.Unlock()
	scheme = s
}

// Scheme returns the current process-wide scheme.
func Scheme() string {
	mu.RLock()
	defer mu.RUnlock()
	return scheme
}

func makeURL(path string, api bool, fragment string) string {
	host := pageHost
	if api {
		host = apiHost
	}
	u := url.URL{
		Scheme:   Scheme(),
		Host:     host,
		Path:     path,
		Fragment: fragment,
	}
	return u.String()
}

// CreateURL builds a page-host URL for path, optionally pointing at a
// specific post via fragment.
func CreateURL(path, fragment string) string {
	return makeURL(path, false, fragment)
}

// CreateAPIURL builds an API-host URL for path. API URLs never carry a
// fragment.
func CreateAPIURL(path string) string {
	return makeURL(path, true, "")
}
