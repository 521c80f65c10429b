package config

import "time"

// Defaults mirrors the original tool's defaults.py: every CLI flag
// except --logfile falls back to one of these when unset. The reference configuration
// runs 32 worker threads (every original driver script hard-codes this
// override; only defaults.py's own default of 16 disagrees).
type Defaults struct {
	CacheFile      string
	PublicTripDB   string
	SecureTripDB   string
	NumThreads     int
	HTTPS          bool
	Offline        bool
	Quiet          bool
	Debug          bool
	RetryAttempts  int
	RetryLower     time.Duration
	RetryUpper     time.Duration
	MaxConcurrency int64
}

// Standard returns the reference configuration's defaults.
func Standard() Defaults {
	return Defaults{
		CacheFile:      "bin/cache.bin",
		PublicTripDB:   "tripcodes/public.db3",
		SecureTripDB:   "tripcodes/secure.db3",
		NumThreads:     32,
		HTTPS:          false,
		Offline:        false,
		Quiet:          false,
		Debug:          false,
		RetryAttempts:  3,
		RetryLower:     5 * time.Second,
		RetryUpper:     15 * time.Second,
		MaxConcurrency: 32,
	}
}

// AllBoards lists every board a full cache build walks absent an
// explicit link list on the command line.
var AllBoards = []string{"g", "a", "v", "b", "pol", "int", "mu", "sp", "fit", "tv"}

// TripBoards lists the subset of AllBoards where tripcodes are
// commonly used (mirrors the original's boards vs. all_boards split).
var TripBoards = []string{"g", "pol", "int"}

// Endpoint templates, each taking board name (and, where present,
// page index / thread id) via fmt.Sprintf. Exposed as vars rather than
// literals so an alternate imageboard API version can override them
// without touching internal/crawl (spec.md §9's catalog-endpoint
// Open Question, resolved this way).
var (
	CatalogEndpointTemplate = "/%s/threads.json"
	PageEndpointTemplate    = "/%s/%d.json"
	ThreadEndpointTemplate  = "/%s/res/%d.json"
)
