// Package sanitizer declares the HTML-sanitization contract the ngram
// and word orchestrators depend on. spec.md §1 lists HTML sanitization
// as an out-of-scope external collaborator; this package is the
// interface core code is written against, with a concrete
// kennygrant/sanitize-backed implementation as the default.
package sanitizer

import "github.com/kennygrant/sanitize"

// Sanitizer strips markup and normalizes a raw post field down to plain
// text suitable for tokenization.
type Sanitizer interface {
	Sanitize(raw string) string
}

// HTML is the default Sanitizer, backed by kennygrant/sanitize. It
// replaces the original dump_ngrams.py's ad hoc <br> / <.*?> regex pair
// with a real HTML-aware stripper.
type HTML struct{}

// Sanitize strips all HTML tags from raw and returns the remaining text.
// A malformed fragment that the underlying parser rejects is returned
// verbatim rather than dropped.
func (HTML) Sanitize(raw string) string {
	out, err := sanitize.HTML(raw)
	if err != nil {
		return raw
	}
	return out
}

// Default is the package-level HTML sanitizer instance.
var Default Sanitizer = HTML{}
