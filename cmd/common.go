package cmd

import (
	"fmt"
	"os"
)

// createOutfile opens path for writing, truncating any existing
// contents, shared by the words/hashes/ngrams dumpers.
func createOutfile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create outfile %q: %w", path, err)
	}
	return f, nil
}
