package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tripdig/internal/config"
	"tripdig/internal/crawl"
	"tripdig/internal/logging"
	"tripdig/internal/workerpool"
)

var hashesCmd = &cobra.Command{
	Use:   "hashes outfile [link ...]",
	Short: "Dump unique public tripcode ciphertexts",
	Long: `Walks the given boards/pages/threads and writes every distinct
public tripcode ciphertext found to outfile, one per line. With no
links given, walks every configured board.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHashes,
}

func init() {
	rootCmd.AddCommand(hashesCmd)
}

func runHashes(cmd *cobra.Command, args []string) error {
	outPath, links := args[0], args[1:]

	out, err := createOutfile(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx := context.Background()
	env := &crawl.Env{Cache: cache}
	pool := workerpool.New(numThreads)
	defer pool.Close()

	var work func(unit any) any
	work = func(unit any) any {
		if p, ok := unit.(crawl.Post); ok {
			if p.Public != nil {
				return p.Public.Cipher
			}
			return nil
		}

		logging.Infof("working %v", unit)

		switch u := unit.(type) {
		case crawl.Board:
			pages, err := u.Process(ctx, env)
			if err != nil {
				logging.Warnf("process %v: %v", u, err)
				return nil
			}
			for _, p := range pages {
				pool.Push(work, p)
			}
		case crawl.Page:
			threads, err := u.Process(ctx, env)
			if err != nil {
				logging.Warnf("process %v: %v", u, err)
				return nil
			}
			for _, t := range threads {
				pool.Push(work, t)
			}
		case crawl.Thread:
			posts, err := u.Process(ctx, env)
			if err != nil {
				logging.Warnf("process %v: %v", u, err)
				return nil
			}
			for _, p := range posts {
				pool.Push(work, p)
			}
		}
		return nil
	}

	if len(links) == 0 {
		links = config.AllBoards
	}

	for _, link := range links {
		unit, err := crawl.Classify(link)
		if err != nil {
			logging.Warnf("classify %q: %v", link, err)
			continue
		}
		pool.Push(work, unit)
	}

	pool.Join()
	logging.Infof("join complete, updating with results")

	hashes := make(map[string]struct{})
	for _, r := range pool.GetResults() {
		hashes[r.(string)] = struct{}{}
	}

	for h := range hashes {
		fmt.Fprintln(out, h)
	}
	return nil
}
