package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"tripdig/internal/config"
	"tripdig/internal/crawl"
	"tripdig/internal/logging"
	"tripdig/internal/workerpool"
)

var cacheCmd = &cobra.Command{
	Use:   "cache [link ...]",
	Short: "Build up the cache with a snapshot of the given URLs",
	Long: `Walks the given boards/pages/threads (full URLs or shorthand like
/g/) and primes the cache with everything found below them. With no
links given, every configured board is walked.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCache,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}

func runCache(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	env := &crawl.Env{Cache: cache}
	pool := workerpool.New(numThreads)
	defer pool.Close()

	var work func(unit any) any
	work = func(unit any) any {
		logging.Infof("working %v", unit)

		switch u := unit.(type) {
		case crawl.Thread:
			if err := u.Download(ctx, env); err != nil {
				logging.Warnf("download %v: %v", u, err)
			}
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
		}
		return nil
	}

	links := args
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
	logging.Infof("join complete")
	return nil
}
