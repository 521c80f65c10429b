package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"tripdig/internal/crawl"
	"tripdig/internal/logging"
	"tripdig/internal/solver"
	"tripdig/internal/sortedset"
	"tripdig/internal/workerpool"
)

var crackCmd = &cobra.Command{
	Use:   "crack link [link ...]",
	Short: "Scrape posts and crack the tripcodes found in them",
	Long: `Walks the given boards/pages/threads, collects every post
carrying a tripcode, and attempts to crack each fragment against the
public and secure tripcode databases. Cracked posts are printed sorted
by time of post.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrack,
}

func init() {
	rootCmd.AddCommand(crackCmd)
}

func runCrack(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	env := &crawl.Env{Cache: cache}

	pubSolver, err := solver.Open(publicDB)
	if err != nil {
		return fmt.Errorf("open public tripcode db: %w", err)
	}
	defer pubSolver.Close()

	secSolver, err := solver.Open(secureDB)
	if err != nil {
		return fmt.Errorf("open secure tripcode db: %w", err)
	}
	defer secSolver.Close()

	pool := workerpool.New(numThreads)

	var work func(unit any) any
	work = func(unit any) any {
		if p, ok := unit.(crawl.Post); ok {
			return p
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

	for _, link := range args {
		unit, err := crawl.Classify(link)
		if err != nil {
			logging.Warnf("classify %q: %v", link, err)
			continue
		}
		pool.Push(work, unit)
	}

	pool.Join()
	logging.Infof("join complete, updating with results")

	posts := sortedset.New[crawl.Post]()
	for _, r := range pool.GetResults() {
		posts.Add(r.(crawl.Post))
	}
	pool.Close()

	all := append([]crawl.Post(nil), posts.Slice()...)
	sort.Slice(all, func(i, j int) bool { return all[i].Time < all[j].Time })

	var solved []crawl.Post
	for _, p := range all {
		if p.Public != nil {
			if phrase, ok, err := pubSolver.Solve(p.Public.Cipher); err == nil && ok {
				p.Public.Key = phrase
			}
		}
		if p.Secure != nil {
			if phrase, ok, err := secSolver.Solve(p.Secure.Cipher); err == nil && ok {
				p.Secure.Key = phrase
			}
		}
		if p.Solved() {
			solved = append(solved, p)
		}
	}

	for _, p := range solved {
		fmt.Printf("%d %s/%d/%d %q", p.Time, p.Board, p.ThreadID, p.PostID, p.Name)
		if p.Public != nil {
			fmt.Printf(" public=%s:%s", p.Public.Cipher, p.Public.Key)
		}
		if p.Secure != nil {
			fmt.Printf(" secure=%s:%s", p.Secure.Cipher, p.Secure.Key)
		}
		fmt.Println()
	}

	return nil
}
