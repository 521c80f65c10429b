package cmd

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tripdig/internal/config"
	"tripdig/internal/crawl"
	"tripdig/internal/logging"
	"tripdig/internal/sanitizer"
	"tripdig/internal/workerpool"
)

var (
	htmlBreakPattern = regexp.MustCompile(`<br>`)
	refPattern       = regexp.MustCompile(`>>\d+`)
	tokenPattern     = regexp.MustCompile(`[A-Za-z0-9]\S*[A-Za-z0-9]|[A-Za-z0-9]`)
)

var ngramsCmd = &cobra.Command{
	Use:   "ngrams outfile n [link ...]",
	Short: "Dump n-gram token frequencies found across post comments",
	Long: `Walks the given boards/pages/threads, tokenizes each thread's
post comments, and writes every n-gram's frequency to outfile sorted
by descending count. n=1 gives unigrams, n=2 bigrams, and so on. With
no links given, walks every configured board.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runNgrams,
}

func init() {
	rootCmd.AddCommand(ngramsCmd)
}

func ngramSanitize(raw string) string {
	s := htmlBreakPattern.ReplaceAllString(raw, "\n")
	s = sanitizer.Default.Sanitize(s)
	s = refPattern.ReplaceAllString(s, "")
	return s
}

func generateNgrams(n int, tokens []string) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

func runNgrams(cmd *cobra.Command, args []string) error {
	outPath := args[0]
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid n %q: %w", args[1], err)
	}
	links := args[2:]

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
		logging.Infof("working %v", unit)

		if t, ok := unit.(crawl.Thread); ok {
			rt, err := t.DownloadAndDecode(ctx, env)
			if err != nil {
				logging.Warnf("download %v: %v", t, err)
				return nil
			}

			counts := make(map[string]int)
			for _, post := range rt.Posts {
				clean := ngramSanitize(post.Com)
				var tokens []string
				for _, tok := range tokenPattern.FindAllString(clean, -1) {
					tokens = append(tokens, strings.ToLower(tok))
				}
				for _, g := range generateNgrams(n, tokens) {
					counts[g]++
				}
			}
			return counts
		}

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
			for _, th := range threads {
				pool.Push(work, th)
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

	totals := make(map[string]int)
	for _, r := range pool.GetResults() {
		for g, c := range r.(map[string]int) {
			totals[g] += c
		}
	}

	grams := make([]string, 0, len(totals))
	for g := range totals {
		grams = append(grams, g)
	}
	sort.Slice(grams, func(i, j int) bool { return totals[grams[i]] > totals[grams[j]] })

	for _, g := range grams {
		fmt.Fprintf(out, "%s %d\n", g, totals[g])
	}
	return nil
}
