package cmd

import (
	"context"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"tripdig/internal/config"
	"tripdig/internal/crawl"
	"tripdig/internal/logging"
	"tripdig/internal/sanitizer"
	"tripdig/internal/workerpool"
)

var wordPattern = regexp.MustCompile(`[^\s#]+`)

var wordsCmd = &cobra.Command{
	Use:   "words outfile [link ...]",
	Short: "Dump every word found across post text fields",
	Long: `Walks the given boards/pages/threads, sanitizes each post's
name/email/subject/comment/filename fields, and writes every distinct
word (split on whitespace and '#') to outfile, one per line. Feeds a dictionary
tripcode cracker. With no links given, walks every configured board.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWords,
}

func init() {
	rootCmd.AddCommand(wordsCmd)
}

func runWords(cmd *cobra.Command, args []string) error {
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
		logging.Infof("working %v", unit)

		if t, ok := unit.(crawl.Thread); ok {
			rt, err := t.DownloadAndDecode(ctx, env)
			if err != nil {
				logging.Warnf("download %v: %v", t, err)
				return nil
			}

			words := make(map[string]struct{})
			for _, post := range rt.Posts {
				for _, field := range []string{post.Name, post.Email, post.Sub, post.Com, post.Filename} {
					clean := sanitizer.Default.Sanitize(field)
					for _, w := range wordPattern.FindAllString(clean, -1) {
						words[w] = struct{}{}
					}
				}
			}
			return words
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
			for _, t := range threads {
				pool.Push(work, t)
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

	all := make(map[string]struct{})
	for _, r := range pool.GetResults() {
		for w := range r.(map[string]struct{}) {
			all[w] = struct{}{}
		}
	}

	for w := range all {
		fmt.Fprintln(out, w)
	}
	return nil
}
