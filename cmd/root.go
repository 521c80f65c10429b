package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"tripdig/internal/config"
	tderrors "tripdig/internal/errors"
	"tripdig/internal/links"
	"tripdig/internal/logging"
	"tripdig/internal/politeness"
	"tripdig/internal/webcache"
)

var defaults = config.Standard()

var (
	cacheFile    string
	publicDB     string
	secureDB     string
	numThreads   int
	useHTTPS     bool
	offline      bool
	quiet        bool
	debug        bool
	logFile      string
	maxInFlight  int64

	cache *webcache.Cache
)

// rootCmd is the base command when tripdig is invoked with no subcommand.
var rootCmd = &cobra.Command{
	Use:   "tripdig",
	Short: "Scrapes 4chan tripcodes and hunts for the phrases behind them",
	Long: `tripdig walks boards, pages and threads for posts carrying a
tripcode, caches what it downloads, and hands cracked phrases and raw
material (hashes, words, n-grams) to offline cracking tools.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if quiet && debug {
			return tderrors.NewConfigError("both --quiet and --debug set")
		}

		switch {
		case quiet:
			logging.SetLevel(logging.LevelWarn)
		case debug:
			logging.SetLevel(logging.LevelDebug)
		default:
			logging.SetLevel(logging.LevelInfo)
		}

		if logFile != "" {
			f, err := os.Create(logFile)
			if err != nil {
				return fmt.Errorf("open logfile: %w", err)
			}
			logging.SetOutput(f)
		}

		if useHTTPS {
			links.SetScheme("https")
		}

		robots := politeness.NewChecker(http.DefaultClient)
		cache = webcache.New(
			webcache.WithMaxConcurrency(maxInFlight),
			webcache.WithRobotsChecker(robots),
		)
		if offline {
			cache.SetOfflineMode()
		}
		if err := cache.Load(cacheFile); err != nil {
			return fmt.Errorf("load cache: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return nil
		}
		return cache.Dump(cacheFile)
	},
}

// Execute runs the root command. Called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cacheFile, "cache-file", defaults.CacheFile, "which file to use as cache")
	rootCmd.PersistentFlags().StringVar(&publicDB, "public-tripcode-db", defaults.PublicTripDB, "database of public tripcode solutions")
	rootCmd.PersistentFlags().StringVar(&secureDB, "secure-tripcode-db", defaults.SecureTripDB, "database of secure tripcode solutions")
	rootCmd.PersistentFlags().IntVar(&numThreads, "threads", defaults.NumThreads, "how many worker threads to use")
	rootCmd.PersistentFlags().BoolVar(&useHTTPS, "https", defaults.HTTPS, "use HTTPS instead of HTTP")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", defaults.Offline, "run in offline mode, only uses the web cache")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", defaults.Quiet, "don't print progress to logfile")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", defaults.Debug, "print debug information to logfile")
	rootCmd.PersistentFlags().StringVar(&logFile, "logfile", "", "where to log progress/errors, defaults to stderr")
	rootCmd.PersistentFlags().Int64Var(&maxInFlight, "max-in-flight", defaults.MaxConcurrency, "maximum concurrent outbound HTTP requests")
}
