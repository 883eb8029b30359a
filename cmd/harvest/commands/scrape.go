package commands

import (
	"fmt"
	"time"

	"linkharvest/lib/catalog"
	"linkharvest/lib/harvest"
	"linkharvest/lib/ledger"
	"linkharvest/lib/osutil"
	"linkharvest/lib/scrapers/linkedin"

	"github.com/spf13/cobra"
)

var scrapeLedger *string
var scrapeQueries *string
var scrapeCategories *[]string
var scrapeMaxScrolls *int
var scrapeScrollPause *float64
var scrapeTabDelay *float64
var scrapeCategoryDelay *float64
var scrapeHeadless *bool

func init() {
	scrapeLedger = scrapeCmd.Flags().String("ledger", "mail.csv", "The CSV ledger to merge results into.")
	scrapeQueries = scrapeCmd.Flags().String("queries", "queries.yaml", "The query catalog file (category -> search queries).")
	scrapeCategories = scrapeCmd.Flags().StringSlice("categories", nil, "Restrict the run to these catalog categories.")
	scrapeMaxScrolls = scrapeCmd.Flags().Int("max-scrolls", 15, "Maximum scroll iterations per query.")
	scrapeScrollPause = scrapeCmd.Flags().Float64("scroll-pause", 2, "Seconds to wait between scrolls.")
	scrapeTabDelay = scrapeCmd.Flags().Float64("tab-delay", 5, "Seconds to wait between queries within a category.")
	scrapeCategoryDelay = scrapeCmd.Flags().Float64("category-delay", 15, "Seconds to wait between categories.")
	scrapeHeadless = scrapeCmd.Flags().Bool("headless", false, "Run the browser headless. Headful is less likely to trip bot detection.")
	rootCmd.AddCommand(scrapeCmd)
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--queries <queries.yaml>] [--ledger <mail.csv>]",
	Short: "Runs every catalog query through a logged-in browser session and merges found addresses into the ledger.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		queries, err := catalog.Load(*scrapeQueries)
		if err != nil {
			osutil.Fatal("failed to load query catalog", err)
		}
		queries, err = queries.Filter(*scrapeCategories)
		if err != nil {
			osutil.Fatal("failed to filter categories", err)
		}

		creds, err := osutil.ResolveCredentials("LINKEDIN_USERNAME", "LINKEDIN_PASSWORD")
		if err != nil {
			osutil.Fatal("missing credentials", err)
		}

		browser, cleanup, err := linkedin.NewChrome(ctx, linkedin.ChromeOptions{
			Headless: *scrapeHeadless,
		})
		if err != nil {
			osutil.Fatal("failed to start browser", err)
		}
		defer cleanup()

		session := linkedin.NewSession(browser, linkedin.SessionOptions{
			MaxScrolls:  *scrapeMaxScrolls,
			ScrollPause: seconds(*scrapeScrollPause),
		})
		err = session.Login(ctx, creds)
		if err != nil {
			osutil.Fatal("failed to login", err)
		}

		runner := harvest.NewRunner(session, ledger.NewStore(*scrapeLedger), harvest.Options{
			QueryDelay:    seconds(*scrapeTabDelay),
			CategoryDelay: seconds(*scrapeCategoryDelay),
		})
		summary, err := runner.Run(ctx, queries)
		if err != nil {
			osutil.Fatal("scrape run aborted", err)
		}

		fmt.Printf(
			"done: %d queries (%d failed), %d observations recorded to %s\n",
			summary.Queries, summary.FailedQueries, summary.Observations, *scrapeLedger,
		)
	},
}
