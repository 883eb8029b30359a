package commands

import (
	"fmt"
	"sort"

	"linkharvest/lib/ledger"
	"linkharvest/lib/osutil"
	"linkharvest/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var analyzeLedger *string
var analyzeDate *string
var analyzeDetailed *bool
var analyzeListDates *bool

func init() {
	analyzeLedger = analyzeCmd.Flags().String("ledger", "mail.csv", "The CSV ledger to analyze.")
	analyzeDate = analyzeCmd.Flags().String("date", "", "Only count rows from this date (YYYY-MM-DD).")
	analyzeDetailed = analyzeCmd.Flags().Bool("detailed", false, "Show the per-query breakdown.")
	analyzeListDates = analyzeCmd.Flags().Bool("list-dates", false, "List the dates present in the ledger and exit.")
	rootCmd.AddCommand(analyzeCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [--ledger <mail.csv>] [--date YYYY-MM-DD] [--detailed]",
	Short: "Summarizes the ledger: unique addresses and observation counts by category and query.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store := ledger.NewStore(*analyzeLedger)

		if *analyzeListDates {
			rows, err := store.Read(ctx)
			if err != nil {
				osutil.Fatal("failed to read ledger", err)
			}
			for _, date := range ledger.Dates(rows) {
				fmt.Println(date)
			}
			return
		}

		if *analyzeDate != "" && !timezone.ValidDate(*analyzeDate) {
			osutil.Fatal("invalid --date", fmt.Errorf("%q is not a YYYY-MM-DD date", *analyzeDate))
		}

		rows, err := store.ReadDate(ctx, *analyzeDate)
		if err != nil {
			osutil.Fatal("failed to read ledger", err)
		}

		fmt.Printf("unique addresses: %d\n\n", ledger.UniqueEmails(rows))

		byCategory := ledger.CountByCategory(rows)
		categories := make([]string, 0, len(byCategory))
		total := 0
		for category, count := range byCategory {
			categories = append(categories, category)
			total += count
		}
		sort.Strings(categories)

		t := newTable()
		t.AppendHeader(table.Row{"Category", "Observations", "%"})
		for _, category := range categories {
			count := byCategory[category]
			percent := 0.0
			if total > 0 {
				percent = float64(count) / float64(total) * 100
			}
			t.AppendRow(table.Row{category, count, fmt.Sprintf("%.1f", percent)})
		}
		t.AppendFooter(table.Row{"TOTAL", total, ""})
		fmt.Println(t.Render())

		if !*analyzeDetailed {
			return
		}

		byQuery := ledger.CountByQuery(rows)
		for _, category := range categories {
			queries := byQuery[category]
			names := make([]string, 0, len(queries))
			for query := range queries {
				names = append(names, query)
			}
			// busiest queries first
			sort.Slice(names, func(i, j int) bool {
				if queries[names[i]] != queries[names[j]] {
					return queries[names[i]] > queries[names[j]]
				}
				return names[i] < names[j]
			})

			t := newTable()
			t.AppendHeader(table.Row{category, "Observations"})
			for _, query := range names {
				t.AppendRow(table.Row{query, queries[query]})
			}
			fmt.Println(t.Render())
		}
	},
}
