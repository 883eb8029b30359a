package harvest

import (
	"context"
	"log/slog"
	"time"

	"linkharvest/lib/catalog"
	"linkharvest/lib/extract"
	"linkharvest/lib/ledger"
	"linkharvest/lib/scrapers/linkedin"
	"linkharvest/lib/telemetry"
	"linkharvest/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("linkharvest.lib.harvest")

// Collector produces the visible post texts for one search query.
// *linkedin.Session is the real one.
type Collector interface {
	Collect(ctx context.Context, query string) ([]string, error)
}

type Options struct {
	// QueryDelay is the pause between queries within a category.
	QueryDelay time.Duration
	// CategoryDelay is the pause between categories.
	CategoryDelay time.Duration
	// Date stamps recorded observations. Defaults to today.
	Date string
	// Sleep is injected for tests. Defaults to a jittered sleep.
	Sleep func(time.Duration)
}

func (o *Options) defaults() {
	if o.QueryDelay <= 0 {
		o.QueryDelay = time.Second * 5
	}
	if o.CategoryDelay <= 0 {
		o.CategoryDelay = time.Second * 15
	}
	if o.Date == "" {
		o.Date = timezone.Today()
	}
	if o.Sleep == nil {
		o.Sleep = linkedin.JitterSleep
	}
}

type Summary struct {
	Queries       int
	FailedQueries int
	Observations  int
}

// Runner walks the query catalog through one collector, tallies every
// email sighting, and flushes the tally to the ledger after each
// completed query so an interrupted run keeps everything but the query
// in flight.
type Runner struct {
	collector Collector
	store     ledger.Store
	opts      Options
}

func NewRunner(collector Collector, store ledger.Store, opts Options) *Runner {
	opts.defaults()
	return &Runner{collector: collector, store: store, opts: opts}
}

// Run executes every query in the catalog. A failing query is logged
// and skipped; results gathered for earlier queries are already on
// disk by then.
func (r *Runner) Run(ctx context.Context, queries catalog.Catalog) (Summary, error) {
	ctx, span := tracer.Start(ctx, "runner:Run")
	defer span.End()

	summary := Summary{}
	tally := ledger.NewTally()

	categories := queries.Categories()
	for ci, category := range categories {
		slog.InfoContext(ctx, "starting category",
			"category", category, "queries", len(queries[category]))

		for qi, query := range queries[category] {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}

			summary.Queries++
			recorded, err := r.runQuery(ctx, tally, category, query)
			if err != nil {
				// one bad query must not lose the rest of the category
				summary.FailedQueries++
				slog.ErrorContext(ctx, "query failed, skipping",
					"category", category, "query", query, "err", err)
			} else {
				summary.Observations += recorded
			}

			if qi < len(queries[category])-1 {
				r.opts.Sleep(r.opts.QueryDelay)
			}
		}

		if ci < len(categories)-1 {
			r.opts.Sleep(r.opts.CategoryDelay)
		}
	}

	slog.InfoContext(ctx, "harvest complete",
		"queries", summary.Queries,
		"failed", summary.FailedQueries,
		"observations", summary.Observations)
	return summary, nil
}

func (r *Runner) runQuery(ctx context.Context, tally *ledger.Tally, category, query string) (int, error) {
	ctx, span := tracer.Start(ctx, "runner:runQuery")
	defer span.End()

	posts, err := r.collector.Collect(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collect failed")
		return 0, err
	}
	if len(posts) == 0 {
		slog.WarnContext(ctx, "query returned no posts", "category", category, "query", query)
	}

	recorded := 0
	for _, post := range posts {
		for _, email := range extract.Emails([]string{post}) {
			tally.Record(email, category, query, r.opts.Date)
			recorded++
		}
	}

	err = tally.Flush(ctx, r.store)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "flush failed")
		return 0, err
	}
	return recorded, nil
}
