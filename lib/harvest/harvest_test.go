package harvest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"linkharvest/lib/catalog"
	"linkharvest/lib/ledger"

	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	posts  map[string][]string
	failOn map[string]bool
	calls  []string
}

func (f *fakeCollector) Collect(ctx context.Context, query string) ([]string, error) {
	f.calls = append(f.calls, query)
	if f.failOn[query] {
		return nil, fmt.Errorf("navigation timeout")
	}
	return f.posts[query], nil
}

func noSleep(time.Duration) {}

func newRunner(t *testing.T, collector Collector) (*Runner, ledger.Store) {
	t.Helper()
	store := ledger.NewStore(filepath.Join(t.TempDir(), "mail.csv"))
	runner := NewRunner(collector, store, Options{
		Date:  "2025-11-04",
		Sleep: noSleep,
	})
	return runner, store
}

func TestRunRecordsObservations(t *testing.T) {
	ctx := context.Background()
	collector := &fakeCollector{
		posts: map[string][]string{
			"swe intern hiring": {
				"We're hiring interns! Email jobs@acme.com",
				"Another post, also jobs@acme.com plus hr@beta.io",
			},
			"open source contributors": {
				"Join us: maintainers@oss.dev",
			},
		},
	}
	runner, store := newRunner(t, collector)

	summary, err := runner.Run(ctx, catalog.Catalog{
		"internship_searches":  {"swe intern hiring"},
		"open_source_searches": {"open source contributors"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Queries)
	require.Equal(t, 0, summary.FailedQueries)
	require.Equal(t, 4, summary.Observations)

	rows, err := store.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, []ledger.Row{
		{Email: "jobs@acme.com", Category: "internship_searches", Query: "swe intern hiring", Count: 2, Date: "2025-11-04"},
		{Email: "hr@beta.io", Category: "internship_searches", Query: "swe intern hiring", Count: 1, Date: "2025-11-04"},
		{Email: "maintainers@oss.dev", Category: "open_source_searches", Query: "open source contributors", Count: 1, Date: "2025-11-04"},
	}, rows)
}

func TestRunSkipsFailedQuery(t *testing.T) {
	ctx := context.Background()
	collector := &fakeCollector{
		posts: map[string][]string{
			"q1": {"contact one@x.com"},
			"q3": {"contact three@x.com"},
		},
		failOn: map[string]bool{"q2": true},
	}
	runner, store := newRunner(t, collector)

	summary, err := runner.Run(ctx, catalog.Catalog{"c": {"q1", "q2", "q3"}})
	require.NoError(t, err)
	require.Equal(t, 3, summary.Queries)
	require.Equal(t, 1, summary.FailedQueries)

	// q1's results were flushed before q2 failed, q3 still ran after
	rows, err := store.Read(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"q1", "q2", "q3"}, collector.calls)
}

func TestRunFlushesPerQuery(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore(filepath.Join(t.TempDir(), "mail.csv"))

	// a collector that checks the ledger mid-run: by the time q2
	// executes, q1's rows must already be on disk
	collector := &checkpointCollector{t: t, store: store}
	runner := NewRunner(collector, store, Options{Date: "2025-11-04", Sleep: noSleep})

	_, err := runner.Run(ctx, catalog.Catalog{"c": {"q1", "q2"}})
	require.NoError(t, err)
	require.True(t, collector.checked)
}

type checkpointCollector struct {
	t       *testing.T
	store   ledger.Store
	checked bool
}

func (c *checkpointCollector) Collect(ctx context.Context, query string) ([]string, error) {
	if query == "q2" {
		rows, err := c.store.Read(ctx)
		require.NoError(c.t, err)
		require.Len(c.t, rows, 1)
		require.Equal(c.t, "first@x.com", rows[0].Email)
		c.checked = true
		return nil, nil
	}
	return []string{"reach first@x.com"}, nil
}
