package ledger

import (
	"context"
	"log/slog"
)

// Tally accumulates observations for the current run. Repeat sightings
// of the same (email, category, query, date) increment a count instead
// of producing duplicate rows.
type Tally struct {
	counts map[Key]int
	order  []Key
}

func NewTally() *Tally {
	return &Tally{counts: map[Key]int{}}
}

func (t *Tally) Record(email, category, query, date string) {
	key := Key{Email: email, Category: category, Query: query, Date: date}
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

func (t *Tally) Len() int {
	return len(t.counts)
}

// Rows returns the tallied observations in first-recorded order.
func (t *Tally) Rows() []Row {
	rows := make([]Row, 0, len(t.order))
	for _, key := range t.order {
		rows = append(rows, Row{
			Email:    key.Email,
			Category: key.Category,
			Query:    key.Query,
			Count:    t.counts[key],
			Date:     key.Date,
		})
	}
	return rows
}

// Flush merges the tally into the store and clears it. It runs after
// every completed query so a crash mid-run loses at most the current
// query's observations. Clearing before returning is what makes a
// second Flush without new Record calls a no-op; re-merging the same
// snapshot would double counts.
func (t *Tally) Flush(ctx context.Context, store Store) error {
	if t.Len() == 0 {
		return nil
	}

	err := store.Merge(ctx, t.Rows())
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "flushed observations to ledger", "rows", t.Len(), "file", store.Path())
	t.counts = map[Key]int{}
	t.order = nil
	return nil
}
