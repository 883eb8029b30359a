package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"linkharvest/lib/extract"
	"linkharvest/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

var header = []string{"email", "category", "query", "count", "date"}

// Store reads and merges the on-disk CSV ledger. It is the single
// source of truth for what was found; nothing ever deletes rows from
// it automatically.
type Store struct {
	path string
}

func NewStore(path string) Store {
	return Store{path: path}
}

func (s Store) Path() string {
	return s.path
}

// Read returns every valid row in the ledger. Malformed rows (wrong
// column count, bad email syntax, unparseable count or date) are
// logged and skipped rather than failing the read. A missing file is
// an empty ledger.
func (s Store) Read(ctx context.Context) ([]Row, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rows []Row
	for i, record := range records {
		if i == 0 {
			// header line
			continue
		}
		row, err := parseRow(record)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed ledger row",
				"file", s.path, "line", i+1, "err", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadDate returns only rows recorded on the given date, or every row
// when date is empty.
func (s Store) ReadDate(ctx context.Context, date string) ([]Row, error) {
	rows, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}
	if date == "" {
		return rows, nil
	}

	var out []Row
	for _, row := range rows {
		if row.Date == date {
			out = append(out, row)
		}
	}
	return out, nil
}

func parseRow(record []string) (Row, error) {
	if len(record) != len(header) {
		return Row{}, fmt.Errorf("expected %d columns, got %d", len(header), len(record))
	}
	email := record[0]
	if !extract.Valid(email) {
		return Row{}, fmt.Errorf("invalid email %q", email)
	}
	count, err := strconv.Atoi(record[3])
	if err != nil || count < 1 {
		return Row{}, fmt.Errorf("invalid count %q", record[3])
	}
	if !timezone.ValidDate(record[4]) {
		return Row{}, fmt.Errorf("invalid date %q", record[4])
	}
	return Row{
		Email:    email,
		Category: record[1],
		Query:    record[2],
		Count:    count,
		Date:     record[4],
	}, nil
}

// Merge folds new rows into the ledger: a row whose key already exists
// has its count incremented in place, everything else is appended. The
// file is rewritten through a temp file and renamed so a crash mid-merge
// leaves the previous ledger intact.
func (s Store) Merge(ctx context.Context, incoming []Row) error {
	ctx, span := tracer.Start(ctx, "store:Merge")
	defer span.End()

	if len(incoming) == 0 {
		return nil
	}

	existing, err := s.Read(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read ledger")
		return err
	}

	index := make(map[Key]int, len(existing))
	for i, row := range existing {
		index[row.Key()] = i
	}

	merged := existing
	for _, row := range incoming {
		if i, ok := index[row.Key()]; ok {
			merged[i].Count += row.Count
			continue
		}
		index[row.Key()] = len(merged)
		merged = append(merged, row)
	}

	err = s.write(merged)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write ledger")
		return err
	}
	return nil
}

func (s Store) write(rows []Row) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	err = writer.Write(header)
	if err != nil {
		tmp.Close()
		return err
	}
	for _, row := range rows {
		err = writer.Write([]string{
			row.Email,
			row.Category,
			row.Query,
			strconv.Itoa(row.Count),
			row.Date,
		})
		if err != nil {
			tmp.Close()
			return err
		}
	}
	writer.Flush()
	if writer.Error() != nil {
		tmp.Close()
		return writer.Error()
	}

	err = tmp.Sync()
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
