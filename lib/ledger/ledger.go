package ledger

import "linkharvest/lib/telemetry"

var tracer = telemetry.Tracer("linkharvest.lib.ledger")

// Key identifies one ledger row. Observations of the same address under
// the same category/query on the same day merge into a single row.
type Key struct {
	Email    string
	Category string
	Query    string
	Date     string
}

// Row is one persisted observation: how many times an address was seen
// for a given category/query on a given date.
type Row struct {
	Email    string
	Category string
	Query    string
	Count    int
	Date     string
}

func (r Row) Key() Key {
	return Key{Email: r.Email, Category: r.Category, Query: r.Query, Date: r.Date}
}
