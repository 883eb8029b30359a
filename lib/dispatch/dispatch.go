package dispatch

import (
	"fmt"
	"strings"

	"linkharvest/lib/ledger"
	"linkharvest/lib/telemetry"
)

var tracer = telemetry.Tracer("linkharvest.lib.dispatch")

var ErrAttachmentNotFound = fmt.Errorf("attachment file not found")

// Recipient is one address to contact, carrying the category/query
// that first produced it. The category picks the template; the query
// personalizes it.
type Recipient struct {
	Email    string
	Category string
	Query    string
}

// SelectRecipients reduces ledger rows to the addresses worth
// contacting: deduplicated by email (first row wins, row order is
// ledger order), minus everything already in the sent set. Rows are
// expected to be pre-filtered by date when a date filter applies.
func SelectRecipients(rows []ledger.Row, sent map[string]bool) []Recipient {
	seen := map[string]bool{}
	var out []Recipient
	for _, row := range rows {
		email := strings.ToLower(row.Email)
		if seen[email] || sent[email] {
			continue
		}
		seen[email] = true
		out = append(out, Recipient{
			Email:    email,
			Category: row.Category,
			Query:    row.Query,
		})
	}
	return out
}
