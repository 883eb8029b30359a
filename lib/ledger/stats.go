package ledger

import (
	"sort"
	"strings"
)

// CountByCategory sums observation counts per category.
func CountByCategory(rows []Row) map[string]int {
	out := map[string]int{}
	for _, row := range rows {
		out[row.Category] += row.Count
	}
	return out
}

// CountByQuery sums observation counts per category, per query.
func CountByQuery(rows []Row) map[string]map[string]int {
	out := map[string]map[string]int{}
	for _, row := range rows {
		queries, ok := out[row.Category]
		if !ok {
			queries = map[string]int{}
			out[row.Category] = queries
		}
		queries[row.Query] += row.Count
	}
	return out
}

// UniqueEmails counts distinct addresses, case-insensitively.
func UniqueEmails(rows []Row) int {
	seen := map[string]bool{}
	for _, row := range rows {
		seen[strings.ToLower(row.Email)] = true
	}
	return len(seen)
}

// Dates returns the distinct observation dates in ascending order.
func Dates(rows []Row) []string {
	seen := map[string]bool{}
	for _, row := range rows {
		seen[row.Date] = true
	}
	out := make([]string, 0, len(seen))
	for date := range seen {
		out = append(out, date)
	}
	sort.Strings(out)
	return out
}
