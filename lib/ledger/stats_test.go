package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var statRows = []Row{
	{Email: "a@x.com", Category: "internships", Query: "q1", Count: 3, Date: "2025-11-04"},
	{Email: "A@x.com", Category: "internships", Query: "q2", Count: 1, Date: "2025-11-05"},
	{Email: "b@x.com", Category: "open_source", Query: "q3", Count: 2, Date: "2025-11-04"},
}

func TestCountByCategory(t *testing.T) {
	require.Equal(t, map[string]int{
		"internships": 4,
		"open_source": 2,
	}, CountByCategory(statRows))
}

func TestCountByQuery(t *testing.T) {
	require.Equal(t, map[string]map[string]int{
		"internships": {"q1": 3, "q2": 1},
		"open_source": {"q3": 2},
	}, CountByQuery(statRows))
}

func TestUniqueEmails(t *testing.T) {
	require.Equal(t, 2, UniqueEmails(statRows))
}

func TestDates(t *testing.T) {
	require.Equal(t, []string{"2025-11-04", "2025-11-05"}, Dates(statRows))
}
