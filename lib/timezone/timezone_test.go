package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	require.Equal(t, time.Local, resolve(""))
	require.Equal(t, "UTC", resolve("UTC").String())
	// a bad zone name must not prevent startup
	require.Equal(t, time.Local, resolve("Not/AZone"))
}

func TestValidDate(t *testing.T) {
	cases := []struct {
		input string
		valid bool
	}{
		{input: "2025-11-04", valid: true},
		{input: "2025-01-01", valid: true},
		{input: "2025-13-01", valid: false},
		{input: "11/04/2025", valid: false},
		{input: "2025-11-4", valid: false},
		{input: "", valid: false},
	}

	for _, test := range cases {
		require.Equal(t, test.valid, ValidDate(test.input), test.input)
	}
}

func TestToday(t *testing.T) {
	require.True(t, ValidDate(Today()))
}
