package sentlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "sent.log"))

	sent, err := log.Load()
	require.NoError(t, err)
	require.Empty(t, sent)
}

func TestAppendAndLoad(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "sent.log"))

	require.NoError(t, log.Append("A@X.com"))
	require.NoError(t, log.Append("b@x.com"))

	sent, err := log.Load()
	require.NoError(t, err)
	require.Equal(t, map[string]bool{
		"a@x.com": true,
		"b@x.com": true,
	}, sent)
}

func TestLoadNormalizesAndSkipsBlank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.log")
	require.NoError(t, os.WriteFile(path, []byte("  A@X.com \n\nb@x.com\n"), 0o644))

	sent, err := New(path).Load()
	require.NoError(t, err)
	require.Equal(t, map[string]bool{
		"a@x.com": true,
		"b@x.com": true,
	}, sent)
}

func TestReset(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "sent.log"))
	require.NoError(t, log.Append("a@x.com"))

	require.NoError(t, log.Reset())

	sent, err := log.Load()
	require.NoError(t, err)
	require.Empty(t, sent)

	// resetting a missing log is fine
	require.NoError(t, log.Reset())
}
