package venues

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tableYAML), 0644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	watcher, err := NewWatcher(table, path, nil)
	require.NoError(t, err)
	watcher.debounce = 20 * time.Millisecond // keep the test fast
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx)

	updated := `
cities:
  kochi:
    - name: Backwater Convention Hall
      score: 0.7
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	assert.Eventually(t, func() bool {
		return len(table.Lookup("kochi")) > 0
	}, 5*time.Second, 25*time.Millisecond, "watcher should reload the table after a write")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tableYAML), 0644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	watcher, err := NewWatcher(table, path, nil)
	require.NoError(t, err)
	watcher.debounce = 20 * time.Millisecond
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx)

	// A sibling file changing must not disturb the table.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("cities: {}"), 0644))
	time.Sleep(100 * time.Millisecond)

	assert.NotEmpty(t, table.Lookup("goa"))
}
