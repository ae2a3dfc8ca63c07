package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_AppendsAndFlushesOnCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	f, err := NewFile(FileOptions{Path: path, FlushEvery: 2})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.Send(ctx, []byte("a")))
	require.NoError(t, f.Send(ctx, []byte("b")))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestFileSink_FlushOnClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	f, err := NewFile(FileOptions{Path: path})
	require.NoError(t, err)
	require.NoError(t, f.Send(context.Background(), []byte("solo")))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "solo\n", string(data))
}
