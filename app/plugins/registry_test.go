package plugins

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridedispatch/config"
	dispatchlog "github.com/kilianp07/ridedispatch/core/dispatch/logging"
)

func TestNewLogStore(t *testing.T) {
	dir := t.TempDir()

	s, err := NewLogStore(config.LoggingConfig{Backend: "jsonl", Path: filepath.Join(dir, "a.log")})
	require.NoError(t, err)
	assert.IsType(t, &dispatchlog.JSONLStore{}, s)
	require.NoError(t, s.Close())

	s, err = NewLogStore(config.LoggingConfig{Backend: "rotating", Path: filepath.Join(dir, "b.log"), MaxSizeMB: 1})
	require.NoError(t, err)
	assert.IsType(t, &dispatchlog.RotatingJSONLStore{}, s)
	require.NoError(t, s.Close())

	s, err = NewLogStore(config.LoggingConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewLogStore(config.LoggingConfig{Backend: "sqlite"})
	assert.ErrorContains(t, err, "unknown log store")
}
