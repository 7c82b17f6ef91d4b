package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesDatedLogFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)

	logger, err := New(false, dir, now)
	require.NoError(t, err)

	logger.Info("run start")
	// Sync can fail on a piped stderr; the file sink is what matters here.
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "2024-05-01-skysnap.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "run start")
}

func TestNewWithoutLogDir(t *testing.T) {
	logger, err := New(true, "", time.Now())
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewCreatesLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	_, err := New(false, dir, time.Now())
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
