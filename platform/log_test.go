package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesEachEntryOnceToFile(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir, "app")

	logger.Info("entree unique dans le journal")

	filename := filepath.Join(dir, time.Now().Format("2006-01-02")+"-app.log")
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "entree unique dans le journal"))
}

func TestLogFormatter(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir, "app")

	logger.Warn("format check")

	filename := filepath.Join(dir, time.Now().Format("2006-01-02")+"-app.log")
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[warning] format check")
}
