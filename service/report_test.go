package service

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCollectionReport(t *testing.T) {
	stats := &CollectStats{
		Sources:  16,
		Failed:   1,
		Pairs:    423,
		Output:   "dataset_python_brut.csv",
		Duration: 42 * time.Second,
		Started:  time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC),
	}

	md := BuildCollectionReport(stats)
	assert.Contains(t, md, "# Collecte du corpus")
	assert.Contains(t, md, "2026-08-28 03:00:00")
	assert.Contains(t, md, "16 (1 en échec)")
	assert.Contains(t, md, "423")
	assert.Contains(t, md, "`dataset_python_brut.csv`")
}

func TestCollectionReportSubject(t *testing.T) {
	stats := &CollectStats{Started: time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Rapport de collecte du corpus - 2026-08-28", collectionReportSubject(stats))
}

func TestRenderMarkdown(t *testing.T) {
	html, err := renderMarkdown([]byte("# Collecte du corpus\n\n- Paires : 423\n"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Collecte du corpus</h1>")
	assert.Contains(t, string(html), "<li>Paires : 423</li>")
}

func TestReportService_SkipsWhenUnconfigured(t *testing.T) {
	r := NewReportService("", "587", "", "", "", "", logrus.New())
	err := r.SendCollectionReport(&CollectStats{Started: time.Now()})
	assert.NoError(t, err)
}
