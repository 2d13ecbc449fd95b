package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipsix/logagg/internal/scanner"
	"github.com/ipsix/logagg/internal/state"
)

func TestObserveFile(t *testing.T) {
	c := New()

	c.ObserveFile(scanner.ScanText("a.log", "ERROR: x\nERROR: y\nWARN z\n", scanner.Filter{}), 2*time.Millisecond)
	c.ObserveFile(scanner.Failed("b.log", &scanner.FileError{Path: "b.log", Kind: scanner.KindNotFound}), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.lines.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lines.WithLabelValues("warning")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.lines.WithLabelValues("info")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.files.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.files.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestObserveSnapshot(t *testing.T) {
	c := New()
	c.ObserveSnapshot(state.Snapshot{ErrorKeys: []scanner.ErrorCount{{Key: "a", Count: 1}, {Key: "b", Count: 4}}})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.errorKeys))
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.ObserveFile(scanner.ScanText("a.log", "INFO up\n", scanner.Filter{}), time.Millisecond)

	path := filepath.Join(t.TempDir(), "logagg.prom")
	require.NoError(t, c.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `logagg_lines_total{severity="info"} 1`)
	assert.Contains(t, string(raw), `logagg_files_total{status="success"} 1`)
}

func TestWriteTextfileBadDirectory(t *testing.T) {
	c := New()
	err := c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
