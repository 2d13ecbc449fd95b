package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"LOGAGG_LOG_LEVEL",
	"LOGAGG_LOG_FORMAT",
	"LOGAGG_BASE_DIR",
	"LOGAGG_FILTER",
	"LOGAGG_COLOR",
	"LOGAGG_METRICS_TEXTFILE",
}

func executeCommand(t *testing.T, args ...string) (stdout string, stderr string, err error) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}

	root := NewRootCommand()
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)
	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetArgs(args)

	err = root.Execute()
	return stdoutBuf.String(), stderrBuf.String(), err
}

func writeLog(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func fixtures(t *testing.T) (dir string, paths []string) {
	t.Helper()
	dir = t.TempDir()
	paths = []string{
		writeLog(t, dir, "app.log",
			"2024-01-01 ERROR: Connection failed: too many connections",
			"2024-01-01 WARN disk at 80%",
			"2024-01-01 INFO started",
		),
		writeLog(t, dir, "api.log",
			"2024-01-01 error: connection failed: too many connections",
			"2024-01-01 Error - Request timeout",
			"2024-01-01 INFO request served",
		),
	}
	return dir, paths
}

func TestRootEndToEnd(t *testing.T) {
	_, paths := fixtures(t)

	stdout, stderr, err := executeCommand(t, "-f", paths[0], paths[1])
	require.NoError(t, err)
	assert.Empty(t, stderr)

	want := strings.Join([]string{
		"Total entries: 6",
		"Errors: 3",
		"Warnings: 1",
		"Info: 2",
		"",
		"Top errors:",
		`- "Connection failed: too many connections" (2 occurrences)`,
		`- "Request timeout" (1 occurrences)`,
		"",
		"Files processed: app.log, api.log",
		"",
	}, "\n")
	assert.Equal(t, want, stdout)
}

func TestRootMissingFileIsNotFatal(t *testing.T) {
	dir, paths := fixtures(t)
	missing := filepath.Join(dir, "missing.log")

	stdout, stderr, err := executeCommand(t, paths[0], missing)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Errors: 1\n")
	assert.Contains(t, stdout, "Files processed: app.log, missing.log\n")
	assert.Equal(t, fmt.Sprintf("error: %s: file does not exist\n", missing), stderr)
}

func TestRootFilterAndPrint(t *testing.T) {
	_, paths := fixtures(t)

	stdout, _, err := executeCommand(t, "--filter", "TIMEOUT", "-p", paths[0], paths[1])
	require.NoError(t, err)

	assert.Contains(t, stdout, "\n2024-01-01 Error - Request timeout\n")
	assert.NotContains(t, stdout, "request served")
	assert.Contains(t, stdout, "Errors: 3\n", "counts ignore the filter")
}

func TestRootJSON(t *testing.T) {
	_, paths := fixtures(t)

	stdout, _, err := executeCommand(t, "--format", "json", "--top", "1", paths[0], paths[1])
	require.NoError(t, err)

	var decoded struct {
		TotalEntries int `json:"total_entries"`
		TopErrors    []struct {
			Key   string `json:"key"`
			Count int    `json:"count"`
		} `json:"top_errors"`
		Files []string `json:"files_processed"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	assert.Equal(t, 6, decoded.TotalEntries)
	require.Len(t, decoded.TopErrors, 1)
	assert.Equal(t, 2, decoded.TopErrors[0].Count)
	assert.Equal(t, []string{"app.log", "api.log"}, decoded.Files)
}

func TestRootBaseDirAndGlob(t *testing.T) {
	dir, _ := fixtures(t)

	stdout, _, err := executeCommand(t, "--base-dir", dir, "*.log")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Files processed: api.log, app.log\n")
}

func TestRootRequiresInput(t *testing.T) {
	_, _, err := executeCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one log file")
}

func TestRootRejectsTooManyFiles(t *testing.T) {
	dir := t.TempDir()
	var args []string
	for i := 0; i < 6; i++ {
		args = append(args, writeLog(t, dir, fmt.Sprintf("f%d.log", i), "INFO ok"))
	}

	_, _, err := executeCommand(t, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many log files")
}

func TestRootRejectsInvalidFlagValue(t *testing.T) {
	_, paths := fixtures(t)

	_, _, err := executeCommand(t, "--color", "sometimes", paths[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.color")
}

func TestRootWritesMetricsTextfile(t *testing.T) {
	dir, paths := fixtures(t)
	prom := filepath.Join(dir, "logagg.prom")

	_, _, err := executeCommand(t, "--metrics-textfile", prom, paths[0])
	require.NoError(t, err)

	raw, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `logagg_files_total{status="success"} 1`)
}

func TestRootInfoLogIncludesElapsed(t *testing.T) {
	_, paths := fixtures(t)

	_, stderr, err := executeCommand(t, "--log-level", "info", paths[0])
	require.NoError(t, err)
	assert.Contains(t, stderr, `msg="aggregation finished"`)
	assert.Contains(t, stderr, "elapsed=")
}

func TestRootHelpListsFlags(t *testing.T) {
	root := NewRootCommand()
	stdout, _, err := executeCommand(t, "--help")
	require.NoError(t, err)

	root.Flags().VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, stdout, "--"+f.Name)
	})
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, useColor("always", &buf))
	assert.False(t, useColor("never", &buf))
	assert.False(t, useColor("auto", &buf), "a buffer is never a terminal")
}

func TestRootIgnoresAmbientEnvironment(t *testing.T) {
	_, paths := fixtures(t)
	t.Setenv("LOGAGG_FILTER", "no such keyword")

	stdout, _, err := executeCommand(t, "-p", paths[0])
	require.NoError(t, err)
	assert.Contains(t, stdout, "\n2024-01-01 INFO started\n")
}

func TestRootDebugLogsFilterKeyword(t *testing.T) {
	_, paths := fixtures(t)

	_, stderr, err := executeCommand(t, "--log-level", "debug", "--filter", "Timeout", paths[0])
	require.NoError(t, err)
	assert.Contains(t, stderr, `msg="keyword filter enabled" keyword=timeout`)
}
