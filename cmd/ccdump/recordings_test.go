package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cc-dump/ccdump/internal/archive"
	"github.com/cc-dump/ccdump/internal/testutil"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestDefaultRecordingPathLandsUnderRecordingsDir(t *testing.T) {
	home := withTempHome(t)
	path, err := defaultRecordingPath()
	testutil.RequireNoError(t, err, "defaultRecordingPath")
	testutil.RequireTrue(t, filepath.Dir(path) == filepath.Join(home, ".ccdump", "recordings"), "path lands under ~/.ccdump/recordings")
	testutil.RequireTrue(t, filepath.Ext(path) == ".har", "path has a .har extension")
}

func TestLatestRecordingPathPicksMostRecentlyModified(t *testing.T) {
	withTempHome(t)
	dir, err := recordingsDir()
	testutil.RequireNoError(t, err, "recordingsDir")

	older := filepath.Join(dir, "a.har")
	newer := filepath.Join(dir, "b.har")
	testutil.RequireNoError(t, os.WriteFile(older, []byte("{}"), 0o644), "write older")
	testutil.RequireNoError(t, os.WriteFile(newer, []byte("{}"), 0o644), "write newer")

	now := time.Now()
	os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour))
	os.Chtimes(newer, now, now)

	got, err := latestRecordingPath()
	testutil.RequireNoError(t, err, "latestRecordingPath")
	testutil.RequireEqual(t, newer, got, "newest .har file wins")
}

func TestLatestRecordingPathErrorsWhenEmpty(t *testing.T) {
	withTempHome(t)
	_, err := latestRecordingPath()
	testutil.RequireTrue(t, err != nil, "no recordings present is an error")
}

func TestListRecordingsReportsEachHarFile(t *testing.T) {
	withTempHome(t)
	dir, err := recordingsDir()
	testutil.RequireNoError(t, err, "recordingsDir")
	testutil.RequireNoError(t, os.WriteFile(filepath.Join(dir, "one.har"), []byte("{}"), 0o644), "write one.har")
	testutil.RequireNoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644), "write non-har file")

	var buf bytes.Buffer
	testutil.RequireNoError(t, listRecordings(&buf), "listRecordings")
	testutil.RequireStringContains(t, buf.String(), "one.har", "lists the har file")
	testutil.RequireTrue(t, !bytes.Contains(buf.Bytes(), []byte("notes.txt")), "ignores non-har files")
}

func TestListRecordingsReportsEmptyDirectory(t *testing.T) {
	withTempHome(t)
	var buf bytes.Buffer
	testutil.RequireNoError(t, listRecordings(&buf), "listRecordings")
	testutil.RequireStringContains(t, buf.String(), "no recordings", "empty directory reports clearly")
}

func seedIndexRow(t *testing.T, har string) {
	t.Helper()
	idxPath, err := indexPath()
	testutil.RequireNoError(t, err, "indexPath")
	ix, err := archive.OpenIndex(idxPath)
	testutil.RequireNoError(t, err, "OpenIndex")
	defer ix.Close()
	testutil.RequireNoError(t, ix.Upsert(archive.IndexRow{
		Path: har, StartedAt: time.Now(), EntryCount: 2, LastModel: "claude-x",
	}), "seed index row")
}

func TestListRecordingsPrefersIndexWhenPopulated(t *testing.T) {
	withTempHome(t)
	dir, err := recordingsDir()
	testutil.RequireNoError(t, err, "recordingsDir")
	har := filepath.Join(dir, "indexed.har")
	testutil.RequireNoError(t, os.WriteFile(har, []byte("{}"), 0o644), "write har file")
	seedIndexRow(t, har)

	var buf bytes.Buffer
	testutil.RequireNoError(t, listRecordings(&buf), "listRecordings")
	testutil.RequireStringContains(t, buf.String(), "claude-x", "index-sourced listing includes the last observed model")
	testutil.RequireStringContains(t, buf.String(), "indexed.har", "index-sourced listing includes the file path")
}

func TestLatestRecordingPathPrefersIndexRowWhoseFileStillExists(t *testing.T) {
	withTempHome(t)
	dir, err := recordingsDir()
	testutil.RequireNoError(t, err, "recordingsDir")
	har := filepath.Join(dir, "indexed.har")
	testutil.RequireNoError(t, os.WriteFile(har, []byte("{}"), 0o644), "write har file")
	seedIndexRow(t, har)

	got, err := latestRecordingPath()
	testutil.RequireNoError(t, err, "latestRecordingPath")
	testutil.RequireEqual(t, har, got, "index-backed lookup returns the indexed path")
}

func TestLatestRecordingPathFallsBackWhenIndexedFileIsMissing(t *testing.T) {
	withTempHome(t)
	dir, err := recordingsDir()
	testutil.RequireNoError(t, err, "recordingsDir")
	ghost := filepath.Join(dir, "gone.har")
	seedIndexRow(t, ghost) // indexed but never actually written

	real := filepath.Join(dir, "real.har")
	testutil.RequireNoError(t, os.WriteFile(real, []byte("{}"), 0o644), "write the only file that actually exists")

	got, err := latestRecordingPath()
	testutil.RequireNoError(t, err, "latestRecordingPath falls back past the stale index row")
	testutil.RequireEqual(t, real, got, "falls back to the directory scan when the indexed file is gone")
}
