package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cc-dump/ccdump/internal/archive"
)

// recordingsDir returns ~/.ccdump/recordings, creating it if necessary.
func recordingsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".ccdump", "recordings")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// indexPath returns ~/.ccdump/index.db, the derived SQLite lookup table
// (SPEC_FULL.md D.3) a recorder keeps current as it flushes entries.
func indexPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ccdump", "index.db"), nil
}

// defaultRecordingPath returns a fresh timestamped path under
// recordingsDir, used when --record is given no path.
func defaultRecordingPath() (string, error) {
	dir, err := recordingsDir()
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("ccdump-%s.har", stableTimestamp().Format("20060102-150405"))
	return filepath.Join(dir, name), nil
}

// stableTimestamp is the one place main's clock reads happen, so tests
// can substitute a fixed time if ever needed; today it's just time.Now.
func stableTimestamp() time.Time { return time.Now() }

// latestRecordingPath returns the most recently started recording, for
// --continue. It consults the SQLite index first (no re-parsing of
// archive trailing bytes) and falls back to a directory scan by
// modification time when the index has nothing usable — e.g. a file
// recorded before the index existed, or a stale/missing index.db.
func latestRecordingPath() (string, error) {
	if path, ok := latestFromIndex(); ok {
		return path, nil
	}
	return latestFromDirScan()
}

func latestFromIndex() (string, bool) {
	path, err := indexPath()
	if err != nil {
		return "", false
	}
	ix, err := archive.OpenIndex(path)
	if err != nil {
		return "", false
	}
	defer ix.Close()

	rows, err := ix.List()
	if err != nil {
		return "", false
	}
	for _, row := range rows {
		if _, err := os.Stat(row.Path); err == nil {
			return row.Path, true
		}
	}
	return "", false
}

func latestFromDirScan() (string, error) {
	dir, err := recordingsDir()
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var newest os.DirEntry
	var newestMod time.Time
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".har" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == nil || info.ModTime().After(newestMod) {
			newest = e
			newestMod = info.ModTime()
		}
	}
	if newest == nil {
		return "", fmt.Errorf("no recordings found under %s", dir)
	}
	return filepath.Join(dir, newest.Name()), nil
}

// listRecordings prints every recording, newest first. It prefers the
// SQLite index (path, start time, entry count, last model observed) and
// falls back to a plain directory scan (name, size, modification time)
// when the index is empty or unreadable.
func listRecordings(w io.Writer) error {
	if rows, ok := listFromIndex(); ok && len(rows) > 0 {
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%4d entries\t%-20s\t%s\n",
				row.StartedAt.Format(time.RFC3339), row.EntryCount, row.LastModel, row.Path)
		}
		return nil
	}
	return listFromDirScan(w)
}

func listFromIndex() ([]archive.IndexRow, bool) {
	path, err := indexPath()
	if err != nil {
		return nil, false
	}
	ix, err := archive.OpenIndex(path)
	if err != nil {
		return nil, false
	}
	defer ix.Close()

	rows, err := ix.List()
	if err != nil {
		return nil, false
	}
	existing := rows[:0]
	for _, row := range rows {
		if _, err := os.Stat(row.Path); err == nil {
			existing = append(existing, row)
		}
	}
	return existing, true
}

func listFromDirScan(w io.Writer) error {
	dir, err := recordingsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type row struct {
		name    string
		size    int64
		modTime time.Time
	}
	var rows []row
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".har" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		rows = append(rows, row{name: e.Name(), size: info.Size(), modTime: info.ModTime()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].modTime.After(rows[j].modTime) })

	if len(rows) == 0 {
		fmt.Fprintf(w, "no recordings under %s\n", dir)
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%8d bytes\t%s\n", r.modTime.Format(time.RFC3339), r.size, r.name)
	}
	return nil
}
