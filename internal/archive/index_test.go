package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cc-dump/ccdump/internal/testutil"
)

func TestIndexUpsertThenListReturnsNewestFirst(t *testing.T) {
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	testutil.RequireNoError(t, err, "OpenIndex")
	defer ix.Close()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	testutil.RequireNoError(t, ix.Upsert(IndexRow{Path: "/a.har", StartedAt: older, EntryCount: 1, LastModel: "claude-a"}), "upsert a")
	testutil.RequireNoError(t, ix.Upsert(IndexRow{Path: "/b.har", StartedAt: newer, EntryCount: 3, LastModel: "claude-b"}), "upsert b")

	rows, err := ix.List()
	testutil.RequireNoError(t, err, "List")
	testutil.RequireEqual(t, 2, len(rows), "both rows present")
	testutil.AssertEqual(t, "/b.har", rows[0].Path, "newest started_at sorts first")
	testutil.AssertEqual(t, "/a.har", rows[1].Path, "older row sorts second")
}

func TestIndexUpsertOnSamePathOverwritesRow(t *testing.T) {
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	testutil.RequireNoError(t, err, "OpenIndex")
	defer ix.Close()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.RequireNoError(t, ix.Upsert(IndexRow{Path: "/a.har", StartedAt: start, EntryCount: 1, LastModel: "claude-a"}), "initial upsert")
	testutil.RequireNoError(t, ix.Upsert(IndexRow{Path: "/a.har", StartedAt: start, EntryCount: 2, LastModel: "claude-a2"}), "repeat upsert updates in place")

	rows, err := ix.List()
	testutil.RequireNoError(t, err, "List")
	testutil.RequireEqual(t, 1, len(rows), "same path never duplicates a row")
	testutil.AssertEqual(t, 2, rows[0].EntryCount, "entry count reflects the latest upsert")
	testutil.AssertEqual(t, "claude-a2", rows[0].LastModel, "last model reflects the latest upsert")
}

func TestIndexRemoveDropsRow(t *testing.T) {
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	testutil.RequireNoError(t, err, "OpenIndex")
	defer ix.Close()

	testutil.RequireNoError(t, ix.Upsert(IndexRow{Path: "/a.har", StartedAt: time.Now(), EntryCount: 1, LastModel: "claude-a"}), "upsert")
	testutil.RequireNoError(t, ix.Remove("/a.har"), "remove")

	rows, err := ix.List()
	testutil.RequireNoError(t, err, "List")
	testutil.RequireEqual(t, 0, len(rows), "removed row no longer listed")
}

func TestOpenIndexReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ix1, err := OpenIndex(path)
	testutil.RequireNoError(t, err, "first OpenIndex")
	testutil.RequireNoError(t, ix1.Upsert(IndexRow{Path: "/a.har", StartedAt: time.Now(), EntryCount: 1, LastModel: "claude-a"}), "upsert")
	testutil.RequireNoError(t, ix1.Close(), "close first handle")

	ix2, err := OpenIndex(path)
	testutil.RequireNoError(t, err, "reopen existing database")
	defer ix2.Close()
	rows, err := ix2.List()
	testutil.RequireNoError(t, err, "List after reopen")
	testutil.RequireEqual(t, 1, len(rows), "row persisted across reopen")
}
