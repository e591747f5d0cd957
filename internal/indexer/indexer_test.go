package indexer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/llehouerou/chorus/internal/catalog"
	"github.com/llehouerou/chorus/internal/plugin"
)

// fakeReader indexes .mp3 and .flac files with metadata derived from
// their paths.
type fakeReader struct{}

func (fakeReader) CanRead(ext string) bool {
	return ext == ".mp3" || ext == ".flac"
}

func (fakeReader) ReadTag(path string, w plugin.TrackWriter) error {
	base := filepath.Base(path)
	w.Set("title", strings.TrimSuffix(base, filepath.Ext(base)))
	w.Set("artist", "Artist of "+base)
	w.Set("album", "Album "+filepath.Base(filepath.Dir(path)))
	w.Set("genre", "Rock")
	w.SetInt64("duration", 2)
	return nil
}

func testHost(t *testing.T) *plugin.Host {
	t.Helper()
	return plugin.NewHostWith(plugin.Environment{}, func(plugin.Environment) ([]plugin.Capability, error) {
		return []plugin.Capability{{
			Info:   plugin.Info{Name: "fake-reader", GUID: "test-fake-reader", SDKVersion: plugin.SDKVersion},
			Reader: fakeReader{},
		}}, nil
	})
}

func testIndexer(t *testing.T) (*Indexer, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	return New(cat, testHost(t), time.Hour, nil), cat
}

// writeFiles creates the scenario tree: /m/a/1.mp3, /m/a/2.mp3,
// /m/b/3.flac.
func writeFiles(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "m")
	for _, f := range []string{"a/1.mp3", "a/2.mp3", "b/3.flac"} {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func count(t *testing.T, cat *catalog.Catalog, query string) int {
	t.Helper()
	var n int
	if err := cat.DB().QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

func TestScan_FreshLibrary(t *testing.T) {
	idx, cat := testIndexer(t)
	root := writeFiles(t)

	sub := idx.Subscribe()
	idx.queueMu.Lock()
	idx.addQueue = append(idx.addQueue, root)
	idx.queueMu.Unlock()

	idx.synchronize()

	if n := count(t, cat, `SELECT COUNT(*) FROM tracks`); n != 3 {
		t.Errorf("expected 3 tracks, got %d", n)
	}
	// two subfolders plus the root
	if n := count(t, cat, `SELECT COUNT(*) FROM folders`); n != 3 {
		t.Errorf("expected 3 folders, got %d", n)
	}

	select {
	case <-sub.Started:
	default:
		t.Error("expected a started signal")
	}

	gotProgress := false
	for {
		select {
		case <-sub.Progress:
			gotProgress = true
			continue
		default:
		}
		break
	}
	if !gotProgress {
		t.Error("expected at least one progress signal")
	}

	select {
	case n := <-sub.Finished:
		if n != 3 {
			t.Errorf("finished(%d), expected 3", n)
		}
	default:
		t.Error("expected a finished signal")
	}

	if idx.CurrentState() != StatusIdle {
		t.Errorf("expected Idle after scan, got %v", idx.CurrentState())
	}
}

func TestScan_SecondScanIsIdempotent(t *testing.T) {
	idx, cat := testIndexer(t)
	root := writeFiles(t)

	idx.queueMu.Lock()
	idx.addQueue = append(idx.addQueue, root)
	idx.queueMu.Unlock()
	idx.synchronize()

	idsBefore := trackIDs(t, cat)
	idx.synchronize()
	idsAfter := trackIDs(t, cat)

	if len(idsBefore) != len(idsAfter) {
		t.Fatalf("track count changed: %d → %d", len(idsBefore), len(idsAfter))
	}
	for i := range idsBefore {
		if idsBefore[i] != idsAfter[i] {
			t.Errorf("track id changed at %d: %d → %d", i, idsBefore[i], idsAfter[i])
		}
	}
}

func trackIDs(t *testing.T, cat *catalog.Catalog) []int64 {
	t.Helper()
	ids, err := cat.TrackIDs()
	if err != nil {
		t.Fatalf("TrackIDs: %v", err)
	}
	return ids
}

func TestScan_FileDeletedBetweenScans(t *testing.T) {
	idx, cat := testIndexer(t)
	root := writeFiles(t)

	idx.queueMu.Lock()
	idx.addQueue = append(idx.addQueue, root)
	idx.queueMu.Unlock()
	idx.synchronize()

	if err := os.Remove(filepath.Join(root, "a", "1.mp3")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	idx.synchronize()

	if n := count(t, cat, `SELECT COUNT(*) FROM tracks`); n != 2 {
		t.Errorf("expected 2 tracks after deletion, got %d", n)
	}
	if n := count(t, cat, `SELECT COUNT(*) FROM tracks WHERE filename = '1.mp3'`); n != 0 {
		t.Error("deleted file still cataloged")
	}
	// the artist referenced only by the deleted track is cleaned up
	if n := count(t, cat, `SELECT COUNT(*) FROM artists WHERE name = 'Artist of 1.mp3'`); n != 0 {
		t.Error("orphan artist survived the scan")
	}
}

func TestScan_MissingRootDeletesNothing(t *testing.T) {
	idx, cat := testIndexer(t)
	root := writeFiles(t)

	idx.queueMu.Lock()
	idx.addQueue = append(idx.addQueue, root)
	idx.queueMu.Unlock()
	idx.synchronize()

	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("remove root: %v", err)
	}

	sub := idx.Subscribe()
	idx.synchronize()

	// unplugged-drive guard: the catalog keeps everything
	if n := count(t, cat, `SELECT COUNT(*) FROM tracks`); n != 3 {
		t.Errorf("expected all 3 tracks retained, got %d", n)
	}
	select {
	case n := <-sub.Finished:
		if n != 0 {
			t.Errorf("finished(%d), expected 0", n)
		}
	default:
		t.Error("expected a finished signal")
	}
}

func TestRemovePath_CleansCatalog(t *testing.T) {
	idx, cat := testIndexer(t)
	root := writeFiles(t)

	idx.queueMu.Lock()
	idx.addQueue = append(idx.addQueue, root)
	idx.queueMu.Unlock()
	idx.synchronize()

	idx.queueMu.Lock()
	idx.removeQueue = append(idx.removeQueue, root)
	idx.queueMu.Unlock()
	idx.synchronize()

	for _, q := range []string{
		`SELECT COUNT(*) FROM paths`,
		`SELECT COUNT(*) FROM folders`,
		`SELECT COUNT(*) FROM tracks`,
		`SELECT COUNT(*) FROM artists`,
		`SELECT COUNT(*) FROM albums`,
	} {
		if n := count(t, cat, q); n != 0 {
			t.Errorf("%s = %d, expected 0", q, n)
		}
	}
}

func TestStartStop_JoinsThread(t *testing.T) {
	idx, _ := testIndexer(t)

	idx.Start()
	idx.RestartSync()

	done := make(chan struct{})
	go func() {
		idx.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not join the scan goroutine")
	}
}

func TestRestartSync_InterruptsScan(t *testing.T) {
	idx, _ := testIndexer(t)
	idx.restart.Store(true)
	if !idx.interrupted() {
		t.Error("expected interrupted after restart request")
	}
	idx.restart.Store(false)
	idx.exit.Store(true)
	if !idx.interrupted() {
		t.Error("expected interrupted after exit request")
	}
}

func TestStatusString(t *testing.T) {
	if got := progressString(StatusIdle, 0, 0, 0); got != "" {
		t.Errorf("idle status = %q, expected empty", got)
	}
	got := progressString(StatusIndexingFiles, 50, 0, 100)
	if !strings.Contains(got, "50") || !strings.Contains(got, "100") {
		t.Errorf("unexpected progress string: %q", got)
	}
}
