package track

import (
	"testing"

	"github.com/llehouerou/chorus/internal/catalog"
)

func openTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	return cat
}

func TestRecord_TypedAccessors(t *testing.T) {
	r := NewRecord(LocalSourceID, "/m/a.mp3")

	r.Set("Title", "Echoes")
	if r.Get("title") != "Echoes" {
		t.Errorf("keys should be lowercased, got %q", r.Get("title"))
	}

	r.SetInt64(KeyTrack, 5)
	if r.GetInt64(KeyTrack, 0) != 5 {
		t.Errorf("GetInt64 = %d, expected 5", r.GetInt64(KeyTrack, 0))
	}
	if r.GetInt64("missing", 42) != 42 {
		t.Error("expected default for missing key")
	}

	r.Set(KeyBPM, "not a number")
	if r.GetFloat64(KeyBPM, 1.5) != 1.5 {
		t.Error("expected default for unparseable value")
	}

	if !r.Dirty() {
		t.Error("setting values should mark the record dirty")
	}
}

func TestRecord_NeedsIndexing(t *testing.T) {
	cat := openTestCatalog(t)
	pathID, _ := cat.AddPath("/m")
	folderID, _ := cat.UpsertFolder("m", nil, pathID, "")

	r := NewRecord(LocalSourceID, "/m/a.mp3")
	r.Set(KeyFilename, "a.mp3")
	r.SetInt64(KeyFiletime, 1000)
	r.SetInt64(KeyFilesize, 2048)

	// no row yet
	dirty, err := r.NeedsIndexing(cat, folderID)
	if err != nil {
		t.Fatalf("NeedsIndexing failed: %v", err)
	}
	if !dirty {
		t.Error("expected dirty when no row exists")
	}

	r.Set(KeyTitle, "Song A")
	if err := r.Save(cat, folderID); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// unchanged row
	r2 := NewRecord(LocalSourceID, "/m/a.mp3")
	r2.Set(KeyFilename, "a.mp3")
	r2.SetInt64(KeyFiletime, 1000)
	r2.SetInt64(KeyFilesize, 2048)
	dirty, _ = r2.NeedsIndexing(cat, folderID)
	if dirty {
		t.Error("expected clean when filesize and filetime match")
	}
	if r2.ID() != r.ID() {
		t.Error("expected the catalog row id to bind on lookup")
	}

	// changed mtime
	r3 := NewRecord(LocalSourceID, "/m/a.mp3")
	r3.Set(KeyFilename, "a.mp3")
	r3.SetInt64(KeyFiletime, 2000)
	r3.SetInt64(KeyFilesize, 2048)
	dirty, _ = r3.NeedsIndexing(cat, folderID)
	if !dirty {
		t.Error("expected dirty when filetime differs")
	}
}

func TestRecord_SaveResolvesDimensions(t *testing.T) {
	cat := openTestCatalog(t)
	pathID, _ := cat.AddPath("/m")
	folderID, _ := cat.UpsertFolder("m", nil, pathID, "")

	r := NewRecord(LocalSourceID, "/m/a.mp3")
	r.Set(KeyFilename, "a.mp3")
	r.Set(KeyTitle, "Dogs")
	r.Set(KeyAlbum, "Animals")
	r.Set(KeyArtist, "Pink Floyd; Roger Waters")
	r.Set(KeyGenre, "Rock, Progressive")
	r.SetInt64(KeyTrack, 2)
	r.Set("label", "Harvest")

	if err := r.Save(cat, folderID); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if r.Dirty() {
		t.Error("save should clear the dirty bit")
	}

	row, err := cat.TrackByID(r.ID())
	if err != nil {
		t.Fatalf("TrackByID failed: %v", err)
	}
	if row.AlbumID == nil || row.VisualArtistID == nil || row.VisualGenreID == nil {
		t.Fatal("expected dimension foreign keys to be set")
	}
	// album artist defaults to the visual artist
	if row.AlbumArtistID == nil || *row.AlbumArtistID != *row.VisualArtistID {
		t.Error("expected album artist to default to visual artist")
	}

	// composite credits split on , and ;
	var n int
	_ = cat.DB().QueryRow(`SELECT COUNT(*) FROM track_artists WHERE track_id = ?`, r.ID()).Scan(&n)
	if n != 2 {
		t.Errorf("expected 2 artist credits, got %d", n)
	}
	_ = cat.DB().QueryRow(`SELECT COUNT(*) FROM track_genres WHERE track_id = ?`, r.ID()).Scan(&n)
	if n != 2 {
		t.Errorf("expected 2 genre credits, got %d", n)
	}

	// non-standard keys land in the meta side table
	var content string
	err = cat.DB().QueryRow(`
		SELECT v.content FROM track_meta tm
		JOIN meta_values v ON tm.meta_value_id = v.id
		JOIN meta_keys k ON v.meta_key_id = k.id
		WHERE tm.track_id = ? AND k.name = 'label'
	`, r.ID()).Scan(&content)
	if err != nil {
		t.Fatalf("meta lookup failed: %v", err)
	}
	if content != "Harvest" {
		t.Errorf("meta value = %q, expected Harvest", content)
	}
}

func TestRecord_LoadRoundTrip(t *testing.T) {
	cat := openTestCatalog(t)
	pathID, _ := cat.AddPath("/m")
	folderID, _ := cat.UpsertFolder("m", nil, pathID, "")

	r := NewRecord(LocalSourceID, "/m/b.flac")
	r.Set(KeyFilename, "b.flac")
	r.Set(KeyTitle, "Time")
	r.Set(KeyAlbum, "The Dark Side of the Moon")
	r.Set(KeyArtist, "Pink Floyd")
	r.SetInt64(KeyYear, 1973)
	r.SetInt64(KeyDuration, 413)
	r.Set("isrc", "GBN9Y1100080")
	if err := r.Save(cat, folderID); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(cat, r.ID())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Get(KeyTitle) != "Time" {
		t.Errorf("title = %q", loaded.Get(KeyTitle))
	}
	if loaded.Get(KeyAlbum) != "The Dark Side of the Moon" {
		t.Errorf("album = %q", loaded.Get(KeyAlbum))
	}
	if loaded.GetInt64(KeyYear, 0) != 1973 {
		t.Errorf("year = %d", loaded.GetInt64(KeyYear, 0))
	}
	if loaded.Get("isrc") != "GBN9Y1100080" {
		t.Errorf("isrc = %q", loaded.Get("isrc"))
	}
	if loaded.Dirty() {
		t.Error("loaded record should not be dirty")
	}
	if loaded.URI() == "" {
		t.Error("expected uri reconstructed from folder and path")
	}
}

func TestSplitCredits(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"Solo", 1},
		{"A, B; C", 3},
		{" A ,, B ", 2},
	}
	for _, c := range cases {
		if got := splitCredits(c.in); len(got) != c.want {
			t.Errorf("splitCredits(%q) = %v, expected %d parts", c.in, got, c.want)
		}
	}
}
