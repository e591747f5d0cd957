package catalog

import (
	"testing"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })
	return cat
}

func TestAddPath_Idempotent(t *testing.T) {
	cat := openTestCatalog(t)

	id1, err := cat.AddPath("/music")
	if err != nil {
		t.Fatalf("AddPath failed: %v", err)
	}
	id2, err := cat.AddPath("/music")
	if err != nil {
		t.Fatalf("AddPath failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected same id, got %d and %d", id1, id2)
	}

	paths, err := cat.Paths()
	if err != nil {
		t.Fatalf("Paths failed: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("expected 1 path, got %d", len(paths))
	}
}

func TestRemovePath_CascadesToFoldersAndTracks(t *testing.T) {
	cat := openTestCatalog(t)

	pathID, _ := cat.AddPath("/music")
	folderID, err := cat.UpsertFolder("music", nil, pathID, "")
	if err != nil {
		t.Fatalf("UpsertFolder failed: %v", err)
	}
	trackID, err := cat.UpsertTrack(&TrackRow{
		Filename: "a.mp3", FolderID: &folderID,
	})
	if err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}
	artistID, _ := cat.ResolveArtist("Artist")
	if err := cat.ReplaceTrackArtists(trackID, []int64{artistID}); err != nil {
		t.Fatalf("ReplaceTrackArtists failed: %v", err)
	}

	if err := cat.RemovePath("/music"); err != nil {
		t.Fatalf("RemovePath failed: %v", err)
	}

	for _, q := range []string{
		`SELECT COUNT(*) FROM paths`,
		`SELECT COUNT(*) FROM folders`,
		`SELECT COUNT(*) FROM tracks`,
		`SELECT COUNT(*) FROM track_artists`,
	} {
		var n int
		if err := cat.DB().QueryRow(q).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Errorf("%s = %d, expected 0", q, n)
		}
	}
}

func TestUpsertFolder_UniqueByNameParentPath(t *testing.T) {
	cat := openTestCatalog(t)
	pathID, _ := cat.AddPath("/music")

	id1, err := cat.UpsertFolder("rock", nil, pathID, "rock")
	if err != nil {
		t.Fatalf("UpsertFolder failed: %v", err)
	}
	id2, err := cat.UpsertFolder("rock", nil, pathID, "rock")
	if err != nil {
		t.Fatalf("UpsertFolder failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected same folder id, got %d and %d", id1, id2)
	}

	// same name under a different parent is a different folder
	id3, err := cat.UpsertFolder("rock", &id1, pathID, "rock/rock")
	if err != nil {
		t.Fatalf("UpsertFolder failed: %v", err)
	}
	if id3 == id1 {
		t.Error("expected a distinct folder under a different parent")
	}
}

func TestResolveNamed_ReusesRows(t *testing.T) {
	cat := openTestCatalog(t)

	a1, _ := cat.ResolveArtist("Pink Floyd")
	a2, _ := cat.ResolveArtist("Pink Floyd")
	if a1 != a2 {
		t.Errorf("expected same artist id, got %d and %d", a1, a2)
	}

	g1, _ := cat.ResolveGenre("Rock")
	g2, _ := cat.ResolveGenre("Jazz")
	if g1 == g2 {
		t.Error("expected distinct genre ids")
	}
}

func TestDeleteOrphans_RemovesUnreferencedDimensions(t *testing.T) {
	cat := openTestCatalog(t)

	pathID, _ := cat.AddPath("/music")
	folderID, _ := cat.UpsertFolder("music", nil, pathID, "")

	albumID, _ := cat.ResolveAlbum("Kept Album")
	artistID, _ := cat.ResolveArtist("Kept Artist")
	orphanAlbum, _ := cat.ResolveAlbum("Orphan Album")
	orphanArtist, _ := cat.ResolveArtist("Orphan Artist")

	keyID, _ := cat.ResolveMetaKey("label")
	keptValue, _ := cat.ResolveMetaValue(keyID, "kept")
	_, _ = cat.ResolveMetaValue(keyID, "orphan")

	trackID, err := cat.UpsertTrack(&TrackRow{
		Filename: "a.mp3", FolderID: &folderID,
		AlbumID: &albumID, VisualArtistID: &artistID,
	})
	if err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}
	_ = cat.ReplaceTrackArtists(trackID, []int64{artistID})
	_ = cat.ReplaceTrackMeta(trackID, []int64{keptValue})

	if err := cat.DeleteOrphans(); err != nil {
		t.Fatalf("DeleteOrphans failed: %v", err)
	}

	var n int
	_ = cat.DB().QueryRow(`SELECT COUNT(*) FROM albums`).Scan(&n)
	if n != 1 {
		t.Errorf("expected 1 album after cleanup, got %d", n)
	}
	_ = cat.DB().QueryRow(`SELECT COUNT(*) FROM albums WHERE id = ?`, orphanAlbum).Scan(&n)
	if n != 0 {
		t.Error("orphan album survived cleanup")
	}
	_ = cat.DB().QueryRow(`SELECT COUNT(*) FROM artists WHERE id = ?`, orphanArtist).Scan(&n)
	if n != 0 {
		t.Error("orphan artist survived cleanup")
	}
	_ = cat.DB().QueryRow(`SELECT COUNT(*) FROM meta_values`).Scan(&n)
	if n != 1 {
		t.Errorf("expected 1 meta value after cleanup, got %d", n)
	}
}

func TestOptimizeDimension_DenseLowercaseOrder(t *testing.T) {
	cat := openTestCatalog(t)

	_, _ = cat.ResolveArtist("zebra")
	_, _ = cat.ResolveArtist("  Apple ")
	_, _ = cat.ResolveArtist("Mango")

	if err := cat.OptimizeDimension("artists", nil); err != nil {
		t.Fatalf("OptimizeDimension failed: %v", err)
	}

	rows, err := cat.DB().Query(`SELECT name FROM artists ORDER BY sort_order`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		_ = rows.Scan(&name)
		names = append(names, name)
	}
	expected := []string{"  Apple ", "Mango", "zebra"}
	for i, name := range names {
		if name != expected[i] {
			t.Errorf("sort_order[%d] = %q, expected %q", i, name, expected[i])
		}
	}
}

func TestPlaylistSortOrder_StaysContiguous(t *testing.T) {
	cat := openTestCatalog(t)

	id, err := cat.CreatePlaylist("Mix")
	if err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}

	tracks := []PlaylistTrack{
		{ExternalID: "/m/a.mp3"}, {ExternalID: "/m/b.mp3"},
		{ExternalID: "/m/c.mp3"}, {ExternalID: "/m/d.mp3"},
	}
	if err := cat.AppendPlaylistTracks(id, tracks, -1); err != nil {
		t.Fatalf("AppendPlaylistTracks failed: %v", err)
	}

	// insert in the middle
	if err := cat.AppendPlaylistTracks(id, []PlaylistTrack{{ExternalID: "/m/x.mp3"}}, 1); err != nil {
		t.Fatalf("AppendPlaylistTracks failed: %v", err)
	}

	got, err := cat.PlaylistTracks(id)
	if err != nil {
		t.Fatalf("PlaylistTracks failed: %v", err)
	}
	wantOrder := []string{"/m/a.mp3", "/m/x.mp3", "/m/b.mp3", "/m/c.mp3", "/m/d.mp3"}
	for i, pt := range got {
		if pt.SortOrder != i {
			t.Errorf("sort_order[%d] = %d, expected %d", i, pt.SortOrder, i)
		}
		if pt.ExternalID != wantOrder[i] {
			t.Errorf("track[%d] = %s, expected %s", i, pt.ExternalID, wantOrder[i])
		}
	}

	// delete triggers compaction back to 0..n-1
	if err := cat.RemovePlaylistTracks(id, []int{1, 3}); err != nil {
		t.Fatalf("RemovePlaylistTracks failed: %v", err)
	}
	got, _ = cat.PlaylistTracks(id)
	if len(got) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(got))
	}
	for i, pt := range got {
		if pt.SortOrder != i {
			t.Errorf("after delete sort_order[%d] = %d", i, pt.SortOrder)
		}
	}
}

func TestRenamePlaylist(t *testing.T) {
	cat := openTestCatalog(t)
	id, _ := cat.CreatePlaylist("Old")
	if err := cat.RenamePlaylist(id, "New"); err != nil {
		t.Fatalf("RenamePlaylist failed: %v", err)
	}
	pl, err := cat.PlaylistByID(id)
	if err != nil || pl == nil {
		t.Fatalf("PlaylistByID failed: %v", err)
	}
	if pl.Name != "New" {
		t.Errorf("name = %q, expected New", pl.Name)
	}
}

func TestTrackByExternalID(t *testing.T) {
	cat := openTestCatalog(t)

	_, err := cat.UpsertTrack(&TrackRow{ExternalID: "gme:song:1", SourceID: 7, Title: "Level 1"})
	if err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}

	row, err := cat.TrackByExternalID(7, "gme:song:1")
	if err != nil {
		t.Fatalf("TrackByExternalID failed: %v", err)
	}
	if row == nil || row.Title != "Level 1" {
		t.Errorf("unexpected row: %+v", row)
	}

	// external id is scoped by source
	row, _ = cat.TrackByExternalID(8, "gme:song:1")
	if row != nil {
		t.Error("expected no row for a different source id")
	}
}
