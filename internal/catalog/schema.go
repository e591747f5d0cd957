package catalog

import (
	"database/sql"
)

const currentSchemaVersion = 3

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS paths (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS folders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			parent_id INTEGER,
			path_id INTEGER NOT NULL,
			relative_path TEXT NOT NULL,
			UNIQUE(name, parent_id, path_id)
		);

		CREATE TABLE IF NOT EXISTS albums (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS artists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS genres (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id TEXT NOT NULL DEFAULT '',
			source_id INTEGER NOT NULL DEFAULT 0,
			filename TEXT NOT NULL DEFAULT '',
			filetime INTEGER NOT NULL DEFAULT 0,
			filesize INTEGER NOT NULL DEFAULT 0,
			duration INTEGER NOT NULL DEFAULT 0,
			track_num INTEGER,
			disc INTEGER,
			year INTEGER,
			bpm REAL,
			title TEXT,
			album_id INTEGER,
			visual_artist_id INTEGER,
			album_artist_id INTEGER,
			visual_genre_id INTEGER,
			folder_id INTEGER,
			thumbnail_id INTEGER,
			sort_order INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS track_artists (
			track_id INTEGER NOT NULL,
			artist_id INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS track_genres (
			track_id INTEGER NOT NULL,
			genre_id INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta_keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS meta_values (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			meta_key_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			sort_order INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS track_meta (
			track_id INTEGER NOT NULL,
			meta_value_id INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS thumbnails (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL,
			checksum INTEGER NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id INTEGER NOT NULL,
			track_external_id TEXT NOT NULL,
			source_id INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			login TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_album_order ON tracks(album_id, sort_order);
		CREATE INDEX IF NOT EXISTS idx_tracks_folder ON tracks(folder_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_external ON tracks(source_id, external_id) WHERE external_id != '';
		CREATE INDEX IF NOT EXISTS idx_track_genres_tg ON track_genres(track_id, genre_id);
		CREATE INDEX IF NOT EXISTS idx_track_genres_gt ON track_genres(genre_id, track_id);
		CREATE INDEX IF NOT EXISTS idx_track_artists_ta ON track_artists(track_id, artist_id);
		CREATE INDEX IF NOT EXISTS idx_track_artists_at ON track_artists(artist_id, track_id);
		CREATE INDEX IF NOT EXISTS idx_track_meta_tm ON track_meta(track_id, meta_value_id);
		CREATE INDEX IF NOT EXISTS idx_track_meta_mt ON track_meta(meta_value_id, track_id);
		CREATE INDEX IF NOT EXISTS idx_meta_values_key ON meta_values(meta_key_id, content);
		CREATE INDEX IF NOT EXISTS idx_playlist_tracks ON playlist_tracks(playlist_id, sort_order);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	if err != nil {
		return err
	}

	// Migration: add bpm column if missing (pre-v2 databases)
	_, _ = db.Exec(`ALTER TABLE tracks ADD COLUMN bpm REAL`)
	// Migration: add thumbnail_id column if missing
	_, _ = db.Exec(`ALTER TABLE tracks ADD COLUMN thumbnail_id INTEGER`)
	// Migration: add sort_order column if missing (pre-v3 databases)
	_, _ = db.Exec(`ALTER TABLE tracks ADD COLUMN sort_order INTEGER NOT NULL DEFAULT 0`)

	return nil
}
