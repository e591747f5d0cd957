package metadata

import (
	"github.com/llehouerou/chorus/internal/catalog"
)

// Playlist mutation goes through the proxy so the catalog writer lock
// and the playlist_modified notifications stay in one place.

// CreatePlaylist creates an empty playlist.
func (p *Proxy) CreatePlaylist(name string) (int64, error) {
	p.cat.LockWriter()
	defer p.cat.UnlockWriter()

	id, err := p.cat.CreatePlaylist(name)
	if err != nil {
		return 0, err
	}
	p.notifyPlaylist(id)
	return id, nil
}

// RenamePlaylist atomically renames a playlist.
func (p *Proxy) RenamePlaylist(id int64, name string) error {
	p.cat.LockWriter()
	defer p.cat.UnlockWriter()

	if err := p.cat.RenamePlaylist(id, name); err != nil {
		return err
	}
	p.notifyPlaylist(id)
	return nil
}

// DeletePlaylist removes a playlist and its entries.
func (p *Proxy) DeletePlaylist(id int64) error {
	p.cat.LockWriter()
	defer p.cat.UnlockWriter()

	if err := p.cat.DeletePlaylist(id); err != nil {
		return err
	}
	p.notifyPlaylist(id)
	return nil
}

// Playlists lists all playlists.
func (p *Proxy) Playlists() ([]catalog.Playlist, error) {
	return p.cat.Playlists()
}

// PlaylistTracks returns a playlist's entries in order.
func (p *Proxy) PlaylistTracks(id int64) ([]catalog.PlaylistTrack, error) {
	return p.cat.PlaylistTracks(id)
}

// AppendToPlaylist inserts tracks at offset (append at the end when
// offset is negative).
func (p *Proxy) AppendToPlaylist(id int64, tracks []catalog.PlaylistTrack, offset int) error {
	p.cat.LockWriter()
	defer p.cat.UnlockWriter()

	if err := p.cat.AppendPlaylistTracks(id, tracks, offset); err != nil {
		return err
	}
	p.notifyPlaylist(id)
	return nil
}

// RemoveFromPlaylist removes the entries at the given positions and
// compacts the ordering.
func (p *Proxy) RemoveFromPlaylist(id int64, positions []int) error {
	p.cat.LockWriter()
	defer p.cat.UnlockWriter()

	if err := p.cat.RemovePlaylistTracks(id, positions); err != nil {
		return err
	}
	p.notifyPlaylist(id)
	return nil
}
