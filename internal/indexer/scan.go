package indexer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/chorus/internal/catalog"
	"github.com/llehouerou/chorus/internal/plugin"
	"github.com/llehouerou/chorus/internal/track"
)

// countFiles walks every sync path counting readable files, for the
// progress denominator. Filesystem errors skip the subtree.
func (i *Indexer) countFiles(paths []catalog.Path) int64 {
	readers := i.host.Readers()
	var total int64

	for _, p := range paths {
		if i.interrupted() {
			return total
		}
		_ = filepath.WalkDir(p.Path, func(path string, d fs.DirEntry, walkErr error) error {
			if i.interrupted() {
				return filepath.SkipAll
			}
			// Skip any walk errors - intentionally continuing to scan other paths
			if walkErr != nil {
				return nil //nolint:nilerr // intentionally skipping errors
			}
			if d.IsDir() {
				return nil
			}
			if anyCanRead(readers, strings.ToLower(filepath.Ext(path))) {
				total++
				i.setFilesCounted(total)
			}
			return nil
		})
	}
	return total
}

// indexPaths walks every sync path, upserting folders and indexing
// dirty files. Returns the number of files visited.
func (i *Indexer) indexPaths(paths []catalog.Path) int {
	readers := i.host.Readers()
	visited := 0
	saves := 0

	for _, p := range paths {
		if i.interrupted() {
			break
		}

		// folder ids by absolute directory path, seeded with the root
		folderIDs := make(map[string]int64)
		root := filepath.Clean(p.Path)

		rootID, err := i.cat.UpsertFolder(filepath.Base(root), nil, p.ID, "")
		if err != nil {
			i.log.Warn("root folder upsert failed", "path", p.Path, "err", err)
			continue
		}
		folderIDs[root] = rootID

		walkErr := filepath.WalkDir(p.Path, func(path string, d fs.DirEntry, walkErr error) error {
			if i.interrupted() {
				return filepath.SkipAll
			}
			if walkErr != nil {
				i.log.Warn("subtree unreadable, skipping", "path", path, "err", walkErr)
				return nil //nolint:nilerr // scan continues past bad subtrees
			}

			if d.IsDir() {
				clean := filepath.Clean(path)
				if clean == root {
					return nil
				}
				parentID, ok := folderIDs[filepath.Dir(clean)]
				if !ok {
					return filepath.SkipDir
				}
				rel, err := filepath.Rel(root, clean)
				if err != nil {
					return filepath.SkipDir
				}
				id, err := i.cat.UpsertFolder(d.Name(), &parentID, p.ID, rel)
				if err != nil {
					i.log.Warn("folder upsert failed", "path", path, "err", err)
					return filepath.SkipDir
				}
				folderIDs[clean] = id
				return nil
			}

			if !anyCanRead(readers, strings.ToLower(filepath.Ext(path))) {
				return nil
			}
			folderID, ok := folderIDs[filepath.Dir(filepath.Clean(path))]
			if !ok {
				return nil
			}
			if i.indexFile(path, d, folderID, readers) {
				saves++
				if saves%refreshedBatch == 0 {
					i.emit(func(s *Subscription) { s.sendTrackRefreshed() })
				}
			}

			visited++
			i.setProgress(int64(visited), int64(saves))
			if visited%progressBatch == 0 {
				count := visited
				i.emit(func(s *Subscription) { s.sendProgress(count) })
			}
			return nil
		})
		if walkErr != nil {
			i.log.Warn("walk failed", "path", p.Path, "err", walkErr)
		}

		if visited > 0 {
			count := visited
			i.emit(func(s *Subscription) { s.sendProgress(count) })
		}
	}
	return visited
}

// indexFile builds a record for one file and saves it when dirty.
// Returns true when the file was (re-)indexed.
func (i *Indexer) indexFile(path string, d fs.DirEntry, folderID int64, readers []plugin.MetadataReader) bool {
	ext := strings.ToLower(filepath.Ext(path))

	info, err := d.Info()
	if err != nil {
		return false
	}

	rec := track.NewRecord(track.LocalSourceID, path)
	rec.Set(track.KeyFilename, d.Name())
	rec.SetInt64(track.KeyFiletime, info.ModTime().Unix())
	rec.SetInt64(track.KeyFilesize, info.Size())

	dirty, err := rec.NeedsIndexing(i.cat, folderID)
	if err != nil {
		i.log.Warn("dedup lookup failed", "path", path, "err", err)
		return false
	}
	if !dirty {
		return false
	}

	read := false
	for _, r := range readers {
		if !r.CanRead(ext) {
			continue
		}
		if err := safeReadTag(r, path, rec); err != nil {
			i.log.Debug("reader failed", "path", path, "err", err)
			continue
		}
		read = true
	}
	if !read {
		return false
	}

	// A failed save leaves the row unindexed so the next sweep retries.
	if err := rec.Save(i.cat, folderID); err != nil {
		i.log.Warn("save failed", "path", path, "err", err)
		return false
	}
	return true
}

// anyCanRead reports whether some loaded reader handles the extension.
func anyCanRead(readers []plugin.MetadataReader, ext string) bool {
	for _, r := range readers {
		if r.CanRead(ext) {
			return true
		}
	}
	return false
}

// safeReadTag invokes a reader, recovering panics so a misbehaving
// plugin only loses the current file.
func safeReadTag(r plugin.MetadataReader, path string, rec *track.Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reader panicked: %v", p)
		}
	}()
	return r.ReadTag(path, rec)
}

// removeMissing deletes folders and tracks whose files are gone from
// disk. Nothing is removed under a sync root that is itself missing,
// to avoid mass-deletion on transient unmounts.
func (i *Indexer) removeMissing(paths []catalog.Path) {
	for _, p := range paths {
		if i.interrupted() {
			return
		}
		if _, err := os.Stat(p.Path); err != nil {
			i.log.Info("sync root unavailable, keeping catalog rows", "path", p.Path)
			continue
		}

		folders, err := i.cat.FoldersUnderPath(p.ID)
		if err != nil {
			i.log.Warn("folder listing failed", "path", p.Path, "err", err)
			continue
		}

		removed := make(map[int64]bool)
		for _, f := range folders {
			if i.interrupted() {
				return
			}
			if removed[f.ID] {
				continue
			}
			full := filepath.Join(p.Path, f.RelativePath)
			if _, err := os.Stat(full); err == nil {
				continue
			}
			if err := i.cat.DeleteFolder(f.ID); err != nil {
				i.log.Warn("folder delete failed", "folder", full, "err", err)
				continue
			}
			removed[f.ID] = true
		}

		for _, f := range folders {
			if i.interrupted() {
				return
			}
			if removed[f.ID] {
				continue
			}
			tracks, err := i.cat.TracksInFolder(f.ID)
			if err != nil {
				continue
			}
			for _, t := range tracks {
				full := filepath.Join(p.Path, f.RelativePath, t.Filename)
				if _, err := os.Stat(full); err != nil {
					if err := i.cat.DeleteTrack(t.ID); err != nil {
						i.log.Warn("track delete failed", "file", full, "err", err)
					}
				}
			}
		}
	}
}
