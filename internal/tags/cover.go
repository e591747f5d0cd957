package tags

import (
	"os"
	"path/filepath"
	"strings"
)

// Common cover art filenames to look for in album folders.
var coverArtFilenames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"album.jpg", "album.jpeg", "album.png",
	"front.jpg", "front.jpeg", "front.png",
}

// FindFolderArt looks for common cover art files in the given
// directory. Returns nil when none is found.
func FindFolderArt(dir string) []byte {
	for _, filename := range coverArtFilenames {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			// Try the upper-case file name
			data, err = os.ReadFile(filepath.Join(dir, strings.ToUpper(filename)))
			if err != nil {
				continue
			}
		}
		return data
	}
	return nil
}
