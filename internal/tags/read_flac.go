package tags

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
	"go.senan.xyz/taglib"
)

// readFLACWithTaglib reads FLAC metadata using TagLib as fallback when
// dhowden/tag fails.
func readFLACWithTaglib(path string) (*Tag, error) {
	t, err := readWithTaglib(path)
	if err != nil {
		return nil, err
	}
	readFLACExtendedTags(path, t)
	return t, nil
}

// readWithTaglib reads basic metadata for any container TagLib
// understands.
func readWithTaglib(path string) (*Tag, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tl := taglibTags(rawTags)

	title := tl.get(taglib.Title)
	if title == "" {
		title = filepath.Base(path)
	}

	artist := tl.get(taglib.Artist)
	albumArtist := tl.get(taglib.AlbumArtist)
	if albumArtist == "" {
		albumArtist = artist
	}

	return &Tag{
		Path:        path,
		Title:       title,
		Artist:      artist,
		AlbumArtist: albumArtist,
		Album:       tl.get(taglib.Album),
		Genre:       tl.get(taglib.Genre),
		Date:        tl.get(taglib.Date, "YEAR"),
		TrackNumber: tl.getInt(taglib.TrackNumber),
		TotalTracks: tl.getInt("TOTALTRACKS"),
		DiscNumber:  tl.getInt(taglib.DiscNumber),
		TotalDiscs:  tl.getInt("TOTALDISCS"),
	}, nil
}

// readFLACExtendedTags reads extended Vorbis comments and embedded
// pictures from a FLAC file.
func readFLACExtendedTags(path string, t *Tag) {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return
	}

	for _, meta := range f.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				continue
			}
			applyVorbisComments(vorbisMap(cmt), t)
		case goflac.Picture:
			if len(t.CoverArt) > 0 {
				continue
			}
			pic, err := flacpicture.ParseFromMetaDataBlock(*meta)
			if err == nil && pic.PictureType == flacpicture.PictureTypeFrontCover {
				t.CoverArt = pic.ImageData
			}
		}
	}
}

func vorbisMap(cmt *flacvorbis.MetaDataBlockVorbisComment) map[string]string {
	comments := make(map[string]string, len(cmt.Comments))
	for _, c := range cmt.Comments {
		if idx := strings.Index(c, "="); idx > 0 {
			comments[strings.ToUpper(c[:idx])] = c[idx+1:]
		}
	}
	return comments
}

func applyVorbisComments(comments map[string]string, t *Tag) {
	if t.Date == "" {
		t.Date = comments["DATE"]
	}
	if t.Date == "" {
		t.Date = comments["YEAR"]
	}
	t.OriginalDate = comments["ORIGINALDATE"]
	if t.OriginalDate == "" {
		t.OriginalDate = comments["ORIGINALYEAR"]
	}

	t.Label = comments["LABEL"]
	t.CatalogNumber = comments["CATALOGNUMBER"]
	t.ISRC = comments["ISRC"]

	if bpm := comments["BPM"]; bpm != "" {
		if v, err := strconv.ParseFloat(bpm, 64); err == nil {
			t.BPM = v
		}
	}

	if t.TotalTracks == 0 {
		if n, err := strconv.Atoi(comments["TOTALTRACKS"]); err == nil {
			t.TotalTracks = n
		}
	}
	if t.TotalDiscs == 0 {
		if n, err := strconv.Atoi(comments["TOTALDISCS"]); err == nil {
			t.TotalDiscs = n
		}
	}
}
