package tags

import (
	"fmt"
	"io"
	"os"
	"time"

	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2"
	beepflac "github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ReadAudioInfo reads audio stream properties (duration, format,
// sample rate). It uses lighter-weight methods than full decoding
// where possible.
func ReadAudioInfo(path string) (*AudioInfo, error) {
	ext := extOf(path)
	if !CanRead(ext) {
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}

	if ext == ExtFLAC {
		if info, err := readFLACStreamInfo(path); err == nil {
			return info, nil
		}
	}

	return readWithBeep(path, ext)
}

// readFLACStreamInfo extracts audio info from FLAC streaminfo
// metadata without decoding.
func readFLACStreamInfo(path string) (*AudioInfo, error) {
	flacFile, err := goflac.ParseFile(path)
	if err != nil {
		return nil, err
	}

	for _, meta := range flacFile.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data

		// Sample rate: 20 bits starting at byte 10.
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		// Bits per sample: 5 bits straddling bytes 12-13, stored minus one.
		bitsPerSample := (int(data[12])&0x01)<<4 | int(data[13])>>4 + 1
		// Total samples: 36 bits straddling bytes 13-17.
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 |
			int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])

		duration := time.Duration(0)
		if sampleRate > 0 {
			duration = time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second))
		}

		return &AudioInfo{
			Duration:   duration,
			Format:     "FLAC",
			SampleRate: sampleRate,
			BitDepth:   bitsPerSample,
		}, nil
	}
	return nil, fmt.Errorf("flac: no streaminfo block")
}

// readWithBeep decodes the stream header with the matching beep
// decoder and derives the duration from the stream length.
func readWithBeep(path, ext string) (*AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var streamer beep.StreamSeekCloser
	var format beep.Format
	var name string

	switch ext {
	case ExtMP3:
		streamer, format, err = mp3.Decode(f)
		name = "MP3"
	case ExtFLAC:
		if err := SkipID3v2(f); err != nil {
			return nil, err
		}
		streamer, format, err = beepflac.Decode(f)
		name = "FLAC"
	case ExtOGG, ExtOGA, ExtOPUS:
		streamer, format, err = vorbis.Decode(f)
		name = "OGG"
	case ExtWAV:
		streamer, format, err = wav.Decode(f)
		name = "WAV"
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	return &AudioInfo{
		Duration:   format.SampleRate.D(streamer.Len()),
		Format:     name,
		SampleRate: int(format.SampleRate),
		BitDepth:   format.Precision * 8,
	}, nil
}

// SkipID3v2 skips an ID3v2 tag if present at the beginning of the
// stream. Some FLAC files have ID3v2 tags prepended, which the FLAC
// decoder doesn't handle.
func SkipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := r.Read(header)
	if err != nil {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// ID3v2 size is a syncsafe integer in bytes 6-9: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
