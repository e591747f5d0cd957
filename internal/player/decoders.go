package player

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/llehouerou/chorus/internal/audio"
	"github.com/llehouerou/chorus/internal/plugin"
	"github.com/llehouerou/chorus/internal/tags"
)

// decodeBlockFrames is the pull size of the built-in decoders.
const decodeBlockFrames = 1024

// beepDecode opens a beep streamer over a data stream for one format.
type beepDecode func(s plugin.DataStream) (beep.StreamSeekCloser, beep.Format, error)

// beepFactory adapts one beep codec into a plugin.DecoderFactory.
type beepFactory struct {
	types  map[string]bool
	decode beepDecode
}

var _ plugin.DecoderFactory = (*beepFactory)(nil)

func (f *beepFactory) CanHandle(typ string) bool {
	return f.types[typ]
}

func (f *beepFactory) NewDecoder() plugin.Decoder {
	return &beepDecoder{decode: f.decode}
}

// beepDecoder wraps a beep streamer behind the plugin decoder
// contract.
type beepDecoder struct {
	decode   beepDecode
	streamer beep.StreamSeekCloser
	format   beep.Format
	eof      bool
}

var _ plugin.Decoder = (*beepDecoder)(nil)

func (d *beepDecoder) Open(stream plugin.DataStream) error {
	streamer, format, err := d.decode(stream)
	if err != nil {
		return err
	}
	d.streamer = streamer
	d.format = format
	return nil
}

func (d *beepDecoder) FillBuffer(buf *audio.Buffer) bool {
	if d.streamer == nil || d.eof {
		return false
	}
	samples := make([][2]float64, decodeBlockFrames)
	n, ok := d.streamer.Stream(samples)
	if n == 0 && !ok {
		d.eof = true
		return false
	}
	buf.Samples = samples[:n]
	buf.SampleRate = int(d.format.SampleRate)
	buf.Channels = d.format.NumChannels
	if !ok {
		d.eof = true
	}
	return true
}

func (d *beepDecoder) SetPosition(seconds float64) float64 {
	if d.streamer == nil {
		return -1
	}
	pos := d.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if pos < 0 {
		pos = 0
	}
	if end := d.streamer.Len(); pos > end {
		pos = end
	}
	if err := d.streamer.Seek(pos); err != nil {
		return -1
	}
	d.eof = false
	return float64(pos) / float64(d.format.SampleRate)
}

func (d *beepDecoder) Duration() float64 {
	if d.streamer == nil || d.format.SampleRate == 0 {
		return 0
	}
	return float64(d.streamer.Len()) / float64(d.format.SampleRate)
}

func (d *beepDecoder) EOF() bool { return d.eof }

func (d *beepDecoder) Close() error {
	if d.streamer == nil {
		return nil
	}
	return d.streamer.Close()
}

func init() {
	plugin.Register(func(plugin.Environment) ([]plugin.Capability, error) {
		info := func(name string) plugin.Info {
			return plugin.Info{
				Name:       name,
				Version:    "1.0",
				Author:     "chorus",
				GUID:       "builtin-" + name,
				SDKVersion: plugin.SDKVersion,
			}
		}
		return []plugin.Capability{
			{
				Info: info("mp3-decoder"),
				DecoderFac: &beepFactory{
					types: map[string]bool{".mp3": true, "audio/mpeg": true},
					decode: func(s plugin.DataStream) (beep.StreamSeekCloser, beep.Format, error) {
						return mp3.Decode(s)
					},
				},
			},
			{
				Info: info("flac-decoder"),
				DecoderFac: &beepFactory{
					types: map[string]bool{".flac": true, "audio/flac": true},
					decode: func(s plugin.DataStream) (beep.StreamSeekCloser, beep.Format, error) {
						// Some taggers prepend ID3v2 to FLAC files.
						if err := tags.SkipID3v2(s); err != nil {
							return nil, beep.Format{}, err
						}
						return flac.Decode(s)
					},
				},
			},
			{
				Info: info("vorbis-decoder"),
				DecoderFac: &beepFactory{
					types: map[string]bool{".ogg": true, ".oga": true, "audio/ogg": true},
					decode: func(s plugin.DataStream) (beep.StreamSeekCloser, beep.Format, error) {
						return vorbis.Decode(s)
					},
				},
			},
			{
				Info: info("wav-decoder"),
				DecoderFac: &beepFactory{
					types: map[string]bool{".wav": true, "audio/wav": true},
					decode: func(s plugin.DataStream) (beep.StreamSeekCloser, beep.Format, error) {
						return wav.Decode(s)
					},
				},
			},
			{
				Info:      info("file-stream"),
				StreamFac: fileStreamFactory{},
			},
			{
				Info:      info("http-stream"),
				StreamFac: httpStreamFactory{},
			},
		}, nil
	})
}
