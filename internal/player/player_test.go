package player

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/chorus/internal/audio"
	"github.com/llehouerou/chorus/internal/plugin"
)

type memStream struct{ uri string }

func (s *memStream) Read([]byte) (int, error)       { return 0, io.EOF }
func (s *memStream) Seek(int64, int) (int64, error) { return 0, nil }
func (s *memStream) Close() error                   { return nil }
func (s *memStream) Length() int64                  { return 0 }
func (s *memStream) Type() string                   { return ".mem" }
func (s *memStream) URI() string                    { return s.uri }
func (s *memStream) CanPrefetch() bool              { return true }
func (s *memStream) Interrupt()                     {}

type memStreamFactory struct{}

func (memStreamFactory) CanOpen(uri string) bool { return true }
func (memStreamFactory) Open(uri string) (plugin.DataStream, error) {
	return &memStream{uri: uri}, nil
}

// rampDecoder emits blocks of constant 0.5 samples so DSP effects are
// observable.
type rampDecoder struct {
	blocks int
	n      int
}

func (d *rampDecoder) Open(plugin.DataStream) error { return nil }

func (d *rampDecoder) FillBuffer(buf *audio.Buffer) bool {
	if d.n >= d.blocks {
		return false
	}
	d.n++
	buf.Samples = [][2]float64{{0.5, 0.5}, {0.5, 0.5}}
	buf.SampleRate = 2 // two frames per second for easy math
	buf.Channels = 2
	return true
}

func (d *rampDecoder) SetPosition(sec float64) float64 { return sec }
func (d *rampDecoder) Duration() float64               { return float64(d.blocks) }
func (d *rampDecoder) EOF() bool                       { return d.n >= d.blocks }
func (d *rampDecoder) Close() error                    { return nil }

type memDecoderFactory struct{}

func (memDecoderFactory) CanHandle(typ string) bool  { return typ == ".mem" }
func (memDecoderFactory) NewDecoder() plugin.Decoder { return &rampDecoder{blocks: 3} }

// halver is a DSP scaling every sample by one half.
type halver struct{}

func (halver) Name() string { return "halver" }

func (halver) Process(buf *audio.Buffer) bool {
	for i := range buf.Samples {
		buf.Samples[i][0] /= 2
		buf.Samples[i][1] /= 2
	}
	return true
}

func memHost(t *testing.T, withDSP bool) *plugin.Host {
	t.Helper()
	caps := []plugin.Capability{
		{
			Info:      plugin.Info{Name: "mem-stream", GUID: "m-s", SDKVersion: plugin.SDKVersion},
			StreamFac: memStreamFactory{},
		},
		{
			Info:       plugin.Info{Name: "mem-decoder", GUID: "m-d", SDKVersion: plugin.SDKVersion},
			DecoderFac: memDecoderFactory{},
		},
	}
	if withDSP {
		caps = append(caps, plugin.Capability{
			Info: plugin.Info{Name: "halver", GUID: "m-h", SDKVersion: plugin.SDKVersion},
			DSP:  halver{},
		})
	}
	return plugin.NewHostWith(plugin.Environment{}, func(plugin.Environment) ([]plugin.Capability, error) {
		return caps, nil
	})
}

func TestOpen_NoFactoryMatches(t *testing.T) {
	host := plugin.NewHostWith(plugin.Environment{})
	_, err := Open(host, "x.mem", nil)
	assert.ErrorIs(t, err, ErrNoStream)
}

func TestOpen_NoDecoderMatches(t *testing.T) {
	host := plugin.NewHostWith(plugin.Environment{}, func(plugin.Environment) ([]plugin.Capability, error) {
		return []plugin.Capability{{
			Info:      plugin.Info{Name: "mem-stream", GUID: "m-s", SDKVersion: plugin.SDKVersion},
			StreamFac: memStreamFactory{},
		}}, nil
	})
	_, err := Open(host, "x.unknowable", nil)
	assert.ErrorIs(t, err, ErrNoDecoder)
}

func TestPlayer_PositionAdvancesWithBuffers(t *testing.T) {
	p, err := Open(memHost(t, false), "x.mem", nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 3.0, p.Duration())

	buf, ok := p.NextBuffer()
	require.True(t, ok)
	assert.Len(t, buf.Samples, 2)
	assert.Equal(t, 1.0, p.Position()) // 2 frames at 2 Hz

	p.NextBuffer()
	p.NextBuffer()
	assert.Equal(t, 3.0, p.Position())
	assert.InDelta(t, 0.0, p.Remaining(), 1e-9)

	_, ok = p.NextBuffer()
	assert.False(t, ok)
	assert.True(t, p.EOF())
}

func TestPlayer_DSPChainApplied(t *testing.T) {
	host := memHost(t, true)
	p, err := Open(host, "x.mem", host.DSPs())
	require.NoError(t, err)
	defer p.Close()

	buf, ok := p.NextBuffer()
	require.True(t, ok)
	assert.Equal(t, 0.25, buf.Samples[0][0], "dsp chain should halve the samples")
}

func TestAnalysisOpener_NoDSP(t *testing.T) {
	host := memHost(t, true)
	open := AnalysisOpener(host)

	src, err := open("x.mem")
	require.NoError(t, err)
	defer src.Close()

	buf, ok := src.Next()
	require.True(t, ok)
	assert.Equal(t, 0.5, buf.Samples[0][0], "analysis streams bypass the dsp chain")
}
