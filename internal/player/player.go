// Package player implements the per-track decode pipeline: data
// stream → decoder → DSP chain, pulled by the transport's feed loop.
package player

import (
	"errors"
	"fmt"
	"strings"

	"github.com/llehouerou/chorus/internal/audio"
	"github.com/llehouerou/chorus/internal/plugin"
)

// Errors returned when a pipeline cannot be assembled.
var (
	ErrNoStream  = errors.New("no data stream factory accepts the uri")
	ErrNoDecoder = errors.New("no decoder accepts the stream type")
)

// Player is one open decode pipeline. It is passive: the transport
// pulls buffers out of it.
type Player struct {
	uri     string
	stream  plugin.DataStream
	decoder plugin.Decoder
	dsps    []plugin.DSP

	sampleRate int
	position   float64 // seconds delivered
	duration   float64
	eof        bool
}

// Open assembles the pipeline for uri: the first stream factory that
// accepts the uri opens it, and the first decoder factory whose
// CanHandle matches the stream type decodes it. dsps may be nil for
// no-DSP mode.
func Open(host *plugin.Host, uri string, dsps []plugin.DSP) (*Player, error) {
	var stream plugin.DataStream
	for _, f := range host.StreamFactories() {
		if f.CanOpen(uri) {
			s, err := f.Open(uri)
			if err != nil {
				return nil, fmt.Errorf("open stream: %w", err)
			}
			stream = s
			break
		}
	}
	if stream == nil {
		return nil, ErrNoStream
	}

	typ := strings.ToLower(stream.Type())
	var decoder plugin.Decoder
	for _, f := range host.DecoderFactories() {
		if f.CanHandle(typ) {
			decoder = f.NewDecoder()
			break
		}
	}
	if decoder == nil {
		stream.Close()
		return nil, ErrNoDecoder
	}

	if err := decoder.Open(stream); err != nil {
		stream.Close()
		return nil, fmt.Errorf("open decoder: %w", err)
	}

	return &Player{
		uri:      uri,
		stream:   stream,
		decoder:  decoder,
		dsps:     dsps,
		duration: decoder.Duration(),
	}, nil
}

// URI returns the pipeline's source location.
func (p *Player) URI() string { return p.uri }

// NextBuffer decodes the next block, routes it through the DSP chain,
// and returns it. Returns false at end of stream.
func (p *Player) NextBuffer() (*audio.Buffer, bool) {
	if p.eof {
		return nil, false
	}

	buf := &audio.Buffer{}
	if !p.decoder.FillBuffer(buf) {
		p.eof = true
		return nil, false
	}
	if buf.SampleRate > 0 {
		p.sampleRate = buf.SampleRate
	}

	for _, dsp := range p.dsps {
		dsp.Process(buf)
	}

	if buf.SampleRate > 0 {
		p.position += float64(len(buf.Samples)) / float64(buf.SampleRate)
	}
	return buf, true
}

// Position returns the seconds of audio delivered so far.
func (p *Player) Position() float64 { return p.position }

// Duration returns the track duration in seconds, when known.
func (p *Player) Duration() float64 { return p.duration }

// Remaining returns the seconds left, or -1 when duration is unknown.
func (p *Player) Remaining() float64 {
	if p.duration <= 0 {
		return -1
	}
	r := p.duration - p.position
	if r < 0 {
		r = 0
	}
	return r
}

// EOF reports whether the decoder is exhausted.
func (p *Player) EOF() bool { return p.eof }

// SetPosition seeks to the given offset and returns the position
// actually reached.
func (p *Player) SetPosition(seconds float64) float64 {
	reached := p.decoder.SetPosition(seconds)
	if reached >= 0 {
		p.position = reached
		p.eof = false
	}
	return reached
}

// Interrupt unblocks a pending stream read. Safe from any goroutine.
func (p *Player) Interrupt() {
	p.stream.Interrupt()
}

// Close tears the pipeline down.
func (p *Player) Close() error {
	derr := p.decoder.Close()
	serr := p.stream.Close()
	if derr != nil {
		return derr
	}
	return serr
}
