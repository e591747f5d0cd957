// Package transport is the audio engine: it holds at most two players
// (active and pending), performs gapless or crossfaded handoff between
// them, owns the output device, and fans events out to subscribers.
package transport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/llehouerou/chorus/internal/audio"
	"github.com/llehouerou/chorus/internal/player"
	"github.com/llehouerou/chorus/internal/plugin"
)

const (
	// defaultLookahead is how close to the end of the active track the
	// pending player is started.
	defaultLookahead = 2 * time.Second
	fullBackoff      = 5 * time.Millisecond
)

// Config tunes handoff behavior.
type Config struct {
	Lookahead time.Duration
	Crossfade bool
	// CrossfadeDuration is the overlap ramp length.
	CrossfadeDuration time.Duration
}

// Transport drives playback. Public methods may be called from any
// goroutine; the feed loop is the only writer to the output.
type Transport struct {
	host *plugin.Host
	out  plugin.Output
	cfg  Config
	log  *slog.Logger

	mu      sync.Mutex
	active  *player.Player
	pending *player.Player
	state   PlaybackState
	volume  float64
	muted   bool

	feedStop chan struct{}
	feedDone chan struct{}

	subsMu sync.RWMutex
	subs   []*Subscription
}

// New creates a transport over the host's first output (or the given
// override).
func New(host *plugin.Host, out plugin.Output, cfg Config, log *slog.Logger) *Transport {
	if out == nil {
		outputs := host.Outputs()
		if len(outputs) > 0 {
			out = outputs[0]
		}
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = defaultLookahead
	}
	if cfg.Crossfade && cfg.CrossfadeDuration <= 0 {
		cfg.CrossfadeDuration = 3 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transport{
		host:   host,
		out:    out,
		cfg:    cfg,
		log:    log.With("component", "transport"),
		state:  StateStopped,
		volume: 1.0,
	}
}

// Subscribe creates a new event subscription.
func (t *Transport) Subscribe() *Subscription {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	sub := newSubscription()
	t.subs = append(t.subs, sub)
	return sub
}

func (t *Transport) emitStream(kind StreamEventKind, uri string) {
	t.subsMu.RLock()
	for _, s := range t.subs {
		s.sendStream(StreamEvent{Kind: kind, URI: uri})
	}
	t.subsMu.RUnlock()
}

func (t *Transport) emitPlayback(state PlaybackState) {
	t.subsMu.RLock()
	for _, s := range t.subs {
		s.sendPlayback(state)
	}
	t.subsMu.RUnlock()
}

func (t *Transport) emitVolume(v float64) {
	t.subsMu.RLock()
	for _, s := range t.subs {
		s.sendVolume(v)
	}
	t.subsMu.RUnlock()
}

func (t *Transport) emitTime(sec float64) {
	t.subsMu.RLock()
	for _, s := range t.subs {
		s.sendTime(sec)
	}
	t.subsMu.RUnlock()
}

// Start opens uri and begins playback, replacing whatever was playing.
func (t *Transport) Start(uri string) error {
	t.stopFeed()

	t.emitStream(StreamScheduled, uri)
	p, err := player.Open(t.host, uri, t.host.DSPs())
	if err != nil {
		t.emitStream(StreamError, uri)
		t.setState(StateStopped)
		return err
	}
	t.emitStream(StreamPrepared, uri)

	t.mu.Lock()
	t.closePlayersLocked()
	t.active = p
	t.feedStop = make(chan struct{})
	t.feedDone = make(chan struct{})
	stop, done := t.feedStop, t.feedDone
	t.mu.Unlock()

	t.out.Resume()
	t.setState(StatePlaying)
	t.emitStream(StreamPlaying, uri)
	go t.feed(stop, done)
	return nil
}

// PrepareNextTrack constructs the pending player for uri without
// starting it. An empty uri clears the pending slot, letting the
// transport drain to Stopped at end of track.
func (t *Transport) PrepareNextTrack(uri string) {
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Close()
		t.pending = nil
	}
	t.mu.Unlock()

	if uri == "" {
		return
	}

	t.emitStream(StreamScheduled, uri)
	p, err := player.Open(t.host, uri, t.host.DSPs())
	if err != nil {
		t.log.Warn("prepare next failed", "uri", uri, "err", err)
		t.emitStream(StreamError, uri)
		return
	}

	t.mu.Lock()
	t.pending = p
	t.mu.Unlock()
	t.emitStream(StreamPrepared, uri)
}

// Stop halts playback and releases both players.
func (t *Transport) Stop() {
	t.mu.Lock()
	if t.active != nil {
		t.active.Interrupt()
	}
	uri := ""
	if t.active != nil {
		uri = t.active.URI()
	}
	t.mu.Unlock()

	t.stopFeed()

	t.mu.Lock()
	t.closePlayersLocked()
	t.mu.Unlock()

	t.out.Stop()
	t.setState(StateStopped)
	if uri != "" {
		t.emitStream(StreamStopped, uri)
	}
}

// Pause suspends the output.
func (t *Transport) Pause() {
	t.mu.Lock()
	playing := t.state == StatePlaying
	t.mu.Unlock()
	if !playing {
		return
	}
	t.out.Pause()
	t.setState(StatePaused)
}

// Resume continues a paused stream.
func (t *Transport) Resume() {
	t.mu.Lock()
	paused := t.state == StatePaused
	t.mu.Unlock()
	if !paused {
		return
	}
	t.out.Resume()
	t.setState(StatePlaying)
}

// SetPosition seeks the active stream.
func (t *Transport) SetPosition(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.active.SetPosition(seconds)
	}
}

// Position returns the active stream position in seconds.
func (t *Transport) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0
	}
	return t.active.Position()
}

// Duration returns the active stream duration in seconds.
func (t *Transport) Duration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0
	}
	return t.active.Duration()
}

// State returns the playback state.
func (t *Transport) State() PlaybackState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetVolume sets output volume in 0..1.
func (t *Transport) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	t.mu.Lock()
	t.volume = v
	muted := t.muted
	t.mu.Unlock()

	if !muted {
		t.out.SetVolume(v)
	}
	t.emitVolume(v)
}

// Volume returns the configured volume.
func (t *Transport) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// SetMuted silences the output without losing the volume setting.
func (t *Transport) SetMuted(muted bool) {
	t.mu.Lock()
	t.muted = muted
	v := t.volume
	t.mu.Unlock()

	if muted {
		t.out.SetVolume(0)
	} else {
		t.out.SetVolume(v)
	}
	t.emitVolume(v)
}

// Muted reports whether the output is muted.
func (t *Transport) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

// Close stops playback and releases the output.
func (t *Transport) Close() error {
	t.Stop()
	return nil
}

func (t *Transport) setState(s PlaybackState) {
	t.mu.Lock()
	changed := t.state != s
	t.state = s
	t.mu.Unlock()
	if changed {
		t.emitPlayback(s)
	}
}

// closePlayersLocked releases both slots. Callers hold t.mu.
func (t *Transport) closePlayersLocked() {
	if t.active != nil {
		t.active.Close()
		t.active = nil
	}
	if t.pending != nil {
		t.pending.Close()
		t.pending = nil
	}
}

func (t *Transport) stopFeed() {
	t.mu.Lock()
	stop, done := t.feedStop, t.feedDone
	t.feedStop, t.feedDone = nil, nil
	t.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// feed is the single producer into the output: it pulls buffers from
// the active player, overlaps the pending player during a crossfade,
// and performs the gapless promotion when the active player drains.
func (t *Transport) feed(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	almostSent := false
	crossfading := false
	lastSecond := -1

	for {
		select {
		case <-stop:
			return
		default:
		}

		t.mu.Lock()
		active := t.active
		pending := t.pending
		paused := t.state == StatePaused
		t.mu.Unlock()

		if active == nil {
			return
		}
		if paused {
			time.Sleep(fullBackoff)
			continue
		}

		// Almost-done edge: announce and, in crossfade mode, begin the
		// overlap.
		if !almostSent {
			if rem := active.Remaining(); rem >= 0 && rem <= t.cfg.Lookahead.Seconds() {
				almostSent = true
				t.emitStream(StreamAlmostDone, active.URI())
			}
		}
		if t.cfg.Crossfade && !crossfading && pending != nil {
			if rem := active.Remaining(); rem >= 0 && rem <= t.cfg.CrossfadeDuration.Seconds() {
				crossfading = true
			}
		}

		buf, ok := active.NextBuffer()
		if !ok {
			t.emitStream(StreamFinished, active.URI())
			if t.promotePending() {
				almostSent = false
				crossfading = false
				lastSecond = -1
				continue
			}
			// No next track: drain and stop.
			t.out.Drain()
			t.out.Stop()
			t.mu.Lock()
			t.closePlayersLocked()
			uri := active.URI()
			t.feedStop, t.feedDone = nil, nil
			t.mu.Unlock()
			t.setState(StateStopped)
			t.emitStream(StreamStopped, uri)
			return
		}

		if crossfading && pending != nil {
			t.mixCrossfade(buf, active, pending)
		}

		if !t.push(buf, stop) {
			return
		}

		if sec := int(active.Position()); sec != lastSecond {
			lastSecond = sec
			t.emitTime(active.Position())
		}
	}
}

// promotePending swaps the pending player into the active slot.
// Returns false when no pending player exists.
func (t *Transport) promotePending() bool {
	t.mu.Lock()
	if t.pending == nil {
		t.mu.Unlock()
		return false
	}
	t.active.Close()
	t.active = t.pending
	t.pending = nil
	uri := t.active.URI()
	t.mu.Unlock()

	t.emitStream(StreamPlaying, uri)
	return true
}

// mixCrossfade ramps the active buffer down and mixes in the head of
// the pending stream ramped up.
func (t *Transport) mixCrossfade(buf *audio.Buffer, active, pending *player.Player) {
	fade := t.cfg.CrossfadeDuration.Seconds()
	rem := active.Remaining()
	if rem < 0 || fade <= 0 {
		return
	}
	a := rem / fade
	if a > 1 {
		a = 1
	}

	pbuf, ok := pending.NextBuffer()
	if !ok {
		return
	}
	for i := range buf.Samples {
		buf.Samples[i][0] *= a
		buf.Samples[i][1] *= a
		if i < len(pbuf.Samples) {
			buf.Samples[i][0] += pbuf.Samples[i][0] * (1 - a)
			buf.Samples[i][1] += pbuf.Samples[i][1] * (1 - a)
		}
	}
}

// push hands the buffer to the output, backing off while the output
// is full. Returns false when the feed was stopped or the output
// rejected the buffer twice.
func (t *Transport) push(buf *audio.Buffer, stop <-chan struct{}) bool {
	reopened := false
	for {
		select {
		case <-stop:
			return false
		default:
		}

		switch t.out.Play(buf) {
		case plugin.PlayBufferWritten:
			return true
		case plugin.PlayBufferFull:
			time.Sleep(fullBackoff)
		case plugin.PlayInvalidFormat:
			// Re-open the output with the new parameters once;
			// escalate to stopped on repeated failure.
			if reopened {
				t.log.Error("output rejected format twice, stopping")
				t.setState(StateStopped)
				return false
			}
			reopened = true
			t.out.Stop()
		case plugin.PlayInvalidState:
			t.out.Resume()
			if reopened {
				return false
			}
			reopened = true
		}
	}
}
