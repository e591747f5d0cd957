package transport

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/llehouerou/chorus/internal/audio"
	"github.com/llehouerou/chorus/internal/player"
	"github.com/llehouerou/chorus/internal/plugin"
)

// openFake opens a pipeline over the fake plugins and advances it by
// the given number of buffers.
func openFake(t *testing.T, host *plugin.Host, advance int) *player.Player {
	t.Helper()
	p, err := player.Open(host, "x.fake", nil)
	if err != nil {
		t.Fatalf("open player: %v", err)
	}
	for range advance {
		p.NextBuffer()
	}
	return p
}

const (
	testSampleRate   = 44100
	testBufferFrames = 4410 // 0.1s per buffer
	testBuffers      = 20   // 2s per track
)

// fakeStream satisfies the data stream contract for in-memory tests.
type fakeStream struct{ uri string }

func (s *fakeStream) Read([]byte) (int, error)        { return 0, io.EOF }
func (s *fakeStream) Seek(int64, int) (int64, error)  { return 0, nil }
func (s *fakeStream) Close() error                    { return nil }
func (s *fakeStream) Length() int64                   { return 0 }
func (s *fakeStream) Type() string                    { return ".fake" }
func (s *fakeStream) URI() string                     { return s.uri }
func (s *fakeStream) CanPrefetch() bool               { return true }
func (s *fakeStream) Interrupt()                      {}

type fakeStreamFactory struct{}

func (fakeStreamFactory) CanOpen(string) bool { return true }
func (fakeStreamFactory) Open(uri string) (plugin.DataStream, error) {
	return &fakeStream{uri: uri}, nil
}

// fakeDecoder produces testBuffers buffers of silence, 0.1s each.
type fakeDecoder struct {
	produced int
}

func (d *fakeDecoder) Open(plugin.DataStream) error { return nil }

func (d *fakeDecoder) FillBuffer(buf *audio.Buffer) bool {
	if d.produced >= testBuffers {
		return false
	}
	d.produced++
	buf.Samples = make([][2]float64, testBufferFrames)
	buf.SampleRate = testSampleRate
	buf.Channels = 2
	return true
}

func (d *fakeDecoder) SetPosition(sec float64) float64 {
	d.produced = int(sec * 10)
	return sec
}

func (d *fakeDecoder) Duration() float64 { return float64(testBuffers) / 10 }
func (d *fakeDecoder) EOF() bool         { return d.produced >= testBuffers }
func (d *fakeDecoder) Close() error      { return nil }

type fakeDecoderFactory struct{}

func (fakeDecoderFactory) CanHandle(typ string) bool  { return typ == ".fake" }
func (fakeDecoderFactory) NewDecoder() plugin.Decoder { return &fakeDecoder{} }

// mockOutput accepts every buffer and counts them.
type mockOutput struct {
	mu      sync.Mutex
	buffers int
	stopped bool
	volume  float64
}

func (o *mockOutput) Name() string { return "mock" }

func (o *mockOutput) Play(*audio.Buffer) plugin.PlayResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buffers++
	return plugin.PlayBufferWritten
}

func (o *mockOutput) Pause()  {}
func (o *mockOutput) Resume() {}

func (o *mockOutput) Stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
}

func (o *mockOutput) Drain() {}

func (o *mockOutput) SetVolume(v float64) {
	o.mu.Lock()
	o.volume = v
	o.mu.Unlock()
}

func (o *mockOutput) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

func (o *mockOutput) Latency() time.Duration { return 0 }
func (o *mockOutput) Devices() []string      { return []string{"mock"} }
func (o *mockOutput) Close() error           { return nil }

func testHost(t *testing.T) *plugin.Host {
	t.Helper()
	return plugin.NewHostWith(plugin.Environment{}, func(plugin.Environment) ([]plugin.Capability, error) {
		return []plugin.Capability{
			{
				Info:      plugin.Info{Name: "fake-stream", GUID: "t-stream", SDKVersion: plugin.SDKVersion},
				StreamFac: fakeStreamFactory{},
			},
			{
				Info:       plugin.Info{Name: "fake-decoder", GUID: "t-decoder", SDKVersion: plugin.SDKVersion},
				DecoderFac: fakeDecoderFactory{},
			},
		}, nil
	})
}

func newTestTransport(t *testing.T) (*Transport, *mockOutput) {
	t.Helper()
	out := &mockOutput{}
	tr := New(testHost(t), out, Config{}, nil)
	t.Cleanup(tr.Stop)
	return tr, out
}

// collectUntil drains stream events until match returns true or the
// timeout expires.
func collectUntil(t *testing.T, sub *Subscription, timeout time.Duration, match func(StreamEvent) bool) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	deadline := time.After(timeout)
	for {
		select {
		case e := <-sub.Stream:
			events = append(events, e)
			if match(e) {
				return events
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event; got %v", events)
		}
	}
}

func TestStart_EmitsLifecycleEvents(t *testing.T) {
	tr, _ := newTestTransport(t)
	sub := tr.Subscribe()

	if err := tr.Start("t1.fake"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events := collectUntil(t, sub, time.Second, func(e StreamEvent) bool {
		return e.Kind == StreamPlaying
	})

	kinds := make([]StreamEventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	want := []StreamEventKind{StreamScheduled, StreamPrepared, StreamPlaying}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, expected %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event[%d] = %v, expected %v", i, kinds[i], want[i])
		}
	}
}

func TestGaplessAdvance(t *testing.T) {
	tr, _ := newTestTransport(t)
	sub := tr.Subscribe()

	if err := tr.Start("t1.fake"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tr.PrepareNextTrack("t2.fake")

	events := collectUntil(t, sub, 5*time.Second, func(e StreamEvent) bool {
		return e.Kind == StreamPlaying && e.URI == "t2.fake"
	})

	// exactly one finished for t1 before t2 starts
	finished := 0
	for _, e := range events {
		if e.Kind == StreamFinished && e.URI == "t1.fake" {
			finished++
		}
		if e.Kind == StreamStopped {
			t.Errorf("unexpected Stopped during gapless handoff: %v", events)
		}
	}
	if finished != 1 {
		t.Errorf("expected exactly one Finished(t1), got %d", finished)
	}

	// no intermediate Stopped playback state either
	for {
		select {
		case st := <-sub.Playback:
			if st == StateStopped {
				t.Error("playback state dropped to Stopped during handoff")
			}
			continue
		default:
		}
		break
	}
}

func TestDrainToStoppedWithoutNext(t *testing.T) {
	tr, out := newTestTransport(t)
	sub := tr.Subscribe()

	if err := tr.Start("t1.fake"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tr.PrepareNextTrack("")

	collectUntil(t, sub, 5*time.Second, func(e StreamEvent) bool {
		return e.Kind == StreamStopped
	})

	if tr.State() != StateStopped {
		t.Errorf("state = %v, expected Stopped", tr.State())
	}
	out.mu.Lock()
	defer out.mu.Unlock()
	if !out.stopped {
		t.Error("expected the output to be stopped after drain")
	}
}

func TestAlmostDone_EmittedWithinLookahead(t *testing.T) {
	tr, _ := newTestTransport(t)
	sub := tr.Subscribe()

	if err := tr.Start("t1.fake"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events := collectUntil(t, sub, 5*time.Second, func(e StreamEvent) bool {
		return e.Kind == StreamAlmostDone
	})
	last := events[len(events)-1]
	if last.URI != "t1.fake" {
		t.Errorf("almost-done uri = %q", last.URI)
	}
}

func TestPauseResume(t *testing.T) {
	tr, _ := newTestTransport(t)

	if err := tr.Start("t1.fake"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tr.Pause()
	if tr.State() != StatePaused {
		t.Errorf("state = %v, expected Paused", tr.State())
	}
	tr.Resume()
	if tr.State() != StatePlaying {
		t.Errorf("state = %v, expected Playing", tr.State())
	}
}

func TestSetVolume_ClampsAndForwards(t *testing.T) {
	tr, out := newTestTransport(t)

	tr.SetVolume(1.5)
	if tr.Volume() != 1.0 {
		t.Errorf("volume = %v, expected clamp to 1", tr.Volume())
	}
	if out.Volume() != 1.0 {
		t.Error("expected forwarded volume")
	}

	tr.SetMuted(true)
	if out.Volume() != 0 {
		t.Error("mute should silence the output")
	}
	tr.SetMuted(false)
	if out.Volume() != 1.0 {
		t.Error("unmute should restore the volume")
	}
}

func TestMixCrossfade_RampsBothStreams(t *testing.T) {
	tr, _ := newTestTransport(t)
	tr.cfg.Crossfade = true
	tr.cfg.CrossfadeDuration = time.Second

	host := testHost(t)
	buf := &audio.Buffer{Samples: [][2]float64{{1, 1}, {1, 1}}, SampleRate: testSampleRate}
	// An active player 0.5s from the end of its 2s track.
	active := openFake(t, host, 15)
	pending := openFake(t, host, 0)

	tr.mixCrossfade(buf, active, pending)
	// remaining 0.5 of fade 1.0 → active scaled by 0.5
	if buf.Samples[0][0] <= 0.4 || buf.Samples[0][0] >= 0.7 {
		t.Errorf("mixed sample = %v, expected around 0.5", buf.Samples[0][0])
	}
}
