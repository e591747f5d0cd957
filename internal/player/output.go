package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/llehouerou/chorus/internal/audio"
	"github.com/llehouerou/chorus/internal/plugin"
)

const (
	outputQueueBuffers = 8
	speakerBufferLen   = time.Second / 10
)

// speakerOutput is the built-in audio sink over the beep speaker.
// Buffers handed to Play queue into a streamer the speaker pulls from;
// a full queue reports PlayBufferFull so the feed loop can back off.
type speakerOutput struct {
	mu          sync.Mutex
	queue       chan *audio.Buffer
	pending     *audio.Buffer
	pendingOff  int
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	sampleRate  beep.SampleRate
	initialized bool
	stopped     bool
	vol         float64
}

var _ plugin.Output = (*speakerOutput)(nil)

func newSpeakerOutput() *speakerOutput {
	return &speakerOutput{
		queue: make(chan *audio.Buffer, outputQueueBuffers),
		vol:   1.0,
	}
}

func (o *speakerOutput) Name() string { return "speaker" }

// Play enqueues buf. The speaker is initialized from the sample rate
// of the first buffer after construction or Stop; buffers with another
// rate are queued unchanged and play at that rate, without resampling.
func (o *speakerOutput) Play(buf *audio.Buffer) plugin.PlayResult {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return plugin.PlayInvalidState
	}
	if buf == nil || buf.SampleRate <= 0 {
		o.mu.Unlock()
		return plugin.PlayInvalidFormat
	}

	if !o.initialized {
		if err := o.initSpeaker(beep.SampleRate(buf.SampleRate)); err != nil {
			o.mu.Unlock()
			return plugin.PlayInvalidFormat
		}
	}
	o.mu.Unlock()

	select {
	case o.queue <- buf:
		return plugin.PlayBufferWritten
	default:
		return plugin.PlayBufferFull
	}
}

// initSpeaker starts the beep speaker pulling from the queue.
// Callers hold o.mu.
func (o *speakerOutput) initSpeaker(rate beep.SampleRate) error {
	if err := speaker.Init(rate, rate.N(speakerBufferLen)); err != nil {
		return err
	}
	o.sampleRate = rate

	streamer := beep.StreamerFunc(o.stream)
	o.ctrl = &beep.Ctrl{Streamer: streamer}
	o.volume = &effects.Volume{Streamer: o.ctrl, Base: 2, Volume: volumeToGain(o.vol), Silent: o.vol == 0}
	speaker.Play(o.volume)
	o.initialized = true
	return nil
}

// stream feeds the speaker from the buffer queue. It never reports
// stream end; silence fills gaps so the output survives track
// transitions.
func (o *speakerOutput) stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) {
		if o.pending == nil || o.pendingOff >= len(o.pending.Samples) {
			select {
			case buf := <-o.queue:
				o.pending = buf
				o.pendingOff = 0
				continue
			default:
				// queue empty: pad with silence
				for ; n < len(samples); n++ {
					samples[n] = [2]float64{}
				}
				return n, true
			}
		}
		avail := o.pending.Samples[o.pendingOff:]
		copied := copy(samples[n:], avail)
		o.pendingOff += copied
		n += copied
	}
	return n, true
}

func (o *speakerOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return
	}
	speaker.Lock()
	o.ctrl.Paused = true
	speaker.Unlock()
}

func (o *speakerOutput) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctrl == nil {
		return
	}
	speaker.Lock()
	o.ctrl.Paused = false
	speaker.Unlock()
}

func (o *speakerOutput) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drainQueueLocked()
	if o.initialized {
		speaker.Clear()
		o.initialized = false
		o.ctrl = nil
		o.volume = nil
	}
}

// Drain blocks until the queued audio has been consumed.
func (o *speakerOutput) Drain() {
	for {
		o.mu.Lock()
		empty := len(o.queue) == 0 && (o.pending == nil || o.pendingOff >= len(o.pending.Samples))
		o.mu.Unlock()
		if empty {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (o *speakerOutput) drainQueueLocked() {
	for {
		select {
		case <-o.queue:
		default:
			o.pending = nil
			o.pendingOff = 0
			return
		}
	}
}

func (o *speakerOutput) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.vol = v
	if o.volume == nil {
		return
	}
	speaker.Lock()
	o.volume.Volume = volumeToGain(v)
	o.volume.Silent = v == 0
	speaker.Unlock()
}

func (o *speakerOutput) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vol
}

func (o *speakerOutput) Latency() time.Duration {
	return speakerBufferLen
}

// Devices lists selectable devices. The beep speaker always plays
// through the system default.
func (o *speakerOutput) Devices() []string {
	return []string{"default"}
}

func (o *speakerOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	if o.initialized {
		speaker.Clear()
		o.initialized = false
	}
	return nil
}

// volumeToGain maps a linear 0..1 volume onto the exponential scale
// beep's Volume effect expects.
func volumeToGain(v float64) float64 {
	if v <= 0 {
		return -10
	}
	// v=1 → 0 dB gain; v=0.5 → -2 (base 2)
	return -2 * (1 - v) * 2
}

func init() {
	plugin.Register(func(plugin.Environment) ([]plugin.Capability, error) {
		return []plugin.Capability{{
			Info: plugin.Info{
				Name:       "speaker-output",
				Version:    "1.0",
				Author:     "chorus",
				GUID:       "builtin-speaker-output",
				SDKVersion: plugin.SDKVersion,
			},
			Output: newSpeakerOutput(),
		}}, nil
	})
}
