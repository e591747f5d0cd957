// Package plugin defines the capability contracts between the engine
// and its extensions: metadata readers, decoders, data streams,
// outputs, DSPs, playback remotes, indexer sources, encoders, and
// preference schemas.
//
// A plugin is a record of optional capabilities. Built-in capabilities
// register in-process; external ones are discovered as shared
// libraries exporting a ChorusPlugin symbol.
package plugin

import (
	"io"
	"log/slog"
	"time"

	"github.com/llehouerou/chorus/internal/audio"
)

// SDKVersion is the capability contract revision. Plugins compiled
// against a different revision are skipped at load time.
const SDKVersion = 1

// Info identifies a plugin.
type Info struct {
	Name         string
	Version      string
	Author       string
	GUID         string
	Configurable bool
	SDKVersion   int
}

// Environment is the explicit context handed to a plugin at load time,
// replacing process-wide globals: the library directory, a preference
// opener scoped by component name, and a logger.
type Environment struct {
	LibraryDir string
	OpenPrefs  func(component string) (Preferences, error)
	Log        *slog.Logger
}

// Preferences is typed access to one component's preference file.
type Preferences interface {
	GetBool(key string, def bool) bool
	GetInt(key string, def int) int
	GetFloat(key string, def float64) float64
	GetString(key string, def string) string
	SetBool(key string, v bool)
	SetInt(key string, v int)
	SetFloat(key string, v float64)
	SetString(key string, v string)
	Save() error
}

// TrackWriter is the indexer-facing write surface of a track record.
// Metadata readers and indexer sources fill tracks through it.
type TrackWriter interface {
	Set(key, value string)
	SetInt64(key string, value int64)
	SetFloat64(key string, value float64)
	SetThumbnail(data []byte)
	URI() string
}

// MetadataReader extracts tags from a file into a track record.
type MetadataReader interface {
	CanRead(ext string) bool
	ReadTag(path string, track TrackWriter) error
}

// DataStream is an opaque, seekable byte stream over a URI.
type DataStream interface {
	io.ReadSeekCloser
	Length() int64
	Type() string // mime type or lowercased extension
	URI() string
	CanPrefetch() bool
	// Interrupt unblocks a pending Read. Safe from any goroutine.
	Interrupt()
}

// DataStreamFactory opens streams for the URI schemes it supports.
type DataStreamFactory interface {
	CanOpen(uri string) bool
	Open(uri string) (DataStream, error)
}

// Decoder pulls sample buffers out of a data stream.
type Decoder interface {
	Open(stream DataStream) error
	// FillBuffer decodes into buf, resizing its sample slice. Returns
	// false at end of stream.
	FillBuffer(buf *audio.Buffer) bool
	// SetPosition seeks to the given offset and returns the position
	// actually reached, or a negative value on failure.
	SetPosition(seconds float64) float64
	Duration() float64
	EOF() bool
	Close() error
}

// DecoderFactory creates decoders for the stream types it supports.
type DecoderFactory interface {
	CanHandle(typ string) bool
	NewDecoder() Decoder
}

// PlayResult is the outcome of handing a buffer to an output.
type PlayResult int

const (
	PlayBufferWritten PlayResult = iota
	PlayBufferFull
	PlayInvalidState
	PlayInvalidFormat
)

// Output is an audio sink.
type Output interface {
	Name() string
	// Play consumes buf, or reports why it cannot. A Full result means
	// retry after the output drains.
	Play(buf *audio.Buffer) PlayResult
	Pause()
	Resume()
	Stop()
	Drain()
	SetVolume(v float64)
	Volume() float64
	Latency() time.Duration
	// Devices lists the selectable output devices, default first.
	Devices() []string
	Close() error
}

// DSP transforms a buffer in place. Returns false when the buffer was
// left untouched.
type DSP interface {
	Name() string
	Process(buf *audio.Buffer) bool
}

// RemoteState mirrors the playback states fanned out to remotes.
type RemoteState int

const (
	RemoteStopped RemoteState = iota
	RemotePaused
	RemotePrepared
	RemotePlaying
)

// RemoteTrack is the track snapshot handed to playback remotes.
type RemoteTrack struct {
	ID       int64
	URI      string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// PlaybackRemote receives playback-side events. A remote returning an
// error is dropped from the active list on the next reload.
type PlaybackRemote interface {
	Name() string
	OnTrackChanged(index int, track *RemoteTrack) error
	OnPlaybackStateChanged(state RemoteState) error
	OnVolumeChanged(volume float64) error
	OnModeChanged(repeatMode int, shuffled bool) error
	Close() error
}

// ServiceControls is the control surface the playback service hands
// to remotes that can drive playback.
type ServiceControls interface {
	Play()
	Pause()
	PlayPause()
	Stop()
	Next()
	Previous()
	SetVolume(v float64)
	Volume() float64
	Position() float64
	SeekTo(seconds float64)
}

// ServiceBinder is an optional interface for remotes that drive the
// service; the service binds itself once at startup.
type ServiceBinder interface {
	BindService(ctl ServiceControls)
}

// IndexerSource owns virtual (non-filesystem) tracks identified by a
// stable external id within its source id.
type IndexerSource interface {
	SourceID() int64
	OnBeforeScan()
	// Scan enumerates the source's tracks; conduit persists each one.
	Scan(conduit SourceConduit) error
	OnAfterScan()
	// ScanTrack refreshes one entry; returns false when the entry no
	// longer exists and should be removed.
	ScanTrack(conduit SourceConduit, externalID string) bool
}

// SourceConduit is the write channel an IndexerSource uses to persist
// tracks during its scan.
type SourceConduit interface {
	// Save persists a track record filled by the source. externalID
	// must be stable across scans.
	Save(fill func(TrackWriter), externalID string) error
	// Exists reports whether (sourceID, externalID) is already
	// cataloged.
	Exists(externalID string) bool
}

// AudioAnalyzer inspects decoded audio during the analysis pass.
type AudioAnalyzer interface {
	Name() string
	// Start reports whether this track should be analyzed.
	Start(track TrackWriter) bool
	// Analyze consumes one buffer; returns false to stop receiving.
	Analyze(track TrackWriter, buf *audio.Buffer) bool
	// End finishes the pass; returns true when track metadata was
	// written and the record should be saved.
	End(track TrackWriter) bool
}

// Encoder converts sample buffers to an encoded byte stream.
type Encoder interface {
	Name() string
	CanEncode(format string) bool
	Encode(buf *audio.Buffer, w io.Writer) error
	Finalize(w io.Writer) error
}

// SchemaEntry declares one preference key with its default.
type SchemaEntry struct {
	Key     string
	Type    string // "bool", "int", "double", "string"
	Default any
}

// Schema declares a component's preference keys for the settings
// surface.
type Schema interface {
	Component() string
	Entries() []SchemaEntry
}
