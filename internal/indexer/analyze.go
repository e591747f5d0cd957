package indexer

import (
	"runtime"

	"github.com/llehouerou/chorus/internal/audio"
	"github.com/llehouerou/chorus/internal/plugin"
	"github.com/llehouerou/chorus/internal/track"
)

// BufferSource yields decoded buffers for the analysis pass.
type BufferSource interface {
	// Next returns the next processed buffer, or false at end of
	// stream.
	Next() (*audio.Buffer, bool)
	Close() error
}

// StreamOpener opens a decode pipeline in no-DSP mode for a track uri.
// The player package provides the implementation; injecting it here
// keeps the indexer free of audio engine internals.
type StreamOpener func(uri string) (BufferSource, error)

// SetStreamOpener installs the decode pipeline used by the audio
// analysis pass. Without one the pass is skipped.
func (i *Indexer) SetStreamOpener(open StreamOpener) {
	i.openStream = open
}

// analyzeAudio iterates all tracks by id and feeds every processed
// output buffer to each analyzer that accepted the track. The
// scheduler is yielded between every buffer and every invocation.
func (i *Indexer) analyzeAudio() {
	if i.openStream == nil {
		return
	}
	analyzers := i.host.Analyzers()
	if len(analyzers) == 0 {
		return
	}

	ids, err := i.cat.TrackIDs()
	if err != nil {
		i.log.Warn("analysis pass aborted", "err", err)
		return
	}
	i.setFilesCounted(int64(len(ids)))

	for n, id := range ids {
		if i.interrupted() {
			return
		}
		i.setProgress(int64(n+1), 0)
		i.analyzeTrack(id, analyzers)
		runtime.Gosched()
	}
}

// analyzeTrack runs one track through every interested analyzer.
func (i *Indexer) analyzeTrack(id int64, analyzers []plugin.AudioAnalyzer) {
	rec, err := track.Load(i.cat, id)
	if err != nil {
		return
	}

	// Ask every analyzer; keep those that accept the track.
	var started, running []plugin.AudioAnalyzer
	for _, a := range analyzers {
		if a.Start(rec) {
			started = append(started, a)
			running = append(running, a)
		}
	}
	if len(started) == 0 {
		return
	}

	src, err := i.openStream(rec.URI())
	if err != nil {
		i.log.Debug("analysis stream open failed", "uri", rec.URI(), "err", err)
		return
	}
	defer src.Close()

	for len(running) > 0 {
		if i.interrupted() {
			return
		}
		buf, ok := src.Next()
		if !ok {
			break
		}

		kept := running[:0]
		for _, a := range running {
			if i.interrupted() {
				return
			}
			if a.Analyze(rec, buf) {
				kept = append(kept, a)
			}
			runtime.Gosched()
		}
		running = kept
		runtime.Gosched()
	}

	// End every analyzer that started; save when any wrote metadata.
	wrote := false
	for _, a := range started {
		if a.End(rec) {
			wrote = true
		}
	}
	if wrote {
		folderID := int64(0)
		if row, err := i.cat.TrackByID(id); err == nil && row.FolderID != nil {
			folderID = *row.FolderID
		}
		if err := rec.Save(i.cat, folderID); err != nil {
			i.log.Warn("analysis save failed", "track", id, "err", err)
		}
	}
}
