package indexer

import (
	"fmt"

	"github.com/llehouerou/chorus/internal/plugin"
	"github.com/llehouerou/chorus/internal/track"
)

// scanSources drives third-party indexer sources through their scan
// lifecycle. Each source owns the tracks tagged with its source id and
// identifies them by stable external ids.
func (i *Indexer) scanSources() {
	for _, src := range i.host.Sources() {
		if i.interrupted() {
			return
		}
		conduit := &sourceConduit{indexer: i, sourceID: src.SourceID()}
		if err := safeScanSource(src, conduit); err != nil {
			i.log.Warn("indexer source failed, skipping", "source", src.SourceID(), "err", err)
		}
	}
}

func safeScanSource(src plugin.IndexerSource, conduit *sourceConduit) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("indexer source panicked: %v", p)
		}
	}()

	src.OnBeforeScan()
	defer src.OnAfterScan()
	return src.Scan(conduit)
}

// sourceConduit is the write channel a plugin source persists tracks
// through.
type sourceConduit struct {
	indexer  *Indexer
	sourceID int64
}

var _ plugin.SourceConduit = (*sourceConduit)(nil)

// Save fills a fresh record via the source's callback and persists it
// under (sourceID, externalID).
func (c *sourceConduit) Save(fill func(plugin.TrackWriter), externalID string) error {
	rec := track.NewRecord(c.sourceID, externalID)
	rec.SetExternalID(externalID)

	if existing, err := c.indexer.cat.TrackByExternalID(c.sourceID, externalID); err == nil && existing != nil {
		rec.SetID(existing.ID)
	}

	fill(rec)
	return rec.Save(c.indexer.cat, 0)
}

// Exists reports whether (sourceID, externalID) is already cataloged.
func (c *sourceConduit) Exists(externalID string) bool {
	row, err := c.indexer.cat.TrackByExternalID(c.sourceID, externalID)
	return err == nil && row != nil
}
