package player

import (
	"github.com/llehouerou/chorus/internal/audio"
	"github.com/llehouerou/chorus/internal/indexer"
	"github.com/llehouerou/chorus/internal/plugin"
)

// analysisSource adapts a no-DSP pipeline to the indexer's buffer
// source for the audio analysis pass.
type analysisSource struct {
	p *Player
}

var _ indexer.BufferSource = (*analysisSource)(nil)

func (s *analysisSource) Next() (*audio.Buffer, bool) {
	return s.p.NextBuffer()
}

func (s *analysisSource) Close() error {
	return s.p.Close()
}

// AnalysisOpener returns the stream opener the indexer uses for audio
// analysis: a decode pipeline with the DSP chain disabled.
func AnalysisOpener(host *plugin.Host) indexer.StreamOpener {
	return func(uri string) (indexer.BufferSource, error) {
		p, err := Open(host, uri, nil)
		if err != nil {
			return nil, err
		}
		return &analysisSource{p: p}, nil
	}
}
