// Chorus is a local music library and playback engine: a background
// indexer over an embedded catalog, and a gapless playback service
// driven through capability plugins.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/llehouerou/chorus/internal/catalog"
	"github.com/llehouerou/chorus/internal/config"
	"github.com/llehouerou/chorus/internal/indexer"
	"github.com/llehouerou/chorus/internal/metadata"
	"github.com/llehouerou/chorus/internal/playback"
	"github.com/llehouerou/chorus/internal/player"
	"github.com/llehouerou/chorus/internal/plugin"
	"github.com/llehouerou/chorus/internal/prefs"
	_ "github.com/llehouerou/chorus/internal/remote/mpris" // built-in MPRIS remote
	_ "github.com/llehouerou/chorus/internal/tags"         // built-in metadata reader
	"github.com/llehouerou/chorus/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chorus: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	libDir, err := cfg.LibraryDir()
	if err != nil {
		return err
	}
	prefsDir, err := cfg.PrefsDir()
	if err != nil {
		return err
	}
	store, err := prefs.NewStore(prefsDir)
	if err != nil {
		return err
	}

	cat, err := catalog.Open(libDir, cfg.CacheSizeKB)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	env := plugin.Environment{
		LibraryDir: libDir,
		OpenPrefs: func(component string) (plugin.Preferences, error) {
			return store.Open(component)
		},
		Log: log,
	}
	host := plugin.NewHost(cfg.PluginDir, env)
	defer host.Close()

	idx := indexer.New(cat, host, time.Duration(cfg.SyncTimeoutSeconds)*time.Second, log)
	idx.SetStreamOpener(player.AnalysisOpener(host))
	for _, p := range cfg.SyncPaths {
		idx.AddPath(p)
	}

	if len(os.Args) > 1 && os.Args[1] == "scan" {
		return scanOnce(idx)
	}

	out := selectOutput(host, cfg.Output)
	tr := transport.New(host, out, transport.Config{
		Crossfade:         cfg.Crossfade.Enabled,
		CrossfadeDuration: time.Duration(cfg.Crossfade.DurationSeconds * float64(time.Second)),
	}, log)
	svc := playback.New(cat, host, tr, store, log)
	defer svc.Close()

	proxy := metadata.New(cat, log)

	handler := &sutureslog.Handler{Logger: log}
	sup := suture.New("chorus", suture.Spec{EventHook: handler.MustHook()})
	sup.Add(&indexerService{idx: idx})
	sup.Add(&eventLogger{idx: idx, svc: svc, proxy: proxy, log: log})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("engine running", "library", libDir, "plugins", len(host.Plugins()))
	err = sup.Serve(ctx)
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// scanOnce runs one full scan and exits.
func scanOnce(idx *indexer.Indexer) error {
	sub := idx.Subscribe()
	idx.Start()
	idx.RestartSync()
	count := <-sub.Finished
	idx.Stop()
	fmt.Printf("indexed %d files\n", count)
	return nil
}

// selectOutput picks the configured output by name, or the host's
// first.
func selectOutput(host *plugin.Host, name string) plugin.Output {
	outputs := host.Outputs()
	for _, o := range outputs {
		if o.Name() == name {
			return o
		}
	}
	if len(outputs) > 0 {
		return outputs[0]
	}
	return nil
}

// indexerService runs the scan scheduler under the supervisor.
type indexerService struct {
	idx *indexer.Indexer
}

func (s *indexerService) Serve(ctx context.Context) error {
	s.idx.Start()
	<-ctx.Done()
	s.idx.Stop()
	return ctx.Err()
}

// eventLogger surfaces engine events to the log, which also keeps the
// subscriptions drained.
type eventLogger struct {
	idx   *indexer.Indexer
	svc   *playback.Service
	proxy *metadata.Proxy
	log   *slog.Logger
}

func (e *eventLogger) Serve(ctx context.Context) error {
	isub := e.idx.Subscribe()
	psub := e.svc.Subscribe()
	playlists := e.proxy.PlaylistModified()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-isub.Started:
			e.log.Info("indexer started")
		case n := <-isub.Progress:
			e.log.Debug("indexer progress", "files", n)
		case n := <-isub.Finished:
			e.log.Info("indexer finished", "files", n)
		case <-isub.PathsUpdated:
			e.log.Info("sync paths updated")
		case <-isub.TrackRefreshed:
			e.log.Debug("tracks refreshed")
		case tc := <-psub.TrackChanged:
			e.log.Info("track changed", "index", tc.Index)
		case st := <-psub.State:
			e.log.Info("playback state", "state", st.String())
		case mc := <-psub.ModeChanged:
			e.log.Info("mode changed", "repeat", mc.RepeatMode.String(), "shuffled", mc.Shuffled)
		case on := <-psub.Shuffled:
			e.log.Info("shuffled", "on", on)
		case v := <-psub.VolumeChanged:
			e.log.Debug("volume changed", "volume", v)
		case <-psub.TimeChanged:
			// too chatty for the log
		case id := <-playlists:
			e.log.Info("playlist modified", "playlist", id)
		}
	}
}
