// Package indexer is the background scanner: it walks the configured
// sync paths, coordinates metadata readers and audio analyzers, and
// keeps the catalog referentially clean.
package indexer

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llehouerou/chorus/internal/catalog"
	"github.com/llehouerou/chorus/internal/plugin"
)

const (
	progressBatch  = 25  // files between progress signals
	refreshedBatch = 100 // saves between track-refreshed signals
)

// Indexer runs scans on one dedicated goroutine and sleeps on a timed
// wait between them.
type Indexer struct {
	cat        *catalog.Catalog
	host       *plugin.Host
	log        *slog.Logger
	openStream StreamOpener

	// 0 means wait indefinitely between scans.
	syncTimeout time.Duration

	queueMu     sync.Mutex
	addQueue    []string
	removeQueue []string

	restart atomic.Bool
	exit    atomic.Bool
	notify  chan struct{}
	done    chan struct{}
	started bool

	stateMu      sync.Mutex
	status       Status
	overall      int64
	current      int64
	filesCounted int64

	subsMu sync.RWMutex
	subs   []*Subscription
}

// New creates an indexer over the catalog and plugin host.
func New(cat *catalog.Catalog, host *plugin.Host, syncTimeout time.Duration, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{
		cat:         cat,
		host:        host,
		log:         log.With("component", "indexer"),
		syncTimeout: syncTimeout,
		notify:      make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Start launches the scan goroutine. Idempotent.
func (i *Indexer) Start() {
	if i.started {
		return
	}
	i.started = true
	go i.run()
}

// Stop requests termination and joins the scan goroutine.
func (i *Indexer) Stop() {
	i.exit.Store(true)
	i.wake()
	if i.started {
		<-i.done
	}
}

// AddPath queues a sync path for addition and restarts the scan.
// Adding an existing path is a no-op.
func (i *Indexer) AddPath(p string) {
	i.queueMu.Lock()
	i.addQueue = append(i.addQueue, p)
	i.queueMu.Unlock()
	i.RestartSync()
}

// RemovePath queues a sync path for removal and restarts the scan.
func (i *Indexer) RemovePath(p string) {
	i.queueMu.Lock()
	i.removeQueue = append(i.removeQueue, p)
	i.queueMu.Unlock()
	i.RestartSync()
}

// RestartSync unwinds the current scan to the top of the loop, or
// starts a scan when idle.
func (i *Indexer) RestartSync() {
	i.restart.Store(true)
	i.wake()
}

func (i *Indexer) wake() {
	select {
	case i.notify <- struct{}{}:
	default:
	}
}

// interrupted reports whether the current scan should unwind. Checked
// at every loop boundary and yield point.
func (i *Indexer) interrupted() bool {
	return i.exit.Load() || i.restart.Load()
}

// Status returns the current progress string.
func (i *Indexer) Status() string {
	i.stateMu.Lock()
	defer i.stateMu.Unlock()
	return progressString(i.status, i.overall, i.current, i.filesCounted)
}

// CurrentState returns the state machine position.
func (i *Indexer) CurrentState() Status {
	i.stateMu.Lock()
	defer i.stateMu.Unlock()
	return i.status
}

// setStatus enters a state and resets the overall progress counter.
func (i *Indexer) setStatus(s Status) {
	i.stateMu.Lock()
	i.status = s
	i.overall = 0
	i.current = 0
	i.stateMu.Unlock()
}

func (i *Indexer) setProgress(overall, current int64) {
	i.stateMu.Lock()
	i.overall = overall
	i.current = current
	i.stateMu.Unlock()
}

func (i *Indexer) setFilesCounted(n int64) {
	i.stateMu.Lock()
	i.filesCounted = n
	i.stateMu.Unlock()
}

// Subscribe creates a new event subscription.
func (i *Indexer) Subscribe() *Subscription {
	i.subsMu.Lock()
	defer i.subsMu.Unlock()
	sub := newSubscription()
	i.subs = append(i.subs, sub)
	return sub
}

func (i *Indexer) emit(fn func(*Subscription)) {
	i.subsMu.RLock()
	for _, sub := range i.subs {
		fn(sub)
	}
	i.subsMu.RUnlock()
}

// run is the scan scheduler loop.
func (i *Indexer) run() {
	defer close(i.done)

	for {
		if i.exit.Load() {
			return
		}
		i.restart.Store(false)

		i.synchronize()

		if i.exit.Load() {
			return
		}
		if i.restart.Load() {
			continue
		}

		// Sleep until the next scheduled scan, a restart, or exit.
		if i.syncTimeout > 0 {
			select {
			case <-i.notify:
			case <-time.After(i.syncTimeout):
			}
		} else {
			<-i.notify
		}
	}
}

// synchronize performs one full scan. Every phase checks interrupted()
// and unwinds without partial commits.
func (i *Indexer) synchronize() {
	i.cat.LockWriter()
	defer i.cat.UnlockWriter()

	i.emit(func(s *Subscription) { s.sendStarted() })
	i.log.Info("scan started")

	defer i.setStatus(StatusIdle)

	if i.drainPathQueue() {
		i.emit(func(s *Subscription) { s.sendPathsUpdated() })
	}
	if i.interrupted() {
		return
	}

	paths, err := i.cat.Paths()
	if err != nil {
		i.log.Error("scan aborted: catalog unreadable", "err", err)
		i.emit(func(s *Subscription) { s.sendFinished(0) })
		return
	}

	// Plugin-owned sources run their own scan lifecycle around the
	// filesystem phases.
	i.scanSources()
	if i.interrupted() {
		return
	}

	i.setStatus(StatusCountingFiles)
	total := i.countFiles(paths)
	i.setFilesCounted(total)
	if i.interrupted() {
		return
	}

	i.setStatus(StatusIndexingFiles)
	indexed := i.indexPaths(paths)
	if i.interrupted() {
		return
	}

	i.setStatus(StatusRemovingMissing)
	i.removeMissing(paths)
	if i.interrupted() {
		return
	}

	i.setStatus(StatusCleanup)
	i.cleanup()
	if i.interrupted() {
		return
	}

	i.setStatus(StatusOptimizing)
	i.optimize()
	if i.interrupted() {
		return
	}

	if len(i.host.Analyzers()) > 0 {
		i.setStatus(StatusAnalyzingAudio)
		i.analyzeAudio()
		if i.interrupted() {
			return
		}
	}

	i.log.Info("scan finished", "tracks", indexed)
	i.emit(func(s *Subscription) { s.sendFinished(indexed) })
}

// drainPathQueue applies the queued path additions and removals.
// Returns true when anything changed.
func (i *Indexer) drainPathQueue() bool {
	i.queueMu.Lock()
	adds := i.addQueue
	removes := i.removeQueue
	i.addQueue = nil
	i.removeQueue = nil
	i.queueMu.Unlock()

	changed := false
	for _, p := range adds {
		if _, err := i.cat.AddPath(p); err != nil {
			i.log.Warn("add path failed", "path", p, "err", err)
			continue
		}
		changed = true
	}
	for _, p := range removes {
		if err := i.cat.RemovePath(p); err != nil {
			i.log.Warn("remove path failed", "path", p, "err", err)
			continue
		}
		changed = true
	}

	// Folders whose owning path disappeared go with it.
	if err := i.cat.DeleteFoldersWithoutPath(); err != nil {
		i.log.Warn("folder cleanup failed", "err", err)
	}
	return changed
}
