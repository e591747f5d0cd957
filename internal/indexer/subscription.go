package indexer

const eventBufferSize = 16

// Subscription provides event channels for one observer of the
// indexer.
type Subscription struct {
	Started        <-chan struct{}
	Progress       <-chan int
	Finished       <-chan int
	PathsUpdated   <-chan struct{}
	TrackRefreshed <-chan struct{}

	startedCh   chan struct{}
	progressCh  chan int
	finishedCh  chan int
	pathsCh     chan struct{}
	refreshedCh chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		startedCh:   make(chan struct{}, eventBufferSize),
		progressCh:  make(chan int, eventBufferSize),
		finishedCh:  make(chan int, eventBufferSize),
		pathsCh:     make(chan struct{}, eventBufferSize),
		refreshedCh: make(chan struct{}, eventBufferSize),
	}
	s.Started = s.startedCh
	s.Progress = s.progressCh
	s.Finished = s.finishedCh
	s.PathsUpdated = s.pathsCh
	s.TrackRefreshed = s.refreshedCh
	return s
}

// Sends are non-blocking; a slow observer drops events rather than
// stalling the scan.

func (s *Subscription) sendStarted() {
	select {
	case s.startedCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendProgress(count int) {
	select {
	case s.progressCh <- count:
	default:
	}
}

func (s *Subscription) sendFinished(count int) {
	select {
	case s.finishedCh <- count:
	default:
	}
}

func (s *Subscription) sendPathsUpdated() {
	select {
	case s.pathsCh <- struct{}{}:
	default:
	}
}

func (s *Subscription) sendTrackRefreshed() {
	select {
	case s.refreshedCh <- struct{}{}:
	default:
	}
}
