package playback

const snapshotBufferSize = 16

// Subscription delivers published state to one consumer. Snapshots are
// sent non-blocking: a slow consumer loses intermediate snapshots, never
// stalls the coordinator.
type Subscription struct {
	Snapshots <-chan Snapshot
	Done      <-chan struct{}

	snapshotCh chan Snapshot
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		snapshotCh: make(chan Snapshot, snapshotBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.Snapshots = s.snapshotCh
	s.Done = s.doneCh
	return s
}

// close signals the subscriber to stop.
func (s *Subscription) close() {
	close(s.doneCh)
}

// send delivers a snapshot without blocking, dropping the oldest buffered
// snapshot when the consumer lags so the freshest state wins.
func (s *Subscription) send(snap Snapshot) {
	select {
	case s.snapshotCh <- snap:
		return
	default:
	}
	select {
	case <-s.snapshotCh:
	default:
	}
	select {
	case s.snapshotCh <- snap:
	default:
	}
}
