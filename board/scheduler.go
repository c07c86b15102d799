package board

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"dealboard/domain"
	"dealboard/remote"
)

// Status is the global sync state. Any dispatched call moves it to syncing;
// the call's outcome moves it to synced or offline. There is no retry loop:
// a failed push is abandoned and the next mutation re-attempts naturally.
type Status string

const (
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusOffline Status = "offline"
)

const (
	defaultDebounceWindow = 600 * time.Millisecond
	defaultPushTimeout    = 30 * time.Second
)

// scheduler turns registry mutations into remote calls. Structural changes
// dispatch immediately; free-text edits coalesce on a per-card timer so a
// typing burst becomes one update carrying the final state.
type scheduler struct {
	gw     remote.Gateway
	logger *log.Logger
	window time.Duration
	tmout  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	status Status
	closed bool

	// itemLocks serializes pushes per card id so two updates for the same
	// card are never in flight together.
	itemLocks sync.Map
	inflight  sync.WaitGroup
}

func newScheduler(gw remote.Gateway, logger *log.Logger, window, timeout time.Duration) *scheduler {
	if window <= 0 {
		window = defaultDebounceWindow
	}
	if timeout <= 0 {
		timeout = defaultPushTimeout
	}
	return &scheduler{
		gw:     gw,
		logger: logger,
		window: window,
		tmout:  timeout,
		timers: make(map[string]*time.Timer),
		status: StatusSynced,
	}
}

func (s *scheduler) currentStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *scheduler) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// dispatch runs a remote call in the background. The caller has already
// mutated local state; the call only reports its outcome through the status
// flag, never by touching the registry.
func (s *scheduler) dispatch(op string, call func(ctx context.Context) error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.status = StatusSyncing
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.tmout)
		err := call(ctx)
		cancel()
		if err != nil {
			s.setStatus(StatusOffline)
			s.logger.WithError(err).WithField("op", op).Warn("remote push failed, board offline")
			return
		}
		s.setStatus(StatusSynced)
	}()
}

// pushUpdate dispatches a single-card update. The card's state is captured
// via read only after the per-card lock is held, so the payload always
// reflects the latest edit even when an earlier push for the same card was
// still draining.
func (s *scheduler) pushUpdate(id string, read func() (domain.Row, bool)) {
	s.dispatch("update", func(ctx context.Context) error {
		v, _ := s.itemLocks.LoadOrStore(id, &sync.Mutex{})
		lock := v.(*sync.Mutex)
		lock.Lock()
		defer lock.Unlock()

		row, ok := read()
		if !ok {
			return nil
		}
		return s.gw.Update(ctx, id, row.Columns())
	})
}

// debounce arms (or re-arms) the per-card timer. When the window elapses
// without further edits, a single update goes out carrying the card's state
// at flush time. Arming always cancels the previous timer for the id.
func (s *scheduler) debounce(id string, read func() (domain.Row, bool)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(s.window, func() {
		s.mu.Lock()
		delete(s.timers, id)
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		s.pushUpdate(id, read)
	})
	s.mu.Unlock()
}

// cancelDebounce drops any pending timer for the id, e.g. when the card is
// deleted before its edit window elapsed.
func (s *scheduler) cancelDebounce(id string) {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
}

func (s *scheduler) cancelAllDebounce() {
	s.mu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
}

// close cancels pending timers and waits for in-flight pushes to resolve.
func (s *scheduler) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.inflight.Wait()
}

// wait blocks until every dispatched push has resolved. Test hook.
func (s *scheduler) wait() {
	s.inflight.Wait()
}
