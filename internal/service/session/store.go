package session

import (
	"context"
	"sync"
	"time"

	"github.com/dailytracker/backend/internal/logging"
)

// Store owns every Session. Each user has its own lock so events for one user run serially
// while different users never contend beyond the map lookup.
type Store struct {
	mu          sync.Mutex
	entries     map[int64]*entry
	idleTimeout time.Duration
	now         func() time.Time
	logger      logging.Logger
}

type entry struct {
	mu      sync.Mutex
	refs    int
	session Session
}

// Option configures a Store.
type Option func(*Store)

// WithIdleTimeout resets unfinished sessions untouched for longer than d. Zero disables expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Store) { s.idleTimeout = d }
}

// WithClock sets the clock used for idle expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for expiry events.
func WithLogger(logger logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[int64]*entry),
		now:     time.Now,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// Update runs fn with exclusive access to the user's session, creating it on first use.
func (s *Store) Update(userID int64, fn func(sess *Session) error) error {
	e := s.acquire(userID)
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	if s.expired(e.session, now) && e.session.State != Idle {
		s.logger.Infow("session expired", "user", userID, "state", e.session.State.String(), "flow", e.session.FlowID)
		e.session.Reset()
	}

	err := fn(&e.session)
	e.session.UpdatedAt = now
	return err
}

// Get returns a copy of the user's session.
func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if ok {
		e.refs++
	}
	s.mu.Unlock()
	if !ok {
		return Session{}, false
	}
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.clone(), true
}

// Len is the number of tracked users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes sessions idle past the timeout. Sessions in use are skipped.
func (s *Store) Sweep() int {
	if s.idleTimeout <= 0 {
		return 0
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, e := range s.entries {
		if e.refs > 0 {
			continue
		}
		// refs == 0 under s.mu means no goroutine can be holding e.mu.
		if s.expired(e.session, now) {
			if e.session.State != Idle {
				s.logger.Infow("session expired", "user", userID, "state", e.session.State.String(), "flow", e.session.FlowID)
			}
			delete(s.entries, userID)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done. It returns at once when expiry is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.idleTimeout <= 0 {
		return
	}

	interval := s.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Infof("[session] swept %d idle sessions", n)
			}
		}
	}
}

func (s *Store) expired(sess Session, now time.Time) bool {
	return s.idleTimeout > 0 && !sess.UpdatedAt.IsZero() && now.Sub(sess.UpdatedAt) > s.idleTimeout
}

func (s *Store) acquire(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &entry{session: Session{UserID: userID, State: Idle}}
		s.entries[userID] = e
	}
	e.refs++
	return e
}

func (s *Store) release(e *entry) {
	s.mu.Lock()
	e.refs--
	s.mu.Unlock()
}
