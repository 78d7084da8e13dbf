package assessment

import (
	"log"
	"sync"
	"time"

	"github.com/civicsprep/backend/internal/models"
	"github.com/go-co-op/gocron"
)

// snapshotWriter is what the tracker needs from the store. Narrowed for
// the tests, which swap in an in-memory recorder.
type snapshotWriter interface {
	SaveSnapshot(snap models.ProgressSnapshot) error
	SweepStaleSnapshots(maxAge time.Duration) (int, error)
}

// Tracker holds every in-flight session and periodically flushes their
// snapshots to the store. A write failure is logged and the session keeps
// running; the next flush retries naturally.
//
// writeMu serializes snapshot writes against Deregister: a deregister
// waits for any in-flight write to land, and a write re-checks
// registration under writeMu, so no snapshot can be written for a
// session after Deregister returns.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	writeMu  sync.Mutex
	writer   snapshotWriter
	now      func() time.Time
}

func NewTracker(writer snapshotWriter) *Tracker {
	return &Tracker{
		sessions: make(map[string]*Session),
		writer:   writer,
		now:      time.Now,
	}
}

func (t *Tracker) Register(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.ID()] = s
}

// Deregister drops the session from the flush set. Called on complete and
// discard; it blocks until any in-flight snapshot write has landed, so
// the caller can clear the stored snapshot without a late write
// resurrecting it.
func (t *Tracker) Deregister(sessionID string) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	delete(t.sessions, sessionID)
	t.mu.Unlock()
}

func (t *Tracker) Get(sessionID string) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[sessionID]
	return s, ok
}

// FlushAll writes a snapshot for every registered session. Failures are
// logged and skipped; one bad write must not block the rest.
func (t *Tracker) FlushAll() {
	t.mu.RLock()
	sessions := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.RUnlock()

	for _, s := range sessions {
		t.flushOne(s)
	}
}

// Flush writes a single session's snapshot immediately, e.g. right after
// an answer lands. Errors are logged and swallowed.
func (t *Tracker) Flush(sessionID string) {
	s, ok := t.Get(sessionID)
	if !ok {
		return
	}
	t.flushOne(s)
}

// flushOne re-checks registration under writeMu before writing. A session
// deregistered between being listed and being flushed is skipped, and the
// write itself holds writeMu so Deregister cannot complete under it.
func (t *Tracker) flushOne(s *Session) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.RLock()
	_, live := t.sessions[s.ID()]
	t.mu.RUnlock()
	if !live {
		return
	}

	if err := t.writer.SaveSnapshot(s.Snapshot(t.now())); err != nil {
		log.Printf("[assessment] WARN: snapshot write failed for session %s: %v", s.ID(), err)
	}
}

// StartScheduler wires the periodic flush and the stale-snapshot sweep
// onto the shared scheduler. Call once at startup.
func (t *Tracker) StartScheduler(sched *gocron.Scheduler, flushEvery time.Duration, staleAfter time.Duration) error {
	if _, err := sched.Every(flushEvery).Do(t.FlushAll); err != nil {
		return err
	}
	_, err := sched.Every(24 * time.Hour).Do(func() {
		n, err := t.writer.SweepStaleSnapshots(staleAfter)
		if err != nil {
			log.Printf("[assessment] WARN: stale snapshot sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[assessment] swept %d stale snapshots", n)
		}
	})
	return err
}
