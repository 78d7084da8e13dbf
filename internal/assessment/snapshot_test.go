package assessment

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/civicsprep/backend/internal/models"
)

type recordingWriter struct {
	mu    sync.Mutex
	saved []models.ProgressSnapshot
	fail  bool
}

func (w *recordingWriter) SaveSnapshot(snap models.ProgressSnapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("disk on fire")
	}
	w.saved = append(w.saved, snap)
	return nil
}

func (w *recordingWriter) SweepStaleSnapshots(maxAge time.Duration) (int, error) {
	return 0, nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.saved)
}

func TestTrackerFlushAll(t *testing.T) {
	writer := &recordingWriter{}
	tracker := NewTracker(writer)

	now := time.Now()
	s1 := StartNew("aaaa", 1, models.TypeCivicsTest, testQuestions(), now)
	s2 := StartNew("bbbb", 2, models.TypeSkillAssessment, testQuestions(), now)
	tracker.Register(s1)
	tracker.Register(s2)

	tracker.FlushAll()
	if writer.count() != 2 {
		t.Fatalf("expected 2 snapshots written, got %d", writer.count())
	}
}

func TestTrackerDeregisterStopsWrites(t *testing.T) {
	writer := &recordingWriter{}
	tracker := NewTracker(writer)

	s := StartNew("aaaa", 1, models.TypeCivicsTest, testQuestions(), time.Now())
	tracker.Register(s)
	tracker.Deregister("aaaa")

	tracker.FlushAll()
	tracker.Flush("aaaa")
	if writer.count() != 0 {
		t.Errorf("expected no writes after deregister, got %d", writer.count())
	}
}

func TestTrackerFlushFailureDoesNotStopSession(t *testing.T) {
	writer := &recordingWriter{fail: true}
	tracker := NewTracker(writer)

	s := StartNew("aaaa", 1, models.TypeCivicsTest, testQuestions(), time.Now())
	tracker.Register(s)

	tracker.Flush("aaaa")

	// Session must still be registered and fully usable after the failure.
	got, ok := tracker.Get("aaaa")
	if !ok {
		t.Fatal("session dropped after failed flush")
	}
	outcome := got.SubmitAnswer(testQuestions()[0].ID, "wrong")
	if !outcome.Accepted {
		t.Error("session rejected answer after failed flush")
	}

	// And once the store recovers, the next flush succeeds.
	writer.mu.Lock()
	writer.fail = false
	writer.mu.Unlock()
	tracker.Flush("aaaa")
	if writer.count() != 1 {
		t.Errorf("expected 1 snapshot after recovery, got %d", writer.count())
	}
}

// gatedWriter holds every SaveSnapshot call open until released, to
// exercise the ordering between an in-flight write and Deregister.
type gatedWriter struct {
	mu      sync.Mutex
	saved   int
	entered chan struct{}
	release chan struct{}
}

func (w *gatedWriter) SaveSnapshot(snap models.ProgressSnapshot) error {
	w.entered <- struct{}{}
	<-w.release
	w.mu.Lock()
	w.saved++
	w.mu.Unlock()
	return nil
}

func (w *gatedWriter) SweepStaleSnapshots(maxAge time.Duration) (int, error) {
	return 0, nil
}

func (w *gatedWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saved
}

// Completion clears the stored snapshot right after Deregister returns,
// so Deregister must wait out any write already in flight and no write
// may start for the session afterwards.
func TestTrackerDeregisterWaitsForInFlightWrite(t *testing.T) {
	// entered is buffered so a write that wrongly starts after deregister
	// shows up as an extra count instead of hanging the test.
	writer := &gatedWriter{
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	tracker := NewTracker(writer)

	s := StartNew("aaaa", 1, models.TypeCivicsTest, testQuestions(), time.Now())
	tracker.Register(s)

	go tracker.FlushAll()
	<-writer.entered // the periodic flush is now inside the store write

	deregistered := make(chan struct{})
	go func() {
		tracker.Deregister("aaaa")
		close(deregistered)
	}()

	select {
	case <-deregistered:
		t.Fatal("Deregister returned while a snapshot write was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(writer.release)
	<-deregistered

	if writer.count() != 1 {
		t.Fatalf("expected the in-flight write to land before Deregister returned, got %d", writer.count())
	}

	// The session is gone; neither flush path may write it again.
	tracker.Flush("aaaa")
	tracker.FlushAll()
	if writer.count() != 1 {
		t.Errorf("snapshot written after deregister: %d writes, want 1", writer.count())
	}
}

func TestTrackerSnapshotReflectsProgress(t *testing.T) {
	writer := &recordingWriter{}
	tracker := NewTracker(writer)

	qs := testQuestions()
	s := StartNew("aaaa", 1, models.TypeCivicsTest, qs, time.Now())
	tracker.Register(s)

	s.SubmitAnswer(qs[0].ID, qs[0].CorrectAnswer)
	s.Advance()
	tracker.Flush("aaaa")

	if writer.count() != 1 {
		t.Fatalf("expected 1 snapshot, got %d", writer.count())
	}
	snap := writer.saved[0]
	if snap.CurrentIndex != 1 {
		t.Errorf("snapshot index = %d, want 1", snap.CurrentIndex)
	}
	if snap.QuestionsAnswered != 1 || len(snap.Answers) != 1 {
		t.Errorf("snapshot answered = %d, answers map = %d, want 1 and 1",
			snap.QuestionsAnswered, len(snap.Answers))
	}
}
