package assessment

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/civicsprep/backend/internal/cooldown"
	"github.com/civicsprep/backend/internal/models"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotOwner        = errors.New("session belongs to another user")
	ErrInvalidType     = errors.New("unknown assessment type")
	ErrNoQuestions     = errors.New("no questions available")
)

// CooldownError carries the full gate status so the handler can return it
// in the refusal body.
type CooldownError struct {
	Status models.CooldownResponse
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, %s remaining", e.Status.Remaining)
}

// questionSource is the slice of the content store the service needs.
type questionSource interface {
	GetRandomQuestions(topicID *string, count int) ([]models.Question, error)
	GetQuestionsByIDs(ids []string) ([]models.Question, error)
	SetViewProgress(userID int64, contentType models.ContentType, contentID string, completed bool, score *int) error
}

type Service struct {
	store     *Store
	tracker   *Tracker
	questions questionSource
	gate      *cooldown.Gate
}

func NewService(store *Store, tracker *Tracker, questions questionSource, gate *cooldown.Gate) *Service {
	return &Service{store: store, tracker: tracker, questions: questions, gate: gate}
}

const defaultQuestionCount = 10

// StartSession checks the cooldown gate BEFORE any state is created.
// A refused start leaves no session row, no snapshot, nothing to clean up.
func (s *Service) StartSession(userID int64, req models.StartSessionRequest) (*models.SessionStateResponse, error) {
	if !models.ValidAssessmentTypes[req.AssessmentType] {
		return nil, ErrInvalidType
	}

	if s.gate.Period(req.AssessmentType) > 0 {
		lastReview, err := s.store.GetLatestReview(userID, req.AssessmentType)
		if err != nil {
			return nil, fmt.Errorf("cooldown check: %w", err)
		}
		status := s.gate.Status(req.AssessmentType, lastReview, time.Now())
		if status.InCooldown {
			return nil, &CooldownError{Status: status}
		}
	}

	count := req.Count
	if count <= 0 {
		count = defaultQuestionCount
	}
	questions, err := s.questions.GetRandomQuestions(req.TopicID, count)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	sessionID := uuid.NewString()
	now := time.Now()
	sess := StartNew(sessionID, userID, req.AssessmentType, questions, now)

	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}
	if err := s.store.CreateSession(sessionID, userID, req.AssessmentType, req.TopicID, questionIDs, now); err != nil {
		return nil, err
	}

	s.tracker.Register(sess)
	s.tracker.Flush(sessionID)

	state := sess.State()
	return &state, nil
}

func (s *Service) GetState(userID int64, sessionID string) (*models.SessionStateResponse, error) {
	sess, err := s.activeSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.State()
	return &state, nil
}

// SubmitAnswer grades against the in-memory session and flushes a
// snapshot afterwards. A failed flush never blocks the answer; the user
// keeps going and the periodic flusher retries.
func (s *Service) SubmitAnswer(userID int64, sessionID string, req models.SubmitAnswerRequest) (*models.SubmitAnswerResponse, error) {
	sess, err := s.activeSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	outcome := sess.SubmitAnswer(req.QuestionID, req.Answer)
	if outcome.Accepted {
		s.tracker.Flush(sessionID)
	}

	return &models.SubmitAnswerResponse{
		Accepted:      outcome.Accepted,
		Correct:       outcome.Correct,
		CorrectAnswer: outcome.CorrectAnswer,
		Explanation:   outcome.Explanation,
	}, nil
}

func (s *Service) Advance(userID int64, sessionID string) (*models.AdvanceResponse, error) {
	sess, err := s.activeSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	index, done := sess.Advance()
	if err := s.store.UpdateSessionIndex(sessionID, index); err != nil {
		log.Printf("[assessment] WARN: failed to persist session index: %v", err)
	}
	s.tracker.Flush(sessionID)

	return &models.AdvanceResponse{CurrentIndex: index, Done: done}, nil
}

// ResumeCheck reports whether the user has an interrupted session of the
// given type they could pick back up.
func (s *Service) ResumeCheck(userID int64, assessmentType models.AssessmentType) (*models.ResumeCheckResponse, error) {
	if !models.ValidAssessmentTypes[assessmentType] {
		return nil, ErrInvalidType
	}
	snap, err := s.store.FindLatestSnapshot(userID, assessmentType)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return &models.ResumeCheckResponse{Found: false}, nil
	}
	return &models.ResumeCheckResponse{Found: true, Snapshot: snap}, nil
}

// Resume rebuilds the in-memory session from its snapshot. Already-live
// sessions are returned as-is so a double resume is harmless.
func (s *Service) Resume(userID int64, sessionID string) (*models.SessionStateResponse, error) {
	if sess, ok := s.tracker.Get(sessionID); ok {
		if sess.UserID() != userID {
			return nil, ErrNotOwner
		}
		state := sess.State()
		return &state, nil
	}

	snap, err := s.store.GetSnapshot(sessionID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}
	if snap.UserID != userID {
		return nil, ErrNotOwner
	}

	questions, err := s.questions.GetQuestionsByIDs(snap.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load session questions: %w", err)
	}

	sess, err := Resume(*snap, questions)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", sessionID, err)
	}

	s.tracker.Register(sess)
	state := sess.State()
	return &state, nil
}

// Discard abandons an interrupted session and drops its snapshot.
func (s *Service) Discard(userID int64, sessionID string) error {
	snap, err := s.store.GetSnapshot(sessionID)
	if err != nil {
		return err
	}
	if snap == nil {
		if _, ok := s.tracker.Get(sessionID); !ok {
			return ErrSessionNotFound
		}
	} else if snap.UserID != userID {
		return ErrNotOwner
	}

	s.tracker.Deregister(sessionID)
	if err := s.store.DeleteSnapshot(sessionID); err != nil {
		log.Printf("[assessment] WARN: failed to delete snapshot for %s: %v", sessionID, err)
	}
	return s.store.AbandonSession(sessionID)
}

// Complete scores the session, seeds the review record, and tears down
// the snapshot. Topic-scoped sessions also mark the topic's progress.
func (s *Service) Complete(userID int64, sessionID string) (*models.CompleteSessionResponse, error) {
	sess, err := s.activeSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	summary := sess.Complete()
	now := time.Now()

	if err := s.store.CompleteSession(sessionID, summary.Score); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if err := s.store.CreateReviewRecord(userID, sess.AssessmentType(), summary, now); err != nil {
		// Without a review record the cooldown gate cannot hold, so
		// this one is fatal.
		return nil, fmt.Errorf("record review: %w", err)
	}

	s.tracker.Deregister(sessionID)
	if err := s.store.DeleteSnapshot(sessionID); err != nil {
		log.Printf("[assessment] WARN: failed to delete snapshot for %s: %v", sessionID, err)
	}

	if topicID, err := s.store.GetSessionTopic(sessionID); err == nil && topicID != nil {
		score := summary.Score
		if err := s.questions.SetViewProgress(userID, models.ContentTopic, *topicID, true, &score); err != nil {
			log.Printf("[assessment] WARN: failed to mark topic %s progress: %v", *topicID, err)
		}
	}

	return &models.CompleteSessionResponse{
		SessionID:      sessionID,
		Score:          summary.Score,
		TotalQuestions: summary.TotalQuestions,
		CorrectCount:   summary.CorrectCount,
		WrongAnswers:   summary.WrongAnswers,
	}, nil
}

// CooldownStatus reports the gate state without touching any session.
func (s *Service) CooldownStatus(userID int64, assessmentType models.AssessmentType) (*models.CooldownResponse, error) {
	if !models.ValidAssessmentTypes[assessmentType] {
		return nil, ErrInvalidType
	}
	lastReview, err := s.store.GetLatestReview(userID, assessmentType)
	if err != nil {
		return nil, err
	}
	status := s.gate.Status(assessmentType, lastReview, time.Now())
	return &status, nil
}

// LatestReview returns the user's most recent review with its wrong
// answers, for the post-test review screen during cooldown.
func (s *Service) LatestReview(userID int64, assessmentType models.AssessmentType) (*models.ReviewRecord, error) {
	if !models.ValidAssessmentTypes[assessmentType] {
		return nil, ErrInvalidType
	}
	return s.store.GetLatestReview(userID, assessmentType)
}

func (s *Service) activeSession(userID int64, sessionID string) (*Session, error) {
	sess, ok := s.tracker.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.UserID() != userID {
		return nil, ErrNotOwner
	}
	return sess, nil
}
