package assessment

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/civicsprep/backend/internal/models"
)

// Session is the in-memory state of one assessment attempt. All mutation
// goes through the mutex, so a repeat submit or a snapshot read can never
// observe a half-applied transition.
type Session struct {
	mu sync.Mutex

	id             string
	userID         int64
	assessmentType models.AssessmentType
	questions      []models.Question
	index          int
	answers        map[string]string
	wrong          map[string]models.WrongAnswerRecord
	startedAt      time.Time
}

type SubmitOutcome struct {
	Accepted      bool
	Correct       bool
	CorrectAnswer string
	Explanation   string
}

type CompletionSummary struct {
	Score          int
	CorrectCount   int
	TotalQuestions int
	WrongAnswers   []models.WrongAnswerRecord
}

// StartNew initializes a session at index 0 with no answers.
func StartNew(id string, userID int64, assessmentType models.AssessmentType, questions []models.Question, now time.Time) *Session {
	return &Session{
		id:             id,
		userID:         userID,
		assessmentType: assessmentType,
		questions:      questions,
		answers:        make(map[string]string),
		wrong:          make(map[string]models.WrongAnswerRecord),
		startedAt:      now,
	}
}

// Resume restores a session from a persisted snapshot verbatim: index,
// answers, wrong answers, and start time all come from the snapshot.
func Resume(snap models.ProgressSnapshot, questions []models.Question) (*Session, error) {
	if len(questions) != len(snap.QuestionIDs) {
		return nil, fmt.Errorf("snapshot references %d questions, loaded %d", len(snap.QuestionIDs), len(questions))
	}
	for i, q := range questions {
		if q.ID != snap.QuestionIDs[i] {
			return nil, fmt.Errorf("question order mismatch at %d", i)
		}
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= len(questions) {
		return nil, fmt.Errorf("snapshot index %d out of range", snap.CurrentIndex)
	}

	answers := make(map[string]string, len(snap.Answers))
	for k, v := range snap.Answers {
		answers[k] = v
	}
	wrong := make(map[string]models.WrongAnswerRecord, len(snap.WrongAnswers))
	for k, v := range snap.WrongAnswers {
		wrong[k] = v
	}

	return &Session{
		id:             snap.SessionID,
		userID:         snap.UserID,
		assessmentType: snap.AssessmentType,
		questions:      questions,
		index:          snap.CurrentIndex,
		answers:        answers,
		wrong:          wrong,
		startedAt:      snap.StartedAt,
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) UserID() int64 { return s.userID }

func (s *Session) AssessmentType() models.AssessmentType { return s.assessmentType }

// SubmitAnswer grades an answer for the current question. The submission
// is rejected (Accepted=false, no state change) when the target is not the
// current question or the current question already has a result.
func (s *Session) SubmitAnswer(questionID, answer string) SubmitOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.questions) {
		return SubmitOutcome{}
	}
	current := s.questions[s.index]
	if questionID != current.ID {
		return SubmitOutcome{}
	}
	if _, answered := s.answers[current.ID]; answered {
		return SubmitOutcome{}
	}

	s.answers[current.ID] = answer

	correct := answer == current.CorrectAnswer
	if !correct {
		s.wrong[current.ID] = models.WrongAnswerRecord{
			QuestionID:      current.ID,
			SubmittedAnswer: answer,
			CorrectAnswer:   current.CorrectAnswer,
		}
	}

	return SubmitOutcome{
		Accepted:      true,
		Correct:       correct,
		CorrectAnswer: current.CorrectAnswer,
		Explanation:   current.Explanation,
	}
}

// Advance moves to the next question. Only the index changes — no answer
// entry is ever written for the question being advanced to.
func (s *Session) Advance() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index < len(s.questions)-1 {
		s.index++
	}
	done := s.index == len(s.questions)-1 && s.hasAnswerLocked(s.questions[s.index].ID)
	return s.index, done
}

func (s *Session) hasAnswerLocked(questionID string) bool {
	_, ok := s.answers[questionID]
	return ok
}

// Snapshot builds a point-in-time copy of session state. The answered
// count is derived from the answers map, never tracked separately.
func (s *Session) Snapshot(now time.Time) models.ProgressSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	questionIDs := make([]string, len(s.questions))
	for i, q := range s.questions {
		questionIDs[i] = q.ID
	}
	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	wrong := make(map[string]models.WrongAnswerRecord, len(s.wrong))
	for k, v := range s.wrong {
		wrong[k] = v
	}

	return models.ProgressSnapshot{
		SessionID:         s.id,
		UserID:            s.userID,
		AssessmentType:    s.assessmentType,
		QuestionIDs:       questionIDs,
		CurrentIndex:      s.index,
		Answers:           answers,
		WrongAnswers:      wrong,
		StartedAt:         s.startedAt,
		QuestionsAnswered: len(answers),
		TotalQuestions:    len(questionIDs),
		LastSavedAt:       now,
	}
}

// State returns the serving view of the session with graded fields stripped.
func (s *Session) State() models.SessionStateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	served := make([]models.ServedQuestion, len(s.questions))
	for i, q := range s.questions {
		served[i] = q.ToServed()
	}

	return models.SessionStateResponse{
		SessionID:         s.id,
		AssessmentType:    s.assessmentType,
		Questions:         served,
		CurrentIndex:      s.index,
		QuestionsAnswered: len(s.answers),
		TotalQuestions:    len(s.questions),
		StartedAt:         s.startedAt,
	}
}

// Complete tallies the attempt. Score is the rounded percentage correct.
func (s *Session) Complete() CompletionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	correct := 0
	for _, q := range s.questions {
		if answer, ok := s.answers[q.ID]; ok && answer == q.CorrectAnswer {
			correct++
		}
	}

	score := 0
	if len(s.questions) > 0 {
		score = int(math.Round(100 * float64(correct) / float64(len(s.questions))))
	}

	// Wrong answers in question order for the review record
	var wrongList []models.WrongAnswerRecord
	for _, q := range s.questions {
		if rec, ok := s.wrong[q.ID]; ok {
			wrongList = append(wrongList, rec)
		}
	}

	return CompletionSummary{
		Score:          score,
		CorrectCount:   correct,
		TotalQuestions: len(s.questions),
		WrongAnswers:   wrongList,
	}
}
