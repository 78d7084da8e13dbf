package models

import "time"

type AssessmentType string

const (
	TypeCivicsTest      AssessmentType = "civics_test"
	TypeSkillAssessment AssessmentType = "skill_assessment"
	TypePlacementTest   AssessmentType = "placement_test"
)

var ValidAssessmentTypes = map[AssessmentType]bool{
	TypeCivicsTest:      true,
	TypeSkillAssessment: true,
	TypePlacementTest:   true,
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// WrongAnswerRecord captures a miss during a session. Accumulated in the
// snapshot while the session runs, consumed at completion to seed the
// review record for the cooldown period.
type WrongAnswerRecord struct {
	QuestionID      string `json:"question_id"`
	SubmittedAnswer string `json:"submitted_answer"`
	CorrectAnswer   string `json:"correct_answer"`
}

// ProgressSnapshot is the serialized point-in-time copy of session state
// used to resume an interrupted assessment.
//
// Invariant: QuestionsAnswered always equals len(Answers). Keys appear in
// Answers only for questions the user actually submitted.
type ProgressSnapshot struct {
	SessionID         string                       `json:"session_id"`
	UserID            int64                        `json:"user_id"`
	AssessmentType    AssessmentType               `json:"assessment_type"`
	QuestionIDs       []string                     `json:"question_ids"`
	CurrentIndex      int                          `json:"current_index"`
	Answers           map[string]string            `json:"answers"`
	WrongAnswers      map[string]WrongAnswerRecord `json:"wrong_answers"`
	StartedAt         time.Time                    `json:"started_at"`
	QuestionsAnswered int                          `json:"questions_answered"`
	TotalQuestions    int                          `json:"total_questions"`
	LastSavedAt       time.Time                    `json:"last_saved_at"`
}

// ── Serving Types (strip answers before sending) ───────

type ServedQuestion struct {
	ID      string   `json:"id"`
	TopicID string   `json:"topic_id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

func (q Question) ToServed() ServedQuestion {
	return ServedQuestion{
		ID:      q.ID,
		TopicID: q.TopicID,
		Prompt:  q.Prompt,
		Options: q.Options,
	}
}

// ── Request/Response Types ─────────────────────────────

type StartSessionRequest struct {
	AssessmentType AssessmentType `json:"assessment_type"`
	TopicID        *string        `json:"topic_id,omitempty"`
	Count          int            `json:"count"`
}

type SessionStateResponse struct {
	SessionID         string           `json:"session_id"`
	AssessmentType    AssessmentType   `json:"assessment_type"`
	Questions         []ServedQuestion `json:"questions"`
	CurrentIndex      int              `json:"current_index"`
	QuestionsAnswered int              `json:"questions_answered"`
	TotalQuestions    int              `json:"total_questions"`
	StartedAt         time.Time        `json:"started_at"`
}

type SubmitAnswerRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type SubmitAnswerResponse struct {
	Accepted      bool   `json:"accepted"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

type AdvanceResponse struct {
	CurrentIndex int  `json:"current_index"`
	Done         bool `json:"done"`
}

type CompleteSessionResponse struct {
	SessionID      string              `json:"session_id"`
	Score          int                 `json:"score"`
	TotalQuestions int                 `json:"total_questions"`
	CorrectCount   int                 `json:"correct_count"`
	WrongAnswers   []WrongAnswerRecord `json:"wrong_answers"`
}

type ResumeCheckResponse struct {
	Found    bool              `json:"found"`
	Snapshot *ProgressSnapshot `json:"snapshot,omitempty"`
}

// ── Cooldown/Review Types ──────────────────────────────

type ReviewRecord struct {
	ID             int64               `json:"id"`
	UserID         int64               `json:"user_id"`
	AssessmentType AssessmentType      `json:"assessment_type"`
	Score          int                 `json:"score"`
	TotalQuestions int                 `json:"total_questions"`
	CompletedAt    time.Time           `json:"completed_at"`
	WrongAnswers   []WrongAnswerRecord `json:"wrong_answers,omitempty"`
}

type CooldownResponse struct {
	InCooldown     bool   `json:"in_cooldown"`
	DaysRemaining  int    `json:"days_remaining"`
	HoursRemaining int    `json:"hours_remaining"`
	Remaining      string `json:"remaining,omitempty"`
	LastScore      *int   `json:"last_score,omitempty"`
}
