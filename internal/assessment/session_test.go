package assessment

import (
	"testing"
	"time"

	"github.com/civicsprep/backend/internal/models"
)

func testQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", Prompt: "How many branches of government are there?", Options: []string{"Two", "Three", "Four"}, CorrectAnswer: "Three"},
		{ID: "q2", Prompt: "Who signs bills into law?", Options: []string{"The President", "The Chief Justice"}, CorrectAnswer: "The President"},
		{ID: "q3", Prompt: "What is the supreme law of the land?", Options: []string{"The Constitution", "The Declaration"}, CorrectAnswer: "The Constitution"},
	}
}

func TestStartNewInitialState(t *testing.T) {
	s := StartNew("s1", 7, models.TypeCivicsTest, testQuestions(), time.Now())

	state := s.State()
	if state.CurrentIndex != 0 {
		t.Errorf("index = %d, want 0", state.CurrentIndex)
	}
	if state.QuestionsAnswered != 0 {
		t.Errorf("answered = %d, want 0", state.QuestionsAnswered)
	}
	if state.TotalQuestions != 3 {
		t.Errorf("total = %d, want 3", state.TotalQuestions)
	}
}

func TestSubmitAnswerGrading(t *testing.T) {
	s := StartNew("s1", 7, models.TypeCivicsTest, testQuestions(), time.Now())

	out := s.SubmitAnswer("q1", "Three")
	if !out.Accepted || !out.Correct {
		t.Fatalf("correct answer: accepted=%v correct=%v", out.Accepted, out.Correct)
	}

	s.Advance()
	out = s.SubmitAnswer("q2", "The Chief Justice")
	if !out.Accepted || out.Correct {
		t.Fatalf("wrong answer: accepted=%v correct=%v", out.Accepted, out.Correct)
	}
	if out.CorrectAnswer != "The President" {
		t.Errorf("correct answer = %q", out.CorrectAnswer)
	}

	snap := s.Snapshot(time.Now())
	if len(snap.WrongAnswers) != 1 {
		t.Errorf("wrong answers = %d, want 1", len(snap.WrongAnswers))
	}
	if rec := snap.WrongAnswers["q2"]; rec.SubmittedAnswer != "The Chief Justice" {
		t.Errorf("wrong record = %+v", rec)
	}
}

func TestSubmitAnswerRejectsRepeat(t *testing.T) {
	s := StartNew("s1", 7, models.TypeCivicsTest, testQuestions(), time.Now())

	if out := s.SubmitAnswer("q1", "Three"); !out.Accepted {
		t.Fatal("first submit rejected")
	}
	if out := s.SubmitAnswer("q1", "Two"); out.Accepted {
		t.Error("repeat submit for the current question was accepted")
	}

	snap := s.Snapshot(time.Now())
	if snap.Answers["q1"] != "Three" {
		t.Errorf("answer overwritten: %q", snap.Answers["q1"])
	}
}

func TestSubmitAnswerRejectsNonCurrent(t *testing.T) {
	s := StartNew("s1", 7, models.TypeCivicsTest, testQuestions(), time.Now())

	if out := s.SubmitAnswer("q3", "The Constitution"); out.Accepted {
		t.Error("submit for a non-current question was accepted")
	}
	if n := s.Snapshot(time.Now()).QuestionsAnswered; n != 0 {
		t.Errorf("answered = %d, want 0", n)
	}
}

// Answers map size never decreases across submits and is unaffected by
// Advance.
func TestAnswersMonotonic(t *testing.T) {
	s := StartNew("s1", 7, models.TypeCivicsTest, testQuestions(), time.Now())

	prev := 0
	steps := []func(){
		func() { s.SubmitAnswer("q1", "Three") },
		func() { s.Advance() },
		func() { s.SubmitAnswer("q2", "The President") },
		func() { s.Advance() },
		func() { s.Advance() }, // past the end: no-op
		func() { s.SubmitAnswer("q3", "The Declaration") },
	}
	for i, step := range steps {
		step()
		n := s.Snapshot(time.Now()).QuestionsAnswered
		if n < prev {
			t.Fatalf("step %d: answered shrank from %d to %d", i, prev, n)
		}
		prev = n
	}
	if prev != 3 {
		t.Errorf("final answered = %d, want 3", prev)
	}
}

// Resuming a snapshot and advancing must not introduce an answer entry for
// the newly current question.
func TestResumeAdvanceNoSynthesizedAnswer(t *testing.T) {
	questions := testQuestions()
	s := StartNew("s1", 7, models.TypeCivicsTest, questions, time.Now())
	s.SubmitAnswer("q1", "Three")

	snap := s.Snapshot(time.Now())
	resumed, err := Resume(snap, questions)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	idx, _ := resumed.Advance()
	if idx != 1 {
		t.Fatalf("index = %d, want 1", idx)
	}

	after := resumed.Snapshot(time.Now())
	if _, ok := after.Answers["q2"]; ok {
		t.Error("advance synthesized an answer entry for q2")
	}
	if after.QuestionsAnswered != 1 {
		t.Errorf("answered = %d, want 1", after.QuestionsAnswered)
	}
	if after.QuestionsAnswered != len(after.Answers) {
		t.Errorf("answered count %d disagrees with map size %d", after.QuestionsAnswered, len(after.Answers))
	}
}

func TestResumeRestoresVerbatim(t *testing.T) {
	questions := testQuestions()
	s := StartNew("s1", 7, models.TypeSkillAssessment, questions, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	s.SubmitAnswer("q1", "Two")
	s.Advance()

	snap := s.Snapshot(time.Now())
	resumed, err := Resume(snap, questions)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	got := resumed.Snapshot(time.Now())
	if got.CurrentIndex != 1 {
		t.Errorf("index = %d, want 1", got.CurrentIndex)
	}
	if got.Answers["q1"] != "Two" {
		t.Errorf("answers = %v", got.Answers)
	}
	if len(got.WrongAnswers) != 1 {
		t.Errorf("wrong = %v", got.WrongAnswers)
	}
	if !got.StartedAt.Equal(snap.StartedAt) {
		t.Errorf("started_at changed: %v vs %v", got.StartedAt, snap.StartedAt)
	}
}

func TestResumeRejectsMismatchedQuestions(t *testing.T) {
	questions := testQuestions()
	s := StartNew("s1", 7, models.TypeCivicsTest, questions, time.Now())
	snap := s.Snapshot(time.Now())

	if _, err := Resume(snap, questions[:2]); err == nil {
		t.Error("Resume accepted a short question list")
	}

	reordered := []models.Question{questions[1], questions[0], questions[2]}
	if _, err := Resume(snap, reordered); err == nil {
		t.Error("Resume accepted reordered questions")
	}
}

func TestCompleteScoring(t *testing.T) {
	s := StartNew("s1", 7, models.TypeCivicsTest, testQuestions(), time.Now())
	s.SubmitAnswer("q1", "Three")
	s.Advance()
	s.SubmitAnswer("q2", "The Chief Justice")
	s.Advance()
	s.SubmitAnswer("q3", "The Constitution")

	summary := s.Complete()
	if summary.CorrectCount != 2 {
		t.Errorf("correct = %d, want 2", summary.CorrectCount)
	}
	if summary.Score != 67 {
		t.Errorf("score = %d, want 67", summary.Score)
	}
	if len(summary.WrongAnswers) != 1 || summary.WrongAnswers[0].QuestionID != "q2" {
		t.Errorf("wrong answers = %+v", summary.WrongAnswers)
	}
}

func TestAdvanceDoneOnlyWhenLastAnswered(t *testing.T) {
	s := StartNew("s1", 7, models.TypeCivicsTest, testQuestions()[:2], time.Now())
	s.SubmitAnswer("q1", "Three")

	_, done := s.Advance()
	if done {
		t.Error("done before the last question was answered")
	}

	s.SubmitAnswer("q2", "The President")
	idx, done := s.Advance()
	if idx != 1 || !done {
		t.Errorf("idx=%d done=%v, want 1/true", idx, done)
	}
}
