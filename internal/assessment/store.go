package assessment

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civicsprep/backend/internal/models"
	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SnapshotKey is the well-known key pattern for progress snapshots.
func SnapshotKey(sessionID string) string {
	return "session_progress_" + sessionID
}

// ── Session Rows ────────────────────────────────────────

func (s *Store) CreateSession(sessionID string, userID int64, assessmentType models.AssessmentType, topicID *string, questionIDs []string, startedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO assessment_sessions (id, user_id, assessment_type, topic_id, question_ids, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sessionID, userID, assessmentType, topicID, pq.Array(questionIDs), models.SessionActive, startedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSessionTopic returns the topic a session was scoped to, nil for
// unscoped sessions.
func (s *Store) GetSessionTopic(sessionID string) (*string, error) {
	var topicID sql.NullString
	err := s.db.QueryRow(
		`SELECT topic_id FROM assessment_sessions WHERE id = $1`,
		sessionID,
	).Scan(&topicID)
	if err != nil {
		return nil, fmt.Errorf("get session topic: %w", err)
	}
	if !topicID.Valid {
		return nil, nil
	}
	return &topicID.String, nil
}

func (s *Store) GetSessionOwner(sessionID string) (int64, models.SessionStatus, error) {
	var userID int64
	var status models.SessionStatus
	err := s.db.QueryRow(
		`SELECT user_id, status FROM assessment_sessions WHERE id = $1`,
		sessionID,
	).Scan(&userID, &status)
	if err != nil {
		return 0, "", fmt.Errorf("get session: %w", err)
	}
	return userID, status, nil
}

func (s *Store) UpdateSessionIndex(sessionID string, index int) error {
	_, err := s.db.Exec(
		`UPDATE assessment_sessions SET current_index = $1 WHERE id = $2`,
		index, sessionID,
	)
	return err
}

func (s *Store) CompleteSession(sessionID string, score int) error {
	_, err := s.db.Exec(
		`UPDATE assessment_sessions SET status = $1, score = $2, completed_at = NOW() WHERE id = $3`,
		models.SessionCompleted, score, sessionID,
	)
	return err
}

func (s *Store) AbandonSession(sessionID string) error {
	_, err := s.db.Exec(
		`UPDATE assessment_sessions SET status = $1, completed_at = NOW() WHERE id = $2`,
		models.SessionAbandoned, sessionID,
	)
	return err
}

// ── Snapshot KV ─────────────────────────────────────────

// SaveSnapshot writes the snapshot under its session key. Snapshots whose
// answered-count metadata disagrees with the answers map are rejected
// outright — that mismatch is how empty-answer keys used to sneak in.
func (s *Store) SaveSnapshot(snap models.ProgressSnapshot) error {
	if snap.QuestionsAnswered != len(snap.Answers) {
		return fmt.Errorf("snapshot %s: answered count %d disagrees with answers map size %d",
			snap.SessionID, snap.QuestionsAnswered, len(snap.Answers))
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO progress_snapshots (key, user_id, payload, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE SET payload = $3, updated_at = NOW()`,
		SnapshotKey(snap.SessionID), snap.UserID, payload,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetSnapshot(sessionID string) (*models.ProgressSnapshot, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM progress_snapshots WHERE key = $1`,
		SnapshotKey(sessionID),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap models.ProgressSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// FindLatestSnapshot looks for the user's most recent snapshot of the
// given type, for the resume-or-discard prompt on session entry.
func (s *Store) FindLatestSnapshot(userID int64, assessmentType models.AssessmentType) (*models.ProgressSnapshot, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM progress_snapshots WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("find snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var snap models.ProgressSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			continue // corrupt payloads are skipped, not fatal
		}
		if snap.AssessmentType == assessmentType {
			return &snap, nil
		}
	}
	return nil, rows.Err()
}

func (s *Store) DeleteSnapshot(sessionID string) error {
	_, err := s.db.Exec(
		`DELETE FROM progress_snapshots WHERE key = $1`,
		SnapshotKey(sessionID),
	)
	return err
}

// SweepStaleSnapshots removes snapshots not touched within maxAge and
// abandons their sessions. Returns the number removed.
func (s *Store) SweepStaleSnapshots(maxAge time.Duration) (int, error) {
	res, err := s.db.Exec(
		`DELETE FROM progress_snapshots WHERE updated_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(maxAge.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("sweep snapshots: %w", err)
	}
	n, _ := res.RowsAffected()

	_, err = s.db.Exec(
		`UPDATE assessment_sessions SET status = $1, completed_at = NOW()
		 WHERE status = $2 AND started_at < NOW() - $3::interval
		   AND id NOT IN (
		       SELECT REPLACE(key, 'session_progress_', '')::uuid FROM progress_snapshots
		   )`,
		models.SessionAbandoned, models.SessionActive,
		fmt.Sprintf("%d seconds", int(maxAge.Seconds())),
	)
	if err != nil {
		return int(n), fmt.Errorf("abandon stale sessions: %w", err)
	}
	return int(n), nil
}

// ── Review Records ──────────────────────────────────────

func (s *Store) CreateReviewRecord(userID int64, assessmentType models.AssessmentType, summary CompletionSummary, completedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var reviewID int64
	err = tx.QueryRow(
		`INSERT INTO review_records (user_id, assessment_type, score, total_questions, completed_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		userID, assessmentType, summary.Score, summary.TotalQuestions, completedAt,
	).Scan(&reviewID)
	if err != nil {
		return fmt.Errorf("insert review record: %w", err)
	}

	for _, wrong := range summary.WrongAnswers {
		_, err := tx.Exec(
			`INSERT INTO review_items (review_id, question_id, submitted_answer, correct_answer)
			 VALUES ($1, $2, $3, $4)`,
			reviewID, wrong.QuestionID, wrong.SubmittedAnswer, wrong.CorrectAnswer,
		)
		if err != nil {
			return fmt.Errorf("insert review item: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatestReview returns the most recent review record for the user and
// type, with its wrong-answer items. Nil when the user has none.
func (s *Store) GetLatestReview(userID int64, assessmentType models.AssessmentType) (*models.ReviewRecord, error) {
	var rec models.ReviewRecord
	err := s.db.QueryRow(
		`SELECT id, user_id, assessment_type, score, total_questions, completed_at
		 FROM review_records
		 WHERE user_id = $1 AND assessment_type = $2
		 ORDER BY completed_at DESC LIMIT 1`,
		userID, assessmentType,
	).Scan(&rec.ID, &rec.UserID, &rec.AssessmentType, &rec.Score, &rec.TotalQuestions, &rec.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest review: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT question_id, submitted_answer, correct_answer
		 FROM review_items WHERE review_id = $1 ORDER BY id`,
		rec.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get review items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w models.WrongAnswerRecord
		if err := rows.Scan(&w.QuestionID, &w.SubmittedAnswer, &w.CorrectAnswer); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		rec.WrongAnswers = append(rec.WrongAnswers, w)
	}
	return &rec, rows.Err()
}
