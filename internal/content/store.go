package content

import (
	"database/sql"
	"fmt"

	"github.com/civicsprep/backend/internal/models"
	"github.com/lib/pq"
)

// maxViewedItems caps the per-user view-history list. Inserting past the
// cap evicts the oldest entries.
const maxViewedItems = 50

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Collections ─────────────────────────────────────────

func (s *Store) ListCollections(limit, offset int) ([]models.Collection, int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM collections`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT c.id, c.title, c.description, COALESCE(c.category, ''),
		        (SELECT COUNT(*) FROM topics t WHERE t.collection_id = c.id),
		        c.created_at
		 FROM collections c
		 ORDER BY c.title LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var collections []models.Collection
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.TopicCount, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	return collections, total, rows.Err()
}

// AllCollections returns the full collection list for in-memory ranking.
// The candidate set is tens of items, so no pagination here.
func (s *Store) AllCollections() ([]models.Collection, error) {
	collections, _, err := s.ListCollections(1000, 0)
	return collections, err
}

func (s *Store) GetCollection(id string) (*models.Collection, error) {
	var c models.Collection
	err := s.db.QueryRow(
		`SELECT c.id, c.title, c.description, COALESCE(c.category, ''),
		        (SELECT COUNT(*) FROM topics t WHERE t.collection_id = c.id),
		        c.created_at
		 FROM collections c WHERE c.id = $1`,
		id,
	).Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.TopicCount, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return &c, nil
}

// ── Topics ──────────────────────────────────────────────

func (s *Store) ListTopics(collectionID *string, limit, offset int) ([]models.Topic, int, error) {
	var total int
	var rows *sql.Rows
	var err error

	if collectionID != nil {
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM topics WHERE collection_id = $1`, *collectionID).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count topics: %w", err)
		}
		rows, err = s.db.Query(
			`SELECT id, collection_id, title, description, created_at
			 FROM topics WHERE collection_id = $1
			 ORDER BY title LIMIT $2 OFFSET $3`,
			*collectionID, limit, offset,
		)
	} else {
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count topics: %w", err)
		}
		rows, err = s.db.Query(
			`SELECT id, collection_id, title, description, created_at
			 FROM topics ORDER BY title LIMIT $1 OFFSET $2`,
			limit, offset,
		)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.CollectionID, &t.Title, &t.Description, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, total, rows.Err()
}

func (s *Store) AllTopics() ([]models.Topic, error) {
	topics, _, err := s.ListTopics(nil, 1000, 0)
	return topics, err
}

func (s *Store) GetTopic(id string) (*models.Topic, error) {
	var t models.Topic
	err := s.db.QueryRow(
		`SELECT id, collection_id, title, description, body, created_at
		 FROM topics WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.CollectionID, &t.Title, &t.Description, &t.Body, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	sources, err := s.getSourcesForTopic(id)
	if err != nil {
		return nil, err
	}
	t.Sources = sources

	return &t, nil
}

func (s *Store) getSourcesForTopic(topicID string) ([]models.Source, error) {
	rows, err := s.db.Query(
		`SELECT id, title, COALESCE(url, ''), COALESCE(kind, '')
		 FROM topic_sources WHERE topic_id = $1 ORDER BY id`,
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}
	defer rows.Close()

	var sources []models.Source
	for rows.Next() {
		var src models.Source
		if err := rows.Scan(&src.ID, &src.Title, &src.URL, &src.Kind); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func (s *Store) InsertSources(topicID string, sources []models.Source) error {
	for _, src := range sources {
		_, err := s.db.Exec(
			`INSERT INTO topic_sources (topic_id, title, url, kind) VALUES ($1, $2, $3, $4)`,
			topicID, src.Title, nullString(src.URL), nullString(src.Kind),
		)
		if err != nil {
			return fmt.Errorf("insert source: %w", err)
		}
	}
	return nil
}

// ── Questions ───────────────────────────────────────────

func (s *Store) GetQuestionsByIDs(ids []string) ([]models.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, topic_id, prompt, options, correct_answer, COALESCE(explanation, '')
		 FROM questions WHERE id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]models.Question)
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.TopicID, &q.Prompt, pq.Array(&q.Options), &q.CorrectAnswer, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve the caller's ordering
	questions := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (s *Store) GetRandomQuestions(topicID *string, count int) ([]models.Question, error) {
	var rows *sql.Rows
	var err error

	if topicID != nil {
		rows, err = s.db.Query(
			`SELECT id, topic_id, prompt, options, correct_answer, COALESCE(explanation, '')
			 FROM questions WHERE topic_id = $1 ORDER BY RANDOM() LIMIT $2`,
			*topicID, count,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, topic_id, prompt, options, correct_answer, COALESCE(explanation, '')
			 FROM questions ORDER BY RANDOM() LIMIT $1`,
			count,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("get random questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.TopicID, &q.Prompt, pq.Array(&q.Options), &q.CorrectAnswer, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ── View History ────────────────────────────────────────

// RecordView upserts a viewed-item row: a repeat view bumps the count and
// timestamp rather than inserting a new record.
func (s *Store) RecordView(userID int64, contentType models.ContentType, contentID string) error {
	_, err := s.db.Exec(
		`INSERT INTO viewed_items (user_id, content_type, content_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, content_type, content_id)
		 DO UPDATE SET view_count = viewed_items.view_count + 1, last_viewed_at = NOW()`,
		userID, contentType, contentID,
	)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}

	// Evict beyond the cap, oldest first
	_, err = s.db.Exec(
		`DELETE FROM viewed_items WHERE id IN (
		     SELECT id FROM viewed_items WHERE user_id = $1
		     ORDER BY last_viewed_at DESC OFFSET $2
		 )`,
		userID, maxViewedItems,
	)
	if err != nil {
		return fmt.Errorf("evict views: %w", err)
	}
	return nil
}

func (s *Store) SetViewProgress(userID int64, contentType models.ContentType, contentID string, completed bool, score *int) error {
	_, err := s.db.Exec(
		`INSERT INTO viewed_items (user_id, content_type, content_id, completed, score)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, content_type, content_id)
		 DO UPDATE SET completed = $4, score = $5, last_viewed_at = NOW()`,
		userID, contentType, contentID, completed, score,
	)
	return err
}

// GetViewHistory returns the user's viewed items, most recent first.
func (s *Store) GetViewHistory(userID int64) ([]models.ViewedItem, error) {
	rows, err := s.db.Query(
		`SELECT content_type, content_id, last_viewed_at, view_count, completed, score
		 FROM viewed_items WHERE user_id = $1
		 ORDER BY last_viewed_at DESC LIMIT $2`,
		userID, maxViewedItems,
	)
	if err != nil {
		return nil, fmt.Errorf("get view history: %w", err)
	}
	defer rows.Close()

	var items []models.ViewedItem
	for rows.Next() {
		var v models.ViewedItem
		if err := rows.Scan(&v.ContentType, &v.ContentID, &v.LastViewedAt, &v.ViewCount, &v.Completed, &v.Score); err != nil {
			return nil, fmt.Errorf("scan viewed item: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
