package search

import (
	"database/sql"
	"fmt"

	"github.com/civicsprep/backend/internal/models"
)

// maxSelections caps how many past search picks are kept per user.
const maxSelections = 25

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordSelection inserts the pick and evicts the oldest entries past the
// cap in one round trip each.
func (s *Store) RecordSelection(userID int64, contentType models.ContentType, contentID string) error {
	_, err := s.db.Exec(
		`INSERT INTO search_selections (user_id, content_type, content_id) VALUES ($1, $2, $3)`,
		userID, contentType, contentID,
	)
	if err != nil {
		return fmt.Errorf("record selection: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM search_selections
		 WHERE user_id = $1 AND id NOT IN (
		     SELECT id FROM search_selections
		     WHERE user_id = $1 ORDER BY selected_at DESC LIMIT $2
		 )`,
		userID, maxSelections,
	)
	if err != nil {
		return fmt.Errorf("evict selections: %w", err)
	}
	return nil
}

func (s *Store) GetSelections(userID int64) ([]models.SearchSelection, error) {
	rows, err := s.db.Query(
		`SELECT content_type, content_id, selected_at
		 FROM search_selections
		 WHERE user_id = $1 ORDER BY selected_at DESC LIMIT $2`,
		userID, maxSelections,
	)
	if err != nil {
		return nil, fmt.Errorf("get selections: %w", err)
	}
	defer rows.Close()

	var selections []models.SearchSelection
	for rows.Next() {
		var sel models.SearchSelection
		if err := rows.Scan(&sel.ContentType, &sel.ContentID, &sel.SelectedAt); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		selections = append(selections, sel)
	}
	return selections, rows.Err()
}
