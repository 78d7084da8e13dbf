package content

import (
	"fmt"
	"log"

	"github.com/civicsprep/backend/internal/models"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) ListCollections(limit, offset int) ([]models.Collection, int, error) {
	return s.store.ListCollections(limit, offset)
}

func (s *Service) GetCollection(id string) (*models.Collection, error) {
	return s.store.GetCollection(id)
}

func (s *Service) ListTopics(collectionID *string, limit, offset int) ([]models.Topic, int, error) {
	return s.store.ListTopics(collectionID, limit, offset)
}

// GetTopic fetches a topic and records the view. A failed view write is
// logged and swallowed — it never blocks content delivery.
func (s *Service) GetTopic(userID int64, id string) (*models.Topic, error) {
	topic, err := s.store.GetTopic(id)
	if err != nil {
		return nil, err
	}

	if err := s.store.RecordView(userID, models.ContentTopic, id); err != nil {
		log.Printf("WARN: failed to record topic view: %v", err)
	}

	return topic, nil
}

// RecordCollectionView tracks a collection open for ranking boosts.
func (s *Service) RecordCollectionView(userID int64, id string) {
	if err := s.store.RecordView(userID, models.ContentCollection, id); err != nil {
		log.Printf("WARN: failed to record collection view: %v", err)
	}
}

func (s *Service) SetTopicProgress(userID int64, topicID string, completed bool, score *int) error {
	return s.store.SetViewProgress(userID, models.ContentTopic, topicID, completed, score)
}

func (s *Service) GetViewHistory(userID int64) ([]models.ViewedItem, error) {
	return s.store.GetViewHistory(userID)
}

// ImportLegacySources runs the tolerant shim over a raw legacy payload and
// stores whatever normalizes cleanly.
func (s *Service) ImportLegacySources(topicID string, raw []byte) (int, error) {
	if _, err := s.store.GetTopic(topicID); err != nil {
		return 0, fmt.Errorf("topic lookup: %w", err)
	}

	sources := ParseLegacySources(raw)
	if len(sources) == 0 {
		return 0, nil
	}

	if err := s.store.InsertSources(topicID, sources); err != nil {
		return 0, err
	}
	return len(sources), nil
}
