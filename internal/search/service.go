package search

import (
	"fmt"
	"log"
	"time"

	"github.com/civicsprep/backend/internal/models"
)

// catalog is the slice of the content layer the service reads. Rankings
// run over the full catalog; at this app's scale that stays cheap.
type catalog interface {
	AllCollections() ([]models.Collection, error)
	AllTopics() ([]models.Topic, error)
	GetViewHistory(userID int64) ([]models.ViewedItem, error)
}

type Service struct {
	store   *Store
	catalog catalog
}

func NewService(store *Store, catalog catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

// Search ranks the whole catalog against the query. History lookups that
// fail degrade the ranking rather than failing the search.
func (s *Service) Search(userID int64, query string) (models.SearchSections, error) {
	collections, err := s.catalog.AllCollections()
	if err != nil {
		return models.SearchSections{}, fmt.Errorf("load collections: %w", err)
	}
	topics, err := s.catalog.AllTopics()
	if err != nil {
		return models.SearchSections{}, fmt.Errorf("load topics: %w", err)
	}

	viewHistory, err := s.catalog.GetViewHistory(userID)
	if err != nil {
		log.Printf("[search] WARN: view history unavailable, ranking without it: %v", err)
		viewHistory = nil
	}
	selections, err := s.store.GetSelections(userID)
	if err != nil {
		log.Printf("[search] WARN: selection history unavailable, ranking without it: %v", err)
		selections = nil
	}

	sections := Rank(query, collections, topics, viewHistory, selections, time.Now())
	if sections.Collections == nil {
		sections.Collections = []models.SearchResult{}
	}
	if sections.Topics == nil {
		sections.Topics = []models.SearchResult{}
	}
	return sections, nil
}

// RecordSelection notes which result the user picked. Failures are logged
// and swallowed; a lost boost must not break navigation.
func (s *Service) RecordSelection(userID int64, req models.SelectResultRequest) {
	if !models.ValidContentTypes[req.ContentType] || req.ContentID == "" {
		return
	}
	if err := s.store.RecordSelection(userID, req.ContentType, req.ContentID); err != nil {
		log.Printf("[search] WARN: failed to record selection: %v", err)
	}
}

// Recommendations builds the home-screen continue list from view history.
func (s *Service) Recommendations(userID int64, limit int) ([]models.SearchResult, error) {
	viewHistory, err := s.catalog.GetViewHistory(userID)
	if err != nil {
		return nil, fmt.Errorf("load view history: %w", err)
	}
	if len(viewHistory) == 0 {
		return []models.SearchResult{}, nil
	}

	collections, err := s.catalog.AllCollections()
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	topics, err := s.catalog.AllTopics()
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}

	collectionsByID := make(map[string]models.Collection, len(collections))
	for _, c := range collections {
		collectionsByID[c.ID] = c
	}
	topicsByID := make(map[string]models.Topic, len(topics))
	for _, t := range topics {
		topicsByID[t.ID] = t
	}

	return Recommend(viewHistory, collectionsByID, topicsByID, limit), nil
}
