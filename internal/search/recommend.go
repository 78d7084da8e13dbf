package search

import "github.com/civicsprep/backend/internal/models"

const defaultRecommendationLimit = 10

// Recommend turns the view history into a pick-up-where-you-left-off
// list: most recently viewed first, completed items dropped. The limit is
// taken over the incomplete history entries FIRST, then ids are resolved,
// so an entry whose content was deleted consumes its slot and the list
// comes up short rather than backfilling with older history.
func Recommend(viewHistory []models.ViewedItem, collections map[string]models.Collection, topics map[string]models.Topic, limit int) []models.SearchResult {
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}

	results := make([]models.SearchResult, 0, limit)
	examined := 0
	for _, item := range viewHistory {
		if item.Completed {
			continue
		}
		if examined >= limit {
			break
		}
		examined++

		switch item.ContentType {
		case models.ContentCollection:
			c, ok := collections[item.ContentID]
			if !ok {
				continue
			}
			col := c
			results = append(results, models.SearchResult{
				Type:       models.ContentCollection,
				Collection: &col,
			})
		case models.ContentTopic:
			t, ok := topics[item.ContentID]
			if !ok {
				continue
			}
			top := t
			results = append(results, models.SearchResult{
				Type:  models.ContentTopic,
				Topic: &top,
			})
		}
	}
	return results
}
