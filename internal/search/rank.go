// Package search ranks collections and topics against a query, folding in
// what the user has viewed and picked before so familiar content floats up.
package search

import (
	"sort"
	"strings"
	"time"

	"github.com/civicsprep/backend/internal/models"
)

const (
	maxCollectionResults = 20
	maxTopicResults      = 30

	titleMatchScore       = 10
	descriptionMatchScore = 5
	viewedScore           = 15
	recentDayBoost        = 20
	recentWeekBoost       = 10
	completedPenalty      = 5
	priorSelectionBoost   = 8
)

// Rank is pure: it reads its inputs and returns scored sections without
// touching storage or the clock beyond the now it is handed. Candidates
// whose title and description both miss the query are excluded no matter
// what history says about them.
func Rank(query string, collections []models.Collection, topics []models.Topic, viewHistory []models.ViewedItem, selections []models.SearchSelection, now time.Time) models.SearchSections {
	q := strings.ToLower(strings.TrimSpace(query))

	viewed := make(map[string]models.ViewedItem, len(viewHistory))
	for _, item := range viewHistory {
		viewed[historyKey(item.ContentType, item.ContentID)] = item
	}
	selected := make(map[string]bool, len(selections))
	for _, sel := range selections {
		selected[historyKey(sel.ContentType, sel.ContentID)] = true
	}

	var sections models.SearchSections
	for _, c := range collections {
		base := textScore(q, c.Title, c.Description)
		if base == 0 {
			continue
		}
		score := base + historyScore(viewed, selected, models.ContentCollection, c.ID, false, now)
		col := c
		sections.Collections = append(sections.Collections, models.SearchResult{
			Type:       models.ContentCollection,
			Collection: &col,
			Score:      score,
		})
	}
	for _, t := range topics {
		base := textScore(q, t.Title, t.Description)
		if base == 0 {
			continue
		}
		score := base + historyScore(viewed, selected, models.ContentTopic, t.ID, true, now)
		top := t
		sections.Topics = append(sections.Topics, models.SearchResult{
			Type:  models.ContentTopic,
			Topic: &top,
			Score: score,
		})
	}

	// Stable keeps the incoming order for equal scores.
	sort.SliceStable(sections.Collections, func(i, j int) bool {
		return sections.Collections[i].Score > sections.Collections[j].Score
	})
	sort.SliceStable(sections.Topics, func(i, j int) bool {
		return sections.Topics[i].Score > sections.Topics[j].Score
	})

	if len(sections.Collections) > maxCollectionResults {
		sections.Collections = sections.Collections[:maxCollectionResults]
	}
	if len(sections.Topics) > maxTopicResults {
		sections.Topics = sections.Topics[:maxTopicResults]
	}
	return sections
}

func textScore(q, title, description string) int {
	if q == "" {
		return 0
	}
	score := 0
	if strings.Contains(strings.ToLower(title), q) {
		score += titleMatchScore
	}
	if strings.Contains(strings.ToLower(description), q) {
		score += descriptionMatchScore
	}
	return score
}

// historyScore folds in the user's past. Recency boosts pick one bracket,
// never both. The completed penalty applies to topics only; a finished
// collection is still a fine landing page.
func historyScore(viewed map[string]models.ViewedItem, selected map[string]bool, contentType models.ContentType, id string, isTopic bool, now time.Time) int {
	score := 0
	key := historyKey(contentType, id)

	if item, ok := viewed[key]; ok {
		score += viewedScore
		age := now.Sub(item.LastViewedAt)
		if age <= 24*time.Hour {
			score += recentDayBoost
		} else if age <= 7*24*time.Hour {
			score += recentWeekBoost
		}
		if isTopic && item.Completed {
			score -= completedPenalty
		}
	}

	if selected[key] {
		score += priorSelectionBoost
	}
	return score
}

func historyKey(contentType models.ContentType, id string) string {
	return string(contentType) + ":" + id
}
