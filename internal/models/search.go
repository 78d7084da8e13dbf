package models

import "time"

// SearchResult is a ranked candidate: exactly one of Collection or Topic
// is set, matching Type. Score is derived per query, never stored.
type SearchResult struct {
	Type       ContentType `json:"type"`
	Collection *Collection `json:"collection,omitempty"`
	Topic      *Topic      `json:"topic,omitempty"`
	Score      int         `json:"score"`
}

type SearchSections struct {
	Collections []SearchResult `json:"collections"`
	Topics      []SearchResult `json:"topics"`
}

// SearchSelection records that the user picked a result from a past search.
// Feeds the prior-selection ranking boost.
type SearchSelection struct {
	ContentType ContentType `json:"content_type"`
	ContentID   string      `json:"content_id"`
	SelectedAt  time.Time   `json:"selected_at"`
}

type SelectResultRequest struct {
	ContentType ContentType `json:"content_type"`
	ContentID   string      `json:"content_id"`
}

type RecommendationsResponse struct {
	Results []SearchResult `json:"results"`
}
