package models

import "time"

type ContentType string

const (
	ContentCollection ContentType = "collection"
	ContentTopic      ContentType = "topic"
)

var ValidContentTypes = map[ContentType]bool{
	ContentCollection: true,
	ContentTopic:      true,
}

// ── Core Structs ───────────────────────────────────────

type Collection struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	TopicCount  int       `json:"topic_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type Topic struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Body         string    `json:"body,omitempty"`
	Sources      []Source  `json:"sources,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Source is the canonical citation record attached to a topic.
// Legacy payloads with aliased field names go through the import shim
// in internal/content before they reach this shape.
type Source struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

type Question struct {
	ID            string   `json:"id"`
	TopicID       string   `json:"topic_id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// ViewedItem tracks a user's interaction with one piece of content.
// Re-viewing mutates the record in place; the backing list is served
// most-recent-first and capped.
type ViewedItem struct {
	ContentType  ContentType `json:"content_type"`
	ContentID    string      `json:"content_id"`
	LastViewedAt time.Time   `json:"last_viewed_at"`
	ViewCount    int         `json:"view_count"`
	Completed    bool        `json:"completed"`
	Score        *int        `json:"score,omitempty"`
}

// ── Request/Response Types ─────────────────────────────

type CollectionListResponse struct {
	Collections []Collection `json:"collections"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
}

type TopicListResponse struct {
	Topics   []Topic `json:"topics"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

type TopicProgressRequest struct {
	Completed bool `json:"completed"`
	Score     *int `json:"score,omitempty"`
}
