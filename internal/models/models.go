// Package models holds the entities owned by the relational store:
// Feed and FeedEntry. See SPEC_FULL.md §5 for the data model and
// internal/database for the schema that backs these types.
package models

import "time"

// Feed is a subscribed syndication source identified by URL.
type Feed struct {
	ID            int64      `json:"id"`
	URL           string     `json:"url"`
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
}

// FeedEntry is one item/article within a Feed.
type FeedEntry struct {
	ID          int64      `json:"id"`
	FeedID      int64      `json:"feed_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Link        string     `json:"link"`
	Content     *string    `json:"content,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	IsRead      bool       `json:"is_read"`
	IsStarred   bool       `json:"is_starred"`
}

// CreateFeedRequest is the input to create a feed.
type CreateFeedRequest struct {
	URL         string  `json:"url"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpdateFeedRequest is a partial update of a feed; nil fields are left unchanged.
type UpdateFeedRequest struct {
	ID          int64   `json:"id"`
	URL         *string `json:"url,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpdateFeedEntryRequest is a partial update of a feed entry.
type UpdateFeedEntryRequest struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty"`
	IsRead      *bool   `json:"is_read,omitempty"`
	IsStarred   *bool   `json:"is_starred,omitempty"`
}
