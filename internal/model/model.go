package model

// Package model contains domain models/data structures.
// No business logic here.

import "time"

// SearchResult is derived at query time and never persisted.
type SearchResult struct {
	ID          string    `json:"prd_id"`
	ProductName string    `json:"product_name"`
	Summary     string    `json:"summary"`
	Snippet     string    `json:"snippet"`
	CreatedAt   time.Time `json:"created_at"`
	Score       float64   `json:"relevance_score"`
}

// SearchResponse is the outward shape of the search operation.
// Results is never nil so it always encodes as a JSON list.
type SearchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"results_count"`
	Results []SearchResult `json:"results"`
}

// IndexEntry is one row of the full-text search index, built from a stored HTML rendition.
type IndexEntry struct {
	ID          string
	ProductName string
	Summary     string
	Body        string
	HTMLPath    string
	CreatedAt   time.Time
}
