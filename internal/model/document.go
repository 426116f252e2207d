package model

import "time"

// Document is a stored product requirements document (PRD).
// Its JSON tags are the wire format shared by the REST and tool endpoints.
type Document struct {
	ID          string            `json:"prd_id"`
	ProductName string            `json:"product_name"`
	Content     string            `json:"content"`
	Author      string            `json:"author,omitempty"`
	Version     string            `json:"version,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Summary     string            `json:"summary"`
	Path        string            `json:"gcs_path"`
	HTMLPath    string            `json:"html_path,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// StoreInput carries the arguments of the store operation.
type StoreInput struct {
	ProductName string            `json:"product_name"`
	Content     string            `json:"content"`
	Author      string            `json:"author"`
	Version     string            `json:"version"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// StoreResult describes a freshly stored document and where both renditions live.
type StoreResult struct {
	ID           string    `json:"prd_id"`
	MarkdownPath string    `json:"gcs_path_markdown"`
	HTMLPath     string    `json:"gcs_path_html"`
	HTMLURL      string    `json:"html_url"`
	ProductName  string    `json:"product_name"`
	CreatedAt    time.Time `json:"created_at"`
	Summary      string    `json:"summary"`
	Author       string    `json:"author,omitempty"`
	Version      string    `json:"version,omitempty"`
}
