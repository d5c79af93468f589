package models

import "time"

// CandidateArticle is a parsed, not-yet-enriched news item from a feed.
// The category is assigned once by the AI categorizer and never re-derived.
type CandidateArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	SourceName  string    `json:"source_name"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
}

// CreateEventRequest is the body of POST /api/v1/events.
type CreateEventRequest struct {
	Titulo      string   `json:"titulo" validate:"required,min=10,max=500"`
	Descripcion string   `json:"descripcion" validate:"required,min=30,max=2000"`
	Fuentes     string   `json:"fuentes" validate:"omitempty,url"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	Categories  []string `json:"categories" validate:"required,min=1,dive,required"`
}
