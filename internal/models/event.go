package models

import "time"

// Event is a news item enriched with AI analysis. Field names follow the
// public API contract, which is Spanish-facing.
type Event struct {
	ID            string         `json:"id"`
	Titulo        string         `json:"titulo"`
	Descripcion   string         `json:"descripcion"`
	Fecha         time.Time      `json:"fecha"`
	Origen        string         `json:"origen"`
	Impacto       string         `json:"impacto"`
	PrediccionIA  string         `json:"prediccionIA"`
	Fuentes       string         `json:"fuentes"`
	ImageURL      string         `json:"imageUrl"`
	SourceName    string         `json:"sourceName"`
	Categories    []string       `json:"categories"`
	SimilarEvents []SimilarEvent `json:"similarEvents"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// SimilarEvent is a historical event the AI judged comparable, with a short
// comparative write-up. Always belongs to exactly one Event.
type SimilarEvent struct {
	Evento  string `json:"evento"`
	Detalle string `json:"detalle"`
}

// Titles extracts the titles of a batch of events, used for duplicate
// suppression against already-ingested stories.
func Titles(events []*Event) []string {
	titles := make([]string, 0, len(events))
	for _, ev := range events {
		titles = append(titles, ev.Titulo)
	}
	return titles
}
