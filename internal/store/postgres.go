package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/causality360/newsapi/internal/models"
)

// ErrNotFound is returned when a lookup matches no event.
var ErrNotFound = errors.New("store: event not found")

// Store persists events, their similar-event comparisons, and their category
// links in Postgres.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id            TEXT PRIMARY KEY,
		titulo        TEXT NOT NULL,
		descripcion   TEXT NOT NULL,
		fecha         DATE NOT NULL,
		origen        TEXT NOT NULL DEFAULT '',
		impacto       TEXT NOT NULL DEFAULT '',
		prediccion_ia TEXT NOT NULL DEFAULT '',
		fuentes       TEXT NOT NULL DEFAULT '',
		image_url     TEXT NOT NULL DEFAULT '',
		source_name   TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_fecha ON events (fecha)`,
	`CREATE TABLE IF NOT EXISTS similar_events (
		id       BIGSERIAL PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		evento   TEXT NOT NULL,
		detalle  TEXT NOT NULL DEFAULT '',
		position INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_similar_events_event ON similar_events (event_id)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS event_categories (
		event_id    TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		category_id BIGINT NOT NULL REFERENCES categories (id) ON DELETE CASCADE,
		PRIMARY KEY (event_id, category_id)
	)`,
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Save writes the event, its similar-event entries, and its category links in
// one transaction and returns the stored event.
func (s *Store) Save(ctx context.Context, event *models.Event, categories []string) (*models.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := s.sb.Insert("events").
		Columns("id", "titulo", "descripcion", "fecha", "origen", "impacto",
			"prediccion_ia", "fuentes", "image_url", "source_name", "created_at", "updated_at").
		Values(event.ID, event.Titulo, event.Descripcion, event.Fecha, event.Origen, event.Impacto,
			event.PrediccionIA, event.Fuentes, event.ImageURL, event.SourceName, event.CreatedAt, event.UpdatedAt)
	if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	for i, se := range event.SimilarEvents {
		ins := s.sb.Insert("similar_events").
			Columns("event_id", "evento", "detalle", "position").
			Values(event.ID, se.Evento, se.Detalle, i)
		if _, err := ins.RunWith(tx).ExecContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to insert similar event: %w", err)
		}
	}

	for _, name := range categories {
		if name == "" {
			continue
		}
		var categoryID int64
		upsert := s.sb.Insert("categories").
			Columns("name").
			Values(name).
			Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id")
		if err := upsert.RunWith(tx).QueryRowContext(ctx).Scan(&categoryID); err != nil {
			return nil, fmt.Errorf("failed to upsert category: %w", err)
		}

		link := s.sb.Insert("event_categories").
			Columns("event_id", "category_id").
			Values(event.ID, categoryID).
			Suffix("ON CONFLICT DO NOTHING")
		if _, err := link.RunWith(tx).ExecContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to link category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit event: %w", err)
	}

	event.Categories = categories
	return event, nil
}

// EventsByDate returns all events for a calendar date, newest first.
func (s *Store) EventsByDate(ctx context.Context, date time.Time) ([]*models.Event, error) {
	query := s.selectEvents().
		Where(sq.Eq{"fecha": date.Format("2006-01-02")}).
		OrderBy("created_at DESC")
	return s.queryEvents(ctx, query)
}

// RecentEvents returns the newest events across all dates.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]*models.Event, error) {
	query := s.selectEvents().
		OrderBy("fecha DESC", "created_at DESC").
		Limit(uint64(limit))
	return s.queryEvents(ctx, query)
}

// EventsByCategory returns a date's events carrying the given category name.
func (s *Store) EventsByCategory(ctx context.Context, category string, date time.Time) ([]*models.Event, error) {
	query := s.selectEvents().
		Join("event_categories ec ON ec.event_id = e.id").
		Join("categories c ON c.id = ec.category_id").
		Where(sq.Eq{"fecha": date.Format("2006-01-02")}).
		Where("LOWER(c.name) = LOWER(?)", category).
		OrderBy("e.created_at DESC")
	return s.queryEvents(ctx, query)
}

// EventByID returns one event or ErrNotFound.
func (s *Store) EventByID(ctx context.Context, id string) (*models.Event, error) {
	events, err := s.queryEvents(ctx, s.selectEvents().Where(sq.Eq{"e.id": id}))
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events[0], nil
}

func (s *Store) selectEvents() sq.SelectBuilder {
	return s.sb.Select("e.id", "e.titulo", "e.descripcion", "e.fecha", "e.origen", "e.impacto",
		"e.prediccion_ia", "e.fuentes", "e.image_url", "e.source_name", "e.created_at", "e.updated_at").
		From("events e")
}

func (s *Store) queryEvents(ctx context.Context, query sq.SelectBuilder) ([]*models.Event, error) {
	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Titulo, &e.Descripcion, &e.Fecha, &e.Origen, &e.Impacto,
			&e.PrediccionIA, &e.Fuentes, &e.ImageURL, &e.SourceName, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("event rows error: %w", err)
	}

	for _, e := range events {
		if err := s.loadRelations(ctx, e); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// loadRelations attaches the similar events and category names to an event.
func (s *Store) loadRelations(ctx context.Context, event *models.Event) error {
	simQuery := s.sb.Select("evento", "detalle").
		From("similar_events").
		Where(sq.Eq{"event_id": event.ID}).
		OrderBy("position ASC")
	rows, err := simQuery.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query similar events: %w", err)
	}
	for rows.Next() {
		var se models.SimilarEvent
		if err := rows.Scan(&se.Evento, &se.Detalle); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan similar event: %w", err)
		}
		event.SimilarEvents = append(event.SimilarEvents, se)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("similar event rows error: %w", err)
	}
	rows.Close()

	catQuery := s.sb.Select("c.name").
		From("categories c").
		Join("event_categories ec ON ec.category_id = c.id").
		Where(sq.Eq{"ec.event_id": event.ID}).
		OrderBy("c.name ASC")
	rows, err = catQuery.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan category: %w", err)
		}
		event.Categories = append(event.Categories, name)
	}
	return rows.Err()
}
