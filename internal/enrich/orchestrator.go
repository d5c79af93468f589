package enrich

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/causality360/newsapi/internal/logger"
	"github.com/causality360/newsapi/internal/models"
	"github.com/google/uuid"
)

// Placeholder analyses saved when the AI collaborator is unavailable. The
// event is still persisted; missing analysis must never cost us the story.
const (
	placeholderOrigin     = "Información de contexto no disponible temporalmente debido a limitaciones del servicio de IA."
	placeholderImpact     = "Análisis de impacto pendiente. Se actualizará cuando el servicio esté disponible."
	placeholderPrediction = "Predicciones futuras no disponibles temporalmente."
)

const (
	maxSimilarNameLen   = 200
	maxSimilarDetailLen = 1000
)

// Analyst is the slice of the AI analyst the orchestrator consumes.
type Analyst interface {
	Origin(ctx context.Context, title, description string) (string, error)
	Impact(ctx context.Context, title, description string) (string, error)
	Prediction(ctx context.Context, title, description string) (string, error)
	SimilarEvents(ctx context.Context, title, description string) ([]string, error)
	SimilarEventDetail(ctx context.Context, similarEvent, currentTitle string) (string, error)
}

// EventSaver persists a finished event with its category names.
type EventSaver interface {
	Save(ctx context.Context, event *models.Event, categories []string) (*models.Event, error)
}

// Delays tunes the pacing of one enrichment pass. The scheduled background
// path and the manual/API path run with different tunings, so the values are
// injected rather than fixed.
type Delays struct {
	// BetweenAnalyses spaces the origin/impact/prediction calls.
	BetweenAnalyses time.Duration
	// BetweenDetails spaces the similar-event detail calls.
	BetweenDetails time.Duration
	// BetweenArticles spaces consecutive articles within a batch.
	BetweenArticles time.Duration
	// BatchSize splits the candidate list into fixed-size groups; zero or
	// negative disables batching (one group).
	BatchSize int
	// BetweenBatches is the pause between groups.
	BetweenBatches time.Duration
	// MaxSimilar caps how many similar events get a detail write-up.
	MaxSimilar int
}

// Orchestrator turns selected candidate articles into persisted enriched
// events. Each invocation works on its own slices; instances hold no mutable
// state, so the scheduled and emergency paths can run it concurrently.
type Orchestrator struct {
	analyst Analyst
	store   EventSaver
	delays  Delays
	loc     *time.Location
}

// NewOrchestrator wires an orchestrator with the given pacing.
func NewOrchestrator(analyst Analyst, store EventSaver, delays Delays, loc *time.Location) *Orchestrator {
	if delays.MaxSimilar <= 0 {
		delays.MaxSimilar = 3
	}
	return &Orchestrator{analyst: analyst, store: store, delays: delays, loc: loc}
}

// ProcessBatch enriches and persists every candidate, suppressing articles
// whose title near-duplicates an already-existing title for the day. A single
// article's failure is logged and skipped; it never aborts the batch.
func (o *Orchestrator) ProcessBatch(ctx context.Context, articles []models.CandidateArticle, existingTitles []string) []*models.Event {
	log := logger.Get()
	titles := append([]string(nil), existingTitles...)
	var created []*models.Event

	batches := splitBatches(articles, o.delays.BatchSize)
	for bi, batch := range batches {
		if len(batches) > 1 {
			log.Info().Int("batch", bi+1).Int("batches", len(batches)).Msg("Processing batch")
		}

		for _, article := range batch {
			if ctx.Err() != nil {
				log.Warn().Int("created", len(created)).Msg("Enrichment cancelled mid-batch")
				return created
			}

			if isDuplicate(article.Title, titles) {
				log.Warn().Str("title", clamp(article.Title, 50)).Msg("Skipping near-duplicate story")
				continue
			}

			event, err := o.EnrichOne(ctx, article, []string{article.Category})
			if err != nil {
				log.Error().Err(err).Str("title", clamp(article.Title, 50)).Msg("Article enrichment failed, continuing with next")
				continue
			}

			created = append(created, event)
			titles = append(titles, event.Titulo)
			log.Info().
				Str("title", clamp(event.Titulo, 50)).
				Str("source", event.SourceName).
				Int("similar", len(event.SimilarEvents)).
				Msg("Saved enriched event")

			if err := sleep(ctx, o.delays.BetweenArticles); err != nil {
				return created
			}
		}

		if bi < len(batches)-1 {
			if err := sleep(ctx, o.delays.BetweenBatches); err != nil {
				return created
			}
		}
	}

	return created
}

// EnrichOne builds, enriches, and persists a single event. AI failures during
// the three analyses degrade to placeholder text with no similar events; a
// failure while generating one similar-event detail just yields fewer entries.
func (o *Orchestrator) EnrichOne(ctx context.Context, article models.CandidateArticle, categories []string) (*models.Event, error) {
	now := time.Now().In(o.loc)
	event := &models.Event{
		ID:          uuid.NewString(),
		Titulo:      article.Title,
		Descripcion: article.Description,
		Fecha:       dateOf(now),
		Fuentes:     article.URL,
		ImageURL:    article.ImageURL,
		SourceName:  article.SourceName,
		Categories:  categories,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := o.generateAnalyses(ctx, event); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Get().Warn().
			Err(err).
			Str("title", clamp(event.Titulo, 50)).
			Msg("AI analysis failed, saving event with placeholder content")
		event.Origen = placeholderOrigin
		event.Impacto = placeholderImpact
		event.PrediccionIA = placeholderPrediction
		event.SimilarEvents = nil
	}

	return o.store.Save(ctx, event, categories)
}

// generateAnalyses fills the three analyses and the similar-event entries,
// strictly sequentially with a fixed courtesy delay between AI calls.
func (o *Orchestrator) generateAnalyses(ctx context.Context, event *models.Event) error {
	var err error

	if event.Origen, err = o.analyst.Origin(ctx, event.Titulo, event.Descripcion); err != nil {
		return err
	}
	if err = sleep(ctx, o.delays.BetweenAnalyses); err != nil {
		return err
	}

	if event.Impacto, err = o.analyst.Impact(ctx, event.Titulo, event.Descripcion); err != nil {
		return err
	}
	if err = sleep(ctx, o.delays.BetweenAnalyses); err != nil {
		return err
	}

	if event.PrediccionIA, err = o.analyst.Prediction(ctx, event.Titulo, event.Descripcion); err != nil {
		return err
	}
	if err = sleep(ctx, o.delays.BetweenAnalyses); err != nil {
		return err
	}

	names, err := o.analyst.SimilarEvents(ctx, event.Titulo, event.Descripcion)
	if err != nil {
		// Fewer similar events is acceptable; the analyses above survived.
		logger.Get().Warn().Err(err).Msg("Similar-event generation failed, saving without comparisons")
		return nil
	}

	for i, name := range names {
		if i == o.delays.MaxSimilar {
			break
		}
		if name == "" {
			continue
		}

		detail, detailErr := o.analyst.SimilarEventDetail(ctx, name, event.Titulo)
		if detailErr != nil {
			logger.Get().Warn().Err(detailErr).Str("evento", clamp(name, 50)).Msg("Skipping similar event, detail generation failed")
			continue
		}

		event.SimilarEvents = append(event.SimilarEvents, models.SimilarEvent{
			Evento:  clampEllipsis(name, maxSimilarNameLen),
			Detalle: clampEllipsis(detail, maxSimilarDetailLen),
		})

		if err := sleep(ctx, o.delays.BetweenDetails); err != nil {
			return nil
		}
	}

	return nil
}

func isDuplicate(title string, existing []string) bool {
	for _, t := range existing {
		if AreSimilar(title, t) {
			return true
		}
	}
	return false
}

func splitBatches(articles []models.CandidateArticle, size int) [][]models.CandidateArticle {
	if size <= 0 || len(articles) <= size {
		if len(articles) == 0 {
			return nil
		}
		return [][]models.CandidateArticle{articles}
	}
	var batches [][]models.CandidateArticle
	for start := 0; start < len(articles); start += size {
		end := start + size
		if end > len(articles) {
			end = len(articles)
		}
		batches = append(batches, articles[start:end])
	}
	return batches
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clamp(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func clampEllipsis(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
