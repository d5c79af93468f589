package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/causality360/newsapi/internal/cache"
	"github.com/causality360/newsapi/internal/enrich"
	"github.com/causality360/newsapi/internal/logger"
	"github.com/causality360/newsapi/internal/models"
	"github.com/causality360/newsapi/internal/store"
)

// Frontend notice shown while the daily run is still in progress.
const processingNotice = "📰 Las noticias del día se están procesando automáticamente. Actualiza en unos minutos."

// EventStore is the read side of the store the handlers consume.
type EventStore interface {
	EventsByDate(ctx context.Context, date time.Time) ([]*models.Event, error)
	RecentEvents(ctx context.Context, limit int) ([]*models.Event, error)
	EventsByCategory(ctx context.Context, category string, date time.Time) ([]*models.Event, error)
	EventByID(ctx context.Context, id string) (*models.Event, error)
}

// Processor runs a full daily cycle on demand.
type Processor interface {
	ProcessDay(ctx context.Context, mode enrich.Mode) ([]*models.Event, error)
}

// Enricher enriches and persists one manually submitted article.
type Enricher interface {
	EnrichOne(ctx context.Context, article models.CandidateArticle, categories []string) (*models.Event, error)
}

type Handlers struct {
	store     EventStore
	cache     cache.Cache
	processor Processor
	enricher  Enricher
	window    Window
	loc       *time.Location
	validate  *validator.Validate
	devMode   bool

	// now is swappable for tests.
	now func() time.Time
}

func NewHandlers(st EventStore, c cache.Cache, processor Processor, enricher Enricher, window Window, loc *time.Location, devMode bool) *Handlers {
	return &Handlers{
		store:     st,
		cache:     c,
		processor: processor,
		enricher:  enricher,
		window:    window,
		loc:       loc,
		validate:  validator.New(),
		devMode:   devMode,
		now:       time.Now,
	}
}

// Ping handles GET /api/v1/events/ping
func (h *Handlers) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "time": time.Now().In(h.loc).Format(time.RFC3339)})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().In(h.loc).Format(time.RFC3339),
	})
}

// GetRecent handles GET /api/v1/events/recent. It serves today's events when
// they exist; otherwise it decides between the previous day, a
// processing-in-progress view, and an emergency synchronous run.
func (h *Handlers) GetRecent(c *fiber.Ctx) error {
	log := logger.Get()
	count, _ := strconv.Atoi(c.Query("count", strconv.Itoa(cache.DefaultRecentCount)))
	if count <= 0 || count > 20 {
		count = cache.DefaultRecentCount
	}

	now := h.now().In(h.loc)
	today := dateOf(now)
	key := cache.RecentEventsKey(today, count)

	var cached recentResponse
	if err := h.cache.GetJSON(c.Context(), key, &cached); err == nil {
		return c.JSON(cached)
	}

	todayEvents, err := h.store.EventsByDate(c.Context(), today)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load today's events")
		return internalError(c, "Failed to load events")
	}

	// Only settled views get cached; the previous-days and processing views
	// must keep probing for the moment today's events land.
	cacheable := false
	resp := recentResponse{Date: today.Format("2006-01-02")}
	switch h.window.Resolve(now, len(todayEvents) > 0) {
	case ServeToday:
		resp.Events = capEvents(todayEvents, count)
		cacheable = true

	case ServePreviousProcessing:
		resp.Processing = true
		resp.Message = processingNotice
		resp.Events = withProcessingNotice(h.recentFallback(c.Context(), count))

	case ServePrevious:
		resp.Events = h.recentFallback(c.Context(), count)

	case RunEmergency:
		log.Warn().Str("date", resp.Date).Msg("No events past processing time, running emergency processing")
		events, err := h.processor.ProcessDay(c.Context(), enrich.ModeAuto)
		if err != nil || len(events) == 0 {
			if err != nil {
				log.Error().Err(err).Msg("Emergency processing failed, falling back to previous days")
			}
			resp.Events = h.recentFallback(c.Context(), count)
		} else {
			resp.Events = capEvents(events, count)
			cacheable = true
		}
	}

	resp.Count = len(resp.Events)
	// Non-default counts stay uncached; invalidation only covers the default
	// key, and a stale per-count entry would outlive the day's rollover.
	if cacheable && count == cache.DefaultRecentCount {
		if err := h.cache.SetJSON(c.Context(), key, resp, 6*time.Hour); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache recent events")
		}
	}
	return c.JSON(resp)
}

// GetEventByID handles GET /api/v1/events/:id
func (h *Handlers) GetEventByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Event ID is required")
	}

	event, err := h.store.EventByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Event not found"})
	}
	if err != nil {
		logger.Get().Error().Err(err).Str("id", id).Msg("Failed to load event")
		return internalError(c, "Failed to load event")
	}
	return c.JSON(event)
}

// GetByCategory handles GET /api/v1/events/by-category/:name
func (h *Handlers) GetByCategory(c *fiber.Ctx) error {
	log := logger.Get()
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "Category name is required")
	}
	count, _ := strconv.Atoi(c.Query("count", "20"))
	if count <= 0 || count > 50 {
		count = 20
	}

	today := dateOf(h.now().In(h.loc))
	key := cache.CategoryKey(name, today)

	var cached []*models.Event
	if err := h.cache.GetJSON(c.Context(), key, &cached); err == nil {
		cached = capEvents(cached, count)
		return c.JSON(fiber.Map{"category": name, "count": len(cached), "events": cached})
	}

	events, err := h.store.EventsByCategory(c.Context(), name, today)
	if err != nil {
		log.Error().Err(err).Str("category", name).Msg("Failed to load category events")
		return internalError(c, "Failed to load events")
	}

	if err := h.cache.SetJSON(c.Context(), key, events, 6*time.Hour); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache category events")
	}
	events = capEvents(events, count)
	return c.JSON(fiber.Map{"category": name, "count": len(events), "events": events})
}

// ProcessToday handles POST /api/v1/events/process-today. It returns the
// cached or stored day if one exists, otherwise it runs the manual pipeline
// synchronously.
func (h *Handlers) ProcessToday(c *fiber.Ctx) error {
	log := logger.Get()
	today := dateOf(h.now().In(h.loc))
	key := cache.DailyEventsKey(today)

	var cached []*models.Event
	if err := h.cache.GetJSON(c.Context(), key, &cached); err == nil && len(cached) > 0 {
		return c.JSON(fiber.Map{"cached": true, "count": len(cached), "events": cached})
	}

	events, err := h.processor.ProcessDay(c.Context(), enrich.ModeManual)
	if err != nil {
		log.Error().Err(err).Msg("Manual processing failed")
		return internalError(c, "Processing failed")
	}

	if len(events) > 0 {
		if err := h.cache.SetJSON(c.Context(), key, events, 0); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache processed events")
		}
	}
	return c.JSON(fiber.Map{"cached": false, "count": len(events), "events": events})
}

// CreateEvent handles POST /api/v1/events: a manually submitted article that
// goes through the same enrichment as feed-selected ones.
func (h *Handlers) CreateEvent(c *fiber.Ctx) error {
	log := logger.Get()

	var req models.CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	article := models.CandidateArticle{
		Title:       req.Titulo,
		Description: req.Descripcion,
		URL:         req.Fuentes,
		ImageURL:    req.ImageURL,
		SourceName:  "manual",
		PublishedAt: h.now().In(h.loc),
	}
	if len(req.Categories) > 0 {
		article.Category = req.Categories[0]
	}

	event, err := h.enricher.EnrichOne(c.Context(), article, req.Categories)
	if err != nil {
		log.Error().Err(err).Msg("Manual event creation failed")
		return internalError(c, "Failed to create event")
	}

	h.invalidateDay(c.Context(), dateOf(h.now().In(h.loc)))
	return c.Status(fiber.StatusCreated).JSON(event)
}

// TriggerScheduler handles POST /api/v1/events/trigger-scheduler. Development
// only; production callers get a 403.
func (h *Handlers) TriggerScheduler(c *fiber.Ctx) error {
	if !h.devMode {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Endpoint disabled outside development"})
	}

	events, err := h.processor.ProcessDay(c.Context(), enrich.ModeAuto)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Triggered processing failed")
		return internalError(c, "Processing failed")
	}

	h.invalidateDay(c.Context(), dateOf(h.now().In(h.loc)))
	return c.JSON(fiber.Map{"count": len(events), "events": events})
}

type recentResponse struct {
	Date       string          `json:"date"`
	Count      int             `json:"count"`
	Processing bool            `json:"processing,omitempty"`
	Message    string          `json:"message,omitempty"`
	Events     []*models.Event `json:"events"`
}

// recentFallback serves the newest stored events from previous days when
// today has none yet. If yesterday's run also failed, older days still
// answer; the reader gets the best available view, never an empty list while
// history exists. Errors degrade to an empty view.
func (h *Handlers) recentFallback(ctx context.Context, count int) []*models.Event {
	events, err := h.store.RecentEvents(ctx, count)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Failed to load previous days' events")
		return nil
	}
	return events
}

func (h *Handlers) invalidateDay(ctx context.Context, date time.Time) {
	for _, key := range []string{
		cache.RecentEventsKey(date, cache.DefaultRecentCount),
		cache.DailyEventsKey(date),
	} {
		if err := h.cache.Remove(ctx, key); err != nil {
			logger.Get().Warn().Err(err).Str("key", key).Msg("Cache invalidation failed")
		}
	}
}

// withProcessingNotice fills empty descriptions with the processing notice so
// the frontend never renders a blank card mid-run. Events are copied; the
// stored rows stay untouched.
func withProcessingNotice(events []*models.Event) []*models.Event {
	out := make([]*models.Event, len(events))
	for i, e := range events {
		if e.Descripcion == "" {
			clone := *e
			clone.Descripcion = processingNotice
			out[i] = &clone
			continue
		}
		out[i] = e
	}
	return out
}

func capEvents(events []*models.Event, limit int) []*models.Event {
	if len(events) > limit {
		return events[:limit]
	}
	return events
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msg})
}
