package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/causality360/newsapi/internal/cache"
	"github.com/causality360/newsapi/internal/enrich"
	"github.com/causality360/newsapi/internal/models"
	"github.com/causality360/newsapi/internal/store"
)

type fakeStore struct {
	byDate   []*models.Event
	recent   []*models.Event
	byID     *models.Event
	category []*models.Event
}

func (f *fakeStore) EventsByDate(ctx context.Context, date time.Time) ([]*models.Event, error) {
	return f.byDate, nil
}

func (f *fakeStore) RecentEvents(ctx context.Context, limit int) ([]*models.Event, error) {
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeStore) EventsByCategory(ctx context.Context, category string, date time.Time) ([]*models.Event, error) {
	return f.category, nil
}

func (f *fakeStore) EventByID(ctx context.Context, id string) (*models.Event, error) {
	if f.byID == nil {
		return nil, store.ErrNotFound
	}
	return f.byID, nil
}

type fakeProcessor struct {
	events []*models.Event
	calls  int
}

func (f *fakeProcessor) ProcessDay(ctx context.Context, mode enrich.Mode) ([]*models.Event, error) {
	f.calls++
	return f.events, nil
}

type fakeEnricher struct {
	event *models.Event
}

func (f *fakeEnricher) EnrichOne(ctx context.Context, article models.CandidateArticle, categories []string) (*models.Event, error) {
	return f.event, nil
}

func newTestHandlers(st EventStore, processor Processor, enricher Enricher, devMode bool) (*fiber.App, *Handlers) {
	window := Window{RunHour: 12, RunMinute: 0, Buffer: 10 * time.Minute, Loc: time.UTC}
	h := NewHandlers(st, cache.NewMemoryCache(), processor, enricher, window, time.UTC, devMode)

	app := fiber.New()
	app.Get("/api/v1/events/recent", h.GetRecent)
	app.Get("/api/v1/events/by-category/:name", h.GetByCategory)
	app.Get("/api/v1/events/:id", h.GetEventByID)
	app.Post("/api/v1/events", h.CreateEvent)
	app.Post("/api/v1/events/trigger-scheduler", h.TriggerScheduler)
	return app, h
}

func newTestApp(st EventStore, processor Processor, enricher Enricher, devMode bool) *fiber.App {
	app, _ := newTestHandlers(st, processor, enricher, devMode)
	return app
}

// clockAt pins the handler clock to a wall-clock time on a fixed day.
func clockAt(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 8, 31, hour, minute, 0, 0, time.UTC)
	}
}

func getRecent(t *testing.T, app *fiber.App, target string) recentResponse {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var decoded recentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	return decoded
}

func TestGetRecentServesToday(t *testing.T) {
	st := &fakeStore{byDate: []*models.Event{{ID: "e1", Titulo: "Hoy"}}}
	app := newTestApp(st, &fakeProcessor{}, nil, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/events/recent", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var decoded recentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if decoded.Count != 1 || len(decoded.Events) != 1 || decoded.Events[0].ID != "e1" {
		t.Errorf("unexpected payload: %s", body)
	}
	if decoded.Processing {
		t.Error("existing events must not be marked as processing")
	}
}

func TestGetRecentServesOnlyToday(t *testing.T) {
	st := &fakeStore{
		byDate: []*models.Event{{ID: "hoy1"}, {ID: "hoy2"}},
		recent: []*models.Event{{ID: "viejo1"}, {ID: "viejo2"}, {ID: "viejo3"}},
	}
	app, h := newTestHandlers(st, &fakeProcessor{}, nil, false)
	h.now = clockAt(13, 0)

	decoded := getRecent(t, app, "/api/v1/events/recent")
	if decoded.Count != 2 {
		t.Fatalf("count = %d, want only today's 2 events, no padding from older days", decoded.Count)
	}
	for _, e := range decoded.Events {
		if e.ID != "hoy1" && e.ID != "hoy2" {
			t.Errorf("unexpected event %q mixed into today's view", e.ID)
		}
	}
}

func TestGetRecentFallsBackToPreviousDays(t *testing.T) {
	twoDaysAgo := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{recent: []*models.Event{
		{ID: "v1", Fecha: twoDaysAgo},
		{ID: "v2", Fecha: twoDaysAgo},
	}}
	app, h := newTestHandlers(st, &fakeProcessor{}, nil, false)
	h.now = clockAt(9, 0)

	decoded := getRecent(t, app, "/api/v1/events/recent")
	if decoded.Count != 2 || decoded.Events[0].ID != "v1" {
		t.Errorf("morning view must serve the newest stored events even when yesterday produced none, got %+v", decoded)
	}
	if decoded.Processing {
		t.Error("the morning fallback is not a processing view")
	}
}

func TestGetRecentProcessingWindow(t *testing.T) {
	st := &fakeStore{recent: []*models.Event{{ID: "v1", Descripcion: ""}}}
	processor := &fakeProcessor{}
	app, h := newTestHandlers(st, processor, nil, false)
	h.now = clockAt(12, 5)

	decoded := getRecent(t, app, "/api/v1/events/recent")
	if !decoded.Processing || decoded.Message == "" {
		t.Error("requests inside the run window must be marked as processing")
	}
	if len(decoded.Events) != 1 || decoded.Events[0].Descripcion != processingNotice {
		t.Errorf("empty descriptions must carry the processing notice, got %+v", decoded.Events)
	}
	if processor.calls != 0 {
		t.Error("the run window must not trigger a second processing run")
	}
}

func TestGetRecentEmergencyRun(t *testing.T) {
	processor := &fakeProcessor{events: []*models.Event{{ID: "fresco"}}}
	app, h := newTestHandlers(&fakeStore{}, processor, nil, false)
	h.now = clockAt(15, 0)

	decoded := getRecent(t, app, "/api/v1/events/recent")
	if processor.calls != 1 {
		t.Fatalf("processing ran %d times, want 1 emergency run", processor.calls)
	}
	if decoded.Count != 1 || decoded.Events[0].ID != "fresco" {
		t.Errorf("emergency run results must be served, got %+v", decoded)
	}
}

func TestGetRecentEmergencyFallsBackToPreviousDays(t *testing.T) {
	processor := &fakeProcessor{}
	st := &fakeStore{recent: []*models.Event{{ID: "v1"}}}
	app, h := newTestHandlers(st, processor, nil, false)
	h.now = clockAt(15, 0)

	decoded := getRecent(t, app, "/api/v1/events/recent")
	if processor.calls != 1 {
		t.Fatalf("processing ran %d times, want 1", processor.calls)
	}
	if decoded.Count != 1 || decoded.Events[0].ID != "v1" {
		t.Errorf("an empty emergency run must fall back to previous days, got %+v", decoded)
	}
}

func TestGetRecentCachesOnlyDefaultCount(t *testing.T) {
	mem := cache.NewMemoryCache()
	window := Window{RunHour: 12, RunMinute: 0, Buffer: 10 * time.Minute, Loc: time.UTC}
	st := &fakeStore{byDate: []*models.Event{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}}
	h := NewHandlers(st, mem, &fakeProcessor{}, nil, window, time.UTC, false)
	h.now = clockAt(13, 0)

	app := fiber.New()
	app.Get("/api/v1/events/recent", h.GetRecent)

	getRecent(t, app, "/api/v1/events/recent?count=2")
	getRecent(t, app, "/api/v1/events/recent")

	today := dateOf(h.now())
	var cached recentResponse
	if err := mem.GetJSON(context.Background(), cache.RecentEventsKey(today, 2), &cached); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("non-default count must stay uncached, got %v", err)
	}
	if err := mem.GetJSON(context.Background(), cache.RecentEventsKey(today, cache.DefaultRecentCount), &cached); err != nil {
		t.Errorf("default count view must be cached: %v", err)
	}
}

func TestGetEventByIDNotFound(t *testing.T) {
	app := newTestApp(&fakeStore{}, &fakeProcessor{}, nil, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/events/nope", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetEventByIDFound(t *testing.T) {
	st := &fakeStore{byID: &models.Event{ID: "e1", Titulo: "Encontrado"}}
	app := newTestApp(st, &fakeProcessor{}, nil, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/events/e1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateEventValidation(t *testing.T) {
	app := newTestApp(&fakeStore{}, &fakeProcessor{}, &fakeEnricher{}, false)

	req := httptest.NewRequest("POST", "/api/v1/events",
		strings.NewReader(`{"titulo":"corto","descripcion":"corta","categories":[]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400 for an invalid payload", resp.StatusCode)
	}
}

func TestCreateEventSuccess(t *testing.T) {
	enricher := &fakeEnricher{event: &models.Event{ID: "nuevo", Titulo: "Creado"}}
	app := newTestApp(&fakeStore{}, &fakeProcessor{}, enricher, false)

	body := `{"titulo":"Un titular manual con longitud válida","descripcion":"Una descripción suficientemente larga para superar la validación del payload","categories":["Política"]}`
	req := httptest.NewRequest("POST", "/api/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Errorf("status = %d, want 201: %s", resp.StatusCode, raw)
	}
}

func TestTriggerSchedulerForbiddenInProduction(t *testing.T) {
	processor := &fakeProcessor{}
	app := newTestApp(&fakeStore{}, processor, nil, false)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/events/trigger-scheduler", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("status = %d, want 403 outside development", resp.StatusCode)
	}
	if processor.calls != 0 {
		t.Error("processing must not run when the endpoint is forbidden")
	}
}

func TestTriggerSchedulerInDevelopment(t *testing.T) {
	processor := &fakeProcessor{events: []*models.Event{{ID: "e1"}}}
	app := newTestApp(&fakeStore{}, processor, nil, true)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/events/trigger-scheduler", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200 in development", resp.StatusCode)
	}
	if processor.calls != 1 {
		t.Errorf("processing ran %d times, want 1", processor.calls)
	}
}
