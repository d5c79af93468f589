package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/causality360/newsapi/internal/feed"
	"github.com/causality360/newsapi/internal/logger"
	"github.com/causality360/newsapi/internal/models"
)

// EventsByDateFinder is the read side of the store the service needs for its
// already-processed guard.
type EventsByDateFinder interface {
	EventsByDate(ctx context.Context, date time.Time) ([]*models.Event, error)
}

// Mode selects the pacing profile for a processing run.
type Mode int

const (
	// ModeAuto is the background/scheduled tuning: shorter delays, no batching.
	ModeAuto Mode = iota
	// ModeManual is the API-triggered tuning: longer delays and fixed-size
	// batches to smooth load against the AI provider.
	ModeManual
)

// Service is the shared entry point for one full enrichment cycle: select one
// article per source, then enrich and persist the batch. It is used by the
// daily scheduler, the emergency read path, and the manual trigger endpoints.
// Every run works on freshly built slices, so concurrent invocations (an
// emergency run racing the scheduler) stay isolated; the events-already-exist
// re-check is the defense against duplicate work, not a lock.
type Service struct {
	selector *feed.Selector
	sources  []feed.Source
	store    EventsByDateFinder
	auto     *Orchestrator
	manual   *Orchestrator
	loc      *time.Location
}

// NewService wires the processing service with both pacing profiles.
func NewService(selector *feed.Selector, sources []feed.Source, store EventsByDateFinder, auto, manual *Orchestrator, loc *time.Location) *Service {
	return &Service{
		selector: selector,
		sources:  sources,
		store:    store,
		auto:     auto,
		manual:   manual,
		loc:      loc,
	}
}

// ProcessDay runs one enrichment cycle for today. If events for today already
// exist it returns them untouched, which makes the cycle idempotent per
// calendar date and safe against scheduler/manual races.
func (s *Service) ProcessDay(ctx context.Context, mode Mode) ([]*models.Event, error) {
	log := logger.Get()
	today := dateOf(time.Now().In(s.loc))

	existing, err := s.store.EventsByDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("check existing events: %w", err)
	}
	if len(existing) > 0 {
		log.Info().
			Int("count", len(existing)).
			Str("date", today.Format("2006-01-02")).
			Msg("Events already exist for today, skipping processing")
		return existing, nil
	}

	start := time.Now()
	articles := s.selector.SelectTodayNews(ctx, s.sources)
	if len(articles) == 0 {
		log.Warn().Str("date", today.Format("2006-01-02")).Msg("No valid news found from any source")
		return nil, nil
	}

	orch := s.auto
	if mode == ModeManual {
		orch = s.manual
	}

	created := orch.ProcessBatch(ctx, articles, models.Titles(existing))
	log.Info().
		Int("created", len(created)).
		Int("candidates", len(articles)).
		Dur("elapsed", time.Since(start)).
		Msg("Daily processing finished")
	return created, nil
}

// Today returns the current calendar date in the service's reference zone.
func (s *Service) Today() time.Time {
	return dateOf(time.Now().In(s.loc))
}
