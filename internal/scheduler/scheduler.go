package scheduler

import (
	"context"
	"time"

	"github.com/causality360/newsapi/internal/cache"
	"github.com/causality360/newsapi/internal/enrich"
	"github.com/causality360/newsapi/internal/logger"
	"github.com/causality360/newsapi/internal/models"
)

// Runner performs one full processing cycle for the current day.
type Runner interface {
	ProcessDay(ctx context.Context, mode enrich.Mode) ([]*models.Event, error)
}

// EventChecker answers whether events already exist for a date.
type EventChecker interface {
	EventsByDate(ctx context.Context, date time.Time) ([]*models.Event, error)
}

// Archiver uploads the finished day's events to long-term object storage.
type Archiver interface {
	ArchiveDay(ctx context.Context, date time.Time, events []*models.Event) error
}

// Config tunes the daily trigger.
type Config struct {
	// RunHour/RunMinute set the local wall-clock trigger time.
	RunHour   int
	RunMinute int
	// Cooldown is how long to wait after a failed cycle before the next wake
	// is computed, so a transient failure gets a same-day second chance.
	Cooldown time.Duration
}

// Scheduler wakes once per day at a fixed local time and runs the processing
// cycle, unless events for that date already exist. It holds only two logical
// states: sleeping until the next trigger, or running a cycle.
type Scheduler struct {
	runner   Runner
	store    EventChecker
	cache    cache.Cache
	archiver Archiver
	cfg      Config
	loc      *time.Location

	// now is swappable for tests.
	now func() time.Time
}

// New wires the scheduler. The archiver may be nil when object storage is not
// configured.
func New(runner Runner, store EventChecker, c cache.Cache, archiver Archiver, cfg Config, loc *time.Location) *Scheduler {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Hour
	}
	return &Scheduler{
		runner:   runner,
		store:    store,
		cache:    c,
		archiver: archiver,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, sleeping between daily triggers. The
// sleep itself is cancellable, so shutdown never waits for the next wake.
func (s *Scheduler) Run(ctx context.Context) {
	log := logger.Get()
	log.Info().
		Int("hour", s.cfg.RunHour).
		Int("minute", s.cfg.RunMinute).
		Str("timezone", s.loc.String()).
		Msg("Daily scheduler started")

	for {
		now := s.now().In(s.loc)
		wake := s.NextWake(now)
		log.Info().
			Time("next_run", wake).
			Dur("sleep", wake.Sub(now)).
			Msg("Scheduler sleeping until next run")

		timer := time.NewTimer(wake.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Scheduler stopped")
			return
		case <-timer.C:
		}

		if err := s.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("Scheduler stopped")
				return
			}
			log.Error().Err(err).Dur("cooldown", s.cfg.Cooldown).Msg("Scheduled cycle failed, cooling down")
			cooldown := time.NewTimer(s.cfg.Cooldown)
			select {
			case <-ctx.Done():
				cooldown.Stop()
				log.Info().Msg("Scheduler stopped")
				return
			case <-cooldown.C:
			}
		}
	}
}

// NextWake returns the next trigger instant strictly after now: today's
// trigger time if it is still ahead, otherwise tomorrow's.
func (s *Scheduler) NextWake(now time.Time) time.Time {
	now = now.In(s.loc)
	wake := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.RunHour, s.cfg.RunMinute, 0, 0, s.loc)
	if !wake.After(now) {
		wake = wake.AddDate(0, 0, 1)
	}
	return wake
}

// runCycle executes one wake: re-check for existing events (a manual or
// emergency run may have beaten us to it), process the day, then invalidate
// the read-side cache and archive the results.
func (s *Scheduler) runCycle(ctx context.Context) error {
	log := logger.Get()
	today := s.today()
	dateStr := today.Format("2006-01-02")

	existing, err := s.store.EventsByDate(ctx, today)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info().Int("count", len(existing)).Str("date", dateStr).Msg("Events already exist, skipping scheduled run")
		return nil
	}

	log.Info().Str("date", dateStr).Msg("Starting scheduled daily processing")
	events, err := s.runner.ProcessDay(ctx, enrich.ModeAuto)
	if err != nil {
		return err
	}

	s.invalidate(ctx, today)

	if s.archiver != nil && len(events) > 0 {
		if err := s.archiver.ArchiveDay(ctx, today, events); err != nil {
			// Archival is best-effort; the events are already persisted.
			log.Warn().Err(err).Str("date", dateStr).Msg("Daily archive upload failed")
		}
	}

	log.Info().Int("events", len(events)).Str("date", dateStr).Msg("Scheduled daily processing finished")
	return nil
}

// invalidate drops the cached read views that include today's data so the
// next request sees the fresh events.
func (s *Scheduler) invalidate(ctx context.Context, date time.Time) {
	log := logger.Get()
	for _, key := range []string{
		cache.RecentEventsKey(date, cache.DefaultRecentCount),
		cache.DailyEventsKey(date),
	} {
		if err := s.cache.Remove(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Cache invalidation failed")
		}
	}
}

func (s *Scheduler) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
