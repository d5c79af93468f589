package feed

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/causality360/newsapi/internal/ai"
	"github.com/causality360/newsapi/internal/logger"
	"github.com/causality360/newsapi/internal/models"
	"github.com/mmcdole/gofeed"
)

// Categorizer is the slice of the AI categorizer the selector needs.
type Categorizer interface {
	Categorize(ctx context.Context, title, description string) string
	Coherent(title, description string) bool
}

// SelectorConfig carries the per-feed bounds and validation gates. All values
// are configuration rather than constants because the service has historically
// run with more than one tuning.
type SelectorConfig struct {
	// MaxItemsPerFeed bounds how deep into a feed we look (most recent first).
	MaxItemsPerFeed int
	// MaxCandidatesPerFeed stops categorization early once enough valid
	// options exist; each candidate costs one AI call.
	MaxCandidatesPerFeed int
	// Relaxed gates applied while collecting candidates.
	MinTitleLen int
	MinDescLen  int
	// Strict gates applied at final per-source selection.
	StrictMinTitleLen int
	StrictMinDescLen  int
	// MaxResults caps the size of the returned selection.
	MaxResults int
}

// DefaultSelectorConfig mirrors the production tuning.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		MaxItemsPerFeed:      10,
		MaxCandidatesPerFeed: 8,
		MinTitleLen:          20,
		MinDescLen:           50,
		StrictMinTitleLen:    30,
		StrictMinDescLen:     100,
		MaxResults:           5,
	}
}

// Selector picks, for each configured source, the single best authentic
// article of the day. A source that yields no valid candidate contributes
// nothing; there is no retry within a run.
type Selector struct {
	fetcher     *Fetcher
	categorizer Categorizer
	cfg         SelectorConfig
	loc         *time.Location
}

// NewSelector wires the selector.
func NewSelector(fetcher *Fetcher, categorizer Categorizer, cfg SelectorConfig, loc *time.Location) *Selector {
	return &Selector{fetcher: fetcher, categorizer: categorizer, cfg: cfg, loc: loc}
}

// SelectTodayNews runs the per-source pipeline over all sources and returns at
// most one article per source, capped at MaxResults. Source failures are
// logged and skipped; they never abort the run.
func (s *Selector) SelectTodayNews(ctx context.Context, sources []Source) []models.CandidateArticle {
	log := logger.Get()
	var selected []models.CandidateArticle

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}

		parsed, err := s.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			log.Error().Err(err).Str("source", src.Name).Msg("Skipping source, feed fetch failed")
			continue
		}

		candidates := s.collectCandidates(ctx, src, parsed.Items)
		best, ok := s.selectBest(candidates)
		if !ok {
			log.Warn().Str("source", src.Name).Msg("No valid articles from source")
			continue
		}

		log.Info().
			Str("source", src.Name).
			Str("category", best.Category).
			Str("title", truncate(best.Title, 60)).
			Msg("Selected best article from source")
		selected = append(selected, best)
	}

	log.Info().
		Int("selected", len(selected)).
		Int("sources", len(sources)).
		Msg("Source selection finished")

	if len(selected) > s.cfg.MaxResults {
		selected = selected[:s.cfg.MaxResults]
	}
	return selected
}

// collectCandidates walks the most recent feed items, cleans and validates
// them, categorizes each with the AI, and stops once enough valid candidates
// are gathered for the source.
func (s *Selector) collectCandidates(ctx context.Context, src Source, items []*gofeed.Item) []models.CandidateArticle {
	log := logger.Get()
	now := time.Now().In(s.loc)
	yesterday := now.AddDate(0, 0, -1)

	var candidates []models.CandidateArticle
	for i, item := range items {
		if i == s.cfg.MaxItemsPerFeed || len(candidates) == s.cfg.MaxCandidatesPerFeed {
			break
		}
		if ctx.Err() != nil {
			break
		}

		published := now
		if item.PublishedParsed != nil && !item.PublishedParsed.IsZero() && item.PublishedParsed.Before(now) {
			published = item.PublishedParsed.In(s.loc)
		}
		if published.Before(yesterday) {
			continue
		}

		title := CleanHTML(item.Title)
		description := CleanHTML(firstNonEmpty(item.Description, item.Content))

		if utf8.RuneCountInString(title) < s.cfg.MinTitleLen ||
			utf8.RuneCountInString(description) < s.cfg.MinDescLen {
			log.Debug().Str("source", src.Name).Str("title", truncate(title, 40)).Msg("Skipped low-quality item")
			continue
		}

		title = clampEllipsis(title, 400)
		description = clampEllipsis(description, 800)

		category := s.categorizer.Categorize(ctx, title, description)
		if category == ai.Excluded {
			log.Debug().Str("source", src.Name).Str("title", truncate(title, 40)).Msg("Excluded by AI")
			continue
		}

		imageURL := ExtractImage(item)
		if imageURL == "" {
			imageURL = FallbackImage(category)
		}

		candidates = append(candidates, models.CandidateArticle{
			Title:       title,
			Description: description,
			SourceName:  src.Name,
			URL:         firstLink(item),
			PublishedAt: published,
			ImageURL:    imageURL,
			Category:    category,
		})
	}

	log.Debug().Str("source", src.Name).Int("candidates", len(candidates)).Msg("Collected candidates")
	return candidates
}

// selectBest applies the strict validation profile and returns the
// highest-scoring candidate in a target category.
func (s *Selector) selectBest(candidates []models.CandidateArticle) (models.CandidateArticle, bool) {
	var best models.CandidateArticle
	bestScore := -1

	for _, c := range candidates {
		if !ai.IsTargetCategory(c.Category) {
			continue
		}
		if utf8.RuneCountInString(c.Title) < s.cfg.StrictMinTitleLen ||
			utf8.RuneCountInString(c.Description) < s.cfg.StrictMinDescLen {
			continue
		}
		if !s.categorizer.Coherent(c.Title, c.Description) {
			continue
		}
		if score := Score(c); score > bestScore {
			best, bestScore = c, score
		}
	}

	return best, bestScore >= 0
}

// Score ranks candidates from the same source. Deterministic and I/O-free:
// every category starts from the same base so none is structurally favored,
// and bonuses reward substance (longer descriptions, an image, an informative
// title). Scores are only ever compared within one source.
func Score(a models.CandidateArticle) int {
	score := 80

	descLen := utf8.RuneCountInString(a.Description)
	if descLen > 300 {
		score += 10
	}
	if descLen > 500 {
		score += 15
	}

	if a.ImageURL != "" {
		score += 5
	}

	titleLen := utf8.RuneCountInString(a.Title)
	if titleLen >= 60 && titleLen <= 120 {
		score += 5
	}

	if titleLen > 10 && descLen > 30 {
		score += 10
	}

	return score
}

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
	numericRefRe  = regexp.MustCompile(`&#x?[0-9a-fA-F]+;`)
	controlCharRe = regexp.MustCompile(`[\x00-\x1F\x7F]`)
)

// CleanHTML strips markup and entities from feed text and collapses
// whitespace.
func CleanHTML(input string) string {
	if input == "" {
		return ""
	}
	cleaned := htmlTagRe.ReplaceAllString(input, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = numericRefRe.ReplaceAllString(cleaned, " ")
	cleaned = controlCharRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(strings.Join(strings.Fields(cleaned), " "))
}

// clampEllipsis truncates s to max runes, marking the cut with an ellipsis.
func clampEllipsis(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if len(item.Links) > 0 {
		return item.Links[0]
	}
	return ""
}
