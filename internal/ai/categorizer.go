package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/causality360/newsapi/internal/logger"
)

// Excluded is the closed-world default: anything the AI cannot place into one
// of the five target categories is excluded rather than guessed.
const Excluded = "Excluido"

// Categories are the five topical labels events can carry.
var Categories = []string{"Política", "Economía", "Tecnología", "Social", "Internacional"}

// IsTargetCategory reports whether name is one of the five topical labels.
func IsTargetCategory(name string) bool {
	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// Completer abstracts the rate-limited completion call so the categorizer can
// be exercised without a live provider.
type Completer interface {
	CompleteWithRetry(ctx context.Context, gate *Gate, req CompletionRequest) (string, error)
}

// Categorizer assigns one of the five categories, or Excluded, to an article.
// All its calls share a single spacing gate so categorization traffic never
// exceeds the provider's tolerated rate, system-wide.
type Categorizer struct {
	client Completer
	gate   *Gate
}

// NewCategorizer builds a categorizer over the given client and shared gate.
func NewCategorizer(client Completer, gate *Gate) *Categorizer {
	return &Categorizer{client: client, gate: gate}
}

// Categorize classifies the article. A failed or unrecognized classification
// yields Excluded: a wrong real category would corrupt downstream grouping,
// so default-deny is the only safe fallback.
func (c *Categorizer) Categorize(ctx context.Context, title, description string) string {
	log := logger.Get()

	response, err := c.client.CompleteWithRetry(ctx, c.gate, CompletionRequest{
		System:      categorizerSystemPrompt,
		Prompt:      promptCategorize(title, description),
		MaxTokens:   10,
		Temperature: 0,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("title", truncateRunes(title, 50)).
			Msg("Categorization failed, excluding article")
		return Excluded
	}

	label := strings.TrimSpace(response)
	for _, valid := range append(append([]string{}, Categories...), Excluded) {
		if strings.EqualFold(label, valid) {
			return valid
		}
	}

	log.Warn().
		Str("label", label).
		Msg("AI returned a label outside the fixed set, excluding")
	return Excluded
}

// Coherent is a cheap quality check: both the title and the description must
// have non-trivial length for an article to be worth enriching.
func (c *Categorizer) Coherent(title, description string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(title)) > 10 &&
		utf8.RuneCountInString(strings.TrimSpace(description)) > 30
}
