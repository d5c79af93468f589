package ai

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/causality360/newsapi/internal/logger"
)

// Analyst produces the three per-event analyses and the similar-event material.
// Unlike the categorizer its calls are not funneled through the spacing gate:
// the enrichment orchestrator inserts its own fixed inter-call delays, which
// is what the provider's quota actually requires on that path.
type Analyst struct {
	client    Completer
	maxTokens int
}

// NewAnalyst builds an analyst over the completion client.
func NewAnalyst(client Completer, maxTokens int) *Analyst {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Analyst{client: client, maxTokens: maxTokens}
}

// Origin explains the historical background and causes of the event.
func (a *Analyst) Origin(ctx context.Context, title, description string) (string, error) {
	return a.complete(ctx, promptOrigin(title, description))
}

// Impact explains the economic, social, and political consequences.
func (a *Analyst) Impact(ctx context.Context, title, description string) (string, error) {
	return a.complete(ctx, promptImpact(title, description))
}

// Prediction sketches 2-3 plausible future scenarios.
func (a *Analyst) Prediction(ctx context.Context, title, description string) (string, error) {
	return a.complete(ctx, promptPrediction(title, description))
}

var listMarkerRe = regexp.MustCompile(`^[\d\-\*•]+\s*\.?\s*`)

// SimilarEvents asks for exactly three comparable historical events and parses
// the numbered list, dropping refusal boilerplate. Fewer than three entries is
// acceptable; the AI is trusted to generate all content or none.
func (a *Analyst) SimilarEvents(ctx context.Context, title, description string) ([]string, error) {
	response, err := a.complete(ctx, promptSimilarEvents(title, description))
	if err != nil {
		return nil, err
	}

	var events []string
	for _, line := range strings.Split(response, "\n") {
		if len(events) == 3 {
			break
		}
		clean := listMarkerRe.ReplaceAllString(strings.TrimSpace(line), "")
		lower := strings.ToLower(clean)
		if utf8.RuneCountInString(clean) <= 10 ||
			strings.Contains(lower, "lo siento") ||
			strings.Contains(lower, "no puedo") ||
			strings.Contains(lower, "sin embargo") {
			continue
		}
		if utf8.RuneCountInString(clean) > 150 {
			clean = truncateRunes(clean, 147) + "..."
		}
		events = append(events, clean)
	}

	logger.Get().Debug().Int("count", len(events)).Msg("AI generated similar events")
	return events, nil
}

// SimilarEventDetail writes the comparative analysis between one similar event
// and the current one.
func (a *Analyst) SimilarEventDetail(ctx context.Context, similarEvent, currentTitle string) (string, error) {
	return a.complete(ctx, promptSimilarEventDetail(similarEvent, currentTitle))
}

func (a *Analyst) complete(ctx context.Context, prompt string) (string, error) {
	return a.client.CompleteWithRetry(ctx, nil, CompletionRequest{
		System:      analystSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   a.maxTokens,
		Temperature: 0.5,
	})
}
