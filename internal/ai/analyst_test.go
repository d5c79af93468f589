package ai

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSimilarEventsParsing(t *testing.T) {
	response := strings.Join([]string{
		"1. Crisis del petróleo de 1973 en los países occidentales",
		"2. Corralito argentino de 2001 y sus consecuencias bancarias",
		"Lo siento, no tengo más información disponible",
		"3. Crisis financiera global de 2008 tras Lehman Brothers",
		"4. Burbuja de los tulipanes en el siglo XVII",
	}, "\n")

	a := NewAnalyst(&fakeCompleter{response: response}, 0)
	events, err := a.SimilarEvents(context.Background(), "titulo", "desc")
	if err != nil {
		t.Fatalf("SimilarEvents returned error: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3 (capped, refusals dropped)", len(events))
	}
	if !strings.HasPrefix(events[0], "Crisis del petróleo") {
		t.Errorf("list marker not stripped: %q", events[0])
	}
	for _, e := range events {
		if strings.Contains(strings.ToLower(e), "lo siento") {
			t.Errorf("refusal line survived parsing: %q", e)
		}
	}
}

func TestSimilarEventsTruncatesLongNames(t *testing.T) {
	long := "1. " + strings.Repeat("evento histórico ", 20)
	a := NewAnalyst(&fakeCompleter{response: long}, 0)

	events, err := a.SimilarEvents(context.Background(), "titulo", "desc")
	if err != nil {
		t.Fatalf("SimilarEvents returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if n := utf8.RuneCountInString(events[0]); n > 150 {
		t.Errorf("event name has %d runes, want at most 150", n)
	}
	if !strings.HasSuffix(events[0], "...") {
		t.Errorf("truncated name should end with ellipsis: %q", events[0])
	}
}

func TestSimilarEventsShortLinesDropped(t *testing.T) {
	a := NewAnalyst(&fakeCompleter{response: "1. corto\n2. ok\n---"}, 0)
	events, err := a.SimilarEvents(context.Background(), "titulo", "desc")
	if err != nil {
		t.Fatalf("SimilarEvents returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 (all lines too short)", len(events))
	}
}
