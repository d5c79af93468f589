package ai

import (
	"context"
	"testing"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) CompleteWithRetry(ctx context.Context, gate *Gate, req CompletionRequest) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestCategorizeValidLabels(t *testing.T) {
	tests := []struct {
		response string
		want     string
	}{
		{"Política", "Política"},
		{"política", "Política"},
		{"ECONOMÍA", "Economía"},
		{"  Tecnología  ", "Tecnología"},
		{"Excluido", "Excluido"},
	}

	for _, tt := range tests {
		c := NewCategorizer(&fakeCompleter{response: tt.response}, nil)
		if got := c.Categorize(context.Background(), "Un titular suficientemente largo", "desc"); got != tt.want {
			t.Errorf("Categorize with response %q = %q, want %q", tt.response, got, tt.want)
		}
	}
}

func TestCategorizeUnknownLabelExcluded(t *testing.T) {
	c := NewCategorizer(&fakeCompleter{response: "Deportes"}, nil)
	if got := c.Categorize(context.Background(), "titulo", "desc"); got != Excluded {
		t.Errorf("unknown label should exclude, got %q", got)
	}
}

func TestCategorizeErrorExcluded(t *testing.T) {
	c := NewCategorizer(&fakeCompleter{err: &Error{Kind: KindExhausted, Msg: "spent"}}, nil)
	if got := c.Categorize(context.Background(), "titulo", "desc"); got != Excluded {
		t.Errorf("failed call should exclude, got %q", got)
	}
}

func TestIsTargetCategory(t *testing.T) {
	for _, name := range Categories {
		if !IsTargetCategory(name) {
			t.Errorf("IsTargetCategory(%q) = false, want true", name)
		}
	}
	if IsTargetCategory(Excluded) {
		t.Error("Excluido must not be a target category")
	}
	if IsTargetCategory("Deportes") {
		t.Error("unknown names must not be target categories")
	}
}

func TestCoherent(t *testing.T) {
	c := NewCategorizer(&fakeCompleter{}, nil)

	if !c.Coherent("Un titular con sustancia real", "Una descripción que supera con holgura el mínimo exigido") {
		t.Error("substantial title and description should be coherent")
	}
	if c.Coherent("Corto", "Una descripción que supera con holgura el mínimo exigido") {
		t.Error("short title should fail coherence")
	}
	if c.Coherent("Un titular con sustancia real", "demasiado corta") {
		t.Error("short description should fail coherence")
	}
}
