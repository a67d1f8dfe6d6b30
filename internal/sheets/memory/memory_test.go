package memory

import (
	"context"
	"errors"
	"testing"

	"lapkeu/internal/core"
)

func TestMirror(t *testing.T) {
	m := New()
	list := []core.Transaction{
		{ID: "a", Type: core.Income, Amount: 10, Date: core.NewDate(2025, 1, 2)},
	}

	n, err := m.Mirror(context.Background(), list)
	if err != nil || n != 1 {
		t.Fatalf("Mirror() = %d, %v", n, err)
	}
	if got := len(m.Grid("Transactions")); got != 2 {
		t.Errorf("Transactions rows = %d, want header + 1", got)
	}
	if got := len(m.Grid("Monthly")); got != 2 {
		t.Errorf("Monthly rows = %d, want header + 1", got)
	}

	boom := errors.New("boom")
	m.FailWith(boom)
	if _, err := m.Mirror(context.Background(), list); !errors.Is(err, boom) {
		t.Errorf("Mirror() error = %v, want boom", err)
	}
	if m.Runs() != 2 {
		t.Errorf("Runs() = %d, want 2", m.Runs())
	}
}
