package rankings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Source loads ranking inputs for a window.
type Source interface {
	Tally(ctx context.Context, window Window) ([]Candidate, map[uuid.UUID]int64, error)
}

// Engine ranks products read from a Source.
type Engine struct {
	source Source
}

// NewEngine builds an engine over the provided source.
func NewEngine(source Source) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("ranking source required")
	}
	return &Engine{source: source}, nil
}

// Rank returns the ranked products of the window. A limit <= 0 returns every entry.
func (e *Engine) Rank(ctx context.Context, window Window, limit int) ([]Entry, error) {
	if !window.From.Before(window.To) {
		return nil, fmt.Errorf("invalid ranking window %s..%s", window.From, window.To)
	}
	candidates, tallies, err := e.source.Tally(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}
	entries := Rank(candidates, tallies, window)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
