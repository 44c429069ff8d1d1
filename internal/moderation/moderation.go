// Package moderation wraps an optional external text-classification provider.
// Moderation is strictly advisory: a flagged verdict forces a submission to
// pending, but a provider outage can never block a guest from submitting.
package moderation

import (
	"context"

	"giftwall/pkg/logger"
)

// Result is deliberately tri-state. OK=false means "could not determine";
// callers must treat it as non-flagging rather than conflating it with a
// clean verdict or a flag.
type Result struct {
	OK       bool
	Flagged  bool
	Provider string
	Raw      string
}

// Provider classifies free text. Implementations must bound their own effort
// (the gate passes a context with a timeout).
type Provider interface {
	Name() string
	Classify(ctx context.Context, text string) (flagged bool, raw string, err error)
}

type Gate struct {
	provider Provider
	logger   *logger.Logger
}

// NewGate builds a gate around provider; provider may be nil, in which case
// moderation is a no-op.
func NewGate(provider Provider, log *logger.Logger) *Gate {
	return &Gate{provider: provider, logger: log}
}

// Moderate classifies text. With no provider configured it reports a clean,
// determinate verdict. On provider failure it reports OK=false, Flagged=false:
// fail open, never fail closed.
func (g *Gate) Moderate(ctx context.Context, text string) Result {
	if g.provider == nil || text == "" {
		return Result{OK: true, Flagged: false, Provider: "none"}
	}

	flagged, raw, err := g.provider.Classify(ctx, text)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("moderation provider %s failed, continuing unflagged: %v", g.provider.Name(), err)
		}
		return Result{OK: false, Flagged: false, Provider: g.provider.Name()}
	}

	return Result{OK: true, Flagged: flagged, Provider: g.provider.Name(), Raw: raw}
}
