// Package agent wires the deterministic classification output to the LLM
// diagnostician. An agent without a usable provider is an explicit state:
// construction never fails, and Diagnose reports ErrNoProvider instead of
// dereferencing a missing backend.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlyonaCIA/AI-diagnostic/internal/llm"
	"github.com/AlyonaCIA/AI-diagnostic/internal/logging"
	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
)

// ErrNoProvider is returned by Diagnose when the agent was constructed
// without a usable LLM provider (typically a missing API key).
var ErrNoProvider = errors.New("agent: LLM provider not configured")

// Agent generates diagnostic reports for classified PLC build errors.
type Agent struct {
	provider    llm.Provider
	providerErr error
	opts        llm.Options
}

// New constructs an agent for the given provider options. Provider creation
// failure (for example, a missing API key) is not fatal here: the unconfigured
// agent is still useful for the deterministic pipeline and for health checks,
// and surfaces ErrNoProvider when a diagnosis is actually requested.
func New(opts llm.Options) *Agent {
	provider, err := llm.NewProvider(opts.Provider, opts.Model)
	if err != nil {
		logging.Warn("LLM provider not initialized", "provider", opts.Provider, "error", err)
		return &Agent{providerErr: err, opts: opts}
	}
	return &Agent{provider: provider, opts: opts}
}

// NewWithProvider constructs an agent around an existing provider. Used by
// tests and by callers that manage provider construction themselves.
func NewWithProvider(provider llm.Provider, opts llm.Options) *Agent {
	return &Agent{provider: provider, opts: opts}
}

// Configured reports whether the agent holds a usable provider.
func (a *Agent) Configured() bool {
	return a.provider != nil
}

// Diagnose asks the LLM for fix suggestions. The provider call is bounded by
// ctx; failures propagate to the caller and are never silently defaulted.
func (a *Agent) Diagnose(ctx context.Context, meta schema.Metadata, xmlContext string) (*schema.DiagnosticReport, error) {
	if a.provider == nil {
		if a.providerErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoProvider, a.providerErr)
		}
		return nil, ErrNoProvider
	}
	return llm.Diagnose(ctx, a.provider, meta, xmlContext, a.opts)
}
