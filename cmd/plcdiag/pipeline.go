package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/AlyonaCIA/AI-diagnostic/internal/config"
	"github.com/AlyonaCIA/AI-diagnostic/internal/gen"
	"github.com/AlyonaCIA/AI-diagnostic/internal/parser"
	"github.com/AlyonaCIA/AI-diagnostic/internal/plcxml"
	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
)

// classifyCase runs the deterministic half of the pipeline over a synthetic
// case: metadata from the log, POU context from the XML, with the same
// degrade-on-malformed-XML policy the server applies.
func classifyCase(c gen.Case) (schema.Metadata, string, error) {
	meta, err := parser.Assemble(c.LogText)
	if err != nil {
		return schema.Metadata{}, "", err
	}
	contextSnippet, err := plcxml.Locate(c.XMLContent, "program0")
	if err != nil {
		if !errors.Is(err, plcxml.ErrInvalidProjectFormat) {
			return schema.Metadata{}, "", err
		}
		contextSnippet = "Context missing: Malformed project XML."
	}
	return meta, contextSnippet, nil
}

func contextWithTimeout(cmd *cobra.Command, cfg config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout())
}
