package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlyonaCIA/AI-diagnostic/internal/agent"
	"github.com/AlyonaCIA/AI-diagnostic/internal/config"
	"github.com/AlyonaCIA/AI-diagnostic/internal/eval"
	"github.com/AlyonaCIA/AI-diagnostic/internal/gen"
	"github.com/AlyonaCIA/AI-diagnostic/internal/llm"
	"github.com/AlyonaCIA/AI-diagnostic/internal/logging"
)

func newEvalCmd() *cobra.Command {
	var (
		configPath string
		cases      int
		outPath    string
		markdown   bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the pipeline on synthetic error cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logging.Init(os.Stderr, cfg.Log.Level)

			a := agent.New(llm.Options{
				Provider:    cfg.LLM.Provider,
				Model:       cfg.LLM.Model,
				MaxTokens:   cfg.LLM.MaxTokens,
				Temperature: cfg.LLM.Temperature,
			})
			if !a.Configured() {
				return fmt.Errorf("eval: no LLM provider configured")
			}

			results, err := runCases(cmd.Context(), a, gen.All(cases, cases), cfg.Timeout())
			if err != nil {
				return err
			}

			report := eval.Summarize(results)

			if outPath != "" {
				b, err := eval.RenderJSON(report)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, b, 0o644); err != nil {
					return fmt.Errorf("eval: write report: %w", err)
				}
			}
			if markdown {
				fmt.Fprint(cmd.OutOrStdout(), eval.RenderMarkdown(report))
				return nil
			}
			eval.RenderSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().IntVar(&cases, "cases", 10, "synthetic cases per error family")
	cmd.Flags().StringVar(&outPath, "out", "", "write the JSON report to this file")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print the report as Markdown")
	return cmd
}

// runCases executes the full pipeline for each synthetic case. A failed
// diagnosis counts as an all-wrong case rather than aborting the run.
func runCases(ctx context.Context, a *agent.Agent, cases []gen.Case, timeout time.Duration) ([]eval.CaseResult, error) {
	results := make([]eval.CaseResult, 0, len(cases))
	for _, c := range cases {
		result, err := runCase(ctx, a, c, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Warn("case diagnosis failed", "error_type", c.ErrorType, "error", err)
			results = append(results, eval.CaseResult{ErrorType: c.ErrorType})
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func runCase(ctx context.Context, a *agent.Agent, c gen.Case, timeout time.Duration) (eval.CaseResult, error) {
	meta, contextSnippet, err := classifyCase(c)
	if err != nil {
		return eval.CaseResult{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	report, err := a.Diagnose(callCtx, meta, contextSnippet)
	elapsed := time.Since(start)
	if err != nil {
		return eval.CaseResult{}, err
	}

	return eval.CaseResult{
		ErrorType: c.ErrorType,
		Metrics:   eval.Judge(report, c, elapsed),
	}, nil
}
