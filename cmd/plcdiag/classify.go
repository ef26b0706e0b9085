package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AlyonaCIA/AI-diagnostic/internal/agent"
	"github.com/AlyonaCIA/AI-diagnostic/internal/config"
	"github.com/AlyonaCIA/AI-diagnostic/internal/llm"
	"github.com/AlyonaCIA/AI-diagnostic/internal/logging"
	"github.com/AlyonaCIA/AI-diagnostic/internal/parser"
	"github.com/AlyonaCIA/AI-diagnostic/internal/plcxml"
)

func newClassifyCmd() *cobra.Command {
	var (
		logPath    string
		xmlPath    string
		unitName   string
		configPath string
		useLLM     bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a build log locally, optionally asking the LLM for fixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logging.Init(os.Stderr, cfg.Log.Level)

			logText, err := os.ReadFile(logPath)
			if err != nil {
				return fmt.Errorf("classify: read log: %w", err)
			}

			meta, err := parser.Assemble(string(logText))
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}

			contextSnippet := plcxml.NotFoundSentinel
			if xmlPath != "" {
				xmlContent, err := os.ReadFile(xmlPath)
				if err != nil {
					return fmt.Errorf("classify: read xml: %w", err)
				}
				contextSnippet, err = plcxml.Locate(string(xmlContent), unitName)
				if err != nil {
					if !errors.Is(err, plcxml.ErrInvalidProjectFormat) {
						return fmt.Errorf("classify: %w", err)
					}
					logging.Warn("analyzing log without XML context", "error", err)
					contextSnippet = "Context missing: Malformed project XML."
				}
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(meta); err != nil {
				return err
			}

			if !useLLM {
				return nil
			}

			a := agent.New(llm.Options{
				Provider:    cfg.LLM.Provider,
				Model:       cfg.LLM.Model,
				MaxTokens:   cfg.LLM.MaxTokens,
				Temperature: cfg.LLM.Temperature,
			})
			ctx, cancel := contextWithTimeout(cmd, cfg)
			defer cancel()

			report, err := a.Diagnose(ctx, meta, contextSnippet)
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "path to the build log file (required)")
	cmd.Flags().StringVar(&xmlPath, "xml", "", "path to the PLCopen project XML")
	cmd.Flags().StringVar(&unitName, "unit", "program0", "POU name to extract as context")
	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().BoolVar(&useLLM, "llm", false, "also ask the LLM for fix suggestions")
	_ = cmd.MarkFlagRequired("log")
	return cmd
}
