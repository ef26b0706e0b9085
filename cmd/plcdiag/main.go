// Command plcdiag classifies PLC build-pipeline error logs and asks an LLM
// for structured fix suggestions, as an HTTP service or one-shot CLI runs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AlyonaCIA/AI-diagnostic/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:   "plcdiag",
		Short: "AI-assisted diagnostics for PLC build errors",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newEvalCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the plcdiag version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		},
	}
}
