package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// RenderJSON produces a pretty-printed JSON representation of the report.
func RenderJSON(r *Report) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("eval: nil report")
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("eval: json marshal: %w", err)
	}
	return b, nil
}

// RenderMarkdown produces a Markdown summary of the report, suitable for PR
// comments or dashboards.
func RenderMarkdown(r *Report) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## Diagnostic Evaluation Report\n\n")
	fmt.Fprintf(&sb, "**Cases:** %d  \n", r.TotalCases)
	fmt.Fprintf(&sb, "**Score:** %d/100  \n", Score(r))
	fmt.Fprintf(&sb, "**Stage accuracy:** %.1f%% | **Severity accuracy:** %.1f%% | **Complexity accuracy:** %.1f%%\n\n",
		r.StageAccuracy*100, r.SeverityAccuracy*100, r.ComplexityAccuracy*100)
	fmt.Fprintf(&sb, "**Mean confidence:** %.2f | **Mean response:** %.2fs\n\n",
		r.MeanConfidence, r.MeanResponseSeconds)

	if len(r.ByErrorType) > 0 {
		sb.WriteString("## By Error Type\n\n")
		sb.WriteString("| Type | Cases | Stage | Severity | Complexity |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, name := range sortedTypes(r) {
			b := r.ByErrorType[name]
			fmt.Fprintf(&sb, "| %s | %d | %.1f%% | %.1f%% | %.1f%% |\n",
				name, b.Cases, b.StageAccuracy*100, b.SeverityAccuracy*100, b.ComplexityAccuracy*100)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

var (
	scoreGoodColor = color.New(color.FgGreen, color.Bold)
	scoreWarnColor = color.New(color.FgYellow, color.Bold)
	scoreBadColor  = color.New(color.FgRed, color.Bold)
	headerColor    = color.New(color.FgCyan, color.Bold)
)

// RenderSummary writes a colored terminal summary of the report to w.
func RenderSummary(w io.Writer, r *Report) {
	if r == nil {
		return
	}
	score := Score(r)
	scoreColor := scoreBadColor
	switch {
	case score >= 90:
		scoreColor = scoreGoodColor
	case score >= 70:
		scoreColor = scoreWarnColor
	}

	fmt.Fprintln(w, headerColor.Sprint("Diagnostic Evaluation"))
	fmt.Fprintf(w, "  cases:      %d\n", r.TotalCases)
	fmt.Fprintf(w, "  score:      %s\n", scoreColor.Sprintf("%d/100", score))
	fmt.Fprintf(w, "  stage:      %.1f%%\n", r.StageAccuracy*100)
	fmt.Fprintf(w, "  severity:   %.1f%%\n", r.SeverityAccuracy*100)
	fmt.Fprintf(w, "  complexity: %.1f%%\n", r.ComplexityAccuracy*100)
	fmt.Fprintf(w, "  confidence: %.2f\n", r.MeanConfidence)
	fmt.Fprintf(w, "  latency:    %.2fs\n", r.MeanResponseSeconds)
	for _, name := range sortedTypes(r) {
		b := r.ByErrorType[name]
		fmt.Fprintf(w, "  %-18s %d cases, %.1f%% stage accuracy\n", name+":", b.Cases, b.StageAccuracy*100)
	}
}

func sortedTypes(r *Report) []string {
	names := make([]string, 0, len(r.ByErrorType))
	for name := range r.ByErrorType {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
