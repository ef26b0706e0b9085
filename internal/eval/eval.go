// Package eval measures classification and suggestion quality over synthetic
// cases and aggregates the results into a performance report.
package eval

import (
	"time"

	"github.com/AlyonaCIA/AI-diagnostic/internal/gen"
	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
)

// CaseMetrics is the judged outcome of a single case.
type CaseMetrics struct {
	CorrectStage      bool    `json:"correct_stage"`
	CorrectSeverity   bool    `json:"correct_severity"`
	CorrectComplexity bool    `json:"correct_complexity"`
	HasSuggestions    bool    `json:"has_suggestions"`
	MeanConfidence    float64 `json:"mean_confidence"`
	ResponseSeconds   float64 `json:"response_seconds"`
}

// CaseResult ties judged metrics back to the case family they came from.
type CaseResult struct {
	ErrorType string      `json:"error_type"`
	Metrics   CaseMetrics `json:"metrics"`
}

// TypeBreakdown aggregates metrics for one error family.
type TypeBreakdown struct {
	Cases              int     `json:"cases"`
	StageAccuracy      float64 `json:"stage_accuracy"`
	SeverityAccuracy   float64 `json:"severity_accuracy"`
	ComplexityAccuracy float64 `json:"complexity_accuracy"`
}

// Report is the overall performance report across all judged cases.
type Report struct {
	TotalCases          int                      `json:"total_cases"`
	CorrectStage        int                      `json:"correct_stage"`
	CorrectSeverity     int                      `json:"correct_severity"`
	CorrectComplexity   int                      `json:"correct_complexity"`
	StageAccuracy       float64                  `json:"stage_accuracy"`
	SeverityAccuracy    float64                  `json:"severity_accuracy"`
	ComplexityAccuracy  float64                  `json:"complexity_accuracy"`
	MeanConfidence      float64                  `json:"mean_confidence"`
	MeanResponseSeconds float64                  `json:"mean_response_seconds"`
	ByErrorType         map[string]TypeBreakdown `json:"results_by_error_type"`
	Timestamp           string                   `json:"timestamp"`
}

// Judge scores one diagnostic report against the case's ground truth.
func Judge(report *schema.DiagnosticReport, c gen.Case, elapsed time.Duration) CaseMetrics {
	m := CaseMetrics{
		ResponseSeconds: elapsed.Seconds(),
	}
	if report == nil {
		return m
	}

	m.CorrectStage = report.Stage == c.ExpectedStage
	m.CorrectSeverity = report.Severity == c.ExpectedSeverity
	m.CorrectComplexity = report.Complexity == c.ExpectedComplexity
	m.HasSuggestions = len(report.Suggestions) > 0

	if m.HasSuggestions {
		var sum float64
		for _, s := range report.Suggestions {
			sum += s.Confidence
		}
		m.MeanConfidence = sum / float64(len(report.Suggestions))
	}
	return m
}

// Summarize aggregates judged results into a Report. Accuracies are in
// [0, 1]; an empty input produces a zeroed report.
func Summarize(results []CaseResult) *Report {
	r := &Report{
		TotalCases:  len(results),
		ByErrorType: make(map[string]TypeBreakdown),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if len(results) == 0 {
		return r
	}

	type counts struct {
		cases, stage, severity, complexity int
	}
	byType := make(map[string]*counts)

	var confidenceSum, timeSum float64
	for _, res := range results {
		m := res.Metrics
		if m.CorrectStage {
			r.CorrectStage++
		}
		if m.CorrectSeverity {
			r.CorrectSeverity++
		}
		if m.CorrectComplexity {
			r.CorrectComplexity++
		}
		confidenceSum += m.MeanConfidence
		timeSum += m.ResponseSeconds

		c := byType[res.ErrorType]
		if c == nil {
			c = &counts{}
			byType[res.ErrorType] = c
		}
		c.cases++
		if m.CorrectStage {
			c.stage++
		}
		if m.CorrectSeverity {
			c.severity++
		}
		if m.CorrectComplexity {
			c.complexity++
		}
	}

	total := float64(len(results))
	r.StageAccuracy = float64(r.CorrectStage) / total
	r.SeverityAccuracy = float64(r.CorrectSeverity) / total
	r.ComplexityAccuracy = float64(r.CorrectComplexity) / total
	r.MeanConfidence = confidenceSum / total
	r.MeanResponseSeconds = timeSum / total

	for name, c := range byType {
		n := float64(c.cases)
		r.ByErrorType[name] = TypeBreakdown{
			Cases:              c.cases,
			StageAccuracy:      float64(c.stage) / n,
			SeverityAccuracy:   float64(c.severity) / n,
			ComplexityAccuracy: float64(c.complexity) / n,
		}
	}
	return r
}

// Score collapses a report into a 0-100 quality score: the three accuracies
// weighted stage-heavy (stage 50%, severity 30%, complexity 20%), clamped.
func Score(r *Report) int {
	if r == nil || r.TotalCases == 0 {
		return 0
	}
	score := int(r.StageAccuracy*50 + r.SeverityAccuracy*30 + r.ComplexityAccuracy*20 + 0.5)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
