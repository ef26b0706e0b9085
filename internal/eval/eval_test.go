package eval

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlyonaCIA/AI-diagnostic/internal/gen"
	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
)

func constantCase() gen.Case {
	return gen.Case{
		ExpectedStage:      schema.StageIECCompilation,
		ExpectedSeverity:   schema.SeverityBlocking,
		ExpectedComplexity: schema.ComplexityTrivial,
		ErrorType:          "constant_error",
	}
}

func matchingReport() *schema.DiagnosticReport {
	return &schema.DiagnosticReport{
		Severity:   schema.SeverityBlocking,
		Stage:      schema.StageIECCompilation,
		Complexity: schema.ComplexityTrivial,
		RootCause:  "constant assignment",
		Suggestions: []schema.FixSuggestion{
			{Explanation: "a", Confidence: 0.8},
			{Explanation: "b", Confidence: 0.6},
		},
	}
}

func TestJudge_AllCorrect(t *testing.T) {
	m := Judge(matchingReport(), constantCase(), 1500*time.Millisecond)
	assert.True(t, m.CorrectStage)
	assert.True(t, m.CorrectSeverity)
	assert.True(t, m.CorrectComplexity)
	assert.True(t, m.HasSuggestions)
	assert.InDelta(t, 0.7, m.MeanConfidence, 1e-9)
	assert.InDelta(t, 1.5, m.ResponseSeconds, 1e-9)
}

func TestJudge_WrongStage(t *testing.T) {
	r := matchingReport()
	r.Stage = schema.StageXMLValidation
	m := Judge(r, constantCase(), time.Second)
	assert.False(t, m.CorrectStage)
	assert.True(t, m.CorrectSeverity)
}

func TestJudge_NilReport(t *testing.T) {
	m := Judge(nil, constantCase(), time.Second)
	assert.False(t, m.CorrectStage)
	assert.False(t, m.HasSuggestions)
	assert.Zero(t, m.MeanConfidence)
}

func TestSummarize_Accuracies(t *testing.T) {
	results := []CaseResult{
		{ErrorType: "constant_error", Metrics: CaseMetrics{CorrectStage: true, CorrectSeverity: true, CorrectComplexity: true, MeanConfidence: 0.9, ResponseSeconds: 1}},
		{ErrorType: "constant_error", Metrics: CaseMetrics{CorrectStage: true, CorrectSeverity: true, MeanConfidence: 0.7, ResponseSeconds: 3}},
		{ErrorType: "code_generation", Metrics: CaseMetrics{CorrectSeverity: true, MeanConfidence: 0.5, ResponseSeconds: 2}},
		{ErrorType: "code_generation", Metrics: CaseMetrics{CorrectStage: true, CorrectSeverity: true, CorrectComplexity: true, MeanConfidence: 0.9, ResponseSeconds: 2}},
	}

	r := Summarize(results)
	require.Equal(t, 4, r.TotalCases)
	assert.InDelta(t, 0.75, r.StageAccuracy, 1e-9)
	assert.InDelta(t, 1.0, r.SeverityAccuracy, 1e-9)
	assert.InDelta(t, 0.5, r.ComplexityAccuracy, 1e-9)
	assert.InDelta(t, 0.75, r.MeanConfidence, 1e-9)
	assert.InDelta(t, 2.0, r.MeanResponseSeconds, 1e-9)
	assert.NotEmpty(t, r.Timestamp)

	require.Contains(t, r.ByErrorType, "constant_error")
	require.Contains(t, r.ByErrorType, "code_generation")
	assert.Equal(t, 2, r.ByErrorType["constant_error"].Cases)
	assert.InDelta(t, 1.0, r.ByErrorType["constant_error"].StageAccuracy, 1e-9)
	assert.InDelta(t, 0.5, r.ByErrorType["code_generation"].StageAccuracy, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	r := Summarize(nil)
	assert.Equal(t, 0, r.TotalCases)
	assert.Equal(t, 0, Score(r))
}

func TestScore_Blend(t *testing.T) {
	r := &Report{TotalCases: 10, StageAccuracy: 1, SeverityAccuracy: 1, ComplexityAccuracy: 1}
	assert.Equal(t, 100, Score(r))

	r = &Report{TotalCases: 10, StageAccuracy: 1, SeverityAccuracy: 0, ComplexityAccuracy: 0}
	assert.Equal(t, 50, Score(r))

	r = &Report{TotalCases: 10}
	assert.Equal(t, 0, Score(r))
}

func TestRenderJSON_RoundTrips(t *testing.T) {
	r := Summarize([]CaseResult{
		{ErrorType: "constant_error", Metrics: CaseMetrics{CorrectStage: true, CorrectSeverity: true, CorrectComplexity: true}},
	})
	b, err := RenderJSON(r)
	require.NoError(t, err)

	var back Report
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, r.TotalCases, back.TotalCases)
	assert.Equal(t, r.ByErrorType, back.ByErrorType)
}

func TestRenderMarkdown_MentionsEveryType(t *testing.T) {
	r := Summarize([]CaseResult{
		{ErrorType: "constant_error", Metrics: CaseMetrics{CorrectStage: true}},
		{ErrorType: "code_generation", Metrics: CaseMetrics{}},
	})
	md := RenderMarkdown(r)
	assert.Contains(t, md, "constant_error")
	assert.Contains(t, md, "code_generation")
	assert.Contains(t, md, "Score")
}

func TestRenderSummary_Writes(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, Summarize([]CaseResult{
		{ErrorType: "constant_error", Metrics: CaseMetrics{CorrectStage: true, CorrectSeverity: true, CorrectComplexity: true}},
	}))
	out := buf.String()
	assert.Contains(t, out, "cases:")
	assert.Contains(t, out, "constant_error")
}
