// Package llm handles LLM provider communication, prompt construction,
// response validation, and the single repair attempt for diagnostic reports.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
)

// ErrInvalidModelOutput is returned when both the initial and repair LLM
// responses fail validation.
var ErrInvalidModelOutput = errors.New("llm: invalid model output after repair attempt")

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call site.
// Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures a Diagnose call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
}

// ValidationError records a single validation failure on an LLM response.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Diagnose builds the diagnostic prompt from the deterministic metadata and
// the POU context, calls the provider, validates the response, and performs
// one repair attempt if validation fails. Provider errors propagate; they are
// never retried or silently defaulted.
func Diagnose(ctx context.Context, provider Provider, meta schema.Metadata, xmlContext string, opts Options) (*schema.DiagnosticReport, error) {
	sysPrompt := buildSystemPrompt()
	userPrompt := buildUserPrompt(meta, xmlContext)

	raw, err := provider.Complete(ctx, sysPrompt, userPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("llm: complete: %w", err)
	}

	report, validationErrs := ValidateResponse(raw)
	if report != nil && len(validationErrs) == 0 {
		return report, nil
	}

	// One repair attempt: include the original prompt and the invalid response
	// so the model has full context.
	repairPrompt := buildRepairPrompt(userPrompt, raw, validationErrs)
	raw2, err := provider.Complete(ctx, sysPrompt, repairPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("llm: repair complete: %w", err)
	}

	report2, validationErrs2 := ValidateResponse(raw2)
	if report2 != nil && len(validationErrs2) == 0 {
		return report2, nil
	}

	return nil, ErrInvalidModelOutput
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line (no closing fence required).
// Used to strip orphaned opening fences from truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes leading/trailing markdown code fences that LLMs
// sometimes wrap around JSON output (e.g., "```json\n...\n```").
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// invalidJSONEscapeRe matches a backslash followed by any character that is
// not a valid JSON string escape character. Models sometimes emit ST or regex
// fragments (e.g. \d+) unescaped inside JSON strings; the sanitizer converts
// them to double-escaped sequences so the parser accepts the response.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

func fixInvalidJSONEscapes(s string) string {
	return invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)
}

// ValidateResponse parses and validates the raw LLM response. Leading and
// trailing markdown fences are stripped before parsing. The report is nil
// only on parse failure; all other findings are recorded as ValidationErrors
// and any of them triggers the repair attempt.
func ValidateResponse(raw string) (*schema.DiagnosticReport, []ValidationError) {
	var errs []ValidationError

	raw = stripMarkdownFences(raw)

	var report schema.DiagnosticReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		fixed := fixInvalidJSONEscapes(raw)
		if err2 := json.Unmarshal([]byte(fixed), &report); err2 != nil {
			errs = append(errs, ValidationError{Field: "json_parse", Message: err.Error()})
			return nil, errs
		}
	}

	if !schema.ValidSeverities()[report.Severity] {
		errs = append(errs, ValidationError{
			Field:   "severity",
			Message: fmt.Sprintf("invalid severity %q", report.Severity),
		})
	}
	if !schema.ValidStages()[report.Stage] {
		errs = append(errs, ValidationError{
			Field:   "stage",
			Message: fmt.Sprintf("invalid stage %q", report.Stage),
		})
	}
	if !schema.ValidComplexities()[report.Complexity] {
		errs = append(errs, ValidationError{
			Field:   "complexity",
			Message: fmt.Sprintf("invalid complexity %q", report.Complexity),
		})
	}
	if strings.TrimSpace(report.RootCause) == "" {
		errs = append(errs, ValidationError{
			Field:   "root_cause",
			Message: "root_cause is empty",
		})
	}
	if n := len(report.Suggestions); n < 1 || n > 3 {
		errs = append(errs, ValidationError{
			Field:   "suggestions",
			Message: fmt.Sprintf("expected 1 to 3 suggestions, got %d", n),
		})
	}
	for i, s := range report.Suggestions {
		if s.Confidence < 0 || s.Confidence > 1 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("suggestions[%d].confidence", i),
				Message: fmt.Sprintf("confidence %v outside [0, 1]", s.Confidence),
			})
		}
	}

	return &report, errs
}

// buildSystemPrompt assembles the LLM system prompt.
func buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a Lead Automation Engineer specializing in IEC 61131-3 and industrial PLC build pipelines. " +
		"Analyze PLC compilation logs and project XML and prioritize the root cause.\n\n")

	sb.WriteString("Output ONLY valid JSON conforming to the schema below. " +
		"No prose, no markdown, no explanation outside the JSON.\n\n")

	sb.WriteString("If the error is an assignment to a CONSTANT variable, explain that CONSTANT " +
		"variables cannot be modified in Structured Text. If the code generator crashed and the " +
		"POU body carries no ST code, explain that the POU is empty.\n\n")

	sb.WriteString(outputSchema)

	return sb.String()
}

// outputSchema is the JSON schema fragment shown to the LLM.
const outputSchema = `Output schema (JSON only):
{
  "severity": "blocking|warning|info",
  "stage": "xml_validation|code_generation|iec_compilation|c_compilation",
  "complexity": "trivial|moderate|complex",
  "root_cause": "...",
  "suggestions": [
    {"explanation": "...", "before": "faulty snippet", "after": "corrected snippet", "confidence": 0.9}
  ]
}
Provide 1 to 3 suggestions. Confidence is a number between 0 and 1.
`

// buildUserPrompt assembles the LLM user prompt from the deterministic
// classification and the extracted POU context.
func buildUserPrompt(meta schema.Metadata, xmlContext string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Build Stage: %s\n", meta.Stage)
	if meta.Line != nil {
		fmt.Fprintf(&sb, "Error Line: %d\n", *meta.Line)
	} else {
		sb.WriteString("Error Line: unknown\n")
	}
	fmt.Fprintf(&sb, "Severity: %s\n", meta.Severity)
	fmt.Fprintf(&sb, "XML Context Snippet:\n%s\n\n", xmlContext)
	sb.WriteString("Generate a diagnostic report with 1-3 actionable suggestions.")

	return sb.String()
}

// buildRepairPrompt constructs the repair message. It includes the original
// user prompt and the previous invalid response so the model has full context.
func buildRepairPrompt(originalUserPrompt, previousResponse string, errs []ValidationError) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid. Errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	sb.WriteString("\nPlease output only the corrected JSON conforming to the schema. Do not repeat the error.")
	return sb.String()
}

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "google", "":
		return newGoogleProvider(model)
	case "anthropic":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
}
