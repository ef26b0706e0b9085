// Package schema defines the canonical data types exchanged between the
// deterministic parsing core, the LLM diagnostician, and the HTTP boundary.
package schema

// Stage identifies which phase of the PLC build pipeline produced an error.
type Stage string

const (
	StageXMLValidation  Stage = "xml_validation"
	StageCodeGeneration Stage = "code_generation"
	StageIECCompilation Stage = "iec_compilation"
	// StageCCompilation never comes out of the deterministic classifier; it
	// exists because the LLM is allowed to attribute an error to the final
	// C build step in its report.
	StageCCompilation Stage = "c_compilation"
	StageUnknown      Stage = "unknown"
)

// Severity classifies how hard a finding blocks the build.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Complexity is the LLM's estimate of how involved the fix is.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Metadata is the deterministic classification of a single build log.
// Line is nil when the stage has no line grammar or the grammar did not match.
type Metadata struct {
	Stage    Stage    `json:"stage"`
	Line     *int     `json:"line"`
	Severity Severity `json:"severity"`
}

// FixSuggestion is one actionable repair proposed by the LLM.
type FixSuggestion struct {
	Explanation string  `json:"explanation"`
	Before      string  `json:"before"`
	After       string  `json:"after"`
	Confidence  float64 `json:"confidence"`
}

// DiagnosticReport is the structured output of the LLM diagnostician and the
// body of a successful /classify response. Suggestions carries 1 to 3 entries.
type DiagnosticReport struct {
	Severity    Severity        `json:"severity"`
	Stage       Stage           `json:"stage"`
	Complexity  Complexity      `json:"complexity"`
	RootCause   string          `json:"root_cause"`
	Suggestions []FixSuggestion `json:"suggestions"`
}

// ValidStages enumerates the stages the LLM may report.
// StageUnknown is deliberately absent: a report that cannot name a stage is
// rejected and repaired rather than accepted.
func ValidStages() map[Stage]bool {
	return map[Stage]bool{
		StageXMLValidation:  true,
		StageCodeGeneration: true,
		StageIECCompilation: true,
		StageCCompilation:   true,
	}
}

// ValidSeverities enumerates the severities the LLM may report.
func ValidSeverities() map[Severity]bool {
	return map[Severity]bool{
		SeverityBlocking: true,
		SeverityWarning:  true,
		SeverityInfo:     true,
	}
}

// ValidComplexities enumerates the complexities the LLM may report.
func ValidComplexities() map[Complexity]bool {
	return map[Complexity]bool{
		ComplexityTrivial:  true,
		ComplexityModerate: true,
		ComplexityComplex:  true,
	}
}
