// Package parser is the deterministic log-classification core. It decides
// which build stage produced a fatal error, extracts the stage's line number
// using that stage's own line-report grammar, and assembles the result into a
// schema.Metadata.
//
// Build logs are cascading: a single log can carry an XSD warning, a compiler
// error, and an interpreter crash at once. Classification therefore walks a
// fixed priority order over the whole text rather than taking the first
// signature that appears chronologically.
package parser

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
)

// stageRule pairs a stage with its detection pattern. The slice order below
// is the tie-break contract: a crash outranks a compiler error, which
// outranks a schema warning, regardless of where each appears in the text.
type stageRule struct {
	stage   schema.Stage
	pattern *regexp.Regexp
}

var stageRules = []stageRule{
	{schema.StageCodeGeneration, regexp.MustCompile(`(?i)Traceback|AttributeError|Beremiz_cli`)},
	{schema.StageIECCompilation, regexp.MustCompile(`(?i)iec2c|matiec|error:`)},
	{schema.StageXMLValidation, regexp.MustCompile(`(?i)XSD schema`)},
}

// linePatterns maps each stage to its native line-report grammar. Every
// pattern captures the line number as group 1 and is searched over the whole
// log. The XSD validator and the code generator both report "at line N:";
// matiec reports compiler positions as "<file>.st:N".
var linePatterns = map[schema.Stage]*regexp.Regexp{
	schema.StageXMLValidation:  regexp.MustCompile(`at line\s+(\d+):`),
	schema.StageIECCompilation: regexp.MustCompile(`\.st:(\d+)`),
	schema.StageCodeGeneration: regexp.MustCompile(`at line\s+(\d+):`),
}

// Classify returns the build stage responsible for the log's fatal error.
// It evaluates stageRules in priority order and returns the first stage whose
// pattern matches anywhere in the text; if nothing matches it returns
// StageUnknown. Total: every input, including the empty string, yields one of
// the four labels.
func Classify(log string) schema.Stage {
	for _, rule := range stageRules {
		if rule.pattern.MatchString(log) {
			return rule.stage
		}
	}
	return schema.StageUnknown
}

// ExtractLine searches the whole log with the stage's line grammar and
// returns the first captured line number. A nil result is the valid "line
// unknown" outcome: the stage has no grammar (StageUnknown), or the grammar
// did not match. A non-numeric capture means a pattern broke its contract and
// is returned as an error rather than swallowed.
func ExtractLine(log string, stage schema.Stage) (*int, error) {
	pattern, ok := linePatterns[stage]
	if !ok {
		return nil, nil
	}
	m := pattern.FindStringSubmatch(log)
	if m == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("parser: line capture %q for stage %s is not an integer: %w", m[1], stage, err)
	}
	return &n, nil
}

// Assemble runs the full deterministic pipeline over one log: stage, then
// line, then derived severity. Severity is blocking exactly when a stage was
// identified. Pure and idempotent; identical logs produce identical Metadata.
func Assemble(log string) (schema.Metadata, error) {
	stage := Classify(log)
	line, err := ExtractLine(log, stage)
	if err != nil {
		return schema.Metadata{}, err
	}

	severity := schema.SeverityInfo
	if stage != schema.StageUnknown {
		severity = schema.SeverityBlocking
	}

	return schema.Metadata{
		Stage:    stage,
		Line:     line,
		Severity: severity,
	}, nil
}
