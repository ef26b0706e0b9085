package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
)

// fakeAgent records the Diagnose input and returns a canned report or error.
type fakeAgent struct {
	report     *schema.DiagnosticReport
	err        error
	configured bool
	gotMeta    schema.Metadata
	gotContext string
}

func (f *fakeAgent) Diagnose(_ context.Context, meta schema.Metadata, xmlContext string) (*schema.DiagnosticReport, error) {
	f.gotMeta = meta
	f.gotContext = xmlContext
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func (f *fakeAgent) Configured() bool { return f.configured }

func sampleReport() *schema.DiagnosticReport {
	return &schema.DiagnosticReport{
		Severity:   schema.SeverityBlocking,
		Stage:      schema.StageIECCompilation,
		Complexity: schema.ComplexityTrivial,
		RootCause:  "Assignment to CONSTANT variable.",
		Suggestions: []schema.FixSuggestion{
			{Explanation: "Drop the constant qualifier.", Before: "a := b;", After: "a := b;", Confidence: 0.9},
		},
	}
}

const constantErrorLog = `stdout: Warning: PLC XML file doesn't follow XSD schema at line 61:
"/root/beremiz/matiec/iec2c" -f -l -p
Warning: /tmp/build/plc.st:30-4..30-12: error: Assignment to CONSTANT variables is not allowed.
`

const projectXML = `<project xmlns="http://www.plcopen.org/xml/tc6_0201">
  <types><pous><pou name="program0" pouType="program"><body/></pou></pous></types>
</project>`

func postClassify(t *testing.T, handler http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/classify", &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestClassify_Success(t *testing.T) {
	fa := &fakeAgent{report: sampleReport(), configured: true}
	srv := New(fa, "program0", time.Second)

	rec := postClassify(t, srv.Handler(), map[string]string{
		"log_text":    constantErrorLog,
		"xml_content": projectXML,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var report schema.DiagnosticReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, schema.StageIECCompilation, report.Stage)
	assert.Len(t, report.Suggestions, 1)

	// The deterministic metadata must reach the agent intact.
	assert.Equal(t, schema.StageIECCompilation, fa.gotMeta.Stage)
	require.NotNil(t, fa.gotMeta.Line)
	assert.Equal(t, 30, *fa.gotMeta.Line)
	assert.Equal(t, schema.SeverityBlocking, fa.gotMeta.Severity)
	assert.Contains(t, fa.gotContext, "program0")
}

func TestClassify_MissingFields(t *testing.T) {
	srv := New(&fakeAgent{configured: true}, "program0", time.Second)

	for name, body := range map[string]map[string]string{
		"missing log":  {"xml_content": projectXML},
		"missing xml":  {"log_text": constantErrorLog},
		"empty fields": {"log_text": "", "xml_content": ""},
	} {
		t.Run(name, func(t *testing.T) {
			rec := postClassify(t, srv.Handler(), body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestClassify_InvalidJSONBody(t *testing.T) {
	srv := New(&fakeAgent{configured: true}, "program0", time.Second)
	req := httptest.NewRequest(http.MethodPost, "/classify", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassify_MalformedXMLDegradesGracefully(t *testing.T) {
	fa := &fakeAgent{report: sampleReport(), configured: true}
	srv := New(fa, "program0", time.Second)

	rec := postClassify(t, srv.Handler(), map[string]string{
		"log_text":    constantErrorLog,
		"xml_content": "<project><unclosed>",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, malformedXMLSentinel, fa.gotContext)
}

func TestClassify_AbsentPOUUsesSentinel(t *testing.T) {
	fa := &fakeAgent{report: sampleReport(), configured: true}
	srv := New(fa, "program0", time.Second)

	// The unit name is fixed at program0; a project whose only POU is named
	// differently still classifies, with the not-found sentinel as context.
	xml := `<project xmlns="http://www.plcopen.org/xml/tc6_0201"><types><pous><pou name="other"/></pous></types></project>`
	rec := postClassify(t, srv.Handler(), map[string]string{
		"log_text":    constantErrorLog,
		"xml_content": xml,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Context not found for the specified POU.", fa.gotContext)
}

func TestClassify_LLMFailureIs500(t *testing.T) {
	fa := &fakeAgent{err: fmt.Errorf("backend down"), configured: true}
	srv := New(fa, "program0", time.Second)

	rec := postClassify(t, srv.Handler(), map[string]string{
		"log_text":    constantErrorLog,
		"xml_content": projectXML,
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["detail"], "diagnostic engine")
}

func TestHealth(t *testing.T) {
	srv := New(&fakeAgent{configured: true}, "program0", time.Second)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestHealthDetailed_DegradedWithoutProvider(t *testing.T) {
	srv := New(&fakeAgent{configured: false}, "program0", time.Second)
	req := httptest.NewRequest(http.MethodGet, "/health/detailed", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "failed", body.Components["llm_provider"])
	assert.Equal(t, "operational", body.Components["parser"])
	assert.Equal(t, "operational", body.Components["xml_locator"])
}
