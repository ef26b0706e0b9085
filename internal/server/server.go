// Package server implements the HTTP boundary: health checks and the
// synchronous /classify endpoint that runs the deterministic pipeline and the
// LLM diagnostician.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AlyonaCIA/AI-diagnostic/internal/logging"
	"github.com/AlyonaCIA/AI-diagnostic/internal/parser"
	"github.com/AlyonaCIA/AI-diagnostic/internal/plcxml"
	"github.com/AlyonaCIA/AI-diagnostic/internal/schema"
	"github.com/AlyonaCIA/AI-diagnostic/internal/version"
)

// malformedXMLSentinel replaces the POU context when the submitted project
// XML cannot be parsed. Classification proceeds without enrichment.
const malformedXMLSentinel = "Context missing: Malformed project XML."

// Diagnostician is the slice of the agent the server needs.
type Diagnostician interface {
	Diagnose(ctx context.Context, meta schema.Metadata, xmlContext string) (*schema.DiagnosticReport, error)
	Configured() bool
}

// Server holds the handler dependencies.
type Server struct {
	agent    Diagnostician
	unitName string
	timeout  time.Duration
}

// New constructs a Server. unitName is the POU extracted as context for every
// request; timeout bounds each LLM call.
func New(agent Diagnostician, unitName string, timeout time.Duration) *Server {
	return &Server{agent: agent, unitName: unitName, timeout: timeout}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailedHealth)
	mux.HandleFunc("POST /classify", s.handleClassify)
	return requestID(mux)
}

// requestID attaches a UUID to each request for log correlation and echoes it
// in the X-Request-ID response header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

func reqID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// classifyRequest is the /classify payload. Both fields are required.
type classifyRequest struct {
	LogText    string `json:"log_text"`
	XMLContent string `json:"xml_content"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("write response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version.Version,
		"service": version.Service,
	})
}

func (s *Server) handleDetailedHealth(w http.ResponseWriter, r *http.Request) {
	// The parser and locator are pure functions; exercise them on fixed
	// inputs so a broken rule table shows up here rather than on a request.
	parserOK := func() bool {
		meta, err := parser.Assemble("test error")
		return err == nil && meta.Stage != ""
	}()
	locatorOK := func() bool {
		_, err := plcxml.Locate("<project/>", s.unitName)
		return err == nil
	}()
	llmOK := s.agent.Configured()

	status := "healthy"
	if !parserOK || !locatorOK || !llmOK {
		status = "degraded"
	}

	componentStatus := func(ok bool) string {
		if ok {
			return "operational"
		}
		return "failed"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": version.Version,
		"components": map[string]string{
			"parser":       componentStatus(parserOK),
			"xml_locator":  componentStatus(locatorOK),
			"llm_provider": componentStatus(llmOK),
		},
	})
}

// handleClassify runs the three-step pipeline: deterministic metadata
// extraction, POU context enrichment, LLM fix generation.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	log := logging.With("request_id", reqID(r.Context()))

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON payload"})
		return
	}
	if req.LogText == "" || req.XMLContent == "" {
		log.Error("request rejected: missing log_text or xml_content")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Detail: "Payload must include 'log_text' and 'xml_content'.",
		})
		return
	}

	meta, err := parser.Assemble(req.LogText)
	if err != nil {
		// Only reachable through a broken line-pattern contract.
		log.Error("metadata extraction failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal classification error"})
		return
	}
	log.Debug("metadata extracted", "stage", meta.Stage, "line", meta.Line, "severity", meta.Severity)

	// Malformed project XML degrades gracefully: classify from the log alone.
	contextSnippet, err := plcxml.Locate(req.XMLContent, s.unitName)
	if err != nil {
		if !errors.Is(err, plcxml.ErrInvalidProjectFormat) {
			log.Error("context extraction failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal context error"})
			return
		}
		log.Warn("analyzing log without XML context", "error", err)
		contextSnippet = malformedXMLSentinel
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.agent.Diagnose(ctx, meta, contextSnippet)
	if err != nil {
		log.Error("LLM diagnosis failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Detail: "The AI diagnostic engine failed to generate suggestions.",
		})
		return
	}

	log.Info("classification complete", "stage", meta.Stage)
	writeJSON(w, http.StatusOK, report)
}
