package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sozercan/insightbot/apimodels"
	"github.com/sozercan/insightbot/internal/analyzer"
	"github.com/sozercan/insightbot/internal/chart"
	"github.com/sozercan/insightbot/internal/dataset"
	"github.com/sozercan/insightbot/internal/llm"
)

// User facing messages.
const (
	msgEmptyQuestion = "Por favor escribe una pregunta primero."
	msgDataError     = "Error al leer el dataset"
	msgLLMError      = "Error al comunicarse con el modelo"
)

// Error kinds reported by the JSON API.
const (
	kindDataUnavailable = "DataUnavailable"
	kindEmptyQuestion   = "EmptyQuestion"
	kindLLMInvocation   = "LLMInvocationError"
	kindChartRender     = "ChartRenderError"
	kindBadRequest      = "BadRequest"
	kindInternal        = "Internal"
)

type pageData struct {
	Source    string
	LoadError string

	Columns   []string
	Rows      [][]string
	TotalRows int

	Question string
	Warning  string
	Error    string

	Answered  bool
	Answer    *apimodels.AnswerResponse
	ChartHTML string
}

// handleIndex renders the page. A dataset failure stops rendering before the
// question form is shown.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var data pageData
	data.Source = s.loader.Source()

	table, err := s.loader.Load(r.Context())
	if err != nil {
		data.LoadError = fmt.Sprintf("%s: %v", msgDataError, err)
		s.renderPage(w, http.StatusServiceUnavailable, data)
		return
	}

	preview := table.Head(s.previewRows)
	data.Columns = preview.Columns()
	data.Rows = preview.Rows()
	data.TotalRows = table.Len()

	if r.Method == http.MethodPost {
		s.answerForm(r, table, &data)
	}

	s.renderPage(w, http.StatusOK, data)
}

func (s *Server) answerForm(r *http.Request, table *dataset.Table, data *pageData) {
	data.Question = r.FormValue("question")
	if strings.TrimSpace(data.Question) == "" {
		data.Warning = msgEmptyQuestion
		return
	}

	result, err := s.analyzer.Ask(r.Context(), table, apimodels.AskRequest{Question: data.Question})
	if err != nil {
		data.Error = fmt.Sprintf("%s: %v", msgLLMError, err)
		return
	}

	data.Answered = true
	data.Answer = result
	data.Warning = result.Warning

	if result.Chart != nil {
		var buf bytes.Buffer
		if err := chart.RenderHTML(&buf, result.Chart); err != nil {
			slog.Warn("Chart rendering failed", "error", err)
			result.ChartStatus = apimodels.ChartFailed
			data.Warning = analyzer.ChartWarning(err)
			return
		}
		data.ChartHTML = buf.String()
	}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		slog.Error("Failed to render page", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")

	table, err := s.loader.Load(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("%s: %v", msgDataError, err), http.StatusBadGateway)
		return
	}

	cfg, err := analyzer.PlanChart(table, question)
	if err != nil {
		http.Error(w, analyzer.ChartWarning(err), http.StatusUnprocessableEntity)
		return
	}
	if cfg == nil {
		http.Error(w, "no chart matches this question", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderHTML(&buf, cfg); err != nil {
		http.Error(w, analyzer.ChartWarning(err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req apimodels.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	defer r.Body.Close()

	slog.Debug("Received ask request", "request", req)

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, kindEmptyQuestion, msgEmptyQuestion)
		return
	}

	table, err := s.loader.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, kindDataUnavailable, fmt.Sprintf("%s: %v", msgDataError, err))
		return
	}

	result, err := s.analyzer.Ask(r.Context(), table, req)
	if err != nil {
		status, kind := classify(err)
		slog.Error("Ask request failed", "error", err, "kind", kind)
		writeError(w, status, kind, err.Error())
		return
	}

	slog.Debug("Ask request completed successfully", "result", result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	table, err := s.loader.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, kindDataUnavailable, fmt.Sprintf("%s: %v", msgDataError, err))
		return
	}

	preview := table.Head(s.previewRows)
	writeJSON(w, http.StatusOK, apimodels.DatasetPreview{
		Source:    s.loader.Source(),
		Columns:   preview.Columns(),
		Rows:      preview.Rows(),
		TotalRows: table.Len(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, analyzer.ErrEmptyQuestion):
		return http.StatusBadRequest, kindEmptyQuestion
	case errors.Is(err, analyzer.ErrInvalidOptions):
		return http.StatusBadRequest, kindBadRequest
	case errors.Is(err, dataset.ErrDataUnavailable):
		return http.StatusServiceUnavailable, kindDataUnavailable
	case errors.Is(err, llm.ErrLLMInvocation):
		return http.StatusBadGateway, kindLLMInvocation
	case errors.Is(err, chart.ErrChartRender):
		return http.StatusUnprocessableEntity, kindChartRender
	default:
		return http.StatusInternalServerError, kindInternal
	}
}

// writeJSON encodes v before touching the response so an encoding failure can
// still be reported with a proper status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(apimodels.ErrorResponse{Error: "failed to encode response", Kind: kindInternal})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, apimodels.ErrorResponse{Error: msg, Kind: kind})
}
