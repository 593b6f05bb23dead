package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"codelens/internal/analysis"
	llmclient "codelens/internal/llm/client"
	"codelens/internal/reportstore"
	"codelens/internal/requester"
	"codelens/internal/types"
	"codelens/internal/util/jsonutil"
)

const maxBodyBytes = 32 << 20

// Analyzer is the part of analysis.Service the API needs.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	Get(ctx context.Context, id string) (*analysis.Result, error)
	List(ctx context.Context) ([]string, error)
	Score(r *types.AnalysisReport, tier types.Complexity) types.QualityMetrics
}

type Handler struct {
	svc     Analyzer
	hub     *Hub
	metrics http.Handler
	log     *slog.Logger
}

func NewHandler(svc Analyzer, hub *Hub, metrics http.Handler, logger *slog.Logger) *Handler {
	if hub == nil {
		hub = NewHub(0)
	}
	if metrics == nil {
		metrics = http.NotFoundHandler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, hub: hub, metrics: metrics, log: logger}
}

// Routes builds the mux with CORS applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/analyses", h.handleAnalyze)
	mux.HandleFunc("GET /v1/analyses", h.handleList)
	mux.HandleFunc("GET /v1/analyses/{id}", h.handleGet)
	mux.HandleFunc("POST /v1/score", h.handleScore)
	mux.HandleFunc("GET /v1/events", h.handleEvents)
	mux.Handle("GET /metrics", h.metrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return CORS(mux)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, map[string]apiError{"error": {Code: code, Message: err.Error()}})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type analyzeRequest struct {
	Files        []types.FileRecord `json:"files"`
	Kind         string             `json:"kind"`
	Instructions string             `json:"instructions"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in analyzeRequest
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	for i := range in.Files {
		in.Files[i].Path = strings.TrimPrefix(strings.TrimSpace(in.Files[i].Path), "./")
		if in.Files[i].Size == 0 {
			in.Files[i].Size = len(in.Files[i].Content)
		}
	}
	res, err := h.svc.Analyze(r.Context(), analysis.Request{
		Files:        in.Files,
		Kind:         types.ParseReportKind(in.Kind),
		Instructions: in.Instructions,
	})
	if err != nil {
		status, code := classify(err)
		h.log.Warn("analysis request failed", "status", status, "err", err)
		writeError(w, status, code, err)
		return
	}
	status := http.StatusCreated
	if res.Cached {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func classify(err error) (int, string) {
	var ex *requester.ExhaustedError
	switch {
	case errors.Is(err, analysis.ErrNoFiles):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "canceled"
	case llmclient.IsPermanent(err):
		return http.StatusBadGateway, "model_rejected"
	case errors.As(err, &ex):
		return http.StatusBadGateway, "model_unusable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, reportstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

type scoreRequest struct {
	Tier   string                `json:"tier"`
	Kind   string                `json:"kind"`
	Report *types.AnalysisReport `json:"report"`
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var in scoreRequest
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	if in.Report == nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", errors.New("report is required"))
		return
	}
	if in.Kind != "" || in.Report.Kind == "" {
		in.Report.Kind = types.ParseReportKind(in.Kind)
	}
	writeJSON(w, http.StatusOK, h.svc.Score(in.Report, types.ParseComplexity(in.Tier)))
}
