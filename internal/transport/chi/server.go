// Package chi is the HTTP transport: routing, request decoding and the
// mapping from domain errors to wire errors.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
	domws "github.com/capazme/lexspace/internal/domain/workspace"
	annexswitchuc "github.com/capazme/lexspace/internal/usecase/annexswitch"
	healthuc "github.com/capazme/lexspace/internal/usecase/health"
	searchuc "github.com/capazme/lexspace/internal/usecase/search"
	workspaceuc "github.com/capazme/lexspace/internal/usecase/workspace"
)

// Server holds the HTTP handlers over the use case services.
type Server struct {
	search        *searchuc.Service
	workspace     *workspaceuc.Service
	detector      *annexswitchuc.Detector
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	workspace *workspaceuc.Service,
	detector *annexswitchuc.Detector,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		workspace: workspace,
		detector:  detector,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidSearch, http.StatusBadRequest, CodeInvalidSearch),
		sentinelHandler(domain.ErrMalformedNorma, http.StatusBadRequest, CodeInvalidSearch),
		sentinelHandler(domain.ErrInvalidEnvelope, http.StatusBadRequest, CodeInvalidEnvelope),
		sentinelHandler(domain.ErrTabNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrQuickNormNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrDossierNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrNoPendingSwitch, http.StatusNotFound, CodeNoPendingSwitch),
		sentinelHandler(domain.ErrStaleSearch, http.StatusConflict, CodeStaleSearch),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, CodeBackendUnavailable),
	}
	return s
}

// Router builds the API route tree. Middlewares are attached by the
// caller.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/stream", s.SearchStream)

		r.Post("/norma/resolve", s.ResolveNorma)
		r.Post("/norma/tree", s.FetchTree)
		r.Post("/norma/pdf", s.ExportPDF)

		r.Post("/annex-switch/{id}/confirm", s.ConfirmAnnexSwitch)
		r.Post("/annex-switch/{id}/cancel", s.CancelAnnexSwitch)

		r.Get("/tabs", s.ListTabs)
		r.Get("/tabs/{id}", s.GetTab)
		r.Patch("/tabs/{id}", s.RenameTab)
		r.Delete("/tabs/{id}", s.CloseTab)

		r.Get("/quicknorms", s.ListQuickNorms)
		r.Post("/quicknorms", s.AddQuickNorm)
		r.Post("/quicknorms/{id}/pin", s.TogglePin)
		r.Delete("/quicknorms/{id}", s.DeleteQuickNorm)

		r.Get("/dossiers", s.ListDossiers)
		r.Post("/dossiers", s.CreateDossier)
		r.Get("/dossiers/{id}", s.GetDossier)
		r.Delete("/dossiers/{id}", s.DeleteDossier)
		r.Post("/dossiers/{id}/entries", s.AddDossierEntry)
		r.Delete("/dossiers/{id}/entries", s.RemoveDossierEntry)

		r.Get("/export/{type}", s.Export)
		r.Post("/import", s.Import)
	})

	return r
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var p norma.SearchParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchStream handles POST /api/v1/search/stream. The response is
// newline-delimited JSON, one event per processed line, flushed as
// results arrive.
func (s *Server) SearchStream(w http.ResponseWriter, r *http.Request) {
	var p norma.SearchParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	started := false

	err := s.search.SearchStream(r.Context(), p, func(e searchuc.Event) error {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(e); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		if !started {
			s.handleDomainError(w, err)
			return
		}
		// Headers are gone; the best we can do is a final error line.
		s.logger.Warn("stream aborted", zap.Error(err))
		_ = enc.Encode(searchuc.Event{Type: "error", Error: safeDomainMessage(err)})
	}
}

// ResolveNorma handles POST /api/v1/norma/resolve.
func (s *Server) ResolveNorma(w http.ResponseWriter, r *http.Request) {
	var lookup norma.Lookup
	if err := json.NewDecoder(r.Body).Decode(&lookup); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	refs, err := s.search.Resolve(r.Context(), lookup)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]norma.Ref{"norma_data": refs})
}

// FetchTree handles POST /api/v1/norma/tree.
func (s *Server) FetchTree(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URN      string `json:"urn"`
		Details  bool   `json:"details"`
		Metadata bool   `json:"return_metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	doc, err := s.search.Tree(r.Context(), req.URN, req.Details, req.Metadata)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ExportPDF handles POST /api/v1/norma/pdf.
func (s *Server) ExportPDF(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URN string `json:"urn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	pdf, err := s.search.ExportPDF(r.Context(), req.URN)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// ConfirmAnnexSwitch handles POST /api/v1/annex-switch/{id}/confirm.
func (s *Server) ConfirmAnnexSwitch(w http.ResponseWriter, r *http.Request) {
	decision, err := s.detector.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// CancelAnnexSwitch handles POST /api/v1/annex-switch/{id}/cancel.
func (s *Server) CancelAnnexSwitch(w http.ResponseWriter, r *http.Request) {
	if err := s.detector.Cancel(chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTabs handles GET /api/v1/tabs.
func (s *Server) ListTabs(w http.ResponseWriter, r *http.Request) {
	tabs, err := s.workspace.ListTabs(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domws.Tab{"tabs": tabs})
}

// GetTab handles GET /api/v1/tabs/{id}.
func (s *Server) GetTab(w http.ResponseWriter, r *http.Request) {
	tab, err := s.workspace.GetTab(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

// RenameTab handles PATCH /api/v1/tabs/{id}.
func (s *Server) RenameTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.workspace.RenameTab(r.Context(), chi.URLParam(r, "id"), req.Label); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseTab handles DELETE /api/v1/tabs/{id}.
func (s *Server) CloseTab(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.CloseTab(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListQuickNorms handles GET /api/v1/quicknorms.
func (s *Server) ListQuickNorms(w http.ResponseWriter, r *http.Request) {
	norms, err := s.workspace.ListQuickNorms(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domws.QuickNorm{"quick_norms": norms})
}

// AddQuickNorm handles POST /api/v1/quicknorms.
func (s *Server) AddQuickNorm(w http.ResponseWriter, r *http.Request) {
	var qn domws.QuickNorm
	if err := json.NewDecoder(r.Body).Decode(&qn); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := s.workspace.AddQuickNorm(r.Context(), qn)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// TogglePin handles POST /api/v1/quicknorms/{id}/pin.
func (s *Server) TogglePin(w http.ResponseWriter, r *http.Request) {
	qn, err := s.workspace.TogglePin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qn)
}

// DeleteQuickNorm handles DELETE /api/v1/quicknorms/{id}.
func (s *Server) DeleteQuickNorm(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.DeleteQuickNorm(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDossiers handles GET /api/v1/dossiers.
func (s *Server) ListDossiers(w http.ResponseWriter, r *http.Request) {
	dossiers, err := s.workspace.ListDossiers(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domws.Dossier{"dossiers": dossiers})
}

// CreateDossier handles POST /api/v1/dossiers.
func (s *Server) CreateDossier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	d, err := s.workspace.CreateDossier(r.Context(), req.Name, req.Description)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// GetDossier handles GET /api/v1/dossiers/{id}.
func (s *Server) GetDossier(w http.ResponseWriter, r *http.Request) {
	d, err := s.workspace.GetDossier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDossier handles DELETE /api/v1/dossiers/{id}.
func (s *Server) DeleteDossier(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace.DeleteDossier(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddDossierEntry handles POST /api/v1/dossiers/{id}/entries.
func (s *Server) AddDossierEntry(w http.ResponseWriter, r *http.Request) {
	var entry domws.DossierEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	d, err := s.workspace.AddToDossier(r.Context(), chi.URLParam(r, "id"), entry)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// RemoveDossierEntry handles DELETE /api/v1/dossiers/{id}/entries.
func (s *Server) RemoveDossierEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NormaKey string `json:"norma_key"`
		Article  string `json:"article"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	d, err := s.workspace.RemoveFromDossier(r.Context(), chi.URLParam(r, "id"), req.NormaKey, req.Article)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Export handles GET /api/v1/export/{type}.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	env, err := s.workspace.Export(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// Import handles POST /api/v1/import.
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	var env domws.EnvironmentExport
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.workspace.Import(r.Context(), env); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// safeDomainMessage returns a message safe to expose to clients: the
// full error text for known sentinels, a generic one otherwise.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidSearch,
		domain.ErrMalformedNorma,
		domain.ErrInvalidEnvelope,
		domain.ErrTabNotFound,
		domain.ErrQuickNormNotFound,
		domain.ErrDossierNotFound,
		domain.ErrNoPendingSwitch,
		domain.ErrStaleSearch,
		domain.ErrBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}
