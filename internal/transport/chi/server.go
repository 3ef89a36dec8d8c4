// Package chi exposes the catalog over HTTP. Handlers delegate to the
// usecase services and serialize their result types directly; response
// shape is dictated by those contracts.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/staycurrentmd/videolib/internal/catalog/snapshot"
	"github.com/staycurrentmd/videolib/internal/domain"
	"github.com/staycurrentmd/videolib/internal/domain/video"
	healthuc "github.com/staycurrentmd/videolib/internal/usecase/health"
	libraryuc "github.com/staycurrentmd/videolib/internal/usecase/library"
	searchuc "github.com/staycurrentmd/videolib/internal/usecase/search"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeVideoNotFound = "video_not_found"
	CodeSpaceNotFound = "space_not_found"
	CodeInvalidPage   = "invalid_page"
	CodeNoData        = "no_data"
	CodeUnavailable   = "backend_unavailable"
	CodeInternalError = "internal_error"
)

// MetadataReader serves the per-video metadata endpoints. May be nil.
type MetadataReader interface {
	TimestopsForVideo(ctx context.Context, videoID string) ([]video.Timestop, error)
	TranscriptionForVideo(ctx context.Context, videoID string) (video.Transcription, error)
}

// SnapshotSource yields the current catalog snapshot.
type SnapshotSource interface {
	Current() *snapshot.Snapshot
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes catalog requests.
type Server struct {
	search        *searchuc.Service
	library       *libraryuc.Service
	health        *healthuc.Service
	snapshots     SnapshotSource
	metadata      MetadataReader
	adminToken    string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server. metadata may be nil.
func NewServer(
	search *searchuc.Service,
	library *libraryuc.Service,
	health *healthuc.Service,
	snapshots SnapshotSource,
	metadata MetadataReader,
	adminToken string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:     search,
		library:    library,
		health:     health,
		snapshots:  snapshots,
		metadata:   metadata,
		adminToken: adminToken,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrVideoNotFound, http.StatusNotFound, CodeVideoNotFound),
		sentinelHandler(domain.ErrSpaceNotFound, http.StatusNotFound, CodeSpaceNotFound),
		sentinelHandler(domain.ErrInvalidPage, http.StatusBadRequest, CodeInvalidPage),
		sentinelHandler(domain.ErrNoData, http.StatusServiceUnavailable, CodeNoData),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusBadGateway, CodeUnavailable),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/search", s.handleSearch)
	r.Get("/api/spaces", s.handleSpaces)
	r.Get("/api/spaces/{name}/videos", s.handleSpaceVideos)
	r.Get("/api/videos/{id}", s.handleVideo)
	r.Get("/api/videos/{id}/timestops", s.handleTimestops)
	r.Get("/api/videos/{id}/transcription", s.handleTranscription)
	r.With(AdminAuthMiddleware(s.adminToken)).Post("/api/refresh", s.handleRefresh)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
}

// handleSearch handles GET /api/search?search=&page=&per_page=.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := pagingParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPage, err.Error())
		return
	}

	result, err := s.search.Search(r.Context(), r.URL.Query().Get("search"), page, perPage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// spacesResponse is the GET /api/spaces envelope.
type spacesResponse struct {
	Spaces      []spaceSummary `json:"spaces"`
	TotalSpaces int            `json:"total_spaces"`
	TotalVideos int            `json:"total_videos"`
}

type spaceSummary struct {
	Name                   string `json:"name"`
	VideoCount             int    `json:"video_count"`
	VideosWithDescriptions int    `json:"videos_with_descriptions"`
}

// handleSpaces handles GET /api/spaces.
func (s *Server) handleSpaces(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.Current()

	summaries := snap.Spaces().Summaries()
	resp := spacesResponse{
		Spaces:      make([]spaceSummary, len(summaries)),
		TotalSpaces: len(summaries),
		TotalVideos: snap.Len(),
	}
	for i, sum := range summaries {
		resp.Spaces[i] = spaceSummary(sum)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleSpaceVideos handles GET /api/spaces/{name}/videos.
func (s *Server) handleSpaceVideos(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := pagingParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPage, err.Error())
		return
	}

	name := chi.URLParam(r, "name")
	result, err := s.snapshots.Current().Spaces().VideosForSpace(
		name, page, perPage, r.URL.Query().Get("search"),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleVideo handles GET /api/videos/{id}.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	v, err := s.snapshots.Current().VideoByID(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, v)
}

// timestopsResponse is the GET /api/videos/{id}/timestops envelope.
type timestopsResponse struct {
	VideoID   string           `json:"content_id"`
	Timestops []video.Timestop `json:"timestops"`
}

// handleTimestops handles GET /api/videos/{id}/timestops.
func (s *Server) handleTimestops(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.snapshots.Current().VideoByID(id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	stops := []video.Timestop{}
	if s.metadata != nil {
		found, err := s.metadata.TimestopsForVideo(r.Context(), id)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		if found != nil {
			stops = found
		}
	}

	writeJSON(w, http.StatusOK, timestopsResponse{VideoID: id, Timestops: stops})
}

// handleTranscription handles GET /api/videos/{id}/transcription.
func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	if s.metadata == nil {
		writeError(w, http.StatusNotFound, CodeVideoNotFound, domain.ErrVideoNotFound.Error())
		return
	}

	tr, err := s.metadata.TranscriptionForVideo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tr)
}

// refreshResponse is the POST /api/refresh envelope.
type refreshResponse struct {
	Status string `json:"status"`
	Videos int    `json:"videos"`
}

// handleRefresh handles POST /api/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Refresh(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Status: "ok",
		Videos: s.snapshots.Current().Len(),
	})
}

// healthResponse is the GET /healthz envelope.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// pagingParams parses page and per_page query parameters. Absent values
// yield zero, which the services substitute with their defaults.
func pagingParams(r *http.Request) (page, perPage int, err error) {
	page, err = intParam(r, "page")
	if err != nil {
		return 0, 0, err
	}
	perPage, err = intParam(r, "per_page")
	if err != nil {
		return 0, 0, err
	}
	return page, perPage, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrVideoNotFound,
		domain.ErrSpaceNotFound,
		domain.ErrInvalidPage,
		domain.ErrNoData,
		domain.ErrBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
