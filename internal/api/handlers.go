// Package api exposes HTTP handlers for the activity memory service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/activitymemory/internal/auth"
	"example.com/activitymemory/internal/domain"
	"example.com/activitymemory/internal/memory"
)

const maxSearchLimit = 50

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/log", h.logActivity)
	mux.HandleFunc("/v1/activities/stats", h.statistics)
	mux.HandleFunc("/v1/queries/search", h.search)
	mux.HandleFunc("/v1/queries/by-exercise/", h.byExercise)
	mux.HandleFunc("/v1/queries/by-date", h.byDateRange)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeActivitiesWrite) {
		return
	}

	var req LogActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	logged, err := h.service.LogMessage(r.Context(), req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := LogActivityResponse{
		ActivityID: logged.ID,
		ParsedData: toParsedView(logged.Activity),
		Message:    "Successfully logged " + domain.NormalizeExercise(logged.Activity.Exercise) + "!",
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeActivitiesWrite) {
		return
	}

	var req CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	logged, err := h.service.LogActivity(r.Context(), req.extracted())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := LogActivityResponse{
		ActivityID: logged.ID,
		ParsedData: toParsedView(logged.Activity),
		Message:    "Successfully logged " + domain.NormalizeExercise(logged.Activity.Exercise) + "!",
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records := h.service.Recent(limit)
	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Total:      len(records),
		Activities: toActivityViews(records),
	})
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}

	stats := h.service.Statistics()
	resp := StatisticsResponse{
		TotalWorkouts:     stats.TotalActivities,
		TotalExercises:    stats.DistinctExercises,
		ExerciseBreakdown: stats.ExerciseCounts,
	}
	if stats.MostFrequent != "" {
		resp.MostFrequentExercise = &stats.MostFrequent
	}
	if stats.LastActivityDate != "" {
		resp.LastWorkoutDate = &stats.LastActivityDate
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	limit := req.Limit
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	threshold := float32(-1)
	if req.SimilarityThreshold != nil {
		threshold = float32(*req.SimilarityThreshold)
	}

	results, err := h.service.Search(r.Context(), req.Query, limit, threshold)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	groups := memory.GroupByDate(results, time.Now())
	views := make([]DateGroupView, 0, len(groups))
	for _, group := range groups {
		views = append(views, DateGroupView{
			Date:            group.Date,
			Activities:      toActivityViews(group.Activities),
			SimilarityScore: group.Score,
		})
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:        req.Query,
		Results:      views,
		TotalResults: len(results),
	})
}

func (h *Handler) byExercise(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/v1/queries/by-exercise/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing exercise name")
		return
	}

	records := h.service.ByExercise(name)
	writeJSON(w, http.StatusOK, ByExerciseResponse{
		Exercise:   name,
		Total:      len(records),
		Activities: toActivityViews(records),
	})
}

func (h *Handler) byDateRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite) {
		return
	}

	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")

	records := h.service.ByDateRange(start, end)
	writeJSON(w, http.StatusOK, ByDateRangeResponse{
		StartDate:  start,
		EndDate:    end,
		Total:      len(records),
		Activities: toActivityViews(records),
	})
}

// requireScope resolves claims from the request context and enforces that at
// least one of the scopes is present.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return false
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmbeddingFailure):
		writeError(w, http.StatusBadGateway, "embedding_failure", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
