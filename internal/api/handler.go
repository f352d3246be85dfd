// Package api implements the HTTP surface the Gateway calls.
//
// All routes expect an x-user-id header forwarded by the Gateway where a
// viewer identity matters.
//
// Routes:
//
//	GET  /jobs/search            → proximity search with filters
//	GET  /jobs/{id}              → job detail (cached), records a view
//	POST /jobs/{id}/status       → lifecycle transition
//	GET  /categories             → full category tree (cached)
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gigmate/matching-service/internal/model"
	"gigmate/matching-service/internal/search"
	"gigmate/matching-service/internal/store"
)

const (
	minRadiusMiles     = 1
	maxRadiusMiles     = 50
	defaultRadiusMiles = 10
	maxPageSize        = 100
)

// Handler holds shared dependencies.
type Handler struct {
	engine     *search.Engine
	jobs       *store.Jobs
	categories *store.Categories
}

// NewHandler returns a configured Handler.
func NewHandler(engine *search.Engine, jobs *store.Jobs, categories *store.Categories) *Handler {
	return &Handler{engine: engine, jobs: jobs, categories: categories}
}

// RegisterRoutes mounts all matching-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs/search", h.handleSearch)
	mux.HandleFunc("/jobs/", h.handleJobAction)
	mux.HandleFunc("/categories", h.handleCategories)
}

// ─── Search ──────────────────────────────────────────────────────────────────

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q, err := ParseSearchQuery(r.URL.Query())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Category filters arrive as a single id and are expanded to the whole
	// subtree before they reach the engine.
	if category := r.URL.Query().Get("category"); category != "" {
		tree, err := h.categories.GetTree(r.Context())
		if err != nil {
			log.Printf("[api] category tree error: %v", err)
			jsonError(w, "database error", http.StatusInternalServerError)
			return
		}
		q.Filters.CategoryIDs = store.SubtreeIDs(tree, category)
	}

	res, err := h.engine.Search(r.Context(), q)
	if err != nil {
		log.Printf("[api] search error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, res)
}

// ParseSearchQuery translates URL query params into a search.Query,
// enforcing the caller-side validation the engine assumes: radius within
// [1, 50] miles whenever a center is requested.
func ParseSearchQuery(params url.Values) (search.Query, error) {
	q := search.Query{
		LocationText: params.Get("location"),
		RadiusMiles:  defaultRadiusMiles,
		Sort:         search.SortKey(params.Get("sort")),
		Filters: search.Filters{
			Keyword: params.Get("keyword"),
			Status:  params.Get("status"),
		},
	}

	if q.Filters.Status == "" {
		// Only open postings are searchable by default.
		q.Filters.Status = string(model.StatusOpen)
	}

	latStr, lngStr := params.Get("lat"), params.Get("lng")
	if (latStr == "") != (lngStr == "") {
		return search.Query{}, fmt.Errorf("lat and lng must be supplied together")
	}
	if latStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid lat %q", latStr)
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid lng %q", lngStr)
		}
		q.Lat, q.Lng = &lat, &lng
	}

	if s := params.Get("radius"); s != "" {
		radius, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid radius %q", s)
		}
		if radius < minRadiusMiles || radius > maxRadiusMiles {
			return search.Query{}, fmt.Errorf("radius must be between %d and %d miles", minRadiusMiles, maxRadiusMiles)
		}
		q.RadiusMiles = radius
	}

	if s := params.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return search.Query{}, fmt.Errorf("invalid page %q", s)
		}
		q.Page = page
	}
	if s := params.Get("pageSize"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil || size < 1 || size > maxPageSize {
			return search.Query{}, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}
		q.PageSize = size
	}

	if s := params.Get("payMin"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid payMin %q", s)
		}
		q.Filters.PayMin = &v
	}
	if s := params.Get("payMax"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid payMax %q", s)
		}
		q.Filters.PayMax = &v
	}

	if s := params.Get("startsAfter"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid startsAfter %q", s)
		}
		q.Filters.StartsAfter = &t
	}
	if s := params.Get("startsBefore"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return search.Query{}, fmt.Errorf("invalid startsBefore %q", s)
		}
		q.Filters.StartsBefore = &t
	}

	if s := params.Get("skills"); s != "" {
		for _, skill := range strings.Split(s, ",") {
			if skill = strings.TrimSpace(skill); skill != "" {
				q.Filters.Skills = append(q.Filters.Skills, skill)
			}
		}
	}

	return q, nil
}

// ─── Job detail and actions ──────────────────────────────────────────────────

// handleJobAction handles GET /jobs/{id} and POST /jobs/{id}/status.
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.getJob(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "status" && r.Method == http.MethodPost:
		h.setJobStatus(w, r, parts[1])
	default:
		jsonError(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		log.Printf("[api] getJob error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	// Anonymous reads are served without counting.
	if viewerID := r.Header.Get("x-user-id"); viewerID != "" {
		if err := h.jobs.RecordView(r.Context(), jobID, viewerID); err != nil {
			log.Printf("[api] recordView failed for job %s: %v", jobID, err)
		}
	}

	jsonOK(w, job)
}

func (h *Handler) setJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	var body struct {
		NewStatus string `json:"newStatus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewStatus == "" {
		jsonError(w, "body must contain newStatus", http.StatusBadRequest)
		return
	}

	job, err := h.jobs.SetJobStatus(r.Context(), jobID, body.NewStatus)
	if err != nil {
		var invalid *store.ValidationError
		switch {
		case errors.As(err, &invalid):
			jsonError(w, invalid.Msg, http.StatusBadRequest)
		case errors.Is(err, store.ErrNotFound):
			jsonError(w, "job not found", http.StatusNotFound)
		default:
			log.Printf("[api] setJobStatus error: %v", err)
			jsonError(w, "database error", http.StatusInternalServerError)
		}
		return
	}

	jsonOK(w, job)
}

// ─── Categories ──────────────────────────────────────────────────────────────

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tree, err := h.categories.GetTree(r.Context())
	if err != nil {
		log.Printf("[api] categories error: %v", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, tree)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
