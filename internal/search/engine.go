// Package search contains the proximity search engine: it turns a location
// plus radius and secondary filters into a filtered, optionally
// distance-ordered page of jobs, and matches seekers to a job by each
// seeker's own notification radius.
//
// The engine is transport-agnostic and owns no state: the store and geocoder
// are injected at construction, every call is a pure read.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/paulmach/orb"

	"gigmate/matching-service/internal/geo"
	"gigmate/matching-service/internal/geocode"
	"gigmate/matching-service/internal/model"
)

// SortKey selects the result ordering.
type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortPay     SortKey = "pay"
	SortNearest SortKey = "nearest"
)

// nearestOverFetch is the over-fetch factor for distance-sorted searches.
// The bounding box over-approximates, so some fetched rows are dropped after
// exact filtering; fetching pageSize×3 leaves enough to fill a page.
const nearestOverFetch = 3

const defaultPageSize = 20

// Filters are the secondary predicates applied store-side. Zero values mean
// "not filtered". CategoryIDs is the already-expanded category set (a parent
// category plus its subcategories).
type Filters struct {
	CategoryIDs  []string
	PayMin       *float64
	PayMax       *float64
	StartsAfter  *time.Time
	StartsBefore *time.Time
	Keyword      string
	Skills       []string
	Status       string
}

// Query is one search request.
type Query struct {
	Filters      Filters
	Lat, Lng     *float64 // explicit center, bypasses geocoding when both set
	LocationText string   // postcode/address, geocoded when no explicit center
	RadiusMiles  float64
	Page         int // 1-based
	PageSize     int
	Sort         SortKey
}

// MatchResult pairs a job with its distance from the search center.
// DistanceMiles is nil when the search had no center.
type MatchResult struct {
	Job           model.Job `json:"job"`
	DistanceMiles *float64  `json:"distanceMiles,omitempty"`
}

// Result is one page of matches.
type Result struct {
	Items      []MatchResult `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

// MatchedSeeker pairs a seeker with their distance from a job.
type MatchedSeeker struct {
	Seeker        model.Seeker `json:"seeker"`
	DistanceMiles float64      `json:"distanceMiles"`
}

// Store is the query capability the engine needs from the persistent store.
// The bound, when non-nil, is applied as two independent range predicates
// (lat between, lng between) — no geospatial extension is assumed.
type Store interface {
	FindJobs(ctx context.Context, f Filters, bound *orb.Bound, sortKey SortKey, limit, offset int) ([]model.Job, error)
	CountJobs(ctx context.Context, f Filters, bound *orb.Bound) (int, error)
	FindCandidates(ctx context.Context, categoryID string, excludedIDs []string) ([]model.Seeker, error)
}

// LocationNotResolvableError is the write-path failure for input the
// geocoder cannot resolve. It carries the offending input so callers can
// build a user-facing message.
type LocationNotResolvableError struct {
	Input string
}

func (e *LocationNotResolvableError) Error() string {
	return fmt.Sprintf("location %q could not be resolved", e.Input)
}

// Engine is the proximity search engine.
type Engine struct {
	store    Store
	geocoder geocode.Geocoder
}

// NewEngine returns an Engine using the given store and geocoder. Wrap the
// geocoder with geocode.NewCachedGeocoder to cache resolutions.
func NewEngine(store Store, geocoder geocode.Geocoder) *Engine {
	return &Engine{store: store, geocoder: geocoder}
}

// ResolveCenter produces the search/validation center. Explicit coordinates
// win and bypass geocoding; otherwise locationText is resolved. Returns
// (nil, nil) when no location was supplied at all.
//
// This is the write-time entry point: an unresolvable location is a hard
// *LocationNotResolvableError, because a job cannot be created without
// coordinates. Search-time callers degrade instead (see Search).
func (e *Engine) ResolveCenter(ctx context.Context, lat, lng *float64, locationText string) (*orb.Point, error) {
	if lat != nil && lng != nil {
		p := geo.NewPoint(*lat, *lng)
		return &p, nil
	}
	if locationText == "" {
		return nil, nil
	}

	point, err := e.geocoder.Geocode(ctx, locationText)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			return nil, &LocationNotResolvableError{Input: locationText}
		}
		return nil, fmt.Errorf("geocode %q: %w", locationText, err)
	}
	return &point, nil
}

// Search runs one proximity search. Geocoding failures (unresolvable text,
// timeouts) degrade to an empty result rather than an error: to the end
// user, "no results" and "location didn't exist" look the same.
func (e *Engine) Search(ctx context.Context, q Query) (Result, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	center, ok := e.searchCenter(ctx, q)
	if !ok {
		return emptyResult(page), nil
	}

	// Radius is validated upstream (1–50 miles); a nonsensical value that
	// slips through yields zero matches, not a fault.
	if center != nil && q.RadiusMiles < 0 {
		return emptyResult(page), nil
	}

	if center == nil {
		return e.searchUnlocated(ctx, q, page, pageSize)
	}
	return e.searchAround(ctx, q, *center, page, pageSize)
}

// searchCenter resolves the query's center for search. The second return is
// false when a location was requested but could not be resolved — the
// degrade-to-empty case.
func (e *Engine) searchCenter(ctx context.Context, q Query) (*orb.Point, bool) {
	if q.Lat != nil && q.Lng != nil {
		if *q.Lat < -90 || *q.Lat > 90 || *q.Lng < -180 || *q.Lng > 180 {
			return nil, false
		}
		p := geo.NewPoint(*q.Lat, *q.Lng)
		return &p, true
	}
	if q.LocationText == "" {
		return nil, true
	}

	point, err := e.geocoder.Geocode(ctx, q.LocationText)
	if err != nil {
		if !errors.Is(err, geocode.ErrNotFound) {
			slog.Warn("geocode failed during search, degrading to empty result",
				"location", q.LocationText, "err", err)
		}
		return nil, false
	}
	return &point, true
}

// searchUnlocated is the no-center path: plain store pagination with a full
// store-side count, no distances attached.
func (e *Engine) searchUnlocated(ctx context.Context, q Query, page, pageSize int) (Result, error) {
	sortKey := q.Sort
	if sortKey == SortNearest || sortKey == "" {
		// Nearest is meaningless without a center.
		sortKey = SortNewest
	}

	total, err := e.store.CountJobs(ctx, q.Filters, nil)
	if err != nil {
		return Result{}, fmt.Errorf("count jobs: %w", err)
	}

	jobs, err := e.store.FindJobs(ctx, q.Filters, nil, sortKey, pageSize, (page-1)*pageSize)
	if err != nil {
		return Result{}, fmt.Errorf("find jobs: %w", err)
	}

	items := make([]MatchResult, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, MatchResult{Job: job})
	}
	return paged(items, total, page, pageSize), nil
}

// searchAround is the centered path: bounding-box pre-filter store-side,
// exact haversine in-process, radius drop, and for nearest sort a ×3
// over-fetch re-sorted by true distance.
//
// Total here counts the fetched-and-filtered window, not the whole table:
// pagination metadata for distance-filtered searches can undercount when
// more matches exist beyond the over-fetch window.
func (e *Engine) searchAround(ctx context.Context, q Query, center orb.Point, page, pageSize int) (Result, error) {
	bound := geo.BoundFor(center, q.RadiusMiles)

	nearest := q.Sort == SortNearest
	sortKey := q.Sort
	limit := pageSize
	offset := (page - 1) * pageSize
	if nearest {
		// Cheap secondary order store-side; true distance order is applied
		// after exact filtering. The whole window is fetched at once and
		// paged locally.
		sortKey = SortNewest
		limit = pageSize * nearestOverFetch
		offset = 0
	}

	jobs, err := e.store.FindJobs(ctx, q.Filters, &bound, sortKey, limit, offset)
	if err != nil {
		return Result{}, fmt.Errorf("find jobs: %w", err)
	}

	matched := make([]MatchResult, 0, len(jobs))
	for _, job := range jobs {
		if job.Location == nil {
			continue // box predicate should have excluded these
		}
		d := geo.Haversine(center, *job.Location)
		if d > q.RadiusMiles {
			continue // box over-approximates; the exact filter decides
		}
		dist := d
		matched = append(matched, MatchResult{Job: job, DistanceMiles: &dist})
	}

	if nearest {
		// Stable: ties keep the store's secondary (recency) order.
		sort.SliceStable(matched, func(i, j int) bool {
			return *matched[i].DistanceMiles < *matched[j].DistanceMiles
		})
		total := len(matched)
		return paged(pageOf(matched, page, pageSize), total, page, pageSize), nil
	}

	return paged(matched, len(matched), page, pageSize), nil
}

// MatchUsersToJob returns the seekers whose own notification radius covers
// the job's location. Candidates are pre-filtered store-side (has location,
// actively looking, subscribed to the job's category, not excluded); the
// per-seeker radius rules out a shared bounding box, so the exact distance
// runs once per candidate.
func (e *Engine) MatchUsersToJob(ctx context.Context, job model.Job, excludedUserIDs []string) ([]MatchedSeeker, error) {
	if job.Location == nil {
		return nil, nil
	}

	candidates, err := e.store.FindCandidates(ctx, job.CategoryID, excludedUserIDs)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}

	matched := make([]MatchedSeeker, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Location == nil {
			continue
		}
		d := geo.Haversine(*job.Location, *cand.Location)
		if d <= cand.NotificationRadiusMiles {
			matched = append(matched, MatchedSeeker{Seeker: cand, DistanceMiles: d})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].DistanceMiles < matched[j].DistanceMiles
	})
	return matched, nil
}

func pageOf(items []MatchResult, page, pageSize int) []MatchResult {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func paged(items []MatchResult, total, page, pageSize int) Result {
	if items == nil {
		items = []MatchResult{}
	}
	return Result{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}

func emptyResult(page int) Result {
	return Result{Items: []MatchResult{}, Page: page}
}
