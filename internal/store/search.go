// Package store implements the persistent-store side of the matching
// service on PostgreSQL via pgx: the query capability the search engine
// consumes, and the cached job/category repositories.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"

	"gigmate/matching-service/internal/geo"
	"gigmate/matching-service/internal/model"
	"gigmate/matching-service/internal/search"
)

const jobColumns = `id, title, description, category_id, COALESCE(subcategory_id, ''),
       status, pay_min, pay_max, skills, lat, lng, COALESCE(postcode, ''),
       starts_at, posted_at, view_count`

// SearchStore implements search.Store on a pgx pool. The bounding box is
// expressed as two independent range predicates on lat and lng — no
// geospatial extension is required.
type SearchStore struct {
	pool *pgxpool.Pool
}

// NewSearchStore returns a SearchStore over pool.
func NewSearchStore(pool *pgxpool.Pool) *SearchStore {
	return &SearchStore{pool: pool}
}

// FindJobs returns one window of jobs matching the filters (and the bound,
// when given), ordered by sortKey.
func (s *SearchStore) FindJobs(ctx context.Context, f search.Filters, bound *orb.Bound, sortKey search.SortKey, limit, offset int) ([]model.Job, error) {
	where, args := jobPredicates(f, bound)
	query := fmt.Sprintf(`SELECT %s FROM jobs%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		jobColumns, where, orderBy(sortKey), len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("findJobs query: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("findJobs scan: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountJobs returns the number of jobs matching the filters and bound.
func (s *SearchStore) CountJobs(ctx context.Context, f search.Filters, bound *orb.Bound) (int, error) {
	where, args := jobPredicates(f, bound)

	var n int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM jobs%s`, where), args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("countJobs: %w", err)
	}
	return n, nil
}

// FindCandidates returns seekers eligible for matching against a job in the
// given category: located, actively looking, subscribed, not excluded.
func (s *SearchStore) FindCandidates(ctx context.Context, categoryID string, excludedIDs []string) ([]model.Seeker, error) {
	if excludedIDs == nil {
		excludedIDs = []string{}
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, lat, lng, notification_radius_miles, actively_looking, category_ids
		 FROM seekers
		 WHERE actively_looking = true
		   AND lat IS NOT NULL AND lng IS NOT NULL
		   AND $1 = ANY(category_ids)
		   AND NOT (id = ANY($2))`,
		categoryID, excludedIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("findCandidates query: %w", err)
	}
	defer rows.Close()

	var seekers []model.Seeker
	for rows.Next() {
		var (
			c        model.Seeker
			lat, lng *float64
		)
		if err := rows.Scan(&c.ID, &lat, &lng, &c.NotificationRadiusMiles, &c.ActivelyLooking, &c.CategoryIDs); err != nil {
			return nil, fmt.Errorf("findCandidates scan: %w", err)
		}
		if lat != nil && lng != nil {
			p := geo.NewPoint(*lat, *lng)
			c.Location = &p
		}
		seekers = append(seekers, c)
	}
	return seekers, rows.Err()
}

// OpenJobsPostedSince returns located OPEN jobs posted after since, oldest
// first. Used by the alert sweep.
func (s *SearchStore) OpenJobsPostedSince(ctx context.Context, since time.Time) ([]model.Job, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM jobs
		 WHERE status = 'OPEN' AND posted_at > $1
		   AND lat IS NOT NULL AND lng IS NOT NULL
		 ORDER BY posted_at`, jobColumns),
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("openJobsPostedSince query: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("openJobsPostedSince scan: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.Job, error) {
	var (
		j        model.Job
		lat, lng *float64
	)
	err := row.Scan(
		&j.ID, &j.Title, &j.Description, &j.CategoryID, &j.SubcategoryID,
		&j.Status, &j.PayMin, &j.PayMax, &j.Skills, &lat, &lng, &j.Postcode,
		&j.StartsAt, &j.PostedAt, &j.ViewCount,
	)
	if err != nil {
		return model.Job{}, err
	}
	if lat != nil && lng != nil {
		p := geo.NewPoint(*lat, *lng)
		j.Location = &p
	}
	return j, nil
}

// jobPredicates builds the WHERE clause for the secondary filters plus the
// optional bounding box. All filtering happens store-side to keep the
// candidate set the engine sees small.
func jobPredicates(f search.Filters, bound *orb.Bound) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) int {
		args = append(args, v)
		return len(args)
	}

	if len(f.CategoryIDs) > 0 {
		n := arg(f.CategoryIDs)
		clauses = append(clauses, fmt.Sprintf("(category_id = ANY($%d) OR subcategory_id = ANY($%d))", n, n))
	}
	if f.PayMin != nil {
		clauses = append(clauses, fmt.Sprintf("pay_max >= $%d", arg(*f.PayMin)))
	}
	if f.PayMax != nil {
		clauses = append(clauses, fmt.Sprintf("pay_min <= $%d", arg(*f.PayMax)))
	}
	if f.StartsAfter != nil {
		clauses = append(clauses, fmt.Sprintf("starts_at >= $%d", arg(*f.StartsAfter)))
	}
	if f.StartsBefore != nil {
		clauses = append(clauses, fmt.Sprintf("starts_at <= $%d", arg(*f.StartsBefore)))
	}
	if f.Keyword != "" {
		n := arg("%" + f.Keyword + "%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if len(f.Skills) > 0 {
		clauses = append(clauses, fmt.Sprintf("skills @> $%d", arg(f.Skills)))
	}
	if f.Status != "" {
		clauses = append(clauses, fmt.Sprintf("status = $%d", arg(f.Status)))
	}
	if bound != nil {
		a, b := arg(bound.Bottom()), arg(bound.Top())
		c, d := arg(bound.Left()), arg(bound.Right())
		clauses = append(clauses, fmt.Sprintf("lat BETWEEN $%d AND $%d", a, b))
		clauses = append(clauses, fmt.Sprintf("lng BETWEEN $%d AND $%d", c, d))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderBy(sortKey search.SortKey) string {
	switch sortKey {
	case search.SortPay:
		return "pay_max DESC NULLS LAST, posted_at DESC, id"
	default:
		return "posted_at DESC, id"
	}
}
