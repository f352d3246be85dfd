package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gigmate/matching-service/internal/cache"
	"gigmate/matching-service/internal/model"
)

const (
	jobCacheTTL      = 10 * time.Minute
	categoryCacheTTL = time.Hour
	viewWindow       = time.Hour
)

func jobKey(id string) string { return "job:" + id }

func viewMarkerKey(job, viewer string) string { return fmt.Sprintf("view:%s:%s", job, viewer) }

func viewCountKey(id string) string { return "job:views:" + id }

const categoryTreeKey = "category:tree"

// ErrNotFound is returned when a job does not exist.
var ErrNotFound = errors.New("job not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Jobs is the job repository: reads go through the cache, and every
// mutation invalidates the entity's cache key inside the same call, so no
// write path can forget to.
type Jobs struct {
	pool  *pgxpool.Pool
	cache *cache.Cache
}

// NewJobs returns a configured Jobs repository.
func NewJobs(pool *pgxpool.Pool, c *cache.Cache) *Jobs {
	return &Jobs{pool: pool, cache: c}
}

// GetJob returns the job by id, read-through cached under job:<id>.
func (r *Jobs) GetJob(ctx context.Context, id string) (model.Job, error) {
	return cache.GetOrSet(ctx, r.cache, jobKey(id), jobCacheTTL,
		func(ctx context.Context) (model.Job, error) {
			return r.fetchJob(ctx, id)
		})
}

func (r *Jobs) fetchJob(ctx context.Context, id string) (model.Job, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns), id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Job{}, ErrNotFound
		}
		return model.Job{}, fmt.Errorf("getJob: %w", err)
	}
	return job, nil
}

// UpdateJobDetails updates the mutable posting fields and returns the new
// row. The cache entry is dropped synchronously, in the same operation.
func (r *Jobs) UpdateJobDetails(ctx context.Context, id, title, description string, payMin, payMax *float64) (model.Job, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE jobs
		 SET title = $1, description = $2, pay_min = $3, pay_max = $4, updated_at = NOW()
		 WHERE id = $5
		 RETURNING %s`, jobColumns),
		title, description, payMin, payMax, id,
	)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Job{}, ErrNotFound
		}
		return model.Job{}, fmt.Errorf("updateJobDetails: %w", err)
	}

	r.cache.Del(ctx, jobKey(id))
	return job, nil
}

// SetJobStatus transitions a posting through its lifecycle. Returns
// ErrNotFound for a missing job and *ValidationError when the lifecycle
// graph rejects the transition.
func (r *Jobs) SetJobStatus(ctx context.Context, id, newStatusStr string) (model.Job, error) {
	newStatus, err := model.ParseJobStatus(newStatusStr)
	if err != nil {
		return model.Job{}, &ValidationError{Msg: err.Error()}
	}

	var currentStr string
	err = r.pool.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1`, id).Scan(&currentStr)
	if err != nil {
		return model.Job{}, ErrNotFound
	}

	current, _ := model.ParseJobStatus(currentStr)
	if !model.IsTransitionAllowed(current, newStatus) {
		return model.Job{}, &ValidationError{
			Msg: fmt.Sprintf("transition %s to %s is not allowed", current, newStatus),
		}
	}

	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE jobs
		 SET status = $1::job_status, updated_at = NOW()
		 WHERE id = $2
		 RETURNING %s`, jobColumns),
		string(newStatus), id,
	)
	job, err := scanJob(row)
	if err != nil {
		return model.Job{}, fmt.Errorf("setJobStatus update: %w", err)
	}

	r.cache.Del(ctx, jobKey(id))
	return job, nil
}

// RecordView counts one view of a job, at most once per (job, viewer) pair
// per hour. The debounce marker is the authority on "already seen": losing
// the cache backend means the view is skipped, not double counted.
func (r *Jobs) RecordView(ctx context.Context, jobID, viewerID string) error {
	won, err := r.cache.MarkIfAbsent(ctx, viewMarkerKey(jobID, viewerID), viewWindow)
	if err != nil || !won {
		return nil
	}

	if _, err := r.pool.Exec(ctx,
		`UPDATE jobs SET view_count = view_count + 1 WHERE id = $1`, jobID); err != nil {
		return fmt.Errorf("recordView: %w", err)
	}

	// Hot counter for trending reads; the jobs row stays authoritative.
	if _, err := r.cache.Increment(ctx, viewCountKey(jobID)); err != nil {
		slog.Warn("view counter increment failed", "jobId", jobID, "err", err)
	}

	r.cache.Del(ctx, jobKey(jobID))
	return nil
}

// Categories is the category repository. The whole tree is hot and cached
// as one entry; renames invalidate the namespace by pattern rather than
// tracking which derived entries mention the category.
type Categories struct {
	pool  *pgxpool.Pool
	cache *cache.Cache
}

// NewCategories returns a configured Categories repository.
func NewCategories(pool *pgxpool.Pool, c *cache.Cache) *Categories {
	return &Categories{pool: pool, cache: c}
}

// GetTree returns the full category tree, cached under category:tree.
func (r *Categories) GetTree(ctx context.Context) ([]model.Category, error) {
	return cache.GetOrSet(ctx, r.cache, categoryTreeKey, categoryCacheTTL,
		func(ctx context.Context) ([]model.Category, error) {
			return r.fetchTree(ctx)
		})
}

func (r *Categories) fetchTree(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, COALESCE(parent_id, ''), name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("fetchTree query: %w", err)
	}
	defer rows.Close()

	var flat []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name); err != nil {
			return nil, fmt.Errorf("fetchTree scan: %w", err)
		}
		flat = append(flat, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return BuildTree(flat), nil
}

// Rename changes a category's display name and invalidates every cached
// entry in the category namespace.
func (r *Categories) Rename(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := r.cache.InvalidatePattern(ctx, "category:*"); err != nil {
		slog.Warn("category cache invalidation incomplete", "categoryId", id, "err", err)
	}
	return nil
}

// SubtreeIDs expands a category to itself plus all descendants, for the
// search engine's category filter.
func SubtreeIDs(tree []model.Category, rootID string) []string {
	var walk func(nodes []model.Category, collecting bool) []string
	walk = func(nodes []model.Category, collecting bool) []string {
		var out []string
		for _, n := range nodes {
			hit := collecting || n.ID == rootID
			if hit {
				out = append(out, n.ID)
			}
			out = append(out, walk(n.Children, hit)...)
		}
		return out
	}
	return walk(tree, false)
}

// BuildTree nests a flat category list by ParentID. Orphans (parent missing
// from the list) surface as roots rather than disappearing.
func BuildTree(flat []model.Category) []model.Category {
	byParent := make(map[string][]model.Category)
	ids := make(map[string]bool, len(flat))
	for _, c := range flat {
		ids[c.ID] = true
	}
	for _, c := range flat {
		parent := c.ParentID
		if parent != "" && !ids[parent] {
			parent = ""
		}
		byParent[parent] = append(byParent[parent], c)
	}

	var attach func(parentID string) []model.Category
	attach = func(parentID string) []model.Category {
		children := byParent[parentID]
		out := make([]model.Category, 0, len(children))
		for _, c := range children {
			c.Children = attach(c.ID)
			out = append(out, c)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return attach("")
}
