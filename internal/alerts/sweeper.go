// Package alerts implements the job-alert sweep: new open postings are
// matched against seekers, and each winning (seeker, job) pair is published
// once to Redis for the notification pipeline to deliver.
package alerts

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"gigmate/matching-service/internal/cache"
	"gigmate/matching-service/internal/model"
	"gigmate/matching-service/internal/search"
)

// MatchChannel is the Redis pub/sub channel match events are published on.
const MatchChannel = "EVENT_JOB_MATCH"

// notifyWindow is the debounce window: a seeker hears about a given job at
// most once per window, across every instance running the sweep.
const notifyWindow = 24 * time.Hour

// Matcher is the slice of the search engine the sweeper needs.
type Matcher interface {
	MatchUsersToJob(ctx context.Context, job model.Job, excludedUserIDs []string) ([]search.MatchedSeeker, error)
}

// JobSource lists the postings a sweep should consider.
type JobSource interface {
	OpenJobsPostedSince(ctx context.Context, since time.Time) ([]model.Job, error)
}

// MatchEvent is the payload published per winning (seeker, job) pair.
type MatchEvent struct {
	Type          string  `json:"type"`
	JobID         string  `json:"jobId"`
	SeekerID      string  `json:"seekerId"`
	DistanceMiles float64 `json:"distanceMiles"`
}

// Sweeper runs the periodic match pass. It keeps only the previous sweep
// time in memory; the at-most-once guarantee comes from the shared cache
// marker, so overlapping instances stay safe.
type Sweeper struct {
	jobs    JobSource
	matcher Matcher
	cache   *cache.Cache
	rdb     *redis.Client
	lastRun time.Time
}

// NewSweeper constructs a Sweeper. The first run looks back lookback into
// the past.
func NewSweeper(jobs JobSource, matcher Matcher, c *cache.Cache, rdb *redis.Client, lookback time.Duration) *Sweeper {
	return &Sweeper{
		jobs:    jobs,
		matcher: matcher,
		cache:   c,
		rdb:     rdb,
		lastRun: time.Now().Add(-lookback),
	}
}

func notifyKey(seekerID, jobID string) string {
	return "notify:" + seekerID + ":" + jobID
}

// Run executes one sweep: every open job posted since the previous run is
// matched, and each debounce-winning pair is published.
func (s *Sweeper) Run(ctx context.Context) error {
	since := s.lastRun
	s.lastRun = time.Now()

	jobs, err := s.jobs.OpenJobsPostedSince(ctx, since)
	if err != nil {
		s.lastRun = since // retry the window next tick
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	var matched, published int
	for _, job := range jobs {
		seekers, err := s.matcher.MatchUsersToJob(ctx, job, nil)
		if err != nil {
			log.Printf("[alerts] Match error for job %s: %v — continuing", job.ID, err)
			continue
		}
		matched += len(seekers)

		for _, m := range seekers {
			won, err := s.cache.MarkIfAbsent(ctx, notifyKey(m.Seeker.ID, job.ID), notifyWindow)
			if err != nil || !won {
				continue
			}

			event, _ := json.Marshal(MatchEvent{
				Type:          MatchChannel,
				JobID:         job.ID,
				SeekerID:      m.Seeker.ID,
				DistanceMiles: m.DistanceMiles,
			})
			if err := s.rdb.Publish(ctx, MatchChannel, event).Err(); err != nil {
				slog.Warn("publish EVENT_JOB_MATCH failed", "jobId", job.ID, "seekerId", m.Seeker.ID, "err", err)
				continue
			}
			published++
		}
	}

	log.Printf("[alerts] Sweep done — jobs=%d matched=%d published=%d", len(jobs), matched, published)
	return nil
}
