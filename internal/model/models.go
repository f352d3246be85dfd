// Package model defines shared data structures for the matching service.
package model

import (
	"time"

	"github.com/paulmach/orb"
)

// Job is a read-only snapshot of a job posting as the search engine sees it.
// Location is nil for remote-only postings.
type Job struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	CategoryID    string     `json:"categoryId"`
	SubcategoryID string     `json:"subcategoryId,omitempty"`
	Status        string     `json:"status"`
	PayMin        *float64   `json:"payMin,omitempty"`
	PayMax        *float64   `json:"payMax,omitempty"`
	Skills        []string   `json:"skills,omitempty"`
	Location      *orb.Point `json:"location,omitempty"`
	Postcode      string     `json:"postcode,omitempty"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	PostedAt      time.Time  `json:"postedAt"`
	ViewCount     int64      `json:"viewCount"`
}

// Seeker is the candidate side of job matching: a worker profile with its
// own notification radius. NotificationRadiusMiles is per-seeker, so job
// alerts compare each seeker's distance against their own radius, not a
// shared one.
type Seeker struct {
	ID                      string     `json:"id"`
	Location                *orb.Point `json:"location,omitempty"`
	NotificationRadiusMiles float64    `json:"notificationRadiusMiles"`
	ActivelyLooking         bool       `json:"activelyLooking"`
	CategoryIDs             []string   `json:"categoryIds,omitempty"`
}

// Category is a node in the category tree. Children are populated when the
// full tree is fetched.
type Category struct {
	ID       string     `json:"id"`
	ParentID string     `json:"parentId,omitempty"`
	Name     string     `json:"name"`
	Children []Category `json:"children,omitempty"`
}
