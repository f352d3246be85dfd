package store

import (
	"strings"
	"testing"
	"time"

	"gigmate/matching-service/internal/geo"
	"gigmate/matching-service/internal/search"
)

// ── jobPredicates ──────────────────────────────────────────────────────────

func TestJobPredicates_Empty(t *testing.T) {
	where, args := jobPredicates(search.Filters{}, nil)
	if where != "" {
		t.Errorf("empty filters produced WHERE %q", where)
	}
	if len(args) != 0 {
		t.Errorf("empty filters produced %d args", len(args))
	}
}

func TestJobPredicates_BoundBecomesRangePredicates(t *testing.T) {
	bound := geo.BoundFor(geo.NewPoint(51.5074, -0.1278), 10)
	where, args := jobPredicates(search.Filters{}, &bound)

	if !strings.Contains(where, "lat BETWEEN $1 AND $2") {
		t.Errorf("WHERE %q missing lat range predicate", where)
	}
	if !strings.Contains(where, "lng BETWEEN $3 AND $4") {
		t.Errorf("WHERE %q missing lng range predicate", where)
	}
	if len(args) != 4 {
		t.Fatalf("bound produced %d args, want 4", len(args))
	}
	if args[0].(float64) >= args[1].(float64) {
		t.Error("lat range min >= max")
	}
	if args[2].(float64) >= args[3].(float64) {
		t.Error("lng range min >= max")
	}
}

func TestJobPredicates_AllFilters(t *testing.T) {
	payMin, payMax := 10.0, 30.0
	after := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	before := after.AddDate(0, 1, 0)
	f := search.Filters{
		CategoryIDs:  []string{"trades", "plumbing"},
		PayMin:       &payMin,
		PayMax:       &payMax,
		StartsAfter:  &after,
		StartsBefore: &before,
		Keyword:      "boiler",
		Skills:       []string{"gas-safe"},
		Status:       "OPEN",
	}
	where, args := jobPredicates(f, nil)

	for _, fragment := range []string{
		"(category_id = ANY($1) OR subcategory_id = ANY($1))",
		"pay_max >= $2",
		"pay_min <= $3",
		"starts_at >= $4",
		"starts_at <= $5",
		"(title ILIKE $6 OR description ILIKE $6)",
		"skills @> $7",
		"status = $8",
	} {
		if !strings.Contains(where, fragment) {
			t.Errorf("WHERE %q missing %q", where, fragment)
		}
	}
	if !strings.HasPrefix(where, " WHERE ") {
		t.Errorf("WHERE clause %q has wrong prefix", where)
	}
	if strings.Count(where, " AND ") != 7 {
		t.Errorf("WHERE %q should join 8 clauses with AND", where)
	}
	if len(args) != 8 {
		t.Errorf("got %d args, want 8", len(args))
	}
	if args[5] != "%boiler%" {
		t.Errorf("keyword arg = %v, want wrapped in wildcards", args[5])
	}
}

func TestOrderBy(t *testing.T) {
	if got := orderBy(search.SortPay); !strings.HasPrefix(got, "pay_max DESC") {
		t.Errorf("orderBy(pay) = %q", got)
	}
	if got := orderBy(search.SortNewest); !strings.HasPrefix(got, "posted_at DESC") {
		t.Errorf("orderBy(newest) = %q", got)
	}
	// Nearest is paged locally; the store sees the recency key instead.
	if got := orderBy(search.SortKey("")); !strings.HasPrefix(got, "posted_at DESC") {
		t.Errorf("orderBy(zero) = %q", got)
	}
}
