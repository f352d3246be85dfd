package api_test

import (
	"net/url"
	"strings"
	"testing"

	"gigmate/matching-service/internal/api"
	"gigmate/matching-service/internal/search"
)

func parse(t *testing.T, rawQuery string) search.Query {
	t.Helper()
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		t.Fatalf("ParseQuery(%q): %v", rawQuery, err)
	}
	q, err := api.ParseSearchQuery(params)
	if err != nil {
		t.Fatalf("ParseSearchQuery(%q): %v", rawQuery, err)
	}
	return q
}

func parseErr(t *testing.T, rawQuery string) error {
	t.Helper()
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		t.Fatalf("ParseQuery(%q): %v", rawQuery, err)
	}
	_, err = api.ParseSearchQuery(params)
	if err == nil {
		t.Fatalf("ParseSearchQuery(%q) expected error, got nil", rawQuery)
	}
	return err
}

func TestParseSearchQuery_Defaults(t *testing.T) {
	q := parse(t, "")
	if q.RadiusMiles != 10 {
		t.Errorf("default radius = %v, want 10", q.RadiusMiles)
	}
	if q.Filters.Status != "OPEN" {
		t.Errorf("default status = %q, want OPEN", q.Filters.Status)
	}
	if q.Lat != nil || q.Lng != nil {
		t.Error("no coordinates supplied, center should be empty")
	}
}

func TestParseSearchQuery_FullQuery(t *testing.T) {
	q := parse(t, "lat=51.5&lng=-0.12&radius=25&page=2&pageSize=30&sort=nearest"+
		"&keyword=boiler&payMin=15&payMax=40&skills=gas-safe,%20wiring&location=SW1A+1AA"+
		"&startsAfter=2026-09-01T00:00:00Z")

	if q.Lat == nil || *q.Lat != 51.5 || q.Lng == nil || *q.Lng != -0.12 {
		t.Errorf("coords = (%v, %v)", q.Lat, q.Lng)
	}
	if q.RadiusMiles != 25 || q.Page != 2 || q.PageSize != 30 || q.Sort != search.SortNearest {
		t.Errorf("paging = %+v", q)
	}
	if q.Filters.Keyword != "boiler" || *q.Filters.PayMin != 15 || *q.Filters.PayMax != 40 {
		t.Errorf("filters = %+v", q.Filters)
	}
	if len(q.Filters.Skills) != 2 || q.Filters.Skills[1] != "wiring" {
		t.Errorf("skills = %v, want [gas-safe wiring]", q.Filters.Skills)
	}
	if q.Filters.StartsAfter == nil {
		t.Error("startsAfter not parsed")
	}
	if q.LocationText != "SW1A 1AA" {
		t.Errorf("location = %q", q.LocationText)
	}
}

func TestParseSearchQuery_RadiusRange(t *testing.T) {
	for _, bad := range []string{"radius=0.5", "radius=51", "radius=-3", "radius=abc"} {
		err := parseErr(t, "lat=51.5&lng=0&"+bad)
		if bad != "radius=abc" && !strings.Contains(err.Error(), "between 1 and 50") {
			t.Errorf("%s: error = %v, want range message", bad, err)
		}
	}
	// Boundary values pass.
	if q := parse(t, "lat=51.5&lng=0&radius=1"); q.RadiusMiles != 1 {
		t.Error("radius=1 should be accepted")
	}
	if q := parse(t, "lat=51.5&lng=0&radius=50"); q.RadiusMiles != 50 {
		t.Error("radius=50 should be accepted")
	}
}

func TestParseSearchQuery_HalfCoordinatesRejected(t *testing.T) {
	parseErr(t, "lat=51.5")
	parseErr(t, "lng=-0.12")
}

func TestParseSearchQuery_BadPaging(t *testing.T) {
	parseErr(t, "page=0")
	parseErr(t, "page=x")
	parseErr(t, "pageSize=0")
	parseErr(t, "pageSize=101")
}
