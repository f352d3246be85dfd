package store_test

import (
	"fmt"
	"testing"

	"gigmate/matching-service/internal/model"
	"gigmate/matching-service/internal/store"
)

func flatCategories() []model.Category {
	return []model.Category{
		{ID: "trades", Name: "Trades"},
		{ID: "plumbing", ParentID: "trades", Name: "Plumbing"},
		{ID: "boilers", ParentID: "plumbing", Name: "Boilers"},
		{ID: "electrics", ParentID: "trades", Name: "Electrics"},
		{ID: "care", Name: "Care"},
	}
}

// ── BuildTree ──────────────────────────────────────────────────────────────

func TestBuildTree_Nesting(t *testing.T) {
	tree := store.BuildTree(flatCategories())

	if len(tree) != 2 {
		t.Fatalf("got %d roots, want 2 (Trades, Care)", len(tree))
	}

	var trades *model.Category
	for i := range tree {
		if tree[i].ID == "trades" {
			trades = &tree[i]
		}
	}
	if trades == nil {
		t.Fatal("trades root missing")
	}
	if len(trades.Children) != 2 {
		t.Fatalf("trades has %d children, want 2", len(trades.Children))
	}
	for _, child := range trades.Children {
		if child.ID == "plumbing" {
			if len(child.Children) != 1 || child.Children[0].ID != "boilers" {
				t.Errorf("plumbing children = %+v, want [boilers]", child.Children)
			}
		}
	}
}

func TestBuildTree_OrphanBecomesRoot(t *testing.T) {
	flat := []model.Category{
		{ID: "a", Name: "A"},
		{ID: "b", ParentID: "deleted-parent", Name: "B"},
	}
	tree := store.BuildTree(flat)
	if len(tree) != 2 {
		t.Errorf("orphan should surface as a root, got %d roots", len(tree))
	}
}

func TestBuildTree_Empty(t *testing.T) {
	if tree := store.BuildTree(nil); len(tree) != 0 {
		t.Errorf("BuildTree(nil) = %v, want empty", tree)
	}
}

// ── SubtreeIDs ─────────────────────────────────────────────────────────────

func TestSubtreeIDs(t *testing.T) {
	tree := store.BuildTree(flatCategories())

	cases := []struct {
		root string
		want string
	}{
		{"trades", "[trades plumbing boilers electrics]"},
		{"plumbing", "[plumbing boilers]"},
		{"boilers", "[boilers]"},
		{"care", "[care]"},
		{"missing", "[]"},
	}
	for _, c := range cases {
		got := store.SubtreeIDs(tree, c.root)
		if fmt.Sprint(got) != c.want {
			t.Errorf("SubtreeIDs(%s) = %v, want %v", c.root, got, c.want)
		}
	}
}
