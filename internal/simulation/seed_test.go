package simulation

import (
	"testing"

	"github.com/spec-kit/civic-pulse/internal/domain"
	"github.com/spec-kit/civic-pulse/internal/registry"
)

func TestSeedIssues(t *testing.T) {
	reg := registry.New(nil, nil)
	if err := SeedIssues(reg); err != nil {
		t.Fatalf("SeedIssues: %v", err)
	}
	if reg.Len() != 3 {
		t.Fatalf("registry len = %d, want 3", reg.Len())
	}

	for id := int64(1); id <= 3; id++ {
		issue, err := reg.Get(id)
		if err != nil {
			t.Fatalf("Get(%d): %v", id, err)
		}
		if issue.PriorityScore <= 0 {
			t.Errorf("issue %d has no computed score", id)
		}
		if issue.Resolved() {
			t.Errorf("issue %d seeded resolved", id)
		}
	}

	// seed ids never collide with live time-derived ids
	fresh, err := reg.Insert(domain.Issue{Title: "live", Category: domain.CategoryRoad, Severity: 5})
	if err != nil {
		t.Fatalf("Insert after seed: %v", err)
	}
	if fresh.ID <= 3 {
		t.Errorf("live issue got seed-range id %d", fresh.ID)
	}

	if err := SeedIssues(reg); err == nil {
		t.Fatal("re-seeding must fail on duplicate ids")
	}
}
