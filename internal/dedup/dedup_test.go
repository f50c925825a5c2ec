package dedup

import (
	"testing"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

func TestSubstringMatcher(t *testing.T) {
	m := SubstringMatcher{}
	existing := domain.Issue{
		Title:    "Garbage overflow near market street",
		Category: domain.CategorySanitation,
		Status:   domain.StatusAssigned,
	}

	tests := []struct {
		name      string
		candidate domain.RawReport
		want      bool
	}{
		{
			name:      "same problem reworded",
			candidate: domain.RawReport{Title: "Huge garbage pile at market street corner", Category: domain.CategorySanitation},
			want:      true,
		},
		{
			name:      "different category never matches",
			candidate: domain.RawReport{Title: "Garbage overflow near market street", Category: domain.CategoryRoad},
			want:      false,
		},
		{
			name:      "unrelated title",
			candidate: domain.RawReport{Title: "Streetlight flickering all night", Category: domain.CategorySanitation},
			want:      false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.IsDuplicate(tt.candidate, existing); got != tt.want {
				t.Errorf("IsDuplicate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubstringMatcher_IgnoresResolvedIssues(t *testing.T) {
	m := SubstringMatcher{}
	existing := domain.Issue{
		Title:    "Garbage overflow near market street",
		Category: domain.CategorySanitation,
		Status:   domain.StatusResolved,
	}
	candidate := domain.RawReport{Title: "Garbage overflow near market street", Category: domain.CategorySanitation}
	if m.IsDuplicate(candidate, existing) {
		t.Fatal("resolved issues must not absorb new reports")
	}
}

func TestGeoMatcher(t *testing.T) {
	m := GeoMatcher{ThresholdKM: 1.0}
	existing := domain.Issue{
		Title:    "Pothole cluster",
		Category: domain.CategoryRoad,
		Status:   domain.StatusPending,
		Lat:      12.9762,
		Lng:      77.6033,
	}

	near := domain.RawReport{Title: "Road damage", Category: domain.CategoryRoad, Lat: 12.9770, Lng: 77.6040}
	if !m.IsDuplicate(near, existing) {
		t.Error("report ~100m away should match")
	}

	far := domain.RawReport{Title: "Road damage", Category: domain.CategoryRoad, Lat: 13.0500, Lng: 77.7000}
	if m.IsDuplicate(far, existing) {
		t.Error("report ~13km away should not match")
	}

	noCoords := domain.RawReport{Title: "Road damage", Category: domain.CategoryRoad}
	if m.IsDuplicate(noCoords, existing) {
		t.Error("missing coordinates should never match")
	}
}

func TestForStrategy(t *testing.T) {
	if _, ok := ForStrategy("substring", 0).(SubstringMatcher); !ok {
		t.Error("substring strategy")
	}
	if _, ok := ForStrategy("geo", 2).(GeoMatcher); !ok {
		t.Error("geo strategy")
	}
	if ForStrategy("off", 0) != nil {
		t.Error("off strategy must disable dedup")
	}
}
