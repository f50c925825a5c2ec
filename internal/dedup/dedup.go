package dedup

import (
	"math"
	"strings"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

// Matcher decides whether a candidate submission reports an already-tracked
// issue. Matched submissions bump the existing issue's duplicate counter
// instead of inserting a new record.
type Matcher interface {
	IsDuplicate(candidate domain.RawReport, existing domain.Issue) bool
}

// SubstringMatcher matches on shared title tokens within the same category.
// Default policy: simulated and citizen reports carry coarse coordinates at
// best, so text overlap is the more reliable signal.
type SubstringMatcher struct {
	// MinSharedTokens is the number of significant title tokens that must
	// overlap. Defaults to 2.
	MinSharedTokens int
}

func (m SubstringMatcher) IsDuplicate(candidate domain.RawReport, existing domain.Issue) bool {
	if existing.Resolved() {
		return false
	}
	if candidate.Category != "" && existing.Category != "" &&
		candidate.Category != domain.CategoryAnalyzing && existing.Category != domain.CategoryAnalyzing &&
		candidate.Category != existing.Category {
		return false
	}
	minShared := m.MinSharedTokens
	if minShared <= 0 {
		minShared = 2
	}
	return sharedTokens(candidate.Title, existing.Title) >= minShared
}

func sharedTokens(a, b string) int {
	tokens := make(map[string]bool)
	for _, tok := range significantTokens(a) {
		tokens[tok] = true
	}
	shared := 0
	for _, tok := range significantTokens(b) {
		if tokens[tok] {
			shared++
			delete(tokens, tok)
		}
	}
	return shared
}

func significantTokens(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,!?#:;()")
		if len(f) >= 4 {
			out = append(out, f)
		}
	}
	return out
}

const earthRadiusKM = 6371.0

// GeoMatcher matches same-category reports within a distance threshold.
type GeoMatcher struct {
	// ThresholdKM is the maximum great-circle distance. Defaults to 0.5 km.
	ThresholdKM float64
}

func (m GeoMatcher) IsDuplicate(candidate domain.RawReport, existing domain.Issue) bool {
	if existing.Resolved() {
		return false
	}
	if candidate.Category != existing.Category {
		return false
	}
	if candidate.Lat == 0 && candidate.Lng == 0 {
		return false
	}
	if existing.Lat == 0 && existing.Lng == 0 {
		return false
	}
	threshold := m.ThresholdKM
	if threshold <= 0 {
		threshold = 0.5
	}
	return haversineKM(candidate.Lat, candidate.Lng, existing.Lat, existing.Lng) <= threshold
}

func haversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ForStrategy returns the matcher for a configured strategy name. Unknown
// names (including "off") disable deduplication.
func ForStrategy(strategy string, geoThresholdKM float64) Matcher {
	switch strings.ToLower(strategy) {
	case "substring":
		return SubstringMatcher{}
	case "geo":
		return GeoMatcher{ThresholdKM: geoThresholdKM}
	default:
		return nil
	}
}
