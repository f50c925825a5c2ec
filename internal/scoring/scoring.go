package scoring

import (
	"math"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

// Inputs are the issue attributes the priority score depends on.
type Inputs struct {
	Severity         float64
	Category         domain.Category
	Votes            int
	DuplicateReports int
	SocialMentions   int
	Recurrence       int
}

// Per-category weights. Categories not listed weigh 1.0.
var categoryWeights = map[domain.Category]float64{
	domain.CategoryWater:          1.40,
	domain.CategoryElectricity:    1.35,
	domain.CategorySanitation:     1.30,
	domain.CategoryInfrastructure: 1.25,
	domain.CategoryRoad:           1.20,
}

// Boost ceilings. Each multiplier is clamped individually so the product
// never exceeds its stated cap regardless of input magnitude.
const (
	engagementCap = 1.80
	duplicateCap  = 1.50
	sentimentCap  = 1.60
	recurrenceCap = 1.30
	scaleFactor   = 2.8
)

// Score maps issue attributes to a bounded priority score in [0,100].
// Deterministic, no side effects.
func Score(in Inputs) int {
	weight := categoryWeights[in.Category]
	if weight == 0 {
		weight = 1.0
	}
	engagement := clamp(1+(float64(in.Votes)/500)*0.30, engagementCap)
	duplicates := clamp(1+(float64(in.DuplicateReports)/100)*0.20, duplicateCap)
	sentiment := clamp(1+(float64(in.SocialMentions)/2000)*0.25, sentimentCap)
	recurrence := clamp(1+float64(in.Recurrence)*0.05, recurrenceCap)

	raw := in.Severity * weight * engagement * duplicates * sentiment * recurrence
	score := int(math.Round(raw * scaleFactor))
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// ForIssue scores an issue from its current fields.
func ForIssue(issue domain.Issue) int {
	return Score(Inputs{
		Severity:         issue.Severity,
		Category:         issue.Category,
		Votes:            issue.Votes,
		DuplicateReports: issue.DuplicateReports,
		SocialMentions:   issue.SocialMentions,
		Recurrence:       issue.Recurrence,
	})
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}
