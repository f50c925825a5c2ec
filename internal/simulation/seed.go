package simulation

import (
	"time"

	"github.com/spec-kit/civic-pulse/internal/domain"
	"github.com/spec-kit/civic-pulse/internal/registry"
)

// SeedIssues loads the showcase issues so the dashboard has content before
// any live or simulated traffic arrives. Scores are computed on insert.
func SeedIssues(reg *registry.Registry) error {
	now := time.Now()
	rows := []domain.Issue{
		{
			ID:               1,
			Title:            "Pipeline burst - road flooding + traffic chaos",
			Category:         domain.CategoryWater,
			Location:         "Whitefield Main Rd",
			Ward:             "Whitefield",
			Votes:            1847,
			Severity:         9.8,
			Status:           domain.StatusCritical,
			ProgressPercent:  20,
			DuplicateReports: 412,
			SocialMentions:   8621,
			Hashtag:          "#WhitefieldFlood",
			Authority:        "BWSSB",
			SLAHours:         2,
			SLAElapsedHours:  0.4,
			CreatedAtMs:      now.Add(-30 * time.Minute).UnixMilli(),
			Recurrence:       3,
			Lat:              12.9698,
			Lng:              77.7500,
			AIInsight:        "CRITICAL: Infrastructure failure. Emergency team required immediately.",
			Trend:            892,
			Manpower:         8,
			EstimatedHours:   6,
		},
		{
			ID:               2,
			Title:            "Massive pothole cluster causing daily accidents",
			Category:         domain.CategoryRoad,
			Location:         "MG Road near Trinity Circle",
			Ward:             "Shivajinagar",
			Votes:            1204,
			Severity:         9.2,
			Status:           domain.StatusInProgress,
			ProgressPercent:  65,
			DuplicateReports: 287,
			SocialMentions:   5341,
			Hashtag:          "#MGRoadPothole",
			Authority:        "BBMP Roads",
			SLAHours:         24,
			SLAElapsedHours:  18,
			CreatedAtMs:      now.Add(-2 * time.Hour).UnixMilli(),
			Recurrence:       7,
			Lat:              12.9762,
			Lng:              77.6033,
			AIInsight:        "High accident probability. Road closure + patching crew needed.",
			Trend:            234,
			Manpower:         6,
			EstimatedHours:   8,
		},
		{
			ID:               3,
			Title:            "Garbage overflow - 4 days uncollected, health risk",
			Category:         domain.CategorySanitation,
			Location:         "Koramangala 5th Block",
			Ward:             "Koramangala",
			Votes:            912,
			Severity:         8.7,
			Status:           domain.StatusAssigned,
			ProgressPercent:  30,
			DuplicateReports: 198,
			SocialMentions:   3876,
			Hashtag:          "#KoraGarbage",
			Authority:        "BBMP SWM",
			SLAHours:         12,
			SLAElapsedHours:  9,
			CreatedAtMs:      now.Add(-5 * time.Hour).UnixMilli(),
			Recurrence:       12,
			Lat:              12.9352,
			Lng:              77.6245,
			AIInsight:        "Disease vector risk elevated. Dual vehicle dispatch needed.",
			Trend:            67,
			Manpower:         4,
			EstimatedHours:   3,
		},
	}
	for _, row := range rows {
		if _, err := reg.Insert(row); err != nil {
			return err
		}
	}
	return nil
}
