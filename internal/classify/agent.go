package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

// ActionPlan drafts a resolution plan for an issue. Rule-based so the
// dashboard works without API keys.
func ActionPlan(issue domain.Issue) string {
	urgency := "STANDARD RESPONSE"
	if issue.Severity > domain.EscalationSeverityThreshold {
		urgency = "IMMEDIATE MOBILIZATION"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**ACTION PLAN: %s**\n", issue.Title)
	fmt.Fprintf(&b, "1. STRATEGY: %s protocol initiated.\n", urgency)
	fmt.Fprintf(&b, "2. DEPLOYMENT: Dispatch %d unit(s) with %s repair kit.\n", issue.Manpower, issue.Category)
	fmt.Fprintf(&b, "3. COMMUNITY: Notify %d reporting citizens via app push.\n", issue.DuplicateReports)
	fmt.Fprintf(&b, "4. PREVENTIVE: Schedule infrastructure audit for %s sector.", issue.Ward)
	return b.String()
}

// ExplainIssue drafts a short advisory for a single issue on demand.
func ExplainIssue(issue domain.Issue) string {
	return fmt.Sprintf("**AGENT RESPONSE:**\nBased on historical data for %s, this issue typically resolves in 12-18 hours. \n\nRecommendation: Monitor social sentiment.", issue.Category)
}

// AnalyzeDraft produces a triage preview for a report draft, before it is
// submitted. Deterministic rule-based classification.
func AnalyzeDraft(form domain.DraftForm) domain.DraftAnalysis {
	text := strings.ToLower(form.Title + " " + form.Description)
	category := resolveCategory(text, form.Category)

	severity := 5.0
	if strings.Contains(text, "urgent") || strings.Contains(text, "danger") {
		severity = 9.0
	}

	priority := "Medium"
	resolution := "24-48 hours"
	risk := "Inconvenience"
	if severity > 7 {
		priority = "High"
		resolution = "4-6 hours"
		risk = "Public safety risk"
	}

	authority := routeAuthority(category)
	return domain.DraftAnalysis{
		Severity:            severity,
		Category:            category,
		Authority:           authority,
		Priority:            priority,
		CivicScore:          int(math.Min(severity*10, 100)),
		Insight:             fmt.Sprintf("Automated classification based on keywords. Assigned to %s department.", category),
		EstimatedResolution: resolution,
		Manpower:            int(math.Ceil(severity / 2)),
		Hashtag:             fmt.Sprintf("#%sIssue", category),
		IsSpam:              false,
		RiskIfDelayed:       risk,
	}
}
