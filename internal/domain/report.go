package domain

// RawReport is a citizen submission before classification.
type RawReport struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Location    string   `json:"location"`
	Ward        string   `json:"ward"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Hashtag     string   `json:"hashtag"`
}

// Enrichment is the patch produced by classification or triage. Nil fields are
// left untouched on merge; the merged issue is always rescored as a whole.
type Enrichment struct {
	Category        *Category `json:"category,omitempty"`
	Severity        *float64  `json:"severity,omitempty"`
	Authority       *string   `json:"authority,omitempty"`
	Status          *Status   `json:"status,omitempty"`
	AIInsight       *string   `json:"aiInsight,omitempty"`
	Confidence      *float64  `json:"confidence,omitempty"`
	Manpower        *int      `json:"manpower,omitempty"`
	EstimatedHours  *int      `json:"estimatedHours,omitempty"`
	ProgressPercent *int      `json:"progressPercent,omitempty"`
}

// DraftForm is a report draft sent for pre-submission analysis.
type DraftForm struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Location    string   `json:"location"`
}

// DraftAnalysis is the triage preview returned for a draft form.
type DraftAnalysis struct {
	Severity            float64  `json:"severity"`
	Category            Category `json:"category"`
	Authority           string   `json:"authority"`
	Priority            string   `json:"priority"`
	CivicScore          int      `json:"civicScore"`
	Insight             string   `json:"insight"`
	EstimatedResolution string   `json:"estimatedResolution"`
	Manpower            int      `json:"manpower"`
	Hashtag             string   `json:"hashtag"`
	IsSpam              bool     `json:"isSpam"`
	RiskIfDelayed       string   `json:"riskIfDelayed"`
}

// Ptr helpers for building Enrichment patches.
func PtrCategory(c Category) *Category { return &c }
func PtrStatus(s Status) *Status       { return &s }
func PtrFloat(f float64) *float64      { return &f }
func PtrInt(n int) *int                { return &n }
func PtrString(s string) *string       { return &s }
