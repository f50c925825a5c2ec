package domain

import "time"

// Category enumerates civic issue categories. Analyzing and Uncategorized are
// transient values used while classification is pending or has failed.
type Category string

const (
	CategoryRoad           Category = "Road"
	CategoryWater          Category = "Water"
	CategoryElectricity    Category = "Electricity"
	CategorySanitation     Category = "Sanitation"
	CategoryInfrastructure Category = "Infrastructure"
	CategoryFire           Category = "Fire"
	CategoryOther          Category = "Other"
	CategoryAnalyzing      Category = "Analyzing..."
	CategoryUncategorized  Category = "Uncategorized"
)

// Status enumerates issue lifecycle states.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusNeedsReview Status = "Needs Review"
	StatusAssigned    Status = "Assigned"
	StatusInProgress  Status = "In Progress"
	StatusEscalated   Status = "Escalated"
	StatusCritical    Status = "Critical"
	StatusResolved    Status = "Resolved"
)

// statusRank orders statuses for forward-only transitions. Equal ranks are
// lateral moves (e.g. In Progress vs Escalated) and are allowed.
var statusRank = map[Status]int{
	StatusPending:     0,
	StatusNeedsReview: 0,
	StatusAssigned:    1,
	StatusInProgress:  2,
	StatusEscalated:   2,
	StatusCritical:    2,
	StatusResolved:    3,
}

// CanTransition reports whether a status change from old to next is allowed.
// Transitions never move backward; Resolved is terminal.
func CanTransition(old, next Status) bool {
	or, ok := statusRank[old]
	if !ok {
		return true
	}
	nr, ok := statusRank[next]
	if !ok {
		return false
	}
	if old == StatusResolved {
		return next == StatusResolved
	}
	return nr >= or
}

// Severity thresholds governing automatic status promotion.
const (
	CriticalSeverityThreshold   = 9.5
	EscalationSeverityThreshold = 8.0
)

// Evidence is a media item attached to an issue.
type Evidence struct {
	ID              string    `json:"id"`
	SourceType      string    `json:"sourceType"`
	URI             string    `json:"uri"`
	Confidence      float64   `json:"confidence"`
	Tags            []string  `json:"tags"`
	IsSuspectedFake bool      `json:"isSuspectedFake"`
	BotProbability  float64   `json:"botProbability"`
	Timestamp       time.Time `json:"timestamp"`
}

// Issue is the aggregate for a reported civic problem.
type Issue struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Category         Category   `json:"category"`
	Location         string     `json:"location"`
	Ward             string     `json:"ward"`
	Authority        string     `json:"authority"`
	Votes            int        `json:"votes"`
	DuplicateReports int        `json:"duplicateReports"`
	SocialMentions   int        `json:"socialMentions"`
	Trend            int        `json:"trend"`
	Severity         float64    `json:"severity"`
	Status           Status     `json:"status"`
	ProgressPercent  int        `json:"progressPercent"`
	PriorityScore    int        `json:"priorityScore"`
	CreatedAtMs      int64      `json:"createdAtMs"`
	SLAHours         float64    `json:"slaHours"`
	SLAElapsedHours  float64    `json:"slaElapsedHours"`
	Recurrence       int        `json:"recurrence"`
	AIInsight        string     `json:"aiInsight"`
	Confidence       float64    `json:"classificationConfidence"`
	Manpower         int        `json:"manpower"`
	EstimatedHours   int        `json:"estimatedHours"`
	Hashtag          string     `json:"hashtag,omitempty"`
	Lat              float64    `json:"lat,omitempty"`
	Lng              float64    `json:"lng,omitempty"`
	Evidence         []Evidence `json:"evidence,omitempty"`
}

// Clone returns a deep copy safe to hand outside the registry lock.
func (i Issue) Clone() Issue {
	out := i
	if len(i.Evidence) > 0 {
		out.Evidence = make([]Evidence, len(i.Evidence))
		for n, ev := range i.Evidence {
			cp := ev
			if len(ev.Tags) > 0 {
				cp.Tags = append([]string(nil), ev.Tags...)
			}
			out.Evidence[n] = cp
		}
	}
	return out
}

// Resolved reports whether the issue reached its terminal state.
func (i Issue) Resolved() bool {
	return i.Status == StatusResolved
}
