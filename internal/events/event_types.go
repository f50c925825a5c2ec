package events

import (
	"time"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSnapshot       EventType = "snapshot"
	EventIssueCreated   EventType = "issue_created"
	EventIssueUpdated   EventType = "issue_updated"
	EventIssueVoted     EventType = "issue_voted"
	EventNotification   EventType = "notification"
	EventAgentLog       EventType = "agent_log"
	EventStatsUpdate    EventType = "stats_update"
	EventSocialPost     EventType = "social_post"
	EventActionPlan     EventType = "action_plan"
	EventReportAnalysis EventType = "report_analysis"
	EventIssueInsight   EventType = "issue_insight"
	EventError          EventType = "error"
)

// Event is a domain event emitted by the registry and services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   int64       `json:"issue_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssuePayload carries a full issue for create/update/vote deltas.
type IssuePayload struct {
	Issue domain.Issue `json:"issue"`
}

// NotificationPayload is an out-of-band alert.
type NotificationPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// AgentLogEntry records one step of the agent pipeline.
type AgentLogEntry struct {
	ID      int64  `json:"id"`
	Time    string `json:"time"`
	Agent   string `json:"agent"`
	Action  string `json:"action"`
	Details string `json:"details"`
}

// SocialPostPayload is one synthetic social feed item.
type SocialPostPayload struct {
	ID        int64  `json:"id"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	Time      string `json:"time"`
}

// ActionPlanPayload is the reply to a request_action_plan message.
type ActionPlanPayload struct {
	IssueID int64  `json:"issueId"`
	Text    string `json:"text"`
}

// IssueInsightPayload is the reply to an ask_issue_insight message.
type IssueInsightPayload struct {
	IssueID int64  `json:"issueId"`
	Text    string `json:"text"`
}

// ReportAnalysisPayload is the reply to a request_classification message.
type ReportAnalysisPayload struct {
	Analysis domain.DraftAnalysis `json:"analysis"`
}

// ErrorPayload is a request-scoped failure reply. It is only ever sent to
// the subscriber whose message failed.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SnapshotPayload is the full state sent to a newly connected subscriber.
type SnapshotPayload struct {
	Issues   []domain.Issue  `json:"issues"`
	AgentLog []AgentLogEntry `json:"agentLog"`
	Stats    interface{}     `json:"stats,omitempty"`
}
