package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-pulse/internal/classify"
	"github.com/spec-kit/civic-pulse/internal/dedup"
	"github.com/spec-kit/civic-pulse/internal/domain"
	"github.com/spec-kit/civic-pulse/internal/events"
	"github.com/spec-kit/civic-pulse/internal/registry"
	"github.com/spec-kit/civic-pulse/internal/votes"
	apperrors "github.com/spec-kit/civic-pulse/pkg/util/errorutil"
)

const agentLogLimit = 50

// Dependencies bundles collaborators for the issue service.
type Dependencies struct {
	Registry        *registry.Registry
	Classifier      classify.Classifier
	Matcher         dedup.Matcher
	Ledger          votes.Ledger
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	ClassifyTimeout time.Duration
}

// IssueService is the gateway between clients (real or simulated) and the
// registry. It owns the submit workflow: provisional insert first, async
// classification after, so a submission is visible to every subscriber
// during the classification latency window.
type IssueService struct {
	registry        *registry.Registry
	classifier      classify.Classifier
	matcher         dedup.Matcher
	ledger          votes.Ledger
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	classifyTimeout time.Duration

	lifetime context.Context

	logMu    sync.Mutex
	agentLog []events.AgentLogEntry
	logSeq   int64
}

// NewIssueService constructs the service.
func NewIssueService(deps Dependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.ClassifyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IssueService{
		registry:        deps.Registry,
		classifier:      deps.Classifier,
		matcher:         deps.Matcher,
		ledger:          deps.Ledger,
		dispatcher:      deps.Dispatcher,
		logger:          logger,
		classifyTimeout: timeout,
		lifetime:        context.Background(),
	}
}

// Start binds the service to the server lifetime. Classifications still
// pending when lifetime ends are abandoned; their provisional entries remain
// in last known state.
func (s *IssueService) Start(lifetime context.Context) {
	s.lifetime = lifetime
}

// SubmitReport validates and registers a citizen (or simulated) report. The
// provisional entry is inserted and broadcast before classification starts;
// enrichment lands asynchronously.
func (s *IssueService) SubmitReport(ctx context.Context, voterID string, raw domain.RawReport) (domain.Issue, error) {
	raw.Title = strings.TrimSpace(raw.Title)
	raw.Location = strings.TrimSpace(raw.Location)
	if raw.Title == "" || raw.Location == "" {
		return domain.Issue{}, apperrors.NewValidationError("title and location required", nil)
	}

	s.log("GATEWAY", "RECEIVED", "New submission: "+raw.Title)

	if merged, ok := s.absorbDuplicate(raw); ok {
		return merged, nil
	}

	ward := raw.Ward
	if ward == "" {
		ward = raw.Location
	}
	provisional := domain.Issue{
		Title:            raw.Title,
		Category:         domain.CategoryAnalyzing,
		Location:         raw.Location,
		Ward:             ward,
		Authority:        "BBMP",
		Status:           domain.StatusPending,
		Severity:         5,
		Votes:            1,
		DuplicateReports: 1,
		SLAHours:         24,
		AIInsight:        "Analyzing...",
		Hashtag:          raw.Hashtag,
		Lat:              raw.Lat,
		Lng:              raw.Lng,
	}
	stored, err := s.registry.Insert(provisional)
	if err != nil {
		return domain.Issue{}, err
	}

	s.logger.Info("report accepted",
		zap.Int64("id", stored.ID),
		zap.String("voter", voterID),
		zap.String("title", stored.Title))

	go s.enrich(stored.ID, raw)
	return stored, nil
}

// Vote applies one vote per (voter, issue) pair. Repeat votes are no-ops.
func (s *IssueService) Vote(ctx context.Context, voterID string, issueID int64) (domain.Issue, error) {
	if s.ledger != nil && !s.ledger.FirstVote(ctx, voterID, issueID) {
		return s.registry.Get(issueID)
	}
	return s.registry.Vote(issueID)
}

// ActionPlan drafts a resolution plan for an issue.
func (s *IssueService) ActionPlan(ctx context.Context, issueID int64) (events.ActionPlanPayload, error) {
	issue, err := s.registry.Get(issueID)
	if err != nil {
		return events.ActionPlanPayload{}, err
	}
	s.log("ADVISOR_AGENT", "THINKING", "Drafting resolution plan for issue")
	plan := classify.ActionPlan(issue)
	s.log("ADVISOR_AGENT", "COMPLETE", "Plan generated")
	return events.ActionPlanPayload{IssueID: issue.ID, Text: plan}, nil
}

// IssueInsight drafts an on-demand advisory for one issue.
func (s *IssueService) IssueInsight(ctx context.Context, issueID int64) (events.IssueInsightPayload, error) {
	issue, err := s.registry.Get(issueID)
	if err != nil {
		return events.IssueInsightPayload{}, err
	}
	s.log("ADVISOR_AGENT", "CONSULTING", "Reviewing history for: "+issue.Title)
	return events.IssueInsightPayload{IssueID: issue.ID, Text: classify.ExplainIssue(issue)}, nil
}

// AnalyzeDraft returns a triage preview for a not-yet-submitted report.
func (s *IssueService) AnalyzeDraft(ctx context.Context, form domain.DraftForm) (domain.DraftAnalysis, error) {
	if strings.TrimSpace(form.Title) == "" {
		return domain.DraftAnalysis{}, apperrors.NewValidationError("title required", nil)
	}
	s.log("ANALYST_AGENT", "CLASSIFYING", "Draft report: "+form.Title)
	return classify.AnalyzeDraft(form), nil
}

// MediaInput describes an evidence attachment request.
type MediaInput struct {
	SourceType string
	URI        string
	Tags       []string
}

// AttachMedia associates a media item with an issue, applying citizen-upload
// trust defaults.
func (s *IssueService) AttachMedia(ctx context.Context, issueID int64, input MediaInput) (domain.Issue, error) {
	if strings.TrimSpace(input.URI) == "" {
		return domain.Issue{}, apperrors.NewValidationError("media uri required", nil)
	}
	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = "image"
	}
	evidence := domain.Evidence{
		ID:             uuid.NewString(),
		SourceType:     sourceType,
		URI:            input.URI,
		Confidence:     1.0,
		Tags:           append(append([]string(nil), input.Tags...), "user_upload"),
		BotProbability: 0,
		Timestamp:      time.Now(),
	}
	return s.registry.AttachEvidence(issueID, evidence)
}

// AgentLogHistory returns a copy of the recent agent pipeline log, newest
// first.
func (s *IssueService) AgentLogHistory() []events.AgentLogEntry {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]events.AgentLogEntry(nil), s.agentLog...)
}

// absorbDuplicate folds the report into an existing open issue when the
// dedup policy matches. Returns the bumped issue.
func (s *IssueService) absorbDuplicate(raw domain.RawReport) (domain.Issue, bool) {
	if s.matcher == nil {
		return domain.Issue{}, false
	}
	for _, existing := range s.registry.List() {
		if !s.matcher.IsDuplicate(raw, existing) {
			continue
		}
		merged, err := s.registry.RegisterDuplicate(existing.ID)
		if err != nil {
			continue
		}
		s.log("DEDUP_AGENT", "MERGED", "Report matched existing issue: "+merged.Title)
		s.notify("Duplicate Report", "Your report was merged into: "+merged.Title, merged.ID)
		return merged, true
	}
	return domain.Issue{}, false
}

// enrich runs classification and applies the result. Failures and timeouts
// degrade to the conservative fallback; server shutdown abandons the run.
func (s *IssueService) enrich(issueID int64, raw domain.RawReport) {
	s.log("TRIAGE_AGENT", "ANALYZING", "Processing report: "+raw.Title)

	enrichment := classify.ClassifyWithFallback(s.lifetime, s.classifier, s.classifyTimeout, raw, s.logger)
	if s.lifetime.Err() != nil {
		// shutting down: leave the provisional entry as-is
		return
	}

	if enrichment.Severity != nil {
		s.log("TRIAGE_AGENT", "DECISION", "Severity rated")
	}
	updated, err := s.registry.ApplyEnrichment(issueID, enrichment)
	if err != nil {
		s.logger.Warn("enrichment not applied", zap.Int64("id", issueID), zap.Error(err))
		return
	}
	s.log("GOV_AGENT", "ROUTING", "Dispatched to "+updated.Authority+" work queue")
	s.notify("New Issue Logged", updated.Title+" ("+string(updated.Status)+")", updated.ID)
}

func (s *IssueService) log(agent, action, details string) {
	s.logMu.Lock()
	s.logSeq++
	entry := events.AgentLogEntry{
		ID:      s.logSeq,
		Time:    time.Now().Format("15:04:05"),
		Agent:   agent,
		Action:  action,
		Details: details,
	}
	s.agentLog = append([]events.AgentLogEntry{entry}, s.agentLog...)
	if len(s.agentLog) > agentLogLimit {
		s.agentLog = s.agentLog[:agentLogLimit]
	}
	s.logMu.Unlock()

	s.publish(events.Event{Type: events.EventAgentLog, Payload: entry})
}

func (s *IssueService) notify(title, message string, issueID int64) {
	s.publish(events.Event{
		Type:    events.EventNotification,
		IssueID: issueID,
		Payload: events.NotificationPayload{Title: title, Message: message},
	})
}

func (s *IssueService) publish(ev events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(context.Background(), ev)
}
