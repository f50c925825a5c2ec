package registry

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-pulse/internal/domain"
	"github.com/spec-kit/civic-pulse/internal/events"
	"github.com/spec-kit/civic-pulse/internal/scoring"
	apperrors "github.com/spec-kit/civic-pulse/pkg/util/errorutil"
)

// Publisher receives a typed event for every registry mutation. It is invoked
// while the registry lock is held, so delivery order always matches apply
// order; implementations must not block.
type Publisher func(events.Event)

// Registry is the single in-memory source of truth for issues. All mutation is
// serialized through its mutex; the priority score is recomputed on every
// change to a scoring input, never set by callers.
type Registry struct {
	mu     sync.Mutex
	issues map[int64]*domain.Issue
	order  []int64
	nextID int64

	publish Publisher
	logger  *zap.Logger
}

// New constructs an empty registry. publish may be nil.
func New(logger *zap.Logger, publish Publisher) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		issues:  make(map[int64]*domain.Issue),
		nextID:  time.Now().UnixMilli(),
		publish: publish,
		logger:  logger,
	}
}

// Insert stores a new issue, assigning an id when absent and computing the
// initial score. Fails with a conflict when the id is already present.
func (r *Registry) Insert(issue domain.Issue) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if issue.ID == 0 {
		issue.ID = r.allocateID()
	} else if issue.ID >= r.nextID {
		r.nextID = issue.ID + 1
	}
	if _, exists := r.issues[issue.ID]; exists {
		return domain.Issue{}, apperrors.NewConflict("issue id already present", map[string]any{"id": issue.ID})
	}

	if issue.Status == "" {
		issue.Status = domain.StatusPending
	}
	if issue.CreatedAtMs == 0 {
		issue.CreatedAtMs = time.Now().UnixMilli()
	}
	if issue.Status == domain.StatusPending && issue.Severity >= domain.CriticalSeverityThreshold {
		issue.Status = domain.StatusCritical
	}
	issue.PriorityScore = scoring.ForIssue(issue)

	stored := issue
	r.issues[issue.ID] = &stored
	r.order = append(r.order, issue.ID)

	r.logger.Debug("issue inserted",
		zap.Int64("id", issue.ID),
		zap.String("category", string(issue.Category)),
		zap.Int("score", issue.PriorityScore))
	r.emit(events.EventIssueCreated, stored)
	return stored.Clone(), nil
}

// Vote increments the vote counter and rescores. Vote dedup is the caller's
// concern; the registry just applies the increment atomically.
func (r *Registry) Vote(id int64) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, err := r.get(id)
	if err != nil {
		return domain.Issue{}, err
	}
	issue.Votes++
	issue.Trend++
	issue.PriorityScore = scoring.ForIssue(*issue)

	r.emit(events.EventIssueVoted, *issue)
	return issue.Clone(), nil
}

// ApplyEnrichment merges a classification/triage patch into the issue.
// Last writer wins per field; the score is always recomputed from the merged
// result. Status only moves forward; a severity at or above the escalation
// threshold promotes any non-terminal issue to Escalated.
func (r *Registry) ApplyEnrichment(id int64, patch domain.Enrichment) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, err := r.get(id)
	if err != nil {
		return domain.Issue{}, err
	}

	if patch.Category != nil {
		issue.Category = *patch.Category
	}
	if patch.Severity != nil {
		issue.Severity = *patch.Severity
	}
	if patch.Authority != nil {
		issue.Authority = *patch.Authority
	}
	if patch.AIInsight != nil {
		issue.AIInsight = *patch.AIInsight
	}
	if patch.Confidence != nil {
		issue.Confidence = *patch.Confidence
	}
	if patch.Manpower != nil {
		issue.Manpower = *patch.Manpower
	}
	if patch.EstimatedHours != nil {
		issue.EstimatedHours = *patch.EstimatedHours
	}
	if patch.ProgressPercent != nil {
		issue.ProgressPercent = clampPercent(*patch.ProgressPercent)
	}
	if patch.Status != nil && domain.CanTransition(issue.Status, *patch.Status) {
		issue.Status = *patch.Status
	}
	if issue.Severity >= domain.EscalationSeverityThreshold && !issue.Resolved() &&
		domain.CanTransition(issue.Status, domain.StatusEscalated) && issue.Status != domain.StatusCritical {
		issue.Status = domain.StatusEscalated
	}
	issue.PriorityScore = scoring.ForIssue(*issue)

	r.logger.Debug("enrichment applied", zap.Int64("id", id), zap.String("status", string(issue.Status)))
	r.emit(events.EventIssueUpdated, *issue)
	return issue.Clone(), nil
}

// UpdateEngagement applies simulated engagement. Negative deltas are ignored;
// vote counts never decrease.
func (r *Registry) UpdateEngagement(id int64, votesDelta, socialDelta int) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, err := r.get(id)
	if err != nil {
		return domain.Issue{}, err
	}
	if votesDelta > 0 {
		issue.Votes += votesDelta
		issue.Trend += votesDelta
	}
	if socialDelta > 0 {
		issue.SocialMentions += socialDelta
	}
	issue.PriorityScore = scoring.ForIssue(*issue)

	r.emit(events.EventIssueUpdated, *issue)
	return issue.Clone(), nil
}

// RegisterDuplicate counts one more report of the same problem and rescores.
func (r *Registry) RegisterDuplicate(id int64) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, err := r.get(id)
	if err != nil {
		return domain.Issue{}, err
	}
	issue.DuplicateReports++
	issue.PriorityScore = scoring.ForIssue(*issue)

	r.emit(events.EventIssueUpdated, *issue)
	return issue.Clone(), nil
}

// AttachEvidence appends a media item to the issue.
func (r *Registry) AttachEvidence(id int64, evidence domain.Evidence) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, err := r.get(id)
	if err != nil {
		return domain.Issue{}, err
	}
	issue.Evidence = append(issue.Evidence, evidence)

	r.emit(events.EventIssueUpdated, *issue)
	return issue.Clone(), nil
}

// SetProgress updates work progress and optionally advances status.
func (r *Registry) SetProgress(id int64, percent int, status domain.Status) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, err := r.get(id)
	if err != nil {
		return domain.Issue{}, err
	}
	if status != "" {
		if !domain.CanTransition(issue.Status, status) {
			return domain.Issue{}, apperrors.NewValidationError("status cannot move backward",
				map[string]any{"from": issue.Status, "to": status})
		}
		issue.Status = status
	}
	issue.ProgressPercent = clampPercent(percent)

	r.emit(events.EventIssueUpdated, *issue)
	return issue.Clone(), nil
}

// Get returns a copy of one issue.
func (r *Registry) Get(id int64) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, err := r.get(id)
	if err != nil {
		return domain.Issue{}, err
	}
	return issue.Clone(), nil
}

// List returns a copy of every issue in insertion order. Consumers sort by
// score/votes/recency themselves.
func (r *Registry) List() []domain.Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Issue, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.issues[id].Clone())
	}
	return out
}

// Len returns the number of tracked issues.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *Registry) get(id int64) (*domain.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return nil, apperrors.NewNotFound("issue", map[string]any{"id": strconv.FormatInt(id, 10)})
	}
	return issue, nil
}

// allocateID hands out strictly increasing time-derived ids, collision-free
// under concurrent insertion.
func (r *Registry) allocateID() int64 {
	now := time.Now().UnixMilli()
	if now > r.nextID {
		r.nextID = now
	}
	id := r.nextID
	r.nextID++
	return id
}

func (r *Registry) emit(eventType events.EventType, issue domain.Issue) {
	if r.publish == nil {
		return
	}
	r.publish(events.Event{
		Type:      eventType,
		IssueID:   issue.ID,
		Timestamp: time.Now(),
		Payload:   events.IssuePayload{Issue: issue.Clone()},
	})
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
