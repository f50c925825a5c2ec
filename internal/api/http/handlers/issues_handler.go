package handlers

import (
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-pulse/internal/analytics"
	"github.com/spec-kit/civic-pulse/internal/api/dto"
	"github.com/spec-kit/civic-pulse/internal/auth"
	"github.com/spec-kit/civic-pulse/internal/observability"
	"github.com/spec-kit/civic-pulse/internal/registry"
	"github.com/spec-kit/civic-pulse/internal/service"
	apperrors "github.com/spec-kit/civic-pulse/pkg/util/errorutil"
)

// IssuesHandler exposes the issue registry over REST.
type IssuesHandler struct {
	service  *service.IssueService
	registry *registry.Registry
	tracker  *analytics.Tracker
	metrics  *observability.Metrics
	tokens   *auth.TokenManager
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(svc *service.IssueService, reg *registry.Registry, tracker *analytics.Tracker, metrics *observability.Metrics, tokens *auth.TokenManager) *IssuesHandler {
	return &IssuesHandler{service: svc, registry: reg, tracker: tracker, metrics: metrics, tokens: tokens}
}

// List GET /v1/issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	issues := h.registry.List()
	switch c.Query("sort", "score") {
	case "votes":
		sort.SliceStable(issues, func(i, j int) bool { return issues[i].Votes > issues[j].Votes })
	case "recency":
		sort.SliceStable(issues, func(i, j int) bool { return issues[i].CreatedAtMs > issues[j].CreatedAtMs })
	case "score":
		sort.SliceStable(issues, func(i, j int) bool { return issues[i].PriorityScore > issues[j].PriorityScore })
	default:
		return apperrors.NewValidationError("sort must be one of score, votes, recency", nil)
	}
	return c.JSON(fiber.Map{"data": issues})
}

// Get GET /v1/issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}
	issue, err := h.registry.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// Vote POST /v1/issues/:id/vote.
func (h *IssuesHandler) Vote(c *fiber.Ctx) error {
	voterID, err := VoterID(c, h.tokens)
	if err != nil {
		return err
	}
	id, err := issueID(c)
	if err != nil {
		return err
	}
	issue, err := h.service.Vote(c.Context(), voterID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issue})
}

// AttachMedia POST /v1/issues/:id/media.
func (h *IssuesHandler) AttachMedia(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}
	var req dto.AttachMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.AttachMedia(c.Context(), id, service.MediaInput{
		SourceType: req.SourceType,
		URI:        req.URI,
		Tags:       req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": issue})
}

// AnalyzeDraft POST /v1/issues/analyze.
func (h *IssuesHandler) AnalyzeDraft(c *fiber.Ctx) error {
	var req dto.AnalyzeDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	analysis, err := h.service.AnalyzeDraft(c.Context(), req.DraftForm())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": analysis})
}

// Stats GET /v1/stats.
func (h *IssuesHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.tracker.Snapshot(h.registry.List())})
}

// Metrics GET /v1/metrics.
func (h *IssuesHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

func issueID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("issue id must be numeric", nil)
	}
	return id, nil
}
