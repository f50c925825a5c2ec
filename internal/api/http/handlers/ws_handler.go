package handlers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-pulse/internal/api/dto"
	"github.com/spec-kit/civic-pulse/internal/auth"
	"github.com/spec-kit/civic-pulse/internal/broadcast"
	"github.com/spec-kit/civic-pulse/internal/events"
	"github.com/spec-kit/civic-pulse/internal/observability"
	"github.com/spec-kit/civic-pulse/internal/service"
	apperrors "github.com/spec-kit/civic-pulse/pkg/util/errorutil"
)

// inboundMessage is the envelope clients send over the websocket.
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WSHandler bridges websocket clients to the hub and the issue service. Each
// connection gets a hub subscription (snapshot first, deltas after) and a
// reader loop that turns inbound messages into service calls. Replies and
// per-client errors travel through the hub's direct channel so the writer
// goroutine stays the only writer on the connection.
type WSHandler struct {
	hub     *broadcast.Hub
	service *service.IssueService
	tokens  *auth.TokenManager
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewWSHandler constructs handler.
func NewWSHandler(hub *broadcast.Hub, svc *service.IssueService, tokens *auth.TokenManager, metrics *observability.Metrics, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{hub: hub, service: svc, tokens: tokens, metrics: metrics, logger: logger}
}

// Upgrade gates GET /ws. The session token rides the query string because
// browsers cannot set headers on websocket dials.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	voterID, err := VoterID(c, h.tokens)
	if err != nil {
		return err
	}
	c.Locals("voterId", voterID)
	return c.Next()
}

// Serve returns the connection handler for the upgraded socket.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		voterID, _ := conn.Locals("voterId").(string)
		h.handle(conn, voterID)
	})
}

func (h *WSHandler) handle(conn *websocket.Conn, voterID string) {
	sub, ok := h.hub.Attach()
	if !ok {
		// hub already shut down
		_ = conn.Close()
		return
	}
	h.metrics.ClientConnected()
	h.logger.Info("client connected", zap.String("subscriber_id", sub.ID), zap.String("voter", voterID))

	defer func() {
		h.hub.Detach(sub.ID)
		h.metrics.ClientDisconnected()
		_ = conn.Close()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range sub.Events {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		h.dispatch(sub.ID, voterID, msg)
	}
	<-writerDone
}

// dispatch routes one inbound message. A bad message produces an error frame
// for this subscriber only; other connections are never affected.
func (h *WSHandler) dispatch(subID, voterID string, msg inboundMessage) {
	ctx := context.Background()
	var err error

	switch msg.Type {
	case "vote":
		var req struct {
			IssueID int64 `json:"issueId"`
		}
		if err = json.Unmarshal(msg.Payload, &req); err != nil {
			err = apperrors.NewValidationError("invalid vote payload", nil)
			break
		}
		_, err = h.service.Vote(ctx, voterID, req.IssueID)

	case "submit_report":
		var req dto.SubmitReportRequest
		if err = json.Unmarshal(msg.Payload, &req); err != nil {
			err = apperrors.NewValidationError("invalid report payload", nil)
			break
		}
		_, err = h.service.SubmitReport(ctx, voterID, req.RawReport())

	case "request_action_plan":
		var req struct {
			IssueID int64 `json:"issueId"`
		}
		if err = json.Unmarshal(msg.Payload, &req); err != nil {
			err = apperrors.NewValidationError("invalid action plan payload", nil)
			break
		}
		var plan events.ActionPlanPayload
		if plan, err = h.service.ActionPlan(ctx, req.IssueID); err == nil {
			h.hub.SendTo(subID, events.Event{Type: events.EventActionPlan, IssueID: plan.IssueID, Payload: plan})
		}

	case "ask_issue_insight":
		var req struct {
			IssueID int64 `json:"issueId"`
		}
		if err = json.Unmarshal(msg.Payload, &req); err != nil {
			err = apperrors.NewValidationError("invalid insight payload", nil)
			break
		}
		var insight events.IssueInsightPayload
		if insight, err = h.service.IssueInsight(ctx, req.IssueID); err == nil {
			h.hub.SendTo(subID, events.Event{Type: events.EventIssueInsight, IssueID: insight.IssueID, Payload: insight})
		}

	case "request_classification":
		var req dto.AnalyzeDraftRequest
		if err = json.Unmarshal(msg.Payload, &req); err != nil {
			err = apperrors.NewValidationError("invalid draft payload", nil)
			break
		}
		var analysis events.ReportAnalysisPayload
		if analysis.Analysis, err = h.service.AnalyzeDraft(ctx, req.DraftForm()); err == nil {
			h.hub.SendTo(subID, events.Event{Type: events.EventReportAnalysis, Payload: analysis})
		}

	default:
		err = apperrors.NewValidationError("unknown message type: "+strings.TrimSpace(msg.Type), nil)
	}

	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		h.hub.SendTo(subID, events.Event{
			Type:    events.EventError,
			Payload: events.ErrorPayload{Code: domainErr.Code, Message: domainErr.Message},
		})
	}
}
