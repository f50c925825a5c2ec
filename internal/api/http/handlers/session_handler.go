package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/civic-pulse/internal/api/dto"
	"github.com/spec-kit/civic-pulse/internal/auth"
	apperrors "github.com/spec-kit/civic-pulse/pkg/util/errorutil"
)

// SessionHandler issues anonymous voter sessions. Identity exists only to key
// per-voter vote dedup; there is no account behind it.
type SessionHandler struct {
	tokens *auth.TokenManager
}

// NewSessionHandler constructs handler.
func NewSessionHandler(tokens *auth.TokenManager) *SessionHandler {
	return &SessionHandler{tokens: tokens}
}

// Create POST /v1/session.
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	voterID := uuid.NewString()
	token, expiresAt, err := h.tokens.GenerateToken(voterID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.SessionResponse{
		VoterID:   voterID,
		Token:     token,
		ExpiresAt: expiresAt,
	}})
}

// VoterID resolves the voter identity from the Authorization header or the
// token query parameter.
func VoterID(c *fiber.Ctx, tokens *auth.TokenManager) (string, error) {
	raw := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if raw == "" {
		raw = c.Query("token")
	}
	if raw == "" {
		return "", apperrors.NewUnauthorized("session token required")
	}
	claims, err := tokens.ParseToken(raw)
	if err != nil {
		return "", apperrors.NewUnauthorized("invalid session token")
	}
	return claims.VoterID, nil
}
