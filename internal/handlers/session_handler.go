package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
	"github.com/saeid-a/CoachMarketBack/internal/services"
)

type sessionBooker interface {
	BookSession(ctx context.Context, learnerID int64, input services.BookSessionInput) (*models.SessionDetail, error)
}

type sessionApplicationService interface {
	ListSessions(ctx context.Context, actorID int64, filter repository.SessionListFilter) ([]models.SessionDetail, error)
	GetSession(ctx context.Context, actorID int64, sessionID int64) (*models.SessionDetail, error)
	UpdateStatus(
		ctx context.Context,
		actorID int64,
		sessionID int64,
		input services.UpdateStatusInput,
	) (*models.TransitionResult, error)
}

type SessionHandler struct {
	booking sessionBooker
	service sessionApplicationService
}

func NewSessionHandler(booking sessionBooker, service sessionApplicationService) *SessionHandler {
	return &SessionHandler{booking: booking, service: service}
}

type bookSessionRequest struct {
	CoachID       int64  `json:"coach_id"`
	TierID        int64  `json:"tier_id"`
	ScheduledTime string `json:"scheduled_time"`
}

type updateSessionStatusRequest struct {
	Status   string  `json:"status"`
	Rating   *int    `json:"rating"`
	Feedback *string `json:"feedback"`
}

// Accepted by the booking form; values without a zone are taken as UTC.
var scheduledTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseScheduledTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range scheduledTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

func sessionRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("role").(string)
	if !ok || (role != models.RoleLearner && role != models.RoleCoach) {
		return "", false
	}
	return role, true
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	role, ok := sessionRole(c)
	if !ok || role != models.RoleLearner {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	scheduledTime, ok := parseScheduledTime(req.ScheduledTime)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_time must be a valid date and time"})
	}

	detail, err := h.booking.BookSession(c.Context(), userID, services.BookSessionInput{
		CoachID:       req.CoachID,
		TierID:        req.TierID,
		ScheduledTime: scheduledTime,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": detail})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	if _, ok := sessionRole(c); !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	sessions, err := h.service.ListSessions(c.Context(), userID, repository.SessionListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	if _, ok := sessionRole(c); !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), userID, sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateStatus(c *fiber.Ctx) error {
	if _, ok := sessionRole(c); !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req updateSessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	status, err := models.ParseSessionStatus(req.Status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
	}

	result, err := h.service.UpdateStatus(c.Context(), userID, sessionID, services.UpdateStatusInput{
		Status:   status,
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(result)
}
