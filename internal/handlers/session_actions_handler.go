package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/services"
)

const (
	actionUpdateStatus    = "update_status"
	actionScheduleSession = "schedule_session"
)

// sessionActionRequest is the calendar page payload. It arrives either as a
// form post or as JSON; numbers may be sent quoted.
type sessionActionRequest struct {
	Action        string      `json:"action" form:"action"`
	SessionID     json.Number `json:"session_id" form:"session_id"`
	Status        string      `json:"status" form:"status"`
	Rating        json.Number `json:"rating" form:"rating"`
	Feedback      string      `json:"feedback" form:"feedback"`
	CoachID       json.Number `json:"coach_id" form:"coach_id"`
	TierID        json.Number `json:"tier_id" form:"tier_id"`
	ScheduledTime string      `json:"scheduled_time" form:"scheduled_time"`
}

// HandleAction dispatches the discriminated session action endpoint.
// Responses always carry success and message.
func (h *SessionHandler) HandleAction(c *fiber.Ctx) error {
	role, ok := sessionRole(c)
	if !ok {
		return actionFailure(c, fiber.StatusForbidden, "Forbidden")
	}

	userID, err := parseActorID(c)
	if err != nil {
		return actionFailure(c, fiber.StatusUnauthorized, "Invalid token")
	}

	var req sessionActionRequest
	if err := c.BodyParser(&req); err != nil {
		return actionFailure(c, fiber.StatusBadRequest, "Invalid request body")
	}

	switch strings.TrimSpace(req.Action) {
	case actionUpdateStatus:
		return h.updateStatusAction(c, userID, req)
	case actionScheduleSession:
		if role != models.RoleLearner {
			return actionFailure(c, fiber.StatusForbidden, "Only learners can schedule sessions")
		}
		return h.scheduleSessionAction(c, userID, req)
	default:
		return actionFailure(c, fiber.StatusBadRequest, "Invalid action")
	}
}

func (h *SessionHandler) updateStatusAction(c *fiber.Ctx, userID int64, req sessionActionRequest) error {
	sessionID, present, err := parseNumberField(req.SessionID)
	if err != nil || !present || strings.TrimSpace(req.Status) == "" {
		return actionFailure(c, fiber.StatusBadRequest, "Missing required parameters")
	}

	status, err := models.ParseSessionStatus(req.Status)
	if err != nil {
		return actionFailure(c, fiber.StatusBadRequest, "Invalid status")
	}

	input := services.UpdateStatusInput{Status: status}
	rating, present, err := parseNumberField(req.Rating)
	if err != nil {
		return actionFailure(c, fiber.StatusBadRequest, "Rating must be a whole number between 1 and 5")
	}
	if present {
		value := int(rating)
		input.Rating = &value
	}
	if feedback := strings.TrimSpace(req.Feedback); feedback != "" {
		input.Feedback = &feedback
	}

	result, err := h.service.UpdateStatus(c.Context(), userID, sessionID, input)
	if err != nil {
		status, message := classifyError(c, err)
		return actionFailure(c, status, message)
	}

	return c.JSON(fiber.Map{
		"success":              true,
		"message":              "Session status updated successfully",
		"session":              result.Session,
		"rating":               result.Rating,
		"coach_average_rating": result.CoachAverageRating,
	})
}

func (h *SessionHandler) scheduleSessionAction(c *fiber.Ctx, userID int64, req sessionActionRequest) error {
	coachID, coachPresent, coachErr := parseNumberField(req.CoachID)
	tierID, tierPresent, tierErr := parseNumberField(req.TierID)
	if coachErr != nil || tierErr != nil || !coachPresent || !tierPresent || strings.TrimSpace(req.ScheduledTime) == "" {
		return actionFailure(c, fiber.StatusBadRequest, "Missing required parameters")
	}

	scheduledTime, ok := parseScheduledTime(req.ScheduledTime)
	if !ok {
		return actionFailure(c, fiber.StatusBadRequest, "scheduled_time must be a valid date and time")
	}

	detail, err := h.booking.BookSession(c.Context(), userID, services.BookSessionInput{
		CoachID:       coachID,
		TierID:        tierID,
		ScheduledTime: scheduledTime,
	})
	if err != nil {
		status, message := classifyError(c, err)
		return actionFailure(c, status, message)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Session scheduled successfully",
		"session": detail,
	})
}

func actionFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// parseNumberField reports whether the field was sent and, if so, its
// integer value.
func parseNumberField(raw json.Number) (int64, bool, error) {
	value := strings.TrimSpace(raw.String())
	if value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, true, errInvalidNumber
	}
	return parsed, true, nil
}
