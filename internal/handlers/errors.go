package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachMarketBack/internal/logger"
	"github.com/saeid-a/CoachMarketBack/internal/services"
	"github.com/sirupsen/logrus"
)

var errInvalidNumber = errors.New("invalid number")

// classifyError maps a service error to an HTTP status and a message safe to
// show to clients. Storage and unknown errors are logged here.
func classifyError(c *fiber.Ctx, err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest, "Invalid request"
	case errors.Is(err, services.ErrInvalidStatus):
		return fiber.StatusBadRequest, "Invalid status"
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, "Forbidden"
	case errors.Is(err, services.ErrSessionNotFound):
		return fiber.StatusNotFound, "Session not found"
	case errors.Is(err, services.ErrCoachNotFound):
		return fiber.StatusNotFound, "Coach not found"
	case errors.Is(err, services.ErrTierNotFound):
		return fiber.StatusNotFound, "Service tier not found"
	case errors.Is(err, services.ErrTierInUse):
		return fiber.StatusConflict, "Service tier is in use by existing bookings"
	case errors.Is(err, services.ErrInvalidStateTransition):
		return fiber.StatusUnprocessableEntity, "Session can no longer be changed"
	default:
		logger.Log.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"method":     c.Method(),
			"path":       c.Path(),
		}).WithError(err).Error("request failed")
		return fiber.StatusInternalServerError, "Failed to process request"
	}
}

func mapServiceError(c *fiber.Ctx, err error) error {
	status, message := classifyError(c, err)
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

func parseActorID(c *fiber.Ctx) (int64, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidNumber
	}
	return id, nil
}
