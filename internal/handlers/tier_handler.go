package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/services"
)

type tierApplicationService interface {
	ListTiers(ctx context.Context, coachID int64) ([]models.ServiceTier, error)
	CreateTier(ctx context.Context, actorID int64, input services.ServiceTierInput) (*models.ServiceTier, error)
	UpdateTier(
		ctx context.Context,
		actorID int64,
		tierID int64,
		input services.ServiceTierInput,
	) (*models.ServiceTier, error)
	DeleteTier(ctx context.Context, actorID int64, tierID int64) error
}

type TierHandler struct {
	service tierApplicationService
}

func NewTierHandler(service tierApplicationService) *TierHandler {
	return &TierHandler{service: service}
}

type serviceTierRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (r serviceTierRequest) input() services.ServiceTierInput {
	return services.ServiceTierInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
	}
}

func (h *TierHandler) ListTiers(c *fiber.Ctx) error {
	coachID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	tiers, err := h.service.ListTiers(c.Context(), coachID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"tiers": tiers})
}

func (h *TierHandler) CreateTier(c *fiber.Ctx) error {
	userID, ok := coachActor(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req serviceTierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	tier, err := h.service.CreateTier(c.Context(), userID, req.input())
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"tier": tier})
}

func (h *TierHandler) UpdateTier(c *fiber.Ctx) error {
	userID, ok := coachActor(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	tierID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tier id"})
	}

	var req serviceTierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	tier, err := h.service.UpdateTier(c.Context(), userID, tierID, req.input())
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"tier": tier})
}

func (h *TierHandler) DeleteTier(c *fiber.Ctx) error {
	userID, ok := coachActor(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	tierID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tier id"})
	}

	if err := h.service.DeleteTier(c.Context(), userID, tierID); err != nil {
		return mapServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// coachActor returns the caller's user id when the token carries the coach role.
func coachActor(c *fiber.Ctx) (int64, bool) {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleCoach {
		return 0, false
	}
	userID, err := parseActorID(c)
	if err != nil {
		return 0, false
	}
	return userID, true
}
