package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/services"
)

type coachCatalogService interface {
	ListCoaches(ctx context.Context, page int, limit int) ([]models.CoachWithTiers, int, error)
	GetCoach(ctx context.Context, coachID int64) (*models.CoachWithTiers, error)
	UpdateProfile(ctx context.Context, actorID int64, input services.UpdateCoachProfileInput) (*models.Coach, error)
}

type coachMatchmaker interface {
	GetMatchedCoaches(ctx context.Context, prefs services.MatchPreferences, limit int) ([]models.CoachMatch, error)
}

type CoachHandler struct {
	catalog            coachCatalogService
	matchmakingService coachMatchmaker
}

func NewCoachHandler(catalog coachCatalogService, matchmakingService coachMatchmaker) *CoachHandler {
	return &CoachHandler{
		catalog:            catalog,
		matchmakingService: matchmakingService,
	}
}

type updateCoachProfileRequest struct {
	Expertise    *string `json:"expertise"`
	Availability *string `json:"availability"`
}

func (h *CoachHandler) ListCoaches(c *fiber.Ctx) error {
	page, limit := pageParams(c.Query("page"), c.Query("limit"))

	coaches, total, err := h.catalog.ListCoaches(c.Context(), page, limit)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"coaches":    coaches,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

// MatchCoaches ranks coaches against comma-separated needs and an optional
// budget per session.
func (h *CoachHandler) MatchCoaches(c *fiber.Ctx) error {
	_, limit := pageParams("", c.Query("limit"))

	budget, err := parseNonNegativeFloat(c.Query("budget"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "budget must be a valid non-negative number"})
	}

	coaches, err := h.matchmakingService.GetMatchedCoaches(c.Context(), services.MatchPreferences{
		Needs:  splitList(c.Query("needs")),
		Budget: budget,
	}, limit)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"coaches": coaches})
}

func (h *CoachHandler) GetCoach(c *fiber.Ctx) error {
	coachID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	coach, err := h.catalog.GetCoach(c.Context(), coachID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"coach": coach})
}

func (h *CoachHandler) UpdateProfile(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleCoach {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateCoachProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	coach, err := h.catalog.UpdateProfile(c.Context(), userID, services.UpdateCoachProfileInput{
		Expertise:    req.Expertise,
		Availability: req.Availability,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"coach": coach})
}

func parseNonNegativeFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, errInvalidNumber
	}
	return value, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
