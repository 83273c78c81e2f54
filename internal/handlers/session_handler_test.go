package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
	"github.com/saeid-a/CoachMarketBack/internal/services"
)

type stubSessionService struct {
	bookResult         *models.SessionDetail
	bookErr            error
	listResult         []models.SessionDetail
	listErr            error
	getResult          *models.SessionDetail
	getErr             error
	updateStatusResult *models.TransitionResult
	updateStatusErr    error
	bookCalls          int
	updateCalls        int
	lastBookInput      services.BookSessionInput
	lastActorID        int64
	lastSessionID      int64
	lastUpdateInput    services.UpdateStatusInput
	lastListFilter     repository.SessionListFilter
}

func (s *stubSessionService) BookSession(_ context.Context, learnerID int64, input services.BookSessionInput) (*models.SessionDetail, error) {
	s.bookCalls++
	s.lastActorID = learnerID
	s.lastBookInput = input
	return s.bookResult, s.bookErr
}

func (s *stubSessionService) ListSessions(_ context.Context, actorID int64, filter repository.SessionListFilter) ([]models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastListFilter = filter
	return s.listResult, s.listErr
}

func (s *stubSessionService) GetSession(_ context.Context, actorID int64, sessionID int64) (*models.SessionDetail, error) {
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	return s.getResult, s.getErr
}

func (s *stubSessionService) UpdateStatus(
	_ context.Context,
	actorID int64,
	sessionID int64,
	input services.UpdateStatusInput,
) (*models.TransitionResult, error) {
	s.updateCalls++
	s.lastActorID = actorID
	s.lastSessionID = sessionID
	s.lastUpdateInput = input
	return s.updateStatusResult, s.updateStatusErr
}

func newSessionTestApp(service *stubSessionService, role string, userID string) *fiber.App {
	handler := NewSessionHandler(service, service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/v1/sessions", handler.BookSession)
	app.Post("/api/v1/sessions/actions", handler.HandleAction)
	app.Get("/api/v1/sessions", handler.ListSessions)
	app.Get("/api/v1/sessions/:id", handler.GetSession)
	app.Put("/api/v1/sessions/:id/status", handler.UpdateStatus)
	return app
}

func jsonRequest(method string, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBookSessionReturnsCreatedSession(t *testing.T) {
	service := &stubSessionService{
		bookResult: &models.SessionDetail{
			Session: models.Session{
				ID:        91,
				LearnerID: 42,
				CoachID:   7,
				TierID:    3,
				Status:    models.SessionStatusScheduled,
			},
			TierName: "Starter",
		},
	}
	app := newSessionTestApp(service, models.RoleLearner, "42")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions", `{
		"coach_id": 7,
		"tier_id": 3,
		"scheduled_time": "2031-03-15T09:00:00Z"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 {
		t.Fatalf("expected actor id 42, got %d", service.lastActorID)
	}
	if service.lastBookInput.CoachID != 7 || service.lastBookInput.TierID != 3 {
		t.Fatalf("unexpected booking input: %+v", service.lastBookInput)
	}
	want := time.Date(2031, 3, 15, 9, 0, 0, 0, time.UTC)
	if !service.lastBookInput.ScheduledTime.Equal(want) {
		t.Fatalf("expected %s, got %s", want, service.lastBookInput.ScheduledTime)
	}
}

func TestBookSessionRejectsCoachRole(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleCoach, "7")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions", `{
		"coach_id": 7,
		"tier_id": 3,
		"scheduled_time": "2031-03-15T09:00:00Z"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.bookCalls != 0 {
		t.Fatalf("booking service must not be called")
	}
}

func TestBookSessionRejectsUnparseableTime(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleLearner, "42")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions", `{
		"coach_id": 7,
		"tier_id": 3,
		"scheduled_time": "next tuesday"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.bookCalls != 0 {
		t.Fatalf("booking service must not be called")
	}
}

func TestBookSessionMapsTierNotFound(t *testing.T) {
	service := &stubSessionService{bookErr: services.ErrTierNotFound}
	app := newSessionTestApp(service, models.RoleLearner, "42")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/sessions", `{
		"coach_id": 7,
		"tier_id": 99,
		"scheduled_time": "2031-03-15 09:00:00"
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListSessionsPassesStatusAndTimeframe(t *testing.T) {
	service := &stubSessionService{
		listResult: []models.SessionDetail{{Session: models.Session{ID: 5, Status: models.SessionStatusCompleted}}},
	}
	app := newSessionTestApp(service, models.RoleCoach, "9")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions?status=completed&timeframe=past", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 9 {
		t.Fatalf("expected actor 9, got %d", service.lastActorID)
	}
	if service.lastListFilter.Status != "completed" || service.lastListFilter.Timeframe != "past" {
		t.Fatalf("unexpected filter: %+v", service.lastListFilter)
	}
}

func TestListSessionsRejectsUnknownTimeframe(t *testing.T) {
	app := newSessionTestApp(&stubSessionService{}, models.RoleLearner, "42")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions?timeframe=yesterday", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetSessionMapsNotFoundAndForbidden(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: services.ErrSessionNotFound, want: http.StatusNotFound},
		{err: services.ErrForbidden, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := newSessionTestApp(&stubSessionService{getErr: tt.err}, models.RoleLearner, "42")

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/999", nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestGetSessionRejectsInvalidID(t *testing.T) {
	app := newSessionTestApp(&stubSessionService{}, models.RoleLearner, "42")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateStatusForwardsRatingAndFeedback(t *testing.T) {
	average := 4.5
	service := &stubSessionService{
		updateStatusResult: &models.TransitionResult{
			Session:            models.SessionDetail{Session: models.Session{ID: 55, Status: models.SessionStatusCompleted}},
			Rating:             &models.Rating{SessionID: 55, RatingValue: 5},
			CoachAverageRating: &average,
		},
	}
	app := newSessionTestApp(service, models.RoleLearner, "42")

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/v1/sessions/55/status",
		`{"status":"complete","rating":5,"feedback":"Great session"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 55 || service.lastActorID != 42 {
		t.Fatalf("unexpected ids: session=%d actor=%d", service.lastSessionID, service.lastActorID)
	}
	input := service.lastUpdateInput
	if input.Status != models.SessionStatusCompleted {
		t.Fatalf("expected completed, got %q", input.Status)
	}
	if input.Rating == nil || *input.Rating != 5 {
		t.Fatalf("expected rating 5, got %v", input.Rating)
	}
	if input.Feedback == nil || *input.Feedback != "Great session" {
		t.Fatalf("expected feedback, got %v", input.Feedback)
	}

	var body models.TransitionResult
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.CoachAverageRating == nil || *body.CoachAverageRating != 4.5 {
		t.Fatalf("expected average 4.5, got %v", body.CoachAverageRating)
	}
}

func TestUpdateStatusRejectsUnknownStatusBeforeService(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleCoach, "7")

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/v1/sessions/55/status", `{"status":"confirmed"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.updateCalls != 0 {
		t.Fatalf("service must not be called")
	}
}

func TestUpdateStatusMapsEngineErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: services.ErrInvalidStateTransition, want: http.StatusUnprocessableEntity},
		{err: services.ErrForbidden, want: http.StatusForbidden},
		{err: services.ErrInvalidStatus, want: http.StatusBadRequest},
		{err: services.ErrInvalidInput, want: http.StatusBadRequest},
		{err: services.ErrSessionNotFound, want: http.StatusNotFound},
		{err: fmt.Errorf("%w: update status: %w", services.ErrStorage, errors.New("connection reset")), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := newSessionTestApp(&stubSessionService{updateStatusErr: tt.err}, models.RoleCoach, "7")

			resp, err := app.Test(jsonRequest(http.MethodPut, "/api/v1/sessions/55/status", `{"status":"scheduled"}`))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestParseScheduledTimeLayouts(t *testing.T) {
	want := time.Date(2031, 3, 15, 9, 30, 0, 0, time.UTC)
	tests := []string{
		"2031-03-15T09:30:00Z",
		"2031-03-15T11:30:00+02:00",
		"2031-03-15T09:30",
		"2031-03-15T09:30:00",
		"2031-03-15 09:30:00",
	}

	for _, raw := range tests {
		got, ok := parseScheduledTime(raw)
		if !ok {
			t.Fatalf("parseScheduledTime(%q) failed", raw)
		}
		if !got.Equal(want) || got.Location() != time.UTC {
			t.Fatalf("parseScheduledTime(%q) = %s", raw, got)
		}
	}

	for _, raw := range []string{"", "15/03/2031", "2031-03-15"} {
		if _, ok := parseScheduledTime(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestMapServiceErrorDefaultsToInternalServerError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapServiceError(c, errors.New("boom"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body["error"] != "Failed to process request" {
		t.Fatalf("internal error text leaked: %q", body["error"])
	}
}

func TestMapServiceErrorReturnsConflictForTierInUse(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapServiceError(c, services.ErrTierInUse)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}
