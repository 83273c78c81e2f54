package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CoachMarketBack/internal/config"
	"github.com/saeid-a/CoachMarketBack/internal/handlers"
	"github.com/saeid-a/CoachMarketBack/internal/metrics"
	"github.com/saeid-a/CoachMarketBack/internal/middleware"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/saeid-a/CoachMarketBack/internal/repository"
	"github.com/saeid-a/CoachMarketBack/internal/services"
	sessionws "github.com/saeid-a/CoachMarketBack/internal/websocket"
)

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	hub *sessionws.Hub,
	metricsManager *metrics.Manager,
) {
	userRepo := repository.NewUserRepository(db)
	coachRepo := repository.NewCoachRepository(db)
	tierRepo := repository.NewServiceTierRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	uow := services.NewUnitOfWork(db)
	sessionService := services.NewSessionService(uow, sessionRepo, hub, metricsManager)
	bookingService := services.NewBookingService(uow, hub, metricsManager)
	coachService := services.NewCoachService(coachRepo, tierRepo)
	tierService := services.NewServiceTierService(coachRepo, tierRepo)
	matchmakingService := services.NewMatchmakingService(coachRepo, tierRepo)

	authHandler := handlers.NewAuthHandler(db, userRepo, coachRepo, cfg.JWTSecret, cfg.TokenTTL)
	sessionHandler := handlers.NewSessionHandler(bookingService, sessionService)
	coachHandler := handlers.NewCoachHandler(coachService, matchmakingService)
	tierHandler := handlers.NewTierHandler(tierService)
	eventsHandler := handlers.NewEventsHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// The websocket route authenticates from the query string, so it is
	// registered before the bearer-token group.
	api.Use("/v1/ws", eventsHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(eventsHandler.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))
	coachOnly := middleware.RequireRole(models.RoleCoach)

	coaches := authProtected.Group("/coaches")
	coaches.Get("", coachHandler.ListCoaches)
	coaches.Get("/match", coachHandler.MatchCoaches)
	coaches.Put("/profile", coachOnly, coachHandler.UpdateProfile)
	coaches.Post("/tiers", coachOnly, tierHandler.CreateTier)
	coaches.Put("/tiers/:id", coachOnly, tierHandler.UpdateTier)
	coaches.Delete("/tiers/:id", coachOnly, tierHandler.DeleteTier)
	coaches.Get("/:id", coachHandler.GetCoach)
	coaches.Get("/:id/tiers", tierHandler.ListTiers)

	sessions := authProtected.Group("/sessions")
	sessions.Post("", sessionHandler.BookSession)
	sessions.Post("/actions", sessionHandler.HandleAction)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/status", sessionHandler.UpdateStatus)
}
