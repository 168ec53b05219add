package app

import (
	"net/http"

	"gatherly-backend/internal/activity"
	"gatherly-backend/internal/auth"
	"gatherly-backend/internal/config"
	"gatherly-backend/internal/database"
	"gatherly-backend/internal/emails"
	"gatherly-backend/internal/events"
	"gatherly-backend/internal/health"
	"gatherly-backend/internal/invitations"
	"gatherly-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route registration.
func CreateApp(cfg *config.Config) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	// CORS (before session)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	// Session (Redis); need Redis client for health marker too
	sessionHandler, rdb, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, err
	}
	app.Use(sessionHandler)

	// Health request marker (after session)
	app.Use(middleware.HealthMarker(rdb))

	// Tracing + route logger
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	// db may be nil if no DATABASE_URL set (e.g. tests); protected routes stay unmounted
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, errDB
		}
	}

	// --- Routes (no auth) ---
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			healthHandlers.DB = sqlDB
		}
	}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/reset", healthHandlers.Reset)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	var userFinder auth.UserFinder
	if db != nil {
		userFinder = &auth.GormUserFinder{DB: db}
	}
	authHandlers := &auth.Handlers{
		DB:         db,
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/register", authHandlers.Register)
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	// --- Protected modules (auth required) ---
	if db != nil && rdb != nil {
		mail := &emails.BrevoClient{
			APIKey:   cfg.SendinblueAPIKey,
			MailFrom: cfg.MailFrom,
		}

		// Events module
		eventsService := &events.Service{DB: db}
		eventsHandlers := &events.Handlers{Service: eventsService}
		eventsGroup := app.Group("/api/v1/events", middleware.RequireAuth())
		eventsGroup.Post("/create-event", eventsHandlers.CreateEvent)
		eventsGroup.Get("/my-events", eventsHandlers.MyEvents)
		eventsGroup.Get("/view-event/:id", eventsHandlers.ViewEvent)
		eventsGroup.Patch("/update-event/:id", eventsHandlers.UpdateEvent)
		eventsGroup.Post("/generate-invite-code/:id", eventsHandlers.GenerateInviteCode)
		eventsGroup.Post("/join-by-code", eventsHandlers.JoinByCode)
		eventsGroup.Delete("/delete-event/:id", eventsHandlers.DeleteEvent)
		eventsGroup.Post("/delete-events", eventsHandlers.DeleteEvents)

		// Invitations module: public resolve (no auth) + private routes
		invService := &invitations.Service{
			DB:            db,
			Mail:          mail,
			InviteBaseURL: cfg.InviteBaseURL,
		}
		invHandlers := &invitations.Handlers{Service: invService}
		app.Post("/api/v1/invitations/public/resolve", invHandlers.Resolve)
		invGroup := app.Group("/api/v1/invitations", middleware.RequireAuth())
		invGroup.Post("/create-invitation", invHandlers.CreateInvitation)
		invGroup.Post("/respond", invHandlers.Respond)
		invGroup.Post("/resend-invitation", invHandlers.ResendInvitation)
		invGroup.Get("/event/:event_id", invHandlers.ListEventInvitations)

		// Activity module
		activityService := &activity.Service{DB: db}
		activityHandlers := &activity.Handlers{Service: activityService}
		activityGroup := app.Group("/api/v1/activity", middleware.RequireAuth())
		activityGroup.Get("/recent", activityHandlers.Recent)
		activityGroup.Get("/event/:event_id", activityHandlers.ListForEvent)
	}

	return app, nil
}

// Handler returns an http.Handler (Fiber app as net/http handler) for serverless hosting.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
