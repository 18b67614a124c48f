// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "playshelf/docs" // swagger docs
	"playshelf/internal/cache"
	"playshelf/internal/config"
	"playshelf/internal/crypto"
	"playshelf/internal/discord"
	"playshelf/internal/featureflags"
	"playshelf/internal/igdb"
	"playshelf/internal/middleware"
	"playshelf/internal/models"
	"playshelf/internal/repository"
	"playshelf/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager

	userRepo   repository.UserRepository
	connRepo   repository.DiscordConnectionRepository
	friendRepo repository.FriendRepository
	gameRepo   repository.GameRepository

	userService    *service.UserService
	authService    *service.AuthService
	discordService *service.DiscordService
	friendService  *service.FriendService
	gameService    *service.GameService
}

// Clients are the outbound API clients the server calls.
type Clients struct {
	Discord service.DiscordAPI
	Catalog service.CatalogSearcher
}

// NewServerWithDeps creates a Server using already-initialized dependencies
// and builds the Discord and IGDB clients from cfg.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	discordClient, err := discord.NewClient(discord.Config{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
		RedirectURL:  cfg.DiscordRedirectURL,
		BotToken:     cfg.DiscordBotToken,
		APIBaseURL:   cfg.DiscordAPIBaseURL,
		Timeout:      cfg.DiscordTimeout(),
	})
	if err != nil {
		return nil, err
	}

	igdbClient := igdb.NewClient(igdb.Config{
		ClientID:     cfg.IGDBClientID,
		ClientSecret: cfg.IGDBClientSecret,
		TokenURL:     cfg.IGDBTokenURL,
		APIBaseURL:   cfg.IGDBAPIBaseURL,
		Timeout:      cfg.IGDBTimeout(),
	})

	return NewServerWithClients(cfg, db, redisClient, Clients{Discord: discordClient, Catalog: igdbClient})
}

// NewServerWithClients wires repositories and services around the given
// outbound clients. Tests pass fakes here.
func NewServerWithClients(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, clients Clients) (*Server, error) {
	cipher, err := crypto.NewTokenCipher(cfg.EncryptionSecret())
	if err != nil {
		return nil, fmt.Errorf("token cipher: %w", err)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("playshelf-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(db),
		connRepo:       repository.NewDiscordConnectionRepository(db),
		friendRepo:     repository.NewFriendRepository(db),
		gameRepo:       repository.NewGameRepository(db),
	}

	s.userService = service.NewUserService(s.userRepo)
	s.authService = service.NewAuthService(s.connRepo, clients.Discord, cipher)
	s.discordService = service.NewDiscordService(s.connRepo, s.userRepo, s.friendRepo, clients.Discord, cipher)
	s.friendService = service.NewFriendService(s.friendRepo, s.userRepo)
	s.gameService = service.NewGameService(s.gameRepo, s.friendRepo, clients.Catalog)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = s.config.FrontendURL
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if !s.config.IsProduction() {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// OAuth entry points live outside /api; Discord redirects the browser here.
	auth := app.Group("/auth")
	auth.Get("/discord/login", middleware.RateLimit(s.redis, 20, time.Minute, "oauth_login"), s.DiscordLogin)
	auth.Get("/callback", middleware.RateLimit(s.redis, 20, time.Minute, "oauth_callback"), s.AuthCallback)

	api := app.Group("/api", s.AuthRequired())

	api.Post("/auth/logout", s.Logout)
	api.Get("/me", s.GetMe)

	discordRoutes := api.Group("/discord")
	discordRoutes.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "discord_search"), s.SearchDiscordUsers)
	discordRoutes.Get("/user", middleware.RateLimit(s.redis, 30, time.Minute, "discord_lookup"), s.LookupDiscordUser)
	discordRoutes.Get("/status", s.GetDiscordStatus)
	discordRoutes.Get("/friends", s.FeatureRequired(featureflags.DiscordFriendsImport), s.GetDiscordFriends)
	discordRoutes.Post("/manual-connect", s.ManualConnect)
	discordRoutes.Post("/update-profile", s.UpdateDiscordProfile)
	discordRoutes.Post("/refresh", s.RefreshDiscordToken)

	friends := api.Group("/friends")
	friends.Get("/", s.GetFriends)
	friends.Post("/", s.AddFriend)

	api.Get("/igdb/search", middleware.RateLimit(s.redis, 30, time.Minute, "igdb_search"), s.SearchGames)

	games := api.Group("/games")
	// Specific routes before /:id
	games.Get("/library", s.GetLibrary)
	games.Get("/", middleware.RateLimit(s.redis, 30, time.Minute, "igdb_search"), s.SearchGames)
	games.Post("/", s.AddGame)
	games.Delete("/:id", s.RemoveGame)

	api.Get("/game-ownership", s.GetGameOwnership)
	api.Get("/dashboard", s.FeatureRequired(featureflags.Dashboard), s.GetDashboard)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: caches and the limiter degrade without it.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired rejects requests without a valid, unrevoked session for an
// existing user. Every rejection is the same 401 body.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := middleware.ExtractSessionToken(c)
		if tokenString == "" {
			return middleware.NotAuthenticated(c)
		}

		claims, err := middleware.ParseSessionToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return middleware.NotAuthenticated(c)
		}

		ctx := c.UserContext()
		if claims.JTI != "" && cache.Exists(ctx, cache.RevokedTokenKey(claims.JTI)) {
			return middleware.NotAuthenticated(c)
		}

		exists, err := s.userService.Exists(ctx, claims.UserID)
		if err != nil {
			return s.respondError(c, err, "Failed to verify session")
		}
		if !exists {
			return middleware.NotAuthenticated(c)
		}

		c.Locals("userID", claims.UserID)
		c.Locals("session", claims)
		c.SetUserContext(context.WithValue(ctx, middleware.UserIDKey, claims.UserID))

		return c.Next()
	}
}

// FeatureRequired hides a route behind a feature flag, answering 404 when
// the flag is off for the current user.
func (s *Server) FeatureRequired(flag string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(uuid.UUID)
		if !s.featureFlags.Enabled(flag, userID) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Not found"))
		}
		return c.Next()
	}
}

// NewApp builds the Fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Playshelf API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
				return models.RespondWithError(c, fe.Code, models.ErrorForStatus(fe.Code, fe.Message))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
