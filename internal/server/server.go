// Package server contains HTTP and WebSocket handlers for the forum API.
package server

import (
	"context"
	"fmt"
	"time"

	_ "foros/docs" // swagger docs
	"foros/internal/cache"
	"foros/internal/config"
	"foros/internal/database"
	"foros/internal/featureflags"
	"foros/internal/middleware"
	"foros/internal/models"
	"foros/internal/notifications"
	"foros/internal/repository"
	"foros/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
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
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	notifier     *notifications.Notifier
	userHub      *notifications.Hub
	voteHub      *notifications.Hub
	publisher    *realtimePublisher
	featureFlags *featureflags.Manager

	userService         *service.UserService
	avatarService       *service.AvatarService
	foroService         *service.ForoService
	hiloService         *service.HiloService
	voteService         *service.VoteService
	comentarioService   *service.ComentarioService
	notificacionService *service.NotificacionService
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables caching, rate limiting and cross-instance
// fan-out; live updates are then delivered to this instance's sockets only.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	middleware.InitMiddleware(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("foros-api"),
		notifier:       notifications.NewNotifier(redisClient),
		userHub:        notifications.NewUserHub(),
		voteHub:        notifications.NewVoteHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.publisher = &realtimePublisher{
		notifier: s.notifier,
		userHub:  s.userHub,
		voteHub:  s.voteHub,
		local:    redisClient == nil,
	}

	userRepo := repository.NewUserRepository(db)
	foroRepo := repository.NewForoRepository(db)
	hiloRepo := repository.NewHiloRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	comentarioRepo := repository.NewComentarioRepository(db)
	notificacionRepo := repository.NewNotificacionRepository(db)

	s.userService = service.NewUserService(userRepo)
	isAdmin := s.userService.IsAdmin
	s.avatarService = service.NewAvatarService(userRepo, cfg)
	s.notificacionService = service.NewNotificacionService(notificacionRepo, s.publisher)
	s.foroService = service.NewForoService(foroRepo, isAdmin)
	s.hiloService = service.NewHiloService(hiloRepo, foroRepo, isAdmin)
	s.voteService = service.NewVoteService(voteRepo, s.notificacionService, s.publisher, s.featureFlags,
		service.VoteRetryPolicy{MaxAttempts: cfg.VoteMaxAttempts, BaseDelay: cfg.VoteRetryBaseDelay()})
	s.comentarioService = service.NewComentarioService(comentarioRepo, hiloRepo, s.notificacionService, s.featureFlags, isAdmin)

	return s, nil
}

// VoteService exposes the vote path for callers that share the server's wiring.
func (s *Server) VoteService() *service.VoteService { return s.voteService }

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
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

	app.Static("/media/avatars", s.avatarService.UploadDir(), fiber.Static{
		MaxAge: 86400,
	})

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Foros Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Foros
	foros := api.Group("/Foros")
	foros.Get("/", s.GetForos)
	foros.Get("/slug/:slug", s.GetForoBySlug)
	foros.Get("/:id/hilos", middleware.OptionalAuth, s.GetHilosByForo)
	foros.Get("/:id", s.GetForo)
	foros.Post("/", middleware.AuthRequired, s.CreateForo)
	foros.Put("/:id", middleware.AuthRequired, s.UpdateForo)
	foros.Delete("/:id", middleware.AuthRequired, s.DeleteForo)

	// Hilos
	hilos := api.Group("/Hilos")
	hilos.Post("/", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 5, 5*time.Minute, "create_hilo"), s.CreateHilo)
	hilos.Post("/:id/vote", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 60, time.Minute, "vote"), s.VoteHilo)
	hilos.Get("/:id/comentarios", s.GetComentarios)
	hilos.Post("/:id/comentarios", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 10, time.Minute, "create_comentario"), s.CreateComentario)
	hilos.Get("/:id", middleware.OptionalAuth, s.GetHilo)
	hilos.Put("/:id", middleware.AuthRequired, s.UpdateHilo)
	hilos.Delete("/:id", middleware.AuthRequired, s.DeleteHilo)

	api.Delete("/Comentarios/:id", middleware.AuthRequired, s.DeleteComentario)

	// Notificaciones
	notificaciones := api.Group("/Notificaciones", middleware.AuthRequired)
	notificaciones.Get("/", s.GetNotificaciones)
	notificaciones.Post("/read-all", s.MarkAllNotificacionesRead)
	notificaciones.Post("/:id/read", s.MarkNotificacionRead)

	// Usuarios
	usuarios := api.Group("/Usuarios", middleware.AuthRequired)
	usuarios.Get("/me", s.GetMyProfile)
	usuarios.Put("/me", s.UpdateMyProfile)
	usuarios.Get("/me/votes", s.GetMyVotes)
	usuarios.Post("/me/avatar", middleware.RateLimit(s.redis, 5, 10*time.Minute, "avatar"), s.UploadMyAvatar)
	usuarios.Get("/", s.AdminRequired(), s.GetUsuarios)
	usuarios.Put("/:id/role", s.AdminRequired(), s.UpdateUsuarioRole)
	usuarios.Delete("/:id", s.AdminRequired(), s.DeleteUsuario)

	api.Get("/feature-flags", middleware.AuthRequired, s.GetFeatureFlags)

	// WebSockets
	ws := app.Group("/ws", requireUpgrade)
	ws.Get("/hilos/:id", middleware.OptionalAuth, s.WebSocketHiloVotesHandler())
	ws.Get("/notificaciones", middleware.WebSocketAuthRequired, s.WebSocketNotificacionesHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	// Redis is optional: without it the API still serves from the database.
	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired rejects callers whose stored role is not admin. It must run
// after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := s.userService.IsAdmin(c.UserContext(), middleware.CurrentUserID(c))
		if err != nil {
			return s.respondError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Foros API",
		BodyLimit: (s.config.AvatarMaxUploadSizeMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires the hubs to Redis and serves HTTP until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if err := notifications.WireUserHub(s.shutdownCtx, s.userHub, s.notifier); err != nil {
		middleware.Logger.Error("failed to wire hub", "hub", s.userHub.Name(), "error", err)
	}
	if err := notifications.WireVoteHub(s.shutdownCtx, s.voteHub, s.notifier); err != nil {
		middleware.Logger.Error("failed to wire hub", "hub", s.voteHub.Name(), "error", err)
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	for _, h := range []*notifications.Hub{s.userHub, s.voteHub} {
		if err := h.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", h.Name(), "error", err)
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", "error", cerr)
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
