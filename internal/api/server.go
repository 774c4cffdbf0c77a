// Package api is a self-contained sandbox of the remote nutrition service.
// It keeps every record in memory and is meant for local runs and
// end-to-end tests of the client.
package api

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illegalcall/fitplan/internal/config"
)

const localUserID = "userID"

type Server struct {
	app    *fiber.App
	cfg    *config.Config
	logger *slog.Logger
	users  *userStore
	plans  *planStore

	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

func NewServer(cfg *config.Config) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
	})

	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fitplan_sandbox_requests_total",
		Help: "Requests served by the sandbox, by route and status code.",
	}, []string{"route", "code"})
	registry.MustRegister(requests)

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
	}))

	server := &Server{
		app:      app,
		cfg:      cfg,
		logger:   slog.Default().With("component", "sandbox"),
		users:    newUserStore(),
		plans:    newPlanStore(),
		registry: registry,
		requests: requests,
	}
	app.Use(server.countRequests)

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := s.app.Group("/api/v1")

	// Public routes
	api.Post("/auth/login", s.handleLogin)
	api.Post("/auth/register", s.handleRegister)
	api.Post("/users/", s.handleCreateUser)

	// Protected routes
	auth := jwtware.New(jwtware.Config{
		SigningKey:   []byte(s.cfg.JWT.Secret),
		ErrorHandler: s.unauthorized,
	})

	users := api.Group("/users", auth, s.identify)
	users.Get("/:id", s.handleGetUser)
	users.Put("/:id", s.handleUpdateUser)

	plans := api.Group("/plans", auth, s.identify)
	plans.Post("/generate", s.handleGeneratePlan)
	plans.Get("/latest", s.handleLatestPlan)

	api.Post("/chat/", auth, s.identify, s.handleChat)
}

// App exposes the fiber app, mainly for tests and adaptors.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) unauthorized(c *fiber.Ctx, err error) error {
	s.logger.Info("Rejected request", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"detail": "Could not validate credentials",
	})
}

// identify stores the token subject for the handlers. The signature was
// already checked by the JWT middleware.
func (s *Server) identify(c *fiber.Ctx) error {
	raw := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return s.unauthorized(c, err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return s.unauthorized(c, err)
	}
	c.Locals(localUserID, sub)
	return c.Next()
}

// owns rejects requests for another user's records.
func (s *Server) owns(c *fiber.Ctx, userID string) bool {
	sub, _ := c.Locals(localUserID).(string)
	return sub != "" && sub == userID
}

func (s *Server) countRequests(c *fiber.Ctx) error {
	err := c.Next()
	route := c.Path()
	if r := c.Route(); r != nil && r.Path != "" {
		route = r.Path
	}
	s.requests.WithLabelValues(route, strconv.Itoa(c.Response().StatusCode())).Inc()
	return err
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}
