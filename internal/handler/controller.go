package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"sitemap-terms/internal/service"
	"sitemap-terms/pkg/input"
	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/storage"
)

type ControllerConfig struct {
	MaxDomains   int
	DefaultLimit int
}

// Controller serves the scan API.
type Controller struct {
	scans  service.ScanService
	config ControllerConfig
	app    *fiber.App
	log    *logger.Logger
	start  time.Time
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

type ListResponse struct {
	Data  []storage.RunSummary `json:"data"`
	Limit int                  `json:"limit"`
}

type MatchesResponse struct {
	Term string                `json:"term"`
	Data []storage.MatchRecord `json:"data"`
}

func NewController(scans service.ScanService, config ControllerConfig) *Controller {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 20
	}
	c := &Controller{
		scans:  scans,
		config: config,
		log:    logger.GetLogger().WithField("component", "http"),
		start:  time.Now(),
	}

	c.app = fiber.New(fiber.Config{
		AppName:               "sitemap-terms",
		DisableStartupMessage: true,
		ErrorHandler:          c.handleError,
	})
	c.app.Use(recover.New())
	c.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       int((12 * time.Hour).Seconds()),
	}))

	c.app.Get("/health", c.Health)
	api := c.app.Group("/api/v1")
	api.Post("/scans", c.CreateScan)
	api.Get("/scans", c.ListScans)
	api.Get("/scans/:id", c.GetScan)
	api.Get("/matches", c.FindMatches)
	return c
}

// App exposes the fiber application, mainly for tests.
func (c *Controller) App() *fiber.App {
	return c.app
}

func (c *Controller) Listen(addr string) error {
	c.log.WithField("addr", addr).Info("HTTP API listening")
	return c.app.Listen(addr)
}

func (c *Controller) Shutdown(ctx context.Context) error {
	return c.app.ShutdownWithContext(ctx)
}

func (c *Controller) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(StatusResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(c.start).Round(time.Second).String(),
	})
}

// CreateScan runs a scan synchronously and returns the stored report.
func (c *Controller) CreateScan(ctx *fiber.Ctx) error {
	var req service.ScanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	req.Domains = input.Normalize(clean(req.Domains))
	req.Terms = input.Normalize(clean(req.Terms))
	if len(req.Domains) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "domains are required")
	}
	if c.config.MaxDomains > 0 && len(req.Domains) > c.config.MaxDomains {
		return fiber.NewError(fiber.StatusBadRequest, "too many domains, limit is "+strconv.Itoa(c.config.MaxDomains))
	}

	report, err := c.scans.RunScan(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(report)
}

func (c *Controller) ListScans(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", c.config.DefaultLimit)
	if limit <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be positive")
	}
	runs, err := c.scans.ListRuns(ctx.UserContext(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(ListResponse{Data: runs, Limit: limit})
}

func (c *Controller) GetScan(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid run id")
	}
	report, err := c.scans.GetRun(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(report)
}

// FindMatches lists the stored URLs matched by a term across runs.
func (c *Controller) FindMatches(ctx *fiber.Ctx) error {
	term := strings.TrimSpace(ctx.Query("term"))
	if term == "" {
		return fiber.NewError(fiber.StatusBadRequest, "term is required")
	}
	records, err := c.scans.FindMatches(ctx.UserContext(), term)
	if err != nil {
		return err
	}
	return ctx.JSON(MatchesResponse{Term: term, Data: records})
}

func (c *Controller) handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
	case errors.Is(err, storage.ErrRunNotFound):
		code, msg = fiber.StatusNotFound, "run not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code, msg = fiber.StatusServiceUnavailable, "scan cancelled"
	}

	if code >= fiber.StatusInternalServerError {
		c.log.WithError(err).WithField("path", ctx.Path()).Error("Request failed")
	}
	return ctx.Status(code).JSON(ErrorResponse{Error: msg})
}

func clean(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
