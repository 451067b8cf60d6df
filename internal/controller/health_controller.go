package controller

import (
	"research-agent-be/internal/dto"

	"github.com/gofiber/fiber/v2"
)

const apiVersion = "1.0.0"

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Docs(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type healthController struct{}

func NewHealthController() IHealthController {
	return &healthController{}
}

// RegisterRoutes mounts on the application root, not under /api.
func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Docs)
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{Status: "ok"})
}

func (c *healthController) Docs(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.ApiDocsResponse{
		Name:        "Research Agent API",
		Version:     apiVersion,
		Description: "Conversational research agent that searches the web, reads an indexed corpus, calls MCP tools and remembers past exchanges.",
		Endpoints: []dto.EndpointDoc{
			{Method: fiber.MethodGet, Path: "/health", Description: "Liveness check"},
			{Method: fiber.MethodPost, Path: "/api/chat", Description: "Ask a question; returns answer, sources and traceId"},
			{Method: fiber.MethodGet, Path: "/api/evals", Description: "Most recent run summaries, newest first"},
			{Method: fiber.MethodGet, Path: "/api/tools", Description: "Configured tool providers and their tools"},
			{Method: fiber.MethodGet, Path: "/api/memory/:sessionId/stats", Description: "Long-term memory statistics for a session"},
			{Method: fiber.MethodDelete, Path: "/api/memory/:sessionId", Description: "Forget a session"},
			{Method: fiber.MethodGet, Path: "/metrics", Description: "Prometheus metrics"},
		},
		ExampleRequest: dto.ChatRequest{
			Message:   "What is the capital of France?",
			SessionId: "demo-session",
		},
	})
}
