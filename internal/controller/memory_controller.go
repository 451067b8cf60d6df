package controller

import (
	"strings"

	"research-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMemoryController interface {
	RegisterRoutes(r fiber.Router)
	Stats(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type memoryController struct {
	memoryService service.IMemoryService
}

func NewMemoryController(memoryService service.IMemoryService) IMemoryController {
	return &memoryController{memoryService: memoryService}
}

func (c *memoryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/memory")
	h.Get("/:sessionId/stats", c.Stats)
	h.Delete("/:sessionId", c.Clear)
}

func sessionParam(ctx *fiber.Ctx) (string, error) {
	sessionID := strings.TrimSpace(ctx.Params("sessionId"))
	if sessionID == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "sessionId is required")
	}
	return sessionID, nil
}

func (c *memoryController) Stats(ctx *fiber.Ctx) error {
	sessionID, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.memoryService.Stats(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *memoryController) Clear(ctx *fiber.Ctx) error {
	sessionID, err := sessionParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.memoryService.Clear(ctx.UserContext(), sessionID)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
