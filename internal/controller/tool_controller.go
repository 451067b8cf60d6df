package controller

import (
	"research-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IToolController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type toolController struct {
	toolService service.IToolService
}

func NewToolController(toolService service.IToolService) IToolController {
	return &toolController{toolService: toolService}
}

func (c *toolController) RegisterRoutes(r fiber.Router) {
	r.Get("/tools", c.List)
}

func (c *toolController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(c.toolService.Catalog(ctx.UserContext()))
}
