package controller

import (
	"research-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IEvalController interface {
	RegisterRoutes(r fiber.Router)
	Recent(ctx *fiber.Ctx) error
}

type evalController struct {
	evalService service.IEvalService
}

func NewEvalController(evalService service.IEvalService) IEvalController {
	return &evalController{evalService: evalService}
}

func (c *evalController) RegisterRoutes(r fiber.Router) {
	r.Get("/evals", c.Recent)
}

func (c *evalController) Recent(ctx *fiber.Ctx) error {
	return ctx.JSON(c.evalService.Recent())
}
