package controller

import (
	"github.com/gofiber/fiber/v2"

	"notevault/internal/dto"
	"notevault/internal/pkg/serverutils"
	"notevault/internal/service"
)

type IMigrationController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
	Start(ctx *fiber.Ctx) error
	Skip(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type migrationController struct {
	migrationService service.IMigrationService
}

func NewMigrationController(migrationService service.IMigrationService) IMigrationController {
	return &migrationController{
		migrationService: migrationService,
	}
}

func (c *migrationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/migration/v1")
	h.Get("status", c.Status)
	h.Post("start", c.Start)
	h.Post("skip", c.Skip)
	h.Post("reset", c.Reset)
}

func (c *migrationController) Status(ctx *fiber.Ctx) error {
	status, err := c.migrationService.Status(ctx.Context())
	if err != nil {
		return err
	}
	needed, err := c.migrationService.IsNeeded(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success migration status", dto.MigrationStatusResponse{
		Status: string(status),
		Needed: needed,
	}))
}

func (c *migrationController) Start(ctx *fiber.Ctx) error {
	if err := c.migrationService.Start(ctx.Context()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Migration completed", nil))
}

func (c *migrationController) Skip(ctx *fiber.Ctx) error {
	if err := c.migrationService.Skip(ctx.Context()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Migration skipped", nil))
}

func (c *migrationController) Reset(ctx *fiber.Ctx) error {
	if err := c.migrationService.Reset(ctx.Context()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Migration status reset", nil))
}
