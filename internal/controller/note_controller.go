package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"notevault/internal/dto"
	"notevault/internal/pkg/serverutils"
	"notevault/internal/service"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ByCategory(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	Import(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService service.INoteService
}

func NewNoteController(noteService service.INoteService) INoteController {
	return &noteController{
		noteService: noteService,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/note/v1")
	h.Get("export", c.Export)
	h.Post("import", c.Import)
	h.Get("category/:category", c.ByCategory)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

func parseId(ctx *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid note id")
	}
	return id, nil
}

func (c *noteController) List(ctx *fiber.Ctx) error {
	notes := c.noteService.Snapshot()
	return ctx.JSON(serverutils.SuccessResponse("Success list notes", dto.NewNoteResponses(notes)))
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	note, warn, err := c.noteService.Add(ctx.Context(), req.ToEntity())
	if err != nil {
		return err
	}
	if warn != nil {
		return ctx.Status(fiber.StatusCreated).
			JSON(serverutils.WarningResponse("Note kept in memory only", warn.Message, dto.NewNoteResponse(note)))
	}
	return ctx.Status(fiber.StatusCreated).
		JSON(serverutils.SuccessResponse("Success create note", dto.NewNoteResponse(note)))
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	id, err := parseId(ctx)
	if err != nil {
		return err
	}

	note, ok := c.noteService.Get(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "note not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show note", dto.NewNoteResponse(note)))
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	id, err := parseId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	warn, err := c.noteService.Update(ctx.Context(), req.ToEntity())
	if err != nil {
		return err
	}
	if warn != nil {
		return ctx.JSON(serverutils.WarningResponse("Note updated in memory only", warn.Message, nil))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update note", nil))
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	id, err := parseId(ctx)
	if err != nil {
		return err
	}

	warn, err := c.noteService.Delete(ctx.Context(), id)
	if err != nil {
		return err
	}
	if warn != nil {
		return ctx.JSON(serverutils.WarningResponse("Note removed from memory only", warn.Message, nil))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete note", nil))
}

func (c *noteController) ByCategory(ctx *fiber.Ctx) error {
	notes, err := c.noteService.FindByCategory(ctx.Context(), ctx.Params("category"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list notes by category", dto.NewNoteResponses(notes)))
}

func (c *noteController) Export(ctx *fiber.Ctx) error {
	data, err := c.noteService.ExportAll(ctx.Context())
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="notes.json"`)
	return ctx.Send(data)
}

func (c *noteController) Import(ctx *fiber.Ctx) error {
	count, warn, err := c.noteService.ImportAll(ctx.Context(), ctx.Body())
	if err != nil {
		return err
	}
	res := dto.ImportNotesResponse{Imported: count}
	if warn != nil {
		return ctx.JSON(serverutils.WarningResponse("Notes imported to memory only", warn.Message, res))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success import notes", res))
}
