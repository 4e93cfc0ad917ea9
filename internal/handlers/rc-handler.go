package handlers

import (
	"log"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/fiscal"
	"fiscal_service/internal/models"
	"fiscal_service/internal/service"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type RCHandler struct {
	rcService    *service.RCService
	recordSource fiscal.RecordSource
}

// NewRCHandler takes the fiscal record collaborator; a nil source simply
// omits record summaries from RC reads.
func NewRCHandler(rcService *service.RCService, recordSource fiscal.RecordSource) *RCHandler {
	return &RCHandler{
		rcService:    rcService,
		recordSource: recordSource,
	}
}

func (h *RCHandler) RegisterRoutes(app *fiber.App) {
	rcGroup := app.Group("/protected/fiscal/rc")

	rcGroup.Post("/", h.CreateRC)
	rcGroup.Get("/", h.ListRCs)
	rcGroup.Get("/:rcId", h.GetRC)
	rcGroup.Put("/:rcId", h.UpdateRC)
}

func (h *RCHandler) CreateRC(c fiber.Ctx) error {
	subject := subjectFromHeaders(c)
	if subject.Username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user identity",
		})
	}

	var request struct {
		Identifier string `json:"identifier"`
		Name       string `json:"name"`
		FiscalYear string `json:"fiscalYear"`
	}
	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rc, err := h.rcService.CreateRC(c.Context(), request.Identifier, request.Name, request.FiscalYear, subject)
	if err != nil {
		log.Printf("Error creating RC '%s': %s", request.Identifier, err)
		switch {
		case apperrors.IsConflict(err):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		case apperrors.IsValidation(err):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal error",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Responsibility centre created",
		"data":    rc,
	})
}

func (h *RCHandler) ListRCs(c fiber.Ctx) error {
	subject := subjectFromHeaders(c)

	rcs, levels, err := h.rcService.ListAccessibleRCs(c.Context(), subject, fiber.Query(c, "page", 0), fiber.Query(c, "limit", 0))
	if err != nil {
		log.Printf("Error listing RCs for %s: %s", subject.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal error",
		})
	}

	items := make([]fiber.Map, 0, len(rcs))
	for _, rc := range rcs {
		items = append(items, fiber.Map{
			"rc":          rc,
			"accessLevel": levels[rc.ID.Hex()].String(),
		})
	}

	return c.JSON(fiber.Map{
		"data": items,
	})
}

func (h *RCHandler) GetRC(c fiber.Ctx) error {
	rcID, err := bson.ObjectIDFromHex(c.Params("rcId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid RC id",
		})
	}

	subject := subjectFromHeaders(c)
	rc, level, err := h.rcService.GetRC(c.Context(), rcID, subject)
	if err != nil {
		return writeRCAccessError(c, subject.Username, err)
	}

	response := fiber.Map{
		"rc":          rc,
		"accessLevel": level.String(),
		"canEdit":     level >= models.AccessLevelReadWrite,
		"canManage":   level == models.AccessLevelOwner,
	}

	if h.recordSource != nil {
		summaries, err := h.recordSource.SummariesForRC(c.Context(), rc.Identifier)
		if err != nil {
			log.Printf("Warning: Failed to load record summaries for RC %s: %v", rc.Identifier, err)
		} else {
			response["recordSummaries"] = summaries
		}
	}

	return c.JSON(fiber.Map{
		"data": response,
	})
}

func (h *RCHandler) UpdateRC(c fiber.Ctx) error {
	rcID, err := bson.ObjectIDFromHex(c.Params("rcId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid RC id",
		})
	}

	var request struct {
		Name       string `json:"name"`
		FiscalYear string `json:"fiscalYear"`
	}
	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	subject := subjectFromHeaders(c)
	rc, err := h.rcService.UpdateRC(c.Context(), rcID, request.Name, request.FiscalYear, subject)
	if err != nil {
		return writeRCAccessError(c, subject.Username, err)
	}

	return c.JSON(fiber.Map{
		"message": "Responsibility centre updated",
		"data":    rc,
	})
}

// writeRCAccessError hides existence from unauthorized callers the same
// way the permission endpoints do.
func writeRCAccessError(c fiber.Ctx, username string, err error) error {
	log.Printf("RC operation for %s failed: %s", username, err)

	switch {
	case apperrors.IsAuthorization(err), apperrors.IsNotFound(err):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have enough permission",
		})
	case apperrors.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal error",
		})
	}
}
