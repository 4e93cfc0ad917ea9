package handlers

import (
	"log"
	"strings"

	"fiscal_service/internal/apperrors"
	"fiscal_service/internal/models"
	"fiscal_service/internal/service"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var grantOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fiscal_grant_operations_total",
		Help: "Grant management operations by type and outcome",
	},
	[]string{"operation", "status"},
)

type PermissionHandler struct {
	grantService *service.GrantService
}

func NewPermissionHandler(grantService *service.GrantService) *PermissionHandler {
	return &PermissionHandler{
		grantService: grantService,
	}
}

func (h *PermissionHandler) RegisterRoutes(app *fiber.App) {
	permissionGroup := app.Group("/protected/fiscal")

	permissionGroup.Get("/rc/:rcId/permissions", h.GetPermissionsForRC)
	permissionGroup.Post("/rc/:rcId/permissions/user", h.GrantUserAccess)
	permissionGroup.Post("/rc/:rcId/permissions/group", h.GrantGroupAccess)
	permissionGroup.Put("/permissions/:grantId", h.UpdatePermission)
	permissionGroup.Delete("/permissions/:grantId", h.RevokeAccess)
}

// subjectFromHeaders builds the requesting subject from the identity
// headers the gateway middleware sets after authentication.
func subjectFromHeaders(c fiber.Ctx) service.Subject {
	subject := service.Subject{
		Username: c.Get("X-User-Name"),
	}
	if groups := c.Get("X-User-Groups"); groups != "" {
		for _, g := range strings.Split(groups, ",") {
			if g = strings.TrimSpace(g); g != "" {
				subject.GroupIdentifiers = append(subject.GroupIdentifiers, g)
			}
		}
	}
	return subject
}

// writePermissionError maps service failures onto HTTP statuses. NotFound
// and Authorization collapse into one generic forbidden response so a
// caller cannot probe which responsibility centres or grants exist; the
// internal distinction stays in the logs.
func writePermissionError(c fiber.Ctx, operation string, err error) error {
	log.Printf("Permission operation %s failed: %s", operation, err)

	switch {
	case apperrors.IsAuthorization(err), apperrors.IsNotFound(err):
		grantOperations.WithLabelValues(operation, "forbidden").Inc()
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have enough permission",
		})
	case apperrors.IsConflict(err):
		grantOperations.WithLabelValues(operation, "conflict").Inc()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case apperrors.IsValidation(err):
		grantOperations.WithLabelValues(operation, "invalid").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		grantOperations.WithLabelValues(operation, "error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal error",
		})
	}
}

func (h *PermissionHandler) GetPermissionsForRC(c fiber.Ctx) error {
	rcID, err := bson.ObjectIDFromHex(c.Params("rcId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid RC id",
		})
	}

	grants, err := h.grantService.GetPermissionsForRC(c.Context(), rcID, subjectFromHeaders(c))
	if err != nil {
		return writePermissionError(c, "list", err)
	}

	grantOperations.WithLabelValues("list", "success").Inc()
	return c.JSON(fiber.Map{
		"data": grants,
	})
}

func (h *PermissionHandler) GrantUserAccess(c fiber.Ctx) error {
	rcID, err := bson.ObjectIDFromHex(c.Params("rcId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid RC id",
		})
	}

	var request struct {
		Username    string `json:"username"`
		AccessLevel string `json:"accessLevel"`
	}
	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	level, err := models.ParseAccessLevel(request.AccessLevel)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	grant, err := h.grantService.GrantUserAccess(c.Context(), rcID, request.Username, level, subjectFromHeaders(c))
	if err != nil {
		return writePermissionError(c, "grant_user", err)
	}

	grantOperations.WithLabelValues("grant_user", "success").Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Access granted",
		"data":    grant,
	})
}

func (h *PermissionHandler) GrantGroupAccess(c fiber.Ctx) error {
	rcID, err := bson.ObjectIDFromHex(c.Params("rcId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid RC id",
		})
	}

	var request struct {
		Identifier    string `json:"identifier"`
		DisplayName   string `json:"displayName"`
		PrincipalType string `json:"principalType"`
		AccessLevel   string `json:"accessLevel"`
	}
	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	level, err := models.ParseAccessLevel(request.AccessLevel)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	grant, err := h.grantService.GrantGroupAccess(c.Context(), rcID, request.Identifier, request.DisplayName,
		models.PrincipalType(request.PrincipalType), level, subjectFromHeaders(c))
	if err != nil {
		return writePermissionError(c, "grant_group", err)
	}

	grantOperations.WithLabelValues("grant_group", "success").Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Access granted",
		"data":    grant,
	})
}

func (h *PermissionHandler) UpdatePermission(c fiber.Ctx) error {
	grantID, err := bson.ObjectIDFromHex(c.Params("grantId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid grant id",
		})
	}

	var request struct {
		AccessLevel string `json:"accessLevel"`
	}
	if err := c.Bind().Body(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	level, err := models.ParseAccessLevel(request.AccessLevel)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.grantService.UpdatePermission(c.Context(), grantID, level, subjectFromHeaders(c)); err != nil {
		return writePermissionError(c, "update", err)
	}

	grantOperations.WithLabelValues("update", "success").Inc()
	return c.JSON(fiber.Map{
		"message": "Permission updated",
	})
}

func (h *PermissionHandler) RevokeAccess(c fiber.Ctx) error {
	grantID, err := bson.ObjectIDFromHex(c.Params("grantId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid grant id",
		})
	}

	if err := h.grantService.RevokeAccess(c.Context(), grantID, subjectFromHeaders(c)); err != nil {
		return writePermissionError(c, "revoke", err)
	}

	grantOperations.WithLabelValues("revoke", "success").Inc()
	return c.JSON(fiber.Map{
		"message": "Access revoked",
	})
}
