package handler

import (
	"github.com/gofiber/fiber/v2"

	"prdapi/internal/model"
	"prdapi/internal/service"
)

// SearchPRDs godoc
// @Summary Search documents
// @Description Full-text search over stored documents, degrading to a name/summary scan when the index is unavailable.
// @Tags prds
// @Produce json
// @Param query query string true "Search query"
// @Success 200 {object} model.SearchResponse
// @Failure 400 {object} errorPayload
// @Router /prds/search [get]
func SearchPRDs(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Search(c.UserContext(), c.Query("query"))
		if err != nil {
			return writeServiceError(c, err, "INVALID_QUERY")
		}
		return c.JSON(res)
	}
}

// GetPRD godoc
// @Summary Get document
// @Tags prds
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /prds/{id} [get]
func GetPRD(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err, "INVALID_ID")
		}
		return c.JSON(doc)
	}
}

// StorePRD godoc
// @Summary Store document
// @Description Renders the markdown to HTML and stores both renditions.
// @Tags prds
// @Accept json
// @Produce json
// @Param body body model.StoreInput true "Document"
// @Success 201 {object} model.StoreResult
// @Failure 400 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /prds [post]
func StorePRD(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.StoreInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Store(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err, "VALIDATION_ERROR")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}
