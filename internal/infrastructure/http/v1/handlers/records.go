package handlers

import (
	"github.com/gin-gonic/gin"

	"stepform/internal/core/apperror"
	"stepform/internal/core/id"
	"stepform/internal/domain/record"
	"stepform/internal/domain/structure"
	"stepform/internal/infrastructure/http/v1/dto"
)

// RecordsHandler serves record lookup and listing.
type RecordsHandler struct {
	*BaseHandler
	registry *structure.Registry
	service  *record.Service
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(base *BaseHandler, registry *structure.Registry, service *record.Service) *RecordsHandler {
	return &RecordsHandler{
		BaseHandler: base,
		registry:    registry,
		service:     service,
	}
}

// List handles GET /structures/:name/records
func (h *RecordsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	name := c.Param("name")
	st, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("structure", name))
		return
	}

	records, err := h.service.List(ctx, st)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecords(records))
}

// Get handles GET /structures/:name/records/:id
func (h *RecordsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	name := c.Param("name")
	st, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("structure", name))
		return
	}

	recordID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid record id").WithDetail("id", c.Param("id")))
		return
	}

	rec, err := h.service.Get(ctx, st, recordID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecord(rec))
}

// Delete handles DELETE /structures/:name/records/:id
func (h *RecordsHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	name := c.Param("name")
	st, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("structure", name))
		return
	}

	recordID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid record id").WithDetail("id", c.Param("id")))
		return
	}

	if err := h.service.Delete(ctx, st, recordID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
