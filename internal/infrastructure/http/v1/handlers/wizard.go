package handlers

import (
	"github.com/gin-gonic/gin"

	"stepform/internal/core/apperror"
	"stepform/internal/core/id"
	"stepform/internal/domain/form"
	"stepform/internal/domain/record"
	"stepform/internal/domain/structure"
	"stepform/internal/infrastructure/http/v1/dto"
)

// WizardHandler serves multi-step form rendering and per-step persistence.
type WizardHandler struct {
	*BaseHandler
	registry *structure.Registry
	service  *record.Service
}

// NewWizardHandler creates a new wizard handler.
func NewWizardHandler(base *BaseHandler, registry *structure.Registry, service *record.Service) *WizardHandler {
	return &WizardHandler{
		BaseHandler: base,
		registry:    registry,
		service:     service,
	}
}

// structureOf resolves the :name path parameter against the registry.
func (h *WizardHandler) structureOf(c *gin.Context) (*structure.Structure, bool) {
	name := c.Param("name")
	st, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("structure", name))
		return nil, false
	}
	return st, true
}

// recordIDQuery parses the optional record query parameter.
func (h *WizardHandler) recordIDQuery(c *gin.Context) (*id.ID, bool) {
	raw := c.Query("record")
	if raw == "" {
		return nil, true
	}
	recordID, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid record id").WithDetail("record", raw))
		return nil, false
	}
	return &recordID, true
}

// ListStructures handles GET /structures
func (h *WizardHandler) ListStructures(c *gin.Context) {
	structures := h.registry.List()
	out := make([]dto.StructureResponse, 0, len(structures))
	for _, st := range structures {
		out = append(out, dto.FromStructure(st))
	}
	h.OK(c, out)
}

// GetStructure handles GET /structures/:name
func (h *WizardHandler) GetStructure(c *gin.Context) {
	st, ok := h.structureOf(c)
	if !ok {
		return
	}
	h.OK(c, dto.FromStructure(st))
}

// GetStep handles GET /structures/:name/wizard/:step
// Renders one step's form: field metadata plus current values, loaded from
// the record named by the optional record query parameter.
func (h *WizardHandler) GetStep(c *gin.Context) {
	ctx := c.Request.Context()

	st, ok := h.structureOf(c)
	if !ok {
		return
	}
	recordID, ok := h.recordIDQuery(c)
	if !ok {
		return
	}

	keyword := c.Param("step")
	values, err := h.service.LoadStep(ctx, st, keyword, recordID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.stepResponse(st, keyword, recordID, values, false))
}

// SubmitStep handles POST /structures/:name/wizard/:step
//
// A regular submission persists the step immediately and reports where the
// wizard goes next. A loadStep submission only re-renders the current step
// from the submitted values, so the client can redraw repeating fields with
// a changed row count without saving or advancing.
func (h *WizardHandler) SubmitStep(c *gin.Context) {
	ctx := c.Request.Context()

	st, ok := h.structureOf(c)
	if !ok {
		return
	}
	recordID, ok := h.recordIDQuery(c)
	if !ok {
		return
	}

	var req dto.SubmitStepRequest
	if !h.BindJSON(c, &req) {
		return
	}

	keyword := c.Param("step")
	if req.LoadStep {
		if _, found := st.Section(keyword); !found {
			h.Error(c, apperror.NewNotFound("section", keyword).WithDetail("structure", st.Name()))
			return
		}
		h.OK(c, h.stepResponse(st, keyword, recordID, form.Values(req.Values), true))
		return
	}

	rec, err := h.service.SaveStep(ctx, st, keyword, recordID, form.Values(req.Values))
	if err != nil {
		h.Error(c, err)
		return
	}

	next := st.NextStep(keyword)
	h.OK(c, dto.SubmitStepResponse{
		RecordID: rec.ID.String(),
		Saved:    true,
		Next:     next,
		Done:     next == "",
	})
}

// stepResponse assembles the step payload: position metadata, field
// descriptions with rendered row counts, and the form values.
func (h *WizardHandler) stepResponse(st *structure.Structure, keyword string, recordID *id.ID, values form.Values, hasSubmission bool) dto.StepResponse {
	sec, _ := st.Section(keyword)

	rowCounts := make(map[string]int)
	for _, f := range sec.Fields {
		if f.Rows == nil || f.Rows.Len() == 0 {
			continue
		}
		rows := len(form.AsList(values[f.Name])) / f.Rows.Len()
		rowCounts[f.Name] = form.RenderRowCount(f.Options, rows, rows, hasSubmission, false)
	}

	resp := dto.StepResponse{
		Structure: st.Name(),
		Step:      keyword,
		Label:     sec.DisplayLabel(),
		Count:     len(st.Steps()),
		Prev:      st.PrevStep(keyword),
		Next:      st.NextStep(keyword),
		Fields:    dto.FieldResponses(sec.Fields, rowCounts),
		Values:    values,
	}
	for i, step := range st.Steps() {
		if step.Keyword == keyword {
			resp.Index = i
			break
		}
	}
	if recordID != nil {
		resp.RecordID = recordID.String()
	}
	return resp
}
