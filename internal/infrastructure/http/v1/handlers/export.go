package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	"stepform/internal/core/apperror"
	"stepform/internal/domain/record"
	"stepform/internal/domain/report"
	"stepform/internal/domain/structure"
	"stepform/pkg/logger"
)

// ExportHandler serves tabular exports over the synthesized virtual
// properties: one CSV column per property, one line per record.
type ExportHandler struct {
	*BaseHandler
	registry    *structure.Registry
	service     *record.Service
	synthesizer *report.Synthesizer
}

// NewExportHandler creates a new export handler.
func NewExportHandler(base *BaseHandler, registry *structure.Registry, service *record.Service, synthesizer *report.Synthesizer) *ExportHandler {
	return &ExportHandler{
		BaseHandler: base,
		registry:    registry,
		service:     service,
		synthesizer: synthesizer,
	}
}

// Properties handles GET /structures/:name/properties
// Lists the synthesized virtual-property names, in declaration order.
func (h *ExportHandler) Properties(c *gin.Context) {
	name := c.Param("name")
	st, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("structure", name))
		return
	}
	h.OK(c, gin.H{"properties": h.synthesizer.Names(st.Name())})
}

// ExportCSV handles GET /structures/:name/export.csv
// Streams all records through the virtual-property accessors. The response
// is gzip-compressed when the client accepts it.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	ctx := c.Request.Context()

	name := c.Param("name")
	st, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("structure", name))
		return
	}

	props := h.synthesizer.Properties(st.Name())
	records, err := h.service.List(ctx, st)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Name()+".csv"))

	var w io.Writer = c.Writer
	if strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		c.Header("Content-Encoding", "gzip")
		gz := gzip.NewWriter(c.Writer)
		defer func() {
			if err := gz.Close(); err != nil {
				logger.Warn(ctx, "close gzip stream", "error", err)
			}
		}()
		w = gz
	}
	c.Status(http.StatusOK)

	cw := csv.NewWriter(w)

	header := make([]string, 0, len(props))
	for _, p := range props {
		header = append(header, p.Name)
	}
	_ = cw.Write(header)

	row := make([]string, len(props))
	for _, rec := range records {
		for i, p := range props {
			row[i] = p.Get(rec.Data)
		}
		_ = cw.Write(row)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.Warn(ctx, "write csv stream", "error", err)
	}
}

// ExportCodesCSV handles GET /structures/:name/codes.csv
// Exports the option codes of every choice field as a small CSV, so report
// consumers can translate stored codes back to their labels.
func (h *ExportHandler) ExportCodesCSV(c *gin.Context) {
	name := c.Param("name")
	st, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("structure", name))
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Name()+"_codes.csv"))
	c.Status(http.StatusOK)

	cw := csv.NewWriter(c.Writer)
	for _, row := range codeRows(st) {
		_ = cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.Warn(c.Request.Context(), "write codes csv", "error", err)
	}
}

// codeRows lists one line per choice option across all sections, after a
// fixed header. Options with an empty code are placeholders and skipped.
func codeRows(st *structure.Structure) [][]string {
	rows := [][]string{{"Section", "Question", "Option", "Code"}}
	for _, sec := range st.Sections() {
		for _, f := range sec.Fields {
			for _, ch := range f.Choices {
				if ch.Code == "" {
					continue
				}
				rows = append(rows, []string{sec.DisplayLabel(), f.Label, ch.Label, ch.Code})
			}
		}
	}
	return rows
}
