package handlers

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/httpx"
	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/models"
	"github.com/diewo77/go-devis/internal/pdf"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/diewo77/go-devis/internal/validation"
	"github.com/diewo77/go-devis/internal/xlsx"
)

// XLSXExporter renders the spreadsheet export; xlsx.Export by default.
type XLSXExporter func(ctx context.Context, doc models.Document) ([]byte, error)

// DocumentHandler exposes the edited document over JSON.
type DocumentHandler struct {
	store *services.Store
	pdf   pdf.Generator
	xlsx  XLSXExporter
	log   *logger.Logger
}

// NewDocumentHandler returns a handler editing store and exporting through gen.
func NewDocumentHandler(store *services.Store, gen pdf.Generator, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{store: store, pdf: gen, xlsx: xlsx.Export, log: log.Named("handlers")}
}

// Get returns the current document.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store.Document())
}

// Update merges a partial document.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p services.Patch
	if err := httpx.DecodeJSON(w, r, &p); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	v := make(validation.Violations)
	validatePatch(p, h.store.Document().Type, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	httpx.JSON(w, http.StatusOK, h.store.Update(r.Context(), p))
}

// validatePatch checks p against the document type it will produce: quotes carry
// only the expiration pair and invoices only the due pair.
func validatePatch(p services.Patch, current models.DocType, v validation.Violations) {
	target := current
	if p.Type != nil {
		validation.OneOf("type", string(*p.Type), []string{string(models.TypeQuote), string(models.TypeInvoice)}, v)
		if p.Type.Valid() {
			target = *p.Type
		}
	}
	if target == models.TypeQuote {
		validation.Absent("dueDate", p.DueDate != nil && *p.DueDate != "", v)
		validation.Absent("dueDays", p.DueDays != nil && *p.DueDays != 0, v)
	} else {
		validation.Absent("expirationDate", p.ExpirationDate != nil && *p.ExpirationDate != "", v)
		validation.Absent("expirationDays", p.ExpirationDays != nil && *p.ExpirationDays != 0, v)
	}
	if p.Number != nil {
		validation.NonNegativeInt("number", *p.Number, v)
	}
	if p.Date != nil {
		validation.Required("date", *p.Date, v)
		validation.Date("date", *p.Date, v)
	}
	if p.DueDate != nil {
		validation.Date("dueDate", *p.DueDate, v)
	}
	if p.ExpirationDate != nil {
		validation.Date("expirationDate", *p.ExpirationDate, v)
	}
	if p.DueDays != nil {
		validation.NonNegativeInt("dueDays", *p.DueDays, v)
	}
	if p.ExpirationDays != nil && target == models.TypeQuote {
		validation.OneOfInt("expirationDays", *p.ExpirationDays, models.ValidExpirationDays, v)
	}
	if p.VatRate != nil {
		validation.RangeFloat("vatRate", *p.VatRate, 0, 100, v)
	}
	for _, l := range p.Lines {
		validateLine(l.ID, &l.Quantity, &l.UnitPrice, v)
	}
}

func validateLine(id string, quantity, unitPrice *float64, v validation.Violations) {
	prefix := "lines"
	if id != "" {
		prefix += "." + id
	}
	if quantity != nil {
		validation.NonNegativeFloat(prefix+".quantity", *quantity, v)
	}
	if unitPrice != nil {
		validation.NonNegativeFloat(prefix+".unitPrice", *unitPrice, v)
	}
}

// Toggle switches between quote and invoice.
func (h *DocumentHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store.ToggleType(r.Context()))
}

// Reset starts a new blank document of the current type.
func (h *DocumentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store.Reset(r.Context()))
}

// AddLine appends a blank line.
func (h *DocumentHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	doc, id := h.store.AddLine(r.Context())
	w.Header().Set("Location", "/document/lines/"+id)
	httpx.JSON(w, http.StatusCreated, doc)
}

// UpdateLine edits one line; quantity or unit price changes recompute its total.
func (h *DocumentHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var p models.LinePatch
	if err := httpx.DecodeJSON(w, r, &p); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := make(validation.Violations)
	validateLine("", p.Quantity, p.UnitPrice, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	doc, err := h.store.UpdateLine(r.Context(), r.PathValue("id"), p)
	if err != nil {
		h.lineError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

// RemoveLine deletes one line; the last line cannot be removed.
func (h *DocumentHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.RemoveLine(r.Context(), r.PathValue("id"))
	if err != nil {
		h.lineError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) lineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrLineNotFound):
		httpx.JSONError(w, http.StatusNotFound, "line_not_found", nil)
	case errors.Is(err, models.ErrLastLine):
		httpx.JSONError(w, http.StatusConflict, "last_line", nil)
	default:
		h.log.Errorw("line update failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// ExportJSON downloads the document as {type}_{number}.json.
func (h *DocumentHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Document()
	data, err := services.ExportJSON(doc)
	if err != nil {
		h.log.Errorw("json export failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.Attachment(w, "application/json", services.ExportFilename(doc, "json"), data)
}

// Import replaces the document with an uploaded JSON export.
func (h *DocumentHandler) Import(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadBody(w, r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_import", err.Error())
		return
	}
	doc, err := h.store.Import(r.Context(), body)
	switch {
	case errors.Is(err, services.ErrInvalidJSON), errors.Is(err, services.ErrNotObject):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_import", err.Error())
	case err != nil:
		h.log.Errorw("import failed", "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "import_failed", nil)
	default:
		httpx.JSON(w, http.StatusOK, doc)
	}
}

// ExportPDF renders the current document synchronously.
func (h *DocumentHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Document()
	data, err := h.pdf.Render(r.Context(), doc)
	if err != nil {
		h.log.Errorw("pdf export failed", "document", doc.ID, "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	httpx.Attachment(w, "application/pdf", services.ExportFilename(doc, "pdf"), data)
}

// ExportXLSX downloads the line table as a spreadsheet.
func (h *DocumentHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Document()
	data, err := h.xlsx(r.Context(), doc)
	if err != nil {
		h.log.Errorw("xlsx export failed", "document", doc.ID, "error", err)
		httpx.JSONError(w, http.StatusInternalServerError, "xlsx_generation_failed", nil)
		return
	}
	httpx.Attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		services.ExportFilename(doc, "xlsx"), data)
}
