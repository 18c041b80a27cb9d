package handlers

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/httpx"
	"github.com/diewo77/go-devis/internal/preview"
)

// PreviewHandler serves the debounced PDF preview.
type PreviewHandler struct {
	previewer *preview.Previewer
}

// NewPreviewHandler returns a handler serving the previews of p.
func NewPreviewHandler(p *preview.Previewer) *PreviewHandler {
	return &PreviewHandler{previewer: p}
}

// Show returns the latest rendered preview. While a newer render is pending the
// previous one is served; X-Preview-Pending tells the client to poll again.
func (h *PreviewHandler) Show(w http.ResponseWriter, r *http.Request) {
	snap, err := h.previewer.Snapshot()
	switch {
	case errors.Is(err, preview.ErrNoPreview):
		w.Header().Set("Retry-After", "1")
		httpx.JSONError(w, http.StatusServiceUnavailable, "preview_pending", h.previewer.Status())
		return
	case err != nil:
		httpx.JSONError(w, http.StatusServiceUnavailable, "render_failed", map[string]string{
			"message": err.Error(),
			"retry":   "POST /preview/retry",
		})
		return
	}
	st := h.previewer.Status()
	if st.Pending {
		w.Header().Set("X-Preview-Pending", "true")
	}
	if st.Error != "" {
		w.Header().Set("X-Preview-Error", st.Error)
	}
	httpx.Inline(w, "application/pdf", snap.Data)
}

// Status reports whether a render is pending and the last render error.
func (h *PreviewHandler) Status(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.previewer.Status())
}

// Retry clears the render error and renders the current document now.
func (h *PreviewHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if err := h.previewer.Retry(r.Context()); err != nil {
		if errors.Is(err, preview.ErrNoPreview) {
			httpx.JSONError(w, http.StatusConflict, "no_document", nil)
			return
		}
		httpx.JSONError(w, http.StatusServiceUnavailable, "render_failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, h.previewer.Status())
}
