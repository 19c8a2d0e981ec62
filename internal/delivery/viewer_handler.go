package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/flipbook/internal/ports"
	"github.com/Vovarama1992/flipbook/internal/viewer"
)

type ViewerHandler struct {
	svc viewer.Service
}

func NewViewerHandler(svc viewer.Service) *ViewerHandler {
	return &ViewerHandler{svc: svc}
}

type bookResponse struct {
	*viewer.Book
	PageCount   int  `json:"page_count"`
	CurrentPage int  `json:"current_page"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// GET /v/{id}?page=N
func (h *ViewerHandler) Open(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ebook not found", "home": "/"})
			return
		}
		writeError(w, err)
		return
	}

	start, _ := strconv.Atoi(r.URL.Query().Get("page"))
	nav := viewer.NewNavigator(b.PageCount(), start)

	writeJSON(w, http.StatusOK, bookResponse{
		Book:        b,
		PageCount:   nav.PageCount(),
		CurrentPage: nav.CurrentPage(),
		HasNext:     nav.HasNext(),
		HasPrev:     nav.HasPrev(),
	})
}

// GET /v/{id}/pages/{n}
func (h *ViewerHandler) Page(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page"})
		return
	}

	b, err := h.svc.Open(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if n >= b.PageCount() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "page not found"})
		return
	}

	// картинки уже лежат в хранилище
	if b.Type != ports.TypePDF {
		http.Redirect(w, r, b.Pages[n], http.StatusFound)
		return
	}

	p, err := h.svc.RenderPage(r.Context(), id, n)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", p.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	_, _ = w.Write(p.Data)
}
