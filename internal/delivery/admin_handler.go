package delivery

import (
	"net/http"

	"github.com/Vovarama1992/flipbook/internal/ports"
	"github.com/Vovarama1992/flipbook/internal/session"
)

type AdminHandler struct {
	ebooks ports.EbookService
	users  session.Service
}

func NewAdminHandler(ebooks ports.EbookService, users session.Service) *AdminHandler {
	return &AdminHandler{ebooks: ebooks, users: users}
}

// GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	books, err := h.ebooks.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := h.users.CountUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ports.Stats{TotalEbooks: books, TotalUsers: users})
}
