package delivery

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"

	"github.com/Vovarama1992/flipbook/internal/domain"
	"github.com/Vovarama1992/flipbook/internal/ports"
	"github.com/Vovarama1992/flipbook/internal/session"
	"github.com/Vovarama1992/flipbook/internal/viewer"
)

const multipartMemory = 32 << 20

type EbookHandler struct {
	svc      ports.EbookService
	log      *logger.ZapLogger
	origin   string
	maxBytes int64
	maxFiles int
}

// NewEbookHandler: пустой origin берём из запроса
func NewEbookHandler(svc ports.EbookService, log *logger.ZapLogger, origin string, maxBytes int64, maxFiles int) *EbookHandler {
	return &EbookHandler{
		svc:      svc,
		log:      log,
		origin:   strings.TrimRight(origin, "/"),
		maxBytes: maxBytes,
		maxFiles: maxFiles,
	}
}

type createdResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Orientation string   `json:"orientation"`
	ShareURL    string   `json:"share_url"`
	Pages       []string `json:"pages"`
	PageCount   int      `json:"page_count"`
}

// POST /ebooks (multipart, поле files)
func (h *EbookHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, session.ErrUnauthorized)
		return
	}

	if h.maxBytes > 0 && h.maxFiles > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*int64(h.maxFiles)+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, ports.ErrUnsupportedInput)
		return
	}
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("too many files: %d, max %d", len(headers), h.maxFiles),
		})
		return
	}

	files := make([]ports.Upload, 0, len(headers))
	for _, fh := range headers {
		if h.maxBytes > 0 && fh.Size > h.maxBytes {
			writeError(w, fmt.Errorf("%w: %s is %s, max %s", ports.ErrTooLarge,
				fh.Filename, humanize.Bytes(uint64(fh.Size)), humanize.Bytes(uint64(h.maxBytes))))
			return
		}

		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read file: " + err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read file: " + err.Error()})
			return
		}

		files = append(files, ports.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	created, err := h.svc.Create(r.Context(), owner, files)
	if err != nil {
		h.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: fmt.Sprintf("create ebook failed: user=%s files=%d", owner.UserID, len(files)),
			Service: "flipbook",
			Error:   err,
		})
		writeError(w, err)
		return
	}

	origin := h.originOf(r)
	e := created.Ebook

	pages := created.PageURLs
	if e.Type == ports.TypePDF {
		pages = make([]string, created.PageCount)
		for i := range pages {
			pages[i] = origin + viewer.PagePath(e.ID, i)
		}
	}

	writeJSON(w, http.StatusCreated, createdResponse{
		ID:          e.ID,
		Title:       e.Title,
		Type:        e.Type,
		Orientation: e.Orientation,
		ShareURL:    domain.ShareURL(origin, e.ID),
		Pages:       pages,
		PageCount:   created.PageCount,
	})
}

func (h *EbookHandler) originOf(r *http.Request) string {
	if h.origin != "" {
		return h.origin
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
