package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/commandos-health/commandos/internal/auth"
	"github.com/commandos-health/commandos/internal/transport"
	"github.com/commandos-health/commandos/pkg/logger"
)

type ServiceAPI interface {
	Store(ctx context.Context, userID int64, filename string, size int64, r io.Reader, pathPrefix, bucket string) (*Result, error)
	MaxBytes() int64
}

// multipartSlack is headroom over the file-size ceiling for multipart
// boundaries, part headers, and the small form fields.
const multipartSlack = 64 << 10

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("UploadFile: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		h.WriteError(w, http.StatusBadRequest, "request must be multipart/form-data")
		return
	}

	// Cut oversize requests off at the socket before the multipart parser
	// buffers them. The slack covers multipart framing and the form fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.Service.MaxBytes()+multipartSlack)

	// Parse with a memory threshold; larger parts spill to temp files.
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteError(w, http.StatusBadRequest, ErrFileTooLarge.Error())
			return
		}
		h.Logger.Error("UploadFile: failed to parse multipart form", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	pathPrefix := r.FormValue("pathPrefix")
	bucket := r.FormValue("bucket")

	result, err := h.Service.Store(r.Context(), user.ID, header.Filename, header.Size, file, pathPrefix, bucket)
	if err != nil {
		h.Logger.Error("UploadFile: service error", "error", err, "user_id", user.ID, "filename", header.Filename)

		switch err {
		case ErrFileTooLarge, ErrEmptyFile:
			h.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			h.WriteError(w, http.StatusInternalServerError, "failed to store file")
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
