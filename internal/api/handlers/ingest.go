package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/cloo-solutions/ragengine/internal/api"
	"github.com/cloo-solutions/ragengine/internal/api/middleware"
	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/telemetry"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type Ingester interface {
	Ingest(ctx context.Context, upload domain.Upload) (int, error)
}

type IngestHandler struct {
	svc Ingester
}

func NewIngestHandler(svc Ingester) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type IngestResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// Ingest accepts a multipart upload in the "file" field and stores its chunks.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, middleware.TooLargeMessage(tooLarge.Limit))
			return
		}
		api.Error(w, http.StatusBadRequest, "No file found")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "No file found")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	upload := domain.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	count, err := h.svc.Ingest(r.Context(), upload)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyFilename) {
			api.Error(w, http.StatusBadRequest, "filename is required")
			return
		}
		log.Printf("ingest %q failed: %v", upload.Filename, err)
		telemetry.CaptureError(r.Context(), err)
		api.Error(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	api.JSON(w, http.StatusOK, IngestResponse{Success: true, Count: count})
}
