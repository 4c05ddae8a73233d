package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloo-solutions/ragengine/internal/api"
	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/pagination"
	"github.com/cloo-solutions/ragengine/internal/service"
	"github.com/go-chi/chi/v5"
)

type DocumentService interface {
	List(ctx context.Context, input service.ListDocumentsInput) (*pagination.PageResult[domain.DocumentSummary], error)
	Delete(ctx context.Context, filename string) (int64, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type DocumentResponse struct {
	Filename     string `json:"filename"`
	ChunkCount   int    `json:"chunk_count"`
	LastIngested string `json:"last_ingested"`
}

type ListDocumentsResponse struct {
	Items      []*DocumentResponse `json:"items"`
	NextCursor string              `json:"next_cursor,omitempty"`
	HasMore    bool                `json:"has_more"`
}

type DeleteDocumentResponse struct {
	Filename string `json:"filename"`
	Deleted  int64  `json:"deleted"`
}

func documentToResponse(d domain.DocumentSummary) *DocumentResponse {
	return &DocumentResponse{
		Filename:     d.Filename,
		ChunkCount:   d.ChunkCount,
		LastIngested: d.LastIngested.UTC().Format(time.RFC3339),
	}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	input := service.ListDocumentsInput{
		Cursor: r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		input.Limit = limit
	}

	page, err := h.svc.List(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := ListDocumentsResponse{
		Items:      make([]*DocumentResponse, 0, len(page.Items)),
		NextCursor: page.Cursor,
		HasMore:    page.HasMore,
	}
	for _, d := range page.Items {
		resp.Items = append(resp.Items, documentToResponse(d))
	}

	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when it is set, leaving the parameter escaped.
	filename := chi.URLParam(r, "filename")
	var err error
	if r.URL.RawPath != "" {
		filename, err = url.PathUnescape(filename)
	}
	if err != nil || filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	deleted, err := h.svc.Delete(r.Context(), filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DeleteDocumentResponse{Filename: filename, Deleted: deleted})
}
