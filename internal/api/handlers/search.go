package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/ragengine/internal/api"
)

type Searcher interface {
	Search(ctx context.Context, query string) string
}

type SearchHandler struct {
	tool Searcher
}

func NewSearchHandler(tool Searcher) *SearchHandler {
	return &SearchHandler{tool: tool}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Result string `json:"result"`
}

// Search runs the document search tool and returns the text the agent
// would receive for the same query.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.tool.Search(r.Context(), strings.TrimSpace(req.Query))
	api.Success(w, http.StatusOK, SearchResponse{Result: result})
}
