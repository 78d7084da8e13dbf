package search

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicsprep/backend/internal/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/search", h.Search).Methods("GET")
	protected.HandleFunc("/search/select", h.SelectResult).Methods("POST")
	protected.HandleFunc("/recommendations", h.Recommendations).Methods("GET")
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Query parameter q is required"})
		return
	}

	sections, err := h.service.Search(userID, query)
	if err != nil {
		log.Printf("[search] Search error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Search failed"})
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

func (h *Handler) SelectResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.SelectResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	h.service.RecordSelection(userID, req)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	results, err := h.service.Recommendations(userID, limit)
	if err != nil {
		log.Printf("[search] Recommendations error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load recommendations"})
		return
	}
	writeJSON(w, http.StatusOK, models.RecommendationsResponse{Results: results})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
