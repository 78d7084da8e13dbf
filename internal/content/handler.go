package content

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/civicsprep/backend/internal/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers content endpoints on the protected subrouter.
func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/collections", h.ListCollections).Methods("GET")
	protected.HandleFunc("/collections/{id}", h.GetCollection).Methods("GET")
	protected.HandleFunc("/topics", h.ListTopics).Methods("GET")
	protected.HandleFunc("/topics/{id}", h.GetTopic).Methods("GET")
	protected.HandleFunc("/topics/{id}/progress", h.SetTopicProgress).Methods("POST")
	protected.HandleFunc("/topics/{id}/sources/import", h.ImportSources).Methods("POST")
	protected.HandleFunc("/history/views", h.GetViewHistory).Methods("GET")
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "page_size", 20)
	page := intQueryParam(query, "page", 1)
	if page < 1 {
		page = 1
	}

	collections, total, err := h.service.ListCollections(limit, (page-1)*limit)
	if err != nil {
		log.Printf("[content] ListCollections error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list collections"})
		return
	}

	if collections == nil {
		collections = []models.Collection{}
	}
	writeJSON(w, http.StatusOK, models.CollectionListResponse{
		Collections: collections,
		Total:       total,
		Page:        page,
		PageSize:    limit,
	})
}

func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	id := mux.Vars(r)["id"]
	collection, err := h.service.GetCollection(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Collection not found"})
		return
	}

	h.service.RecordCollectionView(userID, id)
	writeJSON(w, http.StatusOK, collection)
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "page_size", 20)
	page := intQueryParam(query, "page", 1)
	if page < 1 {
		page = 1
	}

	var collectionID *string
	if cid := query.Get("collection_id"); cid != "" {
		collectionID = &cid
	}

	topics, total, err := h.service.ListTopics(collectionID, limit, (page-1)*limit)
	if err != nil {
		log.Printf("[content] ListTopics error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list topics"})
		return
	}

	if topics == nil {
		topics = []models.Topic{}
	}
	writeJSON(w, http.StatusOK, models.TopicListResponse{
		Topics:   topics,
		Total:    total,
		Page:     page,
		PageSize: limit,
	})
}

func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	topic, err := h.service.GetTopic(userID, mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Topic not found"})
		return
	}

	writeJSON(w, http.StatusOK, topic)
}

func (h *Handler) SetTopicProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.TopicProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Score != nil && (*req.Score < 0 || *req.Score > 100) {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "score must be between 0 and 100"})
		return
	}

	if err := h.service.SetTopicProgress(userID, mux.Vars(r)["id"], req.Completed, req.Score); err != nil {
		log.Printf("[content] SetTopicProgress error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to update progress"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) ImportSources(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	imported, err := h.service.ImportLegacySources(mux.Vars(r)["id"], raw)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Topic not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

func (h *Handler) GetViewHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	items, err := h.service.GetViewHistory(userID)
	if err != nil {
		log.Printf("[content] GetViewHistory error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get view history"})
		return
	}

	if items == nil {
		items = []models.ViewedItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
