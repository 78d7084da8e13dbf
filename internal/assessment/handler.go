package assessment

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/civicsprep/backend/internal/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers assessment endpoints on the protected
// subrouter. Fixed paths go first so mux never reads them as {id}.
func (h *Handler) RegisterRoutes(protected *mux.Router) {
	protected.HandleFunc("/assessments/cooldown", h.CooldownStatus).Methods("GET")
	protected.HandleFunc("/assessments/review", h.LatestReview).Methods("GET")
	protected.HandleFunc("/assessments/resume", h.ResumeCheck).Methods("GET")
	protected.HandleFunc("/assessments", h.StartSession).Methods("POST")
	protected.HandleFunc("/assessments/{id}", h.GetState).Methods("GET")
	protected.HandleFunc("/assessments/{id}", h.Discard).Methods("DELETE")
	protected.HandleFunc("/assessments/{id}/resume", h.Resume).Methods("POST")
	protected.HandleFunc("/assessments/{id}/answers", h.SubmitAnswer).Methods("POST")
	protected.HandleFunc("/assessments/{id}/advance", h.Advance).Methods("POST")
	protected.HandleFunc("/assessments/{id}/complete", h.Complete).Methods("POST")
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	state, err := h.service.StartSession(userID, req)
	if err != nil {
		var cdErr *CooldownError
		switch {
		case errors.As(err, &cdErr):
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":    "Assessment is in cooldown",
				"cooldown": cdErr.Status,
			})
		case errors.Is(err, ErrInvalidType):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Unknown assessment type"})
		case errors.Is(err, ErrNoQuestions):
			writeJSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{Error: "No questions available for this assessment"})
		default:
			log.Printf("[assessment] StartSession error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start assessment"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, state)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	state, err := h.service.GetState(userID, mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err, "Failed to load assessment")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.QuestionID == "" || req.Answer == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "question_id and answer are required"})
		return
	}

	resp, err := h.service.SubmitAnswer(userID, mux.Vars(r)["id"], req)
	if err != nil {
		writeSessionError(w, err, "Failed to submit answer")
		return
	}
	if !resp.Accepted {
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.Advance(userID, mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err, "Failed to advance")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.Complete(userID, mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err, "Failed to complete assessment")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ResumeCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.ResumeCheck(userID, assessmentTypeParam(r))
	if err != nil {
		if errors.Is(err, ErrInvalidType) {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Unknown assessment type"})
			return
		}
		log.Printf("[assessment] ResumeCheck error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to check for interrupted sessions"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	state, err := h.service.Resume(userID, mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err, "Failed to resume assessment")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.service.Discard(userID, mux.Vars(r)["id"]); err != nil {
		writeSessionError(w, err, "Failed to discard assessment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CooldownStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	status, err := h.service.CooldownStatus(userID, assessmentTypeParam(r))
	if err != nil {
		if errors.Is(err, ErrInvalidType) {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Unknown assessment type"})
			return
		}
		log.Printf("[assessment] CooldownStatus error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to check cooldown"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) LatestReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	review, err := h.service.LatestReview(userID, assessmentTypeParam(r))
	if err != nil {
		if errors.Is(err, ErrInvalidType) {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Unknown assessment type"})
			return
		}
		log.Printf("[assessment] LatestReview error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load review"})
		return
	}
	if review == nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No completed assessments"})
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// assessmentTypeParam reads ?type=, defaulting to the civics test since
// that is the only gated type.
func assessmentTypeParam(r *http.Request) models.AssessmentType {
	t := r.URL.Query().Get("type")
	if t == "" {
		return models.TypeCivicsTest
	}
	return models.AssessmentType(t)
}

func writeSessionError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Assessment session not found"})
	case errors.Is(err, ErrNotOwner):
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Not your session"})
	default:
		log.Printf("[assessment] %s: %v", fallback, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: fallback})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
