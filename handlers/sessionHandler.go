package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"mcqgen/models"
	"mcqgen/services"
	"mcqgen/services/docindex"
	"mcqgen/services/mcq"
	"mcqgen/services/quizsession"

	"github.com/gorilla/mux"
)

const maxUploadBytes = 32 << 20

type SessionHandler struct {
	service *services.SessionService
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/documents", h.UploadDocument).Methods("POST")
	router.HandleFunc("/quiz/generate", h.GenerateQuiz).Methods("POST")
	router.HandleFunc("/quiz/current", h.CurrentQuestion).Methods("GET")
	router.HandleFunc("/quiz/answer", h.SubmitAnswer).Methods("POST")
	router.HandleFunc("/quiz/next", h.Advance).Methods("POST")
	router.HandleFunc("/quiz/summary", h.Summary).Methods("GET")
	router.HandleFunc("/session", h.Teardown).Methods("DELETE")
}

func (h *SessionHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received document upload request")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		log.Printf("[ERROR] Failed to parse multipart form: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Printf("[ERROR] Failed to read uploaded file: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "A PDF file is required in the 'file' field")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		h.writeErrorResponse(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	// Spool to a temp file so the loader gets an io.ReaderAt; the file is
	// removed whether indexing succeeds or fails.
	tmp, err := os.CreateTemp("", "mcq-upload-*.pdf")
	if err != nil {
		log.Printf("[ERROR] Failed to create temp file: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, file)
	if err != nil {
		log.Printf("[ERROR] Failed to save uploaded file: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Failed to save uploaded file")
		return
	}

	index, err := h.service.ProcessDocument(r.Context(), tmp, size)
	if err != nil {
		log.Printf("[ERROR] Document processing failed: %v", err)
		h.writeServiceError(w, err)
		return
	}

	log.Printf("[INFO] Document upload completed successfully")
	h.writeJSONResponse(w, http.StatusCreated, map[string]any{
		"chunks": index.ChunkCount,
	})
}

func (h *SessionHandler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received quiz generation request")

	total, err := h.service.GenerateQuiz(r.Context())
	if err != nil {
		log.Printf("[ERROR] Quiz generation failed: %v", err)
		h.writeServiceError(w, err)
		return
	}

	log.Printf("[INFO] Quiz generation completed successfully")
	h.writeJSONResponse(w, http.StatusCreated, map[string]int{"total": total})
}

func (h *SessionHandler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CurrentQuestion()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, view)
}

func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if strings.TrimSpace(req.SelectedOption) == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "selected_option is required")
		return
	}

	result, err := h.service.SubmitAnswer(req.SelectedOption)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	completed, err := h.service.Advance()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"completed": completed})
}

func (h *SessionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, summary)
}

func (h *SessionHandler) Teardown(w http.ResponseWriter, r *http.Request) {
	h.service.Teardown(r.Context())
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "session reset"})
}

func (h *SessionHandler) writeServiceError(w http.ResponseWriter, err error) {
	var genErr *mcq.GenerationError

	switch {
	case errors.Is(err, services.ErrNoSession), errors.Is(err, quizsession.ErrInvalidState):
		h.writeErrorResponse(w, http.StatusConflict, err.Error())
	case errors.As(err, &genErr):
		h.writeErrorResponse(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, docindex.ErrEmptyDocument):
		h.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *SessionHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *SessionHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
