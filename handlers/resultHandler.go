package handlers

import (
	"encoding/json"
	"net/http"

	"mcqgen/services"

	"github.com/gorilla/mux"
)

type ResultHandler struct {
	service *services.ResultService
}

func NewResultHandler(service *services.ResultService) *ResultHandler {
	return &ResultHandler{service: service}
}

func (h *ResultHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/results", h.GetAllResults).Methods("GET")
}

func (h *ResultHandler) GetAllResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.GetAllResults()
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve results")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, results)
}

func (h *ResultHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *ResultHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
