package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lib/pq"

	"splitbill/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondData writes the success envelope {message, data}.
func respondData(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, map[string]any{
		"message": message,
		"data":    data,
	})
}

// respondError writes the error envelope {status, message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"status":  status,
		"message": message,
	})
}

// respondServiceError maps service sentinel errors onto HTTP statuses;
// anything unclassified falls back to a 500 with the given message.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrForbidden):
		respondError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case isUniqueViolation(err):
		respondError(w, http.StatusConflict, "already exists")
	default:
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
