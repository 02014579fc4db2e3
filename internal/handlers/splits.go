package handlers

import (
	"net/http"

	"splitbill/internal/middleware"
)

func (h *Handler) SplitSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := h.settlements.SplitSummary(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve split summary")
		return
	}
	respondData(w, http.StatusOK, "split summary retrieved successfully", summary)
}

func (h *Handler) UserSplitDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	otherUserID, err := pathID(r, "otherUserId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	details, err := h.settlements.UserSplitDetails(r.Context(), userID, otherUserID)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve split details")
		return
	}
	respondData(w, http.StatusOK, "split details retrieved successfully", details)
}
