package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"splitbill/internal/auth"
	"splitbill/internal/middleware"
	"splitbill/internal/websocket"
)

type paymentUpdateRequest struct {
	SplitIDs      []int64 `json:"split_ids"`
	PaymentStatus string  `json:"payment_status"`
}

func (h *Handler) UpdatePayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req paymentUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	updated, err := h.payments.UpdateStatuses(r.Context(), userID, req.SplitIDs, req.PaymentStatus)
	if err != nil {
		respondServiceError(w, err, "failed to update payment status")
		return
	}
	respondData(w, http.StatusOK, fmt.Sprintf("updated %d payment(s)", updated), map[string]int{"updated": updated})
}

func (h *Handler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := pathID(r, "billId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.payments.BillPaymentSummary(r.Context(), userID, billID)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve payment summary")
		return
	}
	respondData(w, http.StatusOK, "payment summary retrieved successfully", summary)
}

func (h *Handler) WSPayments(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
