package handlers

import (
	"encoding/json"
	"net/http"

	"splitbill/internal/middleware"
)

type itemRequest struct {
	BillID int64 `json:"bill_id"`
	itemPayload
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.BillID <= 0 {
		respondError(w, http.StatusBadRequest, "bill_id is required")
		return
	}
	in, err := req.itemPayload.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.bills.CreateItem(r.Context(), userID, req.BillID, in)
	if err != nil {
		respondServiceError(w, err, "failed to create item")
		return
	}
	respondData(w, http.StatusCreated, "item created successfully", item)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, err := h.bills.GetItem(r.Context(), userID, itemID)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve item")
		return
	}
	respondData(w, http.StatusOK, "item retrieved successfully", detail)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req itemPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.bills.UpdateItem(r.Context(), userID, itemID, in)
	if err != nil {
		respondServiceError(w, err, "failed to update item")
		return
	}
	respondData(w, http.StatusOK, "item updated successfully", item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.bills.DeleteItem(r.Context(), userID, itemID); err != nil {
		respondServiceError(w, err, "failed to delete item")
		return
	}
	respondData(w, http.StatusOK, "item deleted successfully", nil)
}
