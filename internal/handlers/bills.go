package handlers

import (
	"encoding/json"
	"net/http"

	"splitbill/internal/middleware"
	"splitbill/internal/services"
)

type participantPayload struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	UserID *int64 `json:"user_id"`
}

type itemPayload struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	BasePrice      string  `json:"base_price"`
	TaxPercent     string  `json:"tax_percent"`
	ServicePercent string  `json:"service_percent"`
	SplitWith      []int64 `json:"split_with"`
}

type billRequest struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Category     string               `json:"category"`
	Participants []participantPayload `json:"participants"`
	Items        []itemPayload        `json:"items"`
}

func (req billRequest) toInput() (services.BillInput, error) {
	in := services.BillInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Participants: make([]services.ParticipantInput, 0, len(req.Participants)),
		Items:        make([]services.ItemInput, 0, len(req.Items)),
	}
	for _, p := range req.Participants {
		in.Participants = append(in.Participants, services.ParticipantInput{
			ID:     p.ID,
			Name:   p.Name,
			UserID: p.UserID,
		})
	}
	for _, item := range req.Items {
		parsed, err := item.toInput()
		if err != nil {
			return services.BillInput{}, err
		}
		in.Items = append(in.Items, parsed)
	}
	return in, nil
}

func (item itemPayload) toInput() (services.ItemInput, error) {
	basePrice, err := parseAmountMinor(item.BasePrice)
	if err != nil {
		return services.ItemInput{}, err
	}
	taxPercent, err := parsePercent(item.TaxPercent)
	if err != nil {
		return services.ItemInput{}, err
	}
	servicePercent, err := parsePercent(item.ServicePercent)
	if err != nil {
		return services.ItemInput{}, err
	}
	return services.ItemInput{
		ID:             item.ID,
		Name:           item.Name,
		BasePrice:      basePrice,
		TaxPercent:     taxPercent,
		ServicePercent: servicePercent,
		SplitWith:      item.SplitWith,
	}, nil
}

func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	bill, err := h.bills.Create(r.Context(), userID, in)
	if err != nil {
		respondServiceError(w, err, "failed to create bill")
		return
	}
	respondData(w, http.StatusCreated, "bill created successfully", bill)
}

func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	bills, err := h.bills.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "failed to list bills")
		return
	}
	respondData(w, http.StatusOK, "bills retrieved successfully", bills)
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, err := h.bills.Get(r.Context(), userID, billID)
	if err != nil {
		respondServiceError(w, err, "failed to retrieve bill")
		return
	}
	respondData(w, http.StatusOK, "bill retrieved successfully", detail)
}

func (h *Handler) EditBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	bill, err := h.bills.Edit(r.Context(), userID, billID, in)
	if err != nil {
		respondServiceError(w, err, "failed to update bill")
		return
	}
	respondData(w, http.StatusOK, "bill updated successfully", bill)
}

func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.bills.Delete(r.Context(), userID, billID); err != nil {
		respondServiceError(w, err, "failed to delete bill")
		return
	}
	respondData(w, http.StatusOK, "bill deleted successfully", nil)
}
