package websocket

import (
	"encoding/json"
	"sync"
)

// PaymentUpdate is pushed to the bill creator and the affected participant
// whenever a split's payment status changes.
type PaymentUpdate struct {
	SplitID           int64  `json:"split_id"`
	BillID            int64  `json:"bill_id"`
	ParticipantUserID *int64 `json:"participant_user_id,omitempty"`
	Amount            string `json:"amount"`
	Status            string `json:"status"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID int64, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID int64, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) BroadcastPayment(userID int64, update PaymentUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
