package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"splitbill/internal/db"
	"splitbill/internal/models"
	"splitbill/internal/money"
	"splitbill/internal/store"
	"splitbill/internal/websocket"
)

type ParticipantInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UserID    *int64 `json:"user_id,omitempty"`
	IsCreator bool   `json:"is_creator"`
}

type PaymentLine struct {
	ID       int64  `json:"id"`
	ItemName string `json:"item_name"`
	Amount   int64  `json:"amount"`
	Status   string `json:"status"`
}

type ParticipantPayments struct {
	Participant   ParticipantInfo `json:"participant"`
	TotalAmount   int64           `json:"total_amount"`
	PaidAmount    int64           `json:"paid_amount"`
	PendingAmount int64           `json:"pending_amount"`
	Splits        []PaymentLine   `json:"splits"`
}

type PaymentSummary struct {
	BillID       int64                 `json:"bill_id"`
	BillName     string                `json:"bill_name"`
	TotalAmount  int64                 `json:"total_amount"`
	Participants []ParticipantPayments `json:"participants"`
}

type BillReader interface {
	GetByID(ctx context.Context, billID int64) (models.Bill, error)
}

type ParticipantReader interface {
	ListByBill(ctx context.Context, billID int64) ([]models.BillParticipant, error)
}

type PaymentSplitStore interface {
	ListByIDs(ctx context.Context, splitIDs []int64) ([]store.SplitDetail, error)
	ListByBill(ctx context.Context, billID int64) ([]store.SplitDetail, error)
	UpdateStatus(ctx context.Context, tx store.Execer, splitIDs []int64, status string) error
}

type PaymentHub interface {
	BroadcastPayment(userID int64, update websocket.PaymentUpdate)
}

// PaymentService transitions split payment status in all-or-nothing batches
// and reports per-bill payment positions.
type PaymentService struct {
	txRunner     db.TxRunner
	bills        BillReader
	participants ParticipantReader
	splits       PaymentSplitStore
	audit        AuditLogger
	hub          PaymentHub
}

func NewPaymentService(txRunner db.TxRunner, bills BillReader, participants ParticipantReader, splits PaymentSplitStore, audit AuditLogger, hub PaymentHub) *PaymentService {
	return &PaymentService{
		txRunner:     txRunner,
		bills:        bills,
		participants: participants,
		splits:       splits,
		audit:        audit,
		hub:          hub,
	}
}

// UpdateStatuses authorizes every split before any write: the caller must be
// the bill's creator or the split's own participant (checked against the
// joined participant row, not the denormalized user id). One missing id or
// one failed check rejects the whole batch.
func (s *PaymentService) UpdateStatuses(ctx context.Context, callerID int64, splitIDs []int64, status string) (int, error) {
	if status != models.PaymentPending && status != models.PaymentCompleted {
		return 0, ErrInvalidInput
	}
	if len(splitIDs) == 0 {
		return 0, ErrInvalidInput
	}
	unique := uniqueIDs(splitIDs)
	details, err := s.splits.ListByIDs(ctx, unique)
	if err != nil {
		return 0, err
	}
	if len(details) != len(unique) {
		return 0, ErrNotFound
	}
	for _, detail := range details {
		isCreator := detail.BillUserID == callerID
		isParticipant := detail.ParticipantUserID != nil && *detail.ParticipantUserID == callerID
		if !isCreator && !isParticipant {
			return 0, ErrForbidden
		}
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.splits.UpdateStatus(ctx, tx, unique, status); err != nil {
			return err
		}
		return s.logPayments(ctx, tx, callerID, details, status)
	})
	if err != nil {
		return 0, err
	}
	for _, detail := range details {
		update := websocket.PaymentUpdate{
			SplitID:           detail.ID,
			BillID:            detail.BillID,
			ParticipantUserID: detail.ParticipantUserID,
			Amount:            money.FormatMinor(detail.ShareAmount),
			Status:            status,
		}
		s.hub.BroadcastPayment(detail.BillUserID, update)
		if detail.ParticipantUserID != nil && *detail.ParticipantUserID != detail.BillUserID {
			s.hub.BroadcastPayment(*detail.ParticipantUserID, update)
		}
	}
	return len(details), nil
}

// BillPaymentSummary groups a bill's splits by participant with total, paid,
// and pending amounts. Callers outside the bill get ErrForbidden.
func (s *PaymentService) BillPaymentSummary(ctx context.Context, callerID, billID int64) (PaymentSummary, error) {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PaymentSummary{}, ErrNotFound
		}
		return PaymentSummary{}, err
	}
	participants, err := s.participants.ListByBill(ctx, billID)
	if err != nil {
		return PaymentSummary{}, err
	}
	if !isMember(bill, participants, callerID) {
		return PaymentSummary{}, ErrForbidden
	}
	details, err := s.splits.ListByBill(ctx, billID)
	if err != nil {
		return PaymentSummary{}, err
	}
	summary := PaymentSummary{
		BillID:       bill.ID,
		BillName:     bill.Name,
		TotalAmount:  bill.TotalAmount,
		Participants: []ParticipantPayments{},
	}
	index := make(map[int64]int)
	for _, detail := range details {
		at, ok := index[detail.BillParticipantID]
		if !ok {
			at = len(summary.Participants)
			index[detail.BillParticipantID] = at
			summary.Participants = append(summary.Participants, ParticipantPayments{
				Participant: ParticipantInfo{
					ID:        detail.BillParticipantID,
					Name:      detail.ParticipantName,
					UserID:    detail.ParticipantUserID,
					IsCreator: detail.ParticipantIsCreator,
				},
				Splits: []PaymentLine{},
			})
		}
		group := &summary.Participants[at]
		group.Splits = append(group.Splits, PaymentLine{
			ID:       detail.ID,
			ItemName: detail.ItemName,
			Amount:   detail.ShareAmount,
			Status:   detail.PaymentStatus,
		})
		group.TotalAmount += detail.ShareAmount
		if detail.PaymentStatus == models.PaymentCompleted {
			group.PaidAmount += detail.ShareAmount
		} else {
			group.PendingAmount += detail.ShareAmount
		}
	}
	return summary, nil
}

func isMember(bill models.Bill, participants []models.BillParticipant, userID int64) bool {
	if bill.UserID == userID {
		return true
	}
	for _, p := range participants {
		if p.UserID != nil && *p.UserID == userID {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique
}

func (s *PaymentService) logPayments(ctx context.Context, tx *sqlx.Tx, actorID int64, details []store.SplitDetail, status string) error {
	byBill := make(map[int64][]int64)
	for _, detail := range details {
		byBill[detail.BillID] = append(byBill[detail.BillID], detail.ID)
	}
	for billID, ids := range byBill {
		data, _ := json.Marshal(map[string]any{
			"split_ids": ids,
			"status":    status,
		})
		if err := s.audit.Log(ctx, tx, actorID, "payment.update", "bill", billID, string(data)); err != nil {
			return err
		}
	}
	return nil
}
