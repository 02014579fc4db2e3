package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"splitbill/internal/db"
	"splitbill/internal/models"
	"splitbill/internal/money"
	"splitbill/internal/store"
)

// ParticipantInput carries a caller-supplied id: on create it is a
// provisional id referenced by items' SplitWith lists; on edit a value
// matching an existing participant means update-in-place, anything else
// means insert.
type ParticipantInput struct {
	ID     int64
	Name   string
	UserID *int64
}

type ItemInput struct {
	ID             int64
	Name           string
	BasePrice      int64
	TaxPercent     decimal.Decimal
	ServicePercent decimal.Decimal
	SplitWith      []int64
}

type BillInput struct {
	Name         string
	Description  string
	Category     string
	Participants []ParticipantInput
	Items        []ItemInput
}

type ParticipantSummary struct {
	models.BillParticipant
	TotalAmount   int64 `json:"total_amount"`
	PendingAmount int64 `json:"pending_amount"`
	PaidAmount    int64 `json:"paid_amount"`
}

type ItemDetail struct {
	models.BillItem
	SharedBy []string          `json:"shared_by"`
	Splits   []store.SplitSeat `json:"splits"`
}

type BillDetail struct {
	models.Bill
	CreatorName  string               `json:"creator_name"`
	CreatorEmail string               `json:"creator_email"`
	Participants []ParticipantSummary `json:"participants"`
	Items        []ItemDetail         `json:"items"`
}

type BillStore interface {
	Create(ctx context.Context, tx store.Getter, bill *models.Bill) (int64, error)
	UpdateScalars(ctx context.Context, tx store.Execer, bill *models.Bill) error
	SetTotalAmount(ctx context.Context, tx store.Execer, billID, total int64) error
	Delete(ctx context.Context, tx store.Execer, billID int64) error
	GetByID(ctx context.Context, billID int64) (models.Bill, error)
	GetGraph(ctx context.Context, billID int64) (store.BillGraph, error)
	ListForUser(ctx context.Context, userID int64) ([]store.BillWithCreator, error)
}

type ParticipantStore interface {
	Insert(ctx context.Context, tx store.Getter, p *models.BillParticipant) (int64, error)
	Update(ctx context.Context, tx store.Execer, p *models.BillParticipant) error
	Delete(ctx context.Context, tx store.Execer, participantID int64) error
	DeleteByBill(ctx context.Context, tx store.Execer, billID int64) error
	ListByBillTx(ctx context.Context, tx store.Selecter, billID int64) ([]models.BillParticipant, error)
}

type ItemStore interface {
	Insert(ctx context.Context, tx store.Getter, item *models.BillItem) (int64, error)
	Update(ctx context.Context, tx store.Execer, item *models.BillItem) error
	Delete(ctx context.Context, tx store.Execer, itemID int64) error
	DeleteByBill(ctx context.Context, tx store.Execer, billID int64) error
	GetByID(ctx context.Context, itemID int64) (models.BillItem, error)
	ListByBillTx(ctx context.Context, tx store.Selecter, billID int64) ([]models.BillItem, error)
}

type SplitWriter interface {
	InsertMany(ctx context.Context, tx store.Execer, splits []models.ItemSplit) error
	DeleteByItem(ctx context.Context, tx store.Execer, itemID int64) error
	DeleteByParticipant(ctx context.Context, tx store.Execer, participantID int64) error
	DeleteByBill(ctx context.Context, tx store.Execer, billID int64) error
}

type UserReader interface {
	GetByID(ctx context.Context, userID int64) (models.User, error)
}

type AuditLogger interface {
	Log(ctx context.Context, tx store.Execer, actorID int64, action, entityType string, entityID int64, data string) error
}

// BillService is the bill mutation engine: transactional create, edit
// (full-replace reconciliation of participants, items, and splits), delete,
// and the read paths over a bill and its nested rows.
type BillService struct {
	txRunner     db.TxRunner
	bills        BillStore
	participants ParticipantStore
	items        ItemStore
	splits       SplitWriter
	users        UserReader
	audit        AuditLogger
}

func NewBillService(txRunner db.TxRunner, bills BillStore, participants ParticipantStore, items ItemStore, splits SplitWriter, users UserReader, audit AuditLogger) *BillService {
	return &BillService{
		txRunner:     txRunner,
		bills:        bills,
		participants: participants,
		items:        items,
		splits:       splits,
		users:        users,
		audit:        audit,
	}
}

// seat tracks the persisted id and registered user of one participant, by
// whichever id the caller used to reference it in SplitWith lists.
type seat struct {
	id     int64
	userID *int64
}

func validateBillInput(in BillInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidInput
	}
	for _, p := range in.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return ErrInvalidInput
		}
	}
	for _, item := range in.Items {
		if strings.TrimSpace(item.Name) == "" || item.BasePrice <= 0 {
			return ErrInvalidInput
		}
	}
	return nil
}

func computeItem(in ItemInput, billID, itemID int64) models.BillItem {
	taxAmount := money.Percent(in.BasePrice, in.TaxPercent)
	serviceAmount := money.Percent(in.BasePrice, in.ServicePercent)
	return models.BillItem{
		ID:             itemID,
		BillID:         billID,
		Name:           in.Name,
		BasePrice:      in.BasePrice,
		TaxPercent:     in.TaxPercent.String(),
		TaxAmount:      taxAmount,
		ServicePercent: in.ServicePercent.String(),
		ServiceAmount:  serviceAmount,
		TotalAmount:    in.BasePrice + taxAmount + serviceAmount,
	}
}

// buildSplits resolves a SplitWith list through the seat map and divides the
// item total evenly; the division remainder goes one minor unit at a time to
// the earliest resolved participants. Unresolvable references are logged and
// skipped, never fatal.
func buildSplits(itemID, total int64, splitWith []int64, seats map[int64]seat) []models.ItemSplit {
	resolved := make([]seat, 0, len(splitWith))
	for _, ref := range splitWith {
		st, ok := seats[ref]
		if !ok {
			log.Printf("skipping unresolved participant reference %d for item %d", ref, itemID)
			continue
		}
		resolved = append(resolved, st)
	}
	if len(resolved) == 0 {
		return nil
	}
	shares := money.SplitEven(total, len(resolved))
	splits := make([]models.ItemSplit, len(resolved))
	for i, st := range resolved {
		splits[i] = models.ItemSplit{
			BillItemID:        itemID,
			BillParticipantID: st.id,
			UserID:            st.userID,
			ShareAmount:       shares[i],
			PaymentStatus:     models.PaymentPending,
		}
	}
	return splits
}

func (s *BillService) Create(ctx context.Context, creatorID int64, in BillInput) (models.Bill, error) {
	if err := validateBillInput(in); err != nil {
		return models.Bill{}, err
	}
	var total int64
	computed := make([]models.BillItem, len(in.Items))
	for i, item := range in.Items {
		computed[i] = computeItem(item, 0, 0)
		total += computed[i].TotalAmount
	}
	var billID int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		bill := models.Bill{
			Name:        in.Name,
			Description: in.Description,
			Category:    defaultCategory(in.Category),
			TotalAmount: total,
			UserID:      creatorID,
		}
		id, err := s.bills.Create(ctx, tx, &bill)
		if err != nil {
			return err
		}
		billID = id

		seats := make(map[int64]seat, len(in.Participants))
		for _, p := range in.Participants {
			participant := models.BillParticipant{
				Name:      p.Name,
				UserID:    p.UserID,
				BillID:    billID,
				IsCreator: p.UserID != nil && *p.UserID == creatorID,
			}
			pid, err := s.participants.Insert(ctx, tx, &participant)
			if err != nil {
				return err
			}
			if p.ID != 0 {
				seats[p.ID] = seat{id: pid, userID: p.UserID}
			}
		}

		for i, item := range in.Items {
			row := computed[i]
			row.BillID = billID
			itemID, err := s.items.Insert(ctx, tx, &row)
			if err != nil {
				return err
			}
			splits := buildSplits(itemID, row.TotalAmount, item.SplitWith, seats)
			if err := s.splits.InsertMany(ctx, tx, splits); err != nil {
				return err
			}
		}
		return s.logBill(ctx, tx, creatorID, "bill.create", billID, in.Name, total)
	})
	if err != nil {
		return models.Bill{}, err
	}
	return s.bills.GetByID(ctx, billID)
}

// Edit is a full-replace reconciliation: incoming participants and items are
// partitioned into update-in-place and insert by presence of a matching
// existing id, the complement is deleted (splits first), and every incoming
// item's splits are rebuilt from scratch.
func (s *BillService) Edit(ctx context.Context, callerID, billID int64, in BillInput) (models.Bill, error) {
	if err := validateBillInput(in); err != nil {
		return models.Bill{}, err
	}
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Bill{}, ErrNotFound
		}
		return models.Bill{}, err
	}
	if bill.UserID != callerID {
		return models.Bill{}, ErrForbidden
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		bill.Name = in.Name
		bill.Description = in.Description
		bill.Category = defaultCategory(in.Category)
		if err := s.bills.UpdateScalars(ctx, tx, &bill); err != nil {
			return err
		}

		seats, err := s.reconcileParticipants(ctx, tx, billID, callerID, in.Participants)
		if err != nil {
			return err
		}
		total, err := s.reconcileItems(ctx, tx, billID, in.Items, seats)
		if err != nil {
			return err
		}
		if err := s.bills.SetTotalAmount(ctx, tx, billID, total); err != nil {
			return err
		}
		return s.logBill(ctx, tx, callerID, "bill.update", billID, in.Name, total)
	})
	if err != nil {
		return models.Bill{}, err
	}
	return s.bills.GetByID(ctx, billID)
}

func (s *BillService) reconcileParticipants(ctx context.Context, tx *sqlx.Tx, billID, creatorID int64, incoming []ParticipantInput) (map[int64]seat, error) {
	existing, err := s.participants.ListByBillTx(ctx, tx, billID)
	if err != nil {
		return nil, err
	}
	existingByID := make(map[int64]models.BillParticipant, len(existing))
	for _, p := range existing {
		existingByID[p.ID] = p
	}
	seats := make(map[int64]seat, len(incoming))
	retained := make(map[int64]bool, len(incoming))
	for _, p := range incoming {
		isCreator := p.UserID != nil && *p.UserID == creatorID
		if _, ok := existingByID[p.ID]; ok {
			row := models.BillParticipant{
				ID:        p.ID,
				Name:      p.Name,
				UserID:    p.UserID,
				BillID:    billID,
				IsCreator: isCreator,
			}
			if err := s.participants.Update(ctx, tx, &row); err != nil {
				return nil, err
			}
			retained[p.ID] = true
			seats[p.ID] = seat{id: p.ID, userID: p.UserID}
			continue
		}
		row := models.BillParticipant{
			Name:      p.Name,
			UserID:    p.UserID,
			BillID:    billID,
			IsCreator: isCreator,
		}
		pid, err := s.participants.Insert(ctx, tx, &row)
		if err != nil {
			return nil, err
		}
		if p.ID != 0 {
			seats[p.ID] = seat{id: pid, userID: p.UserID}
		}
	}
	for _, p := range existing {
		if retained[p.ID] {
			continue
		}
		// splits reference the participant, so they go first
		if err := s.splits.DeleteByParticipant(ctx, tx, p.ID); err != nil {
			return nil, err
		}
		if err := s.participants.Delete(ctx, tx, p.ID); err != nil {
			return nil, err
		}
	}
	return seats, nil
}

func (s *BillService) reconcileItems(ctx context.Context, tx *sqlx.Tx, billID int64, incoming []ItemInput, seats map[int64]seat) (int64, error) {
	existing, err := s.items.ListByBillTx(ctx, tx, billID)
	if err != nil {
		return 0, err
	}
	existingIDs := make(map[int64]bool, len(existing))
	for _, item := range existing {
		existingIDs[item.ID] = true
	}
	var total int64
	retained := make(map[int64]bool, len(incoming))
	for _, in := range incoming {
		row := computeItem(in, billID, in.ID)
		total += row.TotalAmount
		itemID := in.ID
		if existingIDs[in.ID] {
			if err := s.items.Update(ctx, tx, &row); err != nil {
				return 0, err
			}
			retained[in.ID] = true
		} else {
			row.ID = 0
			id, err := s.items.Insert(ctx, tx, &row)
			if err != nil {
				return 0, err
			}
			itemID = id
		}
		// splits are always rebuilt, never diffed
		if err := s.splits.DeleteByItem(ctx, tx, itemID); err != nil {
			return 0, err
		}
		splits := buildSplits(itemID, row.TotalAmount, in.SplitWith, seats)
		if err := s.splits.InsertMany(ctx, tx, splits); err != nil {
			return 0, err
		}
	}
	for _, item := range existing {
		if retained[item.ID] {
			continue
		}
		if err := s.splits.DeleteByItem(ctx, tx, item.ID); err != nil {
			return 0, err
		}
		if err := s.items.Delete(ctx, tx, item.ID); err != nil {
			return 0, err
		}
	}
	return total, nil
}

func (s *BillService) Delete(ctx context.Context, callerID, billID int64) error {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if bill.UserID != callerID {
		return ErrForbidden
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.splits.DeleteByBill(ctx, tx, billID); err != nil {
			return err
		}
		if err := s.items.DeleteByBill(ctx, tx, billID); err != nil {
			return err
		}
		if err := s.participants.DeleteByBill(ctx, tx, billID); err != nil {
			return err
		}
		if err := s.bills.Delete(ctx, tx, billID); err != nil {
			return err
		}
		return s.logBill(ctx, tx, callerID, "bill.delete", billID, bill.Name, bill.TotalAmount)
	})
}

// Get resolves a bill with creator info, per-participant totals, and each
// item's participant names. Callers outside the bill get ErrForbidden.
func (s *BillService) Get(ctx context.Context, callerID, billID int64) (BillDetail, error) {
	graph, err := s.bills.GetGraph(ctx, billID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BillDetail{}, ErrNotFound
		}
		return BillDetail{}, err
	}
	if !isBillMember(graph, callerID) {
		return BillDetail{}, ErrForbidden
	}
	creator, err := s.users.GetByID(ctx, graph.Bill.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return BillDetail{}, err
	}

	totals := make(map[int64]*ParticipantSummary, len(graph.Participants))
	detail := BillDetail{
		Bill:         graph.Bill,
		CreatorName:  creator.Name,
		CreatorEmail: creator.Email,
		Participants: make([]ParticipantSummary, 0, len(graph.Participants)),
		Items:        make([]ItemDetail, 0, len(graph.Items)),
	}
	for _, p := range graph.Participants {
		detail.Participants = append(detail.Participants, ParticipantSummary{BillParticipant: p})
		totals[p.ID] = &detail.Participants[len(detail.Participants)-1]
	}
	for _, item := range graph.Items {
		itemDetail := ItemDetail{
			BillItem: item.Item,
			SharedBy: make([]string, 0, len(item.Splits)),
			Splits:   item.Splits,
		}
		for _, split := range item.Splits {
			itemDetail.SharedBy = append(itemDetail.SharedBy, split.ParticipantName)
			if summary, ok := totals[split.BillParticipantID]; ok {
				summary.TotalAmount += split.ShareAmount
				if split.PaymentStatus == models.PaymentCompleted {
					summary.PaidAmount += split.ShareAmount
				} else {
					summary.PendingAmount += split.ShareAmount
				}
			}
		}
		detail.Items = append(detail.Items, itemDetail)
	}
	return detail, nil
}

func (s *BillService) List(ctx context.Context, callerID int64) ([]store.BillWithCreator, error) {
	return s.bills.ListForUser(ctx, callerID)
}

func isBillMember(graph store.BillGraph, userID int64) bool {
	if graph.Bill.UserID == userID {
		return true
	}
	for _, p := range graph.Participants {
		if p.UserID != nil && *p.UserID == userID {
			return true
		}
	}
	return false
}

func defaultCategory(category string) string {
	if strings.TrimSpace(category) == "" {
		return "etc"
	}
	return category
}

func (s *BillService) logBill(ctx context.Context, tx *sqlx.Tx, actorID int64, action string, billID int64, name string, total int64) error {
	data, _ := json.Marshal(map[string]any{
		"name":         name,
		"total_amount": total,
	})
	return s.audit.Log(ctx, tx, actorID, action, "bill", billID, string(data))
}
