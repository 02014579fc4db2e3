package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"splitbill/internal/models"
)

// Single-item operations. Unlike a bill edit these touch one item, but they
// uphold the same invariant: the owning bill's total is recomputed from its
// items inside the same transaction.

func (s *BillService) CreateItem(ctx context.Context, callerID, billID int64, in ItemInput) (models.BillItem, error) {
	if strings.TrimSpace(in.Name) == "" || in.BasePrice <= 0 {
		return models.BillItem{}, ErrInvalidInput
	}
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BillItem{}, ErrNotFound
		}
		return models.BillItem{}, err
	}
	if bill.UserID != callerID {
		return models.BillItem{}, ErrForbidden
	}
	var itemID int64
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		row := computeItem(in, billID, 0)
		id, err := s.items.Insert(ctx, tx, &row)
		if err != nil {
			return err
		}
		itemID = id
		seats, err := s.billSeats(ctx, tx, billID)
		if err != nil {
			return err
		}
		splits := buildSplits(itemID, row.TotalAmount, in.SplitWith, seats)
		if err := s.splits.InsertMany(ctx, tx, splits); err != nil {
			return err
		}
		if err := s.refreshBillTotal(ctx, tx, billID); err != nil {
			return err
		}
		return s.logItem(ctx, tx, callerID, "item.create", itemID, in.Name, row.TotalAmount)
	})
	if err != nil {
		return models.BillItem{}, err
	}
	return s.items.GetByID(ctx, itemID)
}

// GetItem returns the item with its splits, through the owning bill's graph
// so membership is checked against the joined participant rows.
func (s *BillService) GetItem(ctx context.Context, callerID, itemID int64) (ItemDetail, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ItemDetail{}, ErrNotFound
		}
		return ItemDetail{}, err
	}
	graph, err := s.bills.GetGraph(ctx, item.BillID)
	if err != nil {
		return ItemDetail{}, err
	}
	if !isBillMember(graph, callerID) {
		return ItemDetail{}, ErrForbidden
	}
	for _, candidate := range graph.Items {
		if candidate.Item.ID != itemID {
			continue
		}
		detail := ItemDetail{
			BillItem: candidate.Item,
			SharedBy: make([]string, 0, len(candidate.Splits)),
			Splits:   candidate.Splits,
		}
		for _, split := range candidate.Splits {
			detail.SharedBy = append(detail.SharedBy, split.ParticipantName)
		}
		return detail, nil
	}
	return ItemDetail{}, ErrNotFound
}

// UpdateItem recomputes the item's amounts and, when a SplitWith list is
// supplied, destroys and recreates its splits.
func (s *BillService) UpdateItem(ctx context.Context, callerID, itemID int64, in ItemInput) (models.BillItem, error) {
	if strings.TrimSpace(in.Name) == "" || in.BasePrice <= 0 {
		return models.BillItem{}, ErrInvalidInput
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BillItem{}, ErrNotFound
		}
		return models.BillItem{}, err
	}
	bill, err := s.bills.GetByID(ctx, item.BillID)
	if err != nil {
		return models.BillItem{}, err
	}
	if bill.UserID != callerID {
		return models.BillItem{}, ErrForbidden
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		row := computeItem(in, item.BillID, itemID)
		if err := s.items.Update(ctx, tx, &row); err != nil {
			return err
		}
		if len(in.SplitWith) > 0 {
			if err := s.splits.DeleteByItem(ctx, tx, itemID); err != nil {
				return err
			}
			seats, err := s.billSeats(ctx, tx, item.BillID)
			if err != nil {
				return err
			}
			splits := buildSplits(itemID, row.TotalAmount, in.SplitWith, seats)
			if err := s.splits.InsertMany(ctx, tx, splits); err != nil {
				return err
			}
		}
		if err := s.refreshBillTotal(ctx, tx, item.BillID); err != nil {
			return err
		}
		return s.logItem(ctx, tx, callerID, "item.update", itemID, in.Name, row.TotalAmount)
	})
	if err != nil {
		return models.BillItem{}, err
	}
	return s.items.GetByID(ctx, itemID)
}

func (s *BillService) DeleteItem(ctx context.Context, callerID, itemID int64) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	bill, err := s.bills.GetByID(ctx, item.BillID)
	if err != nil {
		return err
	}
	if bill.UserID != callerID {
		return ErrForbidden
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.splits.DeleteByItem(ctx, tx, itemID); err != nil {
			return err
		}
		if err := s.items.Delete(ctx, tx, itemID); err != nil {
			return err
		}
		if err := s.refreshBillTotal(ctx, tx, item.BillID); err != nil {
			return err
		}
		return s.logItem(ctx, tx, callerID, "item.delete", itemID, item.Name, item.TotalAmount)
	})
}

// billSeats keys the bill's persisted participants by their own ids, the
// form SplitWith references take outside a bill create.
func (s *BillService) billSeats(ctx context.Context, tx *sqlx.Tx, billID int64) (map[int64]seat, error) {
	participants, err := s.participants.ListByBillTx(ctx, tx, billID)
	if err != nil {
		return nil, err
	}
	seats := make(map[int64]seat, len(participants))
	for _, p := range participants {
		seats[p.ID] = seat{id: p.ID, userID: p.UserID}
	}
	return seats, nil
}

func (s *BillService) refreshBillTotal(ctx context.Context, tx *sqlx.Tx, billID int64) error {
	items, err := s.items.ListByBillTx(ctx, tx, billID)
	if err != nil {
		return err
	}
	var total int64
	for _, item := range items {
		total += item.TotalAmount
	}
	return s.bills.SetTotalAmount(ctx, tx, billID, total)
}

func (s *BillService) logItem(ctx context.Context, tx *sqlx.Tx, actorID int64, action string, itemID int64, name string, total int64) error {
	data, _ := json.Marshal(map[string]any{
		"name":         name,
		"total_amount": total,
	})
	return s.audit.Log(ctx, tx, actorID, action, "item", itemID, string(data))
}
