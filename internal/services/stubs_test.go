package services

import (
	"context"

	"github.com/jmoiron/sqlx"

	"splitbill/internal/models"
	"splitbill/internal/store"
	"splitbill/internal/websocket"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubBillStore struct {
	createFn        func(ctx context.Context, tx store.Getter, bill *models.Bill) (int64, error)
	updateScalarsFn func(ctx context.Context, tx store.Execer, bill *models.Bill) error
	setTotalFn      func(ctx context.Context, tx store.Execer, billID, total int64) error
	deleteFn        func(ctx context.Context, tx store.Execer, billID int64) error
	getByIDFn       func(ctx context.Context, billID int64) (models.Bill, error)
	getGraphFn      func(ctx context.Context, billID int64) (store.BillGraph, error)
	listForUserFn   func(ctx context.Context, userID int64) ([]store.BillWithCreator, error)
}

func (s stubBillStore) Create(ctx context.Context, tx store.Getter, bill *models.Bill) (int64, error) {
	if s.createFn == nil {
		return 1, nil
	}
	return s.createFn(ctx, tx, bill)
}

func (s stubBillStore) UpdateScalars(ctx context.Context, tx store.Execer, bill *models.Bill) error {
	if s.updateScalarsFn == nil {
		return nil
	}
	return s.updateScalarsFn(ctx, tx, bill)
}

func (s stubBillStore) SetTotalAmount(ctx context.Context, tx store.Execer, billID, total int64) error {
	if s.setTotalFn == nil {
		return nil
	}
	return s.setTotalFn(ctx, tx, billID, total)
}

func (s stubBillStore) Delete(ctx context.Context, tx store.Execer, billID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, tx, billID)
}

func (s stubBillStore) GetByID(ctx context.Context, billID int64) (models.Bill, error) {
	if s.getByIDFn == nil {
		return models.Bill{ID: billID}, nil
	}
	return s.getByIDFn(ctx, billID)
}

func (s stubBillStore) GetGraph(ctx context.Context, billID int64) (store.BillGraph, error) {
	if s.getGraphFn == nil {
		return store.BillGraph{}, nil
	}
	return s.getGraphFn(ctx, billID)
}

func (s stubBillStore) ListForUser(ctx context.Context, userID int64) ([]store.BillWithCreator, error) {
	if s.listForUserFn == nil {
		return nil, nil
	}
	return s.listForUserFn(ctx, userID)
}

type stubParticipantStore struct {
	insertFn       func(ctx context.Context, tx store.Getter, p *models.BillParticipant) (int64, error)
	updateFn       func(ctx context.Context, tx store.Execer, p *models.BillParticipant) error
	deleteFn       func(ctx context.Context, tx store.Execer, participantID int64) error
	deleteByBillFn func(ctx context.Context, tx store.Execer, billID int64) error
	listByBillTxFn func(ctx context.Context, tx store.Selecter, billID int64) ([]models.BillParticipant, error)
}

func (s stubParticipantStore) Insert(ctx context.Context, tx store.Getter, p *models.BillParticipant) (int64, error) {
	if s.insertFn == nil {
		return 1, nil
	}
	return s.insertFn(ctx, tx, p)
}

func (s stubParticipantStore) Update(ctx context.Context, tx store.Execer, p *models.BillParticipant) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, tx, p)
}

func (s stubParticipantStore) Delete(ctx context.Context, tx store.Execer, participantID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, tx, participantID)
}

func (s stubParticipantStore) DeleteByBill(ctx context.Context, tx store.Execer, billID int64) error {
	if s.deleteByBillFn == nil {
		return nil
	}
	return s.deleteByBillFn(ctx, tx, billID)
}

func (s stubParticipantStore) ListByBillTx(ctx context.Context, tx store.Selecter, billID int64) ([]models.BillParticipant, error) {
	if s.listByBillTxFn == nil {
		return nil, nil
	}
	return s.listByBillTxFn(ctx, tx, billID)
}

type stubItemStore struct {
	insertFn       func(ctx context.Context, tx store.Getter, item *models.BillItem) (int64, error)
	updateFn       func(ctx context.Context, tx store.Execer, item *models.BillItem) error
	deleteFn       func(ctx context.Context, tx store.Execer, itemID int64) error
	deleteByBillFn func(ctx context.Context, tx store.Execer, billID int64) error
	getByIDFn      func(ctx context.Context, itemID int64) (models.BillItem, error)
	listByBillTxFn func(ctx context.Context, tx store.Selecter, billID int64) ([]models.BillItem, error)
}

func (s stubItemStore) Insert(ctx context.Context, tx store.Getter, item *models.BillItem) (int64, error) {
	if s.insertFn == nil {
		return 1, nil
	}
	return s.insertFn(ctx, tx, item)
}

func (s stubItemStore) Update(ctx context.Context, tx store.Execer, item *models.BillItem) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, tx, item)
}

func (s stubItemStore) Delete(ctx context.Context, tx store.Execer, itemID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, tx, itemID)
}

func (s stubItemStore) DeleteByBill(ctx context.Context, tx store.Execer, billID int64) error {
	if s.deleteByBillFn == nil {
		return nil
	}
	return s.deleteByBillFn(ctx, tx, billID)
}

func (s stubItemStore) GetByID(ctx context.Context, itemID int64) (models.BillItem, error) {
	if s.getByIDFn == nil {
		return models.BillItem{ID: itemID}, nil
	}
	return s.getByIDFn(ctx, itemID)
}

func (s stubItemStore) ListByBillTx(ctx context.Context, tx store.Selecter, billID int64) ([]models.BillItem, error) {
	if s.listByBillTxFn == nil {
		return nil, nil
	}
	return s.listByBillTxFn(ctx, tx, billID)
}

type stubSplitWriter struct {
	insertManyFn          func(ctx context.Context, tx store.Execer, splits []models.ItemSplit) error
	deleteByItemFn        func(ctx context.Context, tx store.Execer, itemID int64) error
	deleteByParticipantFn func(ctx context.Context, tx store.Execer, participantID int64) error
	deleteByBillFn        func(ctx context.Context, tx store.Execer, billID int64) error
}

func (s stubSplitWriter) InsertMany(ctx context.Context, tx store.Execer, splits []models.ItemSplit) error {
	if s.insertManyFn == nil {
		return nil
	}
	return s.insertManyFn(ctx, tx, splits)
}

func (s stubSplitWriter) DeleteByItem(ctx context.Context, tx store.Execer, itemID int64) error {
	if s.deleteByItemFn == nil {
		return nil
	}
	return s.deleteByItemFn(ctx, tx, itemID)
}

func (s stubSplitWriter) DeleteByParticipant(ctx context.Context, tx store.Execer, participantID int64) error {
	if s.deleteByParticipantFn == nil {
		return nil
	}
	return s.deleteByParticipantFn(ctx, tx, participantID)
}

func (s stubSplitWriter) DeleteByBill(ctx context.Context, tx store.Execer, billID int64) error {
	if s.deleteByBillFn == nil {
		return nil
	}
	return s.deleteByBillFn(ctx, tx, billID)
}

type stubUserReader struct {
	getByIDFn func(ctx context.Context, userID int64) (models.User, error)
}

func (s stubUserReader) GetByID(ctx context.Context, userID int64) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubAuditLogger struct {
	logFn func(ctx context.Context, tx store.Execer, actorID int64, action, entityType string, entityID int64, data string) error
}

func (s stubAuditLogger) Log(ctx context.Context, tx store.Execer, actorID int64, action, entityType string, entityID int64, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubParticipantReader struct {
	listByBillFn func(ctx context.Context, billID int64) ([]models.BillParticipant, error)
}

func (s stubParticipantReader) ListByBill(ctx context.Context, billID int64) ([]models.BillParticipant, error) {
	if s.listByBillFn == nil {
		return nil, nil
	}
	return s.listByBillFn(ctx, billID)
}

type stubPaymentSplitStore struct {
	listByIDsFn    func(ctx context.Context, splitIDs []int64) ([]store.SplitDetail, error)
	listByBillFn   func(ctx context.Context, billID int64) ([]store.SplitDetail, error)
	updateStatusFn func(ctx context.Context, tx store.Execer, splitIDs []int64, status string) error
}

func (s stubPaymentSplitStore) ListByIDs(ctx context.Context, splitIDs []int64) ([]store.SplitDetail, error) {
	if s.listByIDsFn == nil {
		return nil, nil
	}
	return s.listByIDsFn(ctx, splitIDs)
}

func (s stubPaymentSplitStore) ListByBill(ctx context.Context, billID int64) ([]store.SplitDetail, error) {
	if s.listByBillFn == nil {
		return nil, nil
	}
	return s.listByBillFn(ctx, billID)
}

func (s stubPaymentSplitStore) UpdateStatus(ctx context.Context, tx store.Execer, splitIDs []int64, status string) error {
	if s.updateStatusFn == nil {
		return nil
	}
	return s.updateStatusFn(ctx, tx, splitIDs, status)
}

type broadcast struct {
	userID int64
	update websocket.PaymentUpdate
}

type recordingHub struct {
	sent []broadcast
}

func (h *recordingHub) BroadcastPayment(userID int64, update websocket.PaymentUpdate) {
	h.sent = append(h.sent, broadcast{userID: userID, update: update})
}
