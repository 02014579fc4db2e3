package store

import (
	"context"

	"github.com/lib/pq"

	"splitbill/internal/models"
)

type SplitStore struct {
	db DB
}

func NewSplitStore(db DB) *SplitStore {
	return &SplitStore{db: db}
}

// SplitDetail is a split joined with its item, bill, and participant — the
// shape the payment status updater authorizes against.
type SplitDetail struct {
	ID                   int64  `db:"id"`
	BillItemID           int64  `db:"bill_item_id"`
	BillParticipantID    int64  `db:"bill_participant_id"`
	ShareAmount          int64  `db:"share_amount"`
	PaymentStatus        string `db:"payment_status"`
	ItemName             string `db:"item_name"`
	BillID               int64  `db:"bill_id"`
	BillName             string `db:"bill_name"`
	BillUserID           int64  `db:"bill_user_id"`
	ParticipantName      string `db:"participant_name"`
	ParticipantUserID    *int64 `db:"participant_user_id"`
	ParticipantIsCreator bool   `db:"participant_is_creator"`
}

func (s *SplitStore) InsertMany(ctx context.Context, tx Execer, splits []models.ItemSplit) error {
	query := `
		INSERT INTO item_splits (bill_item_id, bill_participant_id, user_id, share_amount, payment_status)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, split := range splits {
		if _, err := tx.ExecContext(ctx, query, split.BillItemID, split.BillParticipantID,
			split.UserID, split.ShareAmount, split.PaymentStatus); err != nil {
			return err
		}
	}
	return nil
}

func (s *SplitStore) DeleteByItem(ctx context.Context, tx Execer, itemID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM item_splits WHERE bill_item_id = $1`, itemID)
	return err
}

func (s *SplitStore) DeleteByParticipant(ctx context.Context, tx Execer, participantID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM item_splits WHERE bill_participant_id = $1`, participantID)
	return err
}

func (s *SplitStore) DeleteByBill(ctx context.Context, tx Execer, billID int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM item_splits
		WHERE bill_item_id IN (SELECT id FROM bill_items WHERE bill_id = $1)
	`, billID)
	return err
}

func (s *SplitStore) ListByIDs(ctx context.Context, splitIDs []int64) ([]SplitDetail, error) {
	var rows []SplitDetail
	err := s.db.SelectContext(ctx, &rows, detailQuery+`
		WHERE sp.id = ANY($1)
		ORDER BY sp.id
	`, pq.Array(splitIDs))
	return rows, err
}

func (s *SplitStore) ListByBill(ctx context.Context, billID int64) ([]SplitDetail, error) {
	var rows []SplitDetail
	err := s.db.SelectContext(ctx, &rows, detailQuery+`
		WHERE it.bill_id = $1
		ORDER BY sp.id
	`, billID)
	return rows, err
}

func (s *SplitStore) UpdateStatus(ctx context.Context, tx Execer, splitIDs []int64, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE item_splits
		SET payment_status = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`, status, pq.Array(splitIDs))
	return err
}

const detailQuery = `
	SELECT sp.id, sp.bill_item_id, sp.bill_participant_id,
	       sp.share_amount, sp.payment_status,
	       it.name AS item_name,
	       b.id AS bill_id,
	       b.name AS bill_name,
	       b.user_id AS bill_user_id,
	       p.name AS participant_name,
	       p.user_id AS participant_user_id,
	       p.is_creator AS participant_is_creator
	FROM item_splits sp
	JOIN bill_items it ON it.id = sp.bill_item_id
	JOIN bills b ON b.id = it.bill_id
	JOIN bill_participants p ON p.id = sp.bill_participant_id
`
