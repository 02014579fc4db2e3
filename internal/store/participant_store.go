package store

import (
	"context"

	"splitbill/internal/models"
)

type ParticipantStore struct {
	db DB
}

func NewParticipantStore(db DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func (s *ParticipantStore) Insert(ctx context.Context, tx Getter, p *models.BillParticipant) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO bill_participants (name, user_id, bill_id, is_creator)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.Name, p.UserID, p.BillID, p.IsCreator)
	return id, err
}

func (s *ParticipantStore) Update(ctx context.Context, tx Execer, p *models.BillParticipant) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bill_participants
		SET name = $1, user_id = $2, is_creator = $3
		WHERE id = $4 AND bill_id = $5
	`, p.Name, p.UserID, p.IsCreator, p.ID, p.BillID)
	return err
}

func (s *ParticipantStore) Delete(ctx context.Context, tx Execer, participantID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bill_participants WHERE id = $1`, participantID)
	return err
}

func (s *ParticipantStore) DeleteByBill(ctx context.Context, tx Execer, billID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bill_participants WHERE bill_id = $1`, billID)
	return err
}

func (s *ParticipantStore) ListByBill(ctx context.Context, billID int64) ([]models.BillParticipant, error) {
	var rows []models.BillParticipant
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, user_id, bill_id, is_creator
		FROM bill_participants
		WHERE bill_id = $1
		ORDER BY id
	`, billID)
	return rows, err
}

// ListByBillTx is ListByBill inside an open transaction, used by the bill
// mutation engine to reconcile against the committed participant set.
func (s *ParticipantStore) ListByBillTx(ctx context.Context, tx Selecter, billID int64) ([]models.BillParticipant, error) {
	var rows []models.BillParticipant
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, name, user_id, bill_id, is_creator
		FROM bill_participants
		WHERE bill_id = $1
		ORDER BY id
	`, billID)
	return rows, err
}
