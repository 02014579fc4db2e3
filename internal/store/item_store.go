package store

import (
	"context"

	"splitbill/internal/models"
)

type ItemStore struct {
	db DB
}

func NewItemStore(db DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Insert(ctx context.Context, tx Getter, item *models.BillItem) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO bill_items (bill_id, name, base_price, tax_percent, tax_amount,
		                        service_percent, service_amount, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, item.BillID, item.Name, item.BasePrice, item.TaxPercent, item.TaxAmount,
		item.ServicePercent, item.ServiceAmount, item.TotalAmount)
	return id, err
}

func (s *ItemStore) Update(ctx context.Context, tx Execer, item *models.BillItem) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bill_items
		SET name = $1, base_price = $2, tax_percent = $3, tax_amount = $4,
		    service_percent = $5, service_amount = $6, total_amount = $7,
		    updated_at = NOW()
		WHERE id = $8 AND bill_id = $9
	`, item.Name, item.BasePrice, item.TaxPercent, item.TaxAmount,
		item.ServicePercent, item.ServiceAmount, item.TotalAmount, item.ID, item.BillID)
	return err
}

func (s *ItemStore) Delete(ctx context.Context, tx Execer, itemID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bill_items WHERE id = $1`, itemID)
	return err
}

func (s *ItemStore) DeleteByBill(ctx context.Context, tx Execer, billID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, billID)
	return err
}

func (s *ItemStore) GetByID(ctx context.Context, itemID int64) (models.BillItem, error) {
	var item models.BillItem
	err := s.db.GetContext(ctx, &item, `
		SELECT id, bill_id, name, base_price, tax_percent, tax_amount,
		       service_percent, service_amount, total_amount, created_at, updated_at
		FROM bill_items
		WHERE id = $1
	`, itemID)
	return item, err
}

func (s *ItemStore) ListByBillTx(ctx context.Context, tx Selecter, billID int64) ([]models.BillItem, error) {
	var rows []models.BillItem
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, bill_id, name, base_price, tax_percent, tax_amount,
		       service_percent, service_amount, total_amount, created_at, updated_at
		FROM bill_items
		WHERE bill_id = $1
		ORDER BY id
	`, billID)
	return rows, err
}
