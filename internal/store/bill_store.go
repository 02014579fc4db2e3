package store

import (
	"context"

	"github.com/lib/pq"

	"splitbill/internal/models"
)

type BillStore struct {
	db DB
}

func NewBillStore(db DB) *BillStore {
	return &BillStore{db: db}
}

// SplitSeat is an item split joined with its participant, the shape the
// settlement calculator consumes.
type SplitSeat struct {
	ID                   int64  `db:"id"`
	BillItemID           int64  `db:"bill_item_id"`
	BillParticipantID    int64  `db:"bill_participant_id"`
	ShareAmount          int64  `db:"share_amount"`
	PaymentStatus        string `db:"payment_status"`
	ParticipantName      string `db:"participant_name"`
	ParticipantUserID    *int64 `db:"participant_user_id"`
	ParticipantIsCreator bool   `db:"participant_is_creator"`
}

type ItemGraph struct {
	Item   models.BillItem
	Splits []SplitSeat
}

// BillGraph is a bill with every nested row eagerly loaded.
type BillGraph struct {
	Bill         models.Bill
	Participants []models.BillParticipant
	Items        []ItemGraph
}

type BillWithCreator struct {
	models.Bill
	CreatorName  string `db:"creator_name"`
	CreatorEmail string `db:"creator_email"`
}

func (s *BillStore) Create(ctx context.Context, tx Getter, bill *models.Bill) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO bills (name, description, category, total_amount, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, bill.Name, bill.Description, bill.Category, bill.TotalAmount, bill.UserID)
	return id, err
}

func (s *BillStore) UpdateScalars(ctx context.Context, tx Execer, bill *models.Bill) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bills
		SET name = $1, description = $2, category = $3, updated_at = NOW()
		WHERE id = $4
	`, bill.Name, bill.Description, bill.Category, bill.ID)
	return err
}

func (s *BillStore) SetTotalAmount(ctx context.Context, tx Execer, billID, total int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bills
		SET total_amount = $1, updated_at = NOW()
		WHERE id = $2
	`, total, billID)
	return err
}

func (s *BillStore) Delete(ctx context.Context, tx Execer, billID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, billID)
	return err
}

func (s *BillStore) GetByID(ctx context.Context, billID int64) (models.Bill, error) {
	var bill models.Bill
	err := s.db.GetContext(ctx, &bill, `
		SELECT id, name, description, category, total_amount, user_id, created_at, updated_at
		FROM bills
		WHERE id = $1
	`, billID)
	return bill, err
}

// ListForUser returns every bill the user created or sits in, newest first,
// annotated with the creator's display info.
func (s *BillStore) ListForUser(ctx context.Context, userID int64) ([]BillWithCreator, error) {
	var rows []BillWithCreator
	err := s.db.SelectContext(ctx, &rows, `
		SELECT DISTINCT b.id, b.name, b.description, b.category, b.total_amount,
		       b.user_id, b.created_at, b.updated_at,
		       u.name AS creator_name, u.email AS creator_email
		FROM bills b
		JOIN users u ON u.id = b.user_id
		LEFT JOIN bill_participants p ON p.bill_id = b.id
		WHERE b.user_id = $1 OR p.user_id = $1
		ORDER BY b.created_at DESC
	`, userID)
	return rows, err
}

func (s *BillStore) GetGraph(ctx context.Context, billID int64) (BillGraph, error) {
	bill, err := s.GetByID(ctx, billID)
	if err != nil {
		return BillGraph{}, err
	}
	graphs, err := s.loadGraphs(ctx, []models.Bill{bill})
	if err != nil {
		return BillGraph{}, err
	}
	return graphs[0], nil
}

// ListGraphsForUser loads the full graph of every bill where the user is
// the creator or a registered participant.
func (s *BillStore) ListGraphsForUser(ctx context.Context, userID int64) ([]BillGraph, error) {
	var bills []models.Bill
	err := s.db.SelectContext(ctx, &bills, `
		SELECT DISTINCT b.id, b.name, b.description, b.category, b.total_amount,
		       b.user_id, b.created_at, b.updated_at
		FROM bills b
		LEFT JOIN bill_participants p ON p.bill_id = b.id
		WHERE b.user_id = $1 OR p.user_id = $1
		ORDER BY b.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return s.loadGraphs(ctx, bills)
}

// ListGraphsBetween loads bills where one of the two users is the creator
// and the other is a participant.
func (s *BillStore) ListGraphsBetween(ctx context.Context, userID, otherUserID int64) ([]BillGraph, error) {
	var bills []models.Bill
	err := s.db.SelectContext(ctx, &bills, `
		SELECT b.id, b.name, b.description, b.category, b.total_amount,
		       b.user_id, b.created_at, b.updated_at
		FROM bills b
		WHERE (b.user_id = $1 AND EXISTS (
		          SELECT 1 FROM bill_participants p
		          WHERE p.bill_id = b.id AND p.user_id = $2))
		   OR (b.user_id = $2 AND EXISTS (
		          SELECT 1 FROM bill_participants p
		          WHERE p.bill_id = b.id AND p.user_id = $1))
		ORDER BY b.created_at DESC
	`, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	return s.loadGraphs(ctx, bills)
}

func (s *BillStore) loadGraphs(ctx context.Context, bills []models.Bill) ([]BillGraph, error) {
	graphs := make([]BillGraph, len(bills))
	if len(bills) == 0 {
		return graphs, nil
	}
	billIDs := make([]int64, len(bills))
	graphIndex := make(map[int64]int, len(bills))
	for i, bill := range bills {
		billIDs[i] = bill.ID
		graphIndex[bill.ID] = i
		graphs[i] = BillGraph{Bill: bill}
	}

	var participants []models.BillParticipant
	err := s.db.SelectContext(ctx, &participants, `
		SELECT id, name, user_id, bill_id, is_creator
		FROM bill_participants
		WHERE bill_id = ANY($1)
		ORDER BY id
	`, pq.Array(billIDs))
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		i := graphIndex[p.BillID]
		graphs[i].Participants = append(graphs[i].Participants, p)
	}

	var items []models.BillItem
	err = s.db.SelectContext(ctx, &items, `
		SELECT id, bill_id, name, base_price, tax_percent, tax_amount,
		       service_percent, service_amount, total_amount, created_at, updated_at
		FROM bill_items
		WHERE bill_id = ANY($1)
		ORDER BY id
	`, pq.Array(billIDs))
	if err != nil {
		return nil, err
	}
	itemIndex := make(map[int64][2]int, len(items))
	for _, item := range items {
		i := graphIndex[item.BillID]
		graphs[i].Items = append(graphs[i].Items, ItemGraph{Item: item})
		itemIndex[item.ID] = [2]int{i, len(graphs[i].Items) - 1}
	}

	var seats []SplitSeat
	err = s.db.SelectContext(ctx, &seats, `
		SELECT sp.id, sp.bill_item_id, sp.bill_participant_id,
		       sp.share_amount, sp.payment_status,
		       p.name AS participant_name,
		       p.user_id AS participant_user_id,
		       p.is_creator AS participant_is_creator
		FROM item_splits sp
		JOIN bill_items it ON it.id = sp.bill_item_id
		JOIN bill_participants p ON p.id = sp.bill_participant_id
		WHERE it.bill_id = ANY($1)
		ORDER BY sp.id
	`, pq.Array(billIDs))
	if err != nil {
		return nil, err
	}
	for _, seat := range seats {
		at, ok := itemIndex[seat.BillItemID]
		if !ok {
			continue
		}
		item := &graphs[at[0]].Items[at[1]]
		item.Splits = append(item.Splits, seat)
	}
	return graphs, nil
}
