package handlers

import (
	"context"

	"splitbill/internal/models"
	"splitbill/internal/services"
	"splitbill/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Getter, name, email, passwordHash string) (int64, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID int64) (models.User, error)
	UpdateProfile(ctx context.Context, tx store.Execer, userID int64, name, email string) error
}

type BillService interface {
	Create(ctx context.Context, creatorID int64, in services.BillInput) (models.Bill, error)
	Edit(ctx context.Context, callerID, billID int64, in services.BillInput) (models.Bill, error)
	Delete(ctx context.Context, callerID, billID int64) error
	Get(ctx context.Context, callerID, billID int64) (services.BillDetail, error)
	List(ctx context.Context, callerID int64) ([]store.BillWithCreator, error)
	CreateItem(ctx context.Context, callerID, billID int64, in services.ItemInput) (models.BillItem, error)
	GetItem(ctx context.Context, callerID, itemID int64) (services.ItemDetail, error)
	UpdateItem(ctx context.Context, callerID, itemID int64, in services.ItemInput) (models.BillItem, error)
	DeleteItem(ctx context.Context, callerID, itemID int64) error
}

type PaymentService interface {
	UpdateStatuses(ctx context.Context, callerID int64, splitIDs []int64, status string) (int, error)
	BillPaymentSummary(ctx context.Context, callerID, billID int64) (services.PaymentSummary, error)
}

type SettlementService interface {
	SplitSummary(ctx context.Context, userID int64) (services.SplitSummary, error)
	UserSplitDetails(ctx context.Context, userID, otherUserID int64) (services.PairwiseDetails, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID int64, action, entityType string, entityID int64, data string) error
	ListByActor(ctx context.Context, actorID int64, limit, offset int) ([]map[string]any, error)
}
