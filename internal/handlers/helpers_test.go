package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"splitbill/internal/auth"
	"splitbill/internal/config"
	"splitbill/internal/middleware"
	"splitbill/internal/models"
	"splitbill/internal/services"
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

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Getter, name, email, passwordHash string) (int64, error)
	getByEmailFn    func(ctx context.Context, email string) (models.User, error)
	getByIDFn       func(ctx context.Context, userID int64) (models.User, error)
	updateProfileFn func(ctx context.Context, tx store.Execer, userID int64, name, email string) error
}

func (s stubUserStore) Create(ctx context.Context, tx store.Getter, name, email, passwordHash string) (int64, error) {
	if s.createFn == nil {
		return 1, nil
	}
	return s.createFn(ctx, tx, name, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID int64) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) UpdateProfile(ctx context.Context, tx store.Execer, userID int64, name, email string) error {
	if s.updateProfileFn == nil {
		return nil
	}
	return s.updateProfileFn(ctx, tx, userID, name, email)
}

type stubBillService struct {
	createFn     func(ctx context.Context, creatorID int64, in services.BillInput) (models.Bill, error)
	editFn       func(ctx context.Context, callerID, billID int64, in services.BillInput) (models.Bill, error)
	deleteFn     func(ctx context.Context, callerID, billID int64) error
	getFn        func(ctx context.Context, callerID, billID int64) (services.BillDetail, error)
	listFn       func(ctx context.Context, callerID int64) ([]store.BillWithCreator, error)
	createItemFn func(ctx context.Context, callerID, billID int64, in services.ItemInput) (models.BillItem, error)
	getItemFn    func(ctx context.Context, callerID, itemID int64) (services.ItemDetail, error)
	updateItemFn func(ctx context.Context, callerID, itemID int64, in services.ItemInput) (models.BillItem, error)
	deleteItemFn func(ctx context.Context, callerID, itemID int64) error
}

func (s stubBillService) Create(ctx context.Context, creatorID int64, in services.BillInput) (models.Bill, error) {
	if s.createFn == nil {
		return models.Bill{}, nil
	}
	return s.createFn(ctx, creatorID, in)
}

func (s stubBillService) Edit(ctx context.Context, callerID, billID int64, in services.BillInput) (models.Bill, error) {
	if s.editFn == nil {
		return models.Bill{}, nil
	}
	return s.editFn(ctx, callerID, billID, in)
}

func (s stubBillService) Delete(ctx context.Context, callerID, billID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, callerID, billID)
}

func (s stubBillService) Get(ctx context.Context, callerID, billID int64) (services.BillDetail, error) {
	if s.getFn == nil {
		return services.BillDetail{}, nil
	}
	return s.getFn(ctx, callerID, billID)
}

func (s stubBillService) List(ctx context.Context, callerID int64) ([]store.BillWithCreator, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, callerID)
}

func (s stubBillService) CreateItem(ctx context.Context, callerID, billID int64, in services.ItemInput) (models.BillItem, error) {
	if s.createItemFn == nil {
		return models.BillItem{}, nil
	}
	return s.createItemFn(ctx, callerID, billID, in)
}

func (s stubBillService) GetItem(ctx context.Context, callerID, itemID int64) (services.ItemDetail, error) {
	if s.getItemFn == nil {
		return services.ItemDetail{}, nil
	}
	return s.getItemFn(ctx, callerID, itemID)
}

func (s stubBillService) UpdateItem(ctx context.Context, callerID, itemID int64, in services.ItemInput) (models.BillItem, error) {
	if s.updateItemFn == nil {
		return models.BillItem{}, nil
	}
	return s.updateItemFn(ctx, callerID, itemID, in)
}

func (s stubBillService) DeleteItem(ctx context.Context, callerID, itemID int64) error {
	if s.deleteItemFn == nil {
		return nil
	}
	return s.deleteItemFn(ctx, callerID, itemID)
}

type stubPaymentService struct {
	updateStatusesFn func(ctx context.Context, callerID int64, splitIDs []int64, status string) (int, error)
	billSummaryFn    func(ctx context.Context, callerID, billID int64) (services.PaymentSummary, error)
}

func (s stubPaymentService) UpdateStatuses(ctx context.Context, callerID int64, splitIDs []int64, status string) (int, error) {
	if s.updateStatusesFn == nil {
		return 0, nil
	}
	return s.updateStatusesFn(ctx, callerID, splitIDs, status)
}

func (s stubPaymentService) BillPaymentSummary(ctx context.Context, callerID, billID int64) (services.PaymentSummary, error) {
	if s.billSummaryFn == nil {
		return services.PaymentSummary{}, nil
	}
	return s.billSummaryFn(ctx, callerID, billID)
}

type stubSettlementService struct {
	splitSummaryFn func(ctx context.Context, userID int64) (services.SplitSummary, error)
	detailsFn      func(ctx context.Context, userID, otherUserID int64) (services.PairwiseDetails, error)
}

func (s stubSettlementService) SplitSummary(ctx context.Context, userID int64) (services.SplitSummary, error) {
	if s.splitSummaryFn == nil {
		return services.SplitSummary{}, nil
	}
	return s.splitSummaryFn(ctx, userID)
}

func (s stubSettlementService) UserSplitDetails(ctx context.Context, userID, otherUserID int64) (services.PairwiseDetails, error) {
	if s.detailsFn == nil {
		return services.PairwiseDetails{}, nil
	}
	return s.detailsFn(ctx, userID, otherUserID)
}

type stubAuditStore struct {
	logFn         func(ctx context.Context, tx store.Execer, actorID int64, action, entityType string, entityID int64, data string) error
	listByActorFn func(ctx context.Context, actorID int64, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID int64, action, entityType string, entityID int64, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) ListByActor(ctx context.Context, actorID int64, limit, offset int) ([]map[string]any, error) {
	if s.listByActorFn == nil {
		return nil, nil
	}
	return s.listByActorFn(ctx, actorID, limit, offset)
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret: "secret",
		TokenTTL:  time.Minute,
	}
}

func newTestHandler(txRunner fakeTxRunner, users stubUserStore, bills stubBillService, payments stubPaymentService, settlements stubSettlementService, audit stubAuditStore) *Handler {
	return New(txRunner, testConfig(), users, bills, payments, settlements, audit, websocket.NewHub())
}

func serveNoAuth(handlerFn http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	handlerFn(rr, req)
	return rr
}

// serveWithAuth runs the handler behind the real auth middleware with a token
// minted for userID, injecting chi URL params when given.
func serveWithAuth(t *testing.T, handlerFn http.HandlerFunc, userID int64, method, target string, body io.Reader, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, "user@example.com", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for key, value := range params {
			routeCtx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handlerFn).ServeHTTP(rr, req)
	return rr
}
