package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"splitbill/internal/models"
)

func TestBillStoreCreate(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "INSERT INTO bills") || !strings.Contains(query, "RETURNING id") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 5 || args[0] != "dinner" || args[4] != int64(7) {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int64) = 3
			return nil
		},
	}
	store := NewBillStore(stubDB{})
	id, err := store.Create(ctx, getter, &models.Bill{Name: "dinner", Category: "food", UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 3 {
		t.Fatalf("unexpected id: %d", id)
	}
}

func TestBillStoreSetTotalAmount(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET total_amount = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != int64(1500) || args[1] != int64(3) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewBillStore(stubDB{})
	if err := store.SetTotalAmount(ctx, execer, 3, 1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBillStoreListForUser(t *testing.T) {
	ctx := context.Background()
	store := NewBillStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "b.user_id = $1 OR p.user_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != int64(7) {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]BillWithCreator) = []BillWithCreator{{Bill: models.Bill{ID: 3}, CreatorName: "alice"}}
			return nil
		},
	})
	rows, err := store.ListForUser(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].CreatorName != "alice" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestBillStoreGetGraphAssemblesNestedRows(t *testing.T) {
	ctx := context.Background()
	store := NewBillStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM bills") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*models.Bill) = models.Bill{ID: 3, Name: "dinner", UserID: 7}
			return nil
		},
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			switch d := dest.(type) {
			case *[]models.BillParticipant:
				*d = []models.BillParticipant{
					{ID: 10, Name: "alice", BillID: 3, IsCreator: true},
					{ID: 11, Name: "bob", BillID: 3},
				}
			case *[]models.BillItem:
				*d = []models.BillItem{{ID: 20, BillID: 3, Name: "pad thai", TotalAmount: 1000}}
			case *[]SplitSeat:
				*d = []SplitSeat{
					{ID: 30, BillItemID: 20, BillParticipantID: 10, ShareAmount: 500},
					{ID: 31, BillItemID: 20, BillParticipantID: 11, ShareAmount: 500},
				}
			default:
				t.Fatalf("unexpected dest: %T", dest)
			}
			return nil
		},
	})
	graph, err := store.GetGraph(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if graph.Bill.ID != 3 || len(graph.Participants) != 2 || len(graph.Items) != 1 {
		t.Fatalf("unexpected graph: %#v", graph)
	}
	if len(graph.Items[0].Splits) != 2 || graph.Items[0].Splits[1].ShareAmount != 500 {
		t.Fatalf("unexpected splits: %#v", graph.Items[0].Splits)
	}
}

func TestBillStoreLoadGraphsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewBillStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if _, ok := dest.(*[]models.Bill); ok {
				return nil
			}
			t.Fatalf("nested load should not run for zero bills")
			return nil
		},
	})
	graphs, err := store.ListGraphsForUser(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graphs) != 0 {
		t.Fatalf("unexpected graphs: %#v", graphs)
	}
}

func TestBillStoreListGraphsBetween(t *testing.T) {
	ctx := context.Background()
	var sawBillQuery bool
	store := NewBillStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if _, ok := dest.(*[]models.Bill); ok {
				sawBillQuery = true
				if !strings.Contains(query, "EXISTS") {
					t.Fatalf("unexpected query: %s", query)
				}
				if len(args) != 2 || args[0] != int64(7) || args[1] != int64(8) {
					t.Fatalf("unexpected args: %#v", args)
				}
			}
			return nil
		},
	})
	if _, err := store.ListGraphsBetween(ctx, 7, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawBillQuery {
		t.Fatal("bill query never ran")
	}
}
