package services

import (
	"context"
	"sort"
	"time"

	"splitbill/internal/models"
	"splitbill/internal/store"
)

// BalanceEntry is one counterparty's position against the viewing user.
type BalanceEntry struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

type SplitSummary struct {
	TotalOwedToUser  int64          `json:"total_owed_to_user"`
	TotalUserOwes    int64          `json:"total_user_owes"`
	NetBalance       int64          `json:"net_balance"`
	PeopleWhoOweUser []BalanceEntry `json:"people_who_owe_user"`
	PeopleUserOwes   []BalanceEntry `json:"people_user_owes"`
}

type PairwiseSplit struct {
	SplitID         int64  `json:"split_id"`
	ParticipantID   int64  `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	UserID          *int64 `json:"user_id,omitempty"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
}

type PairwiseItem struct {
	ItemID      int64           `json:"item_id"`
	ItemName    string          `json:"item_name"`
	TotalAmount int64           `json:"total_amount"`
	Splits      []PairwiseSplit `json:"splits"`
}

type PairwiseBill struct {
	BillID          int64          `json:"bill_id"`
	BillName        string         `json:"bill_name"`
	Date            time.Time      `json:"date"`
	CurrentUserOwed int64          `json:"current_user_owed"`
	CurrentUserOwes int64          `json:"current_user_owes"`
	NetAmount       int64          `json:"net_amount"`
	Items           []PairwiseItem `json:"item_details"`
}

type PairwiseDetails struct {
	TotalCurrentUserOwed int64          `json:"total_current_user_owed"`
	TotalCurrentUserOwes int64          `json:"total_current_user_owes"`
	NetBalance           int64          `json:"net_balance"`
	Bills                []PairwiseBill `json:"bills"`
}

type BillGraphStore interface {
	ListGraphsForUser(ctx context.Context, userID int64) ([]store.BillGraph, error)
	ListGraphsBetween(ctx context.Context, userID, otherUserID int64) ([]store.BillGraph, error)
}

// SettlementService folds per-bill settlements into net balances across a
// user's whole bill set, or between a pair of users.
type SettlementService struct {
	bills BillGraphStore
}

func NewSettlementService(bills BillGraphStore) *SettlementService {
	return &SettlementService{bills: bills}
}

// settleBill walks every split of every item once. Completed splits and
// guest participants (no user id) never produce ledger entries; within one
// bill the viewer is either the creditor for everyone else's pending shares
// or the debtor for their own, because a bill has exactly one creator.
func settleBill(g store.BillGraph, viewerID int64) (owedToViewer, viewerOwes []BalanceEntry) {
	isCreator := g.Bill.UserID == viewerID
	owedIndex := make(map[int64]int)
	owesIndex := make(map[int64]int)
	for _, item := range g.Items {
		for _, split := range item.Splits {
			if split.PaymentStatus == models.PaymentCompleted {
				continue
			}
			if split.ParticipantUserID == nil {
				continue
			}
			participantID := *split.ParticipantUserID
			switch {
			case isCreator && participantID != viewerID:
				if at, ok := owedIndex[participantID]; ok {
					owedToViewer[at].Amount += split.ShareAmount
				} else {
					owedIndex[participantID] = len(owedToViewer)
					owedToViewer = append(owedToViewer, BalanceEntry{
						UserID: participantID,
						Name:   split.ParticipantName,
						Amount: split.ShareAmount,
					})
				}
			case !isCreator && participantID == viewerID:
				creditorID := g.Bill.UserID
				if at, ok := owesIndex[creditorID]; ok {
					viewerOwes[at].Amount += split.ShareAmount
				} else {
					owesIndex[creditorID] = len(viewerOwes)
					viewerOwes = append(viewerOwes, BalanceEntry{
						UserID: creditorID,
						Name:   creatorName(g, creditorID),
						Amount: split.ShareAmount,
					})
				}
			}
		}
	}
	return owedToViewer, viewerOwes
}

func creatorName(g store.BillGraph, creatorID int64) string {
	for _, p := range g.Participants {
		if p.UserID != nil && *p.UserID == creatorID {
			return p.Name
		}
	}
	return "Unknown"
}

// SplitSummary merges per-bill settlements across every bill the user
// created or participates in, keyed by counterparty.
func (s *SettlementService) SplitSummary(ctx context.Context, userID int64) (SplitSummary, error) {
	graphs, err := s.bills.ListGraphsForUser(ctx, userID)
	if err != nil {
		return SplitSummary{}, err
	}
	summary := SplitSummary{
		PeopleWhoOweUser: []BalanceEntry{},
		PeopleUserOwes:   []BalanceEntry{},
	}
	owedIndex := make(map[int64]int)
	owesIndex := make(map[int64]int)
	for _, g := range graphs {
		owedToViewer, viewerOwes := settleBill(g, userID)
		for _, entry := range owedToViewer {
			summary.TotalOwedToUser += entry.Amount
			if at, ok := owedIndex[entry.UserID]; ok {
				summary.PeopleWhoOweUser[at].Amount += entry.Amount
			} else {
				owedIndex[entry.UserID] = len(summary.PeopleWhoOweUser)
				summary.PeopleWhoOweUser = append(summary.PeopleWhoOweUser, entry)
			}
		}
		for _, entry := range viewerOwes {
			summary.TotalUserOwes += entry.Amount
			if at, ok := owesIndex[entry.UserID]; ok {
				summary.PeopleUserOwes[at].Amount += entry.Amount
			} else {
				owesIndex[entry.UserID] = len(summary.PeopleUserOwes)
				summary.PeopleUserOwes = append(summary.PeopleUserOwes, entry)
			}
		}
	}
	summary.NetBalance = summary.TotalOwedToUser - summary.TotalUserOwes
	sortByAmountDesc(summary.PeopleWhoOweUser)
	sortByAmountDesc(summary.PeopleUserOwes)
	return summary, nil
}

// UserSplitDetails breaks down the pending obligations between the caller
// and one other user, bill by bill.
func (s *SettlementService) UserSplitDetails(ctx context.Context, userID, otherUserID int64) (PairwiseDetails, error) {
	if otherUserID <= 0 || otherUserID == userID {
		return PairwiseDetails{}, ErrInvalidInput
	}
	graphs, err := s.bills.ListGraphsBetween(ctx, userID, otherUserID)
	if err != nil {
		return PairwiseDetails{}, err
	}
	details := PairwiseDetails{Bills: []PairwiseBill{}}
	for _, g := range graphs {
		bill := PairwiseBill{
			BillID:   g.Bill.ID,
			BillName: g.Bill.Name,
			Date:     g.Bill.CreatedAt,
			Items:    []PairwiseItem{},
		}
		for _, item := range g.Items {
			pairItem := PairwiseItem{
				ItemID:      item.Item.ID,
				ItemName:    item.Item.Name,
				TotalAmount: item.Item.TotalAmount,
				Splits:      []PairwiseSplit{},
			}
			for _, split := range item.Splits {
				if split.ParticipantUserID == nil {
					continue
				}
				participantID := *split.ParticipantUserID
				if participantID != userID && participantID != otherUserID {
					continue
				}
				pairItem.Splits = append(pairItem.Splits, PairwiseSplit{
					SplitID:         split.ID,
					ParticipantID:   split.BillParticipantID,
					ParticipantName: split.ParticipantName,
					UserID:          split.ParticipantUserID,
					Amount:          split.ShareAmount,
					Status:          split.PaymentStatus,
				})
				if split.PaymentStatus != models.PaymentPending {
					continue
				}
				if g.Bill.UserID == userID && participantID == otherUserID {
					bill.CurrentUserOwed += split.ShareAmount
				}
				if g.Bill.UserID == otherUserID && participantID == userID {
					bill.CurrentUserOwes += split.ShareAmount
				}
			}
			bill.Items = append(bill.Items, pairItem)
		}
		bill.NetAmount = bill.CurrentUserOwed - bill.CurrentUserOwes
		details.TotalCurrentUserOwed += bill.CurrentUserOwed
		details.TotalCurrentUserOwes += bill.CurrentUserOwes
		details.Bills = append(details.Bills, bill)
	}
	details.NetBalance = details.TotalCurrentUserOwed - details.TotalCurrentUserOwes
	return details, nil
}

func sortByAmountDesc(entries []BalanceEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Amount > entries[j].Amount
	})
}
