package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

func newRecord(id string) *models.LoanRecord {
	return &models.LoanRecord{
		RequestID:  id,
		ClientID:   "client-1",
		LoanAmount: decimal.NewFromInt(10000),
		Status:     models.StatusPending,
		History: []models.CallRecord{
			models.NewCallRecord(models.ServiceAmountCheck, map[string]any{"loan_amount": 10000}, models.VerificationVerdict{Allowed: true}, nil),
		},
	}
}

func TestMemoryLedgerCreateAndGet(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	if err := ledger.Create(ctx, newRecord("r1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ledger.Create(ctx, newRecord("r1")); !errors.Is(err, models.ErrDuplicateRequest) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	rec, err := ledger.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != models.StatusPending || len(rec.History) != 1 || rec.CreatedAt.IsZero() {
		t.Fatalf("unexpected record %+v", rec)
	}

	if _, err := ledger.Get(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryLedgerReturnsCopies(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	input := newRecord("r1")
	ledger.Create(ctx, input)

	input.History[0].Service = "mutated"

	rec, _ := ledger.Get(ctx, "r1")
	rec.History[0].Service = "mutated again"
	rec.Status = models.StatusApproved

	again, _ := ledger.Get(ctx, "r1")
	if again.History[0].Service != models.ServiceAmountCheck || again.Status != models.StatusPending {
		t.Fatalf("stored record was mutated through a copy: %+v", again)
	}
}

func TestMemoryLedgerCopiesRawPayloads(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	input := newRecord("r1")
	ledger.Create(ctx, input)
	input.History[0].Response[2] = 'X'

	entry := models.NewCallRecord(models.ServiceCallback, map[string]string{"verdict": "ok"}, "ok", nil)
	ledger.AppendHistory(ctx, "r1", entry)
	entry.Request[2] = 'X'

	rec, _ := ledger.Get(ctx, "r1")
	rec.History[0].Response[2] = 'Y'
	rec.History[1].Request[2] = 'Y'

	again, _ := ledger.Get(ctx, "r1")
	if got := string(again.History[0].Response); got != `{"allowed":true,"message":""}` {
		t.Fatalf("stored response was mutated: %s", got)
	}
	if got := string(again.History[1].Request); got != `{"verdict":"ok"}` {
		t.Fatalf("stored request was mutated: %s", got)
	}
}

func TestMemoryLedgerAppendHistoryKeepsOrder(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Create(ctx, newRecord("r1"))

	before, _ := ledger.Get(ctx, "r1")

	for _, svc := range []string{models.ServiceCallback, models.ServiceFundTransfer} {
		if err := ledger.AppendHistory(ctx, "r1", models.NewCallRecord(svc, nil, "ok", nil)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rec, _ := ledger.Get(ctx, "r1")
	want := []string{models.ServiceAmountCheck, models.ServiceCallback, models.ServiceFundTransfer}
	if len(rec.History) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(rec.History))
	}
	for i, svc := range want {
		if rec.History[i].Service != svc {
			t.Fatalf("entry %d: expected %s, got %s", i, svc, rec.History[i].Service)
		}
	}
	if len(before.History) != 1 {
		t.Fatalf("earlier snapshot changed: %d entries", len(before.History))
	}

	if err := ledger.AppendHistory(ctx, "missing", models.CallRecord{}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryLedgerTransitionStatus(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Create(ctx, newRecord("r1"))

	ok, err := ledger.TransitionStatus(ctx, "r1", models.StatusPending, models.StatusRefused, models.RefusedVerdict)
	if err != nil || !ok {
		t.Fatalf("expected transition, got ok=%v err=%v", ok, err)
	}

	ok, err = ledger.TransitionStatus(ctx, "r1", models.StatusPending, models.StatusApproved, models.ApprovedVerdict)
	if err != nil || ok {
		t.Fatalf("expected no second transition, got ok=%v err=%v", ok, err)
	}

	rec, _ := ledger.Get(ctx, "r1")
	if rec.Status != models.StatusRefused || rec.Verdict != models.RefusedVerdict || rec.Reason != models.RefusedVerdict {
		t.Fatalf("unexpected record %+v", rec)
	}

	if _, err := ledger.TransitionStatus(ctx, "missing", models.StatusPending, models.StatusApproved, ""); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := ledger.SetStatus(ctx, "missing", models.StatusApproved, ""); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryLedgerConcurrentTransitionHasOneWinner(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Create(ctx, newRecord("r1"))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.TransitionStatus(ctx, "r1", models.StatusPending, models.StatusApproved, models.ApprovedVerdict)
			if err != nil {
				t.Errorf("transition: %v", err)
			}
			if ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestMemoryLedgerConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	for i := 0; i < 20; i++ {
		ledger.Create(ctx, newRecord(fmt.Sprintf("r%d", i)))
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("r%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			ledger.TransitionStatus(ctx, id, models.StatusPending, models.StatusApproved, models.ApprovedVerdict)
			ledger.AppendHistory(ctx, id, models.NewCallRecord(models.ServiceCallback, nil, "ok", nil))
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rec, err := ledger.Get(ctx, id)
				if err != nil {
					t.Errorf("get: %v", err)
					return
				}
				if rec.Status == models.StatusPending && rec.Verdict != "" {
					t.Errorf("pending record with verdict %q", rec.Verdict)
					return
				}
			}
		}()
	}
	wg.Wait()
}
