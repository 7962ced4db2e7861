package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/lock"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/repository"
)

type fakeAmount struct {
	ceiling decimal.Decimal
	err     error
}

func (f *fakeAmount) Check(_ context.Context, amount decimal.Decimal) (*models.VerificationVerdict, error) {
	if f.err != nil {
		return nil, f.err
	}
	if amount.GreaterThan(f.ceiling) {
		return &models.VerificationVerdict{Allowed: false, Message: models.ReasonAmountTooHigh}, nil
	}
	return &models.VerificationVerdict{Allowed: true, Message: "Demande acceptée"}, nil
}

type fakeRisk struct {
	level models.RiskLevel
	err   error
}

func (f *fakeRisk) Assess(context.Context, decimal.Decimal, string) (*models.RiskAssessment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.RiskAssessment{Level: f.level}, nil
}

type fakeSubmitter struct {
	seq int64
	err error
}

func (f *fakeSubmitter) Submit(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("bank-%d", atomic.AddInt64(&f.seq, 1)), nil
}

type fakeUploader struct {
	calls int64
	err   error
}

func (f *fakeUploader) Upload(context.Context, string, string) error {
	atomic.AddInt64(&f.calls, 1)
	return f.err
}

type fakeFunds struct {
	calls int64
	err   error
}

func (f *fakeFunds) Transfer(_ context.Context, amount decimal.Decimal, clientID string) (*models.FundTransferOutcome, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.FundTransferOutcome{
		Status:  "success",
		Message: fmt.Sprintf("Fonds de %s transférés pour le client %s", amount, clientID),
	}, nil
}

type fakeBank struct {
	status *models.ChequeStatus
	err    error
}

func (f *fakeBank) Status(context.Context, string) (*models.ChequeStatus, error) {
	return f.status, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.LoanStateEvent
}

func (f *fakePublisher) PublishStateChange(_ context.Context, event models.LoanStateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) states(requestID string) []models.LoanStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LoanStatus
	for _, e := range f.events {
		if e.RequestID == requestID {
			out = append(out, e.State)
		}
	}
	return out
}

type harness struct {
	ledger     *repository.MemoryLedger
	locker     *lock.LocalLocker
	amount     *fakeAmount
	risk       *fakeRisk
	submitter  *fakeSubmitter
	uploader   *fakeUploader
	funds      *fakeFunds
	bank       *fakeBank
	publisher  *fakePublisher
	engine     *Orchestrator
	reconciler *Reconciler
}

func newHarness() *harness {
	h := &harness{
		ledger:    repository.NewMemoryLedger(),
		locker:    lock.NewLocalLocker(),
		amount:    &fakeAmount{ceiling: decimal.NewFromInt(50000)},
		risk:      &fakeRisk{level: models.RiskAcceptable},
		submitter: &fakeSubmitter{},
		uploader:  &fakeUploader{},
		funds:     &fakeFunds{},
		bank:      &fakeBank{},
		publisher: &fakePublisher{},
	}
	h.engine = NewOrchestrator(h.ledger, h.amount, h.risk, h.submitter, h.uploader, h.publisher)
	h.reconciler = NewReconciler(h.ledger, h.funds, h.bank, h.locker, h.publisher, time.Second)
	return h
}

func application(amount string) LoanApplication {
	return LoanApplication{ClientID: "1", PersonalInfo: "x", LoanAmount: amount}
}
