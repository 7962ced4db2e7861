package repository

import (
	"context"
	"sync"
	"time"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

// MemoryLedger keeps loan records for the lifetime of the process. A single
// lock guards the map, so every operation is atomic and Get never observes a
// half-applied change.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string]*models.LoanRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]*models.LoanRecord)}
}

func (l *MemoryLedger) Create(_ context.Context, record *models.LoanRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[record.RequestID]; exists {
		return models.ErrDuplicateRequest
	}

	stored := record.Clone()
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = stored.CreatedAt
	l.records[record.RequestID] = stored
	return nil
}

func (l *MemoryLedger) Get(_ context.Context, requestID string) (*models.LoanRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[requestID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return rec.Clone(), nil
}

func (l *MemoryLedger) AppendHistory(_ context.Context, requestID string, entry models.CallRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[requestID]
	if !ok {
		return models.ErrNotFound
	}
	rec.History = append(rec.History, entry.Clone())
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *MemoryLedger) SetStatus(_ context.Context, requestID string, status models.LoanStatus, verdict string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[requestID]
	if !ok {
		return models.ErrNotFound
	}
	apply(rec, status, verdict)
	return nil
}

func (l *MemoryLedger) TransitionStatus(_ context.Context, requestID string, from, to models.LoanStatus, verdict string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[requestID]
	if !ok {
		return false, models.ErrNotFound
	}
	if rec.Status != from {
		return false, nil
	}
	apply(rec, to, verdict)
	return true, nil
}

func apply(rec *models.LoanRecord, status models.LoanStatus, verdict string) {
	rec.Status = status
	rec.Verdict = verdict
	if status == models.StatusRefused && verdict != "" {
		rec.Reason = verdict
	}
	rec.UpdatedAt = time.Now().UTC()
}
