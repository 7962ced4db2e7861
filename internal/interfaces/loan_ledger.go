package interfaces

import (
	"context"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

// LoanLedger defines the contract for loan record storage.
// Every method is atomic per request id; unknown ids yield models.ErrNotFound.
type LoanLedger interface {
	Create(ctx context.Context, record *models.LoanRecord) error
	Get(ctx context.Context, requestID string) (*models.LoanRecord, error)
	AppendHistory(ctx context.Context, requestID string, entry models.CallRecord) error
	SetStatus(ctx context.Context, requestID string, status models.LoanStatus, verdict string) error
	// TransitionStatus applies the change only if the record is still in from.
	TransitionStatus(ctx context.Context, requestID string, from, to models.LoanStatus, verdict string) (bool, error)
}
