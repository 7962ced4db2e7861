package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

type AmountChecker interface {
	Check(ctx context.Context, loanAmount decimal.Decimal) (*models.VerificationVerdict, error)
}

type RiskAssessor interface {
	Assess(ctx context.Context, loanAmount decimal.Decimal, personalInfo string) (*models.RiskAssessment, error)
}

// ChequeSubmitter starts the asynchronous cheque process and returns its correlation token.
type ChequeSubmitter interface {
	Submit(ctx context.Context) (string, error)
}

type ChequeUploader interface {
	Upload(ctx context.Context, requestID, cheque string) error
}

type FundTransferer interface {
	Transfer(ctx context.Context, loanAmount decimal.Decimal, clientID string) (*models.FundTransferOutcome, error)
}

type ChequeStatusChecker interface {
	Status(ctx context.Context, requestID string) (*models.ChequeStatus, error)
}
