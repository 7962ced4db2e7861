// Package stubs simulates the four backend services the gateway talks to,
// for local runs and end-to-end tests.
package stubs

import (
	"context"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/amountcheck"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

// DefaultCeiling is the largest amount the simulated ceiling service allows.
const DefaultCeiling = 50000

const messageAccepted = "Demande acceptée"

type CeilingService struct {
	Ceiling float64
}

func (s CeilingService) CheckLoan(_ context.Context, req *amountcheck.LoanRequest) (*amountcheck.LoanResponse, error) {
	if req.LoanAmount <= s.Ceiling {
		return &amountcheck.LoanResponse{Allowed: true, Message: messageAccepted}, nil
	}
	return &amountcheck.LoanResponse{Allowed: false, Message: models.ReasonAmountTooHigh}, nil
}
