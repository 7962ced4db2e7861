package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

const (
	reasonMissingParams  = "missing required parameters"
	reasonAmountNotNum   = "loan_amount must be a number"
	reasonAmountNegative = "loan_amount must not be negative"
)

// LoanApplication is a submission as received, before validation.
// LoanAmount holds the textual form of the amount; empty means absent.
type LoanApplication struct {
	ClientID     string
	PersonalInfo string
	LoanAmount   string
	Cheque       string
}

func (a LoanApplication) Validate() (*models.LoanSubmission, error) {
	clientID := strings.TrimSpace(a.ClientID)
	rawAmount := strings.TrimSpace(a.LoanAmount)
	if clientID == "" || a.PersonalInfo == "" || rawAmount == "" {
		return nil, models.NewValidationError(reasonMissingParams)
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return nil, models.NewValidationError(reasonAmountNotNum)
	}
	if amount.IsNegative() {
		return nil, models.NewValidationError(reasonAmountNegative)
	}

	return &models.LoanSubmission{
		ClientID:     clientID,
		PersonalInfo: a.PersonalInfo,
		LoanAmount:   amount,
		Cheque:       strings.TrimSpace(a.Cheque),
	}, nil
}
