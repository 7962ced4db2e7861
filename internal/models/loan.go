package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	StatusPending  LoanStatus = "pending"
	StatusRefused  LoanStatus = "refused"
	StatusApproved LoanStatus = "approved"
	StatusError    LoanStatus = "error"
)

// Terminal reports whether no further transition may leave this status.
func (s LoanStatus) Terminal() bool {
	return s == StatusRefused || s == StatusApproved || s == StatusError
}

type RiskLevel string

const (
	RiskAcceptable RiskLevel = "acceptable"
	RiskHigh       RiskLevel = "elevé"
)

// Service names used in call history and metrics.
const (
	ServiceAmountCheck  = "amount-check"
	ServiceRiskCheck    = "risk-profile"
	ServiceChequeSubmit = "cheque-submission"
	ServiceChequeUpload = "cheque-upload"
	ServiceChequeStatus = "cheque-status"
	ServiceCallback     = "cheque-callback"
	ServiceFundTransfer = "fund-transfer"
)

const (
	// ApprovedVerdict is the only verdict string that approves a loan.
	ApprovedVerdict = "Chèque validé"
	RefusedVerdict  = "Chèque invalide"

	ReasonAmountTooHigh = "Montant trop élevé"
	ReasonRiskTooHigh   = "Risque trop élevé"
	MessageAwaitCheque  = "Veuillez soumettre un chèque de banque"
)

// HighRiskThreshold is the inclusive amount from which a high risk profile refuses the loan.
var HighRiskThreshold = decimal.NewFromInt(20000)

// LoanSubmission is the validated form of an inbound loan request.
type LoanSubmission struct {
	ClientID     string
	PersonalInfo string
	LoanAmount   decimal.Decimal
	Cheque       string
}

// LoanRecord is the ledger entity keyed by RequestID.
type LoanRecord struct {
	RequestID  string          `json:"request_id"`
	ClientID   string          `json:"client_id"`
	LoanAmount decimal.Decimal `json:"loan_amount"`
	Status     LoanStatus      `json:"status"`
	Verdict    string          `json:"verdict,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	History    []CallRecord    `json:"history"`
}

// Clone returns a copy whose history can be read without holding the ledger lock.
func (r *LoanRecord) Clone() *LoanRecord {
	cp := *r
	cp.History = make([]CallRecord, len(r.History))
	for i, call := range r.History {
		cp.History[i] = call.Clone()
	}
	return &cp
}

// CallRecord is one entry of a loan's append-only call history.
type CallRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Service   string          `json:"service"`
	Request   json.RawMessage `json:"request,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Clone copies the raw request and response bytes.
func (c CallRecord) Clone() CallRecord {
	c.Request = cloneRaw(c.Request)
	c.Response = cloneRaw(c.Response)
	return c
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

// NewCallRecord builds a history entry. A non-nil err takes precedence over
// resp and is stored as its public reason; the raw cause belongs in the log.
func NewCallRecord(service string, req, resp any, err error) CallRecord {
	rec := CallRecord{
		Timestamp: time.Now().UTC(),
		Service:   service,
		Request:   rawJSON(req),
	}
	if err != nil {
		rec.Error = PublicReason(err)
		return rec
	}
	rec.Response = rawJSON(resp)
	return rec
}

// NewNoteRecord builds a history entry that carries a fixed note instead of a response.
func NewNoteRecord(service string, req any, note string) CallRecord {
	return CallRecord{
		Timestamp: time.Now().UTC(),
		Service:   service,
		Request:   rawJSON(req),
		Error:     note,
	}
}

func rawJSON(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

type VerificationVerdict struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message"`
}

type RiskAssessment struct {
	Level RiskLevel `json:"risk_profile"`
}

type FundTransferOutcome struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ChequeStatus is the bank's view of an asynchronous cheque request.
type ChequeStatus struct {
	Status  string `json:"status"`
	Verdict string `json:"verdict,omitempty"`
}

// LoanOutcome is what a submission returns to the caller.
type LoanOutcome struct {
	Status    LoanStatus `json:"status"`
	RequestID string     `json:"request_id,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// LoanStateEvent is published whenever a record is created or changes status.
type LoanStateEvent struct {
	RequestID     string     `json:"request_id"`
	ClientID      string     `json:"client_id"`
	State         LoanStatus `json:"state"`
	PreviousState LoanStatus `json:"previous_state,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// CallbackResult describes what the reconciler did with a verdict.
type CallbackResult struct {
	RequestID        string     `json:"request_id"`
	Status           LoanStatus `json:"status"`
	Duplicate        bool       `json:"duplicate"`
	FundsTransferred bool       `json:"funds_transferred"`
}
