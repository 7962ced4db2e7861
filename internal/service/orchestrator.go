package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/interfaces"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

// Orchestrator runs the synchronous part of a loan submission: amount
// check, risk check and cheque submission. Every submission that passes
// validation leaves exactly one record in the ledger.
type Orchestrator struct {
	ledger    interfaces.LoanLedger
	amount    interfaces.AmountChecker
	risk      interfaces.RiskAssessor
	submitter interfaces.ChequeSubmitter
	uploader  interfaces.ChequeUploader
	publisher interfaces.EventPublisher
}

// NewOrchestrator wires the engine. uploader may be nil, in which case
// cheque tokens carried by a submission are not forwarded to the bank.
func NewOrchestrator(
	ledger interfaces.LoanLedger,
	amount interfaces.AmountChecker,
	risk interfaces.RiskAssessor,
	submitter interfaces.ChequeSubmitter,
	uploader interfaces.ChequeUploader,
	publisher interfaces.EventPublisher,
) *Orchestrator {
	return &Orchestrator{
		ledger:    ledger,
		amount:    amount,
		risk:      risk,
		submitter: submitter,
		uploader:  uploader,
		publisher: publisher,
	}
}

type amountRequest struct {
	LoanAmount decimal.Decimal `json:"loan_amount"`
}

type riskRequest struct {
	LoanAmount decimal.Decimal `json:"loan_amount"`
	ClientInfo string          `json:"client_info"`
}

type chequeRequest struct {
	RequestID string `json:"request_id"`
	Cheque    string `json:"cheque,omitempty"`
}

// Submit validates the application and drives it to refused, error or
// pending. The returned error is nil for pending and refused outcomes; for
// validation and adapter failures the outcome is still filled in so the
// caller can report the request id and reason.
func (o *Orchestrator) Submit(ctx context.Context, app LoanApplication) (*models.LoanOutcome, error) {
	sub, err := app.Validate()
	if err != nil {
		telemetry.CountSubmission("invalid")
		return &models.LoanOutcome{Status: models.StatusError, Reason: models.PublicReason(err)}, err
	}

	history := make([]models.CallRecord, 0, 4)

	amountReq := amountRequest{LoanAmount: sub.LoanAmount}
	verdict, err := o.amount.Check(ctx, sub.LoanAmount)
	history = append(history, models.NewCallRecord(models.ServiceAmountCheck, amountReq, verdict, err))
	if err != nil {
		return o.fail(ctx, sub, history, err)
	}
	if !verdict.Allowed {
		reason := verdict.Message
		if reason == "" {
			reason = models.ReasonAmountTooHigh
		}
		return o.refuse(ctx, sub, history, reason)
	}

	riskReq := riskRequest{LoanAmount: sub.LoanAmount, ClientInfo: sub.PersonalInfo}
	assessment, err := o.risk.Assess(ctx, sub.LoanAmount, sub.PersonalInfo)
	history = append(history, models.NewCallRecord(models.ServiceRiskCheck, riskReq, assessment, err))
	if err != nil {
		return o.fail(ctx, sub, history, err)
	}
	if assessment.Level == models.RiskHigh && sub.LoanAmount.GreaterThanOrEqual(models.HighRiskThreshold) {
		return o.refuse(ctx, sub, history, models.ReasonRiskTooHigh)
	}

	requestID, err := o.submitter.Submit(ctx)
	history = append(history, models.NewCallRecord(models.ServiceChequeSubmit, nil, chequeRequest{RequestID: requestID}, err))
	if err != nil {
		return o.fail(ctx, sub, history, err)
	}

	if err := o.create(ctx, requestID, sub, models.StatusPending, "", history); err != nil {
		return nil, err
	}
	telemetry.CountSubmission(string(models.StatusPending))
	telemetry.Logger.Info("Loan pending cheque",
		zap.String("request_id", requestID),
		zap.String("client_id", sub.ClientID),
		zap.String("loan_amount", sub.LoanAmount.String()),
	)

	if sub.Cheque != "" && o.uploader != nil {
		// The outcome stays pending whatever the upload does; the caller can retry it.
		if err := o.forwardCheque(ctx, requestID, sub.Cheque); err != nil {
			telemetry.Logger.Warn("Cheque upload failed",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}
	}

	return &models.LoanOutcome{
		Status:    models.StatusPending,
		RequestID: requestID,
		Message:   models.MessageAwaitCheque,
	}, nil
}

// UploadCheque forwards a cheque for a request still waiting on the bank.
func (o *Orchestrator) UploadCheque(ctx context.Context, requestID, cheque string) error {
	if requestID == "" || cheque == "" {
		return models.NewValidationError(reasonMissingParams)
	}
	rec, err := o.ledger.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if rec.Status != models.StatusPending {
		return models.NewValidationError(fmt.Sprintf("request is %s", rec.Status))
	}
	if o.uploader == nil {
		return models.Unavailable(models.ServiceChequeUpload, errors.New("no cheque uploader configured"))
	}
	return o.forwardCheque(ctx, requestID, cheque)
}

func (o *Orchestrator) forwardCheque(ctx context.Context, requestID, cheque string) error {
	err := o.uploader.Upload(ctx, requestID, cheque)
	entry := models.NewCallRecord(models.ServiceChequeUpload, chequeRequest{RequestID: requestID, Cheque: cheque}, map[string]bool{"accepted": true}, err)
	if herr := o.ledger.AppendHistory(ctx, requestID, entry); herr != nil {
		return fmt.Errorf("append upload history: %w", herr)
	}
	return err
}

// Status returns a snapshot of the record.
func (o *Orchestrator) Status(ctx context.Context, requestID string) (*models.LoanRecord, error) {
	return o.ledger.Get(ctx, requestID)
}

// History returns the ordered call history of a request.
func (o *Orchestrator) History(ctx context.Context, requestID string) ([]models.CallRecord, error) {
	rec, err := o.ledger.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return rec.History, nil
}

func (o *Orchestrator) refuse(ctx context.Context, sub *models.LoanSubmission, history []models.CallRecord, reason string) (*models.LoanOutcome, error) {
	requestID := uuid.NewString()
	if err := o.create(ctx, requestID, sub, models.StatusRefused, reason, history); err != nil {
		return nil, err
	}
	telemetry.CountSubmission(string(models.StatusRefused))
	telemetry.Logger.Info("Loan refused",
		zap.String("request_id", requestID),
		zap.String("reason", reason),
	)
	return &models.LoanOutcome{Status: models.StatusRefused, RequestID: requestID, Reason: reason}, nil
}

func (o *Orchestrator) fail(ctx context.Context, sub *models.LoanSubmission, history []models.CallRecord, cause error) (*models.LoanOutcome, error) {
	requestID := uuid.NewString()
	reason := models.PublicReason(cause)
	if err := o.create(ctx, requestID, sub, models.StatusError, reason, history); err != nil {
		return nil, errors.Join(cause, err)
	}
	telemetry.CountSubmission(string(models.StatusError))
	telemetry.Logger.Error("Loan workflow failed",
		zap.String("request_id", requestID),
		zap.Error(cause),
	)
	return &models.LoanOutcome{Status: models.StatusError, RequestID: requestID, Reason: reason}, cause
}

func (o *Orchestrator) create(ctx context.Context, requestID string, sub *models.LoanSubmission, status models.LoanStatus, reason string, history []models.CallRecord) error {
	now := time.Now().UTC()
	record := &models.LoanRecord{
		RequestID:  requestID,
		ClientID:   sub.ClientID,
		LoanAmount: sub.LoanAmount,
		Status:     status,
		Reason:     reason,
		CreatedAt:  now,
		UpdatedAt:  now,
		History:    history,
	}
	if err := o.ledger.Create(ctx, record); err != nil {
		return fmt.Errorf("store loan %s: %w", requestID, err)
	}

	publish(ctx, o.publisher, models.LoanStateEvent{
		RequestID: requestID,
		ClientID:  sub.ClientID,
		State:     status,
		Reason:    reason,
		Timestamp: now,
	})
	return nil
}

// publish never fails the workflow; the ledger is the source of truth.
func publish(ctx context.Context, publisher interfaces.EventPublisher, event models.LoanStateEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishStateChange(ctx, event); err != nil {
		telemetry.Logger.Warn("Failed to publish state change",
			zap.String("request_id", event.RequestID),
			zap.String("state", string(event.State)),
			zap.Error(err),
		)
	}
}
