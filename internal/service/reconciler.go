package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/interfaces"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

const bankStatusDone = "done"

// Reconciler applies cheque verdicts delivered by the bank. Delivery is
// at-least-once and unordered, so a verdict only moves a pending record and
// funds are transferred at most once per request.
type Reconciler struct {
	ledger    interfaces.LoanLedger
	funds     interfaces.FundTransferer
	bank      interfaces.ChequeStatusChecker
	locker    interfaces.Locker
	publisher interfaces.EventPublisher
	lockTTL   time.Duration
}

func NewReconciler(
	ledger interfaces.LoanLedger,
	funds interfaces.FundTransferer,
	bank interfaces.ChequeStatusChecker,
	locker interfaces.Locker,
	publisher interfaces.EventPublisher,
	lockTTL time.Duration,
) *Reconciler {
	return &Reconciler{
		ledger:    ledger,
		funds:     funds,
		bank:      bank,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
	}
}

type callbackRequest struct {
	RequestID string `json:"request_id"`
	Verdict   string `json:"verdict"`
}

type transferRequest struct {
	LoanAmount string `json:"loan_amount"`
	ClientID   string `json:"client_id"`
}

func (r *Reconciler) HandleCallback(ctx context.Context, requestID, verdict string) (*models.CallbackResult, error) {
	requestID = strings.TrimSpace(requestID)
	verdict = strings.TrimSpace(verdict)
	if requestID == "" || verdict == "" {
		telemetry.CountCallback("invalid")
		return nil, models.NewValidationError("missing request_id or verdict")
	}

	release, ok, err := r.locker.Acquire(ctx, "callback:"+requestID, r.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire callback lock: %w", err)
	}
	if !ok {
		telemetry.CountCallback("in_flight")
		return nil, models.ErrCallbackInFlight
	}
	defer release()

	rec, err := r.ledger.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			telemetry.CountCallback("not_found")
			telemetry.Logger.Warn("Callback for unknown request", zap.String("request_id", requestID))
		}
		return nil, err
	}

	// Once the record has moved, the rest must run even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	target := models.StatusRefused
	if verdict == models.ApprovedVerdict {
		target = models.StatusApproved
	}

	applied, err := r.ledger.TransitionStatus(ctx, requestID, models.StatusPending, target, verdict)
	if err != nil {
		return nil, err
	}

	callReq := callbackRequest{RequestID: requestID, Verdict: verdict}
	if !applied {
		current, err := r.ledger.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}
		note := fmt.Sprintf("ignored: record already %s", current.Status)
		if err := r.ledger.AppendHistory(ctx, requestID, models.NewNoteRecord(models.ServiceCallback, callReq, note)); err != nil {
			return nil, err
		}
		telemetry.CountCallback("duplicate")
		telemetry.Logger.Info("Duplicate callback ignored",
			zap.String("request_id", requestID),
			zap.String("status", string(current.Status)),
		)
		return &models.CallbackResult{RequestID: requestID, Status: current.Status, Duplicate: true}, nil
	}

	if err := r.ledger.AppendHistory(ctx, requestID, models.NewCallRecord(models.ServiceCallback, callReq, map[string]models.LoanStatus{"status": target}, nil)); err != nil {
		return nil, err
	}

	event := models.LoanStateEvent{
		RequestID:     requestID,
		ClientID:      rec.ClientID,
		State:         target,
		PreviousState: models.StatusPending,
		Timestamp:     time.Now().UTC(),
	}
	if target == models.StatusRefused {
		event.Reason = verdict
	}
	publish(ctx, r.publisher, event)

	result := &models.CallbackResult{RequestID: requestID, Status: target}
	if target == models.StatusApproved {
		result.FundsTransferred = r.transferFunds(ctx, rec)
	}

	telemetry.CountCallback(string(target))
	telemetry.Logger.Info("Cheque verdict applied",
		zap.String("request_id", requestID),
		zap.String("status", string(target)),
		zap.Bool("funds_transferred", result.FundsTransferred),
	)
	return result, nil
}

// transferFunds records the transfer attempt. A failure leaves the record
// approved and is not retried.
func (r *Reconciler) transferFunds(ctx context.Context, rec *models.LoanRecord) bool {
	outcome, err := r.funds.Transfer(ctx, rec.LoanAmount, rec.ClientID)
	req := transferRequest{LoanAmount: rec.LoanAmount.String(), ClientID: rec.ClientID}
	if herr := r.ledger.AppendHistory(ctx, rec.RequestID, models.NewCallRecord(models.ServiceFundTransfer, req, outcome, err)); herr != nil {
		telemetry.Logger.Error("Failed to record fund transfer",
			zap.String("request_id", rec.RequestID),
			zap.Error(herr),
		)
	}
	if err != nil {
		telemetry.Logger.Error("Fund transfer failed",
			zap.String("request_id", rec.RequestID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// SyncFromBank asks the bank for the verdict of a pending request and
// applies it as if it had been called back. While the bank is still
// processing the result reports the record as pending.
func (r *Reconciler) SyncFromBank(ctx context.Context, requestID string) (*models.CallbackResult, error) {
	rec, err := r.ledger.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusPending {
		return &models.CallbackResult{RequestID: requestID, Status: rec.Status, Duplicate: true}, nil
	}
	if r.bank == nil {
		return nil, models.Unavailable(models.ServiceChequeStatus, errors.New("no bank status client configured"))
	}

	status, err := r.bank.Status(ctx, requestID)
	entry := models.NewCallRecord(models.ServiceChequeStatus, map[string]string{"request_id": requestID}, status, err)
	if herr := r.ledger.AppendHistory(ctx, requestID, entry); herr != nil {
		return nil, herr
	}
	if err != nil {
		return nil, err
	}
	if status.Status != bankStatusDone || status.Verdict == "" {
		return &models.CallbackResult{RequestID: requestID, Status: models.StatusPending}, nil
	}
	return r.HandleCallback(ctx, requestID, status.Verdict)
}
