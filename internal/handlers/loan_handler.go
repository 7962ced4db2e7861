package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/service"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

const maxBodyBytes = 1 << 20

type LoanService interface {
	Submit(ctx context.Context, app service.LoanApplication) (*models.LoanOutcome, error)
	Status(ctx context.Context, requestID string) (*models.LoanRecord, error)
	History(ctx context.Context, requestID string) ([]models.CallRecord, error)
	UploadCheque(ctx context.Context, requestID, cheque string) error
}

type LoanHandler struct {
	loans LoanService
}

// loanRequest keeps raw values so that numbers, strings and objects are all
// accepted; id and check are legacy spellings of client_id and cheque.
type loanRequest struct {
	ClientID     json.RawMessage `json:"client_id"`
	ID           json.RawMessage `json:"id"`
	PersonalInfo json.RawMessage `json:"personal_info"`
	LoanAmount   json.RawMessage `json:"loan_amount"`
	Cheque       json.RawMessage `json:"cheque"`
	Check        json.RawMessage `json:"check"`
}

type chequeUploadRequest struct {
	Cheque json.RawMessage `json:"cheque"`
	Check  json.RawMessage `json:"check"`
}

func NewLoanHandler(loans LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

func (h *LoanHandler) SubmitLoan(c *gin.Context) {
	var req loanRequest
	if err := bindJSON(c, &req); err != nil {
		telemetry.Logger.Error("Error decoding loan request", zap.Error(err))
		c.JSON(http.StatusBadRequest, models.LoanOutcome{Status: models.StatusError, Reason: "invalid request body"})
		return
	}

	app := service.LoanApplication{
		ClientID:     firstText(req.ClientID, req.ID),
		PersonalInfo: opaqueText(req.PersonalInfo),
		LoanAmount:   scalarText(req.LoanAmount),
		Cheque:       firstText(req.Cheque, req.Check),
	}

	outcome, err := h.loans.Submit(c.Request.Context(), app)
	if outcome == nil {
		telemetry.Logger.Error("Error processing loan", zap.Error(err))
		c.JSON(statusFor(err), models.LoanOutcome{Status: models.StatusError, Reason: models.PublicReason(err)})
		return
	}
	if err != nil {
		c.JSON(statusFor(err), outcome)
		return
	}
	if outcome.Status == models.StatusRefused {
		c.JSON(http.StatusBadRequest, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *LoanHandler) GetStatus(c *gin.Context) {
	requestID := c.Param("id")

	rec, err := h.loans.Status(c.Request.Context(), requestID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	body := gin.H{"request_id": requestID, "status": rec.Status}
	if rec.Status == models.StatusRefused || rec.Status == models.StatusError {
		body["reason"] = rec.Reason
	}
	c.JSON(http.StatusOK, body)
}

func (h *LoanHandler) GetHistory(c *gin.Context) {
	requestID := c.Param("id")

	history, err := h.loans.History(c.Request.Context(), requestID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "history": history})
}

func (h *LoanHandler) UploadCheque(c *gin.Context) {
	requestID := c.Param("id")

	var req chequeUploadRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.loans.UploadCheque(c.Request.Context(), requestID, firstText(req.Cheque, req.Check)); err != nil {
		telemetry.Logger.Warn("Cheque upload rejected",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"request_id": requestID, "status": models.StatusPending})
}

func bindJSON(c *gin.Context, obj any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return c.ShouldBindJSON(obj)
}

func firstText(values ...json.RawMessage) string {
	for _, v := range values {
		if text := scalarText(v); text != "" {
			return text
		}
	}
	return ""
}

// scalarText returns a JSON string unquoted and any other value as its
// literal text. Absent and null values yield "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// opaqueText keeps non-string payloads as compact JSON.
func opaqueText(raw json.RawMessage) string {
	text := scalarText(raw)
	if text == "" || strings.HasPrefix(strings.TrimSpace(string(raw)), `"`) {
		return text
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return text
	}
	return buf.String()
}
