package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/cheque"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/soap"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

type CallbackService interface {
	HandleCallback(ctx context.Context, requestID, verdict string) (*models.CallbackResult, error)
	SyncFromBank(ctx context.Context, requestID string) (*models.CallbackResult, error)
}

type CallbackHandler struct {
	callbacks CallbackService
}

func NewCallbackHandler(callbacks CallbackService) *CallbackHandler {
	return &CallbackHandler{callbacks: callbacks}
}

// ReceiveVerdict acknowledges a bank verdict with an empty 204. Failures are
// answered with a SOAP fault.
func (h *CallbackHandler) ReceiveVerdict(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		writeFault(c, http.StatusBadRequest, "soapenv:Client", "unreadable body")
		return
	}

	v, err := cheque.ParseVerdict(body)
	if err != nil {
		telemetry.Logger.Error("Error decoding cheque verdict", zap.Error(err))
		writeFault(c, http.StatusBadRequest, "soapenv:Client", cheque.ErrMalformedVerdict.Error())
		return
	}

	if _, err := h.callbacks.HandleCallback(c.Request.Context(), v.RequestID, v.Verdict); err != nil {
		code := "soapenv:Server"
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrValidation) {
			code = "soapenv:Client"
		}
		if statusFor(err) == http.StatusInternalServerError {
			telemetry.Logger.Error("Error processing cheque verdict",
				zap.String("request_id", v.RequestID),
				zap.Error(err),
			)
		}
		writeFault(c, statusFor(err), code, models.PublicReason(err))
		return
	}

	c.Status(http.StatusNoContent)
}

// SyncFromBank pulls the verdict of a pending request from the bank.
func (h *CallbackHandler) SyncFromBank(c *gin.Context) {
	requestID := c.Param("id")

	res, err := h.callbacks.SyncFromBank(c.Request.Context(), requestID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id":        requestID,
		"status":            res.Status,
		"funds_transferred": res.FundsTransferred,
	})
}

func writeFault(c *gin.Context, status int, code, message string) {
	body, err := soap.MarshalFault(code, message)
	if err != nil {
		c.Status(status)
		return
	}
	c.Data(status, soap.ContentType, body)
}
