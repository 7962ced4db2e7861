// Package consumer delivers cheque verdicts published on NATS to the reconciler.
package consumer

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/cheque"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

const QueueGroup = "loan-orchestrator"

// Replies sent to verdict publishers that asked for one.
const (
	ReplyOK       = "ok"
	ReplyNotFound = "not_found"
	ReplyInvalid  = "invalid"
	ReplyRetry    = "retry"
)

type CallbackHandler interface {
	HandleCallback(ctx context.Context, requestID, verdict string) (*models.CallbackResult, error)
}

type CallbackSubscriber struct {
	nc      *nats.Conn
	subject string
	handler CallbackHandler
}

func NewCallbackSubscriber(nc *nats.Conn, subject string, handler CallbackHandler) *CallbackSubscriber {
	return &CallbackSubscriber{nc: nc, subject: subject, handler: handler}
}

// Run consumes verdicts until ctx is cancelled, then drains the subscription.
func (s *CallbackSubscriber) Run(ctx context.Context) error {
	sub, err := s.nc.QueueSubscribe(s.subject, QueueGroup, func(msg *nats.Msg) {
		reply := handle(ctx, s.handler, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond([]byte(reply)); err != nil {
			telemetry.Logger.Warn("Failed to answer verdict publisher", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	telemetry.Logger.Info("Started consuming cheque verdicts",
		zap.String("subject", s.subject),
		zap.String("queue", QueueGroup),
	)

	<-ctx.Done()
	return sub.Drain()
}

func handle(ctx context.Context, handler CallbackHandler, data []byte) string {
	v, err := cheque.ParseVerdict(data)
	if err != nil {
		telemetry.Logger.Error("Error decoding cheque verdict", zap.Error(err))
		return ReplyInvalid
	}

	_, err = handler.HandleCallback(ctx, v.RequestID, v.Verdict)
	switch {
	case err == nil:
		return ReplyOK
	case errors.Is(err, models.ErrNotFound):
		return ReplyNotFound
	case errors.Is(err, models.ErrValidation):
		return ReplyInvalid
	default:
		telemetry.Logger.Error("Error processing cheque verdict",
			zap.String("request_id", v.RequestID),
			zap.Error(err),
		)
		return ReplyRetry
	}
}
