package stubs

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/cheque"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/consumer"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/soap"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

const sendTimeout = 5 * time.Second

// Sender pushes one verdict envelope to the gateway. Errors wrapped with
// backoff.Permanent stop the retries.
type Sender interface {
	Send(ctx context.Context, envelope []byte) error
}

type HTTPSender struct {
	client *resty.Client
	url    string
}

func NewHTTPSender(callbackURL string) *HTTPSender {
	return &HTTPSender{client: resty.New(), url: callbackURL}
}

func (s *HTTPSender) Send(ctx context.Context, envelope []byte) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", soap.ContentType).
		SetBody(envelope).
		Post(s.url)
	if err != nil {
		return err
	}

	switch code := resp.StatusCode(); {
	case resp.IsSuccess():
		return nil
	case code == http.StatusNotFound || code == http.StatusBadRequest:
		return backoff.Permanent(fmt.Errorf("gateway rejected verdict: %s", resp.Status()))
	default:
		return fmt.Errorf("gateway answered %s", resp.Status())
	}
}

type NATSSender struct {
	nc      *nats.Conn
	subject string
}

func NewNATSSender(nc *nats.Conn, subject string) *NATSSender {
	return &NATSSender{nc: nc, subject: subject}
}

func (s *NATSSender) Send(ctx context.Context, envelope []byte) error {
	msg, err := s.nc.RequestWithContext(ctx, s.subject, envelope)
	if err != nil {
		return err
	}

	switch reply := string(msg.Data); reply {
	case consumer.ReplyOK:
		return nil
	case consumer.ReplyNotFound, consumer.ReplyInvalid:
		return backoff.Permanent(fmt.Errorf("gateway rejected verdict: %s", reply))
	default:
		return fmt.Errorf("gateway answered %s", reply)
	}
}

// Dispatcher delivers verdicts asynchronously with at-least-once semantics.
// Deliveries run independently, so verdicts for different requests may
// arrive in any order.
type Dispatcher struct {
	ctx    context.Context
	sender Sender

	// Delay postpones the first attempt, imitating the bank's processing time.
	Delay           time.Duration
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration

	wg sync.WaitGroup
}

// NewDispatcher returns a dispatcher whose deliveries stop when ctx is done.
func NewDispatcher(ctx context.Context, sender Sender) *Dispatcher {
	return &Dispatcher{
		ctx:             ctx,
		sender:          sender,
		InitialInterval: 200 * time.Millisecond,
		MaxElapsedTime:  2 * time.Minute,
	}
}

func (d *Dispatcher) Enqueue(requestID, verdict string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.deliver(requestID, verdict); err != nil {
			telemetry.Logger.Error("Verdict delivery abandoned",
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every enqueued delivery has finished or given up.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(requestID, verdict string) error {
	envelope, err := cheque.MarshalVerdict(requestID, verdict)
	if err != nil {
		return err
	}

	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-d.ctx.Done():
			return d.ctx.Err()
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.InitialInterval
	policy.MaxElapsedTime = d.MaxElapsedTime

	attempt := func() error {
		ctx, cancel := context.WithTimeout(d.ctx, sendTimeout)
		defer cancel()
		return d.sender.Send(ctx, envelope)
	}
	notify := func(err error, wait time.Duration) {
		telemetry.Logger.Warn("Verdict delivery failed, retrying",
			zap.String("request_id", requestID),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(attempt, backoff.WithContext(policy, d.ctx), notify); err != nil {
		return err
	}
	telemetry.Logger.Info("Verdict delivered", zap.String("request_id", requestID))
	return nil
}
