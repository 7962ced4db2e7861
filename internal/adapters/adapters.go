// Package adapters holds what the four backend clients share: call tracking and
// failure classification. Each protocol lives in its own subpackage.
package adapters

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

const DefaultTimeout = 5 * time.Second

// Track runs call under a client span bounded by timeout and records its metrics.
func Track(ctx context.Context, service, operation string, timeout time.Duration, call func(ctx context.Context) error) error {
	ctx, span := telemetry.StartClientSpan(ctx, service, operation)
	defer span.End()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := call(ctx)
	telemetry.ObserveBackendCall(service, resultLabel(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, models.PublicReason(err))
		telemetry.Logger.Warn("Backend call failed",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrAdapterUnavailable):
		return "unavailable"
	case errors.Is(err, models.ErrUnexpectedResponse):
		return "unexpected"
	default:
		return "error"
	}
}

// CheckHTTP classifies a resty round trip: transport failures and 5xx mean the
// service is unavailable, any other non-2xx reply is unexpected.
func CheckHTTP(service string, resp *resty.Response, err error) error {
	if err != nil {
		return models.Unavailable(service, err)
	}
	code := resp.StatusCode()
	switch {
	case code >= http.StatusInternalServerError:
		return models.Unavailable(service, errors.New(resp.Status()))
	case code < http.StatusOK || code >= http.StatusMultipleChoices:
		return models.Unexpected(service, "status %s", resp.Status())
	}
	return nil
}

// NewHTTPClient returns a resty client configured for the HTTP based adapters.
func NewHTTPClient() *resty.Client {
	return resty.New().
		SetHeader("User-Agent", "loan-orchestrator")
}
