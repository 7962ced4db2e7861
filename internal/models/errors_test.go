package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAdapterErrorMatchesKindAndCause(t *testing.T) {
	err := Unavailable(ServiceRiskCheck, context.DeadlineExceeded)
	wrapped := fmt.Errorf("assess: %w", err)

	if !errors.Is(wrapped, ErrAdapterUnavailable) {
		t.Fatalf("expected kind to match")
	}
	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Fatalf("expected cause to match")
	}
	if errors.Is(wrapped, ErrUnexpectedResponse) {
		t.Fatalf("unexpected kind match")
	}
}

func TestPublicReasonHidesCause(t *testing.T) {
	err := Unexpected(ServiceChequeSubmit, "raw body %q", "<html>stack trace</html>")
	got := PublicReason(err)
	if got != "cheque-submission unexpected response" {
		t.Fatalf("unexpected reason %q", got)
	}

	if got := PublicReason(NewValidationError("missing required parameters")); got != "missing required parameters" {
		t.Fatalf("unexpected validation reason %q", got)
	}
	if got := PublicReason(fmt.Errorf("lookup: %w", ErrNotFound)); got != "unknown id" {
		t.Fatalf("unexpected not found reason %q", got)
	}
	if got := PublicReason(errors.New("pq: connection reset")); got != "internal error" {
		t.Fatalf("unexpected fallback reason %q", got)
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatalf("pending must not be terminal")
	}
	for _, s := range []LoanStatus{StatusApproved, StatusRefused, StatusError} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
}
