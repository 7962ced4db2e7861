package stubs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/amountcheck"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/cheque"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/fundtransfer"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/riskcheck"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingSender struct {
	mu        sync.Mutex
	failures  int
	permanent bool
	sent      []*cheque.ChequeVerdict
	attempts  int
}

func (s *recordingSender) Send(_ context.Context, envelope []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.permanent {
		return backoff.Permanent(errors.New("unknown id"))
	}
	if s.attempts <= s.failures {
		return errors.New("connection refused")
	}
	v, err := cheque.ParseVerdict(envelope)
	if err != nil {
		return backoff.Permanent(err)
	}
	s.sent = append(s.sent, v)
	return nil
}

func fastDispatcher(sender Sender) *Dispatcher {
	d := NewDispatcher(context.Background(), sender)
	d.InitialInterval = time.Millisecond
	d.MaxElapsedTime = time.Second
	return d
}

func TestCeilingService(t *testing.T) {
	svc := CeilingService{Ceiling: DefaultCeiling}
	for amount, allowed := range map[float64]bool{10000: true, 50000: true, 50000.01: false} {
		resp, _ := svc.CheckLoan(context.Background(), &amountcheck.LoanRequest{LoanAmount: amount})
		if resp.Allowed != allowed {
			t.Fatalf("amount %v: expected allowed=%v", amount, allowed)
		}
	}
}

func TestRiskProfileThroughClient(t *testing.T) {
	srv := httptest.NewServer(NewRiskRouter())
	defer srv.Close()
	client := riskcheck.New(srv.URL+"/graphql", time.Second)

	for amount, want := range map[int64]models.RiskLevel{19999: models.RiskAcceptable, 20000: models.RiskHigh} {
		got, err := client.Assess(context.Background(), decimal.NewFromInt(amount), "x")
		if err != nil {
			t.Fatalf("assess %d: %v", amount, err)
		}
		if got.Level != want {
			t.Fatalf("amount %d: expected %s, got %s", amount, want, got.Level)
		}
	}
}

func TestRiskProfileMissingVariables(t *testing.T) {
	w := httptest.NewRecorder()
	NewRiskRouter().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"q","variables":{}}`)))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "errors") {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body)
	}
}

func TestFundProvider(t *testing.T) {
	srv := httptest.NewServer(NewFundRouter())
	defer srv.Close()

	out, err := fundtransfer.New(srv.URL, time.Second).Transfer(context.Background(), decimal.NewFromInt(12345), "clientX")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if out.Status != "success" || !strings.Contains(out.Message, "Fonds de 12345") {
		t.Fatalf("unexpected outcome %+v", out)
	}

	resp, err := http.Get(srv.URL + "/fundTransfers/1234/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "completed" {
		t.Fatalf("unexpected status body %v", body)
	}
}

func TestBankAsyncFlow(t *testing.T) {
	sender := &recordingSender{}
	dispatcher := fastDispatcher(sender)
	srv := httptest.NewServer(NewBankRouter(NewBank(dispatcher)))
	defer srv.Close()

	ctx := context.Background()
	client := cheque.New(srv.URL+"/soap", time.Second)

	id, err := client.Submit(ctx)
	if err != nil || id == "" {
		t.Fatalf("submit: %q %v", id, err)
	}

	status, err := client.Status(ctx, id)
	if err != nil || status.Status != chequeStatusPending {
		t.Fatalf("expected pending, got %+v %v", status, err)
	}

	if err := client.Upload(ctx, id, "valid"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	status, err = client.Status(ctx, id)
	if err != nil || status.Status != chequeStatusDone || status.Verdict != models.ApprovedVerdict {
		t.Fatalf("expected done, got %+v %v", status, err)
	}

	dispatcher.Wait()
	if len(sender.sent) != 1 || sender.sent[0].RequestID != id || sender.sent[0].Verdict != models.ApprovedVerdict {
		t.Fatalf("unexpected deliveries %+v", sender.sent)
	}

	if err := client.Upload(ctx, "unknown", "valid"); !errors.Is(err, models.ErrUnexpectedResponse) {
		t.Fatalf("expected fault for unknown id, got %v", err)
	}
}

func TestBankRefusesInvalidCheque(t *testing.T) {
	bank := NewBank(nil)
	id := bank.submit()
	verdict, ok := bank.upload(id, "forged")
	if !ok || verdict != models.RefusedVerdict {
		t.Fatalf("expected refusal, got %q %v", verdict, ok)
	}
}

func TestDispatcherRetriesUntilDelivered(t *testing.T) {
	sender := &recordingSender{failures: 3}
	d := fastDispatcher(sender)

	d.Enqueue("r1", models.RefusedVerdict)
	d.Wait()

	if sender.attempts != 4 || len(sender.sent) != 1 {
		t.Fatalf("expected delivery on 4th attempt, got %d attempts and %d deliveries", sender.attempts, len(sender.sent))
	}
}

func TestDispatcherStopsOnPermanentRejection(t *testing.T) {
	sender := &recordingSender{permanent: true}
	d := fastDispatcher(sender)

	if err := d.deliver("r1", models.ApprovedVerdict); err == nil {
		t.Fatalf("expected error")
	}
	if sender.attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", sender.attempts)
	}
}

func TestHTTPSenderClassifiesAnswers(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
		ok        bool
	}{
		{http.StatusNoContent, false, true},
		{http.StatusNotFound, true, false},
		{http.StatusConflict, false, false},
		{http.StatusInternalServerError, false, false},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		err := NewHTTPSender(srv.URL).Send(context.Background(), []byte("<x/>"))
		srv.Close()

		var perm *backoff.PermanentError
		if (err == nil) != tt.ok || errors.As(err, &perm) != tt.permanent {
			t.Fatalf("status %d: unexpected error %v", tt.status, err)
		}
	}
}
