package amountcheck

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

type fakeCeiling struct {
	ceiling float64
	err     error
	seen    []float64
}

func (f *fakeCeiling) CheckLoan(_ context.Context, req *LoanRequest) (*LoanResponse, error) {
	f.seen = append(f.seen, req.LoanAmount)
	if f.err != nil {
		return nil, f.err
	}
	if req.LoanAmount <= f.ceiling {
		return &LoanResponse{Allowed: true, Message: "Demande acceptée"}, nil
	}
	return &LoanResponse{Allowed: false, Message: "Montant trop élevé"}, nil
}

func startServer(t *testing.T, srv CeilingServer) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.ForceServerCodec(Codec{}))
	RegisterCeilingServer(s, srv)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	client, err := Dial("passthrough:///bufnet", time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCheckWithinCeiling(t *testing.T) {
	srv := &fakeCeiling{ceiling: 50000}
	client := startServer(t, srv)

	verdict, err := client.Check(context.Background(), decimal.NewFromFloat(1000.5))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !verdict.Allowed || verdict.Message != "Demande acceptée" {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
	if len(srv.seen) != 1 || srv.seen[0] != 1000.5 {
		t.Fatalf("server saw %v", srv.seen)
	}
}

func TestCheckAboveCeiling(t *testing.T) {
	client := startServer(t, &fakeCeiling{ceiling: 50000})

	verdict, err := client.Check(context.Background(), decimal.NewFromInt(60000))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if verdict.Allowed || verdict.Message != "Montant trop élevé" {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
}

func TestCheckClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), models.ErrAdapterUnavailable},
		{"internal", status.Error(codes.Internal, "boom"), models.ErrUnexpectedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := startServer(t, &fakeCeiling{err: tt.err})
			_, err := client.Check(context.Background(), decimal.NewFromInt(1))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCheckUnreachable(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	lis.Close()

	client, err := Dial("passthrough:///bufnet", 200*time.Millisecond,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	_, err = client.Check(context.Background(), decimal.NewFromInt(1))
	if !errors.Is(err, models.ErrAdapterUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestCodecSkipsUnknownFields(t *testing.T) {
	resp := &LoanResponse{Allowed: true, Message: "ok"}
	data, err := Codec{}.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// field 7, varint 1
	data = append(data, 0x38, 0x01)

	var got LoanResponse
	if err := (Codec{}).Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != *resp {
		t.Fatalf("got %+v", got)
	}
}
