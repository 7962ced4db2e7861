// Package amountcheck calls the amount ceiling service over gRPC.
package amountcheck

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// Dial prepares a lazy connection to target; nothing is sent until the first Check.
func Dial(target string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
	}, opts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Check(ctx context.Context, loanAmount decimal.Decimal) (*models.VerificationVerdict, error) {
	req := &LoanRequest{LoanAmount: loanAmount.InexactFloat64()}
	resp := new(LoanResponse)

	err := adapters.Track(ctx, models.ServiceAmountCheck, "CheckLoan", c.timeout, func(ctx context.Context) error {
		if err := c.conn.Invoke(ctx, CheckLoanMethod, req, resp); err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.VerificationVerdict{Allowed: resp.Allowed, Message: resp.Message}, nil
}

func classify(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return models.Unavailable(models.ServiceAmountCheck, err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		return models.Unavailable(models.ServiceAmountCheck, err)
	}
	return models.Unexpected(models.ServiceAmountCheck, "%s: %s", st.Code(), st.Message())
}
