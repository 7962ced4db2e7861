// Package fundtransfer asks the fund provider's REST API to release loan funds.
package fundtransfer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

type transferRequest struct {
	LoanAmount float64 `json:"loan_amount"`
	ClientID   string  `json:"client_id"`
}

type transferResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Links   map[string]string `json:"links,omitempty"`
}

type Client struct {
	http    *resty.Client
	baseURL string
	timeout time.Duration
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    adapters.NewHTTPClient(),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (c *Client) Transfer(ctx context.Context, loanAmount decimal.Decimal, clientID string) (*models.FundTransferOutcome, error) {
	var out transferResponse

	err := adapters.Track(ctx, models.ServiceFundTransfer, "POST /fundTransfers", c.timeout, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(transferRequest{LoanAmount: loanAmount.InexactFloat64(), ClientID: clientID}).
			Post(c.baseURL + "/fundTransfers")
		if err := adapters.CheckHTTP(models.ServiceFundTransfer, resp, err); err != nil {
			return err
		}
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return models.Unexpected(models.ServiceFundTransfer, "decode: %v", err)
		}
		if out.Status == "" {
			return models.Unexpected(models.ServiceFundTransfer, "status missing")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.FundTransferOutcome{Status: out.Status, Message: out.Message}, nil
}
