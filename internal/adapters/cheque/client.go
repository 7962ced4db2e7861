// Package cheque talks SOAP to the asynchronous bank service that validates cheques.
package cheque

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/soap"
)

type Client struct {
	http     *resty.Client
	endpoint string
	timeout  time.Duration
}

func New(endpoint string, timeout time.Duration) *Client {
	return &Client{http: adapters.NewHTTPClient(), endpoint: endpoint, timeout: timeout}
}

// Submit opens a cheque request at the bank and returns its id. The bank answers
// immediately; the verdict arrives later through the callback.
func (c *Client) Submit(ctx context.Context) (string, error) {
	var out SubmitChequeRequestResponse
	err := adapters.Track(ctx, models.ServiceChequeSubmit, "SubmitChequeRequest", c.timeout, func(ctx context.Context) error {
		return c.call(ctx, models.ServiceChequeSubmit, "SubmitChequeRequest", SubmitChequeRequest{}, &out)
	})
	if err != nil {
		return "", err
	}

	id := strings.TrimSpace(out.Result)
	if id == "" {
		return "", models.Unexpected(models.ServiceChequeSubmit, "empty request id")
	}
	return id, nil
}

func (c *Client) Upload(ctx context.Context, requestID, cheque string) error {
	var out UploadChequeResponse
	return adapters.Track(ctx, models.ServiceChequeUpload, "UploadCheque", c.timeout, func(ctx context.Context) error {
		return c.call(ctx, models.ServiceChequeUpload, "UploadCheque", UploadCheque{RequestID: requestID, Cheque: cheque}, &out)
	})
}

func (c *Client) Status(ctx context.Context, requestID string) (*models.ChequeStatus, error) {
	var out GetChequeStatusResponse
	err := adapters.Track(ctx, models.ServiceChequeStatus, "GetChequeStatus", c.timeout, func(ctx context.Context) error {
		return c.call(ctx, models.ServiceChequeStatus, "GetChequeStatus", GetChequeStatus{RequestID: requestID}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &models.ChequeStatus{Status: out.Status, Verdict: out.Verdict}, nil
}

func (c *Client) call(ctx context.Context, service, action string, in, out any) error {
	payload, err := soap.Marshal(in)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", soap.ContentType).
		SetHeader("SOAPAction", action).
		SetBody(payload).
		Post(c.endpoint)
	if err != nil {
		return models.Unavailable(service, err)
	}

	decodeErr := soap.Unmarshal(resp.Body(), out)
	var fault *soap.Fault
	if errors.As(decodeErr, &fault) {
		return models.Unexpected(service, "%v", fault)
	}
	if err := adapters.CheckHTTP(service, resp, nil); err != nil {
		return err
	}
	if decodeErr != nil {
		return models.Unexpected(service, "%v", decodeErr)
	}
	return nil
}
