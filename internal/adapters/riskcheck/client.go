// Package riskcheck queries the risk profile service through its GraphQL endpoint.
package riskcheck

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

const riskProfileQuery = `query($loanAmount: Float!, $clientInfo: String!) {
  riskProfile(loanAmount: $loanAmount, clientInfo: $clientInfo)
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// graphQLResponse accepts the standard {"data": {...}} shape as well as the bare
// {"riskProfile": ...} object some servers return.
type graphQLResponse struct {
	Data *struct {
		RiskProfile *string `json:"riskProfile"`
	} `json:"data"`
	RiskProfile *string        `json:"riskProfile"`
	Errors      []graphQLError `json:"errors"`
}

type Client struct {
	http     *resty.Client
	endpoint string
	timeout  time.Duration
}

func New(endpoint string, timeout time.Duration) *Client {
	return &Client{http: adapters.NewHTTPClient(), endpoint: endpoint, timeout: timeout}
}

func (c *Client) Assess(ctx context.Context, loanAmount decimal.Decimal, personalInfo string) (*models.RiskAssessment, error) {
	var level models.RiskLevel

	err := adapters.Track(ctx, models.ServiceRiskCheck, "riskProfile", c.timeout, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(graphQLRequest{
				Query: riskProfileQuery,
				Variables: map[string]any{
					"loanAmount": loanAmount.InexactFloat64(),
					"clientInfo": personalInfo,
				},
			}).
			Post(c.endpoint)
		if err := adapters.CheckHTTP(models.ServiceRiskCheck, resp, err); err != nil {
			return err
		}

		level, err = parse(resp.Body())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.RiskAssessment{Level: level}, nil
}

func parse(body []byte) (models.RiskLevel, error) {
	var out graphQLResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", models.Unexpected(models.ServiceRiskCheck, "decode: %v", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return "", models.Unexpected(models.ServiceRiskCheck, "graphql errors: %s", strings.Join(msgs, "; "))
	}

	profile := out.RiskProfile
	if out.Data != nil && out.Data.RiskProfile != nil {
		profile = out.Data.RiskProfile
	}
	if profile == nil {
		return "", models.Unexpected(models.ServiceRiskCheck, "riskProfile missing")
	}

	switch level := models.RiskLevel(*profile); level {
	case models.RiskAcceptable, models.RiskHigh:
		return level, nil
	}
	return "", models.Unexpected(models.ServiceRiskCheck, "unknown risk profile %q", *profile)
}
