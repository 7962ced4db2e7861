package cheque

import (
	"errors"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/soap"
)

var ErrMalformedVerdict = errors.New("malformed cheque verdict")

// ParseVerdict decodes a verdict envelope pushed by the bank. The request id
// and verdict must both be present.
func ParseVerdict(data []byte) (*ChequeVerdict, error) {
	var v ChequeVerdict
	if err := soap.Unmarshal(data, &v); err != nil {
		return nil, errors.Join(ErrMalformedVerdict, err)
	}
	if v.RequestID == "" || v.Verdict == "" {
		return nil, ErrMalformedVerdict
	}
	return &v, nil
}

// MarshalVerdict builds the envelope the bank sends back for requestID.
func MarshalVerdict(requestID, verdict string) ([]byte, error) {
	return soap.Marshal(ChequeVerdict{RequestID: requestID, Verdict: verdict})
}
