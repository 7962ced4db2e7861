package stubs

import (
	"encoding/xml"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/soap"
)

const (
	chequeStatusPending = "pending"
	chequeStatusDone    = "done"

	// validCheque is the only token the simulated bank accepts.
	validCheque = "valid"
)

type bankRequest struct {
	XMLName   xml.Name
	RequestID string `xml:"request_id"`
	Cheque    string `xml:"cheque"`
}

type submitResponse struct {
	XMLName xml.Name `xml:"ms.banque.async SubmitChequeRequestResponse"`
	Result  string   `xml:"SubmitChequeRequestResult"`
}

type uploadResponse struct {
	XMLName xml.Name `xml:"ms.banque.async UploadChequeResponse"`
	Result  string   `xml:"UploadChequeResult"`
}

type statusResponse struct {
	XMLName xml.Name `xml:"ms.banque.async GetChequeStatusResponse"`
	Status  string   `xml:"GetChequeStatusResult>status"`
	Verdict string   `xml:"GetChequeStatusResult>verdict,omitempty"`
}

type chequeState struct {
	status  string
	verdict string
}

// Bank simulates the asynchronous cheque service. Submitting returns an id
// at once; the verdict is produced when the cheque is uploaded and pushed
// back through the notifier.
type Bank struct {
	mu       sync.Mutex
	requests map[string]*chequeState
	notifier *Dispatcher
}

// NewBank returns a bank that sends verdicts through notifier. A nil
// notifier only records verdicts for GetChequeStatus.
func NewBank(notifier *Dispatcher) *Bank {
	return &Bank{requests: make(map[string]*chequeState), notifier: notifier}
}

func (b *Bank) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fault(c, "soapenv:Client", "unreadable body")
		return
	}

	var req bankRequest
	if err := soap.Unmarshal(body, &req); err != nil {
		fault(c, "soapenv:Client", err.Error())
		return
	}

	switch req.XMLName.Local {
	case "SubmitChequeRequest":
		respond(c, submitResponse{Result: b.submit()})
	case "UploadCheque":
		verdict, ok := b.upload(req.RequestID, req.Cheque)
		if !ok {
			fault(c, "soapenv:Client", "unknown request_id")
			return
		}
		if b.notifier != nil {
			b.notifier.Enqueue(req.RequestID, verdict)
		}
		respond(c, uploadResponse{Result: "received"})
	case "GetChequeStatus":
		state, ok := b.status(req.RequestID)
		if !ok {
			fault(c, "soapenv:Client", "unknown request_id")
			return
		}
		respond(c, statusResponse{Status: state.status, Verdict: state.verdict})
	default:
		fault(c, "soapenv:Client", "unknown operation "+req.XMLName.Local)
	}
}

func (b *Bank) submit() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.requests[id] = &chequeState{status: chequeStatusPending}
	return id
}

func (b *Bank) upload(requestID, token string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.requests[requestID]
	if !ok {
		return "", false
	}
	verdict := models.RefusedVerdict
	if token == validCheque {
		verdict = models.ApprovedVerdict
	}
	state.status = chequeStatusDone
	state.verdict = verdict
	return verdict, true
}

func (b *Bank) status(requestID string) (chequeState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.requests[requestID]
	if !ok {
		return chequeState{}, false
	}
	return *state, true
}

func respond(c *gin.Context, content any) {
	body, err := soap.Marshal(content)
	if err != nil {
		fault(c, "soapenv:Server", err.Error())
		return
	}
	c.Data(http.StatusOK, soap.ContentType, body)
}

func fault(c *gin.Context, code, message string) {
	body, err := soap.MarshalFault(code, message)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusInternalServerError, soap.ContentType, body)
}
