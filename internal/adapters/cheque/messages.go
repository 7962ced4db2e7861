package cheque

import "encoding/xml"

// Namespace of the asynchronous bank service.
const Namespace = "ms.banque.async"

// Requests carry the bank namespace; responses and callbacks are matched by
// local name only.

type SubmitChequeRequest struct {
	XMLName xml.Name `xml:"ms.banque.async SubmitChequeRequest"`
}

type SubmitChequeRequestResponse struct {
	XMLName xml.Name `xml:"SubmitChequeRequestResponse"`
	Result  string   `xml:"SubmitChequeRequestResult"`
}

type UploadCheque struct {
	XMLName   xml.Name `xml:"ms.banque.async UploadCheque"`
	RequestID string   `xml:"request_id"`
	Cheque    string   `xml:"cheque"`
}

type UploadChequeResponse struct {
	XMLName xml.Name `xml:"UploadChequeResponse"`
	Result  string   `xml:"UploadChequeResult"`
}

type GetChequeStatus struct {
	XMLName   xml.Name `xml:"ms.banque.async GetChequeStatus"`
	RequestID string   `xml:"request_id"`
}

type GetChequeStatusResponse struct {
	XMLName xml.Name `xml:"GetChequeStatusResponse"`
	Status  string   `xml:"GetChequeStatusResult>status"`
	Verdict string   `xml:"GetChequeStatusResult>verdict"`
}

// ChequeVerdict is the callback the bank pushes once a cheque has been examined.
type ChequeVerdict struct {
	XMLName   xml.Name `xml:"ChequeVerdict"`
	RequestID string   `xml:"request_id"`
	Verdict   string   `xml:"verdict"`
}
