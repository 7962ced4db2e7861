// Package soap encodes and decodes SOAP 1.1 envelopes with encoding/xml.
// Decoding matches element local names only, so peers may use any prefixes.
package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

const (
	EnvelopeNS  = "http://schemas.xmlsoap.org/soap/envelope/"
	ContentType = "text/xml; charset=utf-8"
)

var ErrEmptyBody = errors.New("soap: empty body")

// Fault is a SOAP 1.1 fault element.
type Fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}

type outEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	NS      string   `xml:"xmlns:soapenv,attr"`
	Body    outBody
}

type outBody struct {
	XMLName xml.Name `xml:"soapenv:Body"`
	Content any
}

type faultBody struct {
	XMLName xml.Name `xml:"soapenv:Fault"`
	Fault
}

type inEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault *Fault `xml:"Fault"`
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// Marshal wraps content in an envelope. content must carry its own XMLName.
func Marshal(content any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(outEnvelope{NS: EnvelopeNS, Body: outBody{Content: content}}); err != nil {
		return nil, fmt.Errorf("soap: encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalFault builds an envelope carrying a fault.
func MarshalFault(code, message string) ([]byte, error) {
	return Marshal(faultBody{Fault: Fault{Code: code, String: message}})
}

// Unmarshal decodes the first element of the envelope body into out.
// A fault in the body is returned as *Fault.
func Unmarshal(data []byte, out any) error {
	var env inEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("soap: decode envelope: %w", err)
	}
	if env.Body.Fault != nil {
		return env.Body.Fault
	}
	if len(bytes.TrimSpace(env.Body.Inner)) == 0 {
		return ErrEmptyBody
	}
	if err := xml.Unmarshal(env.Body.Inner, out); err != nil {
		return fmt.Errorf("soap: decode body: %w", err)
	}
	return nil
}
