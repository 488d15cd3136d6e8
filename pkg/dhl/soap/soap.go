// Package soap composes DHL Express SOAP envelopes and parses their
// responses. Builders are pure: normalized input in, transport request
// out. Parsers are tolerant: unknown elements are ignored, missing
// elements default, repeated elements aggregate.
package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

// SOAP endpoints and actions on the DHL Express web-services host.
const (
	ratePath  = "/sndpt/expressRateBook"
	trackPath = "/gbl/glDHLExpressTrack"
	epodPath  = "/gbl/getePOD"

	rateAction  = "euExpressRateBook_providerServices_ShipmentHandlingServices_Binder_getRateRequest"
	shipAction  = "euExpressRateBook_providerServices_ShipmentHandlingServices_Binder_createShipmentRequest"
	trackAction = "glDHLExpressTrack_providers_services_trackShipment_Binder_trackShipmentRequest"
	epodAction  = "euExpressRateBook_providerServices_DocumentRetrieve_Binder_shipmentDocumentRetrieve"
)

// Calendar answers business-day questions for the default ship date.
type Calendar interface {
	IsBusinessDay(country string, t time.Time) bool
}

// Config holds everything the composer needs. Credentials go into the
// WS-Security header; HTTP Basic auth is the transport's job.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Account  string
	// ShipWindowMin/Max bound the accepted ship timestamp relative to
	// now. Observed carrier behavior, not published contract, hence
	// configurable. Zero values get 1h and 216h (9 days).
	ShipWindowMin time.Duration
	ShipWindowMax time.Duration
	// Now is the clock, overridable in tests.
	Now      func() time.Time
	Calendar Calendar
}

// Composer builds SOAP requests for every DHL Express operation.
type Composer struct {
	cfg Config
}

// NewComposer creates a composer, filling in clock and window defaults.
func NewComposer(cfg Config) *Composer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ShipWindowMin == 0 {
		cfg.ShipWindowMin = time.Hour
	}
	if cfg.ShipWindowMax == 0 {
		cfg.ShipWindowMax = 9 * 24 * time.Hour
	}
	return &Composer{cfg: cfg}
}

// dhlTimestamp renders t the way DHL wants it:
// YYYY-MM-DDTHH:MM:SSGMT+00:00, always in UTC.
func dhlTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05") + "GMT+00:00"
}

// clampShipTimestamp enforces the carrier-accepted window. A nil input
// defaults to the next business day at 10:00 UTC.
func (c *Composer) clampShipTimestamp(requested *time.Time, destCountry string) time.Time {
	now := c.cfg.Now().UTC()
	if requested == nil {
		day := now.AddDate(0, 0, 1)
		if c.cfg.Calendar != nil {
			for !c.cfg.Calendar.IsBusinessDay(destCountry, day) {
				day = day.AddDate(0, 0, 1)
			}
		}
		return time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.UTC)
	}

	t := requested.UTC()
	min := now.Add(c.cfg.ShipWindowMin)
	max := now.Add(c.cfg.ShipWindowMax)
	if t.Before(min) {
		return min
	}
	if t.After(max) {
		return max
	}
	return t
}

// ClampShip exposes the ship-timestamp clamp so callers can echo the
// timestamp actually sent to the carrier.
func (c *Composer) ClampShip(requested *time.Time, destCountry string) time.Time {
	return c.clampShipTimestamp(requested, destCountry)
}

// xmlEscape escapes XML metacharacters exactly once, at render time.
func xmlEscape(s string) string {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

// messageRef returns a fresh correlation reference for the envelope.
func messageRef() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

const envelopeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Header>
    <wsse:Security soapenv:mustUnderstand="1" xmlns:wsse="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd">
      <wsse:UsernameToken>
        <wsse:Username>{{.Username}}</wsse:Username>
        <wsse:Password Type="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText">{{.Password}}</wsse:Password>
      </wsse:UsernameToken>
    </wsse:Security>
  </soapenv:Header>
  <soapenv:Body>
    {{.Body}}
  </soapenv:Body>
</soapenv:Envelope>`

// buildEnvelope renders the operation body into the shared WS-Security
// envelope.
func (c *Composer) buildEnvelope(bodyTemplate string, data interface{}) ([]byte, error) {
	bodyTmpl, err := template.New("body").Parse(bodyTemplate)
	if err != nil {
		return nil, err
	}
	var bodyBuf bytes.Buffer
	if err := bodyTmpl.Execute(&bodyBuf, data); err != nil {
		return nil, err
	}

	envTmpl, err := template.New("envelope").Parse(envelopeTemplate)
	if err != nil {
		return nil, err
	}
	envData := struct {
		Username string
		Password string
		Body     string
	}{
		Username: xmlEscape(c.cfg.Username),
		Password: xmlEscape(c.cfg.Password),
		Body:     bodyBuf.String(),
	}
	var envBuf bytes.Buffer
	if err := envTmpl.Execute(&envBuf, envData); err != nil {
		return nil, err
	}
	return envBuf.Bytes(), nil
}

// soapRequest wraps the envelope into a transport request.
func (c *Composer) soapRequest(path, action, operation string, body []byte, idempotent bool) *transport.Request {
	return &transport.Request{
		URL:    c.cfg.BaseURL + path,
		Method: "POST",
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=utf-8",
			"SOAPAction":   action,
		},
		Body:       body,
		Idempotent: idempotent,
		Operation:  operation,
	}
}

// ============================================================================
// Error types parsers hand back
// ============================================================================

// FaultError is a SOAP Fault or a non-zero DHL notification. The code
// carries the carrier's value verbatim.
type FaultError struct {
	Code       string
	Message    string
	Suggestion string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("dhl fault %s: %s", e.Code, e.Message)
}

// ParseError means a 2xx body could not be understood.
type ParseError struct {
	Reason string
	Raw    []byte
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse: %s: %v", e.Reason, e.Cause)
	}
	return "parse: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Cause }

// NotFoundError means DHL answered but carried no record for the
// requested identity. Distinct from an empty success.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Message }

// parseDecimalText reads carrier numeric text defensively: empty or
// non-finite text yields zero with ok=false.
func parseDecimalText(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	switch strings.ToLower(s) {
	case "nan", "-nan", "inf", "+inf", "-inf", "infinity", "-infinity":
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// envelopeFault is the generic SOAP fault shape, checked before any
// operation-specific parse.
type envelopeFault struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault *struct {
			Code   string `xml:"faultcode"`
			String string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// faultOf extracts a SOAP Fault if the body carries one.
func faultOf(body []byte) *FaultError {
	var env envelopeFault
	if err := xml.Unmarshal(body, &env); err == nil && env.Body.Fault != nil {
		return &FaultError{Code: env.Body.Fault.Code, Message: env.Body.Fault.String}
	}
	return nil
}
