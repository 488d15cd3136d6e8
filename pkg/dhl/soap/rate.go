package soap

import (
	"encoding/xml"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

// AddressInput is the wire-level address slice of a SOAP request.
// Callers hand in already-cleaned text; escaping happens here.
type AddressInput struct {
	Street  string
	City    string
	Postal  string
	Country string
}

// RateInput is everything the rate envelope needs. Weight must be the
// effective quote weight selected by the weight engine.
type RateInput struct {
	Origin      AddressInput
	Destination AddressInput
	Weight      decimal.Decimal
	Length      decimal.Decimal
	Width       decimal.Decimal
	Height      decimal.Decimal
	Content     string // NON_DOCUMENTS or DOCUMENTS
	Account     string
	Currency    string
	PlannedDate *time.Time
}

const rateBodyTemplate = `<rat:RateRequest xmlns:rat="http://scxgxtt.phx-dc.dhl.com/euExpressRateBook/RateMsgRequest">
      <ClientDetail>
        <sso>{{.Account}}</sso>
        <plant>{{.Content}}</plant>
      </ClientDetail>
      <RequestedShipment>
        <DropOffType>REGULAR_PICKUP</DropOffType>
        <ShipTimestamp>{{.ShipTimestamp}}</ShipTimestamp>
        <UnitOfMeasurement>SI</UnitOfMeasurement>
        <Content>{{.Content}}</Content>
        <PaymentInfo>DDU</PaymentInfo>
        <Account>{{.Account}}</Account>
        <Ship>
          <Shipper>
            <StreetLines>{{.Origin.Street}}</StreetLines>
            <City>{{.Origin.City}}</City>
            <PostalCode>{{.Origin.Postal}}</PostalCode>
            <CountryCode>{{.Origin.Country}}</CountryCode>
          </Shipper>
          <Recipient>
            <StreetLines>{{.Destination.Street}}</StreetLines>
            <City>{{.Destination.City}}</City>
            <PostalCode>{{.Destination.Postal}}</PostalCode>
            <CountryCode>{{.Destination.Country}}</CountryCode>
          </Recipient>
        </Ship>
        <Packages>
          <RequestedPackages number="1">
            <Weight>
              <Value>{{.Weight}}</Value>
            </Weight>{{if .HasDimensions}}
            <Dimensions>
              <Length>{{.Length}}</Length>
              <Width>{{.Width}}</Width>
              <Height>{{.Height}}</Height>
            </Dimensions>{{end}}
          </RequestedPackages>
        </Packages>
      </RequestedShipment>
    </rat:RateRequest>`

// RateRequest builds the SOAP rate envelope.
func (c *Composer) RateRequest(in *RateInput) (*transport.Request, error) {
	data := struct {
		Origin, Destination   struct{ Street, City, Postal, Country string }
		Weight                string
		HasDimensions         bool
		Length, Width, Height string
		Content               string
		Account               string
		ShipTimestamp         string
	}{
		Weight:        in.Weight.StringFixed(2),
		Content:       xmlEscape(in.Content),
		Account:       xmlEscape(c.account(in.Account)),
		ShipTimestamp: dhlTimestamp(c.clampShipTimestamp(in.PlannedDate, in.Destination.Country)),
	}
	data.Origin.Street = xmlEscape(in.Origin.Street)
	data.Origin.City = xmlEscape(in.Origin.City)
	data.Origin.Postal = xmlEscape(in.Origin.Postal)
	data.Origin.Country = xmlEscape(in.Origin.Country)
	data.Destination.Street = xmlEscape(in.Destination.Street)
	data.Destination.City = xmlEscape(in.Destination.City)
	data.Destination.Postal = xmlEscape(in.Destination.Postal)
	data.Destination.Country = xmlEscape(in.Destination.Country)
	if in.Length.IsPositive() && in.Width.IsPositive() && in.Height.IsPositive() {
		data.HasDimensions = true
		data.Length = in.Length.String()
		data.Width = in.Width.String()
		data.Height = in.Height.String()
	}

	body, err := c.buildEnvelope(rateBodyTemplate, data)
	if err != nil {
		return nil, err
	}
	return c.soapRequest(ratePath, rateAction, "rate", body, true), nil
}

func (c *Composer) account(override string) string {
	if override != "" {
		return override
	}
	return c.cfg.Account
}

// ============================================================================
// Rate response parsing
// ============================================================================

// ParsedCharge is one line of the charge breakdown, in carrier order.
type ParsedCharge struct {
	Code   string
	Label  string
	Amount decimal.Decimal
}

// ParsedQuote is one priced product extracted from the response.
type ParsedQuote struct {
	ServiceCode     string
	ServiceName     string
	TotalAmount     decimal.Decimal
	Currency        string
	Charges         []ParsedCharge
	DeliveryTime    *time.Time
	CutoffTime      *time.Time
	NextBusinessDay bool
}

// serviceNames maps DHL product codes to display names. Unknown codes
// pass through with the generic label.
var serviceNames = map[string]string{
	"D": "EXPRESS WORLDWIDE DOC",
	"P": "EXPRESS WORLDWIDE",
	"U": "EXPRESS WORLDWIDE",
	"K": "EXPRESS 9:00",
	"L": "EXPRESS 10:30",
	"G": "DOMESTIC EXPRESS",
	"N": "DOMESTIC EXPRESS",
	"O": "DOMESTIC EXPRESS",
	"W": "ECONOMY SELECT",
	"I": "BREAK BULK EXPRESS",
}

// ServiceName resolves a product code to its display name.
func ServiceName(code string) string {
	if name, ok := serviceNames[code]; ok {
		return name
	}
	return "DHL EXPRESS"
}

type rateEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		RateResponse struct {
			Provider []rateProvider `xml:"Provider"`
		} `xml:"RateResponse"`
	} `xml:"Body"`
}

type rateProvider struct {
	Code          string             `xml:"code,attr"`
	Notifications []rateNotification `xml:"Notification"`
	Services      []rateService      `xml:"Service"`
}

type rateNotification struct {
	Code    string `xml:"code,attr"`
	Message string `xml:"Message"`
}

type rateService struct {
	Type     string `xml:"type,attr"`
	TotalNet struct {
		Currency string `xml:"Currency"`
		Amount   string `xml:"Amount"`
	} `xml:"TotalNet"`
	Charges struct {
		Currency string `xml:"Currency"`
		Charge   []struct {
			ChargeCode   string `xml:"ChargeCode"`
			ChargeType   string `xml:"ChargeType"`
			ChargeAmount string `xml:"ChargeAmount"`
		} `xml:"Charge"`
	} `xml:"Charges"`
	DeliveryTime       string `xml:"DeliveryTime"`
	CutoffTime         string `xml:"CutoffTime"`
	NextBusinessDayInd string `xml:"NextBusinessDayInd"`
}

const soapTimeLayout = "2006-01-02T15:04:05"

func parseSoapTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(soapTimeLayout, s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}

func parseAmount(s string) decimal.Decimal {
	d, _ := parseDecimalText(s)
	return d
}

// ParseRate extracts the priced products from a rate response. A DHL
// notification with non-zero code short-circuits to a FaultError
// carrying the code verbatim.
func ParseRate(body []byte) ([]ParsedQuote, error) {
	if f := faultOf(body); f != nil {
		return nil, f
	}

	var env rateEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, &ParseError{Reason: "malformed rate response", Raw: body, Cause: err}
	}

	var quotes []ParsedQuote
	for _, provider := range env.Body.RateResponse.Provider {
		for _, n := range provider.Notifications {
			if n.Code != "" && n.Code != "0" {
				return nil, &FaultError{Code: n.Code, Message: n.Message}
			}
		}
		for _, svc := range provider.Services {
			q := ParsedQuote{
				ServiceCode:     svc.Type,
				ServiceName:     ServiceName(svc.Type),
				TotalAmount:     parseAmount(svc.TotalNet.Amount),
				Currency:        svc.TotalNet.Currency,
				DeliveryTime:    parseSoapTime(svc.DeliveryTime),
				CutoffTime:      parseSoapTime(svc.CutoffTime),
				NextBusinessDay: svc.NextBusinessDayInd == "Y",
			}
			if q.Currency == "" {
				q.Currency = svc.Charges.Currency
			}
			for _, ch := range svc.Charges.Charge {
				q.Charges = append(q.Charges, ParsedCharge{
					Code:   ch.ChargeCode,
					Label:  ch.ChargeType,
					Amount: parseAmount(ch.ChargeAmount),
				})
			}
			quotes = append(quotes, q)
		}
	}

	if len(quotes) == 0 {
		return nil, &ParseError{Reason: "no priced services in response", Raw: body}
	}
	return quotes, nil
}
