package soap

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

// ShipmentContactInput extends the address slice with the contact
// fields shipment creation requires.
type ShipmentContactInput struct {
	AddressInput
	PersonName  string
	CompanyName string
	Phone       string
	Email       string
}

// ShipmentPieceInput is one physical package on the label request.
type ShipmentPieceInput struct {
	Weight    decimal.Decimal
	Length    decimal.Decimal
	Width     decimal.Decimal
	Height    decimal.Decimal
	Reference string
}

// ShipmentInput is everything the createShipmentRequest envelope
// needs. Text fields must already be cleaned; escaping happens here.
type ShipmentInput struct {
	Origin            ShipmentContactInput
	Destination       ShipmentContactInput
	Pieces            []ShipmentPieceInput
	Service           string // product code, e.g. P or D
	Content           string // NON_DOCUMENTS or DOCUMENTS
	PaymentCode       string // S, R or T
	Account           string
	Currency          string
	Description       string
	PickupInstruction string
	CustomsValue      decimal.Decimal
	Insurance         decimal.Decimal
	PlannedDate       *time.Time
}

const shipmentBodyTemplate = `<ship:ShipmentRequest xmlns:ship="http://scxgxtt.phx-dc.dhl.com/euExpressRateBook/ShipmentMsgRequest">
      <RequestedShipment>
        <ShipmentInfo>
          <DropOffType>REGULAR_PICKUP</DropOffType>
          <ServiceType>{{.Service}}</ServiceType>
          <Account>{{.Account}}</Account>
          <Currency>{{.Currency}}</Currency>
          <UnitOfMeasurement>SI</UnitOfMeasurement>
          <LabelType>PDF</LabelType>
          <LabelTemplate>ECOM26_84_001</LabelTemplate>
          <PackagesCount>{{.PackagesCount}}</PackagesCount>
          <SpecialServices>
            <Service>
              <ServiceType>DD</ServiceType>
            </Service>{{if .HasInsurance}}
            <Service>
              <ServiceType>II</ServiceType>
              <ServiceValue>{{.Insurance}}</ServiceValue>
              <CurrencyCode>{{.Currency}}</CurrencyCode>
            </Service>{{end}}
          </SpecialServices>
        </ShipmentInfo>
        <ShipTimestamp>{{.ShipTimestamp}}</ShipTimestamp>{{if .PickupInstruction}}
        <SpecialPickupInstruction>{{.PickupInstruction}}</SpecialPickupInstruction>{{end}}
        <PaymentInfo>{{.PaymentCode}}</PaymentInfo>
        <InternationalDetail>
          <Commodities>
            <NumberOfPieces>{{.PackagesCount}}</NumberOfPieces>
            <Description>{{.Description}}</Description>
            <CustomsValue>{{.CustomsValue}}</CustomsValue>
          </Commodities>
          <Content>{{.Content}}</Content>
        </InternationalDetail>
        <Ship>
          <Shipper>
            <Contact>
              <PersonName>{{.Origin.PersonName}}</PersonName>
              <CompanyName>{{.Origin.CompanyName}}</CompanyName>
              <PhoneNumber>{{.Origin.Phone}}</PhoneNumber>
              <EmailAddress>{{.Origin.Email}}</EmailAddress>
            </Contact>
            <Address>
              <StreetLines>{{.Origin.Street}}</StreetLines>
              <City>{{.Origin.City}}</City>
              <PostalCode>{{.Origin.Postal}}</PostalCode>
              <CountryCode>{{.Origin.Country}}</CountryCode>
            </Address>
          </Shipper>
          <Recipient>
            <Contact>
              <PersonName>{{.Destination.PersonName}}</PersonName>
              <CompanyName>{{.Destination.CompanyName}}</CompanyName>
              <PhoneNumber>{{.Destination.Phone}}</PhoneNumber>
              <EmailAddress>{{.Destination.Email}}</EmailAddress>
            </Contact>
            <Address>
              <StreetLines>{{.Destination.Street}}</StreetLines>
              <City>{{.Destination.City}}</City>
              <PostalCode>{{.Destination.Postal}}</PostalCode>
              <CountryCode>{{.Destination.Country}}</CountryCode>
            </Address>
          </Recipient>
        </Ship>
        <Packages>{{range .Packages}}
          <RequestedPackages number="{{.Number}}">
            <Weight>{{.Weight}}</Weight>
            <Dimensions>
              <Length>{{.Length}}</Length>
              <Width>{{.Width}}</Width>
              <Height>{{.Height}}</Height>
            </Dimensions>
            <CustomerReferences>{{.Reference}}</CustomerReferences>
          </RequestedPackages>{{end}}
        </Packages>
      </RequestedShipment>
    </ship:ShipmentRequest>`

type shipmentPackageData struct {
	Number    int
	Weight    string
	Length    string
	Width     string
	Height    string
	Reference string
}

type shipmentContactData struct {
	Street, City, Postal, Country         string
	PersonName, CompanyName, Phone, Email string
}

func shipmentContact(in ShipmentContactInput) shipmentContactData {
	return shipmentContactData{
		Street:      xmlEscape(in.Street),
		City:        xmlEscape(in.City),
		Postal:      xmlEscape(in.Postal),
		Country:     xmlEscape(in.Country),
		PersonName:  xmlEscape(in.PersonName),
		CompanyName: xmlEscape(in.CompanyName),
		Phone:       xmlEscape(in.Phone),
		Email:       xmlEscape(in.Email),
	}
}

// ShipmentRequest builds the createShipmentRequest envelope. The
// request is never idempotent: a retry could book the same pickup
// twice.
func (c *Composer) ShipmentRequest(in *ShipmentInput) (*transport.Request, error) {
	desc := in.Description
	if len(desc) > 255 {
		desc = desc[:255]
	}

	data := struct {
		Origin, Destination shipmentContactData
		Packages            []shipmentPackageData
		PackagesCount       int
		Service             string
		Content             string
		PaymentCode         string
		Account             string
		Currency            string
		Description         string
		PickupInstruction   string
		CustomsValue        string
		HasInsurance        bool
		Insurance           string
		ShipTimestamp       string
	}{
		Origin:            shipmentContact(in.Origin),
		Destination:       shipmentContact(in.Destination),
		PackagesCount:     len(in.Pieces),
		Service:           xmlEscape(in.Service),
		Content:           xmlEscape(in.Content),
		PaymentCode:       xmlEscape(in.PaymentCode),
		Account:           xmlEscape(c.account(in.Account)),
		Currency:          xmlEscape(in.Currency),
		Description:       xmlEscape(desc),
		PickupInstruction: xmlEscape(in.PickupInstruction),
		CustomsValue:      in.CustomsValue.StringFixed(2),
		ShipTimestamp:     dhlTimestamp(c.clampShipTimestamp(in.PlannedDate, in.Destination.Country)),
	}
	if in.Insurance.IsPositive() {
		data.HasInsurance = true
		data.Insurance = in.Insurance.StringFixed(2)
	}
	for i, p := range in.Pieces {
		data.Packages = append(data.Packages, shipmentPackageData{
			Number:    i + 1,
			Weight:    p.Weight.StringFixed(2),
			Length:    p.Length.String(),
			Width:     p.Width.String(),
			Height:    p.Height.String(),
			Reference: xmlEscape(p.Reference),
		})
	}

	body, err := c.buildEnvelope(shipmentBodyTemplate, data)
	if err != nil {
		return nil, err
	}
	return c.soapRequest(ratePath, shipAction, "shipment", body, false), nil
}

// ============================================================================
// Shipment response parsing
// ============================================================================

// ParsedShipment is the booking confirmation.
type ParsedShipment struct {
	TrackingID string
	PieceIDs   []string
	LabelPDF   string // base64
	DispatchID string
}

type shipmentEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		ShipmentResponse struct {
			Notifications []rateNotification `xml:"Notification"`
			AWB           string             `xml:"AWBNumber"`
			ShipmentID    string             `xml:"ShipmentIdentificationNumber"`
			DispatchID    string             `xml:"DispatchConfirmationNumber"`
			Packages      struct {
				PackageResult []struct {
					TrackingNumber string `xml:"TrackingNumber"`
				} `xml:"PackageResult"`
			} `xml:"PackagesResult"`
			Labels struct {
				LabelImage []struct {
					Format  string `xml:"LabelImageFormat"`
					Graphic string `xml:"GraphicImage"`
				} `xml:"LabelImage"`
			} `xml:"LabelImage"`
		} `xml:"ShipmentResponse"`
	} `xml:"Body"`
}

func shipmentFaultSuggestion(code, message string) string {
	switch {
	case code == "998":
		return "The ship timestamp was rejected. Pick a business day at least one hour ahead."
	case code == "999":
		return "DHL could not process the booking. Verify account permissions for the route and retry later."
	case strings.HasPrefix(code, "4"):
		return "The shipment data failed carrier validation. Review addresses, weights and the commodity description."
	case strings.Contains(strings.ToLower(message), "account"):
		return "Verify the account number is enabled for shipment creation on this route."
	}
	return ""
}

// ParseShipment extracts the booking confirmation. Carrier
// notifications with a non-zero code become faults with a tailored
// suggestion; a response with neither AWBNumber nor
// ShipmentIdentificationNumber is a parse failure, never a silent
// success.
func ParseShipment(body []byte) (*ParsedShipment, error) {
	if f := faultOf(body); f != nil {
		return nil, f
	}

	var env shipmentEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, &ParseError{Reason: "malformed shipment response", Raw: body, Cause: err}
	}

	resp := env.Body.ShipmentResponse
	for _, n := range resp.Notifications {
		if n.Code != "" && n.Code != "0" {
			return nil, &FaultError{
				Code:       n.Code,
				Message:    fmt.Sprintf("shipment rejected: %s", n.Message),
				Suggestion: shipmentFaultSuggestion(n.Code, n.Message),
			}
		}
	}

	out := &ParsedShipment{
		TrackingID: firstText(resp.AWB, resp.ShipmentID),
		DispatchID: resp.DispatchID,
	}
	if out.TrackingID == "" {
		return nil, &ParseError{Reason: "no tracking number in shipment response", Raw: body}
	}
	for _, pr := range resp.Packages.PackageResult {
		if pr.TrackingNumber != "" {
			out.PieceIDs = append(out.PieceIDs, pr.TrackingNumber)
		}
	}
	for _, li := range resp.Labels.LabelImage {
		if li.Graphic != "" {
			out.LabelPDF = li.Graphic
			break
		}
	}
	return out, nil
}
