package dhl_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/dhlbridge/pkg/dhl"
	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

// Friday afternoon, so default ship timestamps land on the next Monday.
var gatewayNow = time.Date(2026, 3, 6, 14, 30, 0, 0, time.UTC)

func newTestGateway(mock *transport.MockClient, accounts ...string) *dhl.Gateway {
	return dhl.New(dhl.Config{
		Credentials: dhl.Credentials{
			Username:       "testuser",
			Password:       "testpass",
			AccountNumbers: accounts,
			SOAPBaseURL:    "https://wsbexpress.dhl.com:443",
			RESTBaseURL:    "https://express.api.dhl.com/mydhlapi",
		},
		Client: mock,
		Now:    func() time.Time { return gatewayNow },
	}, otelzap.New(zap.NewNop()), nil)
}

const rateOKXML = `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <rateresp:RateResponse xmlns:rateresp="http://scxgxtt.phx-dc.dhl.com/euExpressRateBook/RateMsgResponse">
      <Provider code="DHL">
        <Notification code="0"><Message/></Notification>
        <Service type="P">
          <TotalNet>
            <Currency>USD</Currency>
            <Amount>84.64</Amount>
          </TotalNet>
          <Charges>
            <Currency>USD</Currency>
            <Charge>
              <ChargeCode>P</ChargeCode>
              <ChargeType>EXPRESS WORLDWIDE</ChargeType>
              <ChargeAmount>75.00</ChargeAmount>
            </Charge>
            <Charge>
              <ChargeCode>FF</ChargeCode>
              <ChargeType>FUEL SURCHARGE</ChargeType>
              <ChargeAmount>9.64</ChargeAmount>
            </Charge>
          </Charges>
          <DeliveryTime>2026-03-10T12:00:00</DeliveryTime>
          <NextBusinessDayInd>N</NextBusinessDayInd>
        </Service>
      </Provider>
    </rateresp:RateResponse>
  </soap:Body>
</soap:Envelope>`

const rateFaultXML = `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <rateresp:RateResponse xmlns:rateresp="http://scxgxtt.phx-dc.dhl.com/euExpressRateBook/RateMsgResponse">
      <Provider code="DHL">
        <Notification code="420505"><Message>The account number is not valid for the requested product</Message></Notification>
      </Provider>
    </rateresp:RateResponse>
  </soap:Body>
</soap:Envelope>`

func TestGetRate_DeclaredWeightShipment(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(rateOKXML)
	g := newTestGateway(mock)

	result, err := g.GetRate(context.Background(), &dhl.RateRequest{
		Origin:      dhl.Address{Country: "PA", City: "Panama", PostalCode: "0", Line1: "Via Espana"},
		Destination: dhl.Address{Country: "US", City: "Miami", PostalCode: "33126", Line1: "NW 25th St"},
		Weight:      d("2.5"),
		Pieces: []dhl.Piece{
			{DeclaredWeight: d("2.5"), Dimensions: &dhl.Dimensions{Length: d("20"), Width: d("15"), Height: d("10")}},
		},
		Service:  dhl.ContentNonDocuments,
		Currency: "USD",
	})
	require.NoError(t, err)

	require.NotNil(t, result.WeightSelection)
	sel := result.WeightSelection
	assert.True(t, sel.Candidates.SumVolumetricRoundThenSum.Equal(d("0.6")),
		"volumetric: %s", sel.Candidates.SumVolumetricRoundThenSum)
	assert.True(t, sel.EffectiveWeight.Equal(d("2.5")), "effective: %s", sel.EffectiveWeight)
	assert.True(t, result.QuoteWithWeight.Allowed)

	require.Len(t, result.Quotes, 1)
	q := result.Quotes[0]
	assert.Equal(t, "P", q.ServiceCode)
	assert.Equal(t, "EXPRESS WORLDWIDE", q.ServiceName)
	assert.True(t, q.TotalAmount.Equal(d("84.64")))
	assert.Equal(t, "USD", q.Currency)
	require.Len(t, q.Breakdown, 2)
	assert.True(t, q.TotalAmount.GreaterThanOrEqual(q.Breakdown[0].Amount))
	assert.True(t, q.NonDocumentsOK)
	assert.False(t, q.DocumentsOK)
	assert.GreaterOrEqual(t, q.TransitDays, 1)

	sent := mock.LastRequest()
	require.NotNil(t, sent)
	assert.True(t, sent.Idempotent)
	assert.Contains(t, string(sent.Body), "<Value>2.50</Value>")
	assert.Contains(t, string(sent.Body), "<PostalCode>0</PostalCode>")
}

func trackingDerivedRateRequest() *dhl.RateRequest {
	return &dhl.RateRequest{
		Origin:      dhl.Address{Country: "PA", City: "Panama", PostalCode: "0", Line1: "Via Espana"},
		Destination: dhl.Address{Country: "US", City: "Miami", PostalCode: "33126", Line1: "NW 25th St"},
		Pieces: []dhl.Piece{
			{DeclaredWeight: d("35"), ActualWeight: dp("49.5")},
			{DeclaredWeight: d("10"), ActualWeight: dp("10.5")},
		},
		Service:      dhl.ContentNonDocuments,
		Currency:     "USD",
		FromTracking: true,
	}
}

func TestGetRate_TrackingDerivedBlockedWithoutAccount(t *testing.T) {
	mock := transport.NewMockClient()
	g := newTestGateway(mock)

	result, err := g.GetRate(context.Background(), trackingDerivedRateRequest())
	require.NoError(t, err, "a blocked quote is a domain answer, not an error")

	assert.False(t, result.QuoteWithWeight.Allowed)
	assert.Equal(t, "missing_dhl_volumetric_weight", result.QuoteWithWeight.BlockedReason)
	assert.True(t, result.AccountRequirements.NeedsAccountForQuote)
	assert.NotEmpty(t, result.AccountRequirements.Hint)
	assert.Empty(t, result.Quotes)

	require.NotNil(t, result.WeightSelection)
	assert.True(t, result.WeightSelection.Candidates.SumDeclared.Equal(d("45")))
	assert.True(t, result.WeightSelection.Candidates.SumActual.Equal(d("60")))
	assert.True(t, result.WeightSelection.EffectiveWeight.Equal(d("60")))

	assert.Empty(t, mock.Requests, "blocked quotes must not reach the carrier")
}

func TestGetRate_TrackingDerivedWithCarrierVolumetric(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(rateOKXML)
	g := newTestGateway(mock)

	req := trackingDerivedRateRequest()
	req.Pieces[0].DimensionalWeight = dp("52.31")
	req.Pieces[1].DimensionalWeight = dp("9.995")

	result, err := g.GetRate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.QuoteWithWeight.Allowed)
	assert.False(t, result.AccountRequirements.NeedsAccountForQuote)
	assert.True(t, result.WeightSelection.EffectiveWeight.Equal(d("62.31")),
		"effective: %s", result.WeightSelection.EffectiveWeight)

	sent := mock.LastRequest()
	require.NotNil(t, sent)
	assert.Contains(t, string(sent.Body), "<Value>62.31</Value>")
}

func TestGetRate_CarrierFault(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(rateFaultXML)
	g := newTestGateway(mock, "706014493")

	_, err := g.GetRate(context.Background(), &dhl.RateRequest{
		Origin:      dhl.Address{Country: "PA", City: "Panama", PostalCode: "0", Line1: "Via Espana"},
		Destination: dhl.Address{Country: "US", City: "Miami", PostalCode: "33126", Line1: "NW 25th St"},
		Weight:      d("2.5"),
		Service:     dhl.ContentNonDocuments,
	})
	require.Error(t, err)
	assert.True(t, dhl.IsKind(err, dhl.KindUpstreamFault))

	var rec *dhl.ErrorRecord
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, "420505", rec.MachineCode)
	assert.NotEmpty(t, rec.Suggestion)
}

func TestGetRate_ValidationNeverSends(t *testing.T) {
	mock := transport.NewMockClient()
	g := newTestGateway(mock)

	_, err := g.GetRate(context.Background(), &dhl.RateRequest{
		Origin:      dhl.Address{Country: "PA", City: "Panama"},
		Destination: dhl.Address{Country: "ZZ", City: "Nowhere"},
		Weight:      d("1"),
		Service:     dhl.ContentNonDocuments,
	})
	require.Error(t, err)
	assert.True(t, dhl.IsKind(err, dhl.KindValidation))
	assert.Empty(t, mock.Requests)
}

const trackingOKXML = `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <trackingResponse>
      <TrackingResponse>
        <AWBInfo>
          <ArrayOfAWBInfoItem>
            <AWBNumber>8701234567</AWBNumber>
            <Status><ActionStatus>success</ActionStatus></Status>
            <ShipmentInfo>
              <OriginServiceArea>
                <ServiceAreaCode>PTY</ServiceAreaCode>
                <Description>PANAMA CITY - PANAMA</Description>
              </OriginServiceArea>
              <DestinationServiceArea>
                <ServiceAreaCode>MIA</ServiceAreaCode>
                <Description>MIAMI, FL - USA</Description>
              </DestinationServiceArea>
              <Pieces>
                <PieceInfo>
                  <PieceDetails>
                    <LicensePlate>JD012345678901234567</LicensePlate>
                    <Weight>30.124</Weight>
                    <WeightUnit>KG</WeightUnit>
                  </PieceDetails>
                  <PieceEvent>
                    <ArrayOfPieceEventItem>
                      <Date>2026-03-04</Date>
                      <Time>09:15:00</Time>
                      <ServiceEvent><EventCode>PU</EventCode><Description>Shipment picked up</Description></ServiceEvent>
                      <ServiceArea><Description>PANAMA CITY - PANAMA</Description></ServiceArea>
                    </ArrayOfPieceEventItem>
                    <ArrayOfPieceEventItem>
                      <Date>2026-03-06</Date>
                      <Time>11:42:00</Time>
                      <ServiceEvent><EventCode>OK</EventCode><Description>Delivered</Description></ServiceEvent>
                      <ServiceArea><Description>MIAMI, FL - USA</Description></ServiceArea>
                    </ArrayOfPieceEventItem>
                  </PieceEvent>
                </PieceInfo>
                <PieceInfo>
                  <PieceDetails>
                    <LicensePlate>JD012345678901234568</LicensePlate>
                    <Weight>70.005</Weight>
                    <WeightUnit>KG</WeightUnit>
                  </PieceDetails>
                </PieceInfo>
              </Pieces>
            </ShipmentInfo>
          </ArrayOfAWBInfoItem>
        </AWBInfo>
      </TrackingResponse>
    </trackingResponse>
  </soap:Body>
</soap:Envelope>`

func TestGetTracking_NormalizedRecord(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(trackingOKXML)
	g := newTestGateway(mock)

	rec, err := g.GetTracking(context.Background(), &dhl.TrackingRequest{TrackingID: "8701234567"})
	require.NoError(t, err)

	assert.Equal(t, "8701234567", rec.TrackingID)
	assert.Equal(t, dhl.StatusDelivered, rec.Status)
	assert.Equal(t, "OK", rec.StatusCode)
	assert.Equal(t, "PANAMA CITY - PANAMA", rec.Origin)
	assert.Equal(t, "MIAMI, FL - USA", rec.Destination)

	require.Len(t, rec.Pieces, 2)
	assert.Equal(t, "JD012345678901234567", rec.Pieces[0].PieceID)
	require.Len(t, rec.Events, 2)
	assert.True(t, rec.Events[0].Timestamp.Before(rec.Events[1].Timestamp))

	require.NotNil(t, rec.WeightsSummary)
	assert.True(t, rec.WeightsSummary.SumPieces.Equal(d("100.13")),
		"sum_pieces: %s", rec.WeightsSummary.SumPieces)
	assert.True(t, rec.WeightsSummary.MaxPiece.Equal(d("70.01")),
		"max_piece: %s", rec.WeightsSummary.MaxPiece)
}

func TestGetTracking_ValidationNeverSends(t *testing.T) {
	mock := transport.NewMockClient()
	g := newTestGateway(mock)

	_, err := g.GetTracking(context.Background(), &dhl.TrackingRequest{})
	require.Error(t, err)
	assert.True(t, dhl.IsKind(err, dhl.KindValidation))
	assert.Empty(t, mock.Requests)
}

const shipmentOKXML = `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ship:ShipmentResponse xmlns:ship="http://scxgxtt.phx-dc.dhl.com/euExpressRateBook/ShipmentMsgResponse">
      <Notification code="0"><Message/></Notification>
      <PackagesResult>
        <PackageResult><TrackingNumber>JD012345678901234567</TrackingNumber></PackageResult>
      </PackagesResult>
      <ShipmentIdentificationNumber>8701234567</ShipmentIdentificationNumber>
    </ship:ShipmentResponse>
  </soap:Body>
</soap:Envelope>`

func validShipmentRequest() *dhl.ShipmentRequest {
	return &dhl.ShipmentRequest{
		Shipper: dhl.Address{
			Country: "PA", City: "Panama", PostalCode: "0", Line1: "Via Espana",
			PersonName: "Ana Diaz", Phone: "+507 6000-1234",
		},
		Recipient: dhl.Address{
			Country: "US", City: "Miami", PostalCode: "33126", Line1: "NW 25th St",
			PersonName: "John Ross", Phone: "(305) 555-0100",
		},
		Pieces:            []dhl.Piece{{DeclaredWeight: d("2.5")}},
		Service:           dhl.ContentNonDocuments,
		Payment:           dhl.PaymentShipper,
		Currency:          "USD",
		Content:           "Spare machine parts",
		DeclaredValue:     d("350"),
		PickupInstruction: "leave at loading dock B",
	}
}

func TestCreateShipment_Booked(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(shipmentOKXML)
	g := newTestGateway(mock, "706014493")

	result, err := g.CreateShipment(context.Background(), validShipmentRequest())
	require.NoError(t, err)

	assert.Equal(t, "8701234567", result.TrackingID)
	assert.Equal(t, []string{"JD012345678901234567"}, result.PieceIDs)
	// Friday afternoon request, nil ship timestamp: next business day is
	// the following Monday at 10:00 UTC.
	assert.Equal(t, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), result.ShipTimestamp)

	sent := mock.LastRequest()
	require.NotNil(t, sent)
	assert.False(t, sent.Idempotent, "booking must never retry")
	body := string(sent.Body)
	assert.Contains(t, body, "<Account>706014493</Account>")
	assert.Contains(t, body, "<ServiceType>DD</ServiceType>")
	assert.Contains(t, body, "<SpecialPickupInstruction>leave at loading dock B</SpecialPickupInstruction>")
}

func TestCreateShipment_ValidationNeverSends(t *testing.T) {
	mock := transport.NewMockClient()
	g := newTestGateway(mock)

	req := validShipmentRequest()
	req.Recipient.PersonName = ""

	_, err := g.CreateShipment(context.Background(), req)
	require.Error(t, err)
	assert.True(t, dhl.IsKind(err, dhl.KindValidation))
	assert.Empty(t, mock.Requests)
}

func TestCreateShipment_TimeoutSuggestsTracking(t *testing.T) {
	mock := transport.NewMockClient()
	mock.SimulateFailure = &transport.Failure{
		Class:   transport.ClassTimeout,
		Message: "request timed out after 30s",
	}
	g := newTestGateway(mock, "706014493")

	_, err := g.CreateShipment(context.Background(), validShipmentRequest())
	require.Error(t, err)
	assert.True(t, dhl.IsKind(err, dhl.KindTimeout))

	var rec *dhl.ErrorRecord
	require.ErrorAs(t, err, &rec)
	assert.Contains(t, rec.Suggestion, "track")
}

var epodPDF = "JVBERi0xLjQK" + strings.Repeat("QUFB", 30)

func epodOKXML() string {
	return `<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <shipmentDocumentRetrieveResp>
      <MSG><Bd><Shp><ShpInDoc>
        <SDoc DocTyCd="POD"><Img Img="` + epodPDF + `" ImgMimeTy="application/pdf"/></SDoc>
      </ShpInDoc></Shp></Bd></MSG>
    </shipmentDocumentRetrieveResp>
  </soap:Body>
</soap:Envelope>`
}

func TestGetEpod_Document(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(epodOKXML())
	g := newTestGateway(mock, "706014493")

	artifact, err := g.GetEpod(context.Background(), &dhl.EpodRequest{ShipmentID: "8701234567"})
	require.NoError(t, err)

	assert.Equal(t, "8701234567", artifact.DocumentID)
	assert.Equal(t, string(dhl.EpodSummary), artifact.TypeCode, "empty content defaults to the summary flavor")
	assert.Equal(t, epodPDF, artifact.Payload)
	assert.Equal(t, len(epodPDF), artifact.Size)
	assert.True(t, artifact.SizeMB.GreaterThanOrEqual(d("0")))
	assert.GreaterOrEqual(t, artifact.TotalDocuments, 1)
	assert.Equal(t, dhl.EpodStrategyAttr, artifact.Strategy)
}

func TestGetEpod_NotDeliveredYet(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(`<?xml version="1.0"?><resp><DatTrErr><Err Ty="DE" Dsc="No Data Found"/></DatTrErr></resp>`)
	g := newTestGateway(mock, "706014493")

	_, err := g.GetEpod(context.Background(), &dhl.EpodRequest{ShipmentID: "8701234567"})
	require.Error(t, err)
	assert.True(t, dhl.IsKind(err, dhl.KindNotFound))
}

const landedCostOKJSON = `{
  "warnings": ["Estimated duties may differ from the final invoice"],
  "products": [
    {
      "productCode": "P",
      "totalPrice": [{"currencyType": "BILLC", "priceCurrency": "USD", "price": 139.55}],
      "detailedPriceBreakdown": [
        {
          "currencyType": "BILLC",
          "priceCurrency": "USD",
          "breakdown": [
            {"name": "EXPRESS WORLDWIDE", "typeCode": "SPRQT", "price": 84.64},
            {"name": "IMPORT DUTY", "typeCode": "DUTY", "price": 31.5},
            {"name": "VALUE ADDED TAX", "typeCode": "TAX", "price": 18.41},
            {"name": "CLEARANCE FEE", "typeCode": "FEE", "price": 5.0}
          ]
        }
      ],
      "weight": {"volumetric": 0.6, "provided": 2.0},
      "pickupCapabilities": {"estimatedPickupDateAndTime": "2026-03-07T09:00:00"},
      "deliveryCapabilities": {"estimatedDeliveryDateAndTime": "2026-03-10T12:00:00"}
    }
  ]
}`

func TestGetLandedCost_Estimate(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(landedCostOKJSON)
	g := newTestGateway(mock, "706014493")

	result, err := g.GetLandedCost(context.Background(), validLandedCostRequest())
	require.NoError(t, err)

	assert.True(t, result.Total.Equal(d("139.55")), "total: %s", result.Total)
	assert.Equal(t, "USD", result.Currency)
	assert.True(t, result.Shipping.Equal(d("84.64")))
	assert.True(t, result.Duties.Equal(d("31.5")))
	assert.True(t, result.Taxes.Equal(d("18.41")))
	assert.True(t, result.Fees.Equal(d("5")))

	parts := result.Shipping.Add(result.Duties).Add(result.Taxes).
		Add(result.Fees).Add(result.Insurance)
	assert.True(t, result.Total.GreaterThanOrEqual(parts.Sub(d("0.01"))),
		"total %s vs parts %s", result.Total, parts)

	// Duties+taxes over the declared customs value of 80.
	assert.True(t, result.EffectiveTaxRate.Equal(d("0.62")),
		"effective tax rate: %s", result.EffectiveTaxRate)

	require.Len(t, result.Breakdown, 4)
	assert.Equal(t, "EXPRESS WORLDWIDE", result.Breakdown[0].Description)
	assert.NotEmpty(t, result.Warnings)
	require.NotNil(t, result.PickupCapability)
	assert.Equal(t, time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC), *result.PickupCapability)
	require.NotNil(t, result.DeliveryCapability)

	sent := mock.LastRequest()
	require.NotNil(t, sent)
	assert.Equal(t, "application/json", sent.Headers["Content-Type"])
	assert.Contains(t, sent.URL, "/landed-cost")
}

func TestGetLandedCost_EffectiveRateWeighsQuantity(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(landedCostOKJSON)
	g := newTestGateway(mock, "706014493")

	req := validLandedCostRequest()
	req.Items[0].Quantity = 2

	result, err := g.GetLandedCost(context.Background(), req)
	require.NoError(t, err)

	// Duties+taxes of 49.91 over 2 units at 80 each.
	assert.True(t, result.EffectiveTaxRate.Equal(d("0.31")),
		"effective tax rate: %s", result.EffectiveTaxRate)
}

func TestGetLandedCost_GenericHSCodeStillSucceedsWithWarning(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(landedCostOKJSON)
	g := newTestGateway(mock, "706014493")

	req := validLandedCostRequest()
	req.Items[0].CommodityCode = "999999"

	result, err := g.GetLandedCost(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.EffectiveTaxRate.GreaterThanOrEqual(d("0")))

	var hsWarned bool
	for _, w := range result.Warnings {
		if strings.Contains(w, "999999") {
			hsWarned = true
		}
	}
	assert.True(t, hsWarned, "warnings: %v", result.Warnings)
}

func TestGetLandedCost_UpstreamAuthError(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(`{"status": 401, "title": "Unauthorized", "detail": "invalid credentials"}`)
	g := newTestGateway(mock, "706014493")

	_, err := g.GetLandedCost(context.Background(), validLandedCostRequest())
	require.Error(t, err)
	assert.True(t, dhl.IsKind(err, dhl.KindAuth))

	var rec *dhl.ErrorRecord
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, 401, rec.UpstreamStatus)
}

func TestValidateAccount(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(rateOKXML)
	g := newTestGateway(mock)

	v, err := g.ValidateAccount(context.Background(), "706014493")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "706014493", v.AccountNumber)

	mock.QueueBody(rateFaultXML)
	v, err = g.ValidateAccount(context.Background(), "000000000")
	require.NoError(t, err, "a rejected account is a domain answer, not an error")
	assert.False(t, v.Valid)
	assert.Contains(t, v.Reason, "420505")
}

func TestValidateAccounts_Concurrent(t *testing.T) {
	mock := transport.NewMockClient()
	mock.QueueBody(rateOKXML)
	mock.QueueBody(rateOKXML)
	g := newTestGateway(mock)

	results, err := g.ValidateAccounts(context.Background(), []string{"111111111", "222222222"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "111111111", results[0].AccountNumber)
	assert.Equal(t, "222222222", results[1].AccountNumber)
	assert.True(t, results[0].Valid)
	assert.True(t, results[1].Valid)
}
