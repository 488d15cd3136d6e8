package soap

import (
	"encoding/xml"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

const trackingBodyTemplate = `<trac:trackShipmentRequest xmlns:trac="http://scxgxtt.phx-dc.dhl.com/glDHLExpressTrack/providers/services/trackShipment">
      <trackingRequest>
        <TrackingRequest>
          <Request>
            <ServiceHeader>
              <MessageTime>{{.MessageTime}}</MessageTime>
              <MessageReference>{{.MessageReference}}</MessageReference>
            </ServiceHeader>
          </Request>
          <AWBNumber>
            <ArrayOfAWBNumberItem>{{.TrackingID}}</ArrayOfAWBNumberItem>
          </AWBNumber>
          <LevelOfDetails>ALL_CHECK_POINTS</LevelOfDetails>
          <PiecesEnabled>B</PiecesEnabled>
        </TrackingRequest>
      </trackingRequest>
    </trac:trackShipmentRequest>`

// TrackingRequest builds the trackShipmentRequest envelope.
// Level-of-details is ALL_CHECK_POINTS and pieces are always enabled.
func (c *Composer) TrackingRequest(trackingID string) (*transport.Request, error) {
	data := struct {
		MessageTime      string
		MessageReference string
		TrackingID       string
	}{
		MessageTime:      c.cfg.Now().UTC().Format(time.RFC3339),
		MessageReference: messageRef(),
		TrackingID:       xmlEscape(trackingID),
	}
	body, err := c.buildEnvelope(trackingBodyTemplate, data)
	if err != nil {
		return nil, err
	}
	return c.soapRequest(trackPath, trackAction, "tracking", body, true), nil
}

// ============================================================================
// Tracking response parsing
// ============================================================================

// ParsedTrackingPiece carries the three weights DHL may report for a
// piece. Pointers distinguish absent from zero.
type ParsedTrackingPiece struct {
	PieceID    string
	Declared   decimal.Decimal
	Actual     *decimal.Decimal
	Volumetric *decimal.Decimal
	WeightUnit string
}

// ParsedTrackingEvent is one checkpoint scan.
type ParsedTrackingEvent struct {
	Timestamp   time.Time
	Code        string
	Description string
	Location    string
}

// ParsedTracking is the normalized tracking payload.
type ParsedTracking struct {
	TrackingID             string
	LatestCode             string
	LatestDescription      string
	OriginDescription      string
	DestinationDescription string
	Pieces                 []ParsedTrackingPiece
	Events                 []ParsedTrackingEvent
}

type trackingEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response struct {
			TrackingResponse struct {
				AWBInfo struct {
					Items []awbInfoItem `xml:"ArrayOfAWBInfoItem"`
				} `xml:"AWBInfo"`
			} `xml:"TrackingResponse"`
		} `xml:"trackingResponse"`
	} `xml:"Body"`
}

type awbInfoItem struct {
	AWBNumber string `xml:"AWBNumber"`
	Status    struct {
		ActionStatus string `xml:"ActionStatus"`
	} `xml:"Status"`
	ShipmentInfo struct {
		OriginServiceArea      serviceAreaInfo `xml:"OriginServiceArea"`
		DestinationServiceArea serviceAreaInfo `xml:"DestinationServiceArea"`
		Weight                 string          `xml:"Weight"`
		WeightUnit             string          `xml:"WeightUnit"`
		Pieces                 struct {
			PieceInfo []pieceInfo `xml:"PieceInfo"`
		} `xml:"Pieces"`
		ShipmentEvent struct {
			Items []eventItem `xml:"ArrayOfShipmentEventItem"`
		} `xml:"ShipmentEvent"`
	} `xml:"ShipmentInfo"`
}

type serviceAreaInfo struct {
	ServiceAreaCode string `xml:"ServiceAreaCode"`
	Description     string `xml:"Description"`
}

// pieceDetails accepts the alias element names observed across DHL
// deployments for the same three weights.
type pieceDetails struct {
	LicensePlate string `xml:"LicensePlate"`
	PieceNumber  string `xml:"PieceNumber"`
	Weight       string `xml:"Weight"`
	DeclaredAlt  string `xml:"weight_info>declared_weight"`
	ActualWeight string `xml:"ActualWeight"`
	ActualAlt1   string `xml:"actual_weight_reweigh"`
	ActualAlt2   string `xml:"repesaje"`
	DimWeight    string `xml:"DimWeight"`
	DimAlt       string `xml:"dhl_dimensional_weight"`
	WeightUnit   string `xml:"WeightUnit"`
}

type pieceInfo struct {
	Details    pieceDetails `xml:"PieceDetails"`
	PieceEvent struct {
		Items []eventItem `xml:"ArrayOfPieceEventItem"`
	} `xml:"PieceEvent"`
}

type eventItem struct {
	Date         string `xml:"Date"`
	Time         string `xml:"Time"`
	ServiceEvent struct {
		EventCode   string `xml:"EventCode"`
		Description string `xml:"Description"`
	} `xml:"ServiceEvent"`
	ServiceArea serviceAreaInfo `xml:"ServiceArea"`
}

func firstText(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func optionalWeight(candidates ...string) *decimal.Decimal {
	if s := firstText(candidates...); s != "" {
		if d, ok := parseDecimalText(s); ok {
			return &d
		}
	}
	return nil
}

func parseEventTime(date, clock string) time.Time {
	if clock == "" {
		clock = "00:00:00"
	}
	if t, err := time.Parse("2006-01-02 15:04:05", date+" "+clock); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t
	}
	return time.Time{}
}

type eventKey struct {
	ts       int64
	code     string
	location string
}

// ParseTracking extracts the normalized tracking payload. Piece events
// are preferred and merged with de-duplication on (timestamp, code,
// location); shipment events are the fallback. Events come back sorted
// ascending. A response without any tracking identity is NotFound, not
// an empty success.
func ParseTracking(body []byte) (*ParsedTracking, error) {
	if f := faultOf(body); f != nil {
		return nil, f
	}

	var env trackingEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, &ParseError{Reason: "malformed tracking response", Raw: body, Cause: err}
	}

	items := env.Body.Response.TrackingResponse.AWBInfo.Items
	if len(items) == 0 || items[0].AWBNumber == "" {
		return nil, &NotFoundError{Message: "no shipment found for the tracking number"}
	}

	first := items[0]
	out := &ParsedTracking{
		TrackingID:             first.AWBNumber,
		OriginDescription:      first.ShipmentInfo.OriginServiceArea.Description,
		DestinationDescription: first.ShipmentInfo.DestinationServiceArea.Description,
		Pieces:                 []ParsedTrackingPiece{},
		Events:                 []ParsedTrackingEvent{},
	}

	seen := make(map[eventKey]struct{})
	addEvent := func(raw eventItem) {
		ts := parseEventTime(raw.Date, raw.Time)
		key := eventKey{ts: ts.Unix(), code: raw.ServiceEvent.EventCode, location: raw.ServiceArea.Description}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out.Events = append(out.Events, ParsedTrackingEvent{
			Timestamp:   ts,
			Code:        raw.ServiceEvent.EventCode,
			Description: raw.ServiceEvent.Description,
			Location:    raw.ServiceArea.Description,
		})
	}

	pieceEvents := 0
	for _, pi := range first.ShipmentInfo.Pieces.PieceInfo {
		d := pi.Details
		declared, _ := parseDecimalText(firstText(d.Weight, d.DeclaredAlt))
		out.Pieces = append(out.Pieces, ParsedTrackingPiece{
			PieceID:    firstText(d.LicensePlate, d.PieceNumber),
			Declared:   declared,
			Actual:     optionalWeight(d.ActualWeight, d.ActualAlt1, d.ActualAlt2),
			Volumetric: optionalWeight(d.DimWeight, d.DimAlt),
			WeightUnit: firstText(d.WeightUnit, "KG"),
		})
		for _, ev := range pi.PieceEvent.Items {
			addEvent(ev)
			pieceEvents++
		}
	}

	if pieceEvents == 0 {
		for _, ev := range first.ShipmentInfo.ShipmentEvent.Items {
			addEvent(ev)
		}
	}

	sort.SliceStable(out.Events, func(i, j int) bool {
		return out.Events[i].Timestamp.Before(out.Events[j].Timestamp)
	})

	if len(out.Events) > 0 {
		latest := out.Events[len(out.Events)-1]
		out.LatestCode = latest.Code
		out.LatestDescription = latest.Description
	}
	return out, nil
}
