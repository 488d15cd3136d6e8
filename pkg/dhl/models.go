package dhl

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContentType is DHL's content dichotomy: it drives customs handling
// and service eligibility.
type ContentType string

const (
	ContentNonDocuments ContentType = "P"
	ContentDocuments    ContentType = "D"
)

// WireCode returns the code DHL expects inside envelopes.
func (c ContentType) WireCode() string {
	if c == ContentDocuments {
		return "DOCUMENTS"
	}
	return "NON_DOCUMENTS"
}

// PaymentCode identifies which party pays for the shipment.
type PaymentCode string

const (
	PaymentShipper   PaymentCode = "S"
	PaymentRecipient PaymentCode = "R"
	PaymentThird     PaymentCode = "T"
)

// ShipmentStatus is the normalized delivery status derived from events.
type ShipmentStatus string

const (
	StatusDelivered  ShipmentStatus = "delivered"
	StatusInTransit  ShipmentStatus = "in_transit"
	StatusProcessing ShipmentStatus = "processing"
)

// EpodContentType selects the proof-of-delivery document flavor.
type EpodContentType string

const (
	EpodSummary     EpodContentType = "epod-summary"
	EpodDetail      EpodContentType = "epod-detail"
	EpodDetailESig  EpodContentType = "epod-detail-esig"
	EpodSummaryESig EpodContentType = "epod-summary-esig"
	EpodTable       EpodContentType = "epod-table"
	EpodTableDetail EpodContentType = "epod-table-detail"
	EpodTableESig   EpodContentType = "epod-table-esig"
)

// TariffRateType selects the landed-cost duty estimation strategy.
type TariffRateType string

const (
	TariffDefault      TariffRateType = "default"
	TariffDerived      TariffRateType = "derived"
	TariffHighest      TariffRateType = "highest"
	TariffCenter       TariffRateType = "center"
	TariffLowest       TariffRateType = "lowest"
	TariffPreferential TariffRateType = "preferential"
)

// ShipmentPurpose distinguishes personal from commercial shipments.
type ShipmentPurpose string

const (
	PurposePersonal   ShipmentPurpose = "personal"
	PurposeCommercial ShipmentPurpose = "commercial"
)

// Address is a normalized shipping address. Country is ISO 3166-1
// alpha-2 uppercase. PostalCode "0" means unknown/default and is
// forwarded to DHL literally (accepted as a wildcard).
type Address struct {
	Country     string `validate:"required,len=2,uppercase"`
	City        string
	PostalCode  string
	State       string
	Line1       string
	Line2       string
	Line3       string
	PersonName  string
	CompanyName string
	Phone       string
	Email       string
}

// Dimensions are piece dimensions in cm. All three must be positive
// when used for volumetric calculation.
type Dimensions struct {
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
}

// Positive reports whether every side is strictly greater than zero.
func (d Dimensions) Positive() bool {
	return d.Length.IsPositive() && d.Width.IsPositive() && d.Height.IsPositive()
}

// Volumetric returns the unrounded volumetric weight of the box.
func (d Dimensions) Volumetric() decimal.Decimal {
	return Volumetric(d.Length, d.Width, d.Height)
}

// Piece is a single package within a shipment. At least one of
// declared or actual weight must be populated.
type Piece struct {
	ID             string
	DeclaredWeight decimal.Decimal
	// ActualWeight is the carrier reweigh, when known.
	ActualWeight *decimal.Decimal
	Dimensions   *Dimensions
	// DimensionalWeight is the carrier-reported volumetric weight.
	DimensionalWeight *decimal.Decimal
	WeightUnit        string
	Reference         string
	DeclaredValue     decimal.Decimal
}

// SelectedWeight is the rate-inducing weight for the piece: actual
// (reweigh) when the carrier measured one, declared otherwise.
func (p Piece) SelectedWeight() decimal.Decimal {
	if p.ActualWeight != nil {
		return *p.ActualWeight
	}
	return p.DeclaredWeight
}

// volumetric is the best volumetric weight available for the piece:
// computed from dimensions when present, the carrier's dimensional
// weight otherwise, zero when neither exists.
func (p Piece) volumetric() decimal.Decimal {
	if p.Dimensions != nil && p.Dimensions.Positive() {
		return p.Dimensions.Volumetric()
	}
	if p.DimensionalWeight != nil {
		return *p.DimensionalWeight
	}
	return decimal.Zero
}

// hasCarrierVolumetric reports whether DHL supplied a dimensional
// weight for this piece.
func (p Piece) hasCarrierVolumetric() bool {
	return p.DimensionalWeight != nil && p.DimensionalWeight.IsPositive()
}

// ============================================================================
// Request types
// ============================================================================

// RateRequest asks for rate quotes between two addresses.
type RateRequest struct {
	Origin      Address
	Destination Address
	// Weight is the top-level declared weight (candidate "base").
	Weight decimal.Decimal
	// TotalInput is an optional caller-supplied total weight.
	TotalInput *decimal.Decimal
	Dimensions *Dimensions
	Pieces     []Piece
	Service    ContentType `validate:"required,oneof=P D"`
	Account    string
	Currency   string
	Content    string
	// FromTracking marks weights derived from a prior tracking lookup;
	// quoting from those requires a carrier volumetric weight or an
	// account (see AccountRequirements).
	FromTracking bool
	PlannedDate  *time.Time
}

// TrackingRequest identifies a shipment to track.
type TrackingRequest struct {
	TrackingID string `validate:"required"`
}

// ShipmentRequest creates a shipment with DHL.
type ShipmentRequest struct {
	Shipper       Address
	Recipient     Address
	Pieces        []Piece
	Service       ContentType `validate:"required,oneof=P D"`
	Payment       PaymentCode `validate:"required,oneof=S R T"`
	Account       string
	Currency      string
	Content       string
	DeclaredValue decimal.Decimal
	// ShipTimestamp, when set, is clamped to the carrier-accepted
	// window by the composer; nil defaults to tomorrow 10:00 UTC.
	ShipTimestamp      *time.Time
	PickupInstruction  string
	Reference          string
	InsuranceRequested bool
}

// EpodRequest retrieves an electronic proof of delivery.
type EpodRequest struct {
	ShipmentID string `validate:"required"`
	Content    EpodContentType
	// Cookie is the opaque load-balancer cookie some DHL frontends
	// require; passed through verbatim when present.
	Cookie string
}

// LandedCostItem is one commodity line of a landed-cost request.
type LandedCostItem struct {
	Name                string `validate:"required,max=512"`
	Description         string `validate:"max=255"`
	ManufacturerCountry string `validate:"required,len=2"`
	Quantity            int    `validate:"min=1"`
	UnitPrice           decimal.Decimal
	CustomsValue        decimal.Decimal
	CommodityCode       string
	Weight              decimal.Decimal
	Category            string
	Brand               string
}

// LandedCostRequest estimates total landed cost for a shipment.
type LandedCostRequest struct {
	Origin               Address
	Destination          Address
	Packages             []Piece
	Items                []LandedCostItem
	Currency             string `validate:"required,len=3"`
	Service              ContentType
	Purpose              ShipmentPurpose
	TransportationMode   string
	TariffRateType       TariffRateType
	Account              string
	IsCustomsDeclarable  bool
	IsDTPRequested       bool
	IsInsuranceRequested bool
	GetCostBreakdown     bool
}

// ============================================================================
// Result types
// ============================================================================

// ChargeLine is one (label, amount) pair of a rate breakdown.
type ChargeLine struct {
	Code   string
	Label  string
	Amount decimal.Decimal
}

// RateQuote is one priced product returned by DHL.
type RateQuote struct {
	ServiceCode      string
	ServiceName      string
	TotalAmount      decimal.Decimal
	Currency         string
	Breakdown        []ChargeLine
	DeliveryEstimate *time.Time
	CutoffTime       *time.Time
	TransitDays      int
	NextBusinessDay  bool
	DocumentsOK      bool
	NonDocumentsOK   bool
}

// QuotePermission reports whether the computed weight may be used to
// quote. A disallowed quote is a domain-level block, not an error.
type QuotePermission struct {
	Allowed       bool
	BlockedReason string
}

// AccountRequirements carries the call-to-action when quoting needs an
// account the caller has not supplied.
type AccountRequirements struct {
	NeedsAccountForQuote bool
	Hint                 string
}

// RateResult is the normalized rate operation outcome.
type RateResult struct {
	Quotes              []RateQuote
	WeightSelection     *WeightSelection
	QuoteWithWeight     QuotePermission
	AccountRequirements AccountRequirements
	RequestedAt         time.Time
}

// TrackingPiece is one piece of a tracked shipment with its three
// weights as reported by the carrier.
type TrackingPiece struct {
	PieceID          string
	DeclaredWeight   decimal.Decimal
	ActualWeight     *decimal.Decimal
	VolumetricWeight *decimal.Decimal
	WeightUnit       string
}

// TrackingEvent is a single checkpoint scan.
type TrackingEvent struct {
	Timestamp   time.Time
	Code        string
	Description string
	Location    string
}

// TrackingRecord is the normalized tracking outcome. Pieces and Events
// are never nil; empty slices mean "none reported".
type TrackingRecord struct {
	TrackingID        string
	Status            ShipmentStatus
	StatusCode        string
	StatusDescription string
	Origin            string
	Destination       string
	Pieces            []TrackingPiece
	Events            []TrackingEvent
	WeightsSummary    *WeightsSummary
	RequestedAt       time.Time
}

// ShipmentResult is the normalized shipment-creation outcome.
type ShipmentResult struct {
	TrackingID    string
	PieceIDs      []string
	ShipTimestamp time.Time
	RequestedAt   time.Time
}

// EpodStrategy records which extraction strategy recovered the PDF.
type EpodStrategy string

const (
	EpodStrategyAttr  EpodStrategy = "attr"
	EpodStrategyText  EpodStrategy = "text"
	EpodStrategyRegex EpodStrategy = "regex"
)

// EpodArtifact is a proof-of-delivery document.
type EpodArtifact struct {
	DocumentID string
	TypeCode   string
	// Payload is the base64-encoded PDF.
	Payload        string
	Size           int
	SizeMB         decimal.Decimal
	TotalDocuments int
	Strategy       EpodStrategy
	RequestedAt    time.Time
}

// LandedCostCharge is one breakdown line, in DHL's original order.
type LandedCostCharge struct {
	TypeCode    string
	Description string
	Amount      decimal.Decimal
	Currency    string
}

// LandedCostResult is the normalized landed-cost outcome. All amounts
// are in the declared currency.
type LandedCostResult struct {
	Total              decimal.Decimal
	Shipping           decimal.Decimal
	Duties             decimal.Decimal
	Taxes              decimal.Decimal
	Fees               decimal.Decimal
	Insurance          decimal.Decimal
	Currency           string
	EffectiveTaxRate   decimal.Decimal
	Breakdown          []LandedCostCharge
	Warnings           []string
	VolumetricWeight   *decimal.Decimal
	ProvidedWeight     *decimal.Decimal
	WeightUnit         string
	PickupCapability   *time.Time
	DeliveryCapability *time.Time
	RequestedAt        time.Time
}

// AccountValidation is the outcome of probing an account number.
type AccountValidation struct {
	AccountNumber string
	Valid         bool
	Reason        string
}

// Credentials identify the gateway against DHL. Initialized once at
// startup and never mutated.
type Credentials struct {
	Username       string
	Password       string
	AccountNumbers []string
	SOAPBaseURL    string
	RESTBaseURL    string
	Environment    string
}

// DefaultAccount returns the first configured account number.
func (c Credentials) DefaultAccount() string {
	if len(c.AccountNumbers) > 0 {
		return c.AccountNumbers[0]
	}
	return ""
}
