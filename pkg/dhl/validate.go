package dhl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validation limits observed from the carrier contract.
var (
	maxDimensionCM  = decimal.NewFromInt(270)
	heavyWeightKG   = decimal.NewFromInt(100)
	largeValue      = decimal.NewFromInt(5000)
	maxLandedItems  = 1000
	maxLandedBoxes  = 999
	genericHSCode   = "999999"
	commodityCodeRe = regexp.MustCompile(`^[0-9]{6,10}$`)
)

var structValidate = validator.New()

// ValidationResult is the outcome of gating a request. Errors block the
// call; warnings and recommendations never affect Valid.
type ValidationResult struct {
	Valid           bool
	Errors          []string
	Warnings        []string
	Recommendations []string
}

func (r *ValidationResult) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) recommend(msg string) {
	r.Recommendations = append(r.Recommendations, msg)
}

func (r *ValidationResult) finish() *ValidationResult {
	r.Valid = len(r.Errors) == 0
	return r
}

// structErrors runs tag-level validation and flattens field errors.
func structErrors(r *ValidationResult, prefix string, v interface{}) {
	err := structValidate.Struct(v)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		r.errorf("%s: %v", prefix, err)
		return
	}
	for _, fe := range verrs {
		r.errorf("%s.%s: failed %q constraint", prefix, strings.ToLower(fe.Field()), fe.Tag())
	}
}

func validateAddress(r *ValidationResult, prefix string, a Address, snap *Snapshot, requireCity bool) {
	structErrors(r, prefix, a)
	if len(a.Country) == 2 && !snap.SupportsCountry(a.Country) {
		r.errorf("%s.country: %q is not a supported country", prefix, a.Country)
	}
	if requireCity && strings.TrimSpace(a.City) == "" {
		r.errorf("%s.city: required", prefix)
	}
	// Postal code "0" is legitimate: DHL treats it as a wildcard and
	// the composer forwards it literally.
}

func validatePieces(r *ValidationResult, pieces []Piece) {
	if len(pieces) == 0 {
		return
	}
	for i, p := range pieces {
		if p.DeclaredWeight.IsNegative() {
			r.errorf("pieces[%d].weight: must not be negative", i)
		}
		if p.DeclaredWeight.IsZero() && p.ActualWeight == nil {
			r.errorf("pieces[%d]: at least one of declared or actual weight is required", i)
		}
		if p.Dimensions != nil {
			validateDimensions(r, fmt.Sprintf("pieces[%d].dimensions", i), *p.Dimensions)
		}
	}
}

func validateDimensions(r *ValidationResult, prefix string, d Dimensions) {
	for _, side := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"length", d.Length},
		{"width", d.Width},
		{"height", d.Height},
	} {
		if !side.value.IsPositive() {
			r.errorf("%s.%s: must be greater than zero", prefix, side.name)
		} else if side.value.GreaterThan(maxDimensionCM) {
			r.errorf("%s.%s: exceeds %s cm", prefix, side.name, maxDimensionCM)
		}
	}
}

// ValidateRate gates a rate request. Purely structural and semantic;
// no I/O happens here.
func ValidateRate(req *RateRequest, snap *Snapshot) *ValidationResult {
	r := &ValidationResult{}
	validateAddress(r, "origin", req.Origin, snap, true)
	validateAddress(r, "destination", req.Destination, snap, true)

	if req.Service != ContentNonDocuments && req.Service != ContentDocuments {
		r.errorf("service: must be P (non-documents) or D (documents)")
	}
	if !req.Weight.IsPositive() && len(req.Pieces) == 0 {
		r.errorf("weight: must be greater than zero")
	}
	if req.Dimensions != nil {
		validateDimensions(r, "dimensions", *req.Dimensions)
	}
	validatePieces(r, req.Pieces)

	if req.Currency != "" && !snap.SupportsCurrency(req.Currency) {
		r.errorf("currency: %q is not supported", req.Currency)
	}
	if req.Weight.GreaterThan(heavyWeightKG) {
		r.warnf("weight %s kg is unusually high; confirm it is correct", req.Weight)
	}
	if req.Dimensions == nil && len(req.Pieces) == 0 {
		r.recommend("provide dimensions so the volumetric weight can be priced accurately")
	}
	return r.finish()
}

// ValidateTracking gates a tracking request.
func ValidateTracking(req *TrackingRequest) *ValidationResult {
	r := &ValidationResult{}
	if strings.TrimSpace(req.TrackingID) == "" {
		r.errorf("tracking_id: required")
	}
	return r.finish()
}

// ValidateShipment gates a shipment-creation request.
func ValidateShipment(req *ShipmentRequest, snap *Snapshot) *ValidationResult {
	r := &ValidationResult{}
	validateAddress(r, "shipper", req.Shipper, snap, true)
	validateAddress(r, "recipient", req.Recipient, snap, true)

	for side, a := range map[string]Address{"shipper": req.Shipper, "recipient": req.Recipient} {
		if strings.TrimSpace(a.Line1) == "" {
			r.errorf("%s.line1: required", side)
		}
		if strings.TrimSpace(a.PersonName) == "" && strings.TrimSpace(a.CompanyName) == "" {
			r.errorf("%s: person or company name required", side)
		}
	}

	if req.Service != ContentNonDocuments && req.Service != ContentDocuments {
		r.errorf("service: must be P (non-documents) or D (documents)")
	}
	switch req.Payment {
	case PaymentShipper, PaymentRecipient, PaymentThird:
	default:
		r.errorf("payment: must be S, R or T")
	}
	if len(req.Pieces) == 0 {
		r.errorf("pieces: at least one piece is required")
	}
	validatePieces(r, req.Pieces)

	if req.Currency != "" && !snap.SupportsCurrency(req.Currency) {
		r.errorf("currency: %q is not supported", req.Currency)
	}
	if len(req.Content) > 255 {
		r.errorf("content: description exceeds 255 characters")
	}
	if req.InsuranceRequested && !req.DeclaredValue.IsPositive() {
		r.warnf("insurance requested with zero declared value; the cover will be nil")
	}
	return r.finish()
}

// ValidateEpod gates a proof-of-delivery request.
func ValidateEpod(req *EpodRequest) *ValidationResult {
	r := &ValidationResult{}
	if strings.TrimSpace(req.ShipmentID) == "" {
		r.errorf("shipment_id: required")
	}
	switch req.Content {
	case "", EpodSummary, EpodDetail, EpodDetailESig, EpodSummaryESig,
		EpodTable, EpodTableDetail, EpodTableESig:
	default:
		r.errorf("content: %q is not a known ePOD content type", req.Content)
	}
	return r.finish()
}

// ValidateLandedCost gates a landed-cost request: the rate contract
// plus currency, item and package rules.
func ValidateLandedCost(req *LandedCostRequest, snap *Snapshot) *ValidationResult {
	r := &ValidationResult{}
	validateAddress(r, "origin", req.Origin, snap, true)
	validateAddress(r, "destination", req.Destination, snap, true)

	if len(req.Currency) != 3 {
		r.errorf("currency: ISO-3 code required")
	} else if !snap.SupportsCurrency(req.Currency) {
		r.errorf("currency: %q is not supported", req.Currency)
	}

	switch req.TariffRateType {
	case "", TariffDefault, TariffDerived, TariffHighest, TariffCenter, TariffLowest, TariffPreferential:
	default:
		r.errorf("tariff_rate_type: %q is not a known rate type", req.TariffRateType)
	}

	if len(req.Packages) == 0 {
		r.errorf("packages: at least one package is required")
	} else if len(req.Packages) > maxLandedBoxes {
		r.errorf("packages: at most %d packages are accepted", maxLandedBoxes)
	}
	validatePieces(r, req.Packages)

	if len(req.Items) == 0 {
		r.errorf("items: at least one item is required")
	} else if len(req.Items) > maxLandedItems {
		r.errorf("items: at most %d items are accepted", maxLandedItems)
	}

	var totalValue decimal.Decimal
	for i, item := range req.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		structErrors(r, prefix, item)
		if len(item.ManufacturerCountry) == 2 && !snap.SupportsCountry(item.ManufacturerCountry) {
			r.errorf("%s.manufacturer_country: %q is not a supported country", prefix, item.ManufacturerCountry)
		}
		if item.UnitPrice.IsNegative() {
			r.errorf("%s.unit_price: must not be negative", prefix)
		}
		if item.CustomsValue.IsNegative() {
			r.errorf("%s.customs_value: must not be negative", prefix)
		}
		if item.CommodityCode != "" && !commodityCodeRe.MatchString(item.CommodityCode) {
			r.errorf("%s.commodity_code: 6 to 10 digits expected", prefix)
		}
		if item.CommodityCode == genericHSCode {
			r.warnf("%s uses the generic HS code %s; duties cannot be computed precisely", prefix, genericHSCode)
			r.recommend("classify items with a specific HS code for exact duty estimation")
		}
		totalValue = totalValue.Add(item.CustomsValue.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if totalValue.GreaterThan(largeValue) {
		r.warnf("declared value %s exceeds %s; additional customs scrutiny is likely", totalValue, largeValue)
	}
	if req.IsDTPRequested && !snap.DTPEnabled(req.Destination.Country) {
		r.warnf("DTP requested but destination %s is not DTP-enabled", req.Destination.Country)
	}
	if req.IsInsuranceRequested && totalValue.IsZero() {
		r.warnf("insurance requested with zero declared value; the cover will be nil")
	}
	if req.Purpose == PurposeCommercial && !req.IsDTPRequested && snap.DTPEnabled(req.Destination.Country) {
		r.warnf("commercial shipment without DTP to a DTP-enabled destination; the consignee will be billed import charges")
	}
	return r.finish()
}
