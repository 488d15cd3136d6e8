// Package dhl provides integration with the DHL Express carrier APIs:
// rating, tracking, shipment creation, proof-of-delivery retrieval and
// landed-cost estimation.
package dhl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tournevent/dhlbridge/pkg/dhl/rest"
	"github.com/tournevent/dhlbridge/pkg/dhl/soap"
	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

const carrierName = "dhl"

// Block reasons for quotes that the weight engine refuses to price.
const blockedMissingVolumetric = "missing_dhl_volumetric_weight"

const accountHint = "DHL did not report a volumetric weight for this shipment; " +
	"quoting from tracked weights requires a DHL account number"

// Gateway is the DHL Express client. All operations validate first,
// compose a carrier request, send it through the transport and
// normalize the response; failures always surface as *ErrorRecord.
type Gateway struct {
	creds   Credentials
	client  transport.Client
	soap    *soap.Composer
	rest    *rest.Composer
	refdata *Store
	logger  *otelzap.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// Config holds gateway construction options. Client overrides the
// transport for tests; nil builds the production HTTP client.
type Config struct {
	Credentials   Credentials
	Client        transport.Client
	Refdata       *Store
	ShipWindowMin time.Duration
	ShipWindowMax time.Duration
	Timeout       time.Duration
	Now           func() time.Time
}

// New creates a DHL gateway. A nil tracer falls back to a no-op.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Gateway {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(carrierName)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Refdata == nil {
		cfg.Refdata = NewStore(DefaultSnapshot())
	}
	client := cfg.Client
	if client == nil {
		client = transport.NewHTTPClient(transport.Config{
			Username: cfg.Credentials.Username,
			Password: cfg.Credentials.Password,
			Timeout:  cfg.Timeout,
			Logger:   logger,
		})
	}

	return &Gateway{
		creds:  cfg.Credentials,
		client: client,
		soap: soap.NewComposer(soap.Config{
			BaseURL:       cfg.Credentials.SOAPBaseURL,
			Username:      cfg.Credentials.Username,
			Password:      cfg.Credentials.Password,
			Account:       cfg.Credentials.DefaultAccount(),
			ShipWindowMin: cfg.ShipWindowMin,
			ShipWindowMax: cfg.ShipWindowMax,
			Now:           cfg.Now,
			Calendar:      calendarAdapter{cfg.Refdata},
		}),
		rest: rest.NewComposer(rest.Config{
			BaseURL: cfg.Credentials.RESTBaseURL,
			Account: cfg.Credentials.DefaultAccount(),
		}),
		refdata: cfg.Refdata,
		logger:  logger,
		tracer:  tracer,
		now:     cfg.Now,
	}
}

// calendarAdapter exposes the refdata snapshot as the composer's
// business-day calendar.
type calendarAdapter struct {
	store *Store
}

func (c calendarAdapter) IsBusinessDay(country string, t time.Time) bool {
	return c.store.Load().IsBusinessDay(country, t)
}

// Refdata returns the live reference-data store.
func (g *Gateway) Refdata() *Store {
	return g.refdata
}

// GetRate returns priced products for a shipment. The chargeable
// weight is the highest of every candidate the weight engine computes;
// the full candidate set rides along for auditability. Quotes derived
// from tracked weights without a carrier volumetric weight are blocked
// unless an account number is available.
func (g *Gateway) GetRate(ctx context.Context, req *RateRequest) (*RateResult, error) {
	ctx, span := g.tracer.Start(ctx, "dhl.GetRate")
	defer span.End()

	if v := ValidateRate(req, g.refdata.Load()); !v.Valid {
		return nil, validationError(v)
	}

	sel := SelectWeight(req.Weight, req.TotalInput, req.Pieces, req.FromTracking)
	result := &RateResult{
		WeightSelection: &sel,
		QuoteWithWeight: QuotePermission{Allowed: true},
		RequestedAt:     g.now().UTC(),
	}

	account := g.account(req.Account)
	if sel.NeedsAccountForQuote && account == "" {
		g.logger.Ctx(ctx).Info("Rate blocked pending account",
			zap.String("carrier", carrierName),
			zap.String("weight", sel.EffectiveWeight.String()),
		)
		result.QuoteWithWeight = QuotePermission{Allowed: false, BlockedReason: blockedMissingVolumetric}
		result.AccountRequirements = AccountRequirements{NeedsAccountForQuote: true, Hint: accountHint}
		return result, nil
	}

	g.logger.Ctx(ctx).Info("Getting DHL rates",
		zap.String("origin_country", req.Origin.Country),
		zap.String("destination_country", req.Destination.Country),
		zap.String("effective_weight", sel.EffectiveWeight.String()),
		zap.Int("piece_count", len(req.Pieces)),
	)

	in := &soap.RateInput{
		Origin:      addressToSOAP(req.Origin),
		Destination: addressToSOAP(req.Destination),
		Weight:      sel.EffectiveWeight,
		Content:     req.Service.WireCode(),
		Account:     account,
		Currency:    req.Currency,
		PlannedDate: req.PlannedDate,
	}
	if req.Dimensions != nil && req.Dimensions.Positive() {
		in.Length = req.Dimensions.Length
		in.Width = req.Dimensions.Width
		in.Height = req.Dimensions.Height
	}

	treq, err := g.soap.RateRequest(in)
	if err != nil {
		return nil, g.fail(ctx, "rate", err, nil)
	}
	resp, err := g.client.Send(ctx, treq)
	if err != nil {
		return nil, g.fail(ctx, "rate", err, nil)
	}

	quotes, err := soap.ParseRate(resp.Body)
	if err != nil {
		return nil, g.fail(ctx, "rate", err, resp)
	}
	for _, q := range quotes {
		result.Quotes = append(result.Quotes, quoteFromSOAP(q, g.now().UTC()))
	}
	return result, nil
}

// GetTracking returns the normalized tracking record for a shipment.
// Pieces and Events are never nil.
func (g *Gateway) GetTracking(ctx context.Context, req *TrackingRequest) (*TrackingRecord, error) {
	ctx, span := g.tracer.Start(ctx, "dhl.GetTracking")
	defer span.End()

	if v := ValidateTracking(req); !v.Valid {
		return nil, validationError(v)
	}

	g.logger.Ctx(ctx).Info("Tracking DHL shipment",
		zap.String("tracking_id", req.TrackingID),
	)

	treq, err := g.soap.TrackingRequest(CleanText(req.TrackingID))
	if err != nil {
		return nil, g.fail(ctx, "tracking", err, nil)
	}
	resp, err := g.client.Send(ctx, treq)
	if err != nil {
		return nil, g.fail(ctx, "tracking", err, nil)
	}

	parsed, err := soap.ParseTracking(resp.Body)
	if err != nil {
		return nil, g.fail(ctx, "tracking", err, resp)
	}
	return trackingFromSOAP(parsed, g.now().UTC()), nil
}

// CreateShipment books a shipment and returns the tracking identity.
// The transport never retries this operation; a timeout may still have
// booked, which the error surfaces.
func (g *Gateway) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResult, error) {
	ctx, span := g.tracer.Start(ctx, "dhl.CreateShipment")
	defer span.End()

	if v := ValidateShipment(req, g.refdata.Load()); !v.Valid {
		return nil, validationError(v)
	}

	g.logger.Ctx(ctx).Info("Creating DHL shipment",
		zap.String("origin_country", req.Shipper.Country),
		zap.String("destination_country", req.Recipient.Country),
		zap.Int("piece_count", len(req.Pieces)),
	)

	in := &soap.ShipmentInput{
		Origin:            contactToSOAP(req.Shipper),
		Destination:       contactToSOAP(req.Recipient),
		Service:           string(req.Service),
		Content:           req.Service.WireCode(),
		PaymentCode:       string(req.Payment),
		Account:           g.account(req.Account),
		Currency:          req.Currency,
		Description:       CleanText(req.Content),
		PickupInstruction: CleanText(req.PickupInstruction),
		CustomsValue:      req.DeclaredValue,
		PlannedDate:       req.ShipTimestamp,
	}
	if req.InsuranceRequested && req.DeclaredValue.IsPositive() {
		in.Insurance = req.DeclaredValue
	}
	for _, p := range req.Pieces {
		piece := soap.ShipmentPieceInput{
			Weight:    p.SelectedWeight(),
			Reference: CleanText(firstNonEmpty(p.Reference, req.Reference)),
		}
		if p.Dimensions != nil {
			piece.Length = p.Dimensions.Length
			piece.Width = p.Dimensions.Width
			piece.Height = p.Dimensions.Height
		}
		in.Pieces = append(in.Pieces, piece)
	}

	treq, err := g.soap.ShipmentRequest(in)
	if err != nil {
		return nil, g.fail(ctx, "shipment", err, nil)
	}
	resp, err := g.client.Send(ctx, treq)
	if err != nil {
		mapped := g.fail(ctx, "shipment", err, nil)
		if IsKind(mapped, KindTimeout) {
			if rec := new(ErrorRecord); errors.As(mapped, &rec) {
				rec.Suggestion = "The booking may still have completed; track before retrying"
			}
		}
		return nil, mapped
	}

	parsed, err := soap.ParseShipment(resp.Body)
	if err != nil {
		return nil, g.fail(ctx, "shipment", err, resp)
	}

	result := &ShipmentResult{
		TrackingID:    parsed.TrackingID,
		PieceIDs:      parsed.PieceIDs,
		ShipTimestamp: g.soap.ClampShip(req.ShipTimestamp, req.Recipient.Country),
		RequestedAt:   g.now().UTC(),
	}
	g.logger.Ctx(ctx).Info("DHL shipment created",
		zap.String("tracking_id", result.TrackingID),
		zap.Int("piece_count", len(result.PieceIDs)),
	)
	return result, nil
}

// GetEpod retrieves the proof-of-delivery PDF for a delivered
// shipment.
func (g *Gateway) GetEpod(ctx context.Context, req *EpodRequest) (*EpodArtifact, error) {
	ctx, span := g.tracer.Start(ctx, "dhl.GetEpod")
	defer span.End()

	if v := ValidateEpod(req); !v.Valid {
		return nil, validationError(v)
	}

	content := req.Content
	if content == "" {
		content = EpodSummary
	}

	g.logger.Ctx(ctx).Info("Fetching DHL proof of delivery",
		zap.String("shipment_id", req.ShipmentID),
		zap.String("content_type", string(content)),
	)

	treq, err := g.soap.EpodRequest(&soap.EpodInput{
		TrackingID:  CleanText(req.ShipmentID),
		ContentType: string(content),
		Cookie:      req.Cookie,
	})
	if err != nil {
		return nil, g.fail(ctx, "epod", err, nil)
	}
	resp, err := g.client.Send(ctx, treq)
	if err != nil {
		return nil, g.fail(ctx, "epod", err, nil)
	}

	parsed, err := soap.ParseEpod(resp.Body)
	if err != nil {
		return nil, g.fail(ctx, "epod", err, resp)
	}

	mb := decimal.NewFromInt(int64(parsed.Size)).
		Div(decimal.NewFromInt(1024 * 1024))
	return &EpodArtifact{
		DocumentID:     req.ShipmentID,
		TypeCode:       string(content),
		Payload:        parsed.PDF,
		Size:           parsed.Size,
		SizeMB:         Round2(mb),
		TotalDocuments: parsed.TotalDocuments,
		Strategy:       epodStrategy(parsed.Strategy),
		RequestedAt:    g.now().UTC(),
	}, nil
}

// GetLandedCost estimates duties, taxes and fees for a cross-border
// shipment via the MyDHL REST API.
func (g *Gateway) GetLandedCost(ctx context.Context, req *LandedCostRequest) (*LandedCostResult, error) {
	ctx, span := g.tracer.Start(ctx, "dhl.GetLandedCost")
	defer span.End()

	v := ValidateLandedCost(req, g.refdata.Load())
	if !v.Valid {
		return nil, validationError(v)
	}

	g.logger.Ctx(ctx).Info("Estimating DHL landed cost",
		zap.String("origin_country", req.Origin.Country),
		zap.String("destination_country", req.Destination.Country),
		zap.Int("item_count", len(req.Items)),
	)

	in := &rest.LandedCostInput{
		Shipper: rest.PartyInput{
			PostalCode: req.Origin.PostalCode,
			City:       CleanText(req.Origin.City),
			Country:    req.Origin.Country,
		},
		Receiver: rest.PartyInput{
			PostalCode: req.Destination.PostalCode,
			City:       CleanText(req.Destination.City),
			Country:    req.Destination.Country,
		},
		Account:            g.account(req.Account),
		ProductCode:        string(req.Service),
		Currency:           req.Currency,
		CustomsDeclarable:  req.IsCustomsDeclarable,
		DTPRequested:       req.IsDTPRequested,
		InsuranceRequested: req.IsInsuranceRequested,
		Purpose:            string(req.Purpose),
	}
	if in.ProductCode == "" {
		in.ProductCode = string(ContentNonDocuments)
	}
	if in.Purpose == "" {
		in.Purpose = string(PurposePersonal)
	}
	for _, p := range req.Packages {
		pkg := rest.PackageInput{Weight: p.SelectedWeight()}
		if p.Dimensions != nil {
			pkg.Length = p.Dimensions.Length
			pkg.Width = p.Dimensions.Width
			pkg.Height = p.Dimensions.Height
		}
		in.Packages = append(in.Packages, pkg)
	}
	tariff := req.TariffRateType
	if tariff == "" {
		tariff = TariffDefault
	}
	for _, it := range req.Items {
		code := it.CommodityCode
		if code == "" {
			code = genericHSCode
		}
		in.Items = append(in.Items, rest.ItemInput{
			Name:                CleanText(it.Name),
			Description:         CleanText(it.Description),
			ManufacturerCountry: it.ManufacturerCountry,
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice,
			CustomsValue:        it.CustomsValue,
			CommodityCode:       code,
			Weight:              it.Weight,
			Category:            it.Category,
			TariffRateType:      string(tariff),
		})
	}

	treq, err := g.rest.LandedCostRequest(in)
	if err != nil {
		return nil, g.fail(ctx, "landed_cost", err, nil)
	}
	resp, err := g.client.Send(ctx, treq)
	if err != nil {
		return nil, g.fail(ctx, "landed_cost", err, nil)
	}

	parsed, err := rest.ParseLandedCost(resp.Body)
	if err != nil {
		return nil, g.fail(ctx, "landed_cost", err, resp)
	}
	result := landedCostFromREST(parsed, req.Items, g.now().UTC())
	result.Warnings = append(result.Warnings, v.Warnings...)
	return result, nil
}

// ValidateAccount probes an account number with a minimal rate
// request. Carrier faults that point at the account mean invalid;
// anything priced means valid.
func (g *Gateway) ValidateAccount(ctx context.Context, account string) (*AccountValidation, error) {
	ctx, span := g.tracer.Start(ctx, "dhl.ValidateAccount")
	defer span.End()

	g.logger.Ctx(ctx).Info("Validating DHL account",
		zap.String("account_suffix", suffix(account, 4)),
	)

	treq, err := g.soap.RateRequest(&soap.RateInput{
		Origin:      soap.AddressInput{Street: "na", City: "Panama", Postal: "0", Country: "PA"},
		Destination: soap.AddressInput{Street: "na", City: "Miami", Postal: "33126", Country: "US"},
		Weight:      decimal.NewFromInt(1),
		Content:     ContentNonDocuments.WireCode(),
		Account:     account,
	})
	if err != nil {
		return nil, g.fail(ctx, "validate_account", err, nil)
	}
	resp, err := g.client.Send(ctx, treq)
	if err != nil {
		return nil, g.fail(ctx, "validate_account", err, nil)
	}

	if _, err := soap.ParseRate(resp.Body); err != nil {
		var fault *soap.FaultError
		if errors.As(err, &fault) {
			return &AccountValidation{
				AccountNumber: account,
				Valid:         false,
				Reason:        fmt.Sprintf("carrier rejected the probe (%s): %s", fault.Code, fault.Message),
			}, nil
		}
		return nil, g.fail(ctx, "validate_account", err, resp)
	}
	return &AccountValidation{AccountNumber: account, Valid: true}, nil
}

// ValidateAccounts probes every account concurrently.
func (g *Gateway) ValidateAccounts(ctx context.Context, accounts []string) ([]*AccountValidation, error) {
	results := make([]*AccountValidation, len(accounts))
	eg, ctx := errgroup.WithContext(ctx)
	for i, acct := range accounts {
		i, acct := i, acct
		eg.Go(func() error {
			v, err := g.ValidateAccount(ctx, acct)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (g *Gateway) account(override string) string {
	if override != "" {
		return override
	}
	return g.creds.DefaultAccount()
}

// fail maps any lower-layer error to an *ErrorRecord and logs it.
func (g *Gateway) fail(ctx context.Context, operation string, err error, resp *transport.Response) error {
	rec := MapError(err)
	if resp != nil && rec.RawPreview == "" {
		rec = rec.WithRawPreview(resp.Body)
	}
	if resp != nil && rec.RetriesConsumed == 0 {
		rec = rec.WithRetries(resp.Retries)
	}
	g.logger.Ctx(ctx).Error("DHL operation failed",
		zap.String("carrier", carrierName),
		zap.String("operation", operation),
		zap.String("kind", string(rec.Kind)),
		zap.String("machine_code", rec.MachineCode),
		zap.Int("retries", rec.RetriesConsumed),
		zap.Error(err),
	)
	return rec
}

// ============================================================================
// Conversion helpers
// ============================================================================

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func suffix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func streetOf(a Address) string {
	parts := make([]string, 0, 3)
	for _, line := range []string{a.Line1, a.Line2, a.Line3} {
		if line != "" {
			parts = append(parts, CleanText(line))
		}
	}
	return strings.Join(parts, " ")
}

func addressToSOAP(a Address) soap.AddressInput {
	return soap.AddressInput{
		Street:  streetOf(a),
		City:    CleanText(a.City),
		Postal:  CleanText(a.PostalCode),
		Country: a.Country,
	}
}

func contactToSOAP(a Address) soap.ShipmentContactInput {
	return soap.ShipmentContactInput{
		AddressInput: addressToSOAP(a),
		PersonName:   CleanText(a.PersonName),
		CompanyName:  CleanText(firstNonEmpty(a.CompanyName, a.PersonName)),
		Phone:        CleanPhone(a.Phone),
		Email:        strings.TrimSpace(a.Email),
	}
}

func quoteFromSOAP(q soap.ParsedQuote, now time.Time) RateQuote {
	out := RateQuote{
		ServiceCode:      q.ServiceCode,
		ServiceName:      q.ServiceName,
		TotalAmount:      Round2(q.TotalAmount),
		Currency:         q.Currency,
		DeliveryEstimate: q.DeliveryTime,
		CutoffTime:       q.CutoffTime,
		NextBusinessDay:  q.NextBusinessDay,
		DocumentsOK:      q.ServiceCode == "D" || q.ServiceCode == "K" || q.ServiceCode == "L",
		NonDocumentsOK:   q.ServiceCode != "D",
	}
	if q.DeliveryTime != nil {
		days := int(q.DeliveryTime.Sub(now).Hours() / 24)
		if days < 1 {
			days = 1
		}
		out.TransitDays = days
	}
	for _, ch := range q.Charges {
		out.Breakdown = append(out.Breakdown, ChargeLine{
			Code:   ch.Code,
			Label:  ch.Label,
			Amount: Round2(ch.Amount),
		})
	}
	return out
}

// statusInTransit are the event codes that prove movement through the
// DHL network.
var statusInTransit = map[string]bool{
	"PU": true, "AF": true, "PL": true, "DF": true, "CR": true, "CC": true,
}

func statusOf(code string) ShipmentStatus {
	switch {
	case code == "OK":
		return StatusDelivered
	case statusInTransit[code]:
		return StatusInTransit
	default:
		return StatusProcessing
	}
}

func trackingFromSOAP(parsed *soap.ParsedTracking, now time.Time) *TrackingRecord {
	rec := &TrackingRecord{
		TrackingID:        parsed.TrackingID,
		Status:            statusOf(parsed.LatestCode),
		StatusCode:        parsed.LatestCode,
		StatusDescription: parsed.LatestDescription,
		Origin:            parsed.OriginDescription,
		Destination:       parsed.DestinationDescription,
		Pieces:            []TrackingPiece{},
		Events:            []TrackingEvent{},
		RequestedAt:       now,
	}
	for _, p := range parsed.Pieces {
		rec.Pieces = append(rec.Pieces, TrackingPiece{
			PieceID:          p.PieceID,
			DeclaredWeight:   p.Declared,
			ActualWeight:     p.Actual,
			VolumetricWeight: p.Volumetric,
			WeightUnit:       p.WeightUnit,
		})
	}
	for _, e := range parsed.Events {
		rec.Events = append(rec.Events, TrackingEvent{
			Timestamp:   e.Timestamp,
			Code:        e.Code,
			Description: e.Description,
			Location:    e.Location,
		})
	}
	rec.WeightsSummary = SummarizeTrackingWeights(rec.Pieces)
	return rec
}

func epodStrategy(s string) EpodStrategy {
	switch s {
	case soap.EpodStrategyText:
		return EpodStrategyText
	case soap.EpodStrategyRegex:
		return EpodStrategyRegex
	default:
		return EpodStrategyAttr
	}
}

// chargeCategory buckets a breakdown line by its type code or name.
func chargeCategory(typeCode, name string) string {
	key := strings.ToUpper(typeCode + " " + name)
	switch {
	case strings.Contains(key, "DUTY") || strings.Contains(key, "DUTIES"):
		return "duty"
	case strings.Contains(key, "TAX") || strings.Contains(key, "VAT"):
		return "tax"
	case strings.Contains(key, "INSURANCE"):
		return "insurance"
	case strings.Contains(key, "FEE") || strings.Contains(key, "SURCHARGE"):
		return "fee"
	default:
		return "shipping"
	}
}

func landedCostFromREST(parsed *rest.ParsedLandedCost, items []LandedCostItem, now time.Time) *LandedCostResult {
	out := &LandedCostResult{
		Total:       Round2(parsed.TotalAmount),
		Currency:    parsed.Currency,
		Warnings:    parsed.Warnings,
		WeightUnit:  "kg",
		RequestedAt: now,
	}
	if parsed.VolumetricWeight.IsPositive() {
		v := Round2(parsed.VolumetricWeight)
		out.VolumetricWeight = &v
	}
	if parsed.ProvidedWeight.IsPositive() {
		p := Round2(parsed.ProvidedWeight)
		out.ProvidedWeight = &p
	}
	out.PickupCapability = parsed.EstimatedPickup
	out.DeliveryCapability = parsed.EstimatedDelivery

	for _, ch := range parsed.Charges {
		amount := Round2(ch.Amount)
		out.Breakdown = append(out.Breakdown, LandedCostCharge{
			TypeCode:    ch.TypeCode,
			Description: ch.Name,
			Amount:      amount,
			Currency:    ch.Currency,
		})
		switch chargeCategory(ch.TypeCode, ch.Name) {
		case "duty":
			out.Duties = out.Duties.Add(amount)
		case "tax":
			out.Taxes = out.Taxes.Add(amount)
		case "insurance":
			out.Insurance = out.Insurance.Add(amount)
		case "fee":
			out.Fees = out.Fees.Add(amount)
		default:
			out.Shipping = out.Shipping.Add(amount)
		}
	}

	// Same quantity-weighted basis as the declared-value checks.
	var customsTotal decimal.Decimal
	for _, it := range items {
		customsTotal = customsTotal.Add(it.CustomsValue.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if customsTotal.IsPositive() {
		out.EffectiveTaxRate = Round2(out.Duties.Add(out.Taxes).Div(customsTotal))
	}
	return out
}
