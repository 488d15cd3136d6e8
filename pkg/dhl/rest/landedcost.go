// Package rest composes and parses MyDHL API JSON calls. Only the
// landed-cost product rides the REST surface; everything else still
// speaks SOAP.
package rest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tournevent/dhlbridge/pkg/dhl/transport"
)

const landedCostPath = "/landed-cost"

// Config carries the REST endpoint settings.
type Config struct {
	BaseURL string
	Account string
}

// Composer turns landed-cost inputs into transport requests.
type Composer struct {
	cfg Config
}

func NewComposer(cfg Config) *Composer {
	return &Composer{cfg: cfg}
}

// APIError is a structured MyDHL error payload.
type APIError struct {
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dhl api error %d: %s %s", e.Status, e.Title, e.Detail)
}

// ParseError marks a response body that could not be understood.
type ParseError struct {
	Reason string
	Raw    []byte
	Cause  error
}

func (e *ParseError) Error() string { return "landed cost parse: " + e.Reason }
func (e *ParseError) Unwrap() error { return e.Cause }

// ============================================================================
// Request composition
// ============================================================================

// PartyInput is the postal slice of a landed-cost party.
type PartyInput struct {
	PostalCode string
	City       string
	Country    string
}

// PackageInput is one physical box on the estimate.
type PackageInput struct {
	Weight decimal.Decimal
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
}

// ItemInput is one commodity line.
type ItemInput struct {
	Name                string
	Description         string
	ManufacturerCountry string
	PartNumber          string
	Quantity            int
	UnitPrice           decimal.Decimal
	CustomsValue        decimal.Decimal
	CommodityCode       string
	Weight              decimal.Decimal
	Category            string
	TariffRateType      string
}

// LandedCostInput is the full estimate request.
type LandedCostInput struct {
	Shipper            PartyInput
	Receiver           PartyInput
	Account            string
	ProductCode        string
	Currency           string
	CustomsDeclarable  bool
	DTPRequested       bool
	InsuranceRequested bool
	Purpose            string // commercial or personal
	Packages           []PackageInput
	Items              []ItemInput
}

type lcParty struct {
	PostalCode  string `json:"postalCode"`
	CityName    string `json:"cityName"`
	CountryCode string `json:"countryCode"`
}

type lcAccount struct {
	TypeCode string `json:"typeCode"`
	Number   string `json:"number"`
}

type lcDimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type lcPackage struct {
	Weight     float64      `json:"weight"`
	Dimensions lcDimensions `json:"dimensions"`
}

type lcItem struct {
	Number                  int     `json:"number"`
	Name                    string  `json:"name"`
	Description             string  `json:"description,omitempty"`
	ManufacturerCountry     string  `json:"manufacturerCountry"`
	PartNumber              string  `json:"partNumber,omitempty"`
	Quantity                int     `json:"quantity"`
	QuantityType            string  `json:"quantityType"`
	UnitPrice               float64 `json:"unitPrice"`
	UnitPriceCurrency       string  `json:"unitPriceCurrencyCode"`
	CustomsValue            float64 `json:"customsValue"`
	CustomsValueCurrency    string  `json:"customsValueCurrencyCode"`
	CommodityCode           string  `json:"commodityCode"`
	Weight                  float64 `json:"weight"`
	WeightUnit              string  `json:"weightUnitOfMeasurement"`
	Category                string  `json:"category,omitempty"`
	EstimatedTariffRateType string  `json:"estimatedTariffRateType,omitempty"`
}

type lcRequest struct {
	CustomerDetails struct {
		ShipperDetails  lcParty `json:"shipperDetails"`
		ReceiverDetails lcParty `json:"receiverDetails"`
	} `json:"customerDetails"`
	Accounts                    []lcAccount `json:"accounts"`
	ProductCode                 string      `json:"productCode"`
	UnitOfMeasurement           string      `json:"unitOfMeasurement"`
	CurrencyCode                string      `json:"currencyCode"`
	IsCustomsDeclarable         bool        `json:"isCustomsDeclarable"`
	IsDTPRequested              bool        `json:"isDTPRequested"`
	IsInsuranceRequested        bool        `json:"isInsuranceRequested"`
	GetCostBreakdown            bool        `json:"getCostBreakdown"`
	ShipmentPurpose             string      `json:"shipmentPurpose"`
	TransportationMode          string      `json:"transportationMode"`
	MerchantSelectedCarrierName string      `json:"merchantSelectedCarrierName"`
	Packages                    []lcPackage `json:"packages"`
	Items                       []lcItem    `json:"items"`
}

func (c *Composer) account(override string) string {
	if override != "" {
		return override
	}
	return c.cfg.Account
}

// LandedCostRequest builds the JSON estimate request. Estimates are
// safe to retry.
func (c *Composer) LandedCostRequest(in *LandedCostInput) (*transport.Request, error) {
	req := lcRequest{
		Accounts:                    []lcAccount{{TypeCode: "shipper", Number: c.account(in.Account)}},
		ProductCode:                 in.ProductCode,
		UnitOfMeasurement:           "metric",
		CurrencyCode:                in.Currency,
		IsCustomsDeclarable:         in.CustomsDeclarable,
		IsDTPRequested:              in.DTPRequested,
		IsInsuranceRequested:        in.InsuranceRequested,
		GetCostBreakdown:            true,
		ShipmentPurpose:             in.Purpose,
		TransportationMode:          "air",
		MerchantSelectedCarrierName: "DHL",
	}
	req.CustomerDetails.ShipperDetails = lcParty{
		PostalCode:  in.Shipper.PostalCode,
		CityName:    in.Shipper.City,
		CountryCode: in.Shipper.Country,
	}
	req.CustomerDetails.ReceiverDetails = lcParty{
		PostalCode:  in.Receiver.PostalCode,
		CityName:    in.Receiver.City,
		CountryCode: in.Receiver.Country,
	}
	for _, p := range in.Packages {
		req.Packages = append(req.Packages, lcPackage{
			Weight: p.Weight.InexactFloat64(),
			Dimensions: lcDimensions{
				Length: p.Length.InexactFloat64(),
				Width:  p.Width.InexactFloat64(),
				Height: p.Height.InexactFloat64(),
			},
		})
	}
	for i, it := range in.Items {
		req.Items = append(req.Items, lcItem{
			Number:                  i + 1,
			Name:                    it.Name,
			Description:             it.Description,
			ManufacturerCountry:     it.ManufacturerCountry,
			PartNumber:              it.PartNumber,
			Quantity:                it.Quantity,
			QuantityType:            "prt",
			UnitPrice:               it.UnitPrice.InexactFloat64(),
			UnitPriceCurrency:       in.Currency,
			CustomsValue:            it.CustomsValue.InexactFloat64(),
			CustomsValueCurrency:    in.Currency,
			CommodityCode:           it.CommodityCode,
			Weight:                  it.Weight.InexactFloat64(),
			WeightUnit:              "kg",
			Category:                it.Category,
			EstimatedTariffRateType: it.TariffRateType,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return &transport.Request{
		URL:    c.cfg.BaseURL + landedCostPath,
		Method: "POST",
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		Body:       body,
		Idempotent: true,
		Operation:  "landed_cost",
	}, nil
}

// ============================================================================
// Response parsing
// ============================================================================

// ParsedCharge is one breakdown line, in upstream order.
type ParsedCharge struct {
	Name     string
	Amount   decimal.Decimal
	Currency string
	TypeCode string
}

// ParsedLandedCost is the normalized estimate.
type ParsedLandedCost struct {
	ProductCode       string
	TotalAmount       decimal.Decimal
	Currency          string
	Charges           []ParsedCharge
	VolumetricWeight  decimal.Decimal
	ProvidedWeight    decimal.Decimal
	EstimatedPickup   *time.Time
	EstimatedDelivery *time.Time
	Warnings          []string
}

type lcResponse struct {
	Status   int      `json:"status"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings"`
	Products []struct {
		ProductCode string `json:"productCode"`
		TotalPrice  []struct {
			CurrencyType  string  `json:"currencyType"`
			PriceCurrency string  `json:"priceCurrency"`
			Price         float64 `json:"price"`
		} `json:"totalPrice"`
		DetailedPriceBreakdown []struct {
			CurrencyType  string `json:"currencyType"`
			PriceCurrency string `json:"priceCurrency"`
			Breakdown     []struct {
				Name     string  `json:"name"`
				TypeCode string  `json:"typeCode"`
				Price    float64 `json:"price"`
			} `json:"breakdown"`
		} `json:"detailedPriceBreakdown"`
		Weight struct {
			Volumetric float64 `json:"volumetric"`
			Provided   float64 `json:"provided"`
		} `json:"weight"`
		PickupCapabilities struct {
			EstimatedPickupDateAndTime string `json:"estimatedPickupDateAndTime"`
		} `json:"pickupCapabilities"`
		DeliveryCapabilities struct {
			EstimatedDeliveryDateAndTime string `json:"estimatedDeliveryDateAndTime"`
		} `json:"deliveryCapabilities"`
	} `json:"products"`
}

// ParseLandedCost extracts the first priced product. The billing
// currency block (BILLC) wins when several currency views come back.
func ParseLandedCost(body []byte) (*ParsedLandedCost, error) {
	var resp lcResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Reason: "malformed landed cost response", Raw: body, Cause: err}
	}
	if resp.Status >= 400 {
		detail := resp.Detail
		if detail == "" {
			detail = resp.Message
		}
		return nil, &APIError{Status: resp.Status, Title: resp.Title, Detail: detail}
	}
	if len(resp.Products) == 0 {
		return nil, &ParseError{Reason: "no products in landed cost response", Raw: body}
	}

	product := resp.Products[0]
	out := &ParsedLandedCost{
		ProductCode:      product.ProductCode,
		VolumetricWeight: decimal.NewFromFloat(product.Weight.Volumetric),
		ProvidedWeight:   decimal.NewFromFloat(product.Weight.Provided),
		Warnings:         resp.Warnings,
	}

	for _, tp := range product.TotalPrice {
		if out.Currency == "" || tp.CurrencyType == "BILLC" {
			out.TotalAmount = decimal.NewFromFloat(tp.Price)
			out.Currency = tp.PriceCurrency
		}
		if tp.CurrencyType == "BILLC" {
			break
		}
	}

	for _, block := range product.DetailedPriceBreakdown {
		if block.CurrencyType != "BILLC" && len(product.DetailedPriceBreakdown) > 1 {
			continue
		}
		for _, line := range block.Breakdown {
			out.Charges = append(out.Charges, ParsedCharge{
				Name:     line.Name,
				TypeCode: line.TypeCode,
				Amount:   decimal.NewFromFloat(line.Price),
				Currency: block.PriceCurrency,
			})
		}
		break
	}

	if s := product.PickupCapabilities.EstimatedPickupDateAndTime; s != "" {
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			out.EstimatedPickup = &t
		}
	}
	if s := product.DeliveryCapabilities.EstimatedDeliveryDateAndTime; s != "" {
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			out.EstimatedDelivery = &t
		}
	}
	return out, nil
}
