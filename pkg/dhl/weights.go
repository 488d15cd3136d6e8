package dhl

import (
	"github.com/shopspring/decimal"
)

// WeightCandidates are all chargeable-weight candidates, each rounded
// to 2 decimals HALF_UP.
type WeightCandidates struct {
	// Base is the top-level weight supplied by the caller.
	Base decimal.Decimal
	// TotalInput is the optional caller-supplied total.
	TotalInput decimal.Decimal
	// SumPieces sums each piece's selected weight (actual over declared).
	SumPieces decimal.Decimal
	// SumDeclared sums declared weights only.
	SumDeclared decimal.Decimal
	// SumActual sums actual weights, with declared as fallback.
	SumActual decimal.Decimal
	// SumVolumetricSumThenRound sums exact per-piece volumetrics and
	// rounds once at the end.
	SumVolumetricSumThenRound decimal.Decimal
	// SumVolumetricRoundThenSum rounds each piece volumetric first,
	// matching DHL's own line-by-line SOAP aggregation.
	SumVolumetricRoundThenSum decimal.Decimal
	// MaxPiece is the heaviest selected piece weight.
	MaxPiece decimal.Decimal
	// MaxPieceVolumetric is the largest rounded piece volumetric.
	MaxPieceVolumetric decimal.Decimal
}

// WeightsSummary collapses tracking-derived weights into the three
// sums callers audit, plus the value that would drive a quote.
type WeightsSummary struct {
	Declared        decimal.Decimal
	Actual          decimal.Decimal
	Volumetric      decimal.Decimal
	SumPieces       decimal.Decimal
	MaxPiece        decimal.Decimal
	HighestForQuote decimal.Decimal
}

// WeightSelection is the full audit trail of the chargeable-weight
// decision: every candidate, the selected value, and the gate state
// for tracking-derived quotes.
type WeightSelection struct {
	Candidates      WeightCandidates
	EffectiveWeight decimal.Decimal
	// NeedsAccountForQuote is set when the weights came from tracking
	// and the carrier never reported a volumetric weight. Quoting then
	// requires an account instead of the derived weight.
	NeedsAccountForQuote bool
}

// SelectWeight computes every candidate and the effective quote
// weight: max(base, total_input, sum_pieces,
// sum_volumetric_round_then_sum, max_piece). The effective value is
// what the rate envelope must carry.
func SelectWeight(base decimal.Decimal, totalInput *decimal.Decimal, pieces []Piece, fromTracking bool) WeightSelection {
	var (
		sumSelected decimal.Decimal
		sumDeclared decimal.Decimal
		sumActual   decimal.Decimal
		sumVolExact decimal.Decimal
		sumVolRound decimal.Decimal
		maxSelected decimal.Decimal
		maxVolRound decimal.Decimal
		carrierVol  bool
	)

	for _, p := range pieces {
		selected := p.SelectedWeight()
		sumSelected = sumSelected.Add(selected)
		sumDeclared = sumDeclared.Add(p.DeclaredWeight)
		if p.ActualWeight != nil {
			sumActual = sumActual.Add(*p.ActualWeight)
		} else {
			sumActual = sumActual.Add(p.DeclaredWeight)
		}

		vol := p.volumetric()
		sumVolExact = sumVolExact.Add(vol)
		rounded := Round2(vol)
		sumVolRound = sumVolRound.Add(rounded)

		if selected.GreaterThan(maxSelected) {
			maxSelected = selected
		}
		if rounded.GreaterThan(maxVolRound) {
			maxVolRound = rounded
		}
		if p.hasCarrierVolumetric() || (p.Dimensions != nil && p.Dimensions.Positive()) {
			carrierVol = true
		}
	}

	total := decimal.Zero
	if totalInput != nil {
		total = *totalInput
	}

	c := WeightCandidates{
		Base:                      Round2(base),
		TotalInput:                Round2(total),
		SumPieces:                 Round2(sumSelected),
		SumDeclared:               Round2(sumDeclared),
		SumActual:                 Round2(sumActual),
		SumVolumetricSumThenRound: Round2(sumVolExact),
		SumVolumetricRoundThenSum: Round2(sumVolRound),
		MaxPiece:                  Round2(maxSelected),
		MaxPieceVolumetric:        maxVolRound,
	}

	return WeightSelection{
		Candidates: c,
		EffectiveWeight: maxDecimal(
			c.Base,
			c.TotalInput,
			c.SumPieces,
			c.SumVolumetricRoundThenSum,
			c.MaxPiece,
		),
		NeedsAccountForQuote: fromTracking && !carrierVol,
	}
}

// SummarizeTrackingWeights reduces tracked pieces to the declared /
// actual / volumetric sums plus the highest value a derived quote
// would use. Volumetric here means carrier-reported only; the sum is
// rounded per piece first, matching DHL's aggregation.
func SummarizeTrackingWeights(pieces []TrackingPiece) *WeightsSummary {
	var (
		declared  decimal.Decimal
		actual    decimal.Decimal
		volume    decimal.Decimal
		selected  decimal.Decimal
		maxPiece  decimal.Decimal
	)
	for _, p := range pieces {
		declared = declared.Add(p.DeclaredWeight)
		sel := p.DeclaredWeight
		if p.ActualWeight != nil {
			actual = actual.Add(*p.ActualWeight)
			sel = *p.ActualWeight
		} else {
			actual = actual.Add(p.DeclaredWeight)
		}
		if p.VolumetricWeight != nil {
			volume = volume.Add(Round2(*p.VolumetricWeight))
		}
		selected = selected.Add(sel)
		if sel.GreaterThan(maxPiece) {
			maxPiece = sel
		}
	}

	s := &WeightsSummary{
		Declared:   Round2(declared),
		Actual:     Round2(actual),
		Volumetric: Round2(volume),
		SumPieces:  Round2(selected),
		MaxPiece:   Round2(maxPiece),
	}
	s.HighestForQuote = maxDecimal(s.Declared, s.Actual, s.Volumetric, s.SumPieces, s.MaxPiece)
	return s
}

// trackingPiecesToPieces adapts carrier-reported pieces for the weight
// engine when a rate is derived from a tracking lookup.
func trackingPiecesToPieces(in []TrackingPiece) []Piece {
	out := make([]Piece, 0, len(in))
	for _, tp := range in {
		out = append(out, Piece{
			ID:                tp.PieceID,
			DeclaredWeight:    tp.DeclaredWeight,
			ActualWeight:      tp.ActualWeight,
			DimensionalWeight: tp.VolumetricWeight,
			WeightUnit:        tp.WeightUnit,
		})
	}
	return out
}
