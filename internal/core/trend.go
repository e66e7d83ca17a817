package core

// Trend is the price-variation summary over a history of observations.
type Trend struct {
	// VariationPercent is the percentage change between the first and the
	// last observation. Only meaningful when Defined is true.
	VariationPercent float64
	// IsUp is true only for a strictly positive variation; an exactly flat
	// history counts as not-up.
	IsUp bool
	// Defined is false when the history has fewer than two observations or
	// the first price is zero, in which case no variation is displayable.
	Defined bool
}

// ComputeTrend derives the variation between the first and last price of an
// already chronological history. It never divides by zero: callers get
// Defined=false instead of a NaN that would leak into a rendered value.
func ComputeTrend(history []PriceObservation) Trend {
	if len(history) < 2 {
		return Trend{}
	}
	first := history[0].Price.Cents
	last := history[len(history)-1].Price.Cents
	if first == 0 {
		return Trend{}
	}
	variation := float64(last-first) / float64(first) * 100
	return Trend{
		VariationPercent: variation,
		IsUp:             variation > 0,
		Defined:          true,
	}
}
