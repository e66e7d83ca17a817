package core

import "testing"

func obs(prices ...int64) []PriceObservation {
	out := make([]PriceObservation, len(prices))
	for i, p := range prices {
		out[i] = PriceObservation{Price: Money{Cents: p}}
	}
	return out
}

func TestComputeTrend(t *testing.T) {
	cases := []struct {
		name    string
		history []PriceObservation
		want    Trend
	}{
		{"up 20 percent", obs(1000, 1200), Trend{VariationPercent: 20, IsUp: true, Defined: true}},
		{"flat is not up", obs(1000, 1000), Trend{VariationPercent: 0, IsUp: false, Defined: true}},
		{"down", obs(1000, 900), Trend{VariationPercent: -10, IsUp: false, Defined: true}},
		{"single observation undefined", obs(1000), Trend{}},
		{"empty undefined", nil, Trend{}},
		{"zero first price undefined", obs(0, 500), Trend{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTrend(tc.history)
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestComputeTrendUsesEndpointsOnly(t *testing.T) {
	// Intermediate spikes must not influence the variation.
	got := ComputeTrend(obs(1000, 5000, 100, 1100))
	if !got.Defined || got.VariationPercent != 10 || !got.IsUp {
		t.Fatalf("unexpected trend: %+v", got)
	}
}
