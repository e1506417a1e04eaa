package domain

import (
	"math"
	"testing"
)

func TestNormalizeRescalesToUnitSum(t *testing.T) {
	t.Parallel()

	w := ModelWeights{TimeWeight: 2, GeoWeight: 1, SentimentWeight: 1}
	w.Normalize()

	sum := w.TimeWeight + w.GeoWeight + w.SentimentWeight
	if !almostEqual(sum, 1.0) {
		t.Fatalf("weights must sum to 1, got %v", sum)
	}
	if !almostEqual(w.TimeWeight, 0.5) {
		t.Fatalf("expected time weight 0.5, got %v", w.TimeWeight)
	}
}

func TestNormalizeResetsDegenerateWeights(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		w    ModelWeights
	}{
		{"all zero", ModelWeights{}},
		{"negative", ModelWeights{TimeWeight: -1, GeoWeight: -2, SentimentWeight: -3}},
		{"nan", ModelWeights{TimeWeight: math.NaN(), GeoWeight: math.NaN(), SentimentWeight: math.NaN()}},
	}
	defaults := DefaultWeights()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			w := tc.w
			w.Normalize()
			if !almostEqual(w.TimeWeight, defaults.TimeWeight) ||
				!almostEqual(w.GeoWeight, defaults.GeoWeight) ||
				!almostEqual(w.SentimentWeight, defaults.SentimentWeight) {
				t.Fatalf("degenerate weights must reset to defaults, got %+v", w)
			}
		})
	}
}

func TestNormalizeGuaranteesDefaultLambda(t *testing.T) {
	t.Parallel()

	w := ModelWeights{TimeWeight: 0.5, GeoWeight: 0.3, SentimentWeight: 0.2}
	w.Normalize()
	if w.Lambda[DefaultLambdaKey] <= 0 {
		t.Fatalf("normalize must install a default lambda, got %v", w.Lambda)
	}
}

func TestLambdaForFallsBackToDefault(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	if got := w.LambdaFor("tiktok"); got != 0.2 {
		t.Fatalf("expected tiktok lambda 0.2, got %v", got)
	}
	if got := w.LambdaFor("myspace"); got != w.Lambda[DefaultLambdaKey] {
		t.Fatalf("unknown platform must use the default lambda, got %v", got)
	}
}

func TestCloneIsolatesLambdaMap(t *testing.T) {
	t.Parallel()

	original := DefaultWeights()
	clone := original.Clone()
	clone.Lambda["twitter"] = 99

	if original.Lambda["twitter"] == 99 {
		t.Fatalf("clone must not share the lambda map")
	}
}

func TestSampleFeaturesAndLabel(t *testing.T) {
	t.Parallel()

	sample := GroundTruthSample{
		TimeDeltaMinutes: 120,
		GeoScore:         1.5,
		SentimentScore:   -0.2,
		DidConvert:       true,
	}
	timeScore, geoScore, sentimentScore := sample.Features(0.5)
	if !almostEqual(timeScore, math.Exp(-1)) {
		t.Fatalf("expected e^-1 time decay at 2h with lambda 0.5, got %v", timeScore)
	}
	if geoScore != 1.0 || sentimentScore != 0.0 {
		t.Fatalf("feature scores must clamp to [0,1], got geo=%v sentiment=%v", geoScore, sentimentScore)
	}
	if sample.Label() != 1.0 {
		t.Fatalf("converted sample labels as 1.0")
	}
}

func TestPredictScoreClamps(t *testing.T) {
	t.Parallel()

	w := ModelWeights{TimeWeight: 2, GeoWeight: 2, SentimentWeight: 2}
	if got := PredictScore(w, 1, 1, 1); got != 1.0 {
		t.Fatalf("prediction must clamp to 1.0, got %v", got)
	}
}
