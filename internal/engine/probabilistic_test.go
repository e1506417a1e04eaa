package engine

import (
	"math"
	"testing"

	"github.com/viralforge/attribution-engine/internal/domain"
)

func TestGeoOverlapScoreAmplifiesAndSaturates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		fraction float64
		want     float64
	}{
		{"no overlap", 0, 0},
		{"negative input", -0.5, 0},
		{"ten percent", 0.10, 0.5},
		{"saturation point", 0.20, 1.0},
		{"beyond saturation", 0.80, 1.0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := GeoOverlapScore(tc.fraction); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("fraction %v: expected %v, got %v", tc.fraction, tc.want, got)
			}
		})
	}
}

func TestCandidateScoreCombinesFeatures(t *testing.T) {
	t.Parallel()

	w := domain.ModelWeights{
		TimeWeight:      0.5,
		GeoWeight:       0.2,
		SentimentWeight: 0.3,
		Lambda:          map[string]float64{domain.DefaultLambdaKey: 0.1, "twitter": 0.5},
	}

	// 0.5·e^(−0.5·2) + 0.2·0.5 + 0 ≈ 0.2839
	got := CandidateScore(w, "twitter", 2, 0.5, 0)
	want := 0.5*math.Exp(-1) + 0.1
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCandidateScoreUsesDefaultLambdaForUnknownPlatform(t *testing.T) {
	t.Parallel()

	w := domain.DefaultWeights()
	got := CandidateScore(w, "myspace", 10, 0, 0)
	want := w.TimeWeight * math.Exp(-w.Lambda[domain.DefaultLambdaKey]*10)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected default-lambda decay %v, got %v", want, got)
	}
}

func TestCandidateScoreClockSkewTreatedAsZeroHours(t *testing.T) {
	t.Parallel()

	w := domain.DefaultWeights()
	if got, fresh := CandidateScore(w, "twitter", -3, 0, 0), CandidateScore(w, "twitter", 0, 0, 0); got != fresh {
		t.Fatalf("negative elapsed must score like zero hours: %v vs %v", got, fresh)
	}
}

func TestCandidateScoreClamped(t *testing.T) {
	t.Parallel()

	w := domain.ModelWeights{
		TimeWeight:      2,
		GeoWeight:       2,
		SentimentWeight: 2,
		Lambda:          map[string]float64{domain.DefaultLambdaKey: 0.1},
	}
	if got := CandidateScore(w, "twitter", 0, 1, 1); got != 1.0 {
		t.Fatalf("score must clamp to 1.0, got %v", got)
	}
}
