package domain

import "time"

// MatchedSignals records which identity signals agreed between a click and
// a sale, independent of which tier produced the click.
type MatchedSignals struct {
	IP          bool
	Tracker     bool
	Fingerprint bool
	Geo         bool
}

// Count returns how many distinct signal types matched.
func (m MatchedSignals) Count() int {
	n := 0
	for _, b := range []bool{m.IP, m.Tracker, m.Fingerprint, m.Geo} {
		if b {
			n++
		}
	}
	return n
}

// Names lists matched signal names in strength order, for match metadata.
func (m MatchedSignals) Names() []string {
	out := make([]string, 0, 4)
	if m.IP {
		out = append(out, MatchTypeIP)
	}
	if m.Tracker {
		out = append(out, MatchTypeTracker)
	}
	if m.Fingerprint {
		out = append(out, MatchTypeFingerprint)
	}
	if m.Geo {
		out = append(out, MatchTypeGeo)
	}
	return out
}

// StrongestMatchType returns the label of the strongest matched signal,
// priority ip > tracker > fingerprint > geo > none.
func (m MatchedSignals) StrongestMatchType() string {
	switch {
	case m.IP:
		return MatchTypeIP
	case m.Tracker:
		return MatchTypeTracker
	case m.Fingerprint:
		return MatchTypeFingerprint
	case m.Geo:
		return MatchTypeGeo
	default:
		return MatchTypeNone
	}
}

// ScoreConfidence converts matched signals plus click->sale elapsed time into
// a 0..1 confidence. Pure and deterministic: no clock, no I/O.
//
// Contributions are additive. An IP match allows full certainty; without IP
// the result is capped at 0.95 because every other signal leaves residual
// doubt about whether the same person clicked and bought.
func ScoreConfidence(signals MatchedSignals, elapsed time.Duration) float64 {
	score := 0.0
	if signals.IP {
		score += 0.50
	}
	if signals.Tracker {
		score += 0.35
	}
	if signals.Fingerprint {
		score += 0.25
	}
	if signals.Geo {
		score += 0.15
	}

	switch {
	case elapsed >= 0 && elapsed <= time.Hour:
		score += 0.10
	case elapsed > time.Hour && elapsed <= 4*time.Hour:
		score += 0.05
	}

	switch {
	case signals.Count() >= 3:
		score += 0.10
	case signals.Count() == 2:
		score += 0.05
	}

	ceiling := 0.95
	if signals.IP {
		ceiling = 1.00
	}
	if score > ceiling {
		score = ceiling
	}
	if score < 0 {
		score = 0
	}
	return score
}
