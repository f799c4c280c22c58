package engine

import (
	"math"
	"strings"

	"github.com/user/phishguard/pkg/parser"
)

// Scanner is the contract every deterministic sub-scanner fulfils. A false
// ok marks the scanner's pass as failed; the extractor skips its output and
// carries on, so degradation happens in exactly one place.
type Scanner interface {
	Name() string
	Scan(meta *parser.Email, body string) ([]Indicator, bool)
}

// ReputationFunc estimates sender-domain reputation in [0,1]; false when no
// domain is available.
type ReputationFunc func(sender string) (float64, bool)

// Per-kind weights applied to indicator penalties.
var kindWeights = map[IndicatorKind]float64{
	KindURL:        1.0,
	KindEmail:      0.8,
	KindAttachment: 1.2,
	KindContent:    0.7,
	KindHeader:     0.5,
}

const neutralScore = 50.0

// Extractor runs the rule-based scanners and aggregates their findings into
// a deterministic score. It never fails: any internal fault degrades to the
// neutral score with no indicators.
type Extractor struct {
	scanners   []Scanner
	reputation ReputationFunc
}

// NewExtractor wires the scanner set and the reputation source.
func NewExtractor(reputation ReputationFunc, scanners ...Scanner) *Extractor {
	return &Extractor{scanners: scanners, reputation: reputation}
}

// Extract produces the deterministic score and the ordered indicator list
// for one email.
func (e *Extractor) Extract(meta *parser.Email, body string) (det DeterministicScore, indicators []Indicator) {
	defer func() {
		if r := recover(); r != nil {
			det = DeterministicScore{
				SPF:             AuthUnknown,
				DKIM:            AuthUnknown,
				DMARC:           AuthUnknown,
				IndicatorCounts: map[IndicatorKind]int{},
				Score:           neutralScore,
			}
			indicators = nil
		}
	}()

	spf := parseSPF(meta.ReceivedSPF)
	dkim := parseAuthResult(meta.AuthResults, "dkim", true)
	dmarc := parseAuthResult(meta.AuthResults, "dmarc", false)

	var reputation *float64
	if e.reputation != nil && meta.Sender != "" {
		if rep, ok := e.reputation(meta.Sender); ok {
			reputation = &rep
		}
	}

	counts := map[IndicatorKind]int{}
	for _, s := range e.scanners {
		found, ok := s.Scan(meta, body)
		if !ok {
			continue
		}
		for _, ind := range found {
			ind.Confidence = clamp(ind.Confidence, 0, 1)
			indicators = append(indicators, ind)
			counts[ind.Kind]++
		}
	}

	det = DeterministicScore{
		SPF:              spf,
		DKIM:             dkim,
		DMARC:            dmarc,
		SenderReputation: reputation,
		IndicatorCounts:  counts,
		Score:            deterministicScore(spf, dkim, dmarc, reputation, indicators),
	}
	return det, indicators
}

// deterministicScore implements the fixed blend: neutral baseline, an
// authentication term over the non-unknown checks (weight 30), a reputation
// term (weight 20), and an indicator penalty capped at 40.
func deterministicScore(spf, dkim, dmarc AuthOutcome, reputation *float64, indicators []Indicator) float64 {
	score := neutralScore

	checks, penalties := 0, 0
	for _, outcome := range []AuthOutcome{spf, dkim, dmarc} {
		if outcome == AuthUnknown {
			continue
		}
		checks++
		if outcome == AuthFail {
			penalties++
		}
	}
	if checks > 0 {
		authScore := float64(checks-penalties) / float64(checks)
		score += (authScore - 0.5) * 30.0
	}

	if reputation != nil {
		score += (*reputation - 0.5) * 20.0
	}

	if len(indicators) > 0 {
		penalty := 0.0
		for _, ind := range indicators {
			weight, ok := kindWeights[ind.Kind]
			if !ok {
				weight = 0.7
			}
			penalty += ind.Confidence * weight * 10.0
		}
		if penalty > 40.0 {
			penalty = 40.0
		}
		score += penalty
	}

	return round1(clamp(score, 0, 100))
}

// parseSPF maps a Received-SPF header onto the tri-state outcome. Neutral
// and unparseable results stay unknown.
func parseSPF(header string) AuthOutcome {
	if header == "" {
		return AuthUnknown
	}
	lower := strings.ToLower(header)
	if strings.Contains(lower, "pass") {
		return AuthPass
	}
	for _, word := range []string{"fail", "softfail", "hardfail"} {
		if strings.Contains(lower, word) {
			return AuthFail
		}
	}
	return AuthUnknown
}

// parseAuthResult scans an Authentication-Results header for one mechanism.
// When noneIsFail is set, mechanism=none counts as a failure (DKIM).
func parseAuthResult(header, mechanism string, noneIsFail bool) AuthOutcome {
	if header == "" {
		return AuthUnknown
	}
	lower := strings.ToLower(header)
	if strings.Contains(lower, mechanism+"=pass") {
		return AuthPass
	}
	if strings.Contains(lower, mechanism+"=fail") {
		return AuthFail
	}
	if noneIsFail && strings.Contains(lower, mechanism+"=none") {
		return AuthFail
	}
	return AuthUnknown
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
