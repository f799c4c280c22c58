package engine

import (
	"fmt"
	"math"
	"strings"
)

// FusionConfig holds the scoring weights and classification thresholds.
// It is threaded explicitly into the fusion engine at construction; nothing
// reads ambient configuration.
type FusionConfig struct {
	DeterministicWeight float64
	SemanticWeight      float64
	HighThreshold       float64
	MediumThreshold     float64
	// Business-hours window (UTC hours) for the contextual submission-time
	// rule.
	BusinessHoursStart int
	BusinessHoursEnd   int
}

// DefaultFusionConfig returns the calibrated defaults.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		DeterministicWeight: 0.6,
		SemanticWeight:      0.4,
		HighThreshold:       70.0,
		MediumThreshold:     40.0,
		BusinessHoursStart:  6,
		BusinessHoursEnd:    22,
	}
}

// FusionResult is the outcome of blending both score sources.
type FusionResult struct {
	Score      float64
	Level      RiskLevel
	IsPhishing bool
	// Semantic is the score the assessment should carry: a copy of the
	// input with any contextual adjustment noted in its reasoning. The
	// caller's original value stays untouched for audit.
	Semantic SemanticScore
}

// Fusion blends the deterministic and semantic scores into the final risk
// classification.
type Fusion struct {
	cfg FusionConfig
}

func NewFusion(cfg FusionConfig) *Fusion {
	return &Fusion{cfg: cfg}
}

// Fuse combines both scores, applies confidence reweighting and optional
// contextual adjustments, and classifies the result. Malformed semantic
// input degrades to classification on the deterministic score alone; the
// deterministic path is the trust anchor.
func (f *Fusion) Fuse(det DeterministicScore, sem SemanticScore, actx *AnalysisContext, body string) FusionResult {
	if !validScore(sem.Likelihood, 0, 100) || !validScore(sem.Confidence, 0, 1) {
		level, phishing := f.classify(det.Score)
		return FusionResult{Score: det.Score, Level: level, IsPhishing: phishing, Semantic: sem}
	}

	wd := f.cfg.DeterministicWeight
	wg := f.cfg.SemanticWeight
	if sem.Confidence < 0.5 {
		// Low model confidence: lean harder on the deterministic side.
		wd = math.Min(0.8, f.cfg.DeterministicWeight+0.2)
		wg = 1.0 - wd
	}
	score := det.Score*wd + sem.Likelihood*wg

	adjusted := sem
	if actx != nil {
		delta, notes := f.contextAdjustments(actx, body)
		if delta != 0 {
			before := score
			score += delta
			adjusted.Reasoning = fmt.Sprintf("%s (Score adjusted from %.1f to %.1f: %s)",
				sem.Reasoning, round1(before), round1(clamp(score, 0, 100)), strings.Join(notes, "; "))
		}
	}

	score = round1(clamp(score, 0, 100))
	level, phishing := f.classify(score)
	return FusionResult{Score: score, Level: level, IsPhishing: phishing, Semantic: adjusted}
}

// contextAdjustments returns the additive point delta for the caller
// context. The submission time comes from the context, never the wall
// clock, so the rule stays reproducible.
func (f *Fusion) contextAdjustments(actx *AnalysisContext, body string) (float64, []string) {
	var delta float64
	var notes []string
	lowerBody := strings.ToLower(body)

	if actx.Institution != "" && strings.Contains(lowerBody, strings.ToLower(actx.Institution)) {
		delta += 5.0
		notes = append(notes, "email references the user's institution (potential targeted attack)")
	}

	if actx.SubmittedAt != nil {
		hour := actx.SubmittedAt.UTC().Hour()
		if hour < f.cfg.BusinessHoursStart || hour > f.cfg.BusinessHoursEnd {
			delta += 3.0
			notes = append(notes, "received outside business hours")
		}
	}

	if actx.AccountType == "business" && strings.Contains(lowerBody, "personal") {
		delta += 5.0
		notes = append(notes, "business account receiving personal banking content")
	}

	return delta, notes
}

// classify maps a final score onto a risk level. Medium is deliberately not
// flagged as phishing, matching the service's review-queue policy: only
// high and critical trigger the phishing verdict.
func (f *Fusion) classify(score float64) (RiskLevel, bool) {
	switch {
	case score >= 90.0:
		return RiskCritical, true
	case score >= f.cfg.HighThreshold:
		return RiskHigh, true
	case score >= f.cfg.MediumThreshold:
		return RiskMedium, false
	default:
		return RiskLow, false
	}
}

func validScore(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}
