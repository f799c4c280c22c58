package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func det(score float64) DeterministicScore {
	return DeterministicScore{
		SPF:             AuthUnknown,
		DKIM:            AuthUnknown,
		DMARC:           AuthUnknown,
		IndicatorCounts: map[IndicatorKind]int{},
		Score:           score,
	}
}

func sem(likelihood, confidence float64) SemanticScore {
	return SemanticScore{
		Likelihood: likelihood,
		Reasoning:  "model reasoning",
		Confidence: confidence,
	}
}

func TestFuseConfidentSemanticPullsScoreDown(t *testing.T) {
	// Strong deterministic signal, confident low semantic: 0.6*80 + 0.4*20.
	f := NewFusion(DefaultFusionConfig())
	result := f.Fuse(det(80.0), sem(20.0, 0.9), nil, "")

	if result.Score != 56.0 {
		t.Errorf("score = %.1f, want 56.0", result.Score)
	}
	if result.Level != RiskMedium {
		t.Errorf("level = %s, want medium", result.Level)
	}
	if result.IsPhishing {
		t.Errorf("medium must not be flagged as phishing")
	}
}

func TestFuseLowConfidenceReweights(t *testing.T) {
	// Confidence below 0.5 shifts weight to the deterministic side:
	// 0.8*80 + 0.2*95 = 83.
	f := NewFusion(DefaultFusionConfig())
	result := f.Fuse(det(80.0), sem(95.0, 0.3), nil, "")

	if result.Score != 83.0 {
		t.Errorf("score = %.1f, want 83.0", result.Score)
	}
	if result.Level != RiskHigh {
		t.Errorf("level = %s, want high", result.Level)
	}
	if !result.IsPhishing {
		t.Errorf("high must be flagged as phishing")
	}
}

func TestClassifyBoundaries(t *testing.T) {
	f := NewFusion(DefaultFusionConfig())
	cases := []struct {
		score    float64
		level    RiskLevel
		phishing bool
	}{
		{0.0, RiskLow, false},
		{39.9, RiskLow, false},
		{40.0, RiskMedium, false},
		{69.9, RiskMedium, false},
		{70.0, RiskHigh, true},
		{89.9, RiskHigh, true},
		{90.0, RiskCritical, true},
		{100.0, RiskCritical, true},
	}
	for _, tc := range cases {
		level, phishing := f.classify(tc.score)
		if level != tc.level || phishing != tc.phishing {
			t.Errorf("classify(%.1f) = %s/%v, want %s/%v", tc.score, level, phishing, tc.level, tc.phishing)
		}
	}
}

func TestFuseMalformedSemanticDegrades(t *testing.T) {
	f := NewFusion(DefaultFusionConfig())
	cases := []SemanticScore{
		{Likelihood: math.NaN(), Confidence: 0.9},
		{Likelihood: 150.0, Confidence: 0.9},
		{Likelihood: -5.0, Confidence: 0.9},
		{Likelihood: 50.0, Confidence: 1.5},
		{Likelihood: 50.0, Confidence: math.Inf(1)},
	}
	for i, bad := range cases {
		result := f.Fuse(det(80.0), bad, nil, "")
		if result.Score != 80.0 {
			t.Errorf("case %d: score = %.1f, want deterministic 80.0", i, result.Score)
		}
		if result.Level != RiskHigh || !result.IsPhishing {
			t.Errorf("case %d: level = %s/%v, want high/true", i, result.Level, result.IsPhishing)
		}
	}
}

func TestFuseContextAdjustments(t *testing.T) {
	f := NewFusion(DefaultFusionConfig())
	lateNight := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)

	cases := []struct {
		name  string
		actx  *AnalysisContext
		body  string
		score float64
	}{
		{"no context", nil, "please verify your account", 50.0},
		{"institution match", &AnalysisContext{Institution: "Chase"}, "urgent chase alert", 55.0},
		{"outside business hours", &AnalysisContext{SubmittedAt: &lateNight}, "hello", 53.0},
		{"business account personal content", &AnalysisContext{AccountType: "business"}, "your personal account", 55.0},
		{"all three", &AnalysisContext{Institution: "Chase", AccountType: "business", SubmittedAt: &lateNight}, "chase personal banking", 63.0},
	}
	for _, tc := range cases {
		result := f.Fuse(det(50.0), sem(50.0, 0.9), tc.actx, tc.body)
		if result.Score != tc.score {
			t.Errorf("%s: score = %.1f, want %.1f", tc.name, result.Score, tc.score)
		}
	}
}

func TestFuseAdjustmentNotedInReasoningCopy(t *testing.T) {
	f := NewFusion(DefaultFusionConfig())
	input := sem(50.0, 0.9)
	actx := &AnalysisContext{Institution: "Chase"}

	result := f.Fuse(det(50.0), input, actx, "a chase notification")

	if !strings.Contains(result.Semantic.Reasoning, "Score adjusted from 50.0 to 55.0") {
		t.Errorf("adjustment not recorded in reasoning: %q", result.Semantic.Reasoning)
	}
	// The caller's value must stay untouched.
	if input.Reasoning != "model reasoning" {
		t.Errorf("input semantic score was mutated: %q", input.Reasoning)
	}
}

func TestFuseDeterministic(t *testing.T) {
	f := NewFusion(DefaultFusionConfig())
	submitted := time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)
	actx := &AnalysisContext{Institution: "Wells Fargo", AccountType: "business", SubmittedAt: &submitted}

	first := f.Fuse(det(72.5), sem(61.0, 0.4), actx, "wells fargo personal account notice")
	second := f.Fuse(det(72.5), sem(61.0, 0.4), actx, "wells fargo personal account notice")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical inputs produced different results (-first +second):\n%s", diff)
	}
}
