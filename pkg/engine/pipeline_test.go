package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/user/phishguard/pkg/parser"
)

func TestAnalyzeRequiresRawEmail(t *testing.T) {
	analyzer := newTestAnalyzer(nil)

	_, err := analyzer.Analyze(context.Background(), EmailInput{})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if verr.Field != "raw_email" {
		t.Errorf("field = %q, want raw_email", verr.Field)
	}
}

func TestAnalyzeAssemblesAssessment(t *testing.T) {
	analyzer := newTestAnalyzer(stubClassifier{fn: func(summary EmailSummary) (SemanticScore, error) {
		return sem(60.0, 0.9), nil
	}})

	a, err := analyzer.Analyze(context.Background(), EmailInput{
		RawEmail: rawEmail("alerts@example.com", "Account notice", "please review your account"),
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if a.ID == "" {
		t.Errorf("assessment id missing")
	}
	if a.Version != EngineVersion {
		t.Errorf("version = %q, want %q", a.Version, EngineVersion)
	}
	if a.Timestamp.IsZero() {
		t.Errorf("timestamp missing")
	}
	if a.Metadata.Sender != "alerts@example.com" {
		t.Errorf("sender = %q", a.Metadata.Sender)
	}
	if !strings.Contains(a.CleanText, "please review your account") {
		t.Errorf("clean text = %q", a.CleanText)
	}
	// 0.6*50 + 0.4*60 = 54
	if a.Score != 54.0 {
		t.Errorf("score = %.1f, want 54.0", a.Score)
	}
}

func TestAnalyzeInputOverrides(t *testing.T) {
	analyzer := newTestAnalyzer(nil)

	a, err := analyzer.Analyze(context.Background(), EmailInput{
		RawEmail:    rawEmail("original@example.com", "original", "body"),
		SenderEmail: "override@example.com",
		Subject:     "overridden subject",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if a.Metadata.Sender != "override@example.com" {
		t.Errorf("sender = %q, want override", a.Metadata.Sender)
	}
	if a.Metadata.Subject != "overridden subject" {
		t.Errorf("subject = %q, want override", a.Metadata.Subject)
	}
}

func TestAnalyzeProviderErrorFallsBack(t *testing.T) {
	analyzer := newTestAnalyzer(stubClassifier{fn: func(summary EmailSummary) (SemanticScore, error) {
		return SemanticScore{}, errors.New("backend unavailable")
	}})

	a, err := analyzer.Analyze(context.Background(), EmailInput{
		RawEmail: rawEmail("a@example.com", "s", "clean body"),
	})
	if err != nil {
		t.Fatalf("provider failure must not fail the pipeline: %v", err)
	}
	// No high-confidence indicators, so the fallback is the neutral default.
	if a.Semantic.Likelihood != 50.0 || a.Semantic.Confidence != 0.1 {
		t.Errorf("fallback semantic = %.1f/%.2f, want 50.0/0.1", a.Semantic.Likelihood, a.Semantic.Confidence)
	}
}

func TestAnalyzeAnnotatesHTMLBody(t *testing.T) {
	annotate := func(htmlBody string, indicators []Indicator) string {
		return "<annotated>" + htmlBody + "</annotated>"
	}
	analyzer := NewAnalyzer(NewExtractor(nil), nil, NewFusion(DefaultFusionConfig()), annotate, AnalyzerConfig{})

	raw := "From: a@example.com\r\nSubject: s\r\nContent-Type: text/html\r\n\r\n<html><body><p>hello</p></body></html>\r\n"
	a, err := analyzer.Analyze(context.Background(), EmailInput{RawEmail: raw})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !strings.HasPrefix(a.AnnotatedHTML, "<annotated>") {
		t.Errorf("annotated html = %q", a.AnnotatedHTML)
	}
}

func TestBuildSummaryTruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddles the byte limit; the cut must back off to
	// keep the body valid UTF-8.
	body := strings.Repeat("a", 1999) + "é and more text beyond the limit"

	summary := buildSummary(&parser.Email{Sender: "a@b.com"}, body)

	if !utf8.ValidString(summary.BodyText) {
		t.Fatalf("truncated body is not valid UTF-8: %q", summary.BodyText[len(summary.BodyText)-8:])
	}
	if len(summary.BodyText) != 1999 {
		t.Errorf("body length = %d, want 1999", len(summary.BodyText))
	}
	if !strings.HasSuffix(summary.BodyText, "a") {
		t.Errorf("unexpected tail %q", summary.BodyText[len(summary.BodyText)-4:])
	}
}

func TestFallbackSemanticHighConfidenceIndicators(t *testing.T) {
	indicators := []Indicator{
		{Kind: KindURL, Reason: "Suspicious TLD", Confidence: 0.9},
		{Kind: KindContent, Reason: "Urgency language", Confidence: 0.8},
		{Kind: KindHeader, Reason: "Weak signal", Confidence: 0.4},
	}

	fb := FallbackSemantic(indicators)

	// Two indicators above 0.7: 50 + 2*10 = 70.
	if fb.Likelihood != 70.0 {
		t.Errorf("likelihood = %.1f, want 70.0", fb.Likelihood)
	}
	if fb.Confidence != 0.4 {
		t.Errorf("confidence = %.2f, want 0.4", fb.Confidence)
	}
	if len(fb.KeyConcerns) != 2 || !strings.HasPrefix(fb.KeyConcerns[0], "Deterministic indicator:") {
		t.Errorf("key concerns = %v", fb.KeyConcerns)
	}
}

func TestFallbackSemanticCap(t *testing.T) {
	var indicators []Indicator
	for i := 0; i < 5; i++ {
		indicators = append(indicators, Indicator{Kind: KindURL, Reason: "r", Confidence: 0.9})
	}

	fb := FallbackSemantic(indicators)
	if fb.Likelihood != 80.0 {
		t.Errorf("likelihood = %.1f, want capped 80.0", fb.Likelihood)
	}
}

func TestFallbackSemanticNoStrongIndicators(t *testing.T) {
	fb := FallbackSemantic([]Indicator{{Kind: KindHeader, Reason: "r", Confidence: 0.5}})
	if fb.Likelihood != 50.0 || fb.Confidence != 0.1 {
		t.Errorf("fallback = %.1f/%.2f, want neutral default", fb.Likelihood, fb.Confidence)
	}
}
