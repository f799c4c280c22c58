package engine

import (
	"context"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/user/phishguard/pkg/logging"
	"github.com/user/phishguard/pkg/parser"
)

// EngineVersion tags every assessment with the scoring engine revision.
const EngineVersion = "1.0.0"

// summaryBodyLimit bounds the body text sent to the semantic provider.
const summaryBodyLimit = 2000

// EmailSummary is the bounded projection of an email handed to the semantic
// provider.
type EmailSummary struct {
	Sender      string   `json:"sender"`
	ReplyTo     string   `json:"reply_to,omitempty"`
	Subject     string   `json:"subject"`
	Links       []string `json:"links"`
	Attachments []string `json:"attachments"`
	BodyText    string   `json:"body_text"`
}

// SemanticClassifier is the narrow interface to the external language-model
// provider. Implementations may fail; the pipeline converts every failure
// into a well-formed fallback score before fusion.
type SemanticClassifier interface {
	Classify(ctx context.Context, summary EmailSummary, indicators []Indicator) (SemanticScore, error)
}

// Annotator decorates an HTML body with the indicator list. Presentation
// concern; nil disables annotation.
type Annotator func(htmlBody string, indicators []Indicator) string

// AnalyzerConfig carries the pipeline knobs that are not scoring-related.
type AnalyzerConfig struct {
	ProviderTimeout time.Duration
}

// Analyzer runs the full single-item pipeline: parse, extract, classify,
// fuse, assemble.
type Analyzer struct {
	extractor  *Extractor
	classifier SemanticClassifier
	fusion     *Fusion
	annotate   Annotator
	timeout    time.Duration
}

// NewAnalyzer wires the pipeline stages. classifier and annotate may be nil;
// the pipeline then falls back to deterministic-only semantics and skips
// annotation.
func NewAnalyzer(extractor *Extractor, classifier SemanticClassifier, fusion *Fusion, annotate Annotator, cfg AnalyzerConfig) *Analyzer {
	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Analyzer{
		extractor:  extractor,
		classifier: classifier,
		fusion:     fusion,
		annotate:   annotate,
		timeout:    timeout,
	}
}

// Analyze runs the pipeline for one email. Only caller contract violations
// and context cancellation surface as errors; extraction, provider and
// fusion faults all degrade internally.
func (a *Analyzer) Analyze(ctx context.Context, input EmailInput) (RiskAssessment, error) {
	start := time.Now()

	if input.RawEmail == "" {
		return RiskAssessment{}, &ValidationError{Field: "raw_email", Message: "raw email content is required"}
	}
	if err := ctx.Err(); err != nil {
		return RiskAssessment{}, err
	}

	meta, htmlBody, textBody := parser.Parse(input.RawEmail)
	if input.SenderEmail != "" {
		meta.Sender = input.SenderEmail
	}
	if input.Subject != "" {
		meta.Subject = input.Subject
	}
	body := parser.BodyForAnalysis(htmlBody, textBody)

	det, indicators := a.extractor.Extract(meta, body)
	logging.Debugf("deterministic pass: score=%.1f indicators=%d", det.Score, len(indicators))

	sem := a.classifySemantic(ctx, meta, body, indicators)

	result := a.fusion.Fuse(det, sem, input.Context, body)

	annotated := ""
	if htmlBody != "" && a.annotate != nil {
		annotated = a.annotate(htmlBody, indicators)
	}

	assessment := RiskAssessment{
		ID:               uuid.NewString(),
		Score:            result.Score,
		Level:            result.Level,
		IsPhishing:       result.IsPhishing,
		Metadata:         *meta,
		Deterministic:    det,
		Semantic:         result.Semantic,
		Indicators:       indicators,
		AnnotatedHTML:    annotated,
		CleanText:        body,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Version:          EngineVersion,
	}
	logging.Infof("analysis complete: sender=%s score=%.1f level=%s time=%.1fms",
		meta.Sender, assessment.Score, assessment.Level, assessment.ProcessingTimeMS)
	return assessment, nil
}

// classifySemantic calls the provider under a deadline and converts every
// failure into the deterministic fallback so fusion always receives a
// well-formed score.
func (a *Analyzer) classifySemantic(ctx context.Context, meta *parser.Email, body string, indicators []Indicator) SemanticScore {
	if a.classifier == nil {
		return DefaultSemantic()
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	sem, err := a.classifier.Classify(cctx, buildSummary(meta, body), indicators)
	if err != nil {
		logging.Warnf("semantic provider failed, using fallback: %v", err)
		return FallbackSemantic(indicators)
	}
	return sem
}

func buildSummary(meta *parser.Email, body string) EmailSummary {
	if len(body) > summaryBodyLimit {
		cut := summaryBodyLimit
		// Back off to a rune start so the truncated body stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return EmailSummary{
		Sender:      meta.Sender,
		ReplyTo:     meta.ReplyTo,
		Subject:     meta.Subject,
		Links:       meta.Links,
		Attachments: meta.Attachments,
		BodyText:    body,
	}
}

// FallbackSemantic synthesizes a semantic score from the deterministic
// indicators when the provider is unavailable: ten points per
// high-confidence indicator on top of neutral, capped at 80, with low
// model confidence.
func FallbackSemantic(indicators []Indicator) SemanticScore {
	var concerns []string
	high := 0
	for _, ind := range indicators {
		if ind.Confidence > 0.7 {
			high++
			if len(concerns) < 3 {
				concerns = append(concerns, "Deterministic indicator: "+ind.Reason)
			}
		}
	}

	if high == 0 {
		return DefaultSemantic()
	}
	return SemanticScore{
		Likelihood:  math.Min(80.0, 50.0+float64(high)*10.0),
		Reasoning:   "Analysis based on deterministic indicators only (semantic provider unavailable)",
		KeyConcerns: concerns,
		Confidence:  0.4,
	}
}

// DefaultSemantic is the last-resort neutral score.
func DefaultSemantic() SemanticScore {
	return SemanticScore{
		Likelihood:  50.0,
		Reasoning:   "Unable to perform semantic analysis (provider unavailable)",
		KeyConcerns: []string{"Analysis incomplete"},
		Confidence:  0.1,
	}
}
