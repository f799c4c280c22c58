package engine

import (
	"fmt"
	"time"

	"github.com/user/phishguard/pkg/parser"
)

// RiskLevel classifies a final risk score into one of four bands.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// IndicatorKind is the closed set of indicator categories. Every indicator
// carries exactly one kind; downstream consumers switch on it rather than
// inspecting the value string.
type IndicatorKind string

const (
	KindURL        IndicatorKind = "url"
	KindEmail      IndicatorKind = "email"
	KindDomain     IndicatorKind = "domain"
	KindContent    IndicatorKind = "content"
	KindHeader     IndicatorKind = "header"
	KindAttachment IndicatorKind = "attachment"
)

// Indicator is a single rule-based finding of suspicious content.
// Indicators are created by the extractor's scanners and are read-only
// everywhere downstream.
type Indicator struct {
	Kind       IndicatorKind `json:"type"`
	Value      string        `json:"value"`
	Reason     string        `json:"reason"`
	Confidence float64       `json:"confidence"` // always in [0,1]
	Location   string        `json:"location,omitempty"`
}

// AuthOutcome is the tri-state result of an email authentication check.
// Unknown is scored as neither a pass nor a fail.
type AuthOutcome string

const (
	AuthPass    AuthOutcome = "pass"
	AuthFail    AuthOutcome = "fail"
	AuthUnknown AuthOutcome = "unknown"
)

// DeterministicScore holds the rule-only risk score and the signals that
// produced it. Built once per email by the extractor.
type DeterministicScore struct {
	SPF              AuthOutcome           `json:"spf"`
	DKIM             AuthOutcome           `json:"dkim"`
	DMARC            AuthOutcome           `json:"dmarc"`
	SenderReputation *float64              `json:"sender_reputation,omitempty"`
	IndicatorCounts  map[IndicatorKind]int `json:"indicator_counts"`
	Score            float64               `json:"score"` // 0-100, one decimal
}

// SemanticScore is the assessment returned by the language-model provider
// (or synthesized by the fallback path when the provider is unavailable).
type SemanticScore struct {
	Likelihood         float64  `json:"phishing_likelihood"` // 0-100
	Reasoning          string   `json:"reasoning"`
	KeyConcerns        []string `json:"key_concerns"`
	LinguisticPatterns []string `json:"linguistic_patterns"`
	Confidence         float64  `json:"model_confidence"` // 0-1
}

// RiskAssessment is the final fused result for one email. It is assembled
// exactly once by the pipeline and never mutated afterwards.
type RiskAssessment struct {
	ID         string    `json:"id"`
	Score      float64   `json:"risk_score"`
	Level      RiskLevel `json:"risk_level"`
	IsPhishing bool      `json:"is_phishing"`

	Metadata      parser.Email       `json:"email_metadata"`
	Deterministic DeterministicScore `json:"deterministic_checks"`
	Semantic      SemanticScore      `json:"semantic_analysis"`
	Indicators    []Indicator        `json:"suspicious_indicators"`

	AnnotatedHTML string `json:"annotated_body_html,omitempty"`
	CleanText     string `json:"clean_body_text,omitempty"`

	Timestamp        time.Time `json:"analysis_timestamp"`
	ProcessingTimeMS float64   `json:"processing_time_ms"`
	Version          string    `json:"version"`
}

// EmailInput is one unit of work for the pipeline: the raw message plus
// optional overrides and caller context.
type EmailInput struct {
	RawEmail     string           `json:"raw_email"`
	SenderEmail  string           `json:"sender_email,omitempty"`
	Subject      string           `json:"subject,omitempty"`
	Context      *AnalysisContext `json:"additional_context,omitempty"`
}

// AnalysisContext carries optional caller-supplied signals for the
// contextual adjustment step. SubmittedAt is injected by the caller so the
// business-hours rule stays deterministic under test; the engine never
// reads the wall clock for scoring.
type AnalysisContext struct {
	Institution string     `json:"user_bank,omitempty"`
	AccountType string     `json:"user_account_type,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// ScoreStats summarizes the score distribution of a batch.
type ScoreStats struct {
	Average float64 `json:"average"`
	Maximum float64 `json:"maximum"`
	Minimum float64 `json:"minimum"`
}

// HighRiskEmail identifies one high or critical result inside a batch.
type HighRiskEmail struct {
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	RiskScore float64   `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// BatchSummary aggregates a completed batch of assessments. It is derived
// purely from the assessment slice and holds no independent state.
type BatchSummary struct {
	TotalEmails       int                   `json:"total_emails"`
	PhishingDetected  int                   `json:"phishing_detected"`
	PhishingRate      float64               `json:"phishing_rate"`
	RiskLevels        map[RiskLevel]int     `json:"risk_level_distribution"`
	Scores            ScoreStats            `json:"score_statistics"`
	IndicatorCounts   map[IndicatorKind]int `json:"indicator_summary"`
	HighRiskEmails    []HighRiskEmail       `json:"high_risk_emails"`
}

// ValidationError reports a caller contract violation (bad batch size,
// missing required fields). Unlike transient backend faults, these are
// surfaced to the caller rather than degraded.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}
