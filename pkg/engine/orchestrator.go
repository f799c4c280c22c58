package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/user/phishguard/pkg/logging"
)

// OrchestratorConfig bounds the bulk path: worker concurrency and the
// accepted batch size range.
type OrchestratorConfig struct {
	Concurrency int
	MinBatch    int
	MaxBatch    int
}

// DefaultOrchestratorConfig matches the documented service policy.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{Concurrency: 5, MinBatch: 1, MaxBatch: 50}
}

// Orchestrator runs the single-item pipeline over a batch with bounded
// parallelism and per-item failure isolation.
type Orchestrator struct {
	analyzer *Analyzer
	cfg      OrchestratorConfig
}

func NewOrchestrator(analyzer *Analyzer, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{analyzer: analyzer, cfg: cfg}
}

// RunBatch analyzes every item concurrently and returns results in input
// order. Batch-shape violations surface as validation errors before any
// work starts; once running, one item's failure becomes a degraded result
// for that slot only. The summary is computed after all items have joined.
func (o *Orchestrator) RunBatch(ctx context.Context, items []EmailInput) ([]RiskAssessment, BatchSummary, error) {
	if len(items) < o.cfg.MinBatch || len(items) > o.cfg.MaxBatch {
		return nil, BatchSummary{}, &ValidationError{
			Field:   "emails",
			Message: fmt.Sprintf("batch size must be between %d and %d, got %d", o.cfg.MinBatch, o.cfg.MaxBatch, len(items)),
		}
	}
	for i, item := range items {
		if item.RawEmail == "" {
			return nil, BatchSummary{}, &ValidationError{
				Field:   fmt.Sprintf("emails[%d].raw_email", i),
				Message: "raw email content is required",
			}
		}
	}

	logging.Infof("bulk analysis started: %d emails, concurrency %d", len(items), o.cfg.Concurrency)

	results := make([]RiskAssessment, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)

	for i := range items {
		i := i
		g.Go(func() error {
			assessment, err := o.analyzeIsolated(gctx, items[i])
			if err != nil {
				logging.Warnf("bulk item %d failed, recording degraded result: %v", i, err)
				assessment = DegradedAssessment(err)
			}
			results[i] = assessment
			// Sibling items must never be aborted by one failure.
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		// Partial batches are not a supported return shape.
		return nil, BatchSummary{}, err
	}
	return results, Summarize(results), nil
}

// analyzeIsolated shields the batch from a panicking pipeline.
func (o *Orchestrator) analyzeIsolated(ctx context.Context, item EmailInput) (assessment RiskAssessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return o.analyzer.Analyze(ctx, item)
}

// DegradedAssessment is the synthetic medium-risk placeholder recorded for
// an item whose pipeline failed entirely.
func DegradedAssessment(cause error) RiskAssessment {
	return RiskAssessment{
		ID:         uuid.NewString(),
		Score:      50.0,
		Level:      RiskMedium,
		IsPhishing: false,
		Deterministic: DeterministicScore{
			SPF:             AuthUnknown,
			DKIM:            AuthUnknown,
			DMARC:           AuthUnknown,
			IndicatorCounts: map[IndicatorKind]int{},
			Score:           50.0,
		},
		Semantic: SemanticScore{
			Likelihood:  50.0,
			Reasoning:   fmt.Sprintf("Analysis failed: %v", cause),
			KeyConcerns: []string{"Analysis error"},
			Confidence:  0.0,
		},
		Indicators: nil,
		Timestamp:  time.Now().UTC(),
		Version:    EngineVersion,
	}
}
