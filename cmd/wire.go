package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/user/phishguard/pkg/config"
	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/htmlproc"
	"github.com/user/phishguard/pkg/logging"
	"github.com/user/phishguard/pkg/scanners"
	"github.com/user/phishguard/pkg/semantic"
)

// spanLabels maps indicator kinds onto the highlight labels shown in
// annotated HTML. Kinds not listed are structural (headers, addresses) and
// have no corresponding body text to mark.
var spanLabels = map[engine.IndicatorKind]string{
	engine.KindURL:     "Suspicious URL",
	engine.KindEmail:   "Suspicious email",
	engine.KindContent: "Suspicious content",
}

func annotator(htmlBody string, indicators []engine.Indicator) string {
	var spans []htmlproc.Span
	for _, ind := range indicators {
		label, ok := spanLabels[ind.Kind]
		if !ok {
			continue
		}
		spans = append(spans, htmlproc.Span{
			Label:      label,
			Value:      ind.Value,
			Reason:     ind.Reason,
			Confidence: ind.Confidence,
		})
	}
	return htmlproc.Annotate(htmlBody, spans)
}

// buildProvider constructs the configured semantic provider, or nil when no
// API key is available. A nil provider degrades analysis to the
// deterministic path instead of failing.
func buildProvider(ctx context.Context, cfg *config.Config) semantic.Provider {
	apiKey := cfg.GetAPIKey(cfg.SelectedProvider)
	if apiKey == "" {
		logging.Warnf("no API key for provider %q, semantic analysis disabled", cfg.SelectedProvider)
		return nil
	}

	provider, err := semantic.NewProvider(ctx, cfg.SelectedProvider, apiKey, semantic.Options{
		Model:       cfg.SelectedModel,
		Temperature: cfg.Provider.Temperature,
		MaxTokens:   cfg.Provider.MaxTokens,
	})
	if err != nil {
		logging.Warnf("provider init failed, semantic analysis disabled: %v", err)
		return nil
	}
	return provider
}

// buildAnalyzer wires the full pipeline from loaded configuration.
func buildAnalyzer(cfg *config.Config, provider semantic.Provider) *engine.Analyzer {
	extractor := engine.NewExtractor(scanners.SenderReputation, scanners.Default()...)
	fusion := engine.NewFusion(cfg.FusionConfig())

	var classifier engine.SemanticClassifier
	if provider != nil {
		classifier = provider
	}
	return engine.NewAnalyzer(extractor, classifier, fusion, annotator, engine.AnalyzerConfig{
		ProviderTimeout: cfg.ProviderTimeout(),
	})
}

func loadConfigOrExit() *config.Config {
	cfg, err := config.LoadConfig()
	cobra.CheckErr(err)
	return cfg
}
