package semantic

import (
	"context"
	"fmt"

	"github.com/user/phishguard/pkg/engine"
)

// Provider defines the interface for language-model backed classifiers.
// It extends the engine's SemanticClassifier contract with model discovery.
type Provider interface {
	engine.SemanticClassifier
	ListModels(ctx context.Context) ([]string, error)
}

// ConnectionTester is implemented by providers that can probe their backend
// cheaply. Health endpoints type-assert for it.
type ConnectionTester interface {
	TestConnection(ctx context.Context) (bool, string)
}

// Options carries generation parameters shared by all providers.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// NewProvider constructs the selected provider implementation.
func NewProvider(ctx context.Context, providerName, apiKey string, opts Options) (Provider, error) {
	switch providerName {
	case "gemini":
		return NewGeminiProvider(ctx, apiKey, opts)
	case "openai":
		return NewOpenAIProvider(apiKey, opts), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}
