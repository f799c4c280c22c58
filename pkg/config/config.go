package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/phishguard/pkg/engine"
)

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// ProviderSettings are the generation knobs shared by all providers.
type ProviderSettings struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int32   `yaml:"max_tokens"`
}

// ScoringConfig exposes the fusion knobs. Weights that do not sum to 1.0
// are normalized on conversion, not rejected.
type ScoringConfig struct {
	DeterministicWeight float64 `yaml:"deterministic_weight"`
	SemanticWeight      float64 `yaml:"semantic_weight"`
	HighThreshold       float64 `yaml:"high_threshold"`
	MediumThreshold     float64 `yaml:"medium_threshold"`
	// UTC hours bounding the business-hours submission window.
	BusinessHoursStart int `yaml:"business_hours_start"`
	BusinessHoursEnd   int `yaml:"business_hours_end"`
}

type BulkConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`
	MaxBatchSize   int `yaml:"max_batch_size"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`
	Provider         ProviderSettings          `yaml:"provider_settings"`
	Scoring          ScoringConfig             `yaml:"scoring"`
	Bulk             BulkConfig                `yaml:"bulk"`
	Server           ServerConfig              `yaml:"server"`
}

func defaultConfig() *Config {
	return &Config{
		SelectedProvider: "gemini",
		SelectedModel:    "gemini-1.5-pro",
		Providers:        make(map[string]ProviderConfig),
		Provider: ProviderSettings{
			TimeoutSeconds: 30,
			Temperature:    0.1,
			MaxTokens:      2048,
		},
		Scoring: ScoringConfig{
			DeterministicWeight: 0.6,
			SemanticWeight:      0.4,
			HighThreshold:       70.0,
			MediumThreshold:     40.0,
			BusinessHoursStart:  6,
			BusinessHoursEnd:    22,
		},
		Bulk: BulkConfig{
			MaxConcurrency: 5,
			MaxBatchSize:   50,
		},
		Server: ServerConfig{
			ListenAddr: ":8000",
		},
	}
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".phishguard")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values left by partial config files.
func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.SelectedProvider == "" {
		c.SelectedProvider = def.SelectedProvider
	}
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = def.Provider.TimeoutSeconds
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = def.Provider.MaxTokens
	}
	if c.Scoring.DeterministicWeight <= 0 && c.Scoring.SemanticWeight <= 0 {
		c.Scoring = def.Scoring
	}
	if c.Scoring.HighThreshold <= 0 {
		c.Scoring.HighThreshold = def.Scoring.HighThreshold
	}
	if c.Scoring.MediumThreshold <= 0 {
		c.Scoring.MediumThreshold = def.Scoring.MediumThreshold
	}
	// Start 0 (midnight) is valid, so an unset window is detected by End.
	if c.Scoring.BusinessHoursEnd <= 0 {
		c.Scoring.BusinessHoursStart = def.Scoring.BusinessHoursStart
		c.Scoring.BusinessHoursEnd = def.Scoring.BusinessHoursEnd
	}
	if c.Bulk.MaxConcurrency <= 0 {
		c.Bulk.MaxConcurrency = def.Bulk.MaxConcurrency
	}
	if c.Bulk.MaxBatchSize <= 0 {
		c.Bulk.MaxBatchSize = def.Bulk.MaxBatchSize
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = def.Server.ListenAddr
	}
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600 permissions for security (api keys)
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

// GetAPIKey falls back to the GOOGLE_API_KEY / OPENAI_API_KEY environment
// variables when the config file has no key stored.
func (c *Config) GetAPIKey(provider string) string {
	if key := c.Providers[provider].APIKey; key != "" {
		return key
	}
	switch provider {
	case "gemini":
		return os.Getenv("GOOGLE_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// FusionConfig converts the scoring section for the engine, normalizing
// the blend weights.
func (c *Config) FusionConfig() engine.FusionConfig {
	fc := engine.DefaultFusionConfig()
	wd, wg := c.Scoring.DeterministicWeight, c.Scoring.SemanticWeight
	if sum := wd + wg; sum > 0 {
		fc.DeterministicWeight = wd / sum
		fc.SemanticWeight = wg / sum
	}
	if c.Scoring.HighThreshold > 0 {
		fc.HighThreshold = c.Scoring.HighThreshold
	}
	if c.Scoring.MediumThreshold > 0 {
		fc.MediumThreshold = c.Scoring.MediumThreshold
	}
	if c.Scoring.BusinessHoursEnd > 0 {
		fc.BusinessHoursStart = c.Scoring.BusinessHoursStart
		fc.BusinessHoursEnd = c.Scoring.BusinessHoursEnd
	}
	return fc
}

func (c *Config) OrchestratorConfig() engine.OrchestratorConfig {
	oc := engine.DefaultOrchestratorConfig()
	oc.Concurrency = c.Bulk.MaxConcurrency
	oc.MaxBatch = c.Bulk.MaxBatchSize
	return oc
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}
