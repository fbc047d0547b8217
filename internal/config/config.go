package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/lqlabs/outflow/internal/common"
)

// Config holds everything a pipeline run needs. Business constants
// (keyword, actor variants, threshold) live here rather than in code so
// another organization can override them without a rebuild.
type Config struct {
	Sources SourcesConfig
	Filters FiltersConfig
	Rules   RulesConfig
	LLM     LLMConfig
	Report  ReportConfig
}

// SourcesConfig points at the two tabular exports.
type SourcesConfig struct {
	KodoPayPath string
	CardPath    string
}

// FiltersConfig controls which rows never become transactions.
type FiltersConfig struct {
	// Card-export categories that represent funding or credit
	// reversals rather than spend.
	ExcludedCardCategories []string
	// Case-insensitive marker for internal transfers; matching rows
	// are removed entirely from both sources.
	TransferMarker string
}

// RulesConfig carries the deterministic business-rule constants.
type RulesConfig struct {
	CapexKeyword     string
	KeywordReasoning string
	ActorVariants    []string
	ActorThreshold   float64
	ActorCategory    string
	ActorReasoning   string
}

// LLMConfig configures the external classifier.
type LLMConfig struct {
	Provider          string
	Model             string
	APIKey            string
	Temperature       float64
	MaxTokens         int
	MaxRetries        int
	RetryDelay        time.Duration
	RateLimit         int
	BatchSize         int
	BatchDelay        time.Duration
	MaxDescriptionLen int
}

// ReportConfig controls the report sink.
type ReportConfig struct {
	OutputDir string
}

// SetDefaults registers the production defaults with viper. Callers
// bind flags and env vars on top of these.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sources.kodo_pay", "kodo-pay-reimbursement.csv")
	v.SetDefault("sources.card", "transactions-csv.csv")

	v.SetDefault("filters.excluded_card_categories", []string{"FUNDING", "CARD_CREDIT"})
	v.SetDefault("filters.transfer_marker", "LQ Prepaid")

	v.SetDefault("rules.capex_keyword", "mechanical hardware")
	v.SetDefault("rules.keyword_reasoning", "Business Rule: Mechanical Hardware is long-term investment (hardware company)")
	v.SetDefault("rules.actor_variants", []string{"vishwanatha", "vishwanath"})
	v.SetDefault("rules.actor_threshold", 1000.0)
	v.SetDefault("rules.actor_category", "Capital Investment")
	v.SetDefault("rules.actor_reasoning", "Business Rule: Vishwanatha uncategorized expenses > 1000 → CAPEX (Equipment)")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.batch_size", 5)
	v.SetDefault("llm.batch_delay", 3*time.Second)
	v.SetDefault("llm.max_description_len", 120)

	v.SetDefault("report.output_dir", ".")
}

// Load reads the full configuration out of viper.
func Load(v *viper.Viper) *Config {
	return &Config{
		Sources: SourcesConfig{
			KodoPayPath: ExpandPath(v.GetString("sources.kodo_pay")),
			CardPath:    ExpandPath(v.GetString("sources.card")),
		},
		Filters: FiltersConfig{
			ExcludedCardCategories: v.GetStringSlice("filters.excluded_card_categories"),
			TransferMarker:         v.GetString("filters.transfer_marker"),
		},
		Rules: RulesConfig{
			CapexKeyword:     v.GetString("rules.capex_keyword"),
			KeywordReasoning: v.GetString("rules.keyword_reasoning"),
			ActorVariants:    v.GetStringSlice("rules.actor_variants"),
			ActorThreshold:   v.GetFloat64("rules.actor_threshold"),
			ActorCategory:    v.GetString("rules.actor_category"),
			ActorReasoning:   v.GetString("rules.actor_reasoning"),
		},
		LLM: LLMConfig{
			Provider:          v.GetString("llm.provider"),
			Model:             v.GetString("llm.model"),
			APIKey:            v.GetString("llm.api_key"),
			Temperature:       v.GetFloat64("llm.temperature"),
			MaxTokens:         v.GetInt("llm.max_tokens"),
			MaxRetries:        v.GetInt("llm.max_retries"),
			RetryDelay:        v.GetDuration("llm.retry_delay"),
			RateLimit:         v.GetInt("llm.rate_limit"),
			BatchSize:         v.GetInt("llm.batch_size"),
			BatchDelay:        v.GetDuration("llm.batch_delay"),
			MaxDescriptionLen: v.GetInt("llm.max_description_len"),
		},
		Report: ReportConfig{
			OutputDir: ExpandPath(v.GetString("report.output_dir")),
		},
	}
}

// Validate checks the parts of the configuration whose absence is
// fatal. A missing classifier credential aborts before any processing.
func (c *Config) Validate() error {
	if c.Sources.KodoPayPath == "" && c.Sources.CardPath == "" {
		return fmt.Errorf("%w: at least one source path is required", common.ErrInvalidConfig)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: set llm.api_key or the provider's API key environment variable", common.ErrMissingAPIKey)
	}
	if c.LLM.BatchSize <= 0 {
		return fmt.Errorf("%w: llm.batch_size must be positive", common.ErrInvalidConfig)
	}
	return nil
}
