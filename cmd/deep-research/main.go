// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deep-research CLI.
// Implements: prd001-pipeline, prd006-memory (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/abhilashpatra04/Deepresercher/internal/observe"
	"github.com/abhilashpatra04/Deepresercher/internal/pipeline"
	"github.com/abhilashpatra04/Deepresercher/internal/secrets"
	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the deep-research CLI.
var rootCmd = &cobra.Command{
	Use:   "deep-research",
	Short: "Multi-stage research pipeline over arXiv, the web, and past runs",
	Long: `deep-research runs an agentic research pipeline: it decomposes a query
into sub-questions, searches arXiv and the web iteratively, critiques its own
findings, re-searches the gaps, and synthesizes a quality-scored report that is
remembered for future runs.

Use "research" for the full pipeline, "baseline" for the single-shot comparison
path, "followup" to ask questions against a stored report, and "memory" to
inspect what past runs produced.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first, then .secrets/ files; real environment always wins.
		_ = godotenv.Load()
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		if applied := secrets.Apply(s); len(applied) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", applied)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deep-research.yaml or ~/.config/deep-research/config.yaml)")
	rootCmd.PersistentFlags().Bool("log", false, "emit structured step logs to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("deep-research")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "deep-research"))
		}
	}

	viper.SetEnvPrefix("DEEP_RESEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	registerDefaults(types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// registerDefaults seeds viper with the pipeline defaults so config
// files and DEEP_RESEARCH_* variables only need to name what they change.
func registerDefaults(def types.Config) {
	viper.SetDefault("llm.provider", string(def.LLM.Provider))
	viper.SetDefault("llm.model", def.LLM.Model)
	viper.SetDefault("llm.temperature", def.LLM.Temperature)
	viper.SetDefault("llm.max_tokens", def.LLM.MaxTokens)
	viper.SetDefault("llm.max_retries", def.LLM.MaxRetries)

	viper.SetDefault("search.timeout", def.Search.Timeout)
	viper.SetDefault("search.user_agent", def.Search.UserAgent)
	viper.SetDefault("search.max_iterations", def.Search.MaxIterations)
	viper.SetDefault("search.evidence_target", def.Search.EvidenceTarget)
	viper.SetDefault("search.paper_results", def.Search.PaperResults)
	viper.SetDefault("search.web_results", def.Search.WebResults)
	viper.SetDefault("search.parallel", def.Search.Parallel)
	viper.SetDefault("search.parallel_limit", def.Search.ParallelLimit)

	viper.SetDefault("critique.max_rounds", def.Critique.MaxRounds)
	viper.SetDefault("critique.max_gap_searches", def.Critique.MaxGapSearches)
	viper.SetDefault("critique.quality_threshold", def.Critique.QualityThreshold)

	viper.SetDefault("memory.path", def.Memory.Path)
	viper.SetDefault("memory.recall_results", def.Memory.RecallResults)

	viper.SetDefault("extract.timeout", def.Extract.Timeout)
	viper.SetDefault("extract.user_agent", def.Extract.UserAgent)
	viper.SetDefault("extract.max_text_chars", def.Extract.MaxTextChars)
	viper.SetDefault("extract.max_context_chars", def.Extract.MaxContextChars)
}

// loadConfig materializes the effective configuration from viper and
// resolves the provider API key from GROQ_API_KEY or GEMINI_API_KEY
// when no explicit llm.api_key is configured.
func loadConfig() types.Config {
	cfg := types.Config{
		LLM: types.LLMConfig{
			Provider:    types.LLMProvider(viper.GetString("llm.provider")),
			Model:       viper.GetString("llm.model"),
			APIKey:      viper.GetString("llm.api_key"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
			MaxRetries:  viper.GetInt("llm.max_retries"),
		},
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			MaxIterations:  viper.GetInt("search.max_iterations"),
			EvidenceTarget: viper.GetInt("search.evidence_target"),
			PaperResults:   viper.GetInt("search.paper_results"),
			WebResults:     viper.GetInt("search.web_results"),
			Parallel:       viper.GetBool("search.parallel"),
			ParallelLimit:  viper.GetInt("search.parallel_limit"),
		},
		Critique: types.CritiqueConfig{
			MaxRounds:        viper.GetInt("critique.max_rounds"),
			MaxGapSearches:   viper.GetInt("critique.max_gap_searches"),
			QualityThreshold: viper.GetFloat64("critique.quality_threshold"),
		},
		Memory: types.MemoryConfig{
			Path:          viper.GetString("memory.path"),
			RecallResults: viper.GetInt("memory.recall_results"),
		},
		Extract: types.ExtractConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("extract.timeout"),
				UserAgent: viper.GetString("extract.user_agent"),
			},
			MaxTextChars:    viper.GetInt("extract.max_text_chars"),
			MaxContextChars: viper.GetInt("extract.max_context_chars"),
		},
	}

	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case types.ProviderGemini:
			cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		default:
			cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}
	return cfg
}

// stepObserver assembles the observer for a run: a progress writer on
// stdout when showSteps is set, plus the structured zap sink when --log
// is set. The returned flush syncs the logger.
func stepObserver(cmd *cobra.Command, showSteps bool) (pipeline.Observer, func(), error) {
	var parts []observe.Stepper
	flush := func() {}

	if showSteps {
		parts = append(parts, observe.NewWriter(os.Stdout))
	}
	if logSteps, _ := cmd.Flags().GetBool("log"); logSteps {
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, nil, fmt.Errorf("building logger: %w", err)
		}
		parts = append(parts, observe.NewZap(logger))
		flush = func() { _ = logger.Sync() }
	}

	switch len(parts) {
	case 0:
		return nil, flush, nil
	case 1:
		return parts[0], flush, nil
	default:
		return observe.Tee(parts...), flush, nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
