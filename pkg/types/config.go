package types

import "time"

// LLMProvider selects which language model API backs the gateway.
// Selection is explicit configuration; the gateway never inspects the
// environment to pick a provider. Per prd007-llm R1.1-R1.2.
type LLMProvider string

const (
	ProviderGroq   LLMProvider = "groq"
	ProviderGemini LLMProvider = "gemini"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1"). Per prd003-retrieval R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMConfig holds settings for the language model gateway.
// Per prd007-llm R1.1-R1.4.
type LLMConfig struct {
	// Provider selects the API backend: groq or gemini.
	Provider LLMProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier. Empty selects the provider default
	// ("llama-3.3-70b-versatile" for groq, "gemini-2.0-flash" for gemini).
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// APIKey is the authentication key for the provider API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the default sampling temperature for unstructured
	// generation (default 0.7). Structured calls always use 0.3.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps output tokens per generation (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retry attempts for transient API
	// failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for the iterative searcher and its
// retrieval tools. Per prd003-retrieval R1.2-R1.5, R5.1-R5.3.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxIterations bounds the search loop per sub-question (default 3).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// EvidenceTarget stops the loop early once a sub-question has this
	// many evidence items (default 5).
	EvidenceTarget int `json:"evidence_target" yaml:"evidence_target"`

	// PaperResults is the per-call result cap for the paper tool (default 5).
	PaperResults int `json:"paper_results" yaml:"paper_results"`

	// WebResults is the per-call result cap for the web tool (default 3).
	WebResults int `json:"web_results" yaml:"web_results"`

	// Parallel searches sub-questions concurrently. Outcomes are
	// independent per sub-question, so this changes wall time only
	// (default false).
	Parallel bool `json:"parallel" yaml:"parallel"`

	// ParallelLimit caps concurrent sub-question searches when Parallel
	// is set (default 3).
	ParallelLimit int `json:"parallel_limit" yaml:"parallel_limit"`
}

// CritiqueConfig holds settings for the critique-retry loop.
// Per prd004-critique R1.4, prd001-pipeline R2.3.
type CritiqueConfig struct {
	// MaxRounds bounds the critique and gap-search cycle (default 2).
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`

	// MaxGapSearches caps gap re-searches per round (default 3).
	MaxGapSearches int `json:"max_gap_searches" yaml:"max_gap_searches"`

	// QualityThreshold is the completeness score below which more search
	// is needed, and the pass bar for the final report (default 0.6).
	QualityThreshold float64 `json:"quality_threshold" yaml:"quality_threshold"`
}

// MemoryConfig holds settings for the persistent memory store.
// Per prd006-memory R1.2, R2.2.
type MemoryConfig struct {
	// Path is the SQLite database file (default "deep-research.db").
	Path string `json:"path" yaml:"path"`

	// RecallResults is the default number of records recall returns
	// (default 3).
	RecallResults int `json:"recall_results" yaml:"recall_results"`
}

// ExtractConfig holds settings for the URL and PDF extractors.
// Per prd008-extraction R1.3, R2.4.
type ExtractConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxTextChars caps extracted document text (default 10000).
	MaxTextChars int `json:"max_text_chars" yaml:"max_text_chars"`

	// MaxContextChars caps the extracted text folded into planning and
	// synthesis context (default 5000).
	MaxContextChars int `json:"max_context_chars" yaml:"max_context_chars"`
}

// Config groups all component configurations for the pipeline.
type Config struct {
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Search   SearchConfig   `json:"search" yaml:"search"`
	Critique CritiqueConfig `json:"critique" yaml:"critique"`
	Memory   MemoryConfig   `json:"memory" yaml:"memory"`
	Extract  ExtractConfig  `json:"extract" yaml:"extract"`
}

// DefaultConfig returns the configuration the pipeline runs with when no
// file or environment overrides are present. The evidence target and
// quality threshold defaults are the pipeline's named tuning constants.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    ProviderGroq,
			Temperature: 0.7,
			MaxTokens:   4096,
			MaxRetries:  3,
		},
		Search: SearchConfig{
			HTTPConfig:     HTTPConfig{Timeout: 15 * time.Second, UserAgent: "deep-research/0.1"},
			MaxIterations:  3,
			EvidenceTarget: 5,
			PaperResults:   5,
			WebResults:     3,
			ParallelLimit:  3,
		},
		Critique: CritiqueConfig{
			MaxRounds:        2,
			MaxGapSearches:   3,
			QualityThreshold: 0.6,
		},
		Memory: MemoryConfig{
			Path:          "deep-research.db",
			RecallResults: 3,
		},
		Extract: ExtractConfig{
			HTTPConfig:      HTTPConfig{Timeout: 30 * time.Second, UserAgent: defaultBrowserAgent},
			MaxTextChars:    10000,
			MaxContextChars: 5000,
		},
	}
}

// defaultBrowserAgent is sent by the URL extractor; some sites refuse
// obvious bot agents.
const defaultBrowserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
