package types

// ScanConfig holds settings for document discovery.
type ScanConfig struct {
	// Extensions lists the file extensions to convert (default .docx, .pptx).
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// AIConfig holds shared settings for calls to a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint for OpenAI-compatible gateways.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CaptionConfig holds settings for LLM image captioning.
type CaptionConfig struct {
	AIConfig `yaml:",inline"`

	// Prompt overrides the default captioning instruction sent with each image.
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Force re-converts documents whose Markdown output already exists.
	Force bool `json:"force" yaml:"force"`

	// ErrorLog is the path of the failure log file.
	ErrorLog string `json:"error_log" yaml:"error_log"`

	// ReportPath, when set, is where the YAML run report is written.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`
}

// HistoryConfig holds settings for the run-history store.
type HistoryConfig struct {
	// DBPath is the SQLite database path (default: per-user cache dir).
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of rows listed (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
