package config

import (
	"fmt"
	"strings"
)

const (
	// DefaultListenAddr is used when the adapter runner does not inject an explicit address.
	DefaultListenAddr   = "127.0.0.1:50051"
	DefaultHTTPAddr     = "0.0.0.0:8000"
	DefaultLogLevel     = "info"
	DefaultProvider     = ProviderTranslate
	DefaultLanguage     = "en-uk"
	DefaultLanguageMode = LanguageModeFixed
	DefaultTimeoutSec   = 10
	DefaultMaxBodyBytes = 1 << 20
)

// Provider names.
const (
	ProviderTranslate = "gtranslate"
	ProviderCloud     = "cloud"
	ProviderStub      = "stub"
)

// Language modes for the gRPC surface. The HTTP endpoint always uses Language.
const (
	LanguageModeFixed  = "fixed"
	LanguageModeClient = "client"
)

// Config captures bootstrap configuration extracted from environment variables
// or injected JSON payload (`NUPI_ADAPTER_CONFIG`).
type Config struct {
	ListenAddr string
	HTTPAddr   string
	LogLevel   string

	Provider     string
	Language     string
	LanguageMode string
	Slow         bool
	TimeoutSec   int

	// TLD pins the Google domain for the translate provider; empty lets the
	// language alias decide.
	TLD string

	// CredentialsFile is the service account JSON for the cloud provider.
	// Empty falls back to application default credentials.
	CredentialsFile string

	MaxBodyBytes      int64
	MaxTextChars      int
	CompatErrorStatus bool

	OTLPEndpoint string
	OTLPInsecure bool
	TraceStdout  bool

	UseStubSynthesizer bool
}

// Validate applies defaults and raises an error when fields are out of range.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.UseStubSynthesizer {
		c.Provider = ProviderStub
	}
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	switch c.Provider {
	case ProviderTranslate, ProviderCloud, ProviderStub:
	default:
		return fmt.Errorf("config: provider must be one of %q, %q, %q, got %q", ProviderTranslate, ProviderCloud, ProviderStub, c.Provider)
	}

	c.Language = strings.TrimSpace(c.Language)
	if c.Language == "" {
		c.Language = DefaultLanguage
	}

	c.LanguageMode = strings.ToLower(strings.TrimSpace(c.LanguageMode))
	if c.LanguageMode == "" {
		c.LanguageMode = DefaultLanguageMode
	}
	if c.LanguageMode != LanguageModeFixed && c.LanguageMode != LanguageModeClient {
		return fmt.Errorf("config: language_mode must be %q or %q, got %q", LanguageModeFixed, LanguageModeClient, c.LanguageMode)
	}

	if c.TimeoutSec == 0 {
		c.TimeoutSec = DefaultTimeoutSec
	}
	if c.TimeoutSec < 0 || c.TimeoutSec > 300 {
		return fmt.Errorf("config: timeout_sec must be between 1 and 300, got %d", c.TimeoutSec)
	}

	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("config: max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.MaxTextChars < 0 {
		return fmt.Errorf("config: max_text_chars must be >= 0 (0 = unlimited), got %d", c.MaxTextChars)
	}

	return nil
}
