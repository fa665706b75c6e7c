package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Loader loads configuration from environment variables. Tests can override
// Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)

	// EnvFile is an optional dotenv file consulted for keys missing from the
	// environment. A missing file is not an error.
	EnvFile string
}

// Load retrieves the adapter configuration from environment variables and validates it.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.EnvFile != "" {
		lookup, err := withEnvFile(l.Lookup, l.EnvFile)
		if err != nil {
			return Config{}, err
		}
		l.Lookup = lookup
	}

	cfg := Config{
		ListenAddr: DefaultListenAddr,
	}

	if raw, ok := l.Lookup("NUPI_ADAPTER_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "NUPI_ADAPTER_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "NUPI_ADAPTER_HTTP_ADDR", &cfg.HTTPAddr)
	overrideString(l.Lookup, "NUPI_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "NUPI_ADAPTER_PROVIDER", &cfg.Provider)
	if err := overrideBool(l.Lookup, "NUPI_ADAPTER_USE_STUB_SYNTHESIZER", &cfg.UseStubSynthesizer); err != nil {
		return Config{}, err
	}
	if cfg.CredentialsFile == "" {
		overrideString(l.Lookup, "GOOGLE_APPLICATION_CREDENTIALS", &cfg.CredentialsFile)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// withEnvFile returns a lookup that prefers the real environment and falls
// back to the values parsed from path.
func withEnvFile(lookup func(string) (string, bool), path string) (func(string) (string, bool), error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

func applyJSON(raw string, cfg *Config) error {
	type jsonConfig struct {
		ListenAddr         string `json:"listen_addr"`
		HTTPAddr           string `json:"http_addr"`
		LogLevel           string `json:"log_level"`
		Provider           string `json:"provider"`
		Language           string `json:"language"`
		LanguageMode       string `json:"language_mode"`
		Slow               *bool  `json:"slow"`
		TimeoutSec         *int   `json:"timeout_sec"`
		TLD                string `json:"tld"`
		CredentialsFile    string `json:"credentials_file"`
		MaxBodyBytes       *int64 `json:"max_body_bytes"`
		MaxTextChars       *int   `json:"max_text_chars"`
		CompatErrorStatus  *bool  `json:"compat_error_status"`
		OTLPEndpoint       string `json:"otlp_endpoint"`
		OTLPInsecure       *bool  `json:"otlp_insecure"`
		TraceStdout        *bool  `json:"trace_stdout"`
		UseStubSynthesizer *bool  `json:"use_stub_synthesizer"`
	}
	var payload jsonConfig
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode NUPI_ADAPTER_CONFIG: %w", err)
	}
	if payload.ListenAddr != "" {
		cfg.ListenAddr = payload.ListenAddr
	}
	if payload.HTTPAddr != "" {
		cfg.HTTPAddr = payload.HTTPAddr
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.Provider != "" {
		cfg.Provider = payload.Provider
	}
	if payload.Language != "" {
		cfg.Language = strings.TrimSpace(payload.Language)
	}
	if payload.LanguageMode != "" {
		cfg.LanguageMode = payload.LanguageMode
	}
	if payload.Slow != nil {
		cfg.Slow = *payload.Slow
	}
	if payload.TimeoutSec != nil {
		cfg.TimeoutSec = *payload.TimeoutSec
	}
	if payload.TLD != "" {
		cfg.TLD = strings.TrimSpace(payload.TLD)
	}
	if payload.CredentialsFile != "" {
		cfg.CredentialsFile = payload.CredentialsFile
	}
	if payload.MaxBodyBytes != nil {
		cfg.MaxBodyBytes = *payload.MaxBodyBytes
	}
	if payload.MaxTextChars != nil {
		cfg.MaxTextChars = *payload.MaxTextChars
	}
	if payload.CompatErrorStatus != nil {
		cfg.CompatErrorStatus = *payload.CompatErrorStatus
	}
	if payload.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = payload.OTLPEndpoint
	}
	if payload.OTLPInsecure != nil {
		cfg.OTLPInsecure = *payload.OTLPInsecure
	}
	if payload.TraceStdout != nil {
		cfg.TraceStdout = *payload.TraceStdout
	}
	if payload.UseStubSynthesizer != nil {
		cfg.UseStubSynthesizer = *payload.UseStubSynthesizer
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: invalid boolean %q", key, value)
	}
	*target = b
	return nil
}
