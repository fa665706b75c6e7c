package server

import (
	"strings"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/config"
)

// languageMetadataKey carries the client's ISO 639-1 code in NAP requests.
const languageMetadataKey = "nupi.lang.iso1"

// resolveLanguage returns the language for a gRPC synthesis request.
//
// Modes:
//   - "client": read nupi.lang.iso1 from metadata; fall back to configured.
//   - other:    return configured verbatim and ignore metadata.
func resolveLanguage(mode, configured string, metadata map[string]string) string {
	if mode != config.LanguageModeClient {
		return configured
	}
	if code := strings.TrimSpace(metadata[languageMetadataKey]); code != "" {
		return code
	}
	return configured
}
