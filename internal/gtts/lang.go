package gtts

import (
	"fmt"
	"strings"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
)

// DefaultTLD is the Google domain used when neither the configuration nor a
// regional language alias selects one.
const DefaultTLD = "com"

// ErrUnsupportedLanguage is returned by ResolveLanguage for codes the
// translate endpoint cannot speak.
var ErrUnsupportedLanguage = fmt.Errorf("gtts: %w", provider.ErrUnsupportedLanguage)

type accent struct {
	lang string
	tld  string
}

// regionalAliases maps legacy regional codes (en-uk, pt-br, ...) onto a base
// language and the Google domain that produces the matching accent.
var regionalAliases = map[string]accent{
	"en-uk": {"en", "co.uk"},
	"en-gb": {"en", "co.uk"},
	"en-us": {"en", "us"},
	"en-au": {"en", "com.au"},
	"en-ca": {"en", "ca"},
	"en-in": {"en", "co.in"},
	"en-ie": {"en", "ie"},
	"en-za": {"en", "co.za"},
	"en-ng": {"en", "com.ng"},
	"fr-ca": {"fr", "ca"},
	"fr-fr": {"fr", "fr"},
	"pt-br": {"pt", "com.br"},
	"pt-pt": {"pt", "pt"},
	"es-es": {"es", "es"},
	"es-mx": {"es", "com.mx"},
	"es-us": {"es", "us"},
	"zh-cn": {"zh-CN", ""},
	"zh-tw": {"zh-TW", ""},
}

// supportedLanguages lists the codes accepted by the translate TTS endpoint,
// keyed by their lower-case form.
var supportedLanguages = func() map[string]string {
	codes := []string{
		"af", "am", "ar", "bg", "bn", "bs", "ca", "cs", "cy", "da", "de", "el",
		"en", "es", "et", "eu", "fi", "fr", "fr-CA", "gl", "gu", "ha", "hi", "hr",
		"hu", "id", "is", "it", "iw", "ja", "jw", "km", "kn", "ko", "la", "lt",
		"lv", "ml", "mr", "ms", "my", "ne", "nl", "no", "pa", "pl", "pt", "pt-PT",
		"ro", "ru", "si", "sk", "sq", "sr", "su", "sv", "sw", "ta", "te", "th",
		"tl", "tr", "uk", "ur", "vi", "yue", "zh", "zh-CN", "zh-TW",
	}
	m := make(map[string]string, len(codes))
	for _, c := range codes {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// ResolveLanguage normalises code into the form the endpoint expects and picks
// the Google domain to query. A non-empty tld always wins over the domain
// implied by a regional alias.
func ResolveLanguage(code, tld string) (string, string, error) {
	key := strings.ToLower(strings.TrimSpace(code))
	tld = strings.TrimSpace(tld)

	if alias, ok := regionalAliases[key]; ok {
		if tld == "" {
			tld = alias.tld
		}
		key = strings.ToLower(alias.lang)
	}
	if tld == "" {
		tld = DefaultTLD
	}

	lang, ok := supportedLanguages[key]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return lang, tld, nil
}
