package gtts

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxChunkChars is the longest text the translate endpoint accepts per call.
const MaxChunkChars = 100

var (
	// hyphenated words broken across lines are joined back together.
	lineBreakHyphen = regexp.MustCompile(`-\r?\n`)

	// abbreviations whose trailing period must not end a sentence.
	abbreviation = regexp.MustCompile(`(?i)\b(dr|jr|mr|mrs|ms|msgr|prof|sr|st)\.`)

	// sentence and clause boundaries. Periods and commas only split when
	// followed by whitespace so decimals and thousands separators survive.
	boundary = regexp.MustCompile(`[?!？！]|[.,:](?:\s+|$)|[¡()\[\]¿…‥،;—。，、：\n]`)
)

// Tokenize splits text into speakable chunks of at most MaxChunkChars runes.
// Chunks that carry no letters or digits are dropped.
func Tokenize(text string) []string {
	text = lineBreakHyphen.ReplaceAllString(text, "")
	text = abbreviation.ReplaceAllString(text, "$1")

	var out []string
	for _, part := range boundary.Split(text, -1) {
		part = strings.TrimSpace(part)
		if !speakable(part) {
			continue
		}
		out = append(out, minimize(part, MaxChunkChars)...)
	}
	return out
}

// minimize cuts s into pieces of at most limit runes, preferring to cut at
// the last space inside the window.
func minimize(s string, limit int) []string {
	var out []string
	for utf8.RuneCountInString(s) > limit {
		runes := []rune(s)
		cut := limit
		for i := limit; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		head := strings.TrimSpace(string(runes[:cut]))
		if head != "" {
			out = append(out, head)
		}
		s = strings.TrimSpace(string(runes[cut:]))
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func speakable(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
