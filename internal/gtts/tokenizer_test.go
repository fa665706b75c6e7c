package gtts

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "hello", []string{"hello"}},
		{"sentences", "One. Two! Three?", []string{"One", "Two", "Three"}},
		{"decimal kept", "Pi is 3.14 roughly.", []string{"Pi is 3.14 roughly"}},
		{"thousands kept", "It cost 1,000 dollars", []string{"It cost 1,000 dollars"}},
		{"abbreviation kept", "Dr. Smith arrived.", []string{"Dr Smith arrived"}},
		{"hyphen line break", "inter-\nnational", []string{"international"}},
		{"newlines split", "line one\nline two", []string{"line one", "line two"}},
		{"punctuation only dropped", "... ?! ,", nil},
		{"cjk", "你好。世界", []string{"你好", "世界"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeLongTextRespectsLimit(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	tokens := Tokenize(long)
	if len(tokens) < 2 {
		t.Fatalf("got %d tokens, want long text split", len(tokens))
	}
	for i, tok := range tokens {
		if n := utf8.RuneCountInString(tok); n > MaxChunkChars {
			t.Errorf("token %d has %d runes, limit %d", i, n, MaxChunkChars)
		}
		if strings.HasPrefix(tok, " ") || strings.HasSuffix(tok, " ") {
			t.Errorf("token %d not trimmed: %q", i, tok)
		}
	}
	if got, want := strings.Join(tokens, " "), strings.TrimSpace(long); got != want {
		t.Error("rejoined tokens lost words")
	}
}

func TestTokenizeHardCutWithoutSpaces(t *testing.T) {
	word := strings.Repeat("a", 250)
	tokens := Tokenize(word)
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3", len(tokens))
	}
	if len(tokens[0]) != 100 || len(tokens[1]) != 100 || len(tokens[2]) != 50 {
		t.Errorf("token sizes = %d/%d/%d, want 100/100/50", len(tokens[0]), len(tokens[1]), len(tokens[2]))
	}
}
