// Package gtts speaks text through the Google Translate web TTS endpoint, the
// same batchexecute RPC used by the translate.google.com "listen" button.
package gtts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
)

const (
	// ProviderName labels this backend in logs, metrics and errors.
	ProviderName = "gtranslate"

	// DefaultTimeout bounds a single chunk request.
	DefaultTimeout = 10 * time.Second

	batchPath = "/_/TranslateWebserverUi/data/batchexecute"
	rpcID     = "jQ1olc"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/51.0.2704.103 Safari/537.36"

	maxResponseBytes = 8 << 20
)

var audioPayload = regexp.MustCompile(`jQ1olc","\[\\"(.*)\\"]`)

// Client wraps HTTP calls to the translate TTS endpoint.
type Client struct {
	httpClient *http.Client
	tld        string
	baseURL    string // overrides https://translate.google.<tld> when set
}

// NewClient constructs a client. An empty tld lets the request language pick
// the Google domain; timeout <= 0 selects DefaultTimeout.
func NewClient(tld string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tld:        strings.TrimSpace(tld),
	}
}

// Name implements provider.Named.
func (c *Client) Name() string { return ProviderName }

// Synthesize tokenizes req.Text, requests audio for every chunk and writes the
// concatenated MP3 stream to w.
func (c *Client) Synthesize(ctx context.Context, w io.Writer, req provider.Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("gtts: text is required")
	}
	lang, tld, err := ResolveLanguage(req.Language, c.tld)
	if err != nil {
		return err
	}

	chunks := Tokenize(req.Text)
	if len(chunks) == 0 {
		return fmt.Errorf("gtts: no speakable text")
	}

	for i, chunk := range chunks {
		audio, err := c.fetch(ctx, tld, chunk, lang, req.Slow)
		if err != nil {
			return fmt.Errorf("gtts: chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if _, err := w.Write(audio); err != nil {
			return fmt.Errorf("gtts: write audio: %w", err)
		}
	}
	return nil
}

func (c *Client) endpoint(tld string) string {
	if c.baseURL != "" {
		return c.baseURL + batchPath
	}
	return fmt.Sprintf("https://translate.google.%s%s", tld, batchPath)
}

func (c *Client) fetch(ctx context.Context, tld, text, lang string, slow bool) ([]byte, error) {
	body, err := encodeRPC(text, lang, slow)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(tld), strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	httpReq.Header.Set("Referer", "http://translate.google.com/")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &provider.RequestError{Provider: ProviderName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.RequestError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Err:        errors.New(statusHint(resp.StatusCode, tld)),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &provider.RequestError{Provider: ProviderName, Err: fmt.Errorf("read response: %w", err)}
	}
	return decodeAudio(raw, lang)
}

// encodeRPC builds the form body for one batchexecute call. The inner
// parameter list is itself JSON encoded as a string, as the endpoint expects.
func encodeRPC(text, lang string, slow bool) (string, error) {
	var speed any
	if slow {
		speed = true
	}
	param, err := json.Marshal([]any{text, lang, speed, "null"})
	if err != nil {
		return "", err
	}
	rpc, err := json.Marshal([]any{[]any{[]any{rpcID, string(param), nil, "generic"}}})
	if err != nil {
		return "", err
	}
	return "f.req=" + url.QueryEscape(string(rpc)) + "&", nil
}

func decodeAudio(raw []byte, lang string) ([]byte, error) {
	var audio bytes.Buffer
	for _, line := range bytes.Split(raw, []byte("\n")) {
		if !bytes.Contains(line, []byte(rpcID)) {
			continue
		}
		m := audioPayload.FindSubmatch(line)
		if m == nil {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(string(m[1]))
		if err != nil {
			return nil, fmt.Errorf("decode audio: %w", err)
		}
		audio.Write(decoded)
	}
	if audio.Len() == 0 {
		return nil, fmt.Errorf("no audio stream in response (unsupported language %q?)", lang)
	}
	return audio.Bytes(), nil
}

func statusHint(code int, tld string) string {
	switch {
	case code == http.StatusForbidden:
		return "bad token or upstream API changes"
	case code == http.StatusNotFound:
		return fmt.Sprintf("unsupported tld %q", tld)
	case code == http.StatusTooManyRequests:
		return "too many requests"
	case code >= 500:
		return "upstream API error, try again later"
	default:
		return http.StatusText(code)
	}
}
