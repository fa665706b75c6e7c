// Package cloudtts speaks text through the Google Cloud Text-to-Speech API.
package cloudtts

import (
	"context"
	"fmt"
	"io"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
)

// ProviderName labels this backend in logs, metrics and errors.
const ProviderName = "cloud"

// slowSpeakingRate is applied when a request asks for slow speech.
const slowSpeakingRate = 0.75

type synthesizeFunc func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)

// Client wraps the Cloud Text-to-Speech gRPC client.
type Client struct {
	synthesize synthesizeFunc
	close      func() error
}

// NewClient dials the Cloud TTS API. An empty credentialsFile uses
// application default credentials.
func NewClient(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*Client, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	tc, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cloudtts: create client: %w", err)
	}
	return &Client{
		synthesize: func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			return tc.SynthesizeSpeech(ctx, req)
		},
		close: tc.Close,
	}, nil
}

// Name implements provider.Named.
func (c *Client) Name() string { return ProviderName }

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Synthesize requests MP3 audio for req and writes it to w.
func (c *Client) Synthesize(ctx context.Context, w io.Writer, req provider.Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("cloudtts: text is required")
	}

	rate := 1.0
	if req.Slow {
		rate = slowSpeakingRate
	}

	resp, err := c.synthesize(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: LanguageCode(req.Language),
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  rate,
		},
	})
	if err != nil {
		return wrapError(err)
	}
	if len(resp.GetAudioContent()) == 0 {
		return fmt.Errorf("cloudtts: empty audio content")
	}
	if _, err := w.Write(resp.GetAudioContent()); err != nil {
		return fmt.Errorf("cloudtts: write audio: %w", err)
	}
	return nil
}

// LanguageCode converts the legacy lower-case codes used by the HTTP endpoint
// (en-uk, pt-br) into BCP-47 tags (en-GB, pt-BR).
func LanguageCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "en-uk" {
		return "en-GB"
	}
	lang, region, ok := strings.Cut(code, "-")
	if !ok {
		return lang
	}
	return lang + "-" + strings.ToUpper(region)
}

// wrapError marks transport-level gRPC failures as request errors so the
// adapter reports them as provider unavailability.
func wrapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("cloudtts: synthesize: %w", err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted,
		codes.Unauthenticated, codes.PermissionDenied, codes.Canceled:
		return &provider.RequestError{Provider: ProviderName, Err: err}
	default:
		return fmt.Errorf("cloudtts: synthesize: %w", err)
	}
}
