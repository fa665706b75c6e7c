package gtts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nupi-ai/plugin-tts-remote-gtts/internal/provider"
)

// batchReply renders a batchexecute response carrying audio for one chunk.
func batchReply(audio []byte) string {
	b64 := base64.StdEncoding.EncodeToString(audio)
	return ")]}'\n\n123\n" + `[["wrb.fr","jQ1olc","[\"` + b64 + `\"]",null,null,null,"generic"]]` + "\n58\n" + `[["di",42],["af.httprm",41,"-1",3]]` + "\n"
}

// decodeParams extracts [text, lang, speed, "null"] from a batchexecute form body.
func decodeParams(t *testing.T, r *http.Request) []any {
	t.Helper()
	if err := r.ParseForm(); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	var rpc [][][]any
	if err := json.Unmarshal([]byte(r.PostForm.Get("f.req")), &rpc); err != nil {
		t.Fatalf("unmarshal f.req: %v", err)
	}
	if rpc[0][0][0] != "jQ1olc" {
		t.Fatalf("rpc id = %v, want jQ1olc", rpc[0][0][0])
	}
	var params []any
	if err := json.Unmarshal([]byte(rpc[0][0][1].(string)), &params); err != nil {
		t.Fatalf("unmarshal params: %v", err)
	}
	return params
}

func testClient(srv *httptest.Server) *Client {
	return &Client{
		httpClient: srv.Client(),
		baseURL:    srv.URL,
	}
}

func TestSynthesizeSuccess(t *testing.T) {
	mp3 := []byte{0xFF, 0xFB, 0x90, 0xC4, 0x00, 0x01}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != batchPath {
			t.Errorf("path = %q, want %q", r.URL.Path, batchPath)
		}
		w.Write([]byte(batchReply(mp3)))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := testClient(srv).Synthesize(context.Background(), &buf, provider.Request{Text: "hello", Language: "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), mp3) {
		t.Errorf("audio = % x, want % x", buf.Bytes(), mp3)
	}
}

func TestSynthesizeRequestBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.Header.Get("Referer") == "" {
			t.Error("Referer header missing")
		}
		params := decodeParams(t, r)
		if params[0] != "hello world" {
			t.Errorf("text = %v, want %q", params[0], "hello world")
		}
		if params[1] != "en" {
			t.Errorf("lang = %v, want %q", params[1], "en")
		}
		if params[2] != true {
			t.Errorf("speed = %v, want true for slow speech", params[2])
		}
		if params[3] != "null" {
			t.Errorf("params[3] = %v, want %q", params[3], "null")
		}
		w.Write([]byte(batchReply([]byte{1})))
	}))
	defer srv.Close()

	err := testClient(srv).Synthesize(context.Background(), &bytes.Buffer{}, provider.Request{
		Text:     "hello world",
		Language: "en-uk",
		Slow:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSynthesizeNormalSpeedSendsNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := decodeParams(t, r)
		if params[2] != nil {
			t.Errorf("speed = %v, want null for normal speech", params[2])
		}
		w.Write([]byte(batchReply([]byte{1})))
	}))
	defer srv.Close()

	err := testClient(srv).Synthesize(context.Background(), &bytes.Buffer{}, provider.Request{Text: "hi", Language: "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSynthesizeConcatenatesChunks(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := decodeParams(t, r)
		mu.Lock()
		texts = append(texts, params[0].(string))
		n := len(texts)
		mu.Unlock()
		w.Write([]byte(batchReply([]byte{byte(n)})))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := testClient(srv).Synthesize(context.Background(), &buf, provider.Request{
		Text:     "First sentence. Second sentence! Third?",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(texts) != 3 {
		t.Fatalf("got %d chunk requests, want 3: %q", len(texts), texts)
	}
	if !bytes.Equal(buf.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("audio = %v, want chunks in order [1 2 3]", buf.Bytes())
	}
}

func TestSynthesizeStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := testClient(srv).Synthesize(context.Background(), &buf, provider.Request{Text: "hello", Language: "en"})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	var reqErr *provider.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error %v is not a *provider.RequestError", err)
	}
	if reqErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", reqErr.StatusCode)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes on failure, want 0", buf.Len())
	}
}

func TestSynthesizeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := testClient(srv)
	srv.Close()

	err := c.Synthesize(context.Background(), &bytes.Buffer{}, provider.Request{Text: "hello", Language: "en"})
	var reqErr *provider.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error %v is not a *provider.RequestError", err)
	}
	if reqErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport failure", reqErr.StatusCode)
	}
}

func TestSynthesizeNoAudioInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(")]}'\n\n[[\"wrb.fr\",\"other\",null]]\n"))
	}))
	defer srv.Close()

	err := testClient(srv).Synthesize(context.Background(), &bytes.Buffer{}, provider.Request{Text: "hello", Language: "en"})
	if err == nil {
		t.Fatal("expected error when response carries no audio")
	}
	var reqErr *provider.RequestError
	if errors.As(err, &reqErr) {
		t.Error("missing audio should not be reported as a request-layer failure")
	}
}

func TestSynthesizeUnsupportedLanguage(t *testing.T) {
	c := &Client{baseURL: "http://127.0.0.1:0"}
	err := c.Synthesize(context.Background(), &bytes.Buffer{}, provider.Request{Text: "hello", Language: "klingon"})
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("err = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	c := &Client{baseURL: "http://127.0.0.1:0"}
	if err := c.Synthesize(context.Background(), &bytes.Buffer{}, provider.Request{Text: "   ", Language: "en"}); err == nil {
		t.Fatal("expected error for blank text")
	}
	if err := c.Synthesize(context.Background(), &bytes.Buffer{}, provider.Request{Text: "?!", Language: "en"}); err == nil {
		t.Fatal("expected error for punctuation-only text")
	}
}

func TestEndpointUsesTLD(t *testing.T) {
	c := NewClient("", 0)
	if got, want := c.endpoint("co.uk"), "https://translate.google.co.uk"+batchPath; got != want {
		t.Errorf("endpoint = %q, want %q", got, want)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}
