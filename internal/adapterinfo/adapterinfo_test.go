package adapterinfo

import "testing"

func TestParseManifest(t *testing.T) {
	data := []byte(`
metadata:
  name: Example TTS
  slug: tts-example
  version: 1.2.3
  generator: example
spec:
  entrypoint:
    command: ./tts-example-bin
`)
	meta, err := parseManifest(data)
	if err != nil {
		t.Fatalf("parseManifest: %v", err)
	}
	if meta.Name != "Example TTS" || meta.Slug != "tts-example" || meta.Version != "1.2.3" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.BinaryName != "tts-example-bin" {
		t.Fatalf("binary name = %q", meta.BinaryName)
	}
	if meta.GeneratorID != "example" {
		t.Fatalf("generator = %q", meta.GeneratorID)
	}
	if meta.Description != "Example TTS" {
		t.Fatalf("description fallback = %q", meta.Description)
	}
}

func TestParseManifestDefaults(t *testing.T) {
	meta, err := parseManifest([]byte("metadata:\n  slug: tts-min\n  version: 0.0.1\n"))
	if err != nil {
		t.Fatalf("parseManifest: %v", err)
	}
	if meta.Name != "tts-min" || meta.BinaryName != "tts-min" || meta.GeneratorID != "tts-min" {
		t.Fatalf("defaults not applied: %+v", meta)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := map[string]string{
		"missing version": "metadata:\n  slug: x\n",
		"missing slug":    "metadata:\n  version: 1.0.0\n",
		"bad yaml":        "metadata: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseManifest([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRepositoryManifest(t *testing.T) {
	if Info.Slug != "tts-remote-gtts" {
		t.Fatalf("slug = %q", Info.Slug)
	}
	md := SynthesisMetadata("stub", "en")
	if md["generator"] != Info.GeneratorID || md["provider"] != "stub" || md["language"] != "en" {
		t.Fatalf("unexpected synthesis metadata %v", md)
	}
	if got, want := UserAgent(), "tts-remote-gtts/"+Info.Version; got != want {
		t.Fatalf("user agent = %q, want %q", got, want)
	}
}
