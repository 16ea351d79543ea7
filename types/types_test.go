package types

import (
	"testing"
)

func TestFormatResolution(t *testing.T) {
	format := Format{Width: 1280, Height: 720}
	if got := format.Resolution(); got != 921600 {
		t.Errorf("Expected resolution 921600, got %d", got)
	}
	if (Format{}).Resolution() != 0 {
		t.Errorf("Expected zero resolution for zero value")
	}
}

func TestFormatIsVideo(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"video/mp4; codecs=\"avc1.4d401f\"", true},
		{"video/webm; codecs=\"vp9\"", true},
		{"audio/mp4; codecs=\"mp4a.40.2\"", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := (Format{MimeType: tt.mime}).IsVideo(); got != tt.want {
			t.Errorf("IsVideo(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestFormatRequiresDecode(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   bool
	}{
		{name: "direct url", format: Format{URL: "https://example.com/v"}, want: false},
		{name: "token only", format: Format{SignatureCipher: "s=abc&url=x"}, want: true},
		{name: "legacy cipher only", format: Format{Cipher: "s=abc&url=x"}, want: true},
		{name: "url and token", format: Format{URL: "https://example.com/v", SignatureCipher: "s=abc"}, want: false},
		{name: "neither", format: Format{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.RequiresDecode(); got != tt.want {
				t.Errorf("RequiresDecode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatTokenPrefersSignatureCipher(t *testing.T) {
	f := Format{SignatureCipher: "new", Cipher: "old"}
	if f.Token() != "new" {
		t.Errorf("Expected signatureCipher to win, got %q", f.Token())
	}
}
