package types

import (
	"github.com/ytget/ytresolve/internal/mimeext"
)

// Format describes one media rendition from the adaptive formats catalog.
type Format struct {
	Itag            int    `json:"itag"`
	URL             string `json:"url,omitempty"`
	MimeType        string `json:"mimeType"`
	QualityLabel    string `json:"qualityLabel,omitempty"`
	Bitrate         int    `json:"bitrate,omitempty"`
	ContentLength   string `json:"contentLength,omitempty"`
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	SignatureCipher string `json:"signatureCipher,omitempty"`
	// Cipher is the legacy name of SignatureCipher used by older page layouts.
	Cipher string `json:"cipher,omitempty"`
}

// IsVideo reports whether the format carries a video track.
func (f Format) IsVideo() bool {
	return mimeext.IsVideo(f.MimeType)
}

// Resolution returns width*height.
func (f Format) Resolution() int {
	return f.Width * f.Height
}

// Token returns the signature token, preferring signatureCipher over the legacy cipher key.
func (f Format) Token() string {
	if f.SignatureCipher != "" {
		return f.SignatureCipher
	}
	return f.Cipher
}

// RequiresDecode reports whether the URL must be rebuilt from the signature token.
func (f Format) RequiresDecode() bool {
	return f.URL == "" && f.Token() != ""
}

// VideoInfo describes a resolved video.
type VideoInfo struct {
	ID       string
	Title    string
	Formats  []Format
	Selected *Format
	// PlayerJSURL is set when the selected format needed the companion script.
	PlayerJSURL string
	Attempts    int
}
