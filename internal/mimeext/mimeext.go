package mimeext

import (
	"strings"
)

const (
	// DefaultExt is the extension used when MIME is unknown or empty.
	DefaultExt = "mp4"

	// ExtM4A is the file extension for MP4 audio.
	ExtM4A = "m4a"
	// ExtWebM is the file extension for WebM media.
	ExtWebM = "webm"

	// MimeVideoMP4 is the MIME type for MP4 video.
	MimeVideoMP4 = "video/mp4"
	// MimeAudioMP4 is the MIME type for MP4 audio.
	MimeAudioMP4 = "audio/mp4"
	// MimeVideoWebM is the MIME type for WebM video.
	MimeVideoWebM = "video/webm"
	// MimeAudioWebM is the MIME type for WebM audio.
	MimeAudioWebM = "audio/webm"

	videoToken = "video"
)

// base strips MIME parameters (codecs etc.) and lowercases the remainder.
func base(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime
}

// IsVideo reports whether the MIME type names a video track.
func IsVideo(mime string) bool {
	return strings.Contains(base(mime), videoToken)
}

// Subtype returns the MIME subtype ("mp4" for "video/mp4; codecs=...") or "".
func Subtype(mime string) string {
	parts := strings.Split(base(mime), "/")
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

// ExtFromMime returns file extension (without dot) for given mime type.
// Falls back to subtype or mp4 if unknown.
func ExtFromMime(mime string) string {
	b := base(mime)
	if b == "" {
		return DefaultExt
	}
	switch b {
	case MimeVideoMP4:
		return DefaultExt
	case MimeAudioMP4:
		return ExtM4A
	case MimeVideoWebM, MimeAudioWebM:
		return ExtWebM
	}
	if sub := Subtype(b); sub != "" {
		return sub
	}
	return DefaultExt
}
