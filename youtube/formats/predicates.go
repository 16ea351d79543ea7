// Package formats parses the adaptive formats catalog out of a watch page and
// picks the rendition to resolve.
package formats

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/ytresolve/internal/mimeext"
	"github.com/ytget/ytresolve/types"
)

var heightRe = regexp.MustCompile(`([0-9]{3,4})p`)

// heightOf returns the format height, falling back to the quality label
// ("720p60") for catalogs that omit the numeric field.
func heightOf(format types.Format) int {
	if format.Height > 0 {
		return format.Height
	}
	m := heightRe.FindStringSubmatch(format.QualityLabel)
	if len(m) >= 2 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v
		}
	}
	return 0
}

// mimeSubtypeEquals checks that MIME subtype (e.g., mp4, webm) equals desiredExt.
// The desiredExt is case-insensitive and may start with a dot.
// If desiredExt is empty, the function returns true (no filtering).
func mimeSubtypeEquals(format types.Format, desiredExt string) bool {
	desired := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(desiredExt)), ".")
	if desired == "" {
		return true
	}
	return mimeext.Subtype(format.MimeType) == desired
}

// itagEquals checks that format's itag matches the specified itag value.
// Returns false if itag is 0 or negative.
func itagEquals(format types.Format, itag int) bool {
	return itag > 0 && format.Itag == itag
}

// withinHeight checks whether the format height is within [minHeight, maxHeight].
// A bound of 0 is ignored.
func withinHeight(format types.Format, minHeight int, maxHeight int) bool {
	if minHeight <= 0 && maxHeight <= 0 {
		return true
	}
	h := heightOf(format)
	if minHeight > 0 && h < minHeight {
		return false
	}
	if maxHeight > 0 && h > maxHeight {
		return false
	}
	return true
}

// betterByHeightThenBitrate compares two formats and returns true when candidate is better than current
// using height as primary criterion and bitrate as a tiebreaker.
func betterByHeightThenBitrate(candidate types.Format, current types.Format) bool {
	candidateHeight := heightOf(candidate)
	currentHeight := heightOf(current)
	if candidateHeight != currentHeight {
		return candidateHeight > currentHeight
	}
	return candidate.Bitrate > current.Bitrate
}

// distanceToAnchor is |width*height - 1280*720|.
func distanceToAnchor(format types.Format) int {
	d := format.Resolution() - anchorResolution
	if d < 0 {
		return -d
	}
	return d
}
