package formats

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ytget/ytresolve/errs"
	"github.com/ytget/ytresolve/internal/logger"
	"github.com/ytget/ytresolve/types"
)

// anchorResolution is the HD reference (1280x720) formats are ranked against.
const anchorResolution = 1280 * 720

// VideoOnly returns the formats that carry a video track, preserving order.
func VideoOnly(list []types.Format) []types.Format {
	out := make([]types.Format, 0, len(list))
	for _, f := range list {
		if f.IsVideo() {
			out = append(out, f)
		}
	}
	return out
}

// SortByResolution returns a copy of list ordered by resolution descending.
// Bitrate (descending) and itag (ascending) break ties so the order does not
// depend on the input order.
func SortByResolution(list []types.Format) []types.Format {
	ordered := make([]types.Format, len(list))
	copy(ordered, list)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Resolution() != b.Resolution() {
			return a.Resolution() > b.Resolution()
		}
		if a.Bitrate != b.Bitrate {
			return a.Bitrate > b.Bitrate
		}
		return a.Itag < b.Itag
	})
	return ordered
}

// SelectClosest picks the video format whose resolution is closest to 1280x720.
// Candidates are scanned in descending resolution order and the first minimum
// wins, so equal distances resolve to the higher resolution.
func SelectClosest(list []types.Format) (*types.Format, error) {
	ordered := SortByResolution(VideoOnly(list))
	if len(ordered) == 0 {
		return nil, fmt.Errorf("%w: %d format(s), none with video", errs.ErrNoPlayableFormat, len(list))
	}
	best := 0
	bestDist := distanceToAnchor(ordered[0])
	for i := 1; i < len(ordered); i++ {
		if d := distanceToAnchor(ordered[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	chosen := ordered[best]
	return &chosen, nil
}

// Select chooses a video format according to selector.
// Supported selectors:
//   - "" or "hd": closest to 1280x720 (SelectClosest)
//   - best: highest quality (height, then bitrate)
//   - worst: lowest quality
//   - itag=NN: specific format by itag (e.g., "itag=136")
//   - height<=NNN: closest to HD among formats no taller than NNN
//   - height>=NNN: closest to HD among formats at least NNN tall
//   - ext=EXT: closest to HD among formats with the given MIME subtype
//
// A constraint that matches nothing falls back to SelectClosest over all video formats.
func Select(list []types.Format, selector string) (*types.Format, error) {
	videos := VideoOnly(list)
	if len(videos) == 0 {
		return nil, fmt.Errorf("%w: %d format(s), none with video", errs.ErrNoPlayableFormat, len(list))
	}
	log := logger.WithComponent(logger.ComponentFormat)

	q := strings.ToLower(strings.TrimSpace(selector))
	switch {
	case q == "" || q == "hd":
		return SelectClosest(videos)

	case q == "best" || q == "worst":
		pick := videos[0]
		for _, f := range videos[1:] {
			if q == "best" && betterByHeightThenBitrate(f, pick) {
				pick = f
			}
			if q == "worst" && betterByHeightThenBitrate(pick, f) {
				pick = f
			}
		}
		return &pick, nil

	case strings.HasPrefix(q, "itag="):
		it, err := strconv.Atoi(strings.TrimPrefix(q, "itag="))
		if err != nil {
			return nil, fmt.Errorf("invalid itag selector %q: %w", selector, err)
		}
		for i := range videos {
			if itagEquals(videos[i], it) {
				chosen := videos[i]
				return &chosen, nil
			}
		}

	case strings.HasPrefix(q, "height<=") || strings.HasPrefix(q, "height>="):
		v, err := strconv.Atoi(q[len("height<="):])
		if err != nil {
			return nil, fmt.Errorf("invalid height selector %q: %w", selector, err)
		}
		var minH, maxH int
		if q[6] == '<' {
			maxH = v
		} else {
			minH = v
		}
		filtered := videos[:0:0]
		for _, f := range videos {
			if withinHeight(f, minH, maxH) {
				filtered = append(filtered, f)
			}
		}
		if len(filtered) > 0 {
			return SelectClosest(filtered)
		}

	case strings.HasPrefix(q, "ext="):
		ext := strings.TrimPrefix(q, "ext=")
		filtered := videos[:0:0]
		for _, f := range videos {
			if mimeSubtypeEquals(f, ext) {
				filtered = append(filtered, f)
			}
		}
		if len(filtered) > 0 {
			return SelectClosest(filtered)
		}

	default:
		return nil, fmt.Errorf("unknown format selector %q", selector)
	}

	log.Debug("Selector matched nothing, using HD anchor", map[string]interface{}{"selector": selector})
	return SelectClosest(videos)
}
