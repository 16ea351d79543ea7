package formats

import (
	"testing"

	"github.com/ytget/ytresolve/types"
)

func TestHeightOf(t *testing.T) {
	cases := []struct {
		name string
		f    types.Format
		want int
	}{
		{"numeric", types.Format{Height: 720, QualityLabel: "1080p"}, 720},
		{"label", types.Format{QualityLabel: "480p"}, 480},
		{"label fps", types.Format{QualityLabel: "1440p60"}, 1440},
		{"none", types.Format{}, 0},
	}
	for _, tc := range cases {
		if got := heightOf(tc.f); got != tc.want {
			t.Fatalf("%s: heightOf=%d want %d", tc.name, got, tc.want)
		}
	}
}

func TestMimeSubtypeEquals(t *testing.T) {
	f := types.Format{MimeType: "video/mp4; codecs=\"avc1.64001F\""}
	if !mimeSubtypeEquals(f, "mp4") {
		t.Fatal("mp4 should match")
	}
	if !mimeSubtypeEquals(f, ".mp4") {
		t.Fatal(".mp4 should match")
	}
	if mimeSubtypeEquals(f, "webm") {
		t.Fatal("webm should not match mp4")
	}
	if !mimeSubtypeEquals(f, "") {
		t.Fatal("empty ext should match anything")
	}
}

func TestItagEquals(t *testing.T) {
	f := types.Format{Itag: 136}
	if !itagEquals(f, 136) {
		t.Fatal("136 should match")
	}
	if itagEquals(types.Format{}, 0) {
		t.Fatal("zero itag should never match")
	}
}

func TestWithinHeight(t *testing.T) {
	f := types.Format{Height: 720}
	if !withinHeight(f, 0, 0) {
		t.Fatal("no bounds should pass")
	}
	if !withinHeight(f, 480, 1080) {
		t.Fatal("720p should be within 480..1080")
	}
	if withinHeight(f, 1080, 0) {
		t.Fatal("720p should not be >=1080")
	}
	if withinHeight(f, 0, 360) {
		t.Fatal("720p should not be <=360")
	}
}

func TestBetterByHeightThenBitrate(t *testing.T) {
	a := types.Format{Height: 720, Bitrate: 1}
	b := types.Format{Height: 1080, Bitrate: 1}
	if !betterByHeightThenBitrate(b, a) {
		t.Fatal("1080p should be better than 720p")
	}
	c := types.Format{Height: 720, Bitrate: 100}
	if !betterByHeightThenBitrate(c, a) {
		t.Fatal("higher bitrate should be better at same height")
	}
}

func TestDistanceToAnchor(t *testing.T) {
	if d := distanceToAnchor(types.Format{Width: 1280, Height: 720}); d != 0 {
		t.Fatalf("anchor distance=%d", d)
	}
	below := distanceToAnchor(types.Format{Width: 854, Height: 480})
	above := distanceToAnchor(types.Format{Width: 1920, Height: 1080})
	if below != 1280*720-854*480 || above != 1920*1080-1280*720 {
		t.Fatalf("unexpected distances below=%d above=%d", below, above)
	}
}
