package formats

import (
	"errors"
	"strings"
	"testing"

	"github.com/ytget/ytresolve/errs"
)

func TestScanBalanced(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"flat array", `[1,2,3]`, `[1,2,3]`},
		{"trailing text", `[{"a":[1]},{"b":{}}],"next":{"x":1}}; var y = [`, `[{"a":[1]},{"b":{}}]`},
		{"leading whitespace", " \n\t[ ]tail", `[ ]`},
		{"object", `{"k":[{}]}]]]`, `{"k":[{}]}`},
		{"brackets in strings", `[{"url":"https://x/?a=[1}&b=\"]\""}] rest`, `[{"url":"https://x/?a=[1}&b=\"]\""}]`},
		{"escaped backslash", `["a\\",{"b":"]"}]x`, `["a\\",{"b":"]"}]`},
	}
	for _, tc := range cases {
		got, err := ScanBalanced(tc.input)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestScanBalanced_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"missing closer", `[{"a":[1,2]}`},
		{"mismatch", `[{"a":1]]`},
		{"starts with closer", `]`},
		{"not a bracket", `"streamingData"`},
		{"empty", "   "},
		{"unterminated string", `["abc]`},
	}
	for _, tc := range cases {
		if _, err := ScanBalanced(tc.input); !errors.Is(err, errs.ErrMalformedCatalog) {
			t.Fatalf("%s: want ErrMalformedCatalog, got %v", tc.name, err)
		}
	}
}

const catalogPage = `<html><script>var ytInitialPlayerResponse = {"responseContext":{},
"streamingData":{"expiresInSeconds":"21540","formats":[{"itag":18}],
"adaptiveFormats": [
 {"itag":136,"url":"https://rr1---sn.googlevideo.com/videoplayback?itag=136","mimeType":"video/mp4; codecs=\"avc1.4d401f\"","bitrate":1500000,"width":1280,"height":720,"contentLength":"1234","qualityLabel":"720p"},
 {"itag":248,"mimeType":"video/webm; codecs=\"vp9\"","bitrate":2500000,"width":1920,"height":1080,"qualityLabel":"1080p","signatureCipher":"s=ABC&sp=sig&url=https%3A%2F%2Fx"},
 {"itag":140,"mimeType":"audio/mp4; codecs=\"mp4a.40.2\"","bitrate":130000,"cipher":"s=DEF&url=https%3A%2F%2Fy"}
]},"videoDetails":{"title":"x"}};</script></html>`

func TestParseCatalog(t *testing.T) {
	list, err := ParseCatalog(catalogPage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("want 3 formats, got %d", len(list))
	}
	if list[0].Itag != 136 || list[0].Width != 1280 || list[0].Height != 720 || list[0].ContentLength != "1234" {
		t.Fatalf("unexpected first format: %+v", list[0])
	}
	if !list[1].RequiresDecode() || list[1].Token() != "s=ABC&sp=sig&url=https%3A%2F%2Fx" {
		t.Fatalf("second format should carry a signature cipher: %+v", list[1])
	}
	if list[2].Token() != "s=DEF&url=https%3A%2F%2Fy" {
		t.Fatalf("legacy cipher key not decoded: %+v", list[2])
	}
	if list[2].IsVideo() {
		t.Fatal("audio format reported as video")
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	cases := []struct {
		name string
		page string
		want error
	}{
		{"no streaming data", `<html>"adaptiveFormats":[]</html>`, errs.ErrCatalogNotFound},
		{"no adaptive formats", `"streamingData":{"formats":[]}`, errs.ErrCatalogNotFound},
		{"unbalanced", `"streamingData":{"adaptiveFormats":[{"itag":1}`, errs.ErrMalformedCatalog},
		{"bad json", `"streamingData":{"adaptiveFormats":[{"itag":"x"}]}`, errs.ErrMalformedCatalog},
		{"not an array", `"streamingData":{"adaptiveFormats":null}`, errs.ErrMalformedCatalog},
	}
	for _, tc := range cases {
		list, err := ParseCatalog(tc.page)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, err)
		}
		if list != nil {
			t.Fatalf("%s: partial result returned", tc.name)
		}
	}
}

func TestParseCatalog_SelectsFromPage(t *testing.T) {
	list, err := ParseCatalog(strings.Replace(catalogPage, `"width":1920`, `"width":1280`, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := SelectClosest(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Itag != 136 {
		t.Fatalf("want itag 136, got %d", f.Itag)
	}
}
