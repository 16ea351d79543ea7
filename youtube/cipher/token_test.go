package cipher

import (
	"errors"
	"testing"

	"github.com/ytget/ytresolve/errs"
)

func TestDecodeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"s%3Dabc%26url%3Dhttps%253A%252F%252Fx", "s=abc&url=https://x"},
		{"s=abc&url=https%3A%2F%2Fx", "s=abc&url=https://x"},
		{"plain", "plain"},
		{"bad%zzescape", "bad%zzescape"},
		{"s=ab%ZZcd&sp=sig&url=https%3A%2F%2Fh%2Fv", "s=ab%ZZcd&sp=sig&url=https://h/v"},
		{"trailing%2", "trailing%2"},
		{"a+b%2Bc", "a b c"},
	}
	for _, tt := range tests {
		if got := DecodeToken(tt.in); got != tt.want {
			t.Errorf("DecodeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInterpret_MalformedEscapeKeepsURLDecoded(t *testing.T) {
	got, err := Interpret(DecodeToken("s=ab%ZZcd&sp=sig&url=https%3A%2F%2Fh%2Fv"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "https://h/v&sig=ab%ZZcd"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"s=abcdef&sp=sig&url=https://x", "abcdef"},
		{"sig=AOq0=&url=https://x", "AOq0="},
		{"abcdef", "abcdef"},
	}
	for _, tt := range tests {
		if got := Signature(tt.in); got != tt.want {
			t.Errorf("Signature(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInterpret(t *testing.T) {
	program := Program{{Kind: KindReverse}, {Kind: KindSwap, Arg: 3}, {Kind: KindSlice, Arg: 2}}
	token := "s=abcdef&sp=sig&url=https://rr1.googlevideo.com/videoplayback?expire=1&id=x"
	got, err := Interpret(token, program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://rr1.googlevideo.com/videoplayback?expire=1&id=x&sig=dfba"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestInterpret_LastURLMarker(t *testing.T) {
	got, err := Interpret("s=ab&url=first&url=second", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "second&sig=ab" {
		t.Fatalf("got %q", got)
	}
}

func TestInterpret_Deterministic(t *testing.T) {
	program := Program{{Kind: KindSwap, Arg: 5}, {Kind: KindReverse}, {Kind: KindSlice, Arg: 1}}
	token := "s=AOq0QJ8wRgIhAJ&url=https://x/v"
	first, _ := Interpret(token, program)
	for i := 0; i < 5; i++ {
		if again, _ := Interpret(token, program); again != first {
			t.Fatalf("run %d: %q != %q", i, again, first)
		}
	}
}

func TestInterpret_MissingURL(t *testing.T) {
	for _, token := range []string{"s=abc&sp=sig", "s=abc&url="} {
		if _, err := Interpret(token, nil); !errors.Is(err, errs.ErrMissingSignatureAndURL) {
			t.Errorf("%q: want ErrMissingSignatureAndURL, got %v", token, err)
		}
	}
}
