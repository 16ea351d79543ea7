package cipher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ytget/ytresolve/errs"
)

const (
	urlMarker = "&url="
	sigParam  = "&sig="
)

var signatureParamRe = regexp.MustCompile(`^\w+=`)

// DecodeToken URL-decodes a signature cipher token twice. "+" becomes a
// space and valid %XX escapes are decoded; malformed escapes are kept as-is
// so one bad escape does not stop the rest from decoding.
func DecodeToken(token string) string {
	for i := 0; i < 2; i++ {
		token = unescapeLenient(token)
	}
	return token
}

func unescapeLenient(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	}
	return c - 'A' + 10
}

// Signature returns the raw signature carried by a decoded token: the first
// "&"-separated segment without its "name=" prefix.
func Signature(token string) string {
	first, _, _ := strings.Cut(token, "&")
	return signatureParamRe.ReplaceAllString(first, "")
}

// Interpret replays program against the signature in token and returns the
// media URL: the text after the last "&url=" followed by "&sig=<signature>".
// token must already be decoded (see DecodeToken).
func Interpret(token string, program Program) (string, error) {
	i := strings.LastIndex(token, urlMarker)
	if i < 0 {
		return "", fmt.Errorf("%w: token has no %q part", errs.ErrMissingSignatureAndURL, urlMarker)
	}
	base := token[i+len(urlMarker):]
	if base == "" {
		return "", fmt.Errorf("%w: empty url in token", errs.ErrMissingSignatureAndURL)
	}
	return base + sigParam + program.Apply(Signature(token)), nil
}
