package formats

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ytget/ytresolve/errs"
	"github.com/ytget/ytresolve/internal/logger"
	"github.com/ytget/ytresolve/types"
)

const (
	streamingDataMarker   = `"streamingData"`
	adaptiveFormatsMarker = `"adaptiveFormats"`
)

// ParseCatalog extracts the adaptive formats catalog embedded in a watch page.
// The array following "streamingData" ... "adaptiveFormats" is cut out with
// ScanBalanced and decoded as JSON. Nothing is returned on failure.
func ParseCatalog(page string) ([]types.Format, error) {
	i := strings.Index(page, streamingDataMarker)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s marker missing", errs.ErrCatalogNotFound, streamingDataMarker)
	}
	rest := page[i+len(streamingDataMarker):]
	j := strings.Index(rest, adaptiveFormatsMarker)
	if j < 0 {
		return nil, fmt.Errorf("%w: %s marker missing", errs.ErrCatalogNotFound, adaptiveFormatsMarker)
	}
	rest = strings.TrimLeft(rest[j+len(adaptiveFormatsMarker):], " \t\r\n:")

	raw, err := ScanBalanced(rest)
	if err != nil {
		return nil, err
	}

	var list []types.Format
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", errs.ErrMalformedCatalog, err)
	}
	logger.WithComponent(logger.ComponentFormat).Debug("Catalog parsed", map[string]interface{}{
		"formats": len(list),
		"bytes":   len(raw),
	})
	return list, nil
}

// ScanBalanced returns the bracketed JSON value text starts with, up to and
// including the bracket that closes it. Leading whitespace is skipped and
// anything after the closing bracket is ignored. Brackets inside string
// literals are not counted.
func ScanBalanced(text string) (string, error) {
	start := 0
	for start < len(text) && isSpace(text[start]) {
		start++
	}
	if start == len(text) {
		return "", fmt.Errorf("%w: empty input", errs.ErrMalformedCatalog)
	}
	if c := text[start]; c != '[' && c != '{' {
		return "", fmt.Errorf("%w: unexpected %q at offset %d", errs.ErrMalformedCatalog, c, start)
	}

	stack := make([]byte, 0, 16)
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			stack = append(stack, c)
		case ']', '}':
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: unexpected %q at offset %d", errs.ErrMalformedCatalog, c, i)
			}
			open := stack[len(stack)-1]
			if (c == ']' && open != '[') || (c == '}' && open != '{') {
				return "", fmt.Errorf("%w: %q closed by %q at offset %d", errs.ErrMalformedCatalog, open, c, i)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: %d unclosed bracket(s)", errs.ErrMalformedCatalog, len(stack))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
