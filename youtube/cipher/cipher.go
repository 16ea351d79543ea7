package cipher

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"

	"github.com/ytget/ytresolve/internal/logger"
	"github.com/ytget/ytresolve/internal/rulecache"
	"github.com/ytget/ytresolve/types"
)

const (
	ytBase          = "https://www.youtube.com"
	playerJSURLRe   = `"jsUrl":"([^"]+)"`
	playerPathRe    = `/s/player/[\w.\-]+/(?:[\w.\-]+/)*base\.js`
	baseJSName      = "/base.js"
	jsURLGroupIndex = 1 // capture group index for jsUrl
)

var (
	playerJSURLRegex  = regexp.MustCompile(playerJSURLRe)
	playerPathRegex   = regexp.MustCompile(playerPathRe)
	escapedSlashRegex = regexp.MustCompile(`\\/|\\u002[fF]`)
)

// PlayerJSURL finds the companion player script referenced by a watch page
// and returns its absolute URL. A <script src> ending in base.js is preferred,
// then any /s/player/.../base.js path in the text, then the "jsUrl" field.
func PlayerJSURL(page string) (string, error) {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(page))
	return PlayerJSURLFromDocument(doc, page)
}

// PlayerJSURLFromDocument is PlayerJSURL for a page the caller already parsed.
// doc may be nil, in which case only the text of page is searched.
func PlayerJSURLFromDocument(doc *goquery.Document, page string) (string, error) {
	if src := scriptSrc(doc); src != "" {
		return absoluteURL(src), nil
	}
	if p := playerPathRegex.FindString(page); p != "" {
		return absoluteURL(p), nil
	}
	matches := playerJSURLRegex.FindStringSubmatch(page)
	if len(matches) > jsURLGroupIndex && matches[jsURLGroupIndex] != "" {
		return absoluteURL(escapedSlashRegex.ReplaceAllString(matches[jsURLGroupIndex], "/")), nil
	}
	return "", NewError(ErrCodePlayerJSNotFound, "could not find player js url in video page")
}

func scriptSrc(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	var found string
	doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		path, _, _ := strings.Cut(src, "?")
		if strings.HasSuffix(path, baseJSName) {
			found = src
			return false
		}
		return true
	})
	return found
}

func absoluteURL(p string) string {
	switch {
	case strings.HasPrefix(p, "https://"), strings.HasPrefix(p, "http://"):
		return p
	case strings.HasPrefix(p, "//"):
		return "https:" + p
	case strings.HasPrefix(p, "/"):
		return ytBase + p
	}
	return ytBase + "/" + p
}

// Decoder turns signature tokens into URLs using rules mined from a player
// script. Rule tables are cached by script content when Cache is set.
type Decoder struct {
	Miner *Miner
	Cache rulecache.Cache
	// Strict rejects rule tables with unclassified calls instead of
	// decoding with the partial program.
	Strict bool

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats returns rule cache hits and misses since the decoder was created.
func (d *Decoder) Stats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}

// Rules returns the mined rules for script, consulting the cache first.
func (d *Decoder) Rules(ctx context.Context, script string) (*MineResult, error) {
	log := logger.WithComponent(logger.ComponentCache)
	key := rulecache.KeyFromScript(script)
	if d.Cache != nil {
		if b, ok := d.Cache.Get(key); ok {
			var res MineResult
			if err := json.Unmarshal(b, &res); err == nil {
				d.hits.Add(1)
				log.Debug("Rule cache hit", map[string]interface{}{"key": key[:12]})
				return &res, nil
			}
			log.Warn("Discarding unreadable cache entry", map[string]interface{}{"key": key[:12]})
		}
	}
	d.misses.Add(1)

	miner := d.Miner
	if miner == nil {
		miner = &Miner{}
	}
	res, err := miner.Mine(ctx, script)
	if err != nil {
		return nil, err
	}
	if d.Cache != nil {
		if b, err := json.Marshal(res); err == nil {
			d.Cache.Set(key, b)
		}
	}
	return res, nil
}

// DecodeFormat returns the playable URL of f. Formats with a direct URL are
// returned as-is; otherwise the signature token is replayed against the rules
// mined from script.
func (d *Decoder) DecodeFormat(ctx context.Context, f types.Format, script string) (string, error) {
	if f.URL != "" {
		return f.URL, nil
	}
	token := f.Token()
	if token == "" {
		return "", NewError(ErrCodeSignatureMissing, "format has neither url nor signature cipher", map[string]int{"itag": f.Itag})
	}

	res, err := d.Rules(ctx, script)
	if err != nil {
		return "", err
	}
	if !res.Complete() {
		logger.WithComponent(logger.ComponentCipher).Warn("Partial cipher coverage", map[string]interface{}{
			"entry":      res.EntryPoint,
			"unresolved": strings.Join(res.Unresolved, ","),
			"engine":     strings.Join(res.EngineErrors, "; "),
			"strict":     d.Strict,
		})
		if d.Strict {
			return "", NewError(ErrCodePartialCoverage, "unclassified cipher calls", res.Unresolved)
		}
	}

	u, err := Interpret(DecodeToken(token), res.Program)
	if err != nil {
		return "", Wrap(ErrCodeSignatureMissing, "signature token unusable", err, map[string]int{"itag": f.Itag})
	}
	return u, nil
}
