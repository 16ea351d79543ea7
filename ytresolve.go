package ytresolve

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/ytget/ytresolve/client"
	"github.com/ytget/ytresolve/errs"
	"github.com/ytget/ytresolve/internal/jsengine"
	"github.com/ytget/ytresolve/internal/logger"
	"github.com/ytget/ytresolve/internal/rulecache"
	"github.com/ytget/ytresolve/types"
	"github.com/ytget/ytresolve/youtube/cipher"
	"github.com/ytget/ytresolve/youtube/formats"
)

const (
	watchURL = "https://www.youtube.com/watch?v="

	defaultMaxAttempts    = 5
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 3 * time.Second
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Fetcher is the transport the resolver depends on.
// client.Client implements it.
type Fetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
	Probe(ctx context.Context, rawURL string) (bool, error)
}

// Options contains configuration for resolve calls.
//
// Use chainable setters on Resolver to populate these options.
type Options struct {
	FormatSelector string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Resolver turns YouTube watch, shorts and youtu.be links into directly
// fetchable media URLs.
type Resolver struct {
	fetcher Fetcher
	decoder *cipher.Decoder
	options Options
}

// New creates a Resolver with the default client, an in-memory rule cache
// and pattern-only rule mining.
func New() *Resolver {
	return &Resolver{
		fetcher: client.New(),
		decoder: &cipher.Decoder{Miner: &cipher.Miner{}, Cache: rulecache.NewMemoryCache()},
		options: Options{
			MaxAttempts:    defaultMaxAttempts,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     defaultMaxBackoff,
		},
	}
}

// WithFetcher sets the transport used for page, script and probe requests.
func (r *Resolver) WithFetcher(f Fetcher) *Resolver {
	if f != nil {
		r.fetcher = f
	}
	return r
}

// WithFormat sets the format selector. Examples: "", "best", "itag=136",
// "height<=480", "ext=webm". The empty selector picks the format closest to 720p.
func (r *Resolver) WithFormat(selector string) *Resolver {
	r.options.FormatSelector = strings.TrimSpace(selector)
	return r
}

// WithMaxAttempts bounds the fetch-decode-probe loop. Values below 1 are raised to 1.
func (r *Resolver) WithMaxAttempts(n int) *Resolver {
	if n < 1 {
		n = 1
	}
	r.options.MaxAttempts = n
	return r
}

// WithBackoff sets the delay before the second attempt and its upper bound.
// The delay doubles after every failed attempt.
func (r *Resolver) WithBackoff(initial, max time.Duration) *Resolver {
	if initial < 0 {
		initial = 0
	}
	if max < initial {
		max = initial
	}
	r.options.InitialBackoff = initial
	r.options.MaxBackoff = max
	return r
}

// WithRuleCache sets the cache for mined rule tables. nil disables caching.
func (r *Resolver) WithRuleCache(c rulecache.Cache) *Resolver {
	r.decoder.Cache = c
	return r
}

// WithJSEngine enables behavioural classification of helper functions the
// patterns do not recognise. nil disables it.
func (r *Resolver) WithJSEngine(e jsengine.Engine) *Resolver {
	r.decoder.Miner = &cipher.Miner{Engine: e}
	return r
}

// WithStrict makes decoding fail with errs.ErrPartialCoverage instead of
// using a rule table with unclassified calls.
func (r *Resolver) WithStrict(strict bool) *Resolver {
	r.decoder.Strict = strict
	return r
}

// Decoder exposes the signature decoder, e.g. for cache statistics.
func (r *Resolver) Decoder() *cipher.Decoder {
	return r.decoder
}

// ResolveURL resolves link into a media URL that answered a reachability probe.
// A rejected probe repeats the whole resolve from a fresh page, with
// exponential backoff, up to MaxAttempts. Parse and decode failures abort
// immediately.
func (r *Resolver) ResolveURL(ctx context.Context, link string) (string, *types.VideoInfo, error) {
	log := logger.WithComponent(logger.ComponentResolver).With(map[string]interface{}{
		"request_id": uuid.NewString(),
	})

	videoID, err := ExtractVideoID(link)
	if err != nil {
		return "", nil, fmt.Errorf("extract video id: %w", err)
	}
	log.Info("Resolve started", map[string]interface{}{"video_id": videoID})

	maxAttempts := r.options.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := r.options.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", nil, fmt.Errorf("resolve %s: %w", videoID, err)
		}

		info, err := r.resolveOnce(ctx, videoID, true)
		if err != nil {
			return "", nil, err
		}
		info.Attempts = attempt
		mediaURL := info.Selected.URL

		ok, perr := r.fetcher.Probe(ctx, mediaURL)
		if ok {
			log.Info("Resolved", map[string]interface{}{
				"video_id": videoID,
				"itag":     info.Selected.Itag,
				"attempt":  attempt,
				"decoded":  info.PlayerJSURL != "",
			})
			return mediaURL, info, nil
		}
		if perr != nil {
			lastErr = perr
		} else {
			lastErr = fmt.Errorf("probe rejected itag %d", info.Selected.Itag)
		}
		log.Warn("Probe failed", map[string]interface{}{
			"video_id": videoID,
			"attempt":  attempt,
			"error":    lastErr.Error(),
		})

		if attempt == maxAttempts {
			break
		}
		if err := sleepContext(ctx, backoff); err != nil {
			return "", nil, fmt.Errorf("resolve %s: %w", videoID, err)
		}
		backoff *= 2
		if backoff > r.options.MaxBackoff {
			backoff = r.options.MaxBackoff
		}
	}
	return "", nil, fmt.Errorf("%w: %d attempt(s) for %s: %w", errs.ErrAttemptsExhausted, maxAttempts, videoID, lastErr)
}

// Formats fetches the watch page of link and returns its catalog with the
// format the current selector would pick. Nothing is decoded or probed.
func (r *Resolver) Formats(ctx context.Context, link string) (*types.VideoInfo, error) {
	videoID, err := ExtractVideoID(link)
	if err != nil {
		return nil, fmt.Errorf("extract video id: %w", err)
	}
	return r.resolveOnce(ctx, videoID, false)
}

// resolveOnce fetches the watch page, parses and selects, and with decode set
// fills in the URL of a token-encoded selection.
func (r *Resolver) resolveOnce(ctx context.Context, videoID string, decode bool) (*types.VideoInfo, error) {
	page, err := r.fetcher.FetchText(ctx, watchURL+videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}
	list, err := formats.ParseCatalog(page)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	chosen, err := formats.Select(list, r.options.FormatSelector)
	if err != nil {
		return nil, fmt.Errorf("select format: %w", err)
	}
	// A parse failure leaves doc nil; the title is then empty and the player
	// script is located from the raw text.
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(page))
	info := &types.VideoInfo{
		ID:       videoID,
		Title:    pageTitle(doc),
		Formats:  list,
		Selected: chosen,
	}
	if !decode || chosen.URL != "" {
		return info, nil
	}
	if chosen.Token() == "" {
		return nil, fmt.Errorf("%w: itag %d", errs.ErrMissingSignatureAndURL, chosen.Itag)
	}

	jsURL, err := cipher.PlayerJSURLFromDocument(doc, page)
	if err != nil {
		return nil, err
	}
	script, err := r.fetcher.FetchText(ctx, jsURL)
	if err != nil {
		return nil, cipher.Wrap(cipher.ErrCodePlayerJSDownload, "failed to download player.js", err, jsURL)
	}
	mediaURL, err := r.decoder.DecodeFormat(ctx, *chosen, script)
	if err != nil {
		return nil, fmt.Errorf("decode itag %d: %w", chosen.Itag, err)
	}
	chosen.URL = mediaURL
	info.PlayerJSURL = jsURL
	return info, nil
}

// ExtractVideoID derives the video id from a watch (?v=), youtu.be, shorts
// or embed link. The scheme may be omitted.
func ExtractVideoID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrNoVideoReference, err)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	var id string
	switch {
	case host == "youtu.be":
		id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/shorts/"), "/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/embed/"), "/")
		}
	}
	if !videoIDRe.MatchString(id) {
		return "", fmt.Errorf("%w: %s", errs.ErrNoVideoReference, link)
	}
	return id, nil
}

// pageTitle returns the og:title of a watch page, falling back to <title>.
func pageTitle(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	if t, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return strings.TrimSuffix(strings.TrimSpace(doc.Find("title").First().Text()), " - YouTube")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
