// Package tiktok resolves TikTok video pages into their download address.
//
// Every decode starts a fresh anonymous session: the cookies TikTok sets on
// its landing page are replayed on the page request, and the address is cut
// out of the embedded state script.
package tiktok

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/ytget/ytresolve/client"
	"github.com/ytget/ytresolve/errs"
	"github.com/ytget/ytresolve/internal/logger"
)

const (
	// BaseURL is the TikTok origin used for the cookie handshake and Referer.
	BaseURL = "https://www.tiktok.com/"

	userAgent = "PostmanRuntime/7.32.2"

	downloadAddrKey = `"downloadAddr":`
	// downloadAddrWindow bounds how far past the key the address may start.
	downloadAddrWindow = 1024
)

var (
	stateScriptRe = regexp.MustCompile(`<script id="(?:SIGI_STATE|__UNIVERSAL_DATA_FOR_REHYDRATION__)".*>`)
	sourceURLRe   = regexp.MustCompile(`https:[\\\w\-.?=&%~]+`)
)

// Service implements ytresolve.Service for tiktok.com links.
type Service struct {
	client  *client.Client
	baseURL string
}

// New creates a Service over c. A nil client uses client.New().
func New(c *client.Client) *Service {
	if c == nil {
		c = client.New()
	}
	return &Service{client: c, baseURL: BaseURL}
}

// WithBaseURL points the cookie handshake and Referer at another origin.
func (s *Service) WithBaseURL(base string) *Service {
	if base != "" {
		s.baseURL = base
	}
	return s
}

// ServiceBaseURL returns the origin the service talks to.
func (s *Service) ServiceBaseURL() string {
	return s.baseURL
}

// Matches reports whether link is on tiktok.com.
func (s *Service) Matches(link string) bool {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com")
}

// RefreshCookies performs a HEAD request against the origin and returns the
// cookies it sets, formatted for a Cookie header.
func (s *Service) RefreshCookies(ctx context.Context) (string, error) {
	resp, err := s.client.Head(ctx, s.baseURL, http.Header{
		"User-Agent": []string{userAgent},
		"Accept":     []string{"*/*"},
	})
	if err != nil {
		return "", fmt.Errorf("refresh cookies: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	pairs := make([]string, 0, len(resp.Cookies()))
	for _, c := range resp.Cookies() {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	logger.WithComponent(logger.ComponentTikTok).Debug("Cookies refreshed", map[string]interface{}{
		"count":  len(pairs),
		"status": resp.StatusCode,
	})
	return strings.Join(pairs, "; "), nil
}

// DecodeURL fetches the video page at link and returns its download address.
// Pages without the state script, or whose state has no address, yield
// errs.ErrURLNotFound.
func (s *Service) DecodeURL(ctx context.Context, link string) (string, error) {
	log := logger.WithComponent(logger.ComponentTikTok)

	cookies, err := s.RefreshCookies(ctx)
	if err != nil {
		return "", err
	}
	header := http.Header{
		"User-Agent": []string{userAgent},
		"Accept":     []string{"*/*"},
		"Referer":    []string{s.baseURL},
	}
	if cookies != "" {
		header.Set("Cookie", cookies)
	}
	html, err := s.client.FetchTextWith(ctx, link, header)
	if err != nil {
		return "", fmt.Errorf("fetch video page: %w", err)
	}

	src, err := ExtractSourceURL(html)
	if err != nil {
		log.Warn("No download address", map[string]interface{}{"url": link, "bytes": len(html)})
		return "", err
	}
	log.Info("Resolved", map[string]interface{}{"url": link})
	return src, nil
}

// ExtractSourceURL cuts the download address out of a video page.
func ExtractSourceURL(html string) (string, error) {
	if !stateScriptRe.MatchString(html) {
		return "", fmt.Errorf("%w: page has no state script", errs.ErrURLNotFound)
	}
	src := sourceURLRe.FindString(downloadAddrProperty(html))
	if src == "" {
		return "", fmt.Errorf("%w: no downloadAddr in page state", errs.ErrURLNotFound)
	}
	src = strings.ReplaceAll(src, `\u002F`, "/")
	if _, err := url.Parse(src); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrURLNotFound, err)
	}
	return src, nil
}

// downloadAddrProperty returns the text that follows the first "downloadAddr"
// key on the same line, at most downloadAddrWindow bytes of it.
func downloadAddrProperty(html string) string {
	i := strings.Index(html, downloadAddrKey)
	if i < 0 {
		return ""
	}
	rest := html[i+len(downloadAddrKey):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	if len(rest) > downloadAddrWindow {
		rest = rest[:downloadAddrWindow]
	}
	return rest
}
