package ytresolve

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ytget/ytresolve/errs"
)

// Service resolves links of one video platform into media URLs.
type Service interface {
	// ServiceBaseURL is the platform origin, e.g. "https://www.youtube.com/".
	ServiceBaseURL() string
	// Matches reports whether link belongs to this platform.
	Matches(link string) bool
	// DecodeURL returns a directly fetchable media URL for link.
	DecodeURL(ctx context.Context, link string) (string, error)
	// RefreshCookies re-establishes the session cookies the platform expects.
	RefreshCookies(ctx context.Context) (string, error)
}

// ServiceBaseURL implements Service.
func (r *Resolver) ServiceBaseURL() string {
	return "https://www.youtube.com/"
}

// Matches implements Service.
func (r *Resolver) Matches(link string) bool {
	return hostIn(link, "youtube.com", "youtu.be")
}

// DecodeURL implements Service. It is ResolveURL without the video details.
func (r *Resolver) DecodeURL(ctx context.Context, link string) (string, error) {
	u, _, err := r.ResolveURL(ctx, link)
	return u, err
}

// RefreshCookies implements Service. Watch pages are fetched anonymously,
// so there is nothing to refresh.
func (r *Resolver) RefreshCookies(ctx context.Context) (string, error) {
	return "", ctx.Err()
}

// Registry dispatches links to the first Service that claims them.
type Registry struct {
	services []Service
}

// NewRegistry creates a Registry over services, consulted in order.
func NewRegistry(services ...Service) *Registry {
	return &Registry{services: services}
}

// For returns the Service responsible for link.
func (r *Registry) For(link string) (Service, error) {
	for _, s := range r.services {
		if s.Matches(link) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedService, link)
}

// DecodeURL resolves link with the Service responsible for it.
func (r *Registry) DecodeURL(ctx context.Context, link string) (string, error) {
	s, err := r.For(link)
	if err != nil {
		return "", err
	}
	return s.DecodeURL(ctx, link)
}

// hostIn reports whether link's host is one of domains or a subdomain of one.
func hostIn(link string, domains ...string) bool {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
