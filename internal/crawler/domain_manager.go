package crawler

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// DomainManager keeps requests polite: one rate limiter per registrable
// domain, so every regional subdomain of a carrier shares a budget, and one
// robots.txt group per host.
type DomainManager struct {
	mu            sync.Mutex
	client        *resty.Client
	interval      time.Duration
	userAgent     string
	respectRobots bool
	limiters      map[string]*rate.Limiter
	robotsCache   map[string]*robotsEntry
}

// robotsEntry is filled at most once, outside the manager lock.
type robotsEntry struct {
	once  sync.Once
	group *robotstxt.Group
}

func NewDomainManager(client *resty.Client, interval time.Duration, userAgent string, respectRobots bool) *DomainManager {
	return &DomainManager{
		client:        client,
		interval:      interval,
		userAgent:     userAgent,
		respectRobots: respectRobots,
		limiters:      make(map[string]*rate.Limiter),
		robotsCache:   make(map[string]*robotsEntry),
	}
}

// siteKey groups hosts by eTLD+1; hosts without one (IPs, localhost) stand alone.
func siteKey(host string) string {
	if site, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return site
	}
	return host
}

// Wait blocks until the site of targetURL may be requested again.
func (d *DomainManager) Wait(ctx context.Context, targetURL string) error {
	u, err := url.Parse(targetURL)
	if err != nil {
		return err
	}
	site := siteKey(u.Hostname())

	d.mu.Lock()
	limiter, exists := d.limiters[site]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(d.interval), 1)
		d.limiters[site] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

// IsAllowed consults the host's robots.txt. A missing or unreadable file
// allows everything.
func (d *DomainManager) IsAllowed(ctx context.Context, link string) bool {
	if !d.respectRobots {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	d.mu.Lock()
	entry, exists := d.robotsCache[u.Host]
	if !exists {
		entry = &robotsEntry{}
		d.robotsCache[u.Host] = entry
	}
	d.mu.Unlock()

	entry.once.Do(func() {
		entry.group = d.fetchRobots(ctx, u)
	})
	group := entry.group
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (d *DomainManager) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.Group {
	res, err := d.client.R().
		SetContext(ctx).
		Get(u.Scheme + "://" + u.Host + "/robots.txt")
	if err != nil || res.StatusCode() != 200 {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(res.StatusCode(), res.Body())
	if err != nil {
		return nil
	}
	return data.FindGroup(d.userAgent)
}
