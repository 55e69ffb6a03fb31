package crawler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

type ClientOptions struct {
	UserAgent        string
	Timeout          time.Duration
	Retries          int
	RetryWait        time.Duration
	CloudflareBypass bool
}

// NewClient builds the resty client shared by page, region list and
// robots.txt requests. Transport errors, 429 and 5xx responses are retried.
func NewClient(opts ClientOptions) *resty.Client {
	client := resty.New()
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	wait := opts.RetryWait
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}
	client.SetRetryCount(opts.Retries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(10 * wait).
		AddRetryCondition(func(res *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
		})
	return client
}

// PageFetcher downloads the HTML of one page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(client *resty.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	res, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html").
		Get(url)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET %s: %s", url, res.Status())
	}
	return res.Body(), nil
}
