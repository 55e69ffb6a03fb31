package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariffscout/internal/errors"
	"tariffscout/internal/storage"
	"tariffscout/pkg/models"
)

const smartBlock = `{"actualTariffs":[{"id":"smart","tariffType":"mobile","subscriptionFee":{"numValue":500}}]}`

// storefront serves one page per region under /<region>/ and counts hits.
type storefront struct {
	pages map[string]string
	hits  atomic.Int32
}

func (s *storefront) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	region := strings.Trim(r.URL.Path, "/")
	body, ok := s.pages[region]
	if !ok {
		http.Error(w, "down", http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, body)
}

func newTestFetcher(t *testing.T, srv *httptest.Server, cache storage.CacheStore) *RegionFetcher {
	t.Helper()
	client := NewClient(ClientOptions{UserAgent: "tariffscout-test", Timeout: 5 * time.Second})
	return NewRegionFetcher(RegionFetcherOptions{
		Cache:         cache,
		Pages:         NewHTTPFetcher(client),
		PageURL:       func(id string) string { return srv.URL + "/" + id + "/" },
		StateVariable: stateVar,
	})
}

func TestRegionFetcher_FetchesAndCaches(t *testing.T) {
	site := &storefront{pages: map[string]string{"msk": page(stateVar + " = " + smartBlock + ";")}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	cache := storage.NewFileCache(t.TempDir())
	f := newTestFetcher(t, srv, cache)
	ctx := context.Background()

	res := f.Fetch(ctx, models.Region{ID: "msk"}, false)
	require.NoError(t, res.Err)
	assert.Equal(t, models.FetchedFresh, res.Outcome)
	require.Len(t, res.Payload.Tariffs, 1)

	cached, found, err := cache.Get(ctx, "msk")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, smartBlock, string(cached))

	res = f.Fetch(ctx, models.Region{ID: "msk"}, false)
	assert.Equal(t, models.CachedHit, res.Outcome)
	assert.Equal(t, int32(1), site.hits.Load())
}

func TestRegionFetcher_RefreshBypassesCache(t *testing.T) {
	site := &storefront{pages: map[string]string{"msk": page(stateVar + " = " + smartBlock + ";")}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	cache := storage.NewFileCache(t.TempDir())
	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "msk", []byte(`{"actualTariffs":[]}`)))

	res := newTestFetcher(t, srv, cache).Fetch(ctx, models.Region{ID: "msk"}, true)
	assert.Equal(t, models.FetchedFresh, res.Outcome)

	cached, _, err := cache.Get(ctx, "msk")
	require.NoError(t, err)
	assert.Equal(t, smartBlock, string(cached))
}

func TestRegionFetcher_CorruptCacheIsAMiss(t *testing.T) {
	site := &storefront{pages: map[string]string{"msk": page(stateVar + " = " + smartBlock + ";")}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	cache := storage.NewFileCache(t.TempDir())
	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "msk", []byte(`not json`)))

	res := newTestFetcher(t, srv, cache).Fetch(ctx, models.Region{ID: "msk"}, false)
	assert.Equal(t, models.FetchedFresh, res.Outcome)
	assert.Equal(t, int32(1), site.hits.Load())
}

func TestRegionFetcher_Failures(t *testing.T) {
	site := &storefront{pages: map[string]string{
		"noblock": page(`window.other = {};`),
		"badjson": page(stateVar + ` = {"actualTariffs": [;`),
	}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	tests := []struct {
		region  string
		errType errors.Type
	}{
		{"down", errors.TypeNetwork},
		{"noblock", errors.TypeExtraction},
		{"badjson", errors.TypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			cache := storage.NewFileCache(t.TempDir())
			res := newTestFetcher(t, srv, cache).Fetch(context.Background(), models.Region{ID: tt.region}, false)

			assert.Equal(t, models.Failed, res.Outcome)
			assert.Nil(t, res.Payload)
			assert.True(t, errors.IsType(res.Err, tt.errType), "got %v", res.Err)

			_, found, err := cache.Get(context.Background(), tt.region)
			require.NoError(t, err)
			assert.False(t, found, "failed regions must not be cached")
		})
	}
}

// failingCache reads nothing and refuses every write.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("disk on fire")
}
func (failingCache) Put(context.Context, string, []byte) error { return fmt.Errorf("read-only") }
func (failingCache) Close() error                              { return nil }

func TestRegionFetcher_CacheFailuresAreNotFatal(t *testing.T) {
	site := &storefront{pages: map[string]string{"msk": page(stateVar + " = " + smartBlock + ";")}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	res := newTestFetcher(t, srv, failingCache{}).Fetch(context.Background(), models.Region{ID: "msk"}, false)
	require.NoError(t, res.Err)
	assert.Equal(t, models.FetchedFresh, res.Outcome)
}

func TestRegionFetcher_RobotsDisallow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page(stateVar+" = "+smartBlock+";"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(ClientOptions{Timeout: 5 * time.Second})
	f := NewRegionFetcher(RegionFetcherOptions{
		Cache:         storage.NewFileCache(t.TempDir()),
		Pages:         NewHTTPFetcher(client),
		Domains:       NewDomainManager(client, 0, "tariffscout", true),
		PageURL:       func(id string) string { return srv.URL + "/" + id + "/" },
		StateVariable: stateVar,
	})

	res := f.Fetch(context.Background(), models.Region{ID: "private"}, false)
	assert.Equal(t, models.Failed, res.Outcome)
	assert.True(t, errors.IsType(res.Err, errors.TypeNetwork))

	res = f.Fetch(context.Background(), models.Region{ID: "msk"}, false)
	assert.Equal(t, models.FetchedFresh, res.Outcome)
}

func TestRegionFetcher_SkipsInitialisingScript(t *testing.T) {
	html := `<html><head><script>` + stateVar + ` = ` + stateVar + ` || {};</script></head>` +
		`<body><script>` + stateVar + ` = ` + smartBlock + `;</script></body></html>`
	site := &storefront{pages: map[string]string{"msk": html}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	cache := storage.NewFileCache(t.TempDir())
	res := newTestFetcher(t, srv, cache).Fetch(context.Background(), models.Region{ID: "msk"}, false)
	require.NoError(t, res.Err)
	assert.Equal(t, models.FetchedFresh, res.Outcome)
	require.Len(t, res.Payload.Tariffs, 1)

	cached, _, err := cache.Get(context.Background(), "msk")
	require.NoError(t, err)
	assert.Equal(t, smartBlock, string(cached))
}

func TestRegionFetcher_BadTariffRecordKeepsRegion(t *testing.T) {
	block := `{"actualTariffs":[{"id":"good","tariffType":"mobile","subscriptionFee":{"numValue":450}},{"id":42,"packages":{}}]}`
	site := &storefront{pages: map[string]string{"msk": page(stateVar + " = " + block + ";")}}
	srv := httptest.NewServer(site)
	defer srv.Close()

	res := newTestFetcher(t, srv, storage.NewFileCache(t.TempDir())).Fetch(context.Background(), models.Region{ID: "msk"}, false)
	require.NoError(t, res.Err)
	assert.Equal(t, models.FetchedFresh, res.Outcome)
	require.Len(t, res.Payload.Tariffs, 2)
	assert.Equal(t, "good", res.Payload.Tariffs[0].ID)
}
