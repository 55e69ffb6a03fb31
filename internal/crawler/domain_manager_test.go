package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteKey(t *testing.T) {
	assert.Equal(t, "example-carrier.ru", siteKey("msk.example-carrier.ru"))
	assert.Equal(t, "example-carrier.ru", siteKey("spb.example-carrier.ru"))
	assert.Equal(t, "example.co.uk", siteKey("shop.example.co.uk"))
}

func TestDomainManager_SharedLimiterPerSite(t *testing.T) {
	d := NewDomainManager(NewClient(ClientOptions{}), 100*time.Millisecond, "tariffscout", false)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, d.Wait(ctx, "https://msk.example-carrier.ru/tariffs"))
	require.NoError(t, d.Wait(ctx, "https://spb.example-carrier.ru/tariffs"))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestDomainManager_WaitHonoursContext(t *testing.T) {
	d := NewDomainManager(NewClient(ClientOptions{}), time.Hour, "tariffscout", false)
	require.NoError(t, d.Wait(context.Background(), "https://msk.example-carrier.ru/"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, d.Wait(ctx, "https://msk.example-carrier.ru/"))
}

func TestDomainManager_RobotsFetchedOncePerHost(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow: /admin\n")
		}
	}))
	defer srv.Close()

	d := NewDomainManager(NewClient(ClientOptions{}), 0, "tariffscout", true)
	ctx := context.Background()

	assert.True(t, d.IsAllowed(ctx, srv.URL+"/msk/"))
	assert.False(t, d.IsAllowed(ctx, srv.URL+"/admin/panel"))
	assert.True(t, d.IsAllowed(ctx, srv.URL))
	assert.Equal(t, int32(1), hits.Load())
}

func TestDomainManager_MissingRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := NewDomainManager(NewClient(ClientOptions{}), 0, "tariffscout", true)
	assert.True(t, d.IsAllowed(context.Background(), srv.URL+"/anything"))
}

func TestDomainManager_RobotsDisabled(t *testing.T) {
	d := NewDomainManager(nil, 0, "tariffscout", false)
	assert.True(t, d.IsAllowed(context.Background(), "http://127.0.0.1:1/admin"))
}

func TestDomainManager_RobotsFetchDoesNotBlockOtherSites(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	}))
	defer srv.Close()
	defer close(release)

	d := NewDomainManager(NewClient(ClientOptions{}), 0, "tariffscout", true)
	done := make(chan bool)
	go func() { done <- d.IsAllowed(context.Background(), srv.URL+"/msk/") }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, d.Wait(ctx, "https://spb.example-carrier.ru/tariffs"))
	assert.NoError(t, d.Wait(ctx, "https://nsk.example-carrier.ru/tariffs"))

	release <- struct{}{}
	assert.True(t, <-done)
}

func TestDomainManager_ConcurrentRobotsFetchedOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, "User-agent: *\nDisallow: /admin\n")
	}))
	defer srv.Close()

	d := NewDomainManager(NewClient(ClientOptions{}), 0, "tariffscout", true)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.False(t, d.IsAllowed(context.Background(), srv.URL+"/admin"))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), hits.Load())
}
