package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agobrik/webtesttool-sub001/internal/cache"
	"github.com/agobrik/webtesttool-sub001/internal/config"
	"github.com/agobrik/webtesttool-sub001/internal/scanerr"
)

func TestFetcher_Get(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><title>ok</title></html>")) //nolint:errcheck
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), WithCrawlDelay(0))

	resp, err := f.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
	if resp.Size != int64(len(resp.Body)) {
		t.Errorf("Size = %d, body length = %d", resp.Size, len(resp.Body))
	}
	if resp.FromCache {
		t.Error("first fetch should not come from the cache")
	}
}

func TestFetcher_CacheHit(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("body")) //nolint:errcheck
	}))
	defer srv.Close()

	store := cache.NewManager(cache.WithDefaultTTL(time.Minute))
	f := NewFetcher(srv.Client(), WithCache(store), WithCrawlDelay(0))
	ctx := context.Background()

	if _, err := f.Get(ctx, srv.URL); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	resp, err := f.Get(ctx, srv.URL)
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
	if !resp.FromCache {
		t.Error("second fetch should come from the cache")
	}
	if string(resp.Body) != "body" {
		t.Errorf("cached body = %q", resp.Body)
	}

	s := f.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestFetcher_NoCacheRefetches(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("body")) //nolint:errcheck
	}))
	defer srv.Close()

	// No cache attached: identical requests must each hit the network.
	f := NewFetcher(srv.Client(), WithCrawlDelay(0))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := f.Get(ctx, srv.URL)
		if err != nil {
			t.Fatalf("Get %d: %v", i+1, err)
		}
		if resp.FromCache {
			t.Errorf("fetch %d claims to come from a cache that does not exist", i+1)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server saw %d requests, want 2 with caching disabled", got)
	}
}

func TestFetcher_NonSuccessNotCached(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := cache.NewManager(cache.WithDefaultTTL(time.Minute))
	f := NewFetcher(srv.Client(), WithCache(store), WithCrawlDelay(0))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := f.Get(ctx, srv.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("server saw %d requests, want 2 (404s are not cached)", got)
	}
}

func TestFetcher_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), WithCrawlDelay(0))

	resp, err := f.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected a rate-limit error")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatal("429 should still return the response")
	}

	se := scanerr.AsError(err)
	if se == nil || se.Kind != scanerr.KindRateLimit {
		t.Fatalf("expected rate-limit kind, got %v", err)
	}
	if se.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", se.RetryAfter)
	}
}

func TestFetcher_AuthInjection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		auth   config.Auth
		header string
		want   string
	}{
		{
			name:   "bearer token",
			auth:   config.Auth{Type: "bearer", Token: "tok123"},
			header: "Authorization",
			want:   "Bearer tok123",
		},
		{
			name:   "custom header",
			auth:   config.Auth{Type: "header", HeaderName: "X-Api-Key", HeaderValue: "k"},
			header: "X-Api-Key",
			want:   "k",
		},
		{
			name:   "basic credentials",
			auth:   config.Auth{Type: "basic", Username: "u", Password: "p"},
			header: "Authorization",
			want:   "Basic dTpw",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(tt.header)
			}))
			defer srv.Close()

			f := NewFetcher(srv.Client(), WithAuth(tt.auth), WithCrawlDelay(0))
			if _, err := f.Get(context.Background(), srv.URL); err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestFetcher_BodySizeLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 4096)) //nolint:errcheck
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), WithMaxBodySize(100), WithCrawlDelay(0))

	resp, err := f.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Body) != 100 {
		t.Errorf("body length = %d, want 100", len(resp.Body))
	}
}

func TestFetcher_ErrorClassification(t *testing.T) {
	t.Parallel()

	t.Run("unreachable host is a connection error", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(&http.Client{Timeout: 2 * time.Second}, WithCrawlDelay(0))
		_, err := f.Get(context.Background(), "http://127.0.0.1:1")
		if err == nil {
			t.Fatal("expected an error")
		}
		if !scanerr.IsKind(err, scanerr.KindNetwork) {
			t.Errorf("expected network kind, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		f := NewFetcher(srv.Client(), WithCrawlDelay(0))
		_, err := f.Get(ctx, srv.URL)
		if err == nil {
			t.Fatal("expected an error")
		}
		if !scanerr.HasCode(err, scanerr.CodeTimeout) {
			t.Errorf("expected timeout code, got %v", err)
		}
	})

	t.Run("invalid URL is a configuration error", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(http.DefaultClient, WithCrawlDelay(0))
		_, err := f.Get(context.Background(), "http://exa mple.com/")
		if err == nil {
			t.Fatal("expected an error")
		}
		var se *scanerr.Error
		if !errors.As(err, &se) || se.Kind != scanerr.KindConfiguration {
			t.Errorf("expected configuration kind, got %v", err)
		}
	})
}

func TestFetcher_CrawlDelayThrottles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), WithCrawlDelay(50*time.Millisecond))
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := f.Get(ctx, srv.URL); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three requests completed in %v, expected throttling", elapsed)
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	if got := parseRetryAfter("30"); got != 30*time.Second {
		t.Errorf("parseRetryAfter(30) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter(empty) = %v", got)
	}
	if got := parseRetryAfter("garbage"); got != 0 {
		t.Errorf("parseRetryAfter(garbage) = %v", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 {
		t.Errorf("parseRetryAfter(http-date) = %v, want positive", got)
	}
}
