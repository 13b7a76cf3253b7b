package modules

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agobrik/webtesttool-sub001/internal/fetch"
	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

func TestSEO_PageChecks(t *testing.T) {
	t.Parallel()

	good := htmlPage("https://example.com/good", `<html><head>
		<title>Good page</title>
		<meta name="description" content="A well described page">
		<link rel="canonical" href="https://example.com/good">
	</head></html>`, nil)
	good.Title = "Good page"

	bare := htmlPage("https://example.com/bare", `<html><head></head></html>`, nil)

	dupA := htmlPage("https://example.com/a", `<html><head><title>Same</title>
		<meta name="description" content="x">
		<link rel="canonical" href="https://example.com/a"></head></html>`, nil)
	dupA.Title = "Same"
	dupB := htmlPage("https://example.com/b", `<html><head><title>Same</title>
		<meta name="description" content="y">
		<link rel="canonical" href="https://example.com/b"></head></html>`, nil)
	dupB.Title = "Same"

	types := findingTypes(run(t, NewSEO(), &pipeline.Context{
		Pages: []*model.CrawledPage{good, bare, dupA, dupB},
	}))

	if types["missing_title"] != 1 {
		t.Errorf("expected one missing_title, got %v", types)
	}
	if types["duplicate_title"] != 1 {
		t.Errorf("expected one duplicate_title, got %v", types)
	}
	if types["missing_meta_description"] != 1 {
		t.Errorf("expected one missing_meta_description, got %v", types)
	}
	if types["missing_canonical"] != 1 {
		t.Errorf("expected one missing_canonical, got %v", types)
	}
}

func TestSEO_WellKnownProbes(t *testing.T) {
	t.Parallel()

	t.Run("missing robots and sitemap are reported", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		f := fetch.NewFetcher(srv.Client(), fetch.WithCrawlDelay(0))
		types := findingTypes(run(t, NewSEO(), &pipeline.Context{
			TargetURL: srv.URL,
			Fetcher:   f,
		}))

		if types["missing_robots_txt"] != 1 || types["missing_sitemap"] != 1 {
			t.Errorf("expected robots and sitemap findings, got %v", types)
		}
	})

	t.Run("sitemap directive in robots.txt suffices", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, "User-agent: *\nSitemap: https://example.com/sm.xml")
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		f := fetch.NewFetcher(srv.Client(), fetch.WithCrawlDelay(0))
		types := findingTypes(run(t, NewSEO(), &pipeline.Context{
			TargetURL: srv.URL,
			Fetcher:   f,
		}))

		if len(types) != 0 {
			t.Errorf("expected no findings, got %v", types)
		}
	})
}
