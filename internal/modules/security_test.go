package modules

import (
	"net/http"
	"testing"

	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

func TestSecurity_MissingHeaders(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://example.com/", "<html></html>", nil)
	findings := run(t, NewSecurity(), &pipeline.Context{
		TargetURL: "https://example.com/",
		Pages:     []*model.CrawledPage{page},
	})

	types := findingTypes(findings)
	for _, want := range []string{"missing_csp", "missing_x_frame_options", "missing_x_content_type_options", "missing_hsts"} {
		if types[want] == 0 {
			t.Errorf("expected a %s finding, got %v", want, types)
		}
	}
}

func TestSecurity_HeadersPresent(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://example.com/", "<html></html>", map[string]string{
		"Content-Security-Policy":   "default-src 'self'",
		"X-Frame-Options":           "DENY",
		"X-Content-Type-Options":    "nosniff",
		"Strict-Transport-Security": "max-age=63072000",
	})
	findings := run(t, NewSecurity(), &pipeline.Context{
		Pages: []*model.CrawledPage{page},
	})

	if len(findings) != 0 {
		t.Errorf("expected no findings, got %v", findingTypes(findings))
	}
}

func TestSecurity_HSTSSkippedOverHTTP(t *testing.T) {
	t.Parallel()

	page := htmlPage("http://example.com/", "<html></html>", nil)
	types := findingTypes(run(t, NewSecurity(), &pipeline.Context{
		Pages: []*model.CrawledPage{page},
	}))

	if types["missing_hsts"] != 0 {
		t.Error("HSTS should not be required on plain HTTP targets")
	}
}

func TestSecurity_VersionDisclosure(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://example.com/", "<html></html>", map[string]string{
		"Content-Security-Policy":   "default-src 'self'",
		"X-Frame-Options":           "DENY",
		"X-Content-Type-Options":    "nosniff",
		"Strict-Transport-Security": "max-age=63072000",
		"Server":                    "nginx/1.18.0",
		"X-Powered-By":              "PHP/8.1",
	})
	types := findingTypes(run(t, NewSecurity(), &pipeline.Context{
		Pages: []*model.CrawledPage{page},
	}))

	if types["server_version"] != 1 {
		t.Errorf("expected a server_version finding, got %v", types)
	}
	if types["x_powered_by"] != 1 {
		t.Errorf("expected an x_powered_by finding, got %v", types)
	}
}

func TestSecurity_Cookies(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://example.com/", "<html></html>", map[string]string{
		"Set-Cookie": "session=abc123; Path=/",
	})
	http.Header(page.Headers).Add("Set-Cookie", "safe=1; Secure; HttpOnly")

	types := findingTypes(run(t, NewSecurity(), &pipeline.Context{
		Pages: []*model.CrawledPage{page},
	}))

	if types["cookie_missing_secure"] != 1 {
		t.Errorf("expected one cookie_missing_secure finding, got %v", types)
	}
	if types["cookie_missing_httponly"] != 1 {
		t.Errorf("expected one cookie_missing_httponly finding, got %v", types)
	}
}

func TestSecurity_PasswordFormOverHTTP(t *testing.T) {
	t.Parallel()

	const body = `<form action="/login" method="post">
		<input type="text" name="user">
		<input type="password" name="pass">
	</form>`

	t.Run("http page is flagged", func(t *testing.T) {
		t.Parallel()

		page := htmlPage("http://example.com/login", body, nil)
		types := findingTypes(run(t, NewSecurity(), &pipeline.Context{
			Pages: []*model.CrawledPage{page},
		}))
		if types["password_form_over_http"] != 1 {
			t.Errorf("expected password_form_over_http, got %v", types)
		}
	})

	t.Run("https page is fine", func(t *testing.T) {
		t.Parallel()

		page := htmlPage("https://example.com/login", body, nil)
		types := findingTypes(run(t, NewSecurity(), &pipeline.Context{
			Pages: []*model.CrawledPage{page},
		}))
		if types["password_form_over_http"] != 0 {
			t.Errorf("https form should not be flagged, got %v", types)
		}
	})
}

func TestSecurity_CSRF(t *testing.T) {
	t.Parallel()

	const withToken = `<form method="post" action="/a">
		<input type="hidden" name="csrf_token" value="x">
		<input type="text" name="q">
	</form>`
	const withoutToken = `<form method="post" action="/b">
		<input type="text" name="q">
	</form>`

	page := htmlPage("https://example.com/", withToken+withoutToken, nil)
	types := findingTypes(run(t, NewSecurity(), &pipeline.Context{
		Pages: []*model.CrawledPage{page},
	}))

	if types["form_missing_csrf"] != 1 {
		t.Errorf("expected exactly one form_missing_csrf finding, got %v", types)
	}
}

func TestSecurity_MixedContent(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://example.com/",
		`<script src="http://cdn.example.com/app.js"></script>`, nil)
	types := findingTypes(run(t, NewSecurity(), &pipeline.Context{
		Pages: []*model.CrawledPage{page},
	}))

	if types["mixed_content"] != 1 {
		t.Errorf("expected a mixed_content finding, got %v", types)
	}
}

func TestSecurity_DirectoryListing(t *testing.T) {
	t.Parallel()

	page := htmlPage("https://example.com/files/",
		`<html><head><title>Index of /files</title></head></html>`, nil)
	page.Title = "Index of /files"

	types := findingTypes(run(t, NewSecurity(), &pipeline.Context{
		Pages: []*model.CrawledPage{page},
	}))
	if types["directory_listing"] != 1 {
		t.Errorf("expected a directory_listing finding, got %v", types)
	}
}

func TestSecurity_FailedPagesIgnored(t *testing.T) {
	t.Parallel()

	failed := &model.CrawledPage{URL: "https://example.com/broken", FetchError: "connection refused"}
	findings := run(t, NewSecurity(), &pipeline.Context{
		Pages: []*model.CrawledPage{failed},
	})
	if len(findings) != 0 {
		t.Errorf("failed pages should produce no security findings, got %v", findingTypes(findings))
	}
}
