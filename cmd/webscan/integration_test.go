package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/agobrik/webtesttool-sub001/internal/model"
)

// TestScanCmd_EndToEnd runs a full scan through the CLI against a local
// test server and checks the written JSON report.
func TestScanCmd_EndToEnd(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Demo</title></head><body>
			<a href="/page">Page</a>
		</body></html>`)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Page</title></head><body></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	reportPath := filepath.Join(t.TempDir(), "report.json")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{
		"scan", srv.URL,
		"--delay", "0s",
		"--max-pages", "5",
		"--depth", "1",
		"--no-cache",
		"--disable", "metadata",
		"-o", reportPath,
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v\noutput: %s", err, out.String())
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var result model.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if result.Status != model.ScanStatusCompleted {
		t.Errorf("Status = %s, want completed", result.Status)
	}
	if result.Summary.PagesCrawled != 2 {
		t.Errorf("PagesCrawled = %d, want 2", result.Summary.PagesCrawled)
	}
	if len(result.ModuleResults) != 6 {
		t.Errorf("ModuleResults = %d, want 6 with metadata disabled", len(result.ModuleResults))
	}
}
