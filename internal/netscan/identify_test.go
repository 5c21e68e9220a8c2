package netscan

import (
	"strings"
	"testing"

	"github.com/svcscan/svcscan/internal/catalog"
	"github.com/svcscan/svcscan/internal/model"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return cat
}

func TestIdentifyBannerTriple(t *testing.T) {
	// S4: banner triple split.
	cat := testCatalog(t)
	service, summary, banner := Identify("ssh-2.0-openssh_9.3", nil, model.Port(22), cat)
	if service != "ssh (2.0)" {
		t.Fatalf("service = %q, want %q", service, "ssh (2.0)")
	}
	if summary != "openssh 9.3" {
		t.Fatalf("summary = %q, want %q", summary, "openssh 9.3")
	}
	if banner != "ssh-2.0-openssh_9.3" {
		t.Fatalf("banner = %q, want verbatim input", banner)
	}
}

func TestIdentifyUnknownShortBanner(t *testing.T) {
	// S5: unknown short banner, no dashes.
	cat := testCatalog(t)
	service, summary, banner := Identify("hello", nil, model.Port(9999), cat)
	if service != "unknown" {
		t.Fatalf("service = %q, want unknown", service)
	}
	if summary != "hello" {
		t.Fatalf("summary = %q, want hello", summary)
	}
	if banner != "hello" {
		t.Fatalf("banner = %q, want hello", banner)
	}
}

func TestIdentifyAbbreviatesLongBanner(t *testing.T) {
	cat := testCatalog(t)
	long := strings.Repeat("x", 40)
	_, summary, _ := Identify(long, nil, model.Port(9999), cat)
	if !strings.HasSuffix(summary, "...") {
		t.Fatalf("summary = %q, want truncated with ellipsis", summary)
	}
	if len(summary) != abbreviationLimit+3 {
		t.Fatalf("summary length = %d, want %d", len(summary), abbreviationLimit+3)
	}
}

func TestIdentifyHttpFallback(t *testing.T) {
	// S3: plain HTTP, no banner.
	cat := testCatalog(t)
	resp := &model.HttpResponse{Version: "1.1", Status: 200, Valid: true, Headers: map[string]string{
		"Server": "nginx/1.25.0",
	}}
	service, summary, banner := Identify("", resp, model.Port(80), cat)
	if service != "http (1.1)" {
		t.Fatalf("service = %q, want http (1.1)", service)
	}
	if summary != "nginx 1.25.0" {
		t.Fatalf("summary = %q, want nginx 1.25.0", summary)
	}
	if banner != "nginx/1.25.0" {
		t.Fatalf("banner = %q, want nginx/1.25.0", banner)
	}
}

func TestIdentifyCatalogFallback(t *testing.T) {
	// S2: closed port falls back to the catalog entry by (port, "tcp").
	cat := testCatalog(t)
	service, summary, banner := Identify("", nil, model.Port(1), cat)
	if service != "tcpmux" {
		t.Fatalf("service = %q, want tcpmux", service)
	}
	if summary != "TCP Port Service Multiplexer" {
		t.Fatalf("summary = %q, want catalog summary", summary)
	}
	if banner != "" {
		t.Fatalf("banner = %q, want empty", banner)
	}
}

func TestIdentifyServiceNeverEmpty(t *testing.T) {
	cat := testCatalog(t)
	service, _, _ := Identify("", nil, model.Port(65000), cat)
	if service == "" {
		t.Fatalf("service must never be empty")
	}
}

func TestNormalizeHeaderCase(t *testing.T) {
	testCases := map[string]string{
		"content-type":   "Content-Type",
		"CONTENT-LENGTH": "Content-Length",
		"x-forwarded-for": "X-Forwarded-For",
		"server":         "Server",
	}
	for in, want := range testCases {
		if got := normalizeHeaderCase(in); got != want {
			t.Errorf("normalizeHeaderCase(%q) = %q, want %q", in, got, want)
		}
	}
}
