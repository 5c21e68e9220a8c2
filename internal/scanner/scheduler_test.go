package scanner

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/svcscan/svcscan/internal/catalog"
	"github.com/svcscan/svcscan/internal/model"
	"github.com/svcscan/svcscan/internal/terminal"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return cat
}

// closedPort returns a loopback port nothing is listening on, by opening
// and immediately closing a listener.
func closedPort(t *testing.T) model.Port {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return model.Port(port)
}

func listenBanner(t *testing.T, banner string) (model.Port, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte(banner))
			conn.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port
	return model.Port(port), func() { ln.Close() }
}

func TestRunProducesOneRecordPerPort(t *testing.T) {
	bannerPort, stop := listenBanner(t, "custom-tool-42\r\n")
	defer stop()
	closed := closedPort(t)

	cfg := &model.ScanConfig{
		Target:         "127.0.0.1",
		Ports:          []model.Port{bannerPort, closed},
		ThreadCount:    2,
		ConnectTimeout: 500 * time.Millisecond,
		RecvTimeout:    300 * time.Millisecond,
		SendTimeout:    300 * time.Millisecond,
		URI:            "/",
	}

	sched := New(cfg, testCatalog(t), terminal.New())
	records, err := sched.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	// sorted ascending by port.
	if records[0].Port > records[1].Port {
		t.Fatalf("records not sorted ascending by port: %+v", records)
	}

	for _, r := range records {
		if r.Service == "" {
			t.Fatalf("record for port %d has empty service", r.Port)
		}
		if r.State == model.StateClosed || r.State == model.StateUnknown {
			if r.Banner != "" || r.TLS != nil || r.Response != nil {
				t.Fatalf("closed/unknown record for port %d has non-empty probe fields: %+v", r.Port, r)
			}
		}
	}
}

func TestRunTalliesConnectFailuresIntoErrorStats(t *testing.T) {
	closed := closedPort(t)

	cfg := &model.ScanConfig{
		Target:         "127.0.0.1",
		Ports:          []model.Port{closed},
		ThreadCount:    1,
		ConnectTimeout: 500 * time.Millisecond,
		RecvTimeout:    300 * time.Millisecond,
		SendTimeout:    300 * time.Millisecond,
		URI:            "/",
		Verbose:        true,
	}

	sched := New(cfg, testCatalog(t), terminal.New())
	if _, err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	summary := sched.errorStats.Summary()
	if len(summary) == 0 {
		t.Fatalf("expected a nonzero error tally for a refused connection, got none")
	}
}

func TestFormatPortPreviewTruncatesAfterSeven(t *testing.T) {
	ports := make([]model.Port, 10)
	for i := range ports {
		ports[i] = model.Port(1000 + i)
	}
	got := formatPortPreview(ports)
	want := "1000/tcp, 1001/tcp, 1002/tcp, 1003/tcp, 1004/tcp, 1005/tcp, 1006/tcp ... (3 not shown)"
	if got != want {
		t.Fatalf("formatPortPreview = %q, want %q", got, want)
	}
}

func TestFormatPortPreviewNoSuffixWhenShort(t *testing.T) {
	ports := []model.Port{80, 443}
	got := formatPortPreview(ports)
	want := "80/tcp, 443/tcp"
	if got != want {
		t.Fatalf("formatPortPreview = %q, want %q", got, want)
	}
}
