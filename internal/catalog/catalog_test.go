package catalog

import (
	"strings"
	"testing"

	"github.com/svcscan/svcscan/internal/model"
)

func TestLoadFromLooksUpKnownPort(t *testing.T) {
	const csvData = "port,protocol,service,summary\n" +
		"1,tcp,tcpmux,TCP Port Service Multiplexer\n" +
		"80,tcp,http,Hypertext Transfer Protocol\n"

	cat, err := loadFrom(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}

	entry, ok := cat.Lookup(model.Port(1), "tcp")
	if !ok {
		t.Fatalf("expected entry for port 1/tcp")
	}
	if entry.Service != "tcpmux" || entry.Summary != "TCP Port Service Multiplexer" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if _, ok := cat.Lookup(model.Port(9999), "tcp"); ok {
		t.Fatalf("expected no entry for unknown port")
	}
}

func TestLoadEmbedded(t *testing.T) {
	cat, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	entry, ok := cat.Lookup(model.Port(1), "tcp")
	if !ok {
		t.Fatalf("expected embedded catalog to carry port 1/tcp (tcpmux)")
	}
	if entry.Service != "tcpmux" {
		t.Fatalf("service = %q, want tcpmux", entry.Service)
	}
}
