// Package catalog loads the embedded IANA-style port/service CSV resource
// and answers (port, protocol) -> (service, summary) lookups.
package catalog

import (
	"bufio"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/svcscan/svcscan/internal/model"
)

//go:embed services.csv
var embeddedCSV embed.FS

// Entry is one row of the catalog: the service name and short summary for
// a (port, protocol) pair.
type Entry struct {
	Service string
	Summary string
}

type key struct {
	port     model.Port
	protocol string
}

// Catalog is an immutable, shared-read-only (port, protocol) -> Entry map
// loaded once at startup.
type Catalog struct {
	entries map[key]Entry
}

// Load reads the embedded CSV resource and indexes it.
func Load() (*Catalog, error) {
	f, err := embeddedCSV.Open("services.csv")
	if err != nil {
		return nil, fmt.Errorf("catalog: open embedded resource: %w", err)
	}
	defer f.Close()
	return loadFrom(f)
}

// loadFrom builds a Catalog from any CSV reader with the "port,protocol,
// service,summary" header, used by Load and directly by tests.
func loadFrom(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 4

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}
	if len(header) != 4 {
		return nil, fmt.Errorf("catalog: expected 4 columns, got %d", len(header))
	}

	entries := make(map[key]Entry)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read record: %w", err)
		}

		portNum, err := strconv.ParseUint(record[0], 10, 16)
		if err != nil {
			continue
		}

		k := key{port: model.Port(portNum), protocol: record[1]}
		entries[k] = Entry{Service: record[2], Summary: record[3]}
	}

	return &Catalog{entries: entries}, nil
}

// Lookup returns the (service, summary) pair for port/protocol, or ok=false
// if the catalog has no entry for it.
func (c *Catalog) Lookup(port model.Port, protocol string) (Entry, bool) {
	e, ok := c.entries[key{port: port, protocol: protocol}]
	return e, ok
}
