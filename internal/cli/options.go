// Package cli parses argv into a validated model.ScanConfig, per section 6
// of the design and the flag table in flags.go.
package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/svcscan/svcscan/internal/model"
	"github.com/svcscan/svcscan/internal/portspec"
)

const defaultTimeoutMs = 3500

// uriPattern is the URI-validity rule from section 6: unreserved/sub-delim
// characters or percent-encoded octets.
var uriPattern = regexp.MustCompile(`^([!#$&-;=?-\[\]_a-z~]|%[0-9a-fA-F]{2})+$`)

// Options holds the raw, unvalidated CLI input.
type Options struct {
	Target     string
	PortsSpec  string
	TimeoutMs  int
	URI        string
	OutputPath string
	Verbose    bool
	Help       bool
	JSON       bool
	Curl       bool
	TLS        bool
}

// ToScanConfig validates opts and builds the immutable model.ScanConfig the
// rest of the scanner reads without synchronization. argv is the full
// process argument list, retained verbatim for the JSON report's
// scanSummary.arguments field.
func (o *Options) ToScanConfig(argv []string) (*model.ScanConfig, error) {
	if strings.TrimSpace(o.Target) == "" {
		return nil, &model.InvalidArgError{Name: "TARGET", Explanation: "target host or IPv4 literal is required"}
	}

	if strings.TrimSpace(o.PortsSpec) == "" {
		return nil, &model.InvalidArgError{Name: "PORTS", Explanation: "a port spec is required (-p/--port or positional)"}
	}
	ports, err := portspec.Parse(o.PortsSpec)
	if err != nil {
		return nil, err
	}

	if o.TimeoutMs <= 0 {
		return nil, &model.InvalidArgError{Name: "-t/--timeout", Explanation: "timeout must be positive"}
	}
	timeout := time.Duration(o.TimeoutMs) * time.Millisecond

	uri := o.URI
	if uri == "" {
		uri = "/"
	} else {
		if !strings.HasPrefix(uri, "/") {
			uri = "/" + uri
		}
		if uri != "/" && !uriPattern.MatchString(strings.TrimPrefix(uri, "/")) {
			return nil, &model.InvalidArgError{Name: "-u/--uri", Explanation: "uri contains characters outside the allowed set"}
		}
	}

	if o.OutputPath != "" {
		if err := validateOutputPath(o.OutputPath); err != nil {
			return nil, err
		}
	}

	return &model.ScanConfig{
		Target:         o.Target,
		Ports:          ports,
		ThreadCount:    runtime.NumCPU(),
		ConnectTimeout: timeout,
		RecvTimeout:    timeout,
		SendTimeout:    timeout,
		URI:            uri,
		ForceHTTP:      o.Curl,
		TLSEnabled:     o.TLS,
		Verbose:        o.Verbose,
		JSONOutput:     o.JSON,
		OutputPath:     o.OutputPath,
		Argv:           argv,
	}, nil
}

// validateOutputPath enforces section 6's output-path contract: the parent
// directory must already exist, and the path itself must not already be a
// directory. Unlike the corpus's own output handling, this never creates
// directories on the user's behalf.
func validateOutputPath(path string) error {
	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if err != nil {
		return &model.FilePathError{Path: path, Reason: "parent directory does not exist"}
	}
	if !info.IsDir() {
		return &model.FilePathError{Path: path, Reason: "parent is not a directory"}
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return &model.FilePathError{Path: path, Reason: "output path is a directory"}
	}

	return nil
}
