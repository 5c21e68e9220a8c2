// Package model holds the value types shared across the scanner: the
// immutable scan configuration, the per-port record the scheduler builds,
// and the error taxonomy in errors.go.
package model

import (
	"strconv"
	"time"
)

// Port is a 16-bit TCP port number. 0 is the reserved "null port" and is
// never valid as a scan target.
type Port uint16

// HostState is the outcome of probing a single port.
type HostState int

const (
	StateUnknown HostState = iota
	StateOpen
	StateClosed
)

func (s HostState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// TaskStatus is the scheduler's per-port lifecycle marker, read by the
// progress reporter.
type TaskStatus int

const (
	NotStarted TaskStatus = iota
	Executing
	Complete
)

// ScanConfig is built once from validated CLI input and never mutated
// afterwards; every worker task reads it without synchronization.
type ScanConfig struct {
	Target         string
	Ports          []Port
	ThreadCount    int
	ConnectTimeout time.Duration
	RecvTimeout    time.Duration
	SendTimeout    time.Duration
	URI            string
	ForceHTTP      bool
	TLSEnabled     bool
	Verbose        bool
	JSONOutput     bool
	OutputPath     string
	Argv           []string
}

// HttpRequest is the request SvcScan sent, retained for the report.
type HttpRequest struct {
	Method  string
	URI     string
	Version string
	Headers map[string]string
	Body    []byte
}

// HttpResponse is the parsed HTTP/1.1 response, plus the raw bytes it was
// parsed from so the report can reproduce byte-accurate output.
type HttpResponse struct {
	Version string
	Status  int
	Reason  string
	Headers map[string]string
	Body    []byte
	Valid   bool
	Raw     []byte
}

// TlsInfo is attached to a ServiceRecord only when a TLS handshake
// succeeded.
type TlsInfo struct {
	CipherSuite string
	X509Issuer  string
	X509Subject string
}

// ServiceRecord is the unit of output: exactly one is produced per scanned
// port.
type ServiceRecord struct {
	Port     Port
	Protocol string
	State    HostState
	Service  string
	Summary  string
	Banner   string

	TLS *TlsInfo

	Request  *HttpRequest
	Response *HttpResponse
}

// PortString renders the record's port the way the report table does, e.g.
// "80/tcp".
func (r *ServiceRecord) PortString() string {
	return PortLabel(r.Port, r.Protocol)
}

// PortLabel formats a port/protocol pair as "<port>/<protocol>".
func PortLabel(port Port, protocol string) string {
	return strconv.Itoa(int(port)) + "/" + protocol
}
