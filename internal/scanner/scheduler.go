// Package scanner implements the ScanScheduler (section 4.8) and the
// ProgressReporter (section 4.9): a fixed-size worker pool that drives one
// state machine per port, plus the keypress-triggered progress printer.
package scanner

import (
	"context"
	"net"
	"sort"
	"strings"
	"sync"

	"github.com/svcscan/svcscan/internal/catalog"
	"github.com/svcscan/svcscan/internal/model"
	"github.com/svcscan/svcscan/internal/netscan"
	"github.com/svcscan/svcscan/internal/terminal"
	"github.com/svcscan/svcscan/internal/timer"
)

const tcpProtocol = "tcp"

// Scheduler runs the per-port state machine over a fixed-size worker pool,
// per section 4.8. A Scheduler is used once.
type Scheduler struct {
	config  *model.ScanConfig
	catalog *catalog.Catalog
	term    *terminal.Terminal

	statusMu sync.Mutex
	status   map[model.Port]model.TaskStatus

	recordsMu sync.Mutex
	records   []*model.ServiceRecord

	timer      timer.Timer
	progress   *ProgressReporter
	errorStats *errorStats
}

// New builds a Scheduler for cfg. cat is the embedded service catalog used
// as the identification fallback; term is the process-wide output handle.
func New(cfg *model.ScanConfig, cat *catalog.Catalog, term *terminal.Terminal) *Scheduler {
	status := make(map[model.Port]model.TaskStatus, len(cfg.Ports))
	for _, p := range cfg.Ports {
		status[p] = model.NotStarted
	}
	return &Scheduler{
		config:     cfg,
		catalog:    cat,
		term:       term,
		status:     status,
		records:    make([]*model.ServiceRecord, 0, len(cfg.Ports)),
		progress:   NewProgressReporter(term),
		errorStats: newErrorStats(),
	}
}

// Run drives the scan to completion and returns the aggregated records,
// sorted by ascending port. It never returns an error for per-port
// failures — section 7 requires the scan to keep going and commit a record
// for every port regardless of outcome.
func (s *Scheduler) Run(ctx context.Context) ([]*model.ServiceRecord, error) {
	s.timer.Start()
	s.progress.PrintStartupBanner(s.config, s.timer.StartTime())

	connector, err := netscan.NewConnector()
	if err != nil {
		return nil, err
	}
	defer connector.Close()

	jobs := make(chan model.Port, len(s.config.Ports))
	for _, p := range s.config.Ports {
		jobs <- p
	}
	close(jobs)

	workers := s.config.ThreadCount
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for port := range jobs {
				s.progress.CheckKeypress(s.completedCount(), len(s.config.Ports))
				record := s.scanPort(ctx, connector, port)
				s.commit(port, record)
			}
		}()
	}
	wg.Wait()

	s.timer.Stop()

	sorted := make([]*model.ServiceRecord, len(s.records))
	s.recordsMu.Lock()
	copy(sorted, s.records)
	s.recordsMu.Unlock()
	sortRecords(sorted)

	s.progress.PrintShutdownBanner(&s.timer, s.config.OutputPath, s.errorStats, s.config.Verbose)

	return sorted, nil
}

// Elapsed exposes the scheduler's timer once Run has completed, for the
// report builder's scanSummary section.
func (s *Scheduler) Elapsed() *timer.Timer { return &s.timer }

// scanPort runs the strict-sequential per-port state machine from
// section 5: resolve -> connect -> banner -> (optional) http ->
// (optional) tls retry -> identify -> commit.
func (s *Scheduler) scanPort(ctx context.Context, connector *netscan.Connector, port model.Port) *model.ServiceRecord {
	s.setStatus(port, model.Executing)
	defer s.setStatus(port, model.Complete)

	record := &model.ServiceRecord{Port: port, Protocol: tcpProtocol, State: model.StateUnknown}

	conn, state, err := connector.Connect(ctx, s.config.Target, port, s.config.ConnectTimeout)
	record.State = state
	if err != nil {
		if ioErr, ok := err.(*model.IoError); ok {
			s.errorStats.Increment(ioErr.Kind.String())
		}
		record.Service, record.Summary, record.Banner = netscan.Identify("", nil, port, s.catalog)
		return record
	}
	defer conn.Close()

	banner, req, httpResp := s.probeStream(conn)
	var tlsInfo *model.TlsInfo

	// A connect that succeeded but produced no banner and no usable HTTP
	// response, with TLS enabled, is the signal that the peer likely spoke
	// TLS only; retry the probes once over a fresh TLS-wrapped stream.
	if banner == "" && (httpResp == nil || !httpResp.Valid) && s.config.TLSEnabled {
		if tlsConn, info, tlsErr := s.retryOverTLS(ctx, connector, port); tlsErr == nil {
			defer tlsConn.Close()
			banner, req, httpResp = s.probeStream(tlsConn)
			tlsInfo = info
		}
	}

	record.Banner = banner
	record.Request = req
	record.Response = httpResp
	record.TLS = tlsInfo

	record.Service, record.Summary, record.Banner = netscan.Identify(record.Banner, httpResp, port, s.catalog)
	return record
}

// probeStream runs BannerProbe then, when the banner is empty or HTTP was
// forced, HttpProbe, over the given stream.
func (s *Scheduler) probeStream(conn net.Conn) (string, *model.HttpRequest, *model.HttpResponse) {
	banner, _ := netscan.ReadBanner(conn, s.config.RecvTimeout)

	if banner != "" && !s.config.ForceHTTP {
		return banner, nil, nil
	}

	method := "HEAD"
	if s.config.ForceHTTP {
		method = "GET"
	}
	req, resp, err := netscan.Exchange(conn, s.config.Target, s.config.URI, method, s.config.SendTimeout, s.config.RecvTimeout)
	if err != nil {
		if httpErr, ok := err.(*model.HttpError); ok {
			s.errorStats.Increment(httpErr.Kind.String())
		}
		return banner, nil, nil
	}
	return banner, req, resp
}

// retryOverTLS opens a fresh TCP stream to the same port and adopts TLS
// on it, per section 4.8's TLS-only retry rule.
func (s *Scheduler) retryOverTLS(ctx context.Context, connector *netscan.Connector, port model.Port) (net.Conn, *model.TlsInfo, error) {
	conn, _, err := connector.Connect(ctx, s.config.Target, port, s.config.ConnectTimeout)
	if err != nil {
		return nil, nil, err
	}
	var tlsConnector netscan.TlsConnector
	tlsConn, info, err := tlsConnector.Handshake(ctx, conn, s.config.Target, s.config.ConnectTimeout)
	if err != nil {
		if tlsErr, ok := err.(*model.TlsError); ok {
			s.errorStats.Increment(tlsErr.Kind.String())
		}
		conn.Close()
		return nil, nil, err
	}
	return tlsConn, info, nil
}

func (s *Scheduler) setStatus(port model.Port, status model.TaskStatus) {
	s.statusMu.Lock()
	s.status[port] = status
	s.statusMu.Unlock()
}

func (s *Scheduler) completedCount() int {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	n := 0
	for _, st := range s.status {
		if st == model.Complete {
			n++
		}
	}
	return n
}

func (s *Scheduler) commit(_ model.Port, record *model.ServiceRecord) {
	s.recordsMu.Lock()
	s.records = append(s.records, record)
	s.recordsMu.Unlock()
}

func sortRecords(records []*model.ServiceRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].Port < records[j].Port })
}

// joinPorts renders the first n ports (or all of them) as a comma-joined
// list, for the startup banner.
func joinPorts(ports []model.Port, n int) string {
	labels := make([]string, 0, n)
	limit := n
	if limit > len(ports) {
		limit = len(ports)
	}
	for _, p := range ports[:limit] {
		labels = append(labels, model.PortLabel(p, tcpProtocol))
	}
	return strings.Join(labels, ", ")
}
