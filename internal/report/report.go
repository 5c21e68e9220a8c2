// Package report builds the two output forms section 4.10 of the design
// requires: a sorted text table and a deterministic JSON document.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pterm/pterm"

	"github.com/svcscan/svcscan/internal/model"
	"github.com/svcscan/svcscan/internal/timer"
)

const (
	appName       = "SvcScan"
	appRepository = "github.com/svcscan/svcscan"
)

// jsonAPI does not escape HTML. Struct field order (the document schema)
// determines object key order, and map keys (the HTTP header maps) are
// sorted, so the same records always render the same document.
var jsonAPI = sonic.Config{
	UseNumber:   true,
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// Document is the JSON report schema from section 4.10.
type Document struct {
	AppInfo     AppInfo     `json:"appInfo"`
	ScanSummary ScanSummary `json:"scanSummary"`
	ScanResults ScanResults `json:"scanResults"`
}

type AppInfo struct {
	Name       string `json:"name"`
	Repository string `json:"repository"`
}

type ScanSummary struct {
	Duration   string   `json:"duration"`
	StartTime  string   `json:"startTime"`
	EndTime    string   `json:"endTime"`
	ReportPath string   `json:"reportPath,omitempty"`
	Executable string   `json:"executable"`
	Arguments  []string `json:"arguments"`
}

type ScanResults struct {
	Target   string          `json:"target"`
	Services []ServiceObject `json:"services"`
}

type ServiceObject struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	State    string `json:"state"`
	Service  string `json:"service"`
	Summary  string `json:"summary"`
	Banner   string `json:"banner"`

	CipherSuite string `json:"cipherSuite,omitempty"`
	X509Issuer  string `json:"x509Issuer,omitempty"`
	X509Subject string `json:"x509Subject,omitempty"`

	HttpInfo *HttpInfo `json:"httpInfo,omitempty"`
}

type HttpInfo struct {
	Request  RequestObject  `json:"request"`
	Response ResponseObject `json:"response"`
}

type RequestObject struct {
	Version string            `json:"version"`
	Method  string            `json:"method"`
	URI     string            `json:"uri"`
	Headers map[string]string `json:"headers"`
}

type ResponseObject struct {
	Version string            `json:"version"`
	Status  int               `json:"status"`
	Reason  string            `json:"reason"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// BuildDocument assembles the JSON report schema. records need not be
// pre-sorted; BuildDocument sorts a copy by ascending port, matching the
// text table's ordering guarantee.
func BuildDocument(cfg *model.ScanConfig, records []*model.ServiceRecord, tm *timer.Timer, reportPath, executable string) *Document {
	sorted := sortedRecords(records)

	services := make([]ServiceObject, 0, len(sorted))
	for _, r := range sorted {
		obj := ServiceObject{
			Port:     int(r.Port),
			Protocol: r.Protocol,
			State:    r.State.String(),
			Service:  r.Service,
			Summary:  r.Summary,
			Banner:   r.Banner,
		}
		if r.TLS != nil {
			obj.CipherSuite = r.TLS.CipherSuite
			obj.X509Issuer = r.TLS.X509Issuer
			obj.X509Subject = r.TLS.X509Subject
		}
		if r.Request != nil && r.Response != nil {
			obj.HttpInfo = &HttpInfo{
				Request: RequestObject{
					Version: r.Request.Version,
					Method:  r.Request.Method,
					URI:     r.Request.URI,
					Headers: r.Request.Headers,
				},
				Response: ResponseObject{
					Version: r.Response.Version,
					Status:  r.Response.Status,
					Reason:  r.Response.Reason,
					Headers: r.Response.Headers,
					Body:    string(r.Response.Body),
				},
			}
		}
		services = append(services, obj)
	}

	return &Document{
		AppInfo: AppInfo{Name: appName, Repository: appRepository},
		ScanSummary: ScanSummary{
			Duration:   tm.ElapsedString(),
			StartTime:  timer.FormatTimestamp(tm.StartTime()),
			EndTime:    timer.FormatTimestamp(tm.EndTime()),
			ReportPath: reportPath,
			Executable: executable,
			Arguments:  cfg.Argv,
		},
		ScanResults: ScanResults{
			Target:   cfg.Target,
			Services: services,
		},
	}
}

// MarshalJSON renders doc as an indented, deterministically-ordered JSON
// document.
func MarshalJSON(doc *Document) ([]byte, error) {
	return jsonAPI.MarshalIndent(doc, "", "  ")
}

// RenderTable renders the four-column text table from section 4.10: PORT,
// STATE, SERVICE, SUMMARY, with SUMMARY omitted entirely when every row's
// summary is empty.
func RenderTable(records []*model.ServiceRecord) (string, error) {
	sorted := sortedRecords(records)

	includeSummary := false
	for _, r := range sorted {
		if r.Summary != "" {
			includeSummary = true
			break
		}
	}

	header := []string{"PORT", "STATE", "SERVICE", "SUMMARY"}
	if !includeSummary {
		header = header[:3]
	}

	tableData := pterm.TableData{header}
	for _, r := range sorted {
		row := []string{r.PortString(), r.State.String(), r.Service}
		if includeSummary {
			row = append(row, r.Summary)
		}
		tableData = append(tableData, row)
	}

	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).Srender()
}

// FormatRecordDetail renders the verbose per-port detail block recovered
// from the original SvcInfo::details(): port/state/service/summary/banner,
// plus TLS and HTTP sections when present. Emitted only in verbose mode,
// alongside (not instead of) the table/JSON report.
func FormatRecordDetail(r *model.ServiceRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", r.PortString())
	fmt.Fprintf(&b, "  State    %s\n", r.State)
	fmt.Fprintf(&b, "  Service  %s\n", r.Service)
	if r.Summary != "" {
		fmt.Fprintf(&b, "  Summary  %s\n", r.Summary)
	}
	if r.Banner != "" {
		fmt.Fprintf(&b, "  Banner   %s\n", r.Banner)
	}
	if r.TLS != nil {
		fmt.Fprintf(&b, "  Cipher   %s\n", r.TLS.CipherSuite)
		fmt.Fprintf(&b, "  Issuer   %s\n", r.TLS.X509Issuer)
		fmt.Fprintf(&b, "  Subject  %s\n", r.TLS.X509Subject)
	}
	if r.Request != nil {
		fmt.Fprintf(&b, "  Request  %s %s HTTP/%s\n", r.Request.Method, r.Request.URI, r.Request.Version)
	}
	if r.Response != nil {
		fmt.Fprintf(&b, "  Response HTTP/%s %d %s\n", r.Response.Version, r.Response.Status, r.Response.Reason)
	}

	return b.String()
}

func sortedRecords(records []*model.ServiceRecord) []*model.ServiceRecord {
	sorted := make([]*model.ServiceRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Port < sorted[j].Port })
	return sorted
}
