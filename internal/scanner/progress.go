package scanner

import (
	"fmt"
	"strings"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/svcscan/svcscan/internal/model"
	"github.com/svcscan/svcscan/internal/terminal"
	"github.com/svcscan/svcscan/internal/timer"
)

const startupPortPreview = 7

// ProgressReporter implements section 4.9: it prints the startup/shutdown
// banners and, on keypress, a completion percentage.
type ProgressReporter struct {
	term   *terminal.Terminal
	events <-chan keyboard.KeyEvent
}

// NewProgressReporter opens the terminal's keyboard buffer, per the
// corpus's own keyboard.GetKeys pattern. If the buffer can't be opened
// (e.g. no controlling terminal), progress reporting is silently
// disabled rather than failing the scan.
func NewProgressReporter(term *terminal.Terminal) *ProgressReporter {
	events, err := keyboard.GetKeys(64)
	if err != nil {
		return &ProgressReporter{term: term}
	}
	return &ProgressReporter{term: term, events: events}
}

// PrintStartupBanner prints the app title, start timestamp, target, and a
// truncated port list.
func (p *ProgressReporter) PrintStartupBanner(cfg *model.ScanConfig, start time.Time) {
	p.term.Info("SvcScan - starting scan of %s at %s", cfg.Target, timer.FormatTimestamp(start))
	p.term.Info("Ports: %s", formatPortPreview(cfg.Ports))
}

// PrintShutdownBanner prints the "Scan Summary" block: duration, start
// time, end time, and — if set — the report path. Under verbose mode, it
// also prints the per-kind tally from stats, when any kind fired.
func (p *ProgressReporter) PrintShutdownBanner(tm *timer.Timer, reportPath string, stats *errorStats, verbose bool) {
	p.term.Info("Scan Summary")
	p.term.Info("  Duration   %s", tm.ElapsedString())
	p.term.Info("  Start Time %s", timer.FormatTimestamp(tm.StartTime()))
	p.term.Info("  End Time   %s", timer.FormatTimestamp(tm.EndTime()))
	if reportPath != "" {
		p.term.Info("  Report     %q", reportPath)
	}
	if verbose && stats != nil {
		if summary := stats.Summary(); len(summary) > 0 {
			p.term.Info("  Errors     %s", strings.Join(summary, ", "))
		}
	}
	if p.events != nil {
		_ = keyboard.Close()
	}
}

// CheckKeypress drains any keystrokes buffered since the last check and,
// if at least one arrived and completed > 0, prints the completion
// percentage. One press (or a burst of presses) yields exactly one report.
func (p *ProgressReporter) CheckKeypress(completed, total int) {
	if p.events == nil || total == 0 {
		return
	}

	pressed := false
	for {
		select {
		case <-p.events:
			pressed = true
		default:
			if pressed && completed > 0 {
				pct := 100 * float64(completed) / float64(total)
				p.term.Info("Approximately %.1f%% complete (%d ports remaining)", pct, total-completed)
			}
			return
		}
	}
}

// formatPortPreview renders the first startupPortPreview ports as a
// comma-joined list, with a "... (K not shown)" suffix when truncated.
func formatPortPreview(ports []model.Port) string {
	preview := joinPorts(ports, startupPortPreview)
	if len(ports) <= startupPortPreview {
		return preview
	}
	remaining := len(ports) - startupPortPreview
	var b strings.Builder
	b.WriteString(preview)
	fmt.Fprintf(&b, " ... (%d not shown)", remaining)
	return b.String()
}
