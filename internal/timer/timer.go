// Package timer provides the scan's monotonic elapsed-duration clock and
// wall-clock timestamps, per section 4.11 of the design.
package timer

import (
	"fmt"
	"time"
)

// Timer holds both clocks: time.Now() gives Go a monotonic reading bundled
// with the wall-clock reading, so Elapsed() measures the former while
// StartTime()/EndTime() expose the latter for formatting.
type Timer struct {
	start time.Time
	end   time.Time
}

// Start captures both clocks.
func (t *Timer) Start() {
	t.start = time.Now()
}

// Stop captures both clocks' end reading.
func (t *Timer) Stop() {
	t.end = time.Now()
}

// StartTime returns the wall-clock start instant.
func (t *Timer) StartTime() time.Time { return t.start }

// EndTime returns the wall-clock end instant.
func (t *Timer) EndTime() time.Time { return t.end }

// Elapsed returns the monotonic duration between Start and Stop.
func (t *Timer) Elapsed() time.Duration {
	return t.end.Sub(t.start)
}

// ElapsedString formats Elapsed() as "[H hours, ]M min, S.mmm sec",
// dropping the hour segment entirely when the elapsed time is under an
// hour.
func (t *Timer) ElapsedString() string {
	return FormatDuration(t.Elapsed())
}

// FormatDuration renders d the way ElapsedString does, independent of a
// Timer instance.
func FormatDuration(d time.Duration) string {
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := float64(d) / float64(time.Second)

	if hours > 0 {
		return fmt.Sprintf("%d hours, %d min, %.3f sec", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d min, %.3f sec", minutes, seconds)
}

// FormatTimestamp renders t as "%F %T %Z" in the local time zone, e.g.
// "2026-07-30 14:03:11 MST".
func FormatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05 MST")
}
