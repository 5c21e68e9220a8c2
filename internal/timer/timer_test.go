package timer

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDurationDropsHourSegmentUnderAnHour(t *testing.T) {
	got := FormatDuration(90*time.Second + 250*time.Millisecond)
	want := "1 min, 30.250 sec"
	if got != want {
		t.Fatalf("FormatDuration = %q, want %q", got, want)
	}
}

func TestFormatDurationIncludesHourSegment(t *testing.T) {
	got := FormatDuration(time.Hour + 2*time.Minute + 3*time.Second)
	if !strings.HasPrefix(got, "1 hours, 2 min, 3.000 sec") {
		t.Fatalf("FormatDuration = %q, want hour segment", got)
	}
}

func TestTimerElapsed(t *testing.T) {
	var tm Timer
	tm.Start()
	time.Sleep(5 * time.Millisecond)
	tm.Stop()

	if tm.Elapsed() <= 0 {
		t.Fatalf("Elapsed() = %v, want positive duration", tm.Elapsed())
	}
	if tm.EndTime().Before(tm.StartTime()) {
		t.Fatalf("EndTime before StartTime")
	}
}
