package action

import (
	"context"
	"time"

	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
)

// defaultReportInterval is the slice length of the poll-sleep loop. The loop
// exists so cancellation can take effect within one interval instead of only
// after the full wait.
const defaultReportInterval = time.Second

// Wait sleeps for a configured duration. The sleep is performed in
// report-interval slices so a cancelled run wakes up promptly, and the total
// slept time is capped at MaxWaitTime when set.
type Wait struct {
	ActionName      string
	DurationSeconds float64
	MaxWaitTime     float64 // seconds; 0 means no cap
	ReportInterval  float64 // seconds; 0 means the 1s default
}

var _ Leaf = (*Wait)(nil)

// NewWait creates a wait action.
func NewWait(name string, durationSeconds float64) *Wait {
	return &Wait{ActionName: coerceName(name, TypeWait), DurationSeconds: durationSeconds}
}

func (a *Wait) Type() string { return TypeWait }
func (a *Wait) Name() string { return coerceName(a.ActionName, TypeWait) }

func (a *Wait) Validate() error {
	if a.DurationSeconds < 0 {
		return newValidationError(a.Name(), "duration_seconds", "must not be negative")
	}
	if a.MaxWaitTime < 0 {
		return newValidationError(a.Name(), "max_wait_time", "must not be negative")
	}
	if a.ReportInterval < 0 {
		return newValidationError(a.Name(), "report_interval", "must not be negative")
	}
	return nil
}

func (a *Wait) Execute(ctx context.Context, drv driver.Driver, creds credential.Source) *Result {
	total := secondsToDuration(a.DurationSeconds)
	if a.MaxWaitTime > 0 {
		if capAt := secondsToDuration(a.MaxWaitTime); total > capAt {
			total = capAt
		}
	}
	interval := defaultReportInterval
	if a.ReportInterval > 0 {
		interval = secondsToDuration(a.ReportInterval)
	}

	slept, err := sleepInterruptible(ctx, total, interval)
	if err != nil {
		return Failuref("wait interrupted after %s: %v", slept.Round(time.Millisecond), err)
	}
	return Successf("waited %s", slept.Round(time.Millisecond))
}

// sleepInterruptible sleeps for total in interval-sized slices, returning the
// time actually slept and the context error if interrupted.
func sleepInterruptible(ctx context.Context, total, interval time.Duration) (time.Duration, error) {
	var slept time.Duration
	timer := time.NewTimer(0)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for slept < total {
		slice := interval
		if remaining := total - slept; slice > remaining {
			slice = remaining
		}
		timer.Reset(slice)
		select {
		case <-ctx.Done():
			return slept, ctx.Err()
		case <-timer.C:
			slept += slice
		}
	}
	return slept, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (a *Wait) ToRecord() Record {
	rec := Record{
		"type":             TypeWait,
		"name":             a.Name(),
		"duration_seconds": a.DurationSeconds,
	}
	if a.MaxWaitTime > 0 {
		rec["max_wait_time"] = a.MaxWaitTime
	}
	if a.ReportInterval > 0 {
		rec["report_interval"] = a.ReportInterval
	}
	return rec
}

func (a *Wait) NestedActions() []Action { return nil }

func waitFromRecord(rec Record) (Action, error) {
	duration, _ := rec.Float("duration_seconds")
	w := NewWait(rec.String("name"), duration)
	w.MaxWaitTime, _ = rec.Float("max_wait_time")
	w.ReportInterval, _ = rec.Float("report_interval")
	return w, nil
}
