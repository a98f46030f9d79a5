package dashboard

import (
	"time"

	"github.com/dailyyoga/dashsync/rest"
)

const (
	// LoginProbeInterval is the poll period while a probe is pending
	LoginProbeInterval = 500 * time.Millisecond
	// ScanTaskInterval is the poll period while any listed task is active
	ScanTaskInterval = 5 * time.Second
)

// LoginProbePolicy polls a pending login probe and stops once it resolves.
func LoginProbePolicy(data any) (time.Duration, bool) {
	probe, ok := data.(LoginProbe)
	if !ok || probe.Status.Terminal() {
		return 0, false
	}
	return LoginProbeInterval, true
}

// ScanTaskListPolicy polls a task page while any task on it is active.
func ScanTaskListPolicy(data any) (time.Duration, bool) {
	page, ok := data.(rest.Page[ScanTask])
	if !ok {
		return 0, false
	}
	for _, t := range page.Items {
		if !t.Status.Terminal() {
			return ScanTaskInterval, true
		}
	}
	return 0, false
}
