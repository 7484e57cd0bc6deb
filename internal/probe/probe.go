package probe

import (
	"context"
	"strings"
)

// Result describes a detected disc.
type Result struct {
	Device string
	Label  string
	Type   string // "DVD", "Blu-ray", or "Unknown"
}

// DetectFunc is invoked once per newly detected disc on a configured drive.
type DetectFunc func(ctx context.Context, result Result)

// DiscProbe watches one or more optical drives and invokes a callback when
// media is inserted. Implementations must be safe to Stop from any
// goroutine and idempotent across repeated Start/Stop cycles.
type DiscProbe interface {
	Start(ctx context.Context, onDetect DetectFunc) error
	Stop()
}

func fallbackLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed != "" {
		return trimmed
	}
	return "Unknown Disc"
}
