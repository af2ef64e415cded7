package probe

import (
	"context"
	"fmt"
)

// CheckResult is the outcome of one reachability probe.
type CheckResult struct {
	Name      string  `json:"name"`   // probe kind: DNS, TCP
	Target    string  `json:"target"` // host or host:port actually probed
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	LatencyMS float64 `json:"latency_ms,omitempty"`
}

func (r CheckResult) String() string {
	return fmt.Sprintf("%s %s: %s (%.0fms)", r.Name, r.Target, r.Message, r.LatencyMS)
}

type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
