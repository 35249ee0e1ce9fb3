package backend

import (
	"fmt"

	"github.com/gogpu/shade/internal/logging"
)

// ProbeResult is what a capability probe found.
type ProbeResult struct {
	// Supported reports whether the Capable backend can run.
	Supported bool

	// Adapter names the device the probe would use, when known.
	Adapter string

	// Err keeps the reason a probe failed. It is informational only.
	Err error
}

// Prober queries the platform for Capable support.
// Implementations must not leave devices or windows behind.
type Prober interface {
	Probe() (ProbeResult, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func() (ProbeResult, error)

// Probe calls f.
func (f ProberFunc) Probe() (ProbeResult, error) { return f() }

// Static is a Prober that always returns the same answer.
type Static bool

// Probe implements Prober.
func (s Static) Probe() (ProbeResult, error) { return ProbeResult{Supported: bool(s)}, nil }

// RunProbe runs p and folds every failure into an unsupported result.
// A nil prober reports unsupported.
func RunProbe(p Prober) (res ProbeResult) {
	if p == nil {
		return ProbeResult{}
	}
	defer func() {
		if r := recover(); r != nil {
			res = ProbeResult{Err: fmt.Errorf("backend: probe panicked: %v", r)}
			logging.Logger().Warn("capability probe panicked", "panic", r)
		}
	}()
	res, err := p.Probe()
	if err != nil {
		logging.Logger().Warn("capability probe failed", "err", err)
		return ProbeResult{Err: err}
	}
	return res
}
