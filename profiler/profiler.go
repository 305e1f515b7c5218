// Package profiler - coarse stage timing for pipeline runs.
package profiler

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// StageTimer records how long named pipeline stages take. It is safe for
// concurrent use, though the pipeline itself runs stages strictly in
// sequence.
type StageTimer struct {
	mu     sync.Mutex
	order  []string
	stages map[string]time.Duration
}

// NewStageTimer creates an empty timer.
func NewStageTimer() *StageTimer {
	return &StageTimer{stages: make(map[string]time.Duration)}
}

// Start begins timing a stage and returns the function that stops it.
// Re-timing an existing stage accumulates into it.
func (t *StageTimer) Start(name string) func() {
	begin := time.Now()
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, seen := t.stages[name]; !seen {
			t.order = append(t.order, name)
		}
		t.stages[name] += time.Since(begin)
	}
}

// Duration returns the recorded time for a stage, zero if never timed.
func (t *StageTimer) Duration(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stages[name]
}

// Total sums all recorded stages.
func (t *StageTimer) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, d := range t.stages {
		total += d
	}
	return total
}

// Report formats the stages in the order they were first recorded, e.g.
// "load=1.2ms rotate=8.4ms save=0.9ms total=10.5ms".
func (t *StageTimer) Report() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var b strings.Builder
	var total time.Duration
	for _, name := range t.order {
		d := t.stages[name]
		total += d
		fmt.Fprintf(&b, "%s=%s ", name, d.Round(100*time.Microsecond))
	}
	fmt.Fprintf(&b, "total=%s", total.Round(100*time.Microsecond))
	return b.String()
}
