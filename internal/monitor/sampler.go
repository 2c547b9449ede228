package monitor

import (
	"context"
	"runtime"
	"sync"

	"github.com/fluxrules/ruleflow/internal/eval"
)

// Sampler produces a fresh input snapshot for each evaluation tick.
type Sampler interface {
	Sample(ctx context.Context) (eval.Inputs, error)
}

// SystemSampler reports process runtime metrics: goroutine count, heap
// allocation, and GC cycles. It exists so monitors have a live signal source
// without any external wiring; deployments register their own samplers.
type SystemSampler struct{}

func (SystemSampler) Sample(ctx context.Context) (eval.Inputs, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return eval.Inputs{
		"goroutines":    runtime.NumGoroutine(),
		"heap_alloc_mb": float64(m.HeapAlloc) / (1 << 20),
		"gc_cycles":     m.NumGC,
		"cpu_count":     runtime.NumCPU(),
	}, nil
}

// StaticSampler returns a fixed snapshot; values can be updated between
// ticks. Used for manual test values and in tests.
type StaticSampler struct {
	mu     sync.RWMutex
	values eval.Inputs
}

// NewStaticSampler creates a StaticSampler from initial values.
func NewStaticSampler(values eval.Inputs) *StaticSampler {
	if values == nil {
		values = eval.Inputs{}
	}
	return &StaticSampler{values: values}
}

func (s *StaticSampler) Sample(ctx context.Context) (eval.Inputs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(eval.Inputs, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

// Set updates one variable in the snapshot.
func (s *StaticSampler) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
