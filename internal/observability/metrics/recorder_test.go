package metrics

import (
	"sync"
)

// fakeRecorder counts recorded metrics by "operation/value" keys
type fakeRecorder struct {
	mu        sync.Mutex
	ops       map[string]int
	errs      map[string]int
	durations map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		ops:       map[string]int{},
		errs:      map[string]int{},
		durations: map[string]int{},
	}
}

func (r *fakeRecorder) RecordOperation(operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[operation+"/"+status]++
}

func (r *fakeRecorder) RecordDuration(operation string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[operation]++
}

func (r *fakeRecorder) RecordError(operation, errorType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[operation+"/"+errorType]++
}

func (r *fakeRecorder) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)+len(r.errs)+len(r.durations) == 0
}
