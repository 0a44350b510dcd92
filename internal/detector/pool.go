package detector

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/tphakala/voicedetect/internal/errors"
	"github.com/tphakala/voicedetect/internal/language"
)

// Pool bounds the number of concurrent detections
type Pool struct {
	detector Detector
	sem      *semaphore.Weighted
	size     int
	inFlight atomic.Int64
}

// NewPool wraps d so that at most size detections run at once.
// A size of zero or less uses GOMAXPROCS.
func NewPool(d Detector, size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		detector: d,
		sem:      semaphore.NewWeighted(int64(size)),
		size:     size,
	}
}

// Detect waits for a free slot, honoring ctx, and runs the detection
func (p *Pool) Detect(ctx context.Context, samples []float32, sampleRate int, lang language.Language) (*Result, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		category := errors.CategoryCancellation
		if errors.Is(err, context.DeadlineExceeded) {
			category = errors.CategoryTimeout
		}
		return nil, errors.New(fmt.Errorf("waiting for detector slot: %w", err)).
			Component("detector").
			Category(category).
			Build()
	}
	defer p.sem.Release(1)

	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	return p.detector.Detect(samples, sampleRate, lang)
}

// Name returns the wrapped detector's name
func (p *Pool) Name() string {
	return p.detector.Name()
}

// Size returns the concurrency limit
func (p *Pool) Size() int {
	return p.size
}

// InFlight returns the number of detections currently running
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}
