package sequence

import (
	"context"
	"math"
	"sync"
)

// ProgressReportThreshold is the minimum progress delta between two reports.
const ProgressReportThreshold = 0.01

// ProgressReporter receives normalized progress values in [0, 1].
type ProgressReporter func(progress float64)

type progressKey struct{}

// WithProgress attaches a reporter to ctx. Engines look it up with ProgressFrom.
func WithProgress(ctx context.Context, reporter ProgressReporter) context.Context {
	if reporter == nil {
		return ctx
	}
	return context.WithValue(ctx, progressKey{}, reporter)
}

// ProgressFrom returns the reporter attached to ctx, or a no-op.
func ProgressFrom(ctx context.Context) ProgressReporter {
	if r, ok := ctx.Value(progressKey{}).(ProgressReporter); ok {
		return r
	}
	return func(float64) {}
}

// BitProgress tracks progress of a loop walking the bits of n from the most
// significant one. Operand sizes double at every step, so with fast
// multiplication the cost of step s is modeled as 4^s.
type BitProgress struct {
	report   ProgressReporter
	numBits  int
	total    float64
	done     float64
	lastSent float64
}

// NewBitProgress creates a tracker for a loop over numBits bits.
func NewBitProgress(report ProgressReporter, numBits int) *BitProgress {
	if report == nil {
		report = func(float64) {}
	}
	return &BitProgress{
		report:  report,
		numBits: numBits,
		total:   (math.Pow(4, float64(numBits)) - 1) / 3,
	}
}

// Step records completion of bit i, counted down from numBits-1 to 0.
func (p *BitProgress) Step(i int) {
	if p.total <= 0 {
		return
	}
	p.done += math.Pow(4, float64(p.numBits-1-i))
	current := p.done / p.total
	if current-p.lastSent >= ProgressReportThreshold || i == 0 {
		p.report(current)
		p.lastSent = current
	}
}

// LinearProgress reports progress of work made of a known number of equal
// units. It is safe for concurrent use.
type LinearProgress struct {
	mu       sync.Mutex
	report   ProgressReporter
	total    float64
	done     uint64
	lastSent float64
}

// NewLinearProgress creates a tracker for total equally weighted units.
func NewLinearProgress(report ProgressReporter, total uint64) *LinearProgress {
	if report == nil {
		report = func(float64) {}
	}
	return &LinearProgress{report: report, total: float64(total)}
}

// Update reports that done of total units are complete.
func (p *LinearProgress) Update(done uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = done
	p.emit()
}

// Add records delta more completed units.
func (p *LinearProgress) Add(delta uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += delta
	p.emit()
}

func (p *LinearProgress) emit() {
	if p.total <= 0 {
		return
	}
	current := math.Min(1, float64(p.done)/p.total)
	if current-p.lastSent >= ProgressReportThreshold || (current == 1 && p.lastSent < 1) {
		p.report(current)
		p.lastSent = current
	}
}
