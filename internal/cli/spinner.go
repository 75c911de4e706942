package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner abstracts the terminal spinner so the progress display can be
// tested without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }
func (rs *realSpinner) Stop()  { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// IsTerminal reports whether w is a terminal, native or Cygwin.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ProgressDisplay shows a spinner with a progress bar while a governed run
// executes. Report may be called from the engine goroutine.
type ProgressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	label   string
	state   *ProgressWithETA
	spinner Spinner
	ticker  *time.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
	stopped bool
}

// StartProgress starts a progress display on out. A disabled display, used
// for quiet runs and non-terminal output, ignores reports and prints nothing.
//
// Parameters:
//   - out: The writer the spinner renders to.
//   - label: The text shown before the bar, e.g. "fibonacci by index 1000000".
//   - enabled: Whether anything is rendered.
//
// Returns:
//   - *ProgressDisplay: The display. Stop must be called once the run ends.
func StartProgress(out io.Writer, label string, enabled bool) *ProgressDisplay {
	p := &ProgressDisplay{out: out, label: label, state: NewProgressWithETA(), done: make(chan struct{})}
	if !enabled {
		p.stopped = true
		return p
	}
	p.spinner = newSpinner(spinner.WithWriter(out))
	p.spinner.UpdateSuffix(" " + label)
	p.spinner.Start()
	p.ticker = time.NewTicker(ProgressRefreshRate)
	p.wg.Add(1)
	go p.refresh()
	return p
}

// Report records a progress value in [0, 1]. It has the signature of
// sequence.ProgressReporter.
func (p *ProgressDisplay) Report(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.state.UpdateWithETA(v)
}

func (p *ProgressDisplay) refresh() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			suffix := fmt.Sprintf(" %s %s", p.label,
				FormatProgressBarWithETA(p.state.Progress(), p.state.GetETA(), ProgressBarWidth))
			p.mu.Unlock()
			p.spinner.UpdateSuffix(suffix)
		}
	}
}

// Stop halts the spinner. With success set, a final 100% line is printed so
// the bar persists above the result.
func (p *ProgressDisplay) Stop(success bool) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()
	p.ticker.Stop()
	p.spinner.Stop()
	if success {
		fmt.Fprintf(p.out, "%s %6.2f%% [%s]\n", p.label, 100.0, progressBar(1.0, ProgressBarWidth))
	}
}
