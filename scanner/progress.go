package scanner

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressTracker shows a "Processed N images" spinner while candidates are hashed
type ProgressTracker struct {
	bar       *progressbar.ProgressBar
	processed int
	errors    int
	mu        sync.Mutex
}

// NewProgressTracker initializes the progress tracker. An invisible tracker
// still counts.
func NewProgressTracker(w io.Writer, visible bool) *ProgressTracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription(describe(0)),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &ProgressTracker{bar: bar}
}

func describe(processed int) string {
	return fmt.Sprintf("Processed %d images", processed)
}

// Processed records a successfully hashed candidate
func (p *ProgressTracker) Processed() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	p.bar.Describe(describe(p.processed))
	p.bar.Add(1)
}

// Failed records a candidate that could not be hashed
func (p *ProgressTracker) Failed() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errors++
}

// Clear erases the spinner line so other output starts on a clean line
func (p *ProgressTracker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar.Clear()
}

// Stop ends the progress display
func (p *ProgressTracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar.Finish()
}

// Counts returns processed and failed totals
func (p *ProgressTracker) Counts() (processed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.errors
}
