package search

import (
	"fmt"
	"io"
	"path/filepath"

	"findimg/imageprocessor"
	"findimg/logging"
	"findimg/scanner"
	"findimg/types"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/stat"
)

// ConsoleReporter prints matches to out and progress to a spinner
type ConsoleReporter struct {
	out      io.Writer
	progress *scanner.ProgressTracker

	matchStyle lipgloss.Style
	uriStyle   lipgloss.Style
	infoStyle  lipgloss.Style
}

// NewConsoleReporter creates a reporter. The spinner is drawn on progressOut
// only when showProgress is set.
func NewConsoleReporter(out, progressOut io.Writer, showProgress bool) *ConsoleReporter {
	renderer := lipgloss.NewRenderer(out)
	return &ConsoleReporter{
		out:      out,
		progress: scanner.NewProgressTracker(progressOut, showProgress),
		matchStyle: renderer.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575")),
		uriStyle: renderer.NewStyle().
			Underline(true),
		infoStyle: renderer.NewStyle().
			Foreground(lipgloss.Color("#888888")),
	}
}

func (r *ConsoleReporter) Start(reference string, hash imageprocessor.Fingerprint) {
	logging.LogInfo("Search for images similar to %s", filepath.Base(reference))
	logging.DebugLog("Reference hash: %s", hash)
}

func (r *ConsoleReporter) Processed(path string) {
	r.progress.Processed()
}

func (r *ConsoleReporter) Failed(path string, err error) {
	r.progress.Failed()
}

func (r *ConsoleReporter) Match(match types.ImageMatch, state *types.ScanState) {
	r.progress.Clear()
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.matchStyle.Render("Found match!"))
	fmt.Fprintln(r.out, r.uriStyle.Render(match.URI))
	logging.DebugLog("Distance: %d, matches so far: %d, processed: %d", match.Distance, state.Matched, state.Processed)
}

func (r *ConsoleReporter) Summary(state *types.ScanState) {
	r.progress.Stop()

	if state.StopReason == types.StopAborted {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Exiting.")
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Found %d similar images.\n", state.Matched)
	fmt.Fprintln(r.out, r.infoStyle.Render(fmt.Sprintf("Processed %d images", state.Processed)))

	if state.Failed > 0 {
		logging.DebugLog("%d files could not be fingerprinted", state.Failed)
	}
	if n := len(state.Distances); n > 1 {
		mean, std := stat.MeanStdDev(state.Distances, nil)
		logging.DebugLog("Distance mean %.2f, std dev %.2f over %d images", mean, std, n)
	}
	if state.Matched == 0 && state.Closest != nil {
		logging.LogInfo("Closest image was %s at distance %d. Try decreasing sensitivity or increasing distance.",
			state.Closest.URI, state.Closest.Distance)
	}
}
