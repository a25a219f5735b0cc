// Package search drives one similarity search over a directory tree.
package search

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"findimg/imageprocessor"
	"findimg/logging"
	"findimg/prompt"
	"findimg/scanner"
	"findimg/scanner/processor"
	"findimg/types"
	"findimg/utils"

	"github.com/pkg/errors"
)

// Hasher fingerprints candidate files
type Hasher interface {
	Fingerprint(path string) (imageprocessor.Fingerprint, error)
	IsImageFile(path string) bool
}

// Reporter receives progress and results of a run
type Reporter interface {
	Start(reference string, hash imageprocessor.Fingerprint)
	Processed(path string)
	Failed(path string, err error)
	Match(match types.ImageMatch, state *types.ScanState)
	Summary(state *types.ScanState)
}

// SearchOptions defines one run
type SearchOptions struct {
	Reference   string
	Root        string
	Exclude     []string
	Sensitivity imageprocessor.Sensitivity
	MaxDistance int

	// Prompter is asked after each match; nil always continues
	Prompter prompt.Prompter
	// Reporter defaults to a silent reporter
	Reporter Reporter
	// Hasher defaults to a processor for Sensitivity
	Hasher Hasher
}

// ReferenceError means the reference image could not be fingerprinted
type ReferenceError struct {
	Path string
	Err  error
}

func (e *ReferenceError) Error() string {
	cause := e.Err
	var herr *imageprocessor.HashError
	if errors.As(e.Err, &herr) {
		cause = herr.Err
	}
	return fmt.Sprintf("Cannot fingerprint reference image %s: %v", e.Path, cause)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

type state int

const (
	stateInit state = iota
	stateScanning
	stateMatchFound
	stateDone
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateScanning:
		return "scanning"
	case stateMatchFound:
		return "match-found"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

type controller struct {
	opts    SearchOptions
	hasher  Hasher
	refHash imageprocessor.Fingerprint
	next    func() (string, error, bool)
	stop    func()
	scan    *types.ScanState
	current types.ImageMatch
}

// Run fingerprints the reference, then walks the tree reporting every
// candidate within MaxDistance. Declining at the prompt, interrupting it,
// or cancelling ctx all end the run without an error; the returned state
// says which happened.
func Run(ctx context.Context, opts SearchOptions) (*types.ScanState, error) {
	if err := opts.Sensitivity.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxDistance < 0 {
		return nil, errors.Errorf("distance must not be negative, got %d", opts.MaxDistance)
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}

	c := &controller{opts: opts, scan: &types.ScanState{}}
	defer c.close()

	st := stateInit
	for st != stateDone {
		var err error
		prev := st

		switch st {
		case stateInit:
			st, err = c.init(ctx)
		case stateScanning:
			st, err = c.scanning(ctx)
		case stateMatchFound:
			st = c.matchFound(ctx)
		}
		if err != nil {
			return c.scan, err
		}
		if st != prev {
			logging.Logger().WithField("state", st.String()).Tracef("transition from %s", prev)
		}
	}

	opts.Reporter.Summary(c.scan)
	return c.scan, nil
}

func (c *controller) init(ctx context.Context) (state, error) {
	c.hasher = c.opts.Hasher
	if c.hasher == nil {
		p, err := processor.NewImageProcessor(c.opts.Sensitivity)
		if err != nil {
			return stateDone, err
		}
		c.hasher = p
	}

	hash, err := c.hasher.Fingerprint(c.opts.Reference)
	if err != nil {
		return stateDone, &ReferenceError{Path: c.opts.Reference, Err: err}
	}
	c.refHash = hash

	sc, err := scanner.New(scanner.ScanOptions{
		Root:        c.opts.Root,
		Reference:   c.opts.Reference,
		Exclude:     c.opts.Exclude,
		IsCandidate: c.hasher.IsImageFile,
	})
	if err != nil {
		return stateDone, err
	}
	if names := sc.Excluded().Names(); len(names) > 0 {
		logging.DebugLog("Excluded directory names: %s", strings.Join(names, ", "))
	}
	c.next, c.stop = iter.Pull2(sc.Candidates(ctx))

	c.opts.Reporter.Start(c.opts.Reference, hash)
	return stateScanning, nil
}

func (c *controller) scanning(ctx context.Context) (state, error) {
	if ctx.Err() != nil {
		c.scan.StopReason = types.StopAborted
		return stateDone, nil
	}

	path, err, ok := c.next()
	if !ok {
		c.scan.StopReason = types.StopExhausted
		return stateDone, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			c.scan.StopReason = types.StopAborted
			return stateDone, nil
		}
		logging.DebugLog("Scan error: %v", err)
		return stateScanning, nil
	}

	hash, err := c.hasher.Fingerprint(path)
	if err != nil {
		c.scan.Failed++
		logging.LogImageProcessed(path, false, err.Error())
		c.opts.Reporter.Failed(path, err)
		return stateScanning, nil
	}

	distance, err := imageprocessor.Distance(hash, c.refHash)
	if err != nil {
		return stateDone, errors.Wrapf(err, "compare %s", path)
	}

	c.scan.Processed++
	if logging.IsDebug() {
		c.scan.Distances = append(c.scan.Distances, float64(distance))
	}
	c.opts.Reporter.Processed(path)
	logging.LogImageProcessed(path, true, "")
	logging.DebugLog("Hash: %s. Distance: %d", hash, distance)

	match := types.ImageMatch{Path: path, URI: utils.FileURI(path), Distance: distance}
	if distance <= c.opts.MaxDistance {
		c.current = match
		return stateMatchFound, nil
	}

	c.scan.RecordMiss(match)
	return stateScanning, nil
}

func (c *controller) matchFound(ctx context.Context) state {
	c.scan.Matched++
	c.scan.Matches = append(c.scan.Matches, c.current)
	c.opts.Reporter.Match(c.current, c.scan)

	if c.opts.Prompter == nil {
		return stateScanning
	}

	answer, err := c.opts.Prompter.Ask(ctx, prompt.Question)
	switch {
	case err != nil:
		if !errors.Is(err, prompt.ErrInterrupted) {
			logging.LogWarning("%v", err)
		}
		c.scan.StopReason = types.StopInterrupted
		return stateDone
	case answer == prompt.Stop:
		c.scan.StopReason = types.StopDeclined
		return stateDone
	default:
		return stateScanning
	}
}

func (c *controller) close() {
	if c.stop != nil {
		c.stop()
	}
}

type nopReporter struct{}

func (nopReporter) Start(string, imageprocessor.Fingerprint) {}
func (nopReporter) Processed(string)                         {}
func (nopReporter) Failed(string, error)                     {}
func (nopReporter) Match(types.ImageMatch, *types.ScanState) {}
func (nopReporter) Summary(*types.ScanState)                 {}
