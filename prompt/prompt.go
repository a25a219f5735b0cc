// Package prompt asks whether a search should go on after a match.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// Question is asked after every reported match
const Question = "Continue search? [y/n]"

// Answer is the user's decision at the prompt
type Answer int

const (
	// Continue resumes scanning
	Continue Answer = iota
	// Stop ends the search
	Stop
)

// ErrInterrupted is returned when the user interrupts the prompt
var ErrInterrupted = errors.New("prompt interrupted")

// Prompter asks a yes/no question
type Prompter interface {
	Ask(ctx context.Context, question string) (Answer, error)
}

// ParseAnswer maps a reply to an Answer. Only "n" and "no" stop the search;
// case and surrounding whitespace are ignored.
func ParseAnswer(reply string) Answer {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "n", "no":
		return Stop
	default:
		return Continue
	}
}

// New picks the terminal prompter when in is a TTY and the line prompter otherwise
func New(in *os.File, out io.Writer) Prompter {
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return NewTerminalPrompter(in, out)
	}
	return NewLinePrompter(in, out)
}

type readResult struct {
	line string
	err  error
}

// LinePrompter reads one line per question from a plain reader
type LinePrompter struct {
	in      *bufio.Reader
	out     io.Writer
	pending chan readResult
}

// NewLinePrompter creates a prompter reading answers from in
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Ask prints the question and waits for a line. End of input counts as
// Continue; a cancelled ctx returns ErrInterrupted.
func (p *LinePrompter) Ask(ctx context.Context, question string) (Answer, error) {
	fmt.Fprint(p.out, question+" ")

	// A read abandoned by an earlier cancellation is still owed its line
	if p.pending == nil {
		p.pending = make(chan readResult, 1)
		go func(ch chan<- readResult) {
			line, err := p.in.ReadString('\n')
			ch <- readResult{line: line, err: err}
		}(p.pending)
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return Stop, ErrInterrupted
	case r := <-p.pending:
		p.pending = nil
		if r.err != nil && r.line == "" {
			fmt.Fprintln(p.out)
			if r.err == io.EOF {
				return Continue, nil
			}
			return Continue, errors.Wrap(r.err, "read answer")
		}
		return ParseAnswer(r.line), nil
	}
}
