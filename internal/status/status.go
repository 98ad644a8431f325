// Package status prints operator-facing progress for the command line tools.
package status

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	red   = "\033[31m"
	green = "\033[32m"
	blue  = "\033[34m"
	reset = "\033[0m"
)

// Printer writes coloured status lines to W. Pauses only happen when Pace is set.
type Printer struct {
	W    io.Writer
	Pace bool
}

func New(w io.Writer, pace bool) *Printer {
	return &Printer{W: w, Pace: pace}
}

func (p *Printer) colour(c, msg string) {
	fmt.Fprintf(p.W, "%s%s%s\n", c, msg, reset)
}

func (p *Printer) Info(msg string)    { p.colour(blue, msg) }
func (p *Printer) Success(msg string) { p.colour(green, msg) }
func (p *Printer) Error(msg string)   { p.colour(red, msg) }

func (p *Printer) Infof(format string, a ...any)    { p.Info(fmt.Sprintf(format, a...)) }
func (p *Printer) Successf(format string, a ...any) { p.Success(fmt.Sprintf(format, a...)) }
func (p *Printer) Errorf(format string, a ...any)   { p.Error(fmt.Sprintf(format, a...)) }

// Log prints a bullet line, or a bare newline for an empty message.
func (p *Printer) Log(msg string) {
	if msg == "" {
		fmt.Fprint(p.W, "\n")
		return
	}
	fmt.Fprintln(p.W, "  • "+msg)
}

func (p *Printer) Logf(format string, a ...any) {
	p.Log(fmt.Sprintf(format, a...))
}

// Rule prints a horizontal line n characters wide.
func (p *Printer) Rule(n int) {
	fmt.Fprintln(p.W, strings.Repeat("-", n))
}

// Framed prints msg in green between two rules of the same width.
func (p *Printer) Framed(msg string) {
	n := len([]rune(msg))
	p.Rule(n)
	p.Success(msg)
	p.Rule(n)
}

// Banner prints lines verbatim.
func (p *Printer) Banner(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(p.W, l)
	}
}

// Pause sleeps for d when pacing is on. It returns early with ctx's error
// if ctx is done first.
func (p *Printer) Pause(ctx context.Context, d time.Duration) error {
	if !p.Pace || d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
