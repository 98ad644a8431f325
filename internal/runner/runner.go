// Package runner executes external programs such as avbtool, openssl and the
// platform package manager, capturing everything they print.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/golang/glog"
)

// Runner runs prog with args inside dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, prog string, args ...string) ([]byte, error)
}

// ExitError is returned when a program could not be started or exited non-zero.
type ExitError struct {
	Prog   string
	Args   []string
	Code   int
	Output []byte
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Prog, strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(string(e.Output)); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Output returns the captured output carried by err, if any.
func Output(err error) string {
	var ee *ExitError
	if errors.As(err, &ee) {
		return string(ee.Output)
	}
	return ""
}

// Exec runs programs on the host.
type Exec struct {
	// Stdin is handed to every child; nil means no input.
	Stdin io.Reader
}

func (e Exec) Run(ctx context.Context, dir, prog string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.Stdin = e.Stdin
	cmd.Dir = dir

	glog.V(1).Infof("running: %s %q (dir %q)", prog, args, dir)
	if err := cmd.Run(); err != nil {
		code := -1
		var xe *exec.ExitError
		if errors.As(err, &xe) {
			code = xe.ExitCode()
		}
		glog.V(1).Infof("%s exited with code %d", prog, code)
		return out.Bytes(), &ExitError{Prog: prog, Args: args, Code: code, Output: out.Bytes(), Err: err}
	}
	return out.Bytes(), nil
}
