// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gitclone-url/Experimental/internal/runner"
)

// Call records one invocation seen by Fake.
type Call struct {
	Dir  string
	Prog string
	Args []string
}

// String renders the call as a command line, e.g. "python2 avbtool info_image --image boot.img".
func (c Call) String() string {
	return strings.TrimSpace(c.Prog + " " + strings.Join(c.Args, " "))
}

// Fake records calls and answers them through Handler. A nil Handler makes
// every call succeed with no output.
type Fake struct {
	Handler func(c Call) ([]byte, error)

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) Run(_ context.Context, dir, prog string, args ...string) ([]byte, error) {
	c := Call{Dir: dir, Prog: prog, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.Handler == nil {
		return nil, nil
	}
	return f.Handler(c)
}

// Calls returns the command lines seen so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ret []string
	for _, c := range f.calls {
		ret = append(ret, c.String())
	}
	return ret
}

// Fail builds the error an external program exiting with code would produce.
func Fail(c Call, code int, output string) ([]byte, error) {
	return []byte(output), &runner.ExitError{
		Prog:   c.Prog,
		Args:   c.Args,
		Code:   code,
		Output: []byte(output),
		Err:    fmt.Errorf("exit status %d", code),
	}
}
