// Package deps makes sure the helper programs avbtool needs are installed.
package deps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang/glog"

	"github.com/gitclone-url/Experimental/internal/runner"
)

// ErrInstallFailed is wrapped by every error Ensure returns.
var ErrInstallFailed = errors.New("installation failed")

// Tool describes a program to probe for.
type Tool struct {
	// Name is shown to the operator, e.g. "Python 2".
	Name string
	// Check is the command whose zero exit proves the tool is present.
	Check []string
	// Package is what the package manager installs.
	Package string
	// VersionField selects a whitespace separated field of the check
	// output as the version. Negative means the whole trimmed output.
	VersionField int
}

// Python2 probes for the interpreter avbtool runs under.
func Python2(bin string) Tool {
	return Tool{Name: "Python 2", Check: []string{bin, "--version"}, Package: "python2", VersionField: -1}
}

// OpenSSL probes for the openssl command line tool.
func OpenSSL(bin string) Tool {
	return Tool{Name: "OpenSSL Tool", Check: []string{bin, "version"}, Package: "openssl-tool", VersionField: 1}
}

// Installer installs a package.
type Installer interface {
	Install(ctx context.Context, pkg string) error
}

// PackageManager installs packages with Command followed by the package
// name and "-y", e.g. `pkg install python2 -y`.
type PackageManager struct {
	Command []string
	Runner  runner.Runner
}

func (p PackageManager) Install(ctx context.Context, pkg string) error {
	if len(p.Command) == 0 {
		return errors.New("no package manager configured")
	}
	args := append(append([]string(nil), p.Command[1:]...), pkg, "-y")
	_, err := p.Runner.Run(ctx, "", p.Command[0], args...)
	return err
}

// Result reports what Ensure found or did.
type Result struct {
	Version   string
	Installed bool
}

// Prober checks for tools and installs the missing ones.
type Prober struct {
	Runner    runner.Runner
	Installer Installer
	// Retries bounds how often a freshly installed tool is checked again.
	Retries uint64
	// Interval is the initial wait between those checks.
	Interval time.Duration
	// Installing, if set, is called right before a missing tool is installed.
	Installing func(Tool)
}

func (p *Prober) check(ctx context.Context, t Tool) (string, error) {
	out, err := p.Runner.Run(ctx, "", t.Check[0], t.Check[1:]...)
	if err != nil {
		return "", err
	}
	return version(string(out), t.VersionField), nil
}

func version(out string, field int) string {
	out = strings.TrimSpace(out)
	if field < 0 {
		return out
	}
	f := strings.Fields(out)
	if field >= len(f) {
		return out
	}
	return f[field]
}

// Ensure returns the version of t, installing it first when the check
// command fails. A tool that is already present is never reinstalled.
func (p *Prober) Ensure(ctx context.Context, t Tool) (Result, error) {
	if len(t.Check) == 0 {
		return Result{}, fmt.Errorf("%s: %w: no check command", t.Name, ErrInstallFailed)
	}
	v, err := p.check(ctx, t)
	if err == nil {
		glog.V(1).Infof("%s present: %s", t.Name, v)
		return Result{Version: v}, nil
	}
	glog.Infof("%s check failed, installing %s: %v", t.Name, t.Package, err)
	if p.Installing != nil {
		p.Installing(t)
	}

	if err := p.Installer.Install(ctx, t.Package); err != nil {
		return Result{}, fmt.Errorf("%s: %w: %v", t.Name, ErrInstallFailed, err)
	}

	b := backoff.NewExponentialBackOff()
	if p.Interval > 0 {
		b.InitialInterval = p.Interval
	}
	op := func() error {
		var err error
		v, err = p.check(ctx, t)
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, p.Retries), ctx)); err != nil {
		return Result{}, fmt.Errorf("%s: %w: still missing after installing %s: %v", t.Name, ErrInstallFailed, t.Package, err)
	}
	return Result{Version: v, Installed: true}, nil
}
