// Package signer adds a signed AVB hash footer to a boot image, keeping the
// boot fingerprint the image already carries.
package signer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/gitclone-url/Experimental/internal/avb"
	"github.com/gitclone-url/Experimental/internal/config"
	"github.com/gitclone-url/Experimental/internal/deps"
	"github.com/gitclone-url/Experimental/internal/runner"
	"github.com/gitclone-url/Experimental/internal/status"
)

const doneMessage = "Boot image signing done! You can now flash the signed boot image to your phone."

// Opts holds everything a signing run needs.
type Opts struct {
	Config config.Config
	Runner runner.Runner
	// Installer defaults to the configured package manager.
	Installer deps.Installer
	Out       io.Writer
}

// Main probes dependencies, reads the fingerprint from the boot image and
// signs the image in place. Any returned error is fatal.
func Main(ctx context.Context, opts Opts) error {
	c := opts.Config
	p := status.New(opts.Out, c.Pace)
	tool := &avb.Tool{Python: c.Python, Path: c.Path(c.AVBTool), Dir: c.WorkDir, Runner: opts.Runner}

	if !c.SkipDeps {
		if err := ensureDeps(ctx, p, opts); err != nil {
			return err
		}
	}

	image := c.Path(c.BootImage)
	if f, err := avb.DetectFormat(image); err != nil {
		return fmt.Errorf("failed to check boot image info, please make sure %q is placed in %s: %w", c.BootImage, c.WorkDir, err)
	} else if f != avb.FormatBoot {
		glog.Warningf("%s does not look like an Android bootimg: %s", image, f)
	} else {
		glog.Infof("validated %s as %s", image, f)
	}

	if c.Backup != "" {
		p.Logf("Backing up %s to [%s]...", c.BootImage, c.Backup)
		if err := backup(image, c.Path(c.Backup)); err != nil {
			return fmt.Errorf("backing up %s: %w", c.BootImage, err)
		}
	}

	p.Rule(42)
	p.Info("Checking Boot image info, please wait...")
	p.Rule(42)
	if err := p.Pause(ctx, 3*time.Second); err != nil {
		return err
	}
	p.Log("")

	info, err := tool.InfoImage(ctx, image)
	if err != nil {
		return fmt.Errorf("failed to check boot image info, please make sure %q is placed in %s: %w", c.BootImage, c.WorkDir, err)
	}
	fingerprint, err := avb.ExtractFingerprint(info)
	if err != nil {
		return fmt.Errorf("failed to extract fingerprint value: %w", err)
	}
	p.Logf("Fingerprint: %s", fingerprint)

	p.Info("Signing in progress, please wait...")
	if err := p.Pause(ctx, 10*time.Second); err != nil {
		return err
	}
	out, err := tool.AddHashFooter(ctx, avb.HashFooter{
		Image:         image,
		PartitionName: c.Partition,
		PartitionSize: c.PartitionSize,
		Key:           c.Path(c.BootKey),
		Algorithm:     c.Algorithm,
		Props: []avb.Prop{
			{Key: avb.FingerprintProp, Value: fingerprint},
			{Key: avb.OSVersionProp, Value: c.OSVersion},
		},
	})
	if err != nil {
		return fmt.Errorf("signing %s failed: %w", c.BootImage, err)
	}
	if len(out) > 0 {
		glog.V(1).Infof("add_hash_footer: %s", out)
	}

	p.Log("")
	p.Success("Done ✅")
	p.Banner("___________________________________________________________")
	p.Log("")
	p.Framed(doneMessage)
	return nil
}

// backup copies src to dst through a temporary file in dst's directory, so
// dst only appears once complete and src is never truncated.
func backup(src, dst string) error {
	si, err := os.Stat(src)
	if err != nil {
		return err
	}
	if di, err := os.Stat(dst); err == nil && os.SameFile(si, di) {
		return fmt.Errorf("backup %s is the image itself", dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func ensureDeps(ctx context.Context, p *status.Printer, opts Opts) error {
	c := opts.Config
	inst := opts.Installer
	if inst == nil {
		inst = deps.PackageManager{Command: c.PackageManager, Runner: opts.Runner}
	}
	prober := &deps.Prober{
		Runner:    opts.Runner,
		Installer: inst,
		Retries:   3,
		Installing: func(t deps.Tool) {
			p.Infof("%s is not installed. Installing...", t.Name)
		},
	}

	var tools []deps.Tool
	if c.Python != "" {
		tools = append(tools, deps.Python2(c.Python))
	}
	tools = append(tools, deps.OpenSSL(c.OpenSSL))

	for _, t := range tools {
		p.Rule(34)
		res, err := prober.Ensure(ctx, t)
		if err != nil {
			return err
		}
		if res.Installed {
			p.Successf("%s installed successfully.", t.Name)
		} else {
			p.Infof("%s is already installed.", t.Name)
		}
		p.Infof("%s Version: %s", t.Name, res.Version)
	}
	return nil
}
