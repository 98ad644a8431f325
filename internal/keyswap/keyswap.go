// Package keyswap replaces the public key file of one partition chained
// from a vbmeta image with the key of rsa_4096.pem.
package keyswap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/gitclone-url/Experimental/internal/avb"
	"github.com/gitclone-url/Experimental/internal/config"
	"github.com/gitclone-url/Experimental/internal/keys"
	"github.com/gitclone-url/Experimental/internal/menu"
	"github.com/gitclone-url/Experimental/internal/runner"
	"github.com/gitclone-url/Experimental/internal/status"
)

// pause gives the operator time to read the removal result.
const pause = 2 * time.Second

type Opts struct {
	Config config.Config
	Runner runner.Runner
	In     io.Reader
	Out    io.Writer
}

// Main lists the chained partitions of the vbmeta image, asks which one to
// swap and regenerates its key file. Only failing to read the vbmeta image
// or the operator's choice is fatal.
func Main(ctx context.Context, opts Opts) error {
	c := opts.Config
	p := status.New(opts.Out, c.Pace)
	tool := &avb.Tool{Python: c.Python, Path: c.Path(c.AVBTool), Dir: c.WorkDir, Runner: opts.Runner}
	image := c.Path(c.VBMetaImage)

	info, err := tool.InfoImage(ctx, image)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.VBMetaImage, err)
	}
	vbmeta := avb.ParseVBMeta(info)
	if vbmeta.Algorithm != "" {
		p.Infof("Algorithm: %s", vbmeta.Algorithm)
	} else {
		glog.Warningf("no algorithm found in info_image output for %s", image)
	}

	if size, err := avb.PaddingSizeFile(image); err != nil {
		p.Error("Failed to determine padding size.")
		p.Log(err.Error())
	} else {
		p.Infof("Padding size: %d", size)
	}

	m := &menu.MenuItemList{Title: "Chained partitions"}
	for _, name := range vbmeta.PartitionNames {
		m.AddItem(name, fmt.Sprintf("rollback index location %d, key sha1 %s", vbmeta.RollbackIndices[name], vbmeta.PublicKeys[name]))
	}
	i, err := m.Select(opts.In, opts.Out)
	switch {
	case errors.Is(err, menu.ErrNoChoices):
		p.Error("No chained partitions found in " + c.VBMetaImage + ".")
		return nil
	case err != nil:
		return fmt.Errorf("no partition selected: %w", err)
	}
	partition := vbmeta.PartitionNames[i]
	glog.Infof("swapping key of %s", partition)

	store := keys.Store{Dir: c.Path(c.KeysDir)}
	removed, err := store.Remove(partition)
	switch {
	case err != nil:
		p.Errorf("Failed to remove %s: %v", store.Path(partition), err)
	case removed:
		p.Successf("Removed %s", store.Path(partition))
	default:
		p.Infof("%s not found.", store.Path(partition))
	}

	if err := p.Pause(ctx, pause); err != nil {
		return err
	}

	rsaKey := c.Path(c.RSAKey)
	switch err := store.Generate(ctx, tool, partition, rsaKey); {
	case errors.Is(err, keys.ErrNoRSAKey):
		p.Errorf("RSA key %s not found, %s was not generated.", c.RSAKey, store.Path(partition))
	case err != nil:
		p.Errorf("Failed to extract public key for %s: %v", partition, err)
	default:
		p.Successf("Generated %s from %s", store.Path(partition), c.RSAKey)
	}
	return nil
}
