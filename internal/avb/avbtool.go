// Package avb drives avbtool and understands the text it prints.
package avb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang/glog"

	"github.com/gitclone-url/Experimental/internal/runner"
)

const (
	FingerprintProp = "com.android.build.boot.fingerprint"
	OSVersionProp   = "com.android.build.boot.os_version"
)

// Tool runs avbtool, optionally through an interpreter such as python2.
type Tool struct {
	// Python is the interpreter used to run Path. Empty runs Path directly.
	Python string
	// Path to the avbtool script or binary.
	Path string
	// Dir is the working directory for every invocation.
	Dir    string
	Runner runner.Runner
}

func (t *Tool) run(ctx context.Context, args ...string) ([]byte, error) {
	prog := t.Path
	if t.Python != "" {
		prog = t.Python
		args = append([]string{t.Path}, args...)
	}
	glog.Infof("avbtool %s", args)
	return t.Runner.Run(ctx, t.Dir, prog, args...)
}

// InfoImage returns the output of `avbtool info_image` for image.
func (t *Tool) InfoImage(ctx context.Context, image string) (string, error) {
	out, err := t.run(ctx, "info_image", "--image", image)
	if err != nil {
		return "", fmt.Errorf("info_image %s: %w", image, err)
	}
	return string(out), nil
}

// Prop is a key:value property embedded into a hash footer.
type Prop struct {
	Key   string
	Value string
}

// HashFooter describes an add_hash_footer invocation.
type HashFooter struct {
	Image         string
	PartitionName string
	PartitionSize uint64
	Key           string
	Algorithm     string
	Props         []Prop
}

func (h HashFooter) args() []string {
	args := []string{
		"add_hash_footer",
		"--image", h.Image,
		"--partition_name", h.PartitionName,
		"--partition_size", strconv.FormatUint(h.PartitionSize, 10),
		"--key", h.Key,
		"--algorithm", h.Algorithm,
	}
	for _, p := range h.Props {
		args = append(args, "--prop", p.Key+":"+p.Value)
	}
	return args
}

// AddHashFooter signs the image in place. The tool's output is returned
// in both the success and failure cases.
func (t *Tool) AddHashFooter(ctx context.Context, h HashFooter) ([]byte, error) {
	out, err := t.run(ctx, h.args()...)
	if err != nil {
		return out, fmt.Errorf("add_hash_footer %s: %w", h.Image, err)
	}
	return out, nil
}

// ExtractPublicKey writes the AVB public key for the PEM key to output.
func (t *Tool) ExtractPublicKey(ctx context.Context, key, output string) error {
	if _, err := t.run(ctx, "extract_public_key", "--key", key, "--output", output); err != nil {
		return fmt.Errorf("extract_public_key %s: %w", key, err)
	}
	return nil
}
