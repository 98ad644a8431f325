// Package keys manages the per-partition AVB public key files under keys/.
package keys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// ErrNoRSAKey is returned by Generate when the private key file is missing.
var ErrNoRSAKey = errors.New("RSA key file not found")

// ErrBadPartition is returned for partition names that would place the key
// file outside Dir.
var ErrBadPartition = errors.New("invalid partition name")

// Extractor writes the AVB public key of a PEM private key to output.
type Extractor interface {
	ExtractPublicKey(ctx context.Context, key, output string) error
}

// Store keeps key files in Dir, one per partition.
type Store struct {
	Dir string
}

// Path returns Dir/<partition>_key.bin.
func (s Store) Path(partition string) string {
	return filepath.Join(s.Dir, partition+"_key.bin")
}

func checkName(partition string) error {
	if partition == "" || strings.ContainsAny(partition, `/\`) || strings.Contains(partition, "..") {
		return fmt.Errorf("%w: %q", ErrBadPartition, partition)
	}
	return nil
}

// Remove deletes the key file of partition. It reports false, and no
// error, when there was nothing to delete.
func (s Store) Remove(partition string) (bool, error) {
	if err := checkName(partition); err != nil {
		return false, err
	}
	p := s.Path(partition)
	err := os.Remove(p)
	switch {
	case err == nil:
		glog.Infof("removed %s", p)
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		glog.V(1).Infof("%s not found", p)
		return false, nil
	default:
		return false, err
	}
}

// Generate extracts the public key of rsaKey into the key file of partition.
func (s Store) Generate(ctx context.Context, x Extractor, partition, rsaKey string) error {
	if err := checkName(partition); err != nil {
		return err
	}
	if _, err := os.Stat(rsaKey); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoRSAKey, rsaKey)
		}
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return err
	}
	return x.ExtractPublicKey(ctx, rsaKey, s.Path(partition))
}
