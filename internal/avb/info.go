package avb

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoFingerprint is returned when info_image output carries no usable
// fingerprint property.
var ErrNoFingerprint = errors.New("fingerprint property not found")

var (
	quotedRE    = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)
	fpStrip     = strings.NewReplacer("'", "", `"`, "", "[", "", "]", "")
	algorithmRE = regexp.MustCompile(`(?m)^[ \t]*Algorithm:[ \t]*(\S+)`)
	chainRE     = regexp.MustCompile(`(?m)^[ \t]*Partition Name:[ \t]*(\S+)[ \t]*\r?\n` +
		`[ \t]*Rollback Index Location:[ \t]*(\d+)[ \t]*\r?\n` +
		`[ \t]*Public key \(sha1\):[ \t]*([0-9A-Fa-f]+)`)
)

// ExtractFingerprint returns the boot fingerprint from info_image output,
// e.g. from the line
//
//	Prop: com.android.build.boot.fingerprint -> 'vendor/product/device:11/...'
//
// Only the first line mentioning the property is considered.
func ExtractFingerprint(info string) (string, error) {
	for _, line := range strings.Split(info, "\n") {
		i := strings.Index(line, FingerprintProp)
		if i < 0 {
			continue
		}
		m := quotedRE.FindStringSubmatch(line[i+len(FingerprintProp):])
		if m == nil {
			return "", fmt.Errorf("%w: no quoted value in %q", ErrNoFingerprint, strings.TrimSpace(line))
		}
		v := fpStrip.Replace(m[1] + m[2])
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%w: empty value in %q", ErrNoFingerprint, strings.TrimSpace(line))
		}
		return v, nil
	}
	return "", ErrNoFingerprint
}

// VBMetaInfo is what keyswap needs from a vbmeta image.
type VBMetaInfo struct {
	Algorithm string
	// PublicKeys maps partition name to the SHA-1 of its chained public key.
	PublicKeys map[string]string
	// RollbackIndices maps partition name to its rollback index location.
	RollbackIndices map[string]uint64
	// PartitionNames lists chained partitions in the order they were printed.
	PartitionNames []string
}

// ValidPartitionName reports whether name can be used as part of a file
// name without leaving its directory.
func ValidPartitionName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// ParseVBMeta extracts the signing algorithm and the chain partition
// descriptors from info_image output. A missing algorithm leaves Algorithm
// empty; no descriptors leaves the collections empty. When a partition is
// described more than once the first description wins. Names that are not
// ValidPartitionName are dropped.
func ParseVBMeta(info string) *VBMetaInfo {
	v := &VBMetaInfo{
		PublicKeys:      make(map[string]string),
		RollbackIndices: make(map[string]uint64),
		PartitionNames:  []string{},
	}
	if m := algorithmRE.FindStringSubmatch(info); m != nil {
		v.Algorithm = m[1]
	}
	for _, m := range chainRE.FindAllStringSubmatch(info, -1) {
		name := m[1]
		if _, ok := v.PublicKeys[name]; ok || !ValidPartitionName(name) {
			continue
		}
		idx, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil {
			continue
		}
		v.PartitionNames = append(v.PartitionNames, name)
		v.RollbackIndices[name] = idx
		v.PublicKeys[name] = m[3]
	}
	return v
}
