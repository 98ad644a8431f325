package avb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
)

const dhtbMagic = "DHTB"

// Signatures that may follow the DHTB marker, checked in this order.
var paddingSizes = []struct {
	sig  []byte
	size int
}{
	{[]byte{0x00, 0x50, 0x00, 0x00}, 20480},
	{[]byte{0x00, 0x40, 0x00, 0x00}, 16384},
	{[]byte{0x00, 0x30, 0x00, 0x00}, 12288},
}

// Reasons PaddingSize gives up.
var (
	ErrNoDHTB         = errors.New(`text string "DHTB" not found`)
	ErrUnknownPadding = errors.New(`no recognized padding size pattern found after "DHTB"`)
)

// PaddingSize infers the padding length of an image carrying a DHTB header.
// The bytes after the first DHTB marker are searched for each known
// signature in table order; the first one present decides the size.
// It fails with ErrNoDHTB or ErrUnknownPadding.
func PaddingSize(data []byte) (int, error) {
	i := bytes.Index(data, []byte(dhtbMagic))
	if i < 0 {
		return 0, ErrNoDHTB
	}
	rest := data[i+len(dhtbMagic):]
	for _, p := range paddingSizes {
		if bytes.Contains(rest, p.sig) {
			glog.V(1).Infof("padding signature % x at DHTB offset %d", p.sig, i)
			return p.size, nil
		}
	}
	return 0, ErrUnknownPadding
}

// PaddingSizeFile reads path in full and calls PaddingSize.
func PaddingSizeFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return PaddingSize(data)
}

// Format names the kind of image found by its leading magic.
type Format string

const (
	FormatUnknown    Format = "unknown"
	FormatBoot       Format = "Android bootimg"
	FormatVendorBoot Format = "Android vendor bootimg"
	FormatVBMeta     Format = "AVB vbmeta image"
	FormatDHTB       Format = "DHTB signed image"
	FormatChromeOS   Format = "ChromeOS image"
)

var magics = []struct {
	magic  string
	format Format
}{
	{"ANDROID!", FormatBoot},
	{"VNDRBOOT", FormatVendorBoot},
	{"AVB0", FormatVBMeta},
	{"DHTB\x01\x00\x00\x00", FormatDHTB},
	{"CHROMEOS", FormatChromeOS},
}

// DetectFormat identifies the image at path from its first bytes.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, 8)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, fmt.Errorf("reading %s: %w", path, err)
	}
	head = head[:n]
	for _, m := range magics {
		if bytes.HasPrefix(head, []byte(m.magic)) {
			return m.format, nil
		}
	}
	return FormatUnknown, nil
}
