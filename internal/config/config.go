// Package config holds the file names and tool locations both tools work with.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// Config is shared by bootsigner and keyswap. Relative file names are
// resolved against WorkDir.
type Config struct {
	WorkDir        string   `yaml:"workdir"`
	Python         string   `yaml:"python"`
	AVBTool        string   `yaml:"avbtool"`
	OpenSSL        string   `yaml:"openssl"`
	PackageManager []string `yaml:"package_manager"`

	BootImage     string `yaml:"boot_image"`
	BootKey       string `yaml:"boot_key"`
	Partition     string `yaml:"partition"`
	PartitionSize uint64 `yaml:"partition_size"`
	Algorithm     string `yaml:"algorithm"`
	OSVersion     string `yaml:"os_version"`
	Backup        string `yaml:"backup"`

	VBMetaImage string `yaml:"vbmeta_image"`
	RSAKey      string `yaml:"rsa_key"`
	KeysDir     string `yaml:"keys_dir"`

	SkipDeps bool          `yaml:"skip_deps"`
	Pace     bool          `yaml:"pace"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the file names and parameters the tools have always used.
func Default() Config {
	return Config{
		WorkDir:        ".",
		Python:         "python2",
		AVBTool:        "avbtool",
		OpenSSL:        "openssl",
		PackageManager: []string{"pkg", "install"},
		BootImage:      "boot.img",
		BootKey:        "boot.pem",
		Partition:      "boot",
		PartitionSize:  64 << 20,
		Algorithm:      "SHA256_RSA4096",
		OSVersion:      "11",
		VBMetaImage:    "vbmeta-sign.img",
		RSAKey:         "rsa_4096.pem",
		KeysDir:        "keys",
		Pace:           true,
	}
}

// RegisterFlags binds the flags shared by both tools to c.
func RegisterFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.WorkDir, "workdir", c.WorkDir, "directory holding the images and keys")
	fs.StringVar(&c.Python, "python", c.Python, "interpreter avbtool runs under, empty to run avbtool directly")
	fs.StringVar(&c.AVBTool, "avbtool", c.AVBTool, "path to avbtool, absolute or relative to workdir")
	fs.BoolVar(&c.Pace, "pace", c.Pace, "pause between steps so the output can be followed")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "abort after this long, 0 for no limit")
}

// RegisterSignerFlags binds the bootsigner flags to c.
func RegisterSignerFlags(fs *flag.FlagSet, c *Config) {
	RegisterFlags(fs, c)
	fs.StringVar(&c.OpenSSL, "openssl", c.OpenSSL, "openssl binary")
	fs.StringSliceVar(&c.PackageManager, "package_manager", c.PackageManager, "install command, the package name and -y are appended")
	fs.BoolVar(&c.SkipDeps, "skip_deps", c.SkipDeps, "do not probe for or install python2 and openssl")
	fs.StringVar(&c.BootImage, "boot_image", c.BootImage, "boot image to sign in place")
	fs.StringVar(&c.BootKey, "key", c.BootKey, "PEM key to sign with")
	fs.StringVar(&c.Partition, "partition_name", c.Partition, "partition name written to the footer")
	fs.Uint64Var(&c.PartitionSize, "partition_size", c.PartitionSize, "partition size in bytes")
	fs.StringVar(&c.Algorithm, "algorithm", c.Algorithm, "AVB signing algorithm")
	fs.StringVar(&c.OSVersion, "os_version", c.OSVersion, "value of the com.android.build.boot.os_version property")
	fs.StringVar(&c.Backup, "backup", c.Backup, "copy the boot image here before signing it in place")
}

// RegisterKeySwapFlags binds the keyswap flags to c.
func RegisterKeySwapFlags(fs *flag.FlagSet, c *Config) {
	RegisterFlags(fs, c)
	fs.StringVar(&c.VBMetaImage, "vbmeta_image", c.VBMetaImage, "vbmeta image to read chained partitions from")
	fs.StringVar(&c.RSAKey, "rsa_key", c.RSAKey, "PEM key whose public half replaces the partition key")
	fs.StringVar(&c.KeysDir, "keys_dir", c.KeysDir, "directory of <partition>_key.bin files")
}

// LoadFile overlays the YAML file at path onto c. Unknown keys are errors.
func LoadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Resolve returns the effective configuration: defaults, then the YAML
// file at path (if any), then every flag explicitly set on fs.
func Resolve(fs *flag.FlagSet, flags Config, path string) (Config, error) {
	if path == "" {
		return flags, flags.Validate()
	}
	c := Default()
	if err := LoadFile(path, &c); err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) { overlay(&c, flags, f.Name) })
	return c, c.Validate()
}

func overlay(dst *Config, src Config, name string) {
	switch name {
	case "workdir":
		dst.WorkDir = src.WorkDir
	case "python":
		dst.Python = src.Python
	case "avbtool":
		dst.AVBTool = src.AVBTool
	case "openssl":
		dst.OpenSSL = src.OpenSSL
	case "package_manager":
		dst.PackageManager = src.PackageManager
	case "skip_deps":
		dst.SkipDeps = src.SkipDeps
	case "pace":
		dst.Pace = src.Pace
	case "timeout":
		dst.Timeout = src.Timeout
	case "key":
		dst.BootKey = src.BootKey
	case "partition_name":
		dst.Partition = src.Partition
	case "partition_size":
		dst.PartitionSize = src.PartitionSize
	case "algorithm":
		dst.Algorithm = src.Algorithm
	case "os_version":
		dst.OSVersion = src.OSVersion
	case "backup":
		dst.Backup = src.Backup
	case "rsa_key":
		dst.RSAKey = src.RSAKey
	case "keys_dir":
		dst.KeysDir = src.KeysDir
	case "boot_image":
		dst.BootImage = src.BootImage
	case "vbmeta_image":
		dst.VBMetaImage = src.VBMetaImage
	}
}

// Validate rejects configurations the tools cannot run with.
func (c Config) Validate() error {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"workdir", c.WorkDir},
		{"avbtool", c.AVBTool},
		{"boot_image", c.BootImage},
		{"key", c.BootKey},
		{"partition_name", c.Partition},
		{"algorithm", c.Algorithm},
		{"vbmeta_image", c.VBMetaImage},
		{"rsa_key", c.RSAKey},
		{"keys_dir", c.KeysDir},
	} {
		if strings.TrimSpace(f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	if c.PartitionSize == 0 {
		return errors.New("partition_size must be positive")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// Path resolves name against WorkDir. The result is absolute whenever the
// current directory is known, since avbtool itself runs inside WorkDir.
func (c Config) Path(name string) string {
	if filepath.IsAbs(name) || c.WorkDir == "" {
		return name
	}
	p := filepath.Join(c.WorkDir, name)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
