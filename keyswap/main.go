// keyswap regenerates the public key file of a partition chained from
// vbmeta-sign.img using rsa_4096.pem.
package main

import (
	"context"
	goflag "flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	flag "github.com/spf13/pflag"

	"github.com/gitclone-url/Experimental/internal/config"
	"github.com/gitclone-url/Experimental/internal/keyswap"
	"github.com/gitclone-url/Experimental/internal/runner"
	"github.com/gitclone-url/Experimental/internal/status"
)

var (
	cfg        = config.Default()
	configFile string
)

func init() {
	config.RegisterKeySwapFlags(flag.CommandLine, &cfg)
	flag.StringVar(&configFile, "config", "", "optional YAML file with the same settings as the flags")
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	c, err := config.Resolve(flag.CommandLine, cfg, configFile)
	if err != nil {
		exit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	// The menu reads os.Stdin, so avbtool gets no input of its own.
	if err := keyswap.Main(ctx, keyswap.Opts{
		Config: c,
		Runner: runner.Exec{},
		In:     os.Stdin,
		Out:    os.Stdout,
	}); err != nil {
		exit(err)
	}
}

func exit(err error) {
	status.New(os.Stderr, false).Errorf("Error: %v", err)
	glog.Errorf("keyswap: %v", err)
	glog.Flush()
	os.Exit(1)
}
