// bootsigner signs boot.img with an AVB hash footer so it boots on Unisoc
// devices with a relocked bootloader.
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
	"github.com/gitclone-url/Experimental/internal/runner"
	"github.com/gitclone-url/Experimental/internal/signer"
	"github.com/gitclone-url/Experimental/internal/status"
)

var banner = []string{
	"      *********************000 of 000******************",
	`             ____ ___ ____            _       _   `,
	`            | __ )_ _/ ___|  ___ _ __(_)_ __ | |_ `,
	`            |  _ \| |\___ \ / __| '__| | '_ \| __|`,
	`            | |_) | | ___) | (__| |  | | |_) | |_ `,
	`            |____/___|____/ \___|_|  |_| .__/ \__|`,
	`                                       |_|        `,
	"",
	"  A boot image signing tool for Unisoc chipset based phones",
	"      *************************************************",
	"",
}

var (
	cfg        = config.Default()
	configFile string
)

func init() {
	config.RegisterSignerFlags(flag.CommandLine, &cfg)
	flag.StringVar(&configFile, "config", "", "optional YAML file with the same settings as the flags")
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
}

func main() {
	flag.Parse()
	defer glog.Flush()
	p := status.New(os.Stdout, cfg.Pace)

	c, err := config.Resolve(flag.CommandLine, cfg, configFile)
	check(p, err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	p.Pace = c.Pace
	p.Banner(banner...)
	check(p, signer.Main(ctx, signer.Opts{
		Config: c,
		Runner: runner.Exec{},
		Out:    os.Stdout,
	}))
}

func check(p *status.Printer, err error) {
	if err != nil {
		p.Errorf("Error: %v", err)
		glog.Errorf("bootsigner: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}
