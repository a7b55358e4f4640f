package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/flagx"
)

// parseFlags overlays cfg with the flags it knows about:
//
//	-a string   address and port of the sync receiver
//	-i int      online check interval in seconds
//	-d string   data directory
//	-r string   remote mode: simulator or grpc
//	-s string   address of the status API, empty to disable
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-r", "-s"})

	fs := flag.NewFlagSet("labkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.SyncEndpointAddr, "a", cfg.SyncEndpointAddr, "address and port of the sync receiver")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.RemoteMode, "r", cfg.RemoteMode, "remote mode (simulator|grpc)")
	fs.StringVar(&cfg.StatusAddr, "s", cfg.StatusAddr, "status API address")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	return nil
}
