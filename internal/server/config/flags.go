package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/labkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-m string   metrics listener address, empty to disable
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-g", "-d", "-m"})

	fs := flag.NewFlagSet("syncd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
