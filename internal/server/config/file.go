package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/labkeeper/internal/flagx"
)

// FileConfig is the on-disk form of Config. Empty fields are ignored.
type FileConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc" toml:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn" toml:"database_dsn"`
	MetricsAddr      string `json:"metrics_addr" toml:"metrics_addr"`
}

// parseFile loads the file named by -c or -config, TOML when the name ends
// in .toml and JSON otherwise. Without the flag nothing is loaded.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var c FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &c)
	} else {
		err = json.Unmarshal(data, &c)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.MetricsAddr != "" {
		config.MetricsAddr = c.MetricsAddr
	}
	return nil
}
