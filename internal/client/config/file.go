package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/labkeeper/internal/flagx"
	"github.com/dmitrijs2005/labkeeper/internal/timex"
)

// FileConfig is the on-disk form. Durations use timex.Duration so files can
// carry "3s" strings or integer nanoseconds. Zero values leave the current
// setting alone.
type FileConfig struct {
	SyncEndpointAddr        string         `json:"sync_endpoint_addr" toml:"sync_endpoint_addr"`
	OnlineCheckInterval     timex.Duration `json:"online_check_interval" toml:"online_check_interval"`
	DataDir                 string         `json:"data_dir" toml:"data_dir"`
	RemoteMode              string         `json:"remote_mode" toml:"remote_mode"`
	StatusAddr              string         `json:"status_addr" toml:"status_addr"`
	AuthorID                string         `json:"author_id" toml:"author_id"`
	SimulatorLatency        timex.Duration `json:"simulator_latency" toml:"simulator_latency"`
	DisableScriptedFailures bool           `json:"disable_scripted_failures" toml:"disable_scripted_failures"`
	DrainDelay              timex.Duration `json:"drain_delay" toml:"drain_delay"`
	FlushInterval           timex.Duration `json:"flush_interval" toml:"flush_interval"`
	BlobBackend             string         `json:"blob_backend" toml:"blob_backend"`
	BlobCacheSize           int            `json:"blob_cache_size" toml:"blob_cache_size"`
	BlobCacheTTL            timex.Duration `json:"blob_cache_ttl" toml:"blob_cache_ttl"`
	S3                      FileS3         `json:"s3" toml:"s3"`
	LogFile                 string         `json:"log_file" toml:"log_file"`
	LogLevel                string         `json:"log_level" toml:"log_level"`
}

type FileS3 struct {
	Region    string `json:"region" toml:"region"`
	Endpoint  string `json:"endpoint" toml:"endpoint"`
	AccessKey string `json:"access_key" toml:"access_key"`
	SecretKey string `json:"secret_key" toml:"secret_key"`
	Bucket    string `json:"bucket" toml:"bucket"`
	Prefix    string `json:"prefix" toml:"prefix"`
}

// parseFile overlays cfg with the file named by -c/-config. Files ending in
// .toml are decoded as TOML, anything else as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc FileConfig) apply(cfg *Config) {
	setString(&cfg.SyncEndpointAddr, fc.SyncEndpointAddr)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.RemoteMode, fc.RemoteMode)
	setString(&cfg.StatusAddr, fc.StatusAddr)
	setString(&cfg.AuthorID, fc.AuthorID)
	setString(&cfg.BlobBackend, fc.BlobBackend)
	setString(&cfg.LogFile, fc.LogFile)
	setString(&cfg.LogLevel, fc.LogLevel)

	if fc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.SimulatorLatency.Duration > 0 {
		cfg.SimulatorLatency = fc.SimulatorLatency.Duration
	}
	if fc.DrainDelay.Duration > 0 {
		cfg.DrainDelay = fc.DrainDelay.Duration
	}
	if fc.FlushInterval.Duration > 0 {
		cfg.FlushInterval = fc.FlushInterval.Duration
	}
	if fc.BlobCacheTTL.Duration > 0 {
		cfg.BlobCacheTTL = fc.BlobCacheTTL.Duration
	}
	if fc.BlobCacheSize > 0 {
		cfg.BlobCacheSize = fc.BlobCacheSize
	}
	cfg.DisableScriptedFailures = cfg.DisableScriptedFailures || fc.DisableScriptedFailures

	setString(&cfg.S3.Region, fc.S3.Region)
	setString(&cfg.S3.Endpoint, fc.S3.Endpoint)
	setString(&cfg.S3.AccessKey, fc.S3.AccessKey)
	setString(&cfg.S3.SecretKey, fc.S3.SecretKey)
	setString(&cfg.S3.Bucket, fc.S3.Bucket)
	setString(&cfg.S3.Prefix, fc.S3.Prefix)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
