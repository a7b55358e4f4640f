package config

import (
	"fmt"
	"time"
)

// Remote modes.
const (
	RemoteSimulator = "simulator"
	RemoteGRPC      = "grpc"
)

// Primary blob backends.
const (
	BlobIDB = "idb"
	BlobFS  = "fs"
	BlobS3  = "s3"
)

// S3 holds the settings of the s3:// blob backend.
type S3 struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// Config holds runtime settings for the LabKeeper CLI.
type Config struct {
	SyncEndpointAddr    string
	OnlineCheckInterval time.Duration
	DataDir             string
	RemoteMode          string
	StatusAddr          string

	AuthorID                string
	SimulatorLatency        time.Duration
	DisableScriptedFailures bool
	DrainDelay              time.Duration
	FlushInterval           time.Duration

	BlobBackend   string
	BlobCacheSize int
	BlobCacheTTL  time.Duration
	S3            S3

	LogFile  string
	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.SyncEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DataDir = "labkeeper_data"
	c.RemoteMode = RemoteSimulator
	c.StatusAddr = ""

	c.AuthorID = "local"
	c.SimulatorLatency = 450 * time.Millisecond
	c.DrainDelay = 900 * time.Millisecond
	c.FlushInterval = 250 * time.Millisecond

	c.BlobBackend = BlobIDB
	c.BlobCacheSize = 64
	c.BlobCacheTTL = 10 * time.Minute
	c.S3.Region = "us-east-1"

	c.LogFile = "labkeeper.log"
	c.LogLevel = "info"
}

// Validate rejects values the application cannot start with.
func (c *Config) Validate() error {
	switch c.RemoteMode {
	case RemoteSimulator, RemoteGRPC:
	default:
		return fmt.Errorf("unknown remote mode %q", c.RemoteMode)
	}
	switch c.BlobBackend {
	case BlobIDB, BlobFS:
	case BlobS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3 blob backend needs a bucket")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive")
	}
	return nil
}

// LoadConfig applies defaults, then the optional config file named by -c,
// then flags. Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
