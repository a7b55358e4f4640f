// Package config loads runtime configuration for the LabKeeper CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .toml are read as TOML, everything else as JSON.
//  3. Command-line flags.
//
// Flags
//
//	-a string   address:port of the sync receiver
//	-i int      online status check interval (seconds)
//	-d string   data directory
//	-r string   remote mode: simulator or grpc
//	-s string   status API address, empty to disable
//
// A JSON file looks like:
//
//	{
//	  "sync_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "blob_backend": "s3",
//	  "s3": {"bucket": "notebook", "endpoint": "http://localhost:9000"}
//	}
package config
