// Package config loads runtime configuration for the authkeeper CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags.
//
// Flags:
//
//	-a string   base URL of the HTTP API
//	-i int      online status check interval (seconds)
//
// JSON:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "online_check_interval": "3s"
//	}
package config
