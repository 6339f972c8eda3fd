// Package config handles configuration loading for habit-gateway.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Every field has a default, so running without a config file is
// supported.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from HABITS_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/habits/gateway.yaml
//  3. ~/.config/habits/gateway.yaml
//
// A path ending in .toml is parsed as TOML; anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	storage:
//	  path: "${HABITS_DATA_DIR}/habits.json"
//
// Syntax: ${VAR_NAME}. Unset variables expand to an empty string.
//
// The PORT variable, when set, replaces the port of server.http_addr, and
// HABITS_DATA_PATH replaces storage.path. Both apply with or without a file.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "localhost:3000"
//	  read_header_timeout: "10s"
//	  shutdown_timeout: "5s"
//
// Storage:
//
//	storage:
//	  path: "/var/lib/habits/habits.json"
//
// Idempotent create replay:
//
//	idempotency:
//	  ttl: "5m"
//	  max_entries: 10000
//
// Logging:
//
//	logging:
//	  level: "info"        # debug, info, warn, error
//	  format: "text"       # text, json
//	  file: ""             # rotate into this file instead of stdout
//	  max_size_mb: 10
//	  max_backups: 3
//
// The TOML form uses the same keys:
//
//	[server]
//	http_addr = "localhost:3000"
//
//	[storage]
//	path = "habits.json"
//
// # Usage
//
//	cfg, found, err := config.LoadOrDefault(path)
//	if err != nil {
//	    return err
//	}
package config
