// Package config loads runtime configuration for the otpkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   application data directory (key file and vault database)
//	-k string   master key source: file or keyring
//	-l string   log format: text, json or zerolog
//	-v string   log level: debug, info, warn or error
//	-m string   merge policy for synced records: arrival or newer
//
// # JSON schema
//
//	{
//	  "data_dir": "/home/me/.config/otpkeeper",
//	  "key_source": "file",
//	  "log_format": "text",
//	  "log_level": "info",
//	  "merge_policy": "arrival"
//	}
//
// Empty JSON values leave the earlier value in place.
package config
