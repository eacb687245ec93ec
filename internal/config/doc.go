// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for answerline.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServiceConfig: Answer service endpoint, key, timeout, rate limit
//   - OutputConfig: Presentation settings (markdown, quiet, verbose)
//   - Watcher: Hot reload of the config file for long-lived sessions
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ANSWERLINE_*)
//   - ~/.answerline/config.toml
//   - ~/.answerline/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	endpoint := cfg.Service.Endpoint
//	timeout := cfg.Service.TimeoutSecs
package config
