// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, path, endpoint string) {
	t.Helper()
	body := "[service]\nendpoint = \"" + endpoint + "\"\ntimeout_secs = 10\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func TestPollingWatcherDetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFile(t, path, "http://first.example.com")

	reloaded := make(chan *Config, 1)
	pw := NewPollingWatcher(path, 20*time.Millisecond, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, pw.Watch())
	defer pw.Close()

	// mtime granularity on some filesystems is one second; force a
	// visibly newer timestamp instead of sleeping for it.
	writeConfigFile(t, path, "http://second.example.com")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "http://second.example.com", cfg.Service.Endpoint)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the config change")
	}
}

func TestPollingWatcherSkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFile(t, path, "http://valid.example.com")

	reloaded := make(chan *Config, 1)
	pw := NewPollingWatcher(path, 20*time.Millisecond, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, pw.Watch())
	defer pw.Close()

	// Broken TOML must not fire the callback.
	require.NoError(t, os.WriteFile(path, []byte("[service\nbroken"), 0600))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case cfg := <-reloaded:
		t.Fatalf("watcher delivered a config from a broken file: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
		// expected: no reload
	}
}

func TestStartWatcherOnFallsBackCleanly(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFile(t, path, "http://initial.example.com")

	w, err := StartWatcherOn(path, nil)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.NoError(t, w.Close())
}

func TestFsnotifyWatcherClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfigFile(t, path, "http://x.example.com")

	fw, err := NewFsnotifyWatcher(path, 50*time.Millisecond, nil)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	require.NoError(t, fw.Watch())
	assert.NoError(t, fw.Close())
}
