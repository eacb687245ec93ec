// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/answerline/internal/config"
)

func writeSessionConfig(t *testing.T, path, endpoint string) {
	t.Helper()
	body := "[service]\nendpoint = \"" + endpoint + "\"\ntimeout_secs = 10\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

// A running chat session picks up edits to the config file through the
// watcher callback, the same wiring HandleChatCommand installs.
func TestChatSessionConfigRefreshOnReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeSessionConfig(t, path, "http://before.example.com")

	initial, err := config.LoadFromPath(path)
	require.NoError(t, err)

	session := &ChatSession{
		Config:    initial,
		StartTime: time.Now(),
	}

	reloaded := make(chan struct{}, 1)
	pw := config.NewPollingWatcher(path, 20*time.Millisecond, func(cfg *config.Config) {
		session.Config = cfg
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, pw.Watch())
	defer pw.Close()

	writeSessionConfig(t, path, "http://after.example.com")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case <-reloaded:
		assert.Equal(t, "http://after.example.com", session.Config.Service.Endpoint)
	case <-time.After(2 * time.Second):
		t.Fatal("session config was not refreshed after the file changed")
	}
}
