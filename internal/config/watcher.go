// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watcher.go - Hot reload of the config file for long-lived sessions.
//
// Interactive chat sessions can outlive a config edit; the watcher
// picks the change up without a restart. Editors write config files in
// creative ways (write-in-place, temp+rename, remove+create), so the
// watcher debounces and watches the directory rather than the file.

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// WATCHER INTERFACE
// =============================================================================

// ReloadFunc is called with the freshly loaded config after a change.
type ReloadFunc func(*Config)

// Watcher is the interface for config watching implementations.
type Watcher interface {
	// Watch starts watching for config changes
	Watch() error

	// Close stops watching and releases resources
	Close() error
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// FsnotifyWatcher implements Watcher using fsnotify.
type FsnotifyWatcher struct {
	path     string
	onReload ReloadFunc
	watcher  *fsnotify.Watcher
	debounce time.Duration
	mu       sync.Mutex
	pending  time.Time
	dirty    bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewFsnotifyWatcher creates a new fsnotify-based config watcher.
func NewFsnotifyWatcher(path string, debounce time.Duration, onReload ReloadFunc) (*FsnotifyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	fw := &FsnotifyWatcher{
		path:     path,
		onReload: onReload,
		watcher:  watcher,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}

	return fw, nil
}

// Watch starts watching for config changes.
func (fw *FsnotifyWatcher) Watch() error {
	// Watch the directory: rename-based saves replace the inode and a
	// file-level watch would silently die.
	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return err
	}

	go fw.processEvents()
	go fw.processPending()

	return nil
}

// processEvents processes file system events.
func (fw *FsnotifyWatcher) processEvents() {
	defer func() {
		if r := recover(); r != nil {
			_ = r
		}
	}()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(fw.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fw.mu.Lock()
				fw.pending = time.Now()
				fw.dirty = true
				fw.mu.Unlock()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			_ = err
		}
	}
}

// processPending fires the reload once changes settle past the debounce.
func (fw *FsnotifyWatcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case <-ticker.C:
			fw.mu.Lock()
			fire := fw.dirty && time.Since(fw.pending) >= fw.debounce
			if fire {
				fw.dirty = false
			}
			fw.mu.Unlock()

			if fire {
				fw.reload()
			}
		}
	}
}

// reload re-reads the config file and hands it to the callback.
// A file that fails to load mid-edit is skipped; the next settled
// write will try again.
func (fw *FsnotifyWatcher) reload() {
	cfg, err := LoadFromPath(fw.path)
	if err != nil {
		return
	}
	if fw.onReload != nil {
		fw.onReload(cfg)
	}
}

// Close stops watching and releases resources.
func (fw *FsnotifyWatcher) Close() error {
	fw.cancel()
	if fw.watcher != nil {
		return fw.watcher.Close()
	}
	return nil
}

// =============================================================================
// POLLING WATCHER (FALLBACK)
// =============================================================================

// PollingWatcher implements Watcher using periodic mtime polling.
type PollingWatcher struct {
	path     string
	onReload ReloadFunc
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	modTime  time.Time
}

// NewPollingWatcher creates a new polling-based config watcher.
func NewPollingWatcher(path string, interval time.Duration, onReload ReloadFunc) *PollingWatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &PollingWatcher{
		path:     path,
		onReload: onReload,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Watch starts watching for config changes.
func (pw *PollingWatcher) Watch() error {
	if info, err := os.Stat(pw.path); err == nil {
		pw.modTime = info.ModTime()
	}

	go pw.poll()
	return nil
}

// poll periodically checks the config file's modification time.
func (pw *PollingWatcher) poll() {
	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-pw.ctx.Done():
			return

		case <-ticker.C:
			pw.checkChanged()
		}
	}
}

// checkChanged reloads if the file's mtime moved.
func (pw *PollingWatcher) checkChanged() {
	info, err := os.Stat(pw.path)
	if err != nil {
		return
	}

	pw.mu.Lock()
	changed := !info.ModTime().Equal(pw.modTime)
	if changed {
		pw.modTime = info.ModTime()
	}
	pw.mu.Unlock()

	if !changed {
		return
	}

	cfg, err := LoadFromPath(pw.path)
	if err != nil {
		return
	}
	if pw.onReload != nil {
		pw.onReload(cfg)
	}
}

// Close stops watching.
func (pw *PollingWatcher) Close() error {
	pw.cancel()
	return nil
}

// =============================================================================
// WATCHER FACTORY
// =============================================================================

// StartWatcher watches the default config file and pushes reloaded
// configs into the global instance. Tries fsnotify first, falls back
// to polling. The caller owns the returned watcher's lifetime.
func StartWatcher(onReload ReloadFunc) (Watcher, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	return StartWatcherOn(path, onReload)
}

// StartWatcherOn watches a specific config file path.
func StartWatcherOn(path string, onReload ReloadFunc) (Watcher, error) {
	apply := func(cfg *Config) {
		SetGlobal(cfg)
		if onReload != nil {
			onReload(cfg)
		}
	}

	// Try fsnotify first
	fw, err := NewFsnotifyWatcher(path, 500*time.Millisecond, apply)
	if err == nil {
		if err := fw.Watch(); err == nil {
			return fw, nil
		}
		fw.Close()
	}

	// Fallback to polling watcher
	pw := NewPollingWatcher(path, 5*time.Second, apply)
	if err := pw.Watch(); err != nil {
		return nil, err
	}
	return pw, nil
}
