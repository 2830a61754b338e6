// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads display settings when the config file changes on
// disk. Only the UI section is applied live; connection, session and
// security settings require a restart, because swapping those mid-session
// would change enforcement semantics under the user's feet.
type Watcher struct {
	fw   *fsnotify.Watcher
	path string
	done chan struct{}
}

// Watch starts watching the given config file and invokes onUpdate with
// the fresh UI section after each successful reload. Malformed edits are
// ignored; the previous settings stay in effect.
func Watch(path string, onUpdate func(UIConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save,
	// which drops a direct file watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{fw: fw, path: path, done: make(chan struct{})}
	go w.run(onUpdate)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) run(onUpdate func(UIConfig)) {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFromPath(w.path)
			if err != nil {
				continue
			}
			onUpdate(cfg.UI)
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		}
	}
}
