////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

// watch.go runs the orchestrator pass whenever the synced directory tree
// changes, so a participant converges as soon as its neighbors' artifacts
// arrive instead of waiting for the next scheduled invocation. A slow ticker
// backstops events the watcher may miss.

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/snwagh/private-histogram/internal"
	"github.com/snwagh/private-histogram/internal/state"
	"github.com/snwagh/private-histogram/node"
)

// debounce window between a filesystem event and the resulting pass, so one
// sync burst triggers one pass
const watchDebounce = time.Second

// safety net for events lost while directories were being created
const watchTick = 30 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-runs the round pass whenever the sync directory changes",
	Long: `watch performs an initial pass, then watches the synced directory
tree and performs another pass shortly after each change, exiting once the
aggregate is complete or a signal is received.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		def := buildDefinition()
		if err := watchLoop(def); err != nil {
			jww.ERROR.Printf("Watch exiting with error: %+v", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// runPass executes one invocation, reporting whether the round is done.
// Errors do not stop the watch; every operation is safe to retry once the
// storage recovers.
func runPass(def *internal.Definition) bool {
	stage, status, err := node.RunOnce(def)
	if err != nil {
		jww.ERROR.Printf("Pass aborted, will retry on next change: %+v", err)
		return false
	}
	jww.INFO.Printf("Round stage %s: %s", stage, status)
	return stage == state.AGGREGATED
}

func watchLoop(def *internal.Definition) error {
	if runPass(def) {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err = watchTree(watcher, def.SyncRoot); err != nil {
		return err
	}

	exit := ReceiveExitSignal()
	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	var pending *time.Timer
	var pendingC <-chan time.Time
	for {
		select {
		case event := <-watcher.Events:
			// new directories must be watched before their files arrive
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil &&
					info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			if pending == nil {
				pending = time.NewTimer(watchDebounce)
				pendingC = pending.C
			}
		case <-pendingC:
			pending, pendingC = nil, nil
			if runPass(def) {
				return nil
			}
		case <-ticker.C:
			if runPass(def) {
				return nil
			}
		case watchErr := <-watcher.Errors:
			jww.WARN.Printf("Watcher error: %s", watchErr)
		case sig := <-exit:
			jww.INFO.Printf("Received %s signal, exiting watch", sig)
			return nil
		}
	}
}

// watchTree adds the directory and all its current subdirectories to the
// watcher.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo,
		err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if addErr := watcher.Add(path); addErr != nil {
			jww.WARN.Printf("Could not watch %s: %s", path, addErr)
		}
		return nil
	})
}
