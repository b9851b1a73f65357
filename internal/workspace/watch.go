package workspace

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/tagsense/internal/config"
	"github.com/standardbeagle/tagsense/internal/debug"
	"github.com/standardbeagle/tagsense/pkg/pathutil"
)

// Watcher reloads the schema set after schema, catalog or tag directory
// files change. Events are debounced so that a burst of writes triggers a
// single reload.
type Watcher struct {
	ws      *Workspace
	watcher *fsnotify.Watcher
	delay   time.Duration
	wg      sync.WaitGroup

	// onReload is called after every debounced reload
	onReload func(*SchemaStatus, error)
}

// Watch starts watching the project root and the tag directories. The
// watcher stops when ctx is canceled; Wait blocks until it has.
func (w *Workspace) Watch(ctx context.Context, onReload func(*SchemaStatus, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sw := &Watcher{
		ws:       w,
		watcher:  fsw,
		delay:    time.Duration(w.cfg.Watch.DebounceMs) * time.Millisecond,
		onReload: onReload,
	}

	roots := append([]string{w.cfg.Project.Root}, config.TagDirs(w.cfg)...)
	for _, root := range roots {
		sw.addTree(root)
	}

	sw.wg.Add(1)
	go sw.run(ctx)
	debug.LogSchema("watching %d roots, debounce %s\n", len(roots), sw.delay)
	return sw, nil
}

// Wait blocks until the watcher has stopped
func (sw *Watcher) Wait() {
	sw.wg.Wait()
}

// addTree watches root and every directory below it that is not excluded
func (sw *Watcher) addTree(root string) {
	visited := make(map[string]bool)
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil // Skip errors, continue walking
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil || visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true
		if path != root && sw.excludedDir(path) {
			return filepath.SkipDir
		}
		if err := sw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to add watch for %s: %v", path, err)
		}
		return nil
	})
}

func (sw *Watcher) excludedDir(path string) bool {
	rel := sw.relative(path)
	for _, pattern := range sw.ws.cfg.Schemas.Exclude {
		if ok, _ := doublestar.Match(pattern, rel+"/x"); ok {
			return true
		}
	}
	return false
}

func (sw *Watcher) relative(path string) string {
	return filepath.ToSlash(pathutil.ToRelative(path, sw.ws.cfg.Project.Root))
}

func (sw *Watcher) run(ctx context.Context) {
	defer sw.wg.Done()
	defer func() {
		if err := sw.watcher.Close(); err != nil {
			log.Printf("Error closing fsnotify watcher: %v", err)
		}
	}()

	// The debounce timer is only armed while events are pending
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if sw.handle(event) {
				pending++
				timer.Reset(sw.delay)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Schema watcher error: %v", err)
		case <-timer.C:
			sw.flush(ctx, pending)
			pending = 0
		}
	}
}

// handle reports whether event should trigger a reload
func (sw *Watcher) handle(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !sw.excludedDir(event.Name) {
				sw.addTree(event.Name)
			}
			return false
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if !sw.relevant(event.Name) {
		return false
	}
	debug.LogSchema("watcher: %v %s\n", event.Op, event.Name)
	return true
}

// relevant reports whether a change to path can alter the schema set
func (sw *Watcher) relevant(path string) bool {
	cfg := sw.ws.cfg
	if path == filepath.Join(cfg.Project.Root, ".gitignore") {
		return true
	}
	if c := cfg.ResolvePath(cfg.Schemas.Catalog); c != "" && path == c {
		return true
	}
	for _, dir := range config.TagDirs(cfg) {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	rel := sw.relative(path)
	for _, pattern := range cfg.Schemas.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range cfg.Schemas.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (sw *Watcher) flush(ctx context.Context, events int) {
	log.Printf("Reloading schemas after %d file events", events)
	status, err := sw.ws.ReloadSchemas(ctx)
	if err != nil {
		log.Printf("Schema reload finished with problems: %v", err)
	}
	if sw.onReload != nil {
		sw.onReload(status, err)
	}
}
