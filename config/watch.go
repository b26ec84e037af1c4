package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Change names what a Watcher saw change.
type Change int

const (
	ConfigChanged  Change = iota // config.toml was written
	ScriptsChanged               // a *.lua file in the automate dir changed
)

// Watcher reports edits to the config file and the automate directory.
// Bursts of events are collapsed into one notification per Change.
type Watcher struct {
	w        *fsnotify.Watcher
	file     string
	scripts  string
	debounce time.Duration
	out      chan Change
	done     chan struct{}
	once     sync.Once
}

// Watch starts watching configFile and scriptsDir. Either may be missing;
// their parent directories are watched so files created later are seen.
func Watch(configFile, scriptsDir string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	w := &Watcher{
		w:        fw,
		file:     filepath.Clean(configFile),
		scripts:  filepath.Clean(scriptsDir),
		debounce: debounce,
		out:      make(chan Change, 4),
		done:     make(chan struct{}),
	}

	added := 0
	for _, dir := range []string{filepath.Dir(w.file), w.scripts} {
		if dir == "" || dir == "." {
			continue
		}
		if err := fw.Add(dir); err != nil {
			log.Debug("not watching", "dir", dir, "err", err)
			continue
		}
		added++
	}
	if added == 0 {
		fw.Close()
		return nil, fmt.Errorf("nothing to watch for %s", configFile)
	}

	go w.loop()
	return w, nil
}

// Changes delivers debounced change notifications.
func (w *Watcher) Changes() <-chan Change { return w.out }

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.w.Close()
	})
	return err
}

func (w *Watcher) classify(name string) (Change, bool) {
	name = filepath.Clean(name)
	if name == w.file {
		return ConfigChanged, true
	}
	if filepath.Dir(name) == w.scripts && filepath.Ext(name) == ".lua" {
		return ScriptsChanged, true
	}
	return 0, false
}

func (w *Watcher) loop() {
	pending := map[Change]bool{}
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			c, ok := w.classify(ev.Name)
			if !ok {
				continue
			}
			pending[c] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", "err", err)

		case <-fire:
			fire = nil
			for _, c := range []Change{ConfigChanged, ScriptsChanged} {
				if !pending[c] {
					continue
				}
				delete(pending, c)
				select {
				case w.out <- c:
				case <-w.done:
					return
				}
			}
		}
	}
}
