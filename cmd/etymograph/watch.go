package main

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dd0wney/etymograph/pkg/logging"
	"github.com/fsnotify/fsnotify"
)

// fileWatcher calls onChange once a burst of writes to one file has
// been quiet for the debounce window. It watches the parent directory
// so editors that replace the file by rename are still seen.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()
	log      logging.Logger

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func watchFile(path string, debounce time.Duration, logger logging.Logger, onChange func()) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	fw := &fileWatcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		log:      logging.OrNop(logger).With(logging.Component("watch")),
		done:     make(chan struct{}),
	}
	fw.wg.Add(1)
	go fw.loop()
	fw.log.Info("watching dataset", logging.String("path", abs))
	return fw, nil
}

func (fw *fileWatcher) loop() {
	defer fw.wg.Done()
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-fw.done:
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			fw.log.Debug("dataset changed", logging.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fw.onChange()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("watch error", logging.Error(err))
		}
	}
}

// Close stops watching.
func (fw *fileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
		fw.wg.Wait()
	})
	return err
}
