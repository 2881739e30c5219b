package netcfg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/veesix-networks/unicastdhcp/pkg/logger"
	"gopkg.in/yaml.v3"
)

// document is the on-disk layout, keyed by subject class, subject and config
// key:
//
//	apps:
//	  nctu.winlab.unicastdhcp:
//	    UnicastDhcpConfig:
//	      serverLocation: of:0000000000000001/7
type document map[string]map[string]map[string]any

// FileSource feeds a Registry from a YAML file and keeps it in sync with the
// file while Watch runs.
type FileSource struct {
	path     string
	registry *Registry
	logger   *slog.Logger
	debounce time.Duration
	applied  map[configID]struct{}
}

func NewFileSource(path string, registry *Registry) *FileSource {
	return &FileSource{
		path:     path,
		registry: registry,
		logger:   logger.Get(logger.NetCfg),
		debounce: 100 * time.Millisecond,
		applied:  make(map[configID]struct{}),
	}
}

func (s *FileSource) Path() string {
	return s.path
}

// Load reads the file and applies every entry. Entries that were applied by a
// previous Load and are gone from the file are removed. A failing entry is
// logged and skipped; the other entries still apply.
func (s *FileSource) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read netcfg file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse netcfg file: %w", err)
	}

	seen := make(map[configID]struct{})
	for _, class := range sortedKeys(doc) {
		for _, subject := range sortedKeys(doc[class]) {
			for _, key := range sortedKeys(doc[class][subject]) {
				raw, err := json.Marshal(doc[class][subject][key])
				if err != nil {
					s.logger.Warn("Skipping config entry", "subject_class", class, "subject", subject, "key", key, "error", err)
					continue
				}

				id := configID{class: class, subject: subject, key: key}
				seen[id] = struct{}{}

				if _, err := s.registry.ApplyConfig(class, subject, key, raw); err != nil {
					s.logger.Warn("Failed to apply config entry", "subject_class", class, "subject", subject, "key", key, "error", err)
				}
			}
		}
	}

	for id := range s.applied {
		if _, ok := seen[id]; !ok {
			s.registry.RemoveConfig(id.class, id.subject, id.key)
		}
	}
	s.applied = seen

	s.logger.Info("Loaded network config", "path", s.path, "entries", len(seen))
	return nil
}

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so editors that replace the file are handled.
func (s *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	var reload <-chan time.Time
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(s.debounce)
			reload = timer.C
		case <-reload:
			reload = nil
			if err := s.Load(); err != nil {
				s.logger.Warn("Failed to reload network config", "path", s.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Network config watcher error", "error", err)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
