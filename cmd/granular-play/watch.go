package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/vsariola/granular"
	"github.com/vsariola/granular/player"
	"github.com/vsariola/granular/sampleio"
)

// Watch sends the preset at path every time the file changes, until done is
// closed. The directory is watched instead of the file, because many editors
// save by replacing the file.
func Watch(path string, presets chan<- granular.Preset, errors chan<- error, done <-chan struct{}) error {
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	go func() {
	loop:
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					break loop
				}
				if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue loop
				}
				p, err := granular.LoadPresetFile(path)
				if err != nil {
					if !deliver(errors, err, done) {
						break loop
					}
					continue loop
				}
				if !deliver(presets, p, done) {
					break loop
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					break loop
				}
				if !deliver(errors, err, done) {
					break loop
				}
			case <-done:
				break loop
			}
		}
		// ignore close error
		watcher.Close()
	}()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	return nil
}

// deliver sends v on c, giving up when done is closed. It reports whether v
// was sent.
func deliver[T any](c chan<- T, v T, done <-chan struct{}) bool {
	select {
	case c <- v:
		return true
	case <-done:
		return false
	}
}

// watchPreset applies changes of the preset file to a playing instrument:
// the parameters through the store and a changed sample through the broker.
func watchPreset(ctx context.Context, path string, current granular.Preset, store *granular.ParamStore, broker *player.Broker) {
	presets := make(chan granular.Preset)
	errs := make(chan error)
	if err := Watch(path, presets, errs, ctx.Done()); err != nil {
		slog.Error("cannot watch preset", "path", path, "error", err)
		return
	}
	slog.Info("watching preset", "path", path)
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			slog.Warn("cannot reload preset", "path", path, "error", err)
		case p := <-presets:
			store.Store(p.Params)
			slog.Info("reloaded preset", "path", path)
			slog.Debug("new parameters", "params", p.Params)
			if p.Sample.Path == current.Sample.Path && bytes.Equal(p.Sample.Data, current.Sample.Data) {
				current = p
				continue
			}
			current = p
			smp, warning := sampleio.Load(p.Sample, "")
			if warning != nil {
				slog.Warn("playing silence", "error", warning)
			}
			if !player.TrySend(broker.ToPlayer, any(smp)) {
				slog.Warn("player is busy, sample not replaced")
			}
		}
	}
}
