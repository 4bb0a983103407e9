package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchCertFiles logs a warning if certFile or keyFile change on disk
// after startup. It never reloads the TLS context — the Config snapshot
// loaded at startup is immutable for the life of the process; operators
// are expected to restart to pick up a renewed certificate.
func WatchCertFiles(ctx context.Context, certFile, keyFile string, log zerolog.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("cert watcher: fsnotify unavailable, certificate changes will not be logged")
		return
	}

	for _, path := range []string{certFile, keyFile} {
		if err := watcher.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("cert watcher: failed to watch file")
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.Warn().Str("path", event.Name).Msg("certificate file changed on disk; restart the server to pick up the new certificate")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("cert watcher error")
			}
		}
	}()
}
