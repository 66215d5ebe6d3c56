package session

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const cleanupInterval = 30 * time.Minute

// StartCleanupWorker runs a background goroutine that periodically sweeps
// the sessions directory and removes directories untouched for longer than
// ttl. Session dirs are scratch space; losing one only costs a re-download
// on the next run against the same URL.
func StartCleanupWorker(ctx context.Context, store *Store, ttl time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session cleanup worker started", "interval", cleanupInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweep(store.Base(), ttl)
			case <-ctx.Done():
				slog.Info("Session cleanup worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(base string, ttl time.Duration) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Session cleanup failed to list sessions", "error", err)
		}
		return
	}

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		dir := filepath.Join(base, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("Session cleanup failed to remove dir", "dir", dir, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("Session cleanup completed", "removed", removed)
	}
}
