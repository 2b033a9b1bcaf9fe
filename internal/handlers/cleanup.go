package handlers

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileCleanupService sweeps the temp root for request directories that
// outlived their job. The pipeline removes its own work dirs; this catches
// anything left behind by a crash mid-request.
type FileCleanupService struct {
	tempRoot string
	maxAge   time.Duration
	ticker   *time.Ticker
	done     chan bool
	log      *slog.Logger
}

func NewFileCleanupService(tempRoot string, maxAge time.Duration, logger *slog.Logger) *FileCleanupService {
	return &FileCleanupService{
		tempRoot: tempRoot,
		maxAge:   maxAge,
		done:     make(chan bool),
		log:      logger,
	}
}

func (fcs *FileCleanupService) Start() {
	fcs.ticker = time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-fcs.done:
				return
			case <-fcs.ticker.C:
				fcs.cleanupStaleDirs()
			}
		}
	}()
	fcs.log.Info("file cleanup service started", "root", fcs.tempRoot, "maxAge", fcs.maxAge)
}

func (fcs *FileCleanupService) Stop() {
	if fcs.ticker != nil {
		fcs.ticker.Stop()
	}
	fcs.done <- true
	fcs.log.Info("file cleanup service stopped")
}

func (fcs *FileCleanupService) cleanupStaleDirs() {
	entries, err := os.ReadDir(fcs.tempRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			fcs.log.Error("cleanup sweep failed", "root", fcs.tempRoot, "error", err)
		}
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > fcs.maxAge {
			path := filepath.Join(fcs.tempRoot, entry.Name())
			fcs.log.Info("removing stale work dir", "path", path)
			if err := os.RemoveAll(path); err != nil {
				fcs.log.Error("stale dir removal failed", "path", path, "error", err)
			}
		}
	}
}
