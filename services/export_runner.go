package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const exportTimeout = 30 * time.Second

// ExportRunner writes a full log snapshot on a fixed interval.
type ExportRunner struct {
	exportService *ExportService
	interval      time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

func NewExportRunner(exportService *ExportService, interval time.Duration) *ExportRunner {
	return &ExportRunner{
		exportService: exportService,
		interval:      interval,
		stopCh:        make(chan struct{}),
	}
}

func (r *ExportRunner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.runExport()
			case <-r.stopCh:
				return
			}
		}
	}()
}

func (r *ExportRunner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *ExportRunner) runExport() {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	info, err := r.exportService.Export(ctx, "")
	if err != nil {
		slog.Error("export runner: snapshot failed", "error", err)
		return
	}
	slog.Info("export runner: snapshot written", "key", info.Key, "count", info.Count)
}
