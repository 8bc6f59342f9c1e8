package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"math-log-server/models"
)

type ExportService struct {
	logs    LogStore
	storage StorageService
	now     func() time.Time
}

func NewExportService(logs LogStore, storage StorageService) *ExportService {
	return &ExportService{
		logs:    logs,
		storage: storage,
		now:     time.Now,
	}
}

// Export writes a JSON snapshot of request_logs, optionally filtered by
// operation, and returns its metadata
func (s *ExportService) Export(ctx context.Context, operation string) (*models.SnapshotInfo, error) {
	records, err := s.logs.ListLogs(ctx, operation)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now().UTC()
	snapshot := models.LogSnapshot{
		Key:         GenerateSnapshotKey(generatedAt),
		Operation:   operation,
		GeneratedAt: generatedAt,
		Count:       len(records),
		Records:     records,
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	err = capture(ctx, "Storage.SaveSnapshot", func(ctx context.Context) error {
		annotate(ctx, "storage.key", snapshot.Key)
		return s.storage.SaveSnapshot(ctx, snapshot.Key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("save snapshot %s: %w", snapshot.Key, err)
	}

	return &models.SnapshotInfo{
		Key:         snapshot.Key,
		Operation:   snapshot.Operation,
		GeneratedAt: snapshot.GeneratedAt,
		Count:       snapshot.Count,
	}, nil
}

// Get loads a previously exported snapshot
func (s *ExportService) Get(ctx context.Context, key string) (*models.LogSnapshot, error) {
	var data []byte
	err := capture(ctx, "Storage.GetSnapshot", func(ctx context.Context) error {
		var err error
		data, err = s.storage.GetSnapshot(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}

	var snapshot models.LogSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return &snapshot, nil
}

// GenerateSnapshotKey generates a unique, date-partitioned key for a snapshot
func GenerateSnapshotKey(at time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s.json", at.Format("2006/01/02"), uuid.New().String())
}
