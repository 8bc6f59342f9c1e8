package models

import "time"

// LogSnapshot is a point-in-time export of request_logs written to storage
type LogSnapshot struct {
	Key         string         `json:"key"`
	Operation   string         `json:"operation,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Count       int            `json:"count"`
	Records     []OperationLog `json:"records"`
}

// SnapshotInfo is the metadata returned after an export, without the records
type SnapshotInfo struct {
	Key         string    `json:"key"`
	Operation   string    `json:"operation,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Count       int       `json:"count"`
}
