package models

import (
	"context"
	"time"

	"github.com/swisscityerp/erp_backend/config"
)

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual = "manual"
	SyncTriggeredRetry  = "retry"
	SyncTriggeredSystem = "system"
)

type SyncRun struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	TenantId      string     `gorm:"index;not null" json:"tenant_id"`
	SetupId       uint       `gorm:"index;not null" json:"setup_id"`
	Provider      string     `gorm:"index;size:50;not null" json:"provider"`
	Action        string     `gorm:"size:20" json:"action"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	StatsJSON     []byte     `gorm:"type:json" json:"stats"`
	RecordsSynced int        `json:"records_synced"`
	ErrorCount    int        `json:"error_count"`
	ParentRunId   *uint      `gorm:"index" json:"parent_run_id"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type SyncRunError struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	SyncRunId   uint      `gorm:"index;not null" json:"sync_run_id"`
	TenantId    string    `gorm:"index;not null" json:"tenant_id"`
	Collection  string    `gorm:"size:50" json:"collection"`
	BusinessKey string    `gorm:"size:128" json:"business_key"`
	ErrorCode   string    `gorm:"size:64" json:"error_code"`
	Message     string    `gorm:"type:text" json:"message"`
	PayloadJSON []byte    `gorm:"type:json" json:"payload"`
	Retryable   bool      `gorm:"default:false" json:"retryable"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func CreateSyncRunError(ctx context.Context, runId uint, tenantId string, collection string, businessKey string, code string, message string, payload []byte, retryable bool) error {
	errRec := SyncRunError{
		SyncRunId:   runId,
		TenantId:    tenantId,
		Collection:  collection,
		BusinessKey: businessKey,
		ErrorCode:   code,
		Message:     message,
		PayloadJSON: payload,
		Retryable:   retryable,
	}
	return config.GetDB().WithContext(ctx).Create(&errRec).Error
}
