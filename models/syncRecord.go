package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/swisscityerp/erp_backend/config"
	"gorm.io/gorm"
)

// SyncRecord shadows one remote accounting object. The business key matches
// local and remote records independently of numeric ids.
//
// Invariants:
//   - (tenant_id, setup_id, collection, remote_id) is unique
//   - (tenant_id, setup_id, collection, business_key) is unique
type SyncRecord struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	TenantId      string     `gorm:"uniqueIndex:idx_sync_record_remote,priority:1;uniqueIndex:idx_sync_record_key,priority:1;not null" json:"tenant_id"`
	SetupId       uint       `gorm:"uniqueIndex:idx_sync_record_remote,priority:2;uniqueIndex:idx_sync_record_key,priority:2;not null" json:"setup_id"`
	Collection    string     `gorm:"uniqueIndex:idx_sync_record_remote,priority:3;uniqueIndex:idx_sync_record_key,priority:3;size:50;not null" json:"collection"`
	RemoteId      int        `gorm:"uniqueIndex:idx_sync_record_remote,priority:4;not null" json:"remote_id"`
	BusinessKey   string     `gorm:"uniqueIndex:idx_sync_record_key,priority:4;size:128;not null" json:"business_key"`
	PayloadJSON   []byte     `gorm:"type:json" json:"payload"`
	RemoteCreated *time.Time `json:"remote_created"`
	RemoteUpdated *time.Time `json:"remote_updated"`
	CreatedBy     string     `gorm:"size:100" json:"created_by"`
	LastUpdatedBy string     `gorm:"size:100" json:"last_updated_by"`
	TombstonedAt  *time.Time `gorm:"index" json:"tombstoned_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncRecordUpsert carries one remote record into the local store. Payload
// holds allow-listed keys only; timestamp fields are already normalized by
// the caller.
type SyncRecordUpsert struct {
	TenantId      string
	SetupId       uint
	Collection    string
	BusinessKey   string
	RemoteId      int
	Payload       map[string]any
	RemoteCreated *time.Time
	RemoteUpdated *time.Time
	CreatedBy     string
	LastUpdatedBy string
}

// SyncStore is the gorm-backed store collaborator used by the reconciler.
// The zero value is ready to use.
type SyncStore struct{}

// UpsertRecord creates or updates the shadow row addressed by
// (tenant, setup, collection, business_key). A tombstoned row observed again
// on the remote side is revived.
func (SyncStore) UpsertRecord(ctx context.Context, in SyncRecordUpsert) error {
	db := config.GetDB()
	payloadJSON, err := json.Marshal(in.Payload)
	if err != nil {
		return err
	}

	var existing SyncRecord
	err = db.WithContext(ctx).
		Where("tenant_id = ? AND setup_id = ? AND collection = ? AND business_key = ?",
			in.TenantId, in.SetupId, in.Collection, in.BusinessKey).
		Take(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		record := SyncRecord{
			TenantId:      in.TenantId,
			SetupId:       in.SetupId,
			Collection:    in.Collection,
			BusinessKey:   in.BusinessKey,
			RemoteId:      in.RemoteId,
			PayloadJSON:   payloadJSON,
			RemoteCreated: in.RemoteCreated,
			RemoteUpdated: in.RemoteUpdated,
			CreatedBy:     in.CreatedBy,
			LastUpdatedBy: in.LastUpdatedBy,
		}
		return db.WithContext(ctx).Create(&record).Error
	}

	return db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"remote_id":       in.RemoteId,
		"payload_json":    payloadJSON,
		"remote_created":  in.RemoteCreated,
		"remote_updated":  in.RemoteUpdated,
		"last_updated_by": in.LastUpdatedBy,
		"tombstoned_at":   nil,
	}).Error
}

// TombstoneMissing marks rows whose remote counterpart disappeared. Rows are
// never hard-deleted.
func (SyncStore) TombstoneMissing(ctx context.Context, tenantId string, setupId uint, collection string, seenRemoteIds []int) error {
	db := config.GetDB()
	now := time.Now()
	q := db.WithContext(ctx).
		Model(&SyncRecord{}).
		Where("tenant_id = ? AND setup_id = ? AND collection = ? AND tombstoned_at IS NULL",
			tenantId, setupId, collection)
	if len(seenRemoteIds) > 0 {
		q = q.Where("remote_id NOT IN ?", seenRemoteIds)
	}
	return q.Update("tombstoned_at", &now).Error
}

// FindSyncRecord looks a shadow row up by business key.
func FindSyncRecord(ctx context.Context, tenantId string, setupId uint, collection string, businessKey string) (*SyncRecord, error) {
	db := config.GetDB()
	var record SyncRecord
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND setup_id = ? AND collection = ? AND business_key = ?",
			tenantId, setupId, collection, businessKey).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
