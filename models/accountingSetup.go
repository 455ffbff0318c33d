package models

import (
	"errors"
	"time"

	"context"

	"github.com/swisscityerp/erp_backend/config"
	"gorm.io/gorm"
)

const (
	ProviderCashCtrl = "cashctrl"
)

const (
	SetupStatusConnected    = "connected"
	SetupStatusDisconnected = "disconnected"
	SetupStatusError        = "error"
)

// AccountingSetup is the per-tenant connection to the external bookkeeping
// service: organisation, credentials reference and sync bookkeeping.
type AccountingSetup struct {
	ID                uint       `gorm:"primary_key" json:"id"`
	TenantId          string     `gorm:"index;not null" json:"tenant_id"`
	Provider          string     `gorm:"index;size:50;not null" json:"provider"`
	Status            string     `gorm:"size:20;not null" json:"status"`
	OrgId             string     `gorm:"size:100" json:"org_id"`
	OrgName           string     `gorm:"size:255" json:"org_name"`
	AuthType          string     `gorm:"size:20" json:"auth_type"`
	AuthSecretRef     string     `gorm:"type:text" json:"auth_secret_ref"`
	SettingsJSON      []byte     `gorm:"type:json" json:"settings"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSuccessSyncAt *time.Time `json:"last_success_sync_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetAccountingSetup returns the tenant's cashCtrl setup, or nil when the
// tenant was never connected.
func GetAccountingSetup(ctx context.Context, tenantId string) (*AccountingSetup, error) {
	db := config.GetDB()
	var setup AccountingSetup
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantId, ProviderCashCtrl).
		Take(&setup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setup, nil
}
