package cashctrl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/swisscityerp/erp_backend/config"
	"github.com/swisscityerp/erp_backend/models"
	"github.com/swisscityerp/erp_backend/utils"
)

// Action is the closed set of orchestration entry points.
type Action string

const (
	ActionInitialize     Action = "initialize"
	ActionReconcile      Action = "reconcile"
	ActionUpdateOrCreate Action = "update-or-create"
)

func ParseAction(raw string) (Action, error) {
	switch Action(strings.TrimSpace(strings.ToLower(raw))) {
	case ActionInitialize:
		return ActionInitialize, nil
	case ActionReconcile:
		return ActionReconcile, nil
	case ActionUpdateOrCreate:
		return ActionUpdateOrCreate, nil
	default:
		return "", fmt.Errorf("unknown action %q (expected initialize, reconcile or update-or-create)", raw)
	}
}

// Selector narrows update-or-create runs to matching catalog entries. Empty
// selectors match everything.
type Selector struct {
	Key  string
	Code string
	Name string
}

func (s Selector) IsEmpty() bool {
	return s.Key == "" && s.Code == "" && s.Name == ""
}

func (s Selector) matches(rec DesiredRecord) bool {
	if s.IsEmpty() {
		return true
	}
	if s.Key != "" && rec.Key == s.Key {
		return true
	}
	if s.Code != "" {
		if code, ok := rec.Payload["code"].(string); ok && code == s.Code {
			return true
		}
	}
	if s.Name != "" {
		if name, ok := rec.Payload["name"].(map[string]any); ok {
			for _, v := range name {
				if text, ok := v.(string); ok && strings.EqualFold(text, s.Name) {
					return true
				}
			}
		}
		if name, ok := rec.Payload["name"].(string); ok && strings.EqualFold(name, s.Name) {
			return true
		}
	}
	return false
}

// RunStats aggregates per-collection results in execution order.
type RunStats struct {
	Order   []string
	Results map[string]Result
}

func newRunStats() RunStats {
	return RunStats{Results: make(map[string]Result)}
}

func (s *RunStats) add(collection string, result Result) {
	if _, seen := s.Results[collection]; !seen {
		s.Order = append(s.Order, collection)
	}
	s.Results[collection] = result
}

func (s RunStats) Synced() int {
	total := 0
	for _, r := range s.Results {
		total += r.Total()
	}
	return total
}

func (s RunStats) Failed() int {
	total := 0
	for _, r := range s.Results {
		total += r.Failed
	}
	return total
}

// Run executes one orchestration action over every configured collection.
// Catalog collections run in descriptor order; fiscal periods run last with
// the current calendar year. update-or-create touches only catalog entries
// matching the selector.
func (r *Reconciler) Run(ctx context.Context, action Action, sel Selector) (RunStats, error) {
	stats := newRunStats()

	for _, desc := range Descriptors() {
		if desc.Collection == CollectionFiscalPeriod {
			continue
		}
		desired := DesiredFor(desc.Collection)
		if action == ActionUpdateOrCreate {
			filtered := desired[:0:0]
			for _, rec := range desired {
				if sel.matches(rec) {
					filtered = append(filtered, rec)
				}
			}
			if len(filtered) == 0 {
				continue
			}
			desired = filtered
		}

		result, err := r.UpsertCollection(ctx, desc, desired)
		stats.add(desc.Collection, result)
		if err != nil {
			return stats, err
		}
	}

	if action == ActionInitialize || action == ActionReconcile {
		result, err := r.EnsureFiscalPeriods(ctx, []FiscalPeriodSeed{
			FiscalPeriodForYear(time.Now().In(zurich).Year()),
		})
		stats.add(CollectionFiscalPeriod, result)
		if err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// ProcessSyncRun executes one queued run end to end: lock the tenant, mark
// the run running, reconcile, record stats and per-record errors, finish the
// run and bump the setup's sync bookkeeping.
func ProcessSyncRun(ctx context.Context, payload SyncPubSubPayload) error {
	if payload.RunId == 0 || payload.TenantId == "" {
		return errors.New("invalid payload")
	}

	ctx = utils.SetTenantIdInContext(ctx, payload.TenantId)
	db := config.GetDB().WithContext(ctx)
	logger := config.GetLogger()

	var run models.SyncRun
	if err := db.Where("id = ? AND tenant_id = ?", payload.RunId, payload.TenantId).Take(&run).Error; err != nil {
		return err
	}
	if run.Status == models.SyncRunStatusSuccess || run.Status == models.SyncRunStatusFailed || run.Status == models.SyncRunStatusPartial {
		return nil
	}

	setup, err := models.GetAccountingSetup(ctx, payload.TenantId)
	if err != nil {
		return err
	}
	if setup == nil || setup.Status != models.SetupStatusConnected {
		return errors.New("cashctrl not connected")
	}

	// One run per tenant at a time; parallel processes handle distinct tenants.
	lock, err := config.AcquireTenantSyncLock(ctx, payload.TenantId, 10*time.Minute)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return fmt.Errorf("sync already running for tenant %s", payload.TenantId)
		}
		return err
	}
	if lock != nil {
		defer lock.Release(context.Background())
	}

	action, err := ParseAction(run.Action)
	if err != nil {
		action = ActionReconcile
	}

	now := time.Now()
	startedAt := run.StartedAt
	if startedAt == nil {
		startedAt = &now
	}
	if err := db.Model(&run).Updates(map[string]interface{}{
		"status":     models.SyncRunStatusRunning,
		"started_at": startedAt,
	}).Error; err != nil {
		return err
	}

	api, err := NewClient(setup.OrgId, setup.AuthSecretRef)
	if err != nil {
		return err
	}

	reconciler := &Reconciler{
		API:      api,
		Store:    models.SyncStore{},
		Logger:   logger,
		TenantId: payload.TenantId,
		SetupId:  setup.ID,
		Actor:    "sync-service",
		OnError: func(collection string, key string, recordErr error) {
			var rejection *RemoteRejection
			retryable := !errors.As(recordErr, &rejection)
			_ = models.CreateSyncRunError(ctx, run.ID, payload.TenantId, collection, key, "sync_failed", recordErr.Error(), nil, retryable)
		},
	}

	stats, runErr := reconciler.Run(ctx, action, Selector{})

	finishedAt := time.Now()
	durationMs := finishedAt.Sub(*startedAt).Milliseconds()
	status := models.SyncRunStatusSuccess
	if runErr != nil || (stats.Failed() > 0 && stats.Synced() == 0) {
		status = models.SyncRunStatusFailed
	} else if stats.Failed() > 0 {
		status = models.SyncRunStatusPartial
	}

	statsJSON, _ := json.Marshal(stats.Results)
	if err := db.Model(&run).Updates(map[string]interface{}{
		"status":         status,
		"finished_at":    finishedAt,
		"duration_ms":    durationMs,
		"records_synced": stats.Synced(),
		"error_count":    stats.Failed(),
		"stats_json":     statsJSON,
	}).Error; err != nil {
		return err
	}

	setupUpdates := map[string]interface{}{
		"last_sync_at": finishedAt,
	}
	if status == models.SyncRunStatusSuccess {
		setupUpdates["last_success_sync_at"] = finishedAt
	}
	if err := db.Model(&models.AccountingSetup{}).
		Where("id = ? AND tenant_id = ?", setup.ID, payload.TenantId).
		Updates(setupUpdates).Error; err != nil {
		return err
	}
	// The cached status response still carries the old sync timestamps.
	_ = config.DeleteRedisKey(statusCacheKey(payload.TenantId))

	return runErr
}
