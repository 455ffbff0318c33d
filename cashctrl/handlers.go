package cashctrl

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/swisscityerp/erp_backend/config"
	"github.com/swisscityerp/erp_backend/models"
	"github.com/swisscityerp/erp_backend/utils"
)

// Authentication is the host web layer's concern; handlers only require the
// tenant id it forwards.
func resolveTenantID(c *gin.Context) (string, error) {
	tenantId := strings.TrimSpace(c.GetHeader("x-tenant-id"))
	if tenantId == "" {
		tenantId = strings.TrimSpace(c.Query("tenant_id"))
	}
	if tenantId == "" {
		return "", errors.New("tenant id is required")
	}
	return tenantId, nil
}

const statusCacheTTL = 30 * time.Second

func statusCacheKey(tenantId string) string {
	return "cashctrl-status:" + tenantId
}

func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, err := resolveTenantID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)

		var cached StatusResponse
		if hit, cacheErr := config.GetRedisObject(statusCacheKey(tenantId), &cached); cacheErr == nil && hit {
			c.JSON(http.StatusOK, cached)
			return
		}

		setup, err := models.GetAccountingSetup(ctx, tenantId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var resp StatusResponse
		if setup == nil {
			resp = StatusResponse{
				Connection: ConnectionResponse{
					Status: models.SetupStatusDisconnected,
				},
			}
		} else {
			resp = StatusResponse{
				Connection: ConnectionResponse{
					Status:  setup.Status,
					OrgId:   setup.OrgId,
					OrgName: setup.OrgName,
				},
				LastSyncAt:        formatTime(setup.LastSyncAt),
				LastSuccessSyncAt: formatTime(setup.LastSuccessSyncAt),
			}
		}
		_ = config.SetRedisObject(statusCacheKey(tenantId), resp, statusCacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

func ConnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, err := resolveTenantID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)
		db := config.GetDB().WithContext(ctx)

		setup, err := models.GetAccountingSetup(ctx, tenantId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		orgName := strings.TrimSpace(req.OrgName)
		if orgName == "" {
			orgName = req.OrgId
		}

		if setup == nil {
			setup = &models.AccountingSetup{
				TenantId:      tenantId,
				Provider:      models.ProviderCashCtrl,
				Status:        models.SetupStatusConnected,
				AuthType:      "api_key",
				AuthSecretRef: req.APIKey,
				OrgId:         req.OrgId,
				OrgName:       orgName,
				UpdatedAt:     now,
			}
			if err := db.Create(setup).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		} else {
			if err := db.Model(setup).Updates(map[string]interface{}{
				"status":          models.SetupStatusConnected,
				"auth_type":       "api_key",
				"auth_secret_ref": req.APIKey,
				"org_id":          req.OrgId,
				"org_name":        orgName,
				"updated_at":      now,
			}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		_ = config.DeleteRedisKey(statusCacheKey(tenantId))
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func DisconnectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, err := resolveTenantID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)
		db := config.GetDB().WithContext(ctx)

		setup, err := models.GetAccountingSetup(ctx, tenantId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if setup == nil {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}

		if err := db.Model(setup).Updates(map[string]interface{}{
			"status":          models.SetupStatusDisconnected,
			"auth_secret_ref": "",
			"updated_at":      time.Now(),
		}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		_ = config.DeleteRedisKey(statusCacheKey(tenantId))
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// requestedAction reads the optional action from the trigger request body.
// A bare POST without a body defaults to reconcile.
func requestedAction(c *gin.Context) (Action, error) {
	var req TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return ActionReconcile, nil
		}
		return "", errors.New("invalid request")
	}
	if strings.TrimSpace(req.Action) == "" {
		return ActionReconcile, nil
	}
	return ParseAction(req.Action)
}

func TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, err := resolveTenantID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		action, err := requestedAction(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)
		db := config.GetDB().WithContext(ctx)

		setup, err := models.GetAccountingSetup(ctx, tenantId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if setup == nil || setup.Status != models.SetupStatusConnected {
			c.JSON(http.StatusConflict, gin.H{"error": "cashctrl is not connected"})
			return
		}

		run := models.SyncRun{
			TenantId:    tenantId,
			SetupId:     setup.ID,
			Provider:    models.ProviderCashCtrl,
			Action:      string(action),
			Status:      models.SyncRunStatusQueued,
			TriggeredBy: models.SyncTriggeredManual,
		}
		if err := db.Create(&run).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		_ = PublishSyncRun(c.Request.Context(), run.ID, tenantId, setup.ID)

		c.JSON(http.StatusOK, gin.H{"id": run.ID})
	}
}

func SyncHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, err := resolveTenantID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := 20
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)
		db := config.GetDB().WithContext(ctx)

		var runs []models.SyncRun
		if err := db.Where("tenant_id = ? AND provider = ?", tenantId, models.ProviderCashCtrl).
			Order("id desc").
			Limit(limit).
			Find(&runs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		items := make([]SyncRunResponse, 0, len(runs))
		for _, run := range runs {
			items = append(items, mapRunToResponse(run))
		}
		c.JSON(http.StatusOK, SyncHistoryResponse{Items: items})
	}
}

func SyncRunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, err := resolveTenantID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)
		db := config.GetDB().WithContext(ctx)

		run, err := utils.FetchModel[models.SyncRun](ctx, tenantId, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		var errs []models.SyncRunError
		if err := db.Where("sync_run_id = ?", run.ID).Order("id desc").Find(&errs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		errItems := mapErrors(errs)
		// Resolve the remote id for failed records that already have a shadow.
		for i, errRow := range errs {
			if errRow.BusinessKey == "" {
				continue
			}
			rec, lookupErr := models.FindSyncRecord(ctx, tenantId, run.SetupId, errRow.Collection, errRow.BusinessKey)
			if lookupErr != nil || rec == nil {
				continue
			}
			remoteId := rec.RemoteId
			errItems[i].RemoteId = &remoteId
		}

		resp := SyncRunDetailResponse{
			SyncRunResponse: mapRunToResponse(*run),
			Errors:          errItems,
		}
		c.JSON(http.StatusOK, resp)
	}
}

func RetrySyncRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, err := resolveTenantID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}

		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)
		db := config.GetDB().WithContext(ctx)

		run, err := utils.FetchModel[models.SyncRun](ctx, tenantId, id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		newRun := models.SyncRun{
			TenantId:    tenantId,
			SetupId:     run.SetupId,
			Provider:    run.Provider,
			Action:      run.Action,
			Status:      models.SyncRunStatusQueued,
			TriggeredBy: models.SyncTriggeredRetry,
			ParentRunId: &run.ID,
		}
		if err := db.Create(&newRun).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		_ = PublishSyncRun(c.Request.Context(), newRun.ID, tenantId, run.SetupId)

		c.JSON(http.StatusOK, gin.H{"id": newRun.ID})
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapRunToResponse(run models.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:            run.ID,
		Action:        run.Action,
		Status:        run.Status,
		StartedAt:     formatTime(run.StartedAt),
		FinishedAt:    formatTime(run.FinishedAt),
		DurationMs:    run.DurationMs,
		RecordsSynced: run.RecordsSynced,
		ErrorCount:    run.ErrorCount,
		TriggeredBy:   run.TriggeredBy,
	}
}

func mapErrors(errorsList []models.SyncRunError) []SyncErrorResponse {
	out := make([]SyncErrorResponse, 0, len(errorsList))
	for _, errItem := range errorsList {
		out = append(out, SyncErrorResponse{
			ID:          errItem.ID,
			Collection:  errItem.Collection,
			BusinessKey: errItem.BusinessKey,
			Message:     errItem.Message,
			Retryable:   errItem.Retryable,
		})
	}
	return out
}
