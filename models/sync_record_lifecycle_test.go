package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/swisscityerp/erp_backend/config"
	"github.com/swisscityerp/erp_backend/models"
	"github.com/swisscityerp/erp_backend/utils"
)

func TestSyncRecordLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "swisscityerp_test")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	tenantId := "tenant-lifecycle"
	ctx := utils.SetTenantIdInContext(context.Background(), tenantId)
	store := models.SyncStore{}

	// Create.
	if err := store.UpsertRecord(ctx, models.SyncRecordUpsert{
		TenantId:      tenantId,
		SetupId:       1,
		Collection:    "unit",
		BusinessKey:   "m3",
		RemoteId:      7,
		Payload:       map[string]any{"code": "m3", "name": map[string]any{"de": "Kubikmeter"}},
		CreatedBy:     "test",
		LastUpdatedBy: "test",
	}); err != nil {
		t.Fatalf("initial upsert: %v", err)
	}

	rec, err := models.FindSyncRecord(ctx, tenantId, 1, "unit", "m3")
	if err != nil {
		t.Fatalf("FindSyncRecord: %v", err)
	}
	if rec == nil || rec.RemoteId != 7 {
		t.Fatalf("expected shadow with remote id 7, got %+v", rec)
	}

	// Update by business key: remote id moves, no second row appears.
	if err := store.UpsertRecord(ctx, models.SyncRecordUpsert{
		TenantId:      tenantId,
		SetupId:       1,
		Collection:    "unit",
		BusinessKey:   "m3",
		RemoteId:      9,
		Payload:       map[string]any{"code": "m3", "name": map[string]any{"de": "Kubikmeter", "en": "Cubic metre"}},
		LastUpdatedBy: "test",
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.SyncRecord{}).
		Where("tenant_id = ? AND collection = ? AND business_key = ?", tenantId, "unit", "m3").
		Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert must not duplicate the shadow row, got %d rows", count)
	}

	rec, err = models.FindSyncRecord(ctx, tenantId, 1, "unit", "m3")
	if err != nil || rec == nil {
		t.Fatalf("FindSyncRecord after update: rec=%+v err=%v", rec, err)
	}
	if rec.RemoteId != 9 {
		t.Fatalf("remote id not updated, got %d", rec.RemoteId)
	}

	// A second record that stays visible on the remote side.
	if err := store.UpsertRecord(ctx, models.SyncRecordUpsert{
		TenantId:      tenantId,
		SetupId:       1,
		Collection:    "unit",
		BusinessKey:   "kwh",
		RemoteId:      12,
		Payload:       map[string]any{"code": "kwh"},
		CreatedBy:     "test",
		LastUpdatedBy: "test",
	}); err != nil {
		t.Fatalf("kwh upsert: %v", err)
	}

	// m3 disappears from the remote listing: only it gets tombstoned.
	if err := store.TombstoneMissing(ctx, tenantId, 1, "unit", []int{12}); err != nil {
		t.Fatalf("TombstoneMissing: %v", err)
	}

	rec, _ = models.FindSyncRecord(ctx, tenantId, 1, "unit", "m3")
	if rec == nil || rec.TombstonedAt == nil {
		t.Fatalf("missing record must be tombstoned, got %+v", rec)
	}
	kept, _ := models.FindSyncRecord(ctx, tenantId, 1, "unit", "kwh")
	if kept == nil || kept.TombstonedAt != nil {
		t.Fatalf("seen record must not be tombstoned, got %+v", kept)
	}

	// m3 reappears on the remote: the shadow revives.
	if err := store.UpsertRecord(ctx, models.SyncRecordUpsert{
		TenantId:      tenantId,
		SetupId:       1,
		Collection:    "unit",
		BusinessKey:   "m3",
		RemoteId:      9,
		Payload:       map[string]any{"code": "m3"},
		LastUpdatedBy: "test",
	}); err != nil {
		t.Fatalf("revive upsert: %v", err)
	}
	rec, _ = models.FindSyncRecord(ctx, tenantId, 1, "unit", "m3")
	if rec == nil || rec.TombstonedAt != nil {
		t.Fatalf("reobserved record must revive, got %+v", rec)
	}

	// Tombstoning with every id seen is a no-op.
	if err := store.TombstoneMissing(ctx, tenantId, 1, "unit", []int{9, 12}); err != nil {
		t.Fatalf("no-op TombstoneMissing: %v", err)
	}
	rec, _ = models.FindSyncRecord(ctx, tenantId, 1, "unit", "m3")
	if rec == nil || rec.TombstonedAt != nil {
		t.Fatalf("seen record tombstoned by no-op pass, got %+v", rec)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("erp-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=swisscityerp_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
