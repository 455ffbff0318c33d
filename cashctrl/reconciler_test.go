package cashctrl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/swisscityerp/erp_backend/models"
)

// fakeAPI is an in-memory remote. Records live per endpoint; ids are
// assigned on create.
type fakeAPI struct {
	records map[string][]map[string]any
	nextId  int

	listErr    error
	createErr  error
	updateErr  error
	hideOnList map[string]bool // business keys invisible to List

	creates []map[string]any
	updates []map[string]any
	deletes []int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{records: make(map[string][]map[string]any), nextId: 100}
}

func (f *fakeAPI) seed(endpoint string, rec map[string]any) {
	f.records[endpoint] = append(f.records[endpoint], rec)
}

func (f *fakeAPI) List(ctx context.Context, endpoint string) ([]map[string]any, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]map[string]any, 0, len(f.records[endpoint]))
	for _, rec := range f.records[endpoint] {
		if code, ok := rec["code"].(string); ok && f.hideOnList[code] {
			continue
		}
		if name, ok := rec["name"].(string); ok && f.hideOnList[name] {
			continue
		}
		cp := make(map[string]any, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeAPI) Create(ctx context.Context, endpoint string, payload map[string]any) (Response, error) {
	if f.createErr != nil {
		return Response{}, f.createErr
	}
	f.creates = append(f.creates, payload)
	f.nextId++
	rec := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		rec[k] = v
	}
	rec["id"] = f.nextId
	f.records[endpoint] = append(f.records[endpoint], rec)
	return Response{Success: true}, nil
}

func (f *fakeAPI) Update(ctx context.Context, endpoint string, payload map[string]any) (Response, error) {
	if f.updateErr != nil {
		return Response{}, f.updateErr
	}
	f.updates = append(f.updates, payload)
	id, _ := payload["id"].(int)
	for _, rec := range f.records[endpoint] {
		if remoteID(rec) == id {
			for k, v := range payload {
				if k != "id" {
					rec[k] = v
				}
			}
			return Response{Success: true}, nil
		}
	}
	return Response{}, fmt.Errorf("no record with id %d", id)
}

func (f *fakeAPI) Delete(ctx context.Context, endpoint string, id int) (Response, error) {
	f.deletes = append(f.deletes, id)
	recs := f.records[endpoint]
	for i, rec := range recs {
		if remoteID(rec) == id {
			f.records[endpoint] = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	return Response{Success: true}, nil
}

type fakeStore struct {
	upserts    []models.SyncRecordUpsert
	tombstones [][]int
}

func (s *fakeStore) UpsertRecord(ctx context.Context, in models.SyncRecordUpsert) error {
	s.upserts = append(s.upserts, in)
	return nil
}

func (s *fakeStore) TombstoneMissing(ctx context.Context, tenantId string, setupId uint, collection string, seen []int) error {
	s.tombstones = append(s.tombstones, seen)
	return nil
}

func testReconciler(api API, store Store) *Reconciler {
	return &Reconciler{
		API:      api,
		Store:    store,
		TenantId: "tenant-1",
		SetupId:  1,
		Actor:    "test",
	}
}

func unitDescriptor(t *testing.T) EntityDescriptor {
	t.Helper()
	desc, ok := DescriptorFor(CollectionUnit)
	if !ok {
		t.Fatalf("unit descriptor missing")
	}
	return desc
}

func TestUpsertCollection_CreatesEverythingThenIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	store := &fakeStore{}
	r := testReconciler(api, store)
	desc := unitDescriptor(t)
	desired := DesiredFor(CollectionUnit)

	first, err := r.UpsertCollection(context.Background(), desc, desired)
	if err != nil {
		t.Fatalf("first pass error: %v", err)
	}
	if first.Created != len(desired) || first.Updated != 0 || first.Unchanged != 0 || first.Failed != 0 {
		t.Fatalf("first pass expected created=%d, got %s", len(desired), first)
	}
	if len(store.upserts) != len(desired) {
		t.Fatalf("expected %d shadow upserts, got %d", len(desired), len(store.upserts))
	}

	second, err := r.UpsertCollection(context.Background(), desc, desired)
	if err != nil {
		t.Fatalf("second pass error: %v", err)
	}
	if second.Created != 0 || second.Updated != 0 || second.Unchanged != len(desired) {
		t.Fatalf("second pass expected unchanged=%d, got %s", len(desired), second)
	}
}

func TestUpsertCollection_UpdatesDivergedRecord(t *testing.T) {
	api := newFakeAPI()
	api.seed("inventory/unit", map[string]any{
		"id":   7,
		"code": "m3",
		"name": map[string]any{"de": "Kubik"},
	})
	r := testReconciler(api, nil)
	desc := unitDescriptor(t)

	result, err := r.UpsertCollection(context.Background(), desc, DesiredFor(CollectionUnit))
	if err != nil {
		t.Fatalf("UpsertCollection error: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 update, got %s", result)
	}
	if result.Created != 2 {
		t.Fatalf("expected kwh and stk created, got %s", result)
	}
	if len(api.updates) != 1 || api.updates[0]["id"] != 7 {
		t.Fatalf("expected update targeting id 7, got %v", api.updates)
	}
}

func TestUpsertCollection_DuplicateKeyUsesSmallestRemoteId(t *testing.T) {
	api := newFakeAPI()
	api.seed("inventory/unit", map[string]any{"id": 9, "code": "m3", "name": map[string]any{"de": "Alt"}})
	api.seed("inventory/unit", map[string]any{"id": 3, "code": "m3", "name": map[string]any{"de": "Alt"}})
	r := testReconciler(api, nil)
	desc := unitDescriptor(t)

	desired := []DesiredRecord{Units()[0].Desired()}
	result, err := r.UpsertCollection(context.Background(), desc, desired)
	if err != nil {
		t.Fatalf("UpsertCollection error: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 update, got %s", result)
	}
	if api.updates[0]["id"] != 3 {
		t.Fatalf("expected update on smallest remote id 3, got %v", api.updates[0]["id"])
	}
}

func TestUpsertCollection_ListFailureAbortsWithoutWrites(t *testing.T) {
	api := newFakeAPI()
	api.listErr = errors.New("boom")
	store := &fakeStore{}
	r := testReconciler(api, store)

	result, err := r.UpsertCollection(context.Background(), unitDescriptor(t), DesiredFor(CollectionUnit))
	if err == nil {
		t.Fatalf("expected list failure to surface")
	}
	if result.Total() != 0 || result.Failed != 0 {
		t.Fatalf("expected empty result, got %s", result)
	}
	if len(api.creates) != 0 || len(store.upserts) != 0 {
		t.Fatalf("expected no writes after list failure")
	}
}

func TestUpsertCollection_RecordFailureContinuesBatch(t *testing.T) {
	api := newFakeAPI()
	api.createErr = errors.New("rejected")
	api.seed("inventory/unit", map[string]any{"id": 4, "code": "kwh", "name": Units()[1].Name.payload()})
	var reported []string
	r := testReconciler(api, nil)
	r.OnError = func(collection, key string, err error) {
		reported = append(reported, key)
	}

	result, err := r.UpsertCollection(context.Background(), unitDescriptor(t), DesiredFor(CollectionUnit))
	if err != nil {
		t.Fatalf("batch error: %v", err)
	}
	if result.Failed != 2 {
		t.Fatalf("expected m3 and stk to fail, got %s", result)
	}
	if result.Unchanged != 1 {
		t.Fatalf("expected kwh unchanged, got %s", result)
	}
	if len(reported) != 2 {
		t.Fatalf("expected OnError for each failure, got %v", reported)
	}
}

func TestUpsertCollection_CancelledContextStopsBetweenRecords(t *testing.T) {
	api := newFakeAPI()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testReconciler(api, nil).UpsertCollection(ctx, unitDescriptor(t), DesiredFor(CollectionUnit))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(api.creates) != 0 {
		t.Fatalf("expected no creates after cancellation")
	}
}

func TestUpsertCollection_StripsDisallowedFields(t *testing.T) {
	api := newFakeAPI()
	r := testReconciler(api, nil)

	desired := []DesiredRecord{{
		Key: "m3",
		Payload: map[string]any{
			"code":     "m3",
			"name":     map[string]any{"de": "Kubikmeter"},
			"internal": "do-not-send",
		},
	}}
	if _, err := r.UpsertCollection(context.Background(), unitDescriptor(t), desired); err != nil {
		t.Fatalf("UpsertCollection error: %v", err)
	}
	if len(api.creates) != 1 {
		t.Fatalf("expected one create, got %d", len(api.creates))
	}
	if _, ok := api.creates[0]["internal"]; ok {
		t.Fatalf("disallowed field leaked into the wire payload: %v", api.creates[0])
	}
}

func TestUpsertCollection_DestructiveDeletesStrays(t *testing.T) {
	api := newFakeAPI()
	api.seed("inventory/unit", map[string]any{"id": 42, "code": "legacy", "name": map[string]any{"de": "Alt"}})
	store := &fakeStore{}
	r := testReconciler(api, store)
	desc := unitDescriptor(t)
	desired := DesiredFor(CollectionUnit)

	if _, err := r.UpsertCollection(context.Background(), desc, desired); err != nil {
		t.Fatalf("default pass error: %v", err)
	}
	if len(api.deletes) != 0 {
		t.Fatalf("non-destructive pass must not delete, got %v", api.deletes)
	}

	r.Destructive = true
	if _, err := r.UpsertCollection(context.Background(), desc, desired); err != nil {
		t.Fatalf("destructive pass error: %v", err)
	}
	if len(api.deletes) != 1 || api.deletes[0] != 42 {
		t.Fatalf("expected stray id 42 deleted, got %v", api.deletes)
	}

	// The deleted id must drop out of the seen set in the same pass, so its
	// shadow tombstones now and not on the next run.
	lastSeen := store.tombstones[len(store.tombstones)-1]
	for _, id := range lastSeen {
		if id == 42 {
			t.Fatalf("deleted id 42 still counted as seen: %v", lastSeen)
		}
	}
}

func TestEnsureFiscalPeriods_CreateFailsWhenPeriodNotFoundAfterCreate(t *testing.T) {
	api := newFakeAPI()
	api.hideOnList = map[string]bool{"2026": true}
	r := testReconciler(api, nil)

	result, err := r.EnsureFiscalPeriods(context.Background(), []FiscalPeriodSeed{FiscalPeriodForYear(2026)})
	if err != nil {
		t.Fatalf("EnsureFiscalPeriods error: %v", err)
	}
	if result.Failed != 1 || result.Created != 0 {
		t.Fatalf("expected invisible period to fail, got %s", result)
	}
}

func TestEnsureFiscalPeriods_UpdateIgnoresRemoteFailure(t *testing.T) {
	api := newFakeAPI()
	api.seed("fiscalperiod", map[string]any{
		"id":       11,
		"name":     "2026",
		"start":    "2025-01-01",
		"end":      "2025-12-31",
		"isCustom": true,
	})
	api.updateErr = errors.New("remote down")
	r := testReconciler(api, nil)

	result, err := r.EnsureFiscalPeriods(context.Background(), []FiscalPeriodSeed{FiscalPeriodForYear(2026)})
	if err != nil {
		t.Fatalf("EnsureFiscalPeriods error: %v", err)
	}
	if result.Updated != 1 || result.Failed != 0 {
		t.Fatalf("update failures are ignored on this path, got %s", result)
	}
}

func TestEnsureFiscalPeriods_RejectsInvertedPeriod(t *testing.T) {
	api := newFakeAPI()
	r := testReconciler(api, nil)

	bad := FiscalPeriodForYear(2026)
	bad.Start, bad.End = bad.End, bad.Start
	result, err := r.EnsureFiscalPeriods(context.Background(), []FiscalPeriodSeed{bad})
	if err != nil {
		t.Fatalf("EnsureFiscalPeriods error: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("expected validation failure, got %s", result)
	}
	if len(api.creates) != 0 {
		t.Fatalf("invalid period must not reach the remote")
	}
}

func TestRun_UpdateOrCreateHonorsSelector(t *testing.T) {
	api := newFakeAPI()
	r := testReconciler(api, nil)

	stats, err := r.Run(context.Background(), ActionUpdateOrCreate, Selector{Key: "m3"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.Synced() != 1 {
		t.Fatalf("expected exactly the m3 unit synced, got %d", stats.Synced())
	}
	if _, touched := stats.Results[CollectionFiscalPeriod]; touched {
		t.Fatalf("update-or-create must not touch fiscal periods")
	}
}

func TestRun_ReconcileCoversAllCollections(t *testing.T) {
	api := newFakeAPI()
	r := testReconciler(api, nil)

	stats, err := r.Run(context.Background(), ActionReconcile, Selector{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(stats.Order) != len(Descriptors()) {
		t.Fatalf("expected every collection in the stats, got %v", stats.Order)
	}
	if stats.Order[len(stats.Order)-1] != CollectionFiscalPeriod {
		t.Fatalf("fiscal periods must run last, got %v", stats.Order)
	}
	if stats.Failed() != 0 {
		t.Fatalf("expected clean run, got %d failures", stats.Failed())
	}
}
