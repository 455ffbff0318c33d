package cashctrl

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swisscityerp/erp_backend/config"
	"github.com/swisscityerp/erp_backend/models"
	"github.com/swisscityerp/erp_backend/utils"
)

// DesiredRecord is one record the reconciler should ensure on the remote
// side. Key is the business key; Payload is the wire payload before
// allow-list stripping.
type DesiredRecord struct {
	Key     string
	Payload map[string]any
}

// Store is the local-store collaborator. models.SyncStore is the gorm-backed
// implementation; tests substitute an in-memory one.
type Store interface {
	UpsertRecord(ctx context.Context, in models.SyncRecordUpsert) error
	TombstoneMissing(ctx context.Context, tenantId string, setupId uint, collection string, seenRemoteIds []int) error
}

// Result counts one reconcile pass over a collection.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
}

func (r Result) Total() int { return r.Created + r.Updated + r.Unchanged }

func (r Result) String() string {
	return fmt.Sprintf("created=%d updated=%d unchanged=%d failed=%d",
		r.Created, r.Updated, r.Unchanged, r.Failed)
}

// Reconciler holds the collaborators for one tenant's reconcile pass. It
// keeps no state across invocations.
type Reconciler struct {
	API      API
	Store    Store
	Logger   *logrus.Logger
	TenantId string
	SetupId  uint
	Actor    string

	// Destructive removes remote records absent from the desired set, for
	// every collection. Off by default; the CLI enables it only after an
	// explicit confirmation.
	Destructive bool

	// OnError, when set, receives every per-record failure in addition to the
	// log line (used to persist SyncRunError rows).
	OnError func(collection string, key string, err error)
}

// Timestamps from the remote service are ISO-8601 in UTC; the local store
// keeps them zone-aware in the city's time zone.
var zurich = mustLoadZurich()

func mustLoadZurich() *time.Location {
	loc, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		return time.UTC
	}
	return loc
}

// UpsertCollection reconciles desired against the remote collection:
// list, match by business key, update with the remote id or create and
// re-resolve the id by re-listing. Remote records absent from desired are
// left untouched unless the descriptor is destructive. Per-record failures
// are logged and counted while the batch continues; a list failure aborts
// with no local mutations. Running twice with identical input yields
// (0, 0, N) on the second run.
func (r *Reconciler) UpsertCollection(ctx context.Context, desc EntityDescriptor, desired []DesiredRecord) (Result, error) {
	var result Result

	remote, err := r.API.List(ctx, desc.Endpoint)
	if err != nil {
		return result, fmt.Errorf("list %s: %w", desc.Collection, err)
	}

	byKey := r.indexByBusinessKey(desc, remote)
	seenIds := make([]int, 0, len(remote))
	for _, rec := range byKey {
		seenIds = append(seenIds, remoteID(rec))
	}

	desiredKeys := make(map[string]bool, len(desired))
	for _, d := range desired {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		desiredKeys[d.Key] = true

		payload := restrictPayload(d.Payload, desc)

		existing, ok := byKey[d.Key]
		if !ok {
			created, err := r.createAndResolve(ctx, desc, d.Key, payload)
			if err != nil {
				r.logRecordError(desc, d.Key, err)
				result.Failed++
				continue
			}
			byKey[d.Key] = created
			seenIds = append(seenIds, remoteID(created))
			result.Created++
			r.persistShadow(ctx, desc, d.Key, created)
			continue
		}

		if payloadEqual(payload, existing, desc.AllowedFields) {
			result.Unchanged++
			r.persistShadow(ctx, desc, d.Key, existing)
			continue
		}

		update := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			update[k] = v
		}
		update["id"] = remoteID(existing)
		if _, err := r.API.Update(ctx, desc.Endpoint, update); err != nil {
			r.logRecordError(desc, d.Key, err)
			result.Failed++
			continue
		}
		result.Updated++

		merged := make(map[string]any, len(existing))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range payload {
			merged[k] = v
		}
		r.persistShadow(ctx, desc, d.Key, merged)
	}

	var deletedIds map[int]bool
	if desc.Destructive || r.Destructive {
		deletedIds = make(map[int]bool)
		for key, rec := range byKey {
			if desiredKeys[key] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}
			id := remoteID(rec)
			if _, err := r.API.Delete(ctx, desc.Endpoint, id); err != nil {
				r.logRecordError(desc, key, err)
				result.Failed++
				continue
			}
			deletedIds[id] = true
		}
	}

	if r.Store != nil {
		// Ids removed in this pass must not count as seen, so their shadows
		// tombstone now rather than on the next run.
		kept := seenIds
		if len(deletedIds) > 0 {
			kept = make([]int, 0, len(seenIds))
			for _, id := range seenIds {
				if !deletedIds[id] {
					kept = append(kept, id)
				}
			}
		}
		if err := r.Store.TombstoneMissing(ctx, r.TenantId, r.SetupId, desc.Collection, kept); err != nil {
			r.warn(desc, "", fmt.Sprintf("tombstone pass failed: %v", err))
		}
	}

	return result, nil
}

// createAndResolve issues the create and re-lists the collection to resolve
// the new remote id; the id in the create response is not trusted when
// absent.
func (r *Reconciler) createAndResolve(ctx context.Context, desc EntityDescriptor, key string, payload map[string]any) (map[string]any, error) {
	if _, err := r.API.Create(ctx, desc.Endpoint, payload); err != nil {
		return nil, err
	}

	remote, err := r.API.List(ctx, desc.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("re-list after create: %w", err)
	}
	byKey := r.indexByBusinessKey(desc, remote)
	created, ok := byKey[key]
	if !ok {
		return nil, fmt.Errorf("%s %q not found after create", desc.Collection, key)
	}
	return created, nil
}

// indexByBusinessKey builds the remote lookup. Records without the business
// key field are skipped with a warning; duplicate keys resolve to the record
// with the smallest remote id, warning with every duplicate id.
func (r *Reconciler) indexByBusinessKey(desc EntityDescriptor, remote []map[string]any) map[string]map[string]any {
	grouped := make(map[string][]map[string]any)
	for _, rec := range remote {
		key := stringField(rec, desc.BusinessKeyField)
		if key == "" {
			r.warn(desc, "", fmt.Sprintf("remote record id=%d has no %s, skipped", remoteID(rec), desc.BusinessKeyField))
			continue
		}
		grouped[key] = append(grouped[key], rec)
	}

	byKey := make(map[string]map[string]any, len(grouped))
	for key, recs := range grouped {
		if len(recs) == 1 {
			byKey[key] = recs[0]
			continue
		}
		sort.Slice(recs, func(i, j int) bool { return remoteID(recs[i]) < remoteID(recs[j]) })
		ids := make([]int, 0, len(recs))
		for _, rec := range recs {
			ids = append(ids, remoteID(rec))
		}
		r.warn(desc, key, fmt.Sprintf("duplicate business key on remote ids %v, using %d", ids, ids[0]))
		byKey[key] = recs[0]
	}
	return byKey
}

// persistShadow mirrors one remote record into the local store. Unknown keys
// are dropped per the descriptor's allow-list and remote timestamps become
// zone-aware local values. Shadow failures are logged but do not fail the
// record: the remote side is already in the desired state.
func (r *Reconciler) persistShadow(ctx context.Context, desc EntityDescriptor, key string, remote map[string]any) {
	if r.Store == nil {
		return
	}
	in := models.SyncRecordUpsert{
		TenantId:      r.TenantId,
		SetupId:       r.SetupId,
		Collection:    desc.Collection,
		BusinessKey:   key,
		RemoteId:      remoteID(remote),
		Payload:       restrictPayload(remote, desc),
		RemoteCreated: normalizedTime(remote, "created"),
		RemoteUpdated: normalizedTime(remote, "lastUpdated"),
		CreatedBy:     r.Actor,
		LastUpdatedBy: r.Actor,
	}
	if in.RemoteUpdated == nil {
		in.RemoteUpdated = normalizedTime(remote, "last_updated")
	}
	if err := r.Store.UpsertRecord(ctx, in); err != nil {
		r.warn(desc, key, fmt.Sprintf("shadow upsert failed: %v", err))
	}
}

func (r *Reconciler) logRecordError(desc EntityDescriptor, key string, err error) {
	if r.OnError != nil {
		r.OnError(desc.Collection, key, err)
	}
	if r.Logger == nil {
		return
	}
	config.LogError(r.Logger, "cashctrl", desc.Collection, key, map[string]any{"tenant": r.TenantId}, err)
}

func (r *Reconciler) warn(desc EntityDescriptor, key string, message string) {
	if r.Logger == nil {
		return
	}
	config.LogWarn(r.Logger, "cashctrl", desc.Collection, key, message)
}

/* payload helpers */

func restrictPayload(payload map[string]any, desc EntityDescriptor) map[string]any {
	out := make(map[string]any, len(desc.AllowedFields))
	for _, field := range desc.AllowedFields {
		if v, ok := payload[field]; ok {
			out[field] = v
		}
	}
	return out
}

// payloadEqual compares the allow-listed fields of a desired payload with a
// remote record via canonical JSON, so json.Number and native values of the
// same magnitude compare equal.
func payloadEqual(desired map[string]any, remote map[string]any, fields []string) bool {
	for _, field := range fields {
		dv, dok := desired[field]
		rv, rok := remote[field]
		if !dok && !rok {
			continue
		}
		if canonicalJSON(dv) != canonicalJSON(rv) {
			return false
		}
	}
	return true
}

func canonicalJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("!%v", v)
	}
	return string(b)
}

func remoteID(rec map[string]any) int {
	switch v := rec["id"].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func stringField(rec map[string]any, field string) string {
	if v, ok := rec[field].(string); ok {
		return v
	}
	return ""
}

func normalizedTime(rec map[string]any, field string) *time.Time {
	raw, ok := rec[field].(string)
	if !ok {
		return nil
	}
	t, ok := utils.ParseRemoteTime(raw)
	if !ok {
		return nil
	}
	t = t.In(zurich)
	return &t
}
