package cashctrl

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// FiscalPeriodForYear builds the custom calendar-year period seed.
func FiscalPeriodForYear(year int) FiscalPeriodSeed {
	return FiscalPeriodSeed{
		Name:  strconv.Itoa(year),
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, zurich),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, zurich),
	}
}

// EnsureFiscalPeriods reconciles fiscal periods by name. The create path
// re-lists and fails the record when the new period cannot be found; the
// update path deliberately ignores the remote response. That asymmetry
// matches the long-standing behavior of this integration and is kept as-is.
func (r *Reconciler) EnsureFiscalPeriods(ctx context.Context, periods []FiscalPeriodSeed) (Result, error) {
	var result Result

	desc, _ := DescriptorFor(CollectionFiscalPeriod)

	remote, err := r.API.List(ctx, desc.Endpoint)
	if err != nil {
		return result, fmt.Errorf("list %s: %w", desc.Collection, err)
	}
	byName := r.indexByBusinessKey(desc, remote)

	for _, period := range periods {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := period.Validate(); err != nil {
			r.logRecordError(desc, period.Name, err)
			result.Failed++
			continue
		}

		desired := period.Desired()
		payload := restrictPayload(desired.Payload, desc)

		existing, ok := byName[period.Name]
		if !ok {
			created, err := r.createAndResolve(ctx, desc, period.Name, payload)
			if err != nil {
				r.logRecordError(desc, period.Name, err)
				result.Failed++
				continue
			}
			result.Created++
			r.persistShadow(ctx, desc, period.Name, created)
			continue
		}

		if payloadEqual(payload, existing, desc.AllowedFields) {
			result.Unchanged++
			r.persistShadow(ctx, desc, period.Name, existing)
			continue
		}

		update := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			update[k] = v
		}
		update["id"] = remoteID(existing)
		_, _ = r.API.Update(ctx, desc.Endpoint, update)
		result.Updated++

		merged := make(map[string]any, len(existing))
		for k, v := range existing {
			merged[k] = v
		}
		for k, v := range payload {
			merged[k] = v
		}
		r.persistShadow(ctx, desc, period.Name, merged)
	}

	return result, nil
}
