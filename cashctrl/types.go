package cashctrl

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/swisscityerp/erp_backend/utils"
)

// Languages supported by the remote accounting service, in fallback order.
// German is the required base language.
var Languages = []string{"de", "en", "fr", "it"}

// LocalizedString maps a language code to a translation. Entries may be
// partial; German must always be present in catalog data.
type LocalizedString map[string]string

// Get returns the translation for lang, falling back to German and then to
// the first available language in a stable order.
func (l LocalizedString) Get(lang string) string {
	if v, ok := l[lang]; ok && v != "" {
		return v
	}
	if v, ok := l["de"]; ok && v != "" {
		return v
	}
	for _, code := range Languages {
		if v, ok := l[code]; ok && v != "" {
			return v
		}
	}
	// Unknown language codes, stable order.
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if l[k] != "" {
			return l[k]
		}
	}
	return ""
}

// payload returns the wire form of the localized name.
func (l LocalizedString) payload() map[string]any {
	out := make(map[string]any, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

type CategoryTop string

const (
	TopExpense CategoryTop = "EXPENSE"
	TopRevenue CategoryTop = "REVENUE"
)

type FieldTarget string

const (
	TargetAccount FieldTarget = "ACCOUNT"
	TargetPerson  FieldTarget = "PERSON"
)

type FieldDataType string

const (
	FieldText     FieldDataType = "TEXT"
	FieldNumber   FieldDataType = "NUMBER"
	FieldDate     FieldDataType = "DATE"
	FieldCheckbox FieldDataType = "CHECKBOX"
	FieldSelect   FieldDataType = "COMBOBOX"
)

type LocationType string

const (
	LocationMain  LocationType = "MAIN"
	LocationOther LocationType = "OTHER"
)

// Seed records are the tagged, per-entity form of the reference data catalog.
// They convert to wire payloads only at the reconciler boundary.

type AccountCategorySeed struct {
	Key  string
	Top  CategoryTop
	Name LocalizedString
}

func (s AccountCategorySeed) Desired() DesiredRecord {
	return DesiredRecord{
		Key: s.Key,
		Payload: map[string]any{
			"code": s.Key,
			"name": s.Name.payload(),
			"top":  string(s.Top),
		},
	}
}

type PersonCategorySeed struct {
	Key  string
	Name LocalizedString
}

func (s PersonCategorySeed) Desired() DesiredRecord {
	return DesiredRecord{
		Key: s.Key,
		Payload: map[string]any{
			"code": s.Key,
			"name": s.Name.payload(),
		},
	}
}

type UnitSeed struct {
	Key  string
	Name LocalizedString
}

func (s UnitSeed) Desired() DesiredRecord {
	return DesiredRecord{
		Key: s.Key,
		Payload: map[string]any{
			"code": s.Key,
			"name": s.Name.payload(),
		},
	}
}

type LocationSeed struct {
	Key  string
	Type LocationType
	Name LocalizedString
}

func (s LocationSeed) Desired() DesiredRecord {
	return DesiredRecord{
		Key: s.Key,
		Payload: map[string]any{
			"code": s.Key,
			"name": s.Name.payload(),
			"type": string(s.Type),
		},
	}
}

type CustomFieldGroupSeed struct {
	Key    string
	Target FieldTarget
	Name   LocalizedString
}

func (s CustomFieldGroupSeed) Desired() DesiredRecord {
	return DesiredRecord{
		Key: s.Key,
		Payload: map[string]any{
			"code": s.Key,
			"name": s.Name.payload(),
			"type": string(s.Target),
		},
	}
}

type CustomFieldSeed struct {
	Key      string
	GroupKey string
	Target   FieldTarget
	Name     LocalizedString
	DataType FieldDataType
	IsMulti  bool
	Values   []string
}

func (s CustomFieldSeed) Desired() DesiredRecord {
	payload := map[string]any{
		"code":     s.Key,
		"group":    s.GroupKey,
		"name":     s.Name.payload(),
		"dataType": string(s.DataType),
		"isMulti":  s.IsMulti,
	}
	if len(s.Values) > 0 {
		values := make([]any, 0, len(s.Values))
		for _, v := range s.Values {
			values = append(values, v)
		}
		payload["values"] = values
	}
	return DesiredRecord{Key: s.Key, Payload: payload}
}

type FiscalPeriodSeed struct {
	Name  string
	Start time.Time
	End   time.Time
}

func (s FiscalPeriodSeed) Desired() DesiredRecord {
	return DesiredRecord{
		Key: s.Name,
		Payload: map[string]any{
			"name":     s.Name,
			"start":    s.Start.Format("2006-01-02"),
			"end":      s.End.Format("2006-01-02"),
			"isCustom": true,
		},
	}
}

// Validate checks the period invariant.
func (s FiscalPeriodSeed) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("fiscal period name is empty")
	}
	if !s.Start.Before(s.End) {
		return fmt.Errorf("fiscal period %q: start %s is not before end %s",
			s.Name, s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
	}
	return nil
}

/* service request/response shapes */

type ConnectRequest struct {
	OrgId   string `json:"orgId" binding:"required"`
	OrgName string `json:"orgName"`
	APIKey  string `json:"apiKey" binding:"required"`
}

type TriggerSyncRequest struct {
	Action string `json:"action"`
}

type StatusResponse struct {
	Connection        ConnectionResponse `json:"connection"`
	LastSyncAt        *string            `json:"lastSyncAt"`
	LastSuccessSyncAt *string            `json:"lastSuccessSyncAt"`
}

type ConnectionResponse struct {
	Status  string `json:"status"`
	OrgId   string `json:"orgId"`
	OrgName string `json:"orgName"`
}

type SyncHistoryResponse struct {
	Items []SyncRunResponse `json:"items"`
}

type SyncRunResponse struct {
	ID            uint    `json:"id"`
	Action        string  `json:"action"`
	Status        string  `json:"status"`
	StartedAt     *string `json:"startedAt"`
	FinishedAt    *string `json:"finishedAt"`
	DurationMs    int64   `json:"durationMs"`
	RecordsSynced int     `json:"recordsSynced"`
	ErrorCount    int     `json:"errorCount"`
	TriggeredBy   string  `json:"triggeredBy"`
}

type SyncRunDetailResponse struct {
	SyncRunResponse
	Errors []SyncErrorResponse `json:"errors"`
}

type SyncErrorResponse struct {
	ID          uint   `json:"id"`
	Collection  string `json:"collection"`
	BusinessKey string `json:"businessKey"`
	RemoteId    *int   `json:"remoteId"`
	Message     string `json:"message"`
	Retryable   bool   `json:"retryable"`
}

type PubSubPushEnvelope struct {
	Message struct {
		Data []byte `json:"data"`
		ID   string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

type SyncPubSubPayload struct {
	RunId    uint   `json:"run_id"`
	TenantId string `json:"tenant_id"`
	SetupId  uint   `json:"setup_id"`
}

func DecodeSyncPayload(raw []byte) (SyncPubSubPayload, error) {
	var payload SyncPubSubPayload
	err := utils.UnmarshalFromJSON(raw, &payload)
	return payload, err
}
