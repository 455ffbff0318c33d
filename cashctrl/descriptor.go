package cashctrl

// EntityDescriptor describes one synchronized remote collection. Descriptors
// are declared once and never mutated; AllowedFields is the explicit
// allow-list of payload keys mirrored into the local store.
type EntityDescriptor struct {
	Collection       string
	Endpoint         string
	BusinessKeyField string
	AllowedFields    []string
	Destructive      bool
}

// Allows reports whether field survives key stripping for this descriptor.
func (d EntityDescriptor) Allows(field string) bool {
	for _, f := range d.AllowedFields {
		if f == field {
			return true
		}
	}
	return false
}

const (
	CollectionAccountCategory  = "account_category"
	CollectionCustomFieldGroup = "customfield_group"
	CollectionCustomField      = "customfield"
	CollectionPersonCategory   = "person_category"
	CollectionUnit             = "unit"
	CollectionLocation         = "location"
	CollectionFiscalPeriod     = "fiscalperiod"
)

var descriptors = []EntityDescriptor{
	{
		Collection:       CollectionAccountCategory,
		Endpoint:         "account/category",
		BusinessKeyField: "code",
		AllowedFields:    []string{"code", "name", "top"},
	},
	{
		Collection:       CollectionCustomFieldGroup,
		Endpoint:         "customfield/group",
		BusinessKeyField: "code",
		AllowedFields:    []string{"code", "name", "type"},
	},
	{
		Collection:       CollectionCustomField,
		Endpoint:         "customfield",
		BusinessKeyField: "code",
		AllowedFields:    []string{"code", "group", "name", "dataType", "isMulti", "values"},
	},
	{
		Collection:       CollectionPersonCategory,
		Endpoint:         "person/category",
		BusinessKeyField: "code",
		AllowedFields:    []string{"code", "name"},
	},
	{
		Collection:       CollectionUnit,
		Endpoint:         "inventory/unit",
		BusinessKeyField: "code",
		AllowedFields:    []string{"code", "name"},
	},
	{
		Collection:       CollectionLocation,
		Endpoint:         "location",
		BusinessKeyField: "code",
		AllowedFields:    []string{"code", "name", "type"},
	},
	{
		Collection:       CollectionFiscalPeriod,
		Endpoint:         "fiscalperiod",
		BusinessKeyField: "name",
		AllowedFields:    []string{"name", "start", "end", "isCustom"},
	},
}

// Descriptors returns the configured collections in a deterministic order.
// Group descriptors precede the fields that reference them.
func Descriptors() []EntityDescriptor {
	out := make([]EntityDescriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// DescriptorFor looks a descriptor up by collection name.
func DescriptorFor(collection string) (EntityDescriptor, bool) {
	for _, d := range descriptors {
		if d.Collection == collection {
			return d, true
		}
	}
	return EntityDescriptor{}, false
}
