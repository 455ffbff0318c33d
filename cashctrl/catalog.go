package cashctrl

// Reference data catalog: static seed entities created at tenant
// initialization and kept in line by the reconcile pass. Slices are returned
// as copies so callers cannot mutate the catalog; iteration order is the
// declaration order.

var accountCategories = []AccountCategorySeed{
	{
		Key: "p&l_expense",
		Top: TopExpense,
		Name: LocalizedString{
			"de": "Aufwand Erfolgsrechnung",
			"en": "P&L expense",
			"fr": "Charges du compte de résultat",
			"it": "Costi del conto economico",
		},
	},
	{
		Key: "p&l_revenue",
		Top: TopRevenue,
		Name: LocalizedString{
			"de": "Ertrag Erfolgsrechnung",
			"en": "P&L revenue",
			"fr": "Produits du compte de résultat",
			"it": "Ricavi del conto economico",
		},
	},
	{
		Key: "is_expense",
		Top: TopExpense,
		Name: LocalizedString{
			"de": "Ausgaben Investitionsrechnung",
			"en": "Investment statement expense",
			"fr": "Dépenses du compte des investissements",
			"it": "Uscite del conto degli investimenti",
		},
	},
	{
		Key: "is_revenue",
		Top: TopRevenue,
		Name: LocalizedString{
			"de": "Einnahmen Investitionsrechnung",
			"en": "Investment statement revenue",
			"fr": "Recettes du compte des investissements",
			"it": "Entrate del conto degli investimenti",
		},
	},
}

var customFieldGroups = []CustomFieldGroupSeed{
	{
		Key:    "city_account",
		Target: TargetAccount,
		Name: LocalizedString{
			"de": "Stadt Konto",
			"en": "City account",
			"fr": "Compte ville",
			"it": "Conto città",
		},
	},
	{
		Key:    "city_person",
		Target: TargetPerson,
		Name: LocalizedString{
			"de": "Stadt Person",
			"en": "City person",
			"fr": "Personne ville",
			"it": "Persona città",
		},
	},
}

var customFields = []CustomFieldSeed{
	{
		Key:      "function",
		GroupKey: "city_account",
		Target:   TargetAccount,
		DataType: FieldText,
		Name: LocalizedString{
			"de": "Funktion",
			"en": "Function",
			"fr": "Fonction",
			"it": "Funzione",
		},
	},
	{
		Key:      "hrm2",
		GroupKey: "city_account",
		Target:   TargetAccount,
		DataType: FieldText,
		Name: LocalizedString{
			"de": "HRM2 Kontonummer",
			"en": "HRM2 account number",
			"fr": "Numéro de compte MCH2",
			"it": "Numero di conto MCA2",
		},
	},
	{
		Key:      "subscriber_number",
		GroupKey: "city_person",
		Target:   TargetPerson,
		DataType: FieldText,
		Name: LocalizedString{
			"de": "Abonnentennummer",
			"en": "Subscriber number",
			"fr": "Numéro d'abonné",
			"it": "Numero di abbonato",
		},
	},
	{
		Key:      "billing_group",
		GroupKey: "city_person",
		Target:   TargetPerson,
		DataType: FieldSelect,
		Values:   []string{"water", "waste", "electricity"},
		Name: LocalizedString{
			"de": "Verrechnungsgruppe",
			"en": "Billing group",
			"fr": "Groupe de facturation",
			"it": "Gruppo di fatturazione",
		},
	},
}

var personCategories = []PersonCategorySeed{
	{
		Key: "citizen",
		Name: LocalizedString{
			"de": "Einwohner",
			"en": "Citizen",
			"fr": "Habitant",
			"it": "Abitante",
		},
	},
	{
		Key: "subscriber",
		Name: LocalizedString{
			"de": "Abonnent",
			"en": "Subscriber",
			"fr": "Abonné",
			"it": "Abbonato",
		},
	},
	{
		Key: "supplier",
		Name: LocalizedString{
			"de": "Lieferant",
			"en": "Supplier",
			"fr": "Fournisseur",
			"it": "Fornitore",
		},
	},
}

var units = []UnitSeed{
	{
		Key: "m3",
		Name: LocalizedString{
			"de": "Kubikmeter",
			"en": "Cubic metre",
			"fr": "Mètre cube",
			"it": "Metro cubo",
		},
	},
	{
		Key: "kwh",
		Name: LocalizedString{
			"de": "Kilowattstunde",
			"en": "Kilowatt hour",
			"fr": "Kilowattheure",
			"it": "Chilowattora",
		},
	},
	{
		Key: "stk",
		Name: LocalizedString{
			"de": "Stück",
			"en": "Piece",
			"fr": "Pièce",
			"it": "Pezzo",
		},
	},
}

// Exactly one MAIN location per tenant.
var locations = []LocationSeed{
	{
		Key:  "townhall",
		Type: LocationMain,
		Name: LocalizedString{
			"de": "Stadtverwaltung",
			"en": "City administration",
			"fr": "Administration municipale",
			"it": "Amministrazione cittadina",
		},
	},
	{
		Key:  "works_yard",
		Type: LocationOther,
		Name: LocalizedString{
			"de": "Werkhof",
			"en": "Works yard",
			"fr": "Voirie",
			"it": "Magazzino comunale",
		},
	},
}

func AccountCategories() []AccountCategorySeed {
	out := make([]AccountCategorySeed, len(accountCategories))
	copy(out, accountCategories)
	return out
}

func CustomFieldGroups() []CustomFieldGroupSeed {
	out := make([]CustomFieldGroupSeed, len(customFieldGroups))
	copy(out, customFieldGroups)
	return out
}

func CustomFields() []CustomFieldSeed {
	out := make([]CustomFieldSeed, len(customFields))
	copy(out, customFields)
	return out
}

func PersonCategories() []PersonCategorySeed {
	out := make([]PersonCategorySeed, len(personCategories))
	copy(out, personCategories)
	return out
}

func Units() []UnitSeed {
	out := make([]UnitSeed, len(units))
	copy(out, units)
	return out
}

func Locations() []LocationSeed {
	out := make([]LocationSeed, len(locations))
	copy(out, locations)
	return out
}

// DesiredFor returns the catalog's desired records for a collection, in
// catalog order. Fiscal periods are not catalog data and are handled by
// EnsureFiscalPeriods.
func DesiredFor(collection string) []DesiredRecord {
	switch collection {
	case CollectionAccountCategory:
		out := make([]DesiredRecord, 0, len(accountCategories))
		for _, s := range accountCategories {
			out = append(out, s.Desired())
		}
		return out
	case CollectionCustomFieldGroup:
		out := make([]DesiredRecord, 0, len(customFieldGroups))
		for _, s := range customFieldGroups {
			out = append(out, s.Desired())
		}
		return out
	case CollectionCustomField:
		out := make([]DesiredRecord, 0, len(customFields))
		for _, s := range customFields {
			out = append(out, s.Desired())
		}
		return out
	case CollectionPersonCategory:
		out := make([]DesiredRecord, 0, len(personCategories))
		for _, s := range personCategories {
			out = append(out, s.Desired())
		}
		return out
	case CollectionUnit:
		out := make([]DesiredRecord, 0, len(units))
		for _, s := range units {
			out = append(out, s.Desired())
		}
		return out
	case CollectionLocation:
		out := make([]DesiredRecord, 0, len(locations))
		for _, s := range locations {
			out = append(out, s.Desired())
		}
		return out
	default:
		return nil
	}
}
