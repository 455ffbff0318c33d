package cashctrl

import "testing"

func TestParseAction(t *testing.T) {
	cases := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"initialize", ActionInitialize, false},
		{"reconcile", ActionReconcile, false},
		{"update-or-create", ActionUpdateOrCreate, false},
		{" Reconcile ", ActionReconcile, false},
		{"sync", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseAction(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseAction(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAction(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAction(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSelector_Matches(t *testing.T) {
	rec := DesiredRecord{
		Key: "m3",
		Payload: map[string]any{
			"code": "m3",
			"name": map[string]any{"de": "Kubikmeter", "en": "Cubic metre"},
		},
	}

	cases := []struct {
		name string
		sel  Selector
		want bool
	}{
		{"empty matches all", Selector{}, true},
		{"key match", Selector{Key: "m3"}, true},
		{"key miss", Selector{Key: "kwh"}, false},
		{"code match", Selector{Code: "m3"}, true},
		{"name match any language", Selector{Name: "cubic metre"}, true},
		{"name miss", Selector{Name: "Liter"}, false},
	}
	for _, tc := range cases {
		if got := tc.sel.matches(rec); got != tc.want {
			t.Fatalf("%s: matches = %v, want %v", tc.name, got, tc.want)
		}
	}
}
