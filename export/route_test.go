package export

import (
	"bytes"
	"strings"
	"testing"
)

func fp(v float64) *float64 { return &v }

func sampleDoc() *RouteDocument {
	return &RouteDocument{
		Route: "Altstadt Süd",
		Meter: []Meter{
			{
				ID:         421,
				Energytype: "Wasser",
				Number:     "W-1042",
				Hint:       "Zähler im Keller",
				Address:    "Bahnhofstrasse 7",
				Subscriber: "Müller AG",
				Value: []Value{
					{ID: 9001, Old: fp(1280), Min: fp(1280), Max: fp(1600)},
					{ID: 9002, Old: nil, Min: nil, Max: nil},
				},
			},
		},
	}
}

func TestMarshal_CanonicalForm(t *testing.T) {
	out, err := Marshal(sampleDoc())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{
    "route": "Altstadt Süd",
    "meter": [
        {
            "id": 421,
            "energytype": "Wasser",
            "number": "W-1042",
            "hint": "Zähler im Keller",
            "address": "Bahnhofstrasse 7",
            "subscriber": "Müller AG",
            "value": [
                {
                    "id": 9001,
                    "old": 1280,
                    "min": 1280,
                    "max": 1600
                },
                {
                    "id": 9002,
                    "old": null,
                    "min": null,
                    "max": null
                }
            ]
        }
    ]
}
`
	if string(out) != expected {
		t.Fatalf("canonical form mismatch:\n%s", out)
	}
}

func TestMarshal_KeepsUTF8Verbatim(t *testing.T) {
	out, err := Marshal(sampleDoc())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if bytes.Contains(out, []byte(`\u`)) {
		t.Fatalf("umlauts must not be escaped:\n%s", out)
	}
	if !bytes.Contains(out, []byte("Müller AG")) {
		t.Fatalf("expected verbatim UTF-8 subscriber name:\n%s", out)
	}
}

func TestMarshal_RoundTripIsStable(t *testing.T) {
	first, err := Marshal(sampleDoc())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	doc, err := Load(first)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	second, err := Marshal(doc)
	if err != nil {
		t.Fatalf("re-Marshal error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("round trip changed the document:\n%s\nvs\n%s", first, second)
	}
}

func TestMarshal_NullsStayExplicit(t *testing.T) {
	out, err := Marshal(sampleDoc())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if got := strings.Count(string(out), "null"); got != 3 {
		t.Fatalf("expected 3 explicit nulls, got %d:\n%s", got, out)
	}
}

func TestLoad_RejectsMalformedInput(t *testing.T) {
	if _, err := Load([]byte(`{"route": `)); err == nil {
		t.Fatalf("expected parse error")
	}
}
