package qrbill

import (
	"strings"
	"testing"
)

func samplePayload() []string {
	return []string{
		"SPC",                           // 0
		"0200",                          // 1
		"1",                             // 2
		"CH9300762011623852957",         // 3
		"S",                             // 4
		"Robert Schneider AG",           // 5
		"Rue du Lac",                    // 6
		"1268",                          // 7
		"2501",                          // 8
		"Biel",                          // 9
		"CH",                            // 10
		"", "", "", "", "", "", "",      // 11-17 ultimate creditor
		"1949.75",                       // 18
		"CHF",                           // 19
		"S",                             // 20
		"Pia-Maria Rutschmann-Schnyder", // 21
		"Grosse Marktgasse",             // 22
		"28",                            // 23
		"9400",                          // 24
		"Rorschach",                     // 25
		"CH",                            // 26
		"210000000003139471430009017",   // 27
		"QRR",                           // 28
		"",                              // 29
		"EPD",                           // 30
	}
}

func TestParsePayload_MapsTheLineSchema(t *testing.T) {
	rec := ParsePayload([]byte(strings.Join(samplePayload(), "\n")))
	if rec == nil {
		t.Fatalf("expected a record")
	}
	if rec.Creditor.IBAN != "CH9300762011623852957" {
		t.Fatalf("unexpected IBAN %q", rec.Creditor.IBAN)
	}
	if rec.Creditor.Name != "Robert Schneider AG" {
		t.Fatalf("unexpected creditor %q", rec.Creditor.Name)
	}
	if rec.Creditor.Address != "Rue du Lac 1268" {
		t.Fatalf("street and number must join, got %q", rec.Creditor.Address)
	}
	if rec.Debtor.Name != "Pia-Maria Rutschmann-Schnyder" {
		t.Fatalf("unexpected debtor %q", rec.Debtor.Name)
	}
	if rec.Debtor.City != "Rorschach" {
		t.Fatalf("unexpected debtor city %q", rec.Debtor.City)
	}
	if got := rec.AmountString(); got != "1949.75 CHF" {
		t.Fatalf("unexpected amount %q", got)
	}
	if rec.Reference != "210000000003139471430009017" {
		t.Fatalf("unexpected reference %q", rec.Reference)
	}
	if rec.PaymentType != "EPD" {
		t.Fatalf("unexpected payment type %q", rec.PaymentType)
	}
}

func TestParsePayload_RepairsShiftJISMojibake(t *testing.T) {
	lines := samplePayload()
	lines[5] = "Mﾃｼller AG"
	lines[9] = "Zﾃｼrich"
	lines[21] = "Renﾃｩ Franﾃｧois Bﾃ､chler"

	rec := ParsePayload([]byte(strings.Join(lines, "\n")))
	if rec == nil {
		t.Fatalf("expected a record")
	}
	if rec.Creditor.Name != "Müller AG" {
		t.Fatalf("umlaut not repaired: %q", rec.Creditor.Name)
	}
	if rec.Creditor.City != "Zürich" {
		t.Fatalf("city not repaired: %q", rec.Creditor.City)
	}
	if rec.Debtor.Name != "René François Bächler" {
		t.Fatalf("accents not repaired: %q", rec.Debtor.Name)
	}
}

func TestParsePayload_RejectsShortPayload(t *testing.T) {
	if rec := ParsePayload([]byte("SPC\n0200\n1")); rec != nil {
		t.Fatalf("short payload must yield nil, got %+v", rec)
	}
}

func TestParsePayload_RejectsMissingIBAN(t *testing.T) {
	lines := samplePayload()
	lines[3] = ""
	if rec := ParsePayload([]byte(strings.Join(lines, "\n"))); rec != nil {
		t.Fatalf("payload without IBAN must yield nil, got %+v", rec)
	}
}

func TestParsePayload_ToleratesInvalidUTF8(t *testing.T) {
	lines := samplePayload()
	raw := []byte(strings.Join(lines, "\n"))
	raw = append(raw, 0xff, 0xfe)
	if rec := ParsePayload(raw); rec == nil {
		t.Fatalf("trailing garbage must not break parsing")
	}
}

func TestParsePayload_TrimsWhitespace(t *testing.T) {
	lines := samplePayload()
	lines[5] = "  Robert Schneider AG  "
	rec := ParsePayload([]byte(strings.Join(lines, "\n")))
	if rec == nil || rec.Creditor.Name != "Robert Schneider AG" {
		t.Fatalf("expected trimmed creditor name, got %+v", rec)
	}
}
