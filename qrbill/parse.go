package qrbill

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minPayloadLines is the number of lines a usable payload must carry; the
// payment-type trailer sits at index 30.
const minPayloadLines = 31

// Scanner drivers that misread the UTF-8 payload as Shift-JIS turn two-byte
// umlaut sequences into halfwidth katakana. The repair table maps the
// artifacts back.
var mojibakeRepair = strings.NewReplacer(
	"ﾃｼ", "ü",
	"ﾃ､", "ä",
	"ﾃｶ", "ö",
	"ﾃｩ", "é",
	"ﾃｨ", "è",
	"ﾃｧ", "ç",
)

// ParsePayload maps a decoded QR payload onto the fixed SIX line schema.
// It returns nil when the payload is too short or the creditor IBAN is
// missing; malformed input is never an error.
func ParsePayload(raw []byte) *Record {
	text := strings.ToValidUTF8(string(raw), "�")
	text = mojibakeRepair.Replace(text)

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) < minPayloadLines {
		return nil
	}
	if lines[3] == "" {
		return nil
	}

	record := &Record{
		BillType: lines[2],
		Creditor: Creditor{
			IBAN: lines[3],
			Party: Party{
				Name:       lines[5],
				Address:    joinAddress(lines[6], lines[7]),
				PostalCode: lines[8],
				City:       lines[9],
				Country:    lines[10],
			},
		},
		Currency: lines[19],
		Debtor: Party{
			Name:       lines[21],
			Address:    joinAddress(lines[22], lines[23]),
			PostalCode: lines[24],
			City:       lines[25],
			Country:    lines[26],
		},
		Reference:   lines[27],
		PaymentType: lines[30],
	}
	if amount, err := decimal.NewFromString(lines[18]); err == nil {
		record.Amount = amount
	}
	return record
}

func joinAddress(street string, number string) string {
	return strings.TrimSpace(street + " " + number)
}
