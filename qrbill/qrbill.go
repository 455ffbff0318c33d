// Package qrbill decodes Swiss QR-bill payment slips (SIX Swiss Interbank
// Clearing specification) from scanned invoice PDFs.
package qrbill

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Party is one side of the payment slip.
type Party struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// Creditor is the payee with its account.
type Creditor struct {
	IBAN string `json:"iban"`
	Party
}

// Record is one decoded payment slip.
type Record struct {
	BillType    string          `json:"bill_type"`
	Creditor    Creditor        `json:"creditor"`
	Debtor      Party           `json:"debtor"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Reference   string          `json:"reference"`
	PaymentType string          `json:"payment_type"`
}

// AmountString renders the amount with its currency, e.g. "1949.75 CHF".
func (r *Record) AmountString() string {
	return strings.TrimSpace(r.Amount.String() + " " + r.Currency)
}
