package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/swisscityerp/erp_backend/qrbill"
)

func main() {
	all := flag.Bool("all", false, "Decode every payment part, not just the first")
	asJSON := flag.Bool("json", false, "Print decoded bills as JSON")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: qrbill-scan [-all] [-json] <invoice.pdf> [more.pdf ...]")
		os.Exit(1)
	}

	exitCode := 0
	for _, path := range flag.Args() {
		records, err := scan(path, *all)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
			continue
		}
		if len(records) == 0 {
			fmt.Fprintf(os.Stderr, "%s: no payment part found\n", path)
			exitCode = 1
			continue
		}
		printRecords(path, records, *asJSON)
	}
	os.Exit(exitCode)
}

func scan(path string, all bool) ([]*qrbill.Record, error) {
	if all {
		return qrbill.ExtractAll(path)
	}
	rec, err := qrbill.Extract(path)
	if err != nil || rec == nil {
		return nil, err
	}
	return []*qrbill.Record{rec}, nil
}

func printRecords(path string, records []*qrbill.Record, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(records)
		return
	}
	for _, rec := range records {
		fmt.Printf("%s\n", path)
		fmt.Printf("  creditor:  %s, %s %s %s\n", rec.Creditor.Name, rec.Creditor.Address, rec.Creditor.PostalCode, rec.Creditor.City)
		fmt.Printf("  iban:      %s\n", rec.Creditor.IBAN)
		if rec.Debtor.Name != "" {
			fmt.Printf("  debtor:    %s, %s %s %s\n", rec.Debtor.Name, rec.Debtor.Address, rec.Debtor.PostalCode, rec.Debtor.City)
		}
		fmt.Printf("  amount:    %s\n", rec.AmountString())
		if rec.Reference != "" {
			fmt.Printf("  reference: %s\n", rec.Reference)
		}
	}
}
