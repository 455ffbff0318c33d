package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/swisscityerp/erp_backend/export"
)

// route-export normalizes a route document to the canonical reading-device
// form and optionally emits an XLSX review sheet.
func main() {
	in := flag.String("in", "", "Required: route document to read (JSON)")
	out := flag.String("out", "", "Write the canonical document here (default: stdout)")
	xlsx := flag.String("xlsx", "", "Also write an XLSX reading sheet to this path")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "--in is required")
		os.Exit(1)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	doc, err := export.Load(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", *in, err)
		os.Exit(1)
	}

	canonical, err := export.Marshal(doc)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *out == "" {
		if _, err := os.Stdout.Write(canonical); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else if err := os.WriteFile(*out, canonical, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *xlsx != "" {
		if err := export.WriteXLSX(doc, *xlsx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
