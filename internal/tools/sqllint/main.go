// Command sqllint verifies the audit markers on inline SQL queries.
//
//	go run ./internal/tools/sqllint ./internal/sqlinline
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}

	var failed bool
	for _, target := range targets {
		violations, err := lintDir(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
		for _, v := range violations {
			if !failed {
				fmt.Fprintln(os.Stderr, "sqllint: invalid SQL audit markers")
				failed = true
			}
			fmt.Fprintf(os.Stderr, "  %s\n", v)
		}
	}
	if failed {
		os.Exit(1)
	}
}
