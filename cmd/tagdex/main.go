// Command tagdex loads tagged documents and queries them.
//
//	tagdex -f users.json -f teams.yaml query 'staff & !(intern | "on leave")'
//	tagdex -c tagdex.yaml tags --sort count
//	tagdex -f users.json stats
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
