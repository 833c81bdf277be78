package cmd

import (
	"flag"
	"fmt"
	"strings"

	"github.com/AyehBlk/RAPTOR/raptor/recommend"
)

func runCatalog(args []string) {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Emit the catalog as JSON")
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}

	pipelines := recommend.All()
	if *jsonOut {
		if err := writeJSON("", pipelines); err != nil {
			fatalf("catalog failed: %v", err)
		}
		return
	}

	for _, p := range pipelines {
		fmt.Printf("%d. %s\n", p.ID, p.Name)
		fmt.Printf("   %s -> %s -> %s\n", p.Aligner, p.Quantifier, p.DETool)
		fmt.Printf("   %s\n", p.Description)
		fmt.Printf("   best for: %s\n", strings.Join(p.BestFor, "; "))
	}
}
