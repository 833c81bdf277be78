package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/AyehBlk/RAPTOR/raptor/matrix"
)

type validateConfig struct {
	CountsPath string
	MetaPath   string
	JSONOut    bool
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	countsPath := fs.String("counts", "", "Count matrix CSV/TSV (optionally .gz)")
	metaPath := fs.String("metadata", "", "Optional sample metadata CSV/TSV")
	jsonOut := fs.Bool("json", false, "Emit the validation report as JSON")
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}
	if *countsPath == "" {
		fatalf("counts is required")
	}

	cfg := validateConfig{CountsPath: *countsPath, MetaPath: *metaPath, JSONOut: *jsonOut}
	ok, err := validateMatrix(cfg)
	if err != nil {
		fatalf("validate failed: %v", err)
	}
	if !ok {
		os.Exit(1)
	}
}

func validateMatrix(cfg validateConfig) (bool, error) {
	counts, meta, err := loadInputs(cfg.CountsPath, cfg.MetaPath, false)
	if err != nil {
		return false, err
	}

	ok, problems := matrix.Validate(counts, meta)

	if cfg.JSONOut {
		report := struct {
			Valid    bool     `json:"valid"`
			NGenes   int      `json:"n_genes"`
			NSamples int      `json:"n_samples"`
			Problems []string `json:"problems"`
		}{ok, counts.NGenes(), counts.NSamples(), problems}
		if report.Problems == nil {
			report.Problems = []string{}
		}
		return ok, writeJSON("", report)
	}

	logf("Matrix: %d genes x %d samples", counts.NGenes(), counts.NSamples())
	if ok {
		fmt.Println("OK")
		return true, nil
	}
	for _, p := range problems {
		fmt.Println("PROBLEM: " + p)
	}
	return false, nil
}
