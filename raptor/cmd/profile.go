package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/AyehBlk/RAPTOR/raptor/matrix"
	"github.com/AyehBlk/RAPTOR/raptor/profile"
	"github.com/AyehBlk/RAPTOR/raptor/recommend"
)

type profileConfig struct {
	CountsPath string
	MetaPath   string
	OutPath    string
	Format     string
	ConfigPath string
	Priority   recommend.Priority
	Progress   bool
}

func runProfile(args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	countsPath := fs.String("counts", "", "Count matrix CSV/TSV (optionally .gz)")
	metaPath := fs.String("metadata", "", "Optional sample metadata CSV/TSV")
	outPath := fs.String("output", "", "Write the report to this file instead of stdout")
	format := fs.String("format", "json", "Output format: json or text")
	configPath := fs.String("config", "", "YAML file overriding profiling thresholds")
	priorityFlag := fs.String("priority", "balanced", "Analysis priority: balanced, speed, accuracy or memory")
	showProgress := fs.Bool("progress", true, "Show a progress bar while loading")
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}
	if *countsPath == "" {
		fatalf("counts is required")
	}
	if *format != "json" && *format != "text" {
		fatalf("format must be json or text")
	}
	priority, err := recommend.ParsePriority(*priorityFlag)
	if err != nil {
		fatalf("%v", err)
	}

	cfg := profileConfig{
		CountsPath: *countsPath,
		MetaPath:   *metaPath,
		OutPath:    *outPath,
		Format:     *format,
		ConfigPath: *configPath,
		Priority:   priority,
		Progress:   *showProgress,
	}
	if err := profileAndRecommend(cfg); err != nil {
		fatalf("profile failed: %v", err)
	}
}

func profileAndRecommend(cfg profileConfig) error {
	counts, meta, err := loadInputs(cfg.CountsPath, cfg.MetaPath, cfg.Progress)
	if err != nil {
		return err
	}
	if err := matrix.ValidateStrict(counts, meta); err != nil {
		return err
	}

	p, err := profile.Run(counts, meta, loadThresholds(cfg.ConfigPath))
	if err != nil {
		return err
	}
	rec, err := recommend.Recommend(p, cfg.Priority)
	if err != nil {
		return err
	}

	if cfg.Format == "text" {
		out := os.Stdout
		if cfg.OutPath != "" {
			f, err := os.Create(cfg.OutPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", cfg.OutPath, err)
			}
			defer f.Close()
			out = f
		}
		renderText(out, p, rec)
		return nil
	}

	report := struct {
		Profile        *profile.Profile          `json:"profile"`
		Recommendation *recommend.Recommendation `json:"recommendation"`
	}{p, rec}
	return writeJSON(cfg.OutPath, report)
}

func renderText(out *os.File, p *profile.Profile, rec *recommend.Recommendation) {
	fmt.Fprintf(out, "Dataset: %d genes x %d samples\n", p.NGenes, p.NSamples)
	fmt.Fprintf(out, "Mean library size: %.0f (%s depth)\n", p.MeanLibrarySize, p.DepthCategory)
	fmt.Fprintf(out, "Zero inflation: %.1f%%\n", 100*p.ZeroInflation)
	if p.LibrarySizeCV != nil {
		fmt.Fprintf(out, "Library size CV: %.3f\n", *p.LibrarySizeCV)
	}
	if p.BCV != nil {
		fmt.Fprintf(out, "BCV: %.3f (%s)\n", *p.BCV, p.BCVCategory)
	}
	if p.MinSampleCorrelation != nil {
		fmt.Fprintf(out, "Sample correlation: mean %.3f, min %.3f\n",
			*p.MeanSampleCorrelation, *p.MinSampleCorrelation)
	}
	if len(p.Outliers) > 0 {
		fmt.Fprintf(out, "Outlier samples: %s\n", strings.Join(p.Outliers, ", "))
	}
	for _, warn := range p.QualityFlags {
		fmt.Fprintf(out, "WARNING: %s\n", warn)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Recommended: %s (score %.0f, confidence %.2f)\n",
		rec.PipelineName, rec.Score, rec.Confidence)
	for _, reason := range rec.Reasons {
		fmt.Fprintf(out, "  - %s\n", reason)
	}
	for _, note := range rec.Notes {
		fmt.Fprintf(out, "  note: %s\n", note)
	}
	if len(rec.Alternatives) > 0 {
		fmt.Fprintln(out, "Alternatives:")
		for _, alt := range rec.Alternatives {
			fmt.Fprintf(out, "  %s (score %.0f)\n", alt.PipelineName, alt.Score)
		}
	}
}
