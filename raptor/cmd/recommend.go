package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/AyehBlk/RAPTOR/raptor/matrix"
	"github.com/AyehBlk/RAPTOR/raptor/mlearn"
	"github.com/AyehBlk/RAPTOR/raptor/profile"
	"github.com/AyehBlk/RAPTOR/raptor/recommend"
)

type recommendConfig struct {
	CountsPath  string
	ProfilePath string
	MetaPath    string
	ConfigPath  string
	ModelDir    string
	Priority    recommend.Priority
	TopK        int
}

func runRecommend(args []string) {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	countsPath := fs.String("counts", "", "Count matrix CSV/TSV (optionally .gz)")
	profilePath := fs.String("profile", "", "Previously saved profile JSON (alternative to -counts)")
	metaPath := fs.String("metadata", "", "Optional sample metadata CSV/TSV")
	configPath := fs.String("config", "", "YAML file overriding profiling thresholds")
	modelDir := fs.String("model", "", "Trained model directory; empty selects the rule-based recommender")
	priorityFlag := fs.String("priority", "balanced", "Analysis priority: balanced, speed, accuracy or memory")
	topK := fs.Int("top", 3, "Number of ranked predictions (ML path)")
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}
	if (*countsPath == "") == (*profilePath == "") {
		fatalf("exactly one of counts or profile is required")
	}
	priority, err := recommend.ParsePriority(*priorityFlag)
	if err != nil {
		fatalf("%v", err)
	}

	cfg := recommendConfig{
		CountsPath:  *countsPath,
		ProfilePath: *profilePath,
		MetaPath:    *metaPath,
		ConfigPath:  *configPath,
		ModelDir:    *modelDir,
		Priority:    priority,
		TopK:        *topK,
	}
	if err := recommendPipeline(cfg); err != nil {
		fatalf("recommend failed: %v", err)
	}
}

func recommendPipeline(cfg recommendConfig) error {
	p, err := resolveProfile(cfg)
	if err != nil {
		return err
	}

	if cfg.ModelDir != "" {
		model, err := mlearn.LoadModel(cfg.ModelDir)
		if err != nil {
			return err
		}
		preds, err := model.Recommend(p, cfg.TopK)
		if err != nil {
			return err
		}
		return writeJSON("", preds)
	}

	rec, err := recommend.Recommend(p, cfg.Priority)
	if err != nil {
		return err
	}
	return writeJSON("", rec)
}

func resolveProfile(cfg recommendConfig) (*profile.Profile, error) {
	if cfg.ProfilePath != "" {
		f, err := os.Open(cfg.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("open profile: %w", err)
		}
		defer f.Close()

		// Accept both a bare profile and the `raptor profile` report wrapper.
		var report struct {
			Profile *profile.Profile `json:"profile"`
		}
		dec := json.NewDecoder(f)
		if err := dec.Decode(&report); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", cfg.ProfilePath, err)
		}
		if report.Profile != nil {
			return report.Profile, nil
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, fmt.Errorf("rewind profile: %w", err)
		}
		var p profile.Profile
		if err := json.NewDecoder(f).Decode(&p); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", cfg.ProfilePath, err)
		}
		return &p, nil
	}

	counts, meta, err := loadInputs(cfg.CountsPath, cfg.MetaPath, false)
	if err != nil {
		return nil, err
	}
	if err := matrix.ValidateStrict(counts, meta); err != nil {
		return nil, err
	}
	return profile.Run(counts, meta, loadThresholds(cfg.ConfigPath))
}
