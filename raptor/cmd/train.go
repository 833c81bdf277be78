package cmd

import (
	"flag"

	"github.com/AyehBlk/RAPTOR/raptor/mlearn"
)

type trainConfig struct {
	CorpusPath string
	OutDir     string
	ModelType  string
	Metric     string
	Seed       int64
	Progress   bool
}

func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	corpusPath := fs.String("corpus", "", "Benchmark corpus JSON (optionally .gz)")
	outDir := fs.String("output", "raptor-model", "Directory for the trained model")
	modelType := fs.String("model", mlearn.ModelRandomForest, "Model type: random-forest or gradient-boosting")
	metric := fs.String("metric", "f1", "Benchmark metric that defines the best pipeline: f1 or accuracy")
	seed := fs.Int64("seed", 42, "Random seed for splitting and training")
	showProgress := fs.Bool("progress", true, "Show training progress")
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}
	if *corpusPath == "" {
		fatalf("corpus is required")
	}

	cfg := trainConfig{
		CorpusPath: *corpusPath,
		OutDir:     *outDir,
		ModelType:  *modelType,
		Metric:     *metric,
		Seed:       *seed,
		Progress:   *showProgress,
	}
	if err := trainModel(cfg); err != nil {
		fatalf("train failed: %v", err)
	}
}

func trainModel(cfg trainConfig) error {
	records, err := mlearn.LoadCorpus(cfg.CorpusPath)
	if err != nil {
		return err
	}
	logf("Corpus: %d benchmark records", len(records))

	model, err := mlearn.New(cfg.ModelType, cfg.Seed)
	if err != nil {
		return err
	}

	var bar *progress
	report, err := model.TrainFromBenchmarks(records, cfg.Metric, func(done, total int) {
		if bar == nil {
			bar = newProgress(total, cfg.Progress)
		}
		bar.set(done)
	})
	if bar != nil {
		bar.finish()
	}
	if err != nil {
		return err
	}

	logf("Test accuracy %.3f, macro F1 %.3f (CV accuracy %.3f +/- %.3f)",
		report.Accuracy, report.MacroF1, report.CVAccuracyMean, report.CVAccuracyStd)

	if err := model.SaveModel(cfg.OutDir); err != nil {
		return err
	}
	logf("Model -> %s", cfg.OutDir)

	return writeJSON("", report)
}
