package mlearn

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/pgzip"
)

const (
	modelFormatVersion = 1
	modelFileName      = "model.json.gz"
	manifestFileName   = "manifest.json"
	checksumsFileName  = "SHA256SUMS.txt"
)

// modelFile is the on-disk model layout. Exactly one of Forest/Boosting is
// set, selected by ModelType.
type modelFile struct {
	FormatVersion int               `json:"format_version"`
	ModelType     string            `json:"model_type"`
	Seed          int64             `json:"seed"`
	Classes       []int             `json:"classes"`
	FeatureNames  []string          `json:"feature_names"`
	Forest        *randomForest     `json:"forest,omitempty"`
	Boosting      *gradientBoosting `json:"boosting,omitempty"`
	Report        *TrainingReport   `json:"report"`
}

type modelManifest struct {
	Name          string   `json:"name"`
	FormatVersion int      `json:"format_version"`
	ModelType     string   `json:"model_type"`
	CreatedUTC    string   `json:"created_utc"`
	Files         []string `json:"files"`
}

// SaveModel writes the trained model into dir as model.json.gz plus a
// manifest and a checksum file, so a model directory can be shipped and
// verified like any other release artifact.
func (r *Recommender) SaveModel(dir string) error {
	if r.clf == nil {
		return ErrNotTrained
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	mf := modelFile{
		FormatVersion: modelFormatVersion,
		ModelType:     r.modelType,
		Seed:          r.seed,
		Classes:       r.classes,
		FeatureNames:  featureNames,
		Report:        r.report,
	}
	switch clf := r.clf.(type) {
	case *randomForest:
		mf.Forest = clf
	case *gradientBoosting:
		mf.Boosting = clf
	default:
		return fmt.Errorf("unsupported classifier %q", r.clf.name())
	}

	modelPath := filepath.Join(dir, modelFileName)
	if err := writeModelGz(modelPath, &mf); err != nil {
		return err
	}

	manifest := modelManifest{
		Name:          "raptor-model",
		FormatVersion: modelFormatVersion,
		ModelType:     r.modelType,
		CreatedUTC:    time.Now().UTC().Format(time.RFC3339),
		Files:         []string{modelFileName},
	}
	manifestPath := filepath.Join(dir, manifestFileName)
	if err := writeJSONFile(manifestPath, manifest); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	if err := writeChecksums(dir); err != nil {
		return fmt.Errorf("checksums: %w", err)
	}
	return nil
}

// LoadModel restores a model saved by SaveModel. Loaded models reproduce the
// saved model's predictions exactly.
func LoadModel(dir string) (*Recommender, error) {
	modelPath := filepath.Join(dir, modelFileName)
	f, err := os.Open(modelPath)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer gz.Close()

	var mf modelFile
	if err := json.NewDecoder(gz).Decode(&mf); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", modelPath, err)
	}
	if mf.FormatVersion != modelFormatVersion {
		return nil, fmt.Errorf("model format version %d not supported (want %d)", mf.FormatVersion, modelFormatVersion)
	}
	if len(mf.FeatureNames) != len(featureNames) {
		return nil, fmt.Errorf("model was trained on %d features, this build expects %d", len(mf.FeatureNames), len(featureNames))
	}
	for i, name := range mf.FeatureNames {
		if name != featureNames[i] {
			return nil, fmt.Errorf("model feature %d is %q, this build expects %q", i, name, featureNames[i])
		}
	}

	r := &Recommender{
		modelType: mf.ModelType,
		seed:      mf.Seed,
		classes:   mf.Classes,
		report:    mf.Report,
	}
	switch {
	case mf.Forest != nil:
		r.clf = mf.Forest
	case mf.Boosting != nil:
		r.clf = mf.Boosting
	default:
		return nil, fmt.Errorf("model %s carries no classifier payload", modelPath)
	}
	return r, nil
}

func writeModelGz(path string, mf *modelFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	gz := pgzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(mf); err != nil {
		f.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := gz.Close(); err != nil {
		f.Close()
		return fmt.Errorf("flush model: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// writeChecksums hashes every regular file in dir (except the checksum file
// itself) into SHA256SUMS.txt, one "<hex>  <name>" line per file.
func writeChecksums(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read model dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() != checksumsFileName {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out, err := os.Create(filepath.Join(dir, checksumsFileName))
	if err != nil {
		return fmt.Errorf("create checksum file: %w", err)
	}
	for _, name := range names {
		sum, err := sha256File(filepath.Join(dir, name))
		if err != nil {
			out.Close()
			return err
		}
		if _, err := fmt.Fprintf(out, "%s  %s\n", sum, name); err != nil {
			out.Close()
			return fmt.Errorf("write checksum file: %w", err)
		}
	}
	return out.Close()
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
