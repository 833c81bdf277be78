package mlearn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/AyehBlk/RAPTOR/raptor/profile"
	"github.com/AyehBlk/RAPTOR/raptor/recommend"
)

var (
	// ErrNotTrained is returned by Recommend on a model that has neither
	// been trained nor loaded.
	ErrNotTrained = errors.New("model is not trained")

	// ErrInsufficientData is returned by TrainFromBenchmarks when the corpus
	// cannot support a meaningful fit.
	ErrInsufficientData = errors.New("insufficient training data")
)

const (
	ModelRandomForest     = "random-forest"
	ModelGradientBoosting = "gradient-boosting"

	minRecords       = 20
	minLabels        = 2
	minPerLabel      = 2
	testFraction     = 0.2
	cvFolds          = 5
	reportedFeatures = 5
	reasonedFeatures = 3
)

// Recommender wraps a trained classifier together with the label mapping and
// training report needed to serve and explain predictions.
type Recommender struct {
	modelType string
	seed      int64
	classes   []int // pipeline ids in class-index order
	clf       classifier
	report    *TrainingReport
}

// FeatureWeight is one entry of the global feature-importance ranking.
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// TrainingReport summarizes one training run: hold-out metrics,
// cross-validation stability, and the confusion structure over the labels
// actually present in the corpus.
type TrainingReport struct {
	ModelType      string          `json:"model_type"`
	Metric         string          `json:"metric"`
	Seed           int64           `json:"seed"`
	NRecords       int             `json:"n_records"`
	NTrain         int             `json:"n_train"`
	NTest          int             `json:"n_test"`
	Accuracy       float64         `json:"accuracy"`
	MacroF1        float64         `json:"macro_f1"`
	CVAccuracyMean float64         `json:"cv_accuracy_mean"`
	CVAccuracyStd  float64         `json:"cv_accuracy_std"`
	Labels         []int           `json:"labels"`
	Confusion      [][]int         `json:"confusion"`
	TopFeatures    []FeatureWeight `json:"top_features"`
}

// New builds an untrained recommender for one of the supported model types.
func New(modelType string, seed int64) (*Recommender, error) {
	switch modelType {
	case ModelRandomForest, ModelGradientBoosting:
	default:
		return nil, fmt.Errorf("unknown model type %q (want %s or %s)",
			modelType, ModelRandomForest, ModelGradientBoosting)
	}
	return &Recommender{modelType: modelType, seed: seed}, nil
}

func (r *Recommender) Trained() bool           { return r.clf != nil }
func (r *Recommender) Report() *TrainingReport { return r.report }

func newClassifier(modelType string, nClasses int) classifier {
	if modelType == ModelGradientBoosting {
		return newGradientBoosting(nClasses)
	}
	return newRandomForest(nClasses)
}

// TrainFromBenchmarks labels every record with its best pipeline under the
// chosen metric, holds out a stratified test split, cross-validates on the
// remainder, then fits the final model on the training half. progress may be
// nil; otherwise it is called after each completed training stage.
func (r *Recommender) TrainFromBenchmarks(records []BenchmarkRecord, metric string, progress func(done, total int)) (*TrainingReport, error) {
	if len(records) < minRecords {
		return nil, fmt.Errorf("%w: %d records, need at least %d", ErrInsufficientData, len(records), minRecords)
	}

	X := make([][]float64, len(records))
	labels := make([]int, len(records))
	labelCount := map[int]int{}
	for i := range records {
		X[i] = Vectorize(&records[i].Profile)
		best, err := records[i].BestPipeline(metric)
		if err != nil {
			return nil, err
		}
		labels[i] = best
		labelCount[best]++
	}
	if len(labelCount) < minLabels {
		return nil, fmt.Errorf("%w: every record prefers pipeline %d; need at least %d distinct labels",
			ErrInsufficientData, labels[0], minLabels)
	}
	for id, n := range labelCount {
		if n < minPerLabel {
			return nil, fmt.Errorf("%w: pipeline %d appears only %d time(s), need at least %d per label",
				ErrInsufficientData, id, n, minPerLabel)
		}
	}

	classes := make([]int, 0, len(labelCount))
	for id := range labelCount {
		classes = append(classes, id)
	}
	sort.Ints(classes)
	classIdx := map[int]int{}
	for i, id := range classes {
		classIdx[id] = i
	}
	y := make([]int, len(labels))
	for i, id := range labels {
		y[i] = classIdx[id]
	}

	rng := rand.New(rand.NewSource(r.seed))
	trainIdx, testIdx := stratifiedSplit(y, testFraction, rng)

	trainX, trainY := subset(X, y, trainIdx)
	testX, testY := subset(X, y, testIdx)

	total := cvFolds + 1
	done := 0
	tick := func() {
		done++
		if progress != nil {
			progress(done, total)
		}
	}

	// Cross-validate on the training half only; the test half stays unseen.
	folds := kFolds(len(trainX), cvFolds, rng)
	var cvAccs []float64
	for f := range folds {
		var hx [][]float64
		var hy []int
		var fx [][]float64
		var fy []int
		hold := map[int]bool{}
		for _, i := range folds[f] {
			hold[i] = true
		}
		for i := range trainX {
			if hold[i] {
				hx = append(hx, trainX[i])
				hy = append(hy, trainY[i])
			} else {
				fx = append(fx, trainX[i])
				fy = append(fy, trainY[i])
			}
		}
		acc := 0.0
		if len(fx) > 0 && len(hx) > 0 {
			clf := newClassifier(r.modelType, len(classes))
			if err := clf.fit(fx, fy, rand.New(rand.NewSource(rng.Int63()))); err != nil {
				return nil, fmt.Errorf("cross-validation fold %d: %w", f+1, err)
			}
			pred := predictAll(clf, hx)
			acc = accuracyOf(hy, pred)
		}
		cvAccs = append(cvAccs, acc)
		tick()
	}

	clf := newClassifier(r.modelType, len(classes))
	if err := clf.fit(trainX, trainY, rand.New(rand.NewSource(rng.Int63()))); err != nil {
		return nil, fmt.Errorf("fit %s: %w", r.modelType, err)
	}
	tick()

	testPred := predictAll(clf, testX)

	report := &TrainingReport{
		ModelType:      r.modelType,
		Metric:         metric,
		Seed:           r.seed,
		NRecords:       len(records),
		NTrain:         len(trainX),
		NTest:          len(testX),
		Accuracy:       accuracyOf(testY, testPred),
		MacroF1:        macroF1(testY, testPred, len(classes)),
		CVAccuracyMean: meanOf(cvAccs),
		CVAccuracyStd:  popStdOf(cvAccs),
		Labels:         classes,
		Confusion:      confusion(testY, testPred, len(classes)),
		TopFeatures:    topFeatures(clf.featureImportances(), reportedFeatures),
	}

	r.classes = classes
	r.clf = clf
	r.report = report
	return report, nil
}

// Prediction is one ranked entry of an ML recommendation.
type Prediction struct {
	PipelineID   int      `json:"pipeline_id"`
	PipelineName string   `json:"pipeline_name"`
	Probability  float64  `json:"probability"`
	Reasons      []string `json:"reasons,omitempty"`
}

// Recommend ranks the trained labels by predicted probability for the given
// profile, ties broken toward the lower pipeline id. The top prediction
// carries reasons rendered from the globally most important features.
func (r *Recommender) Recommend(p *profile.Profile, topK int) ([]Prediction, error) {
	if r.clf == nil {
		return nil, ErrNotTrained
	}
	if p == nil {
		return nil, fmt.Errorf("nil profile")
	}
	if topK <= 0 {
		topK = 3
	}

	x := Vectorize(p)
	probs := r.clf.predictProba(x)

	preds := make([]Prediction, len(r.classes))
	for i, id := range r.classes {
		name := fmt.Sprintf("pipeline-%d", id)
		if pl, err := recommend.Get(id); err == nil {
			name = pl.Name
		}
		preds[i] = Prediction{PipelineID: id, PipelineName: name, Probability: probs[i]}
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Probability != preds[j].Probability {
			return preds[i].Probability > preds[j].Probability
		}
		return preds[i].PipelineID < preds[j].PipelineID
	})
	if topK < len(preds) {
		preds = preds[:topK]
	}
	preds[0].Reasons = r.reasons(x)
	return preds, nil
}

// reasons renders the model's most important features against the actual
// vector values. This is a global explanation, not a per-prediction
// attribution.
func (r *Recommender) reasons(x []float64) []string {
	top := topFeatures(r.clf.featureImportances(), reasonedFeatures)
	out := make([]string, 0, len(top))
	for _, fw := range top {
		for i, name := range featureNames {
			if name == fw.Name {
				out = append(out, fmt.Sprintf("%s=%.3g (importance %.2f)", name, x[i], fw.Weight))
				break
			}
		}
	}
	return out
}

func topFeatures(importances []float64, k int) []FeatureWeight {
	ranked := make([]FeatureWeight, 0, len(importances))
	for i, w := range importances {
		ranked = append(ranked, FeatureWeight{Name: featureNames[i], Weight: w})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Name < ranked[j].Name
	})
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

func predictAll(clf classifier, X [][]float64) []int {
	pred := make([]int, len(X))
	for i, x := range X {
		probs := clf.predictProba(x)
		best := 0
		for c, p := range probs {
			if p > probs[best] {
				best = c
			}
		}
		pred[i] = best
	}
	return pred
}

func subset(X [][]float64, y, idx []int) ([][]float64, []int) {
	sx := make([][]float64, len(idx))
	sy := make([]int, len(idx))
	for i, j := range idx {
		sx[i] = X[j]
		sy[i] = y[j]
	}
	return sx, sy
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func popStdOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := meanOf(v)
	var ss float64
	for _, x := range v {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(v)))
}
