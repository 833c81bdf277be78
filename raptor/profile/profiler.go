package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/AyehBlk/RAPTOR/raptor/matrix"
)

// Run computes the full descriptor profile for a count matrix. It is a pure
// function: it never modifies the matrix, never touches global state, and is
// deterministic for identical inputs. On well-formed but degenerate input
// (single sample, single gene, all zeros) it degrades by leaving the affected
// fields nil and appending a quality flag; it only errors on an empty matrix.
func Run(counts *matrix.CountMatrix, meta *matrix.Metadata, th Thresholds) (*Profile, error) {
	if counts == nil || counts.NGenes() == 0 || counts.NSamples() == 0 {
		return nil, errors.New("cannot profile an empty count matrix")
	}

	p := &Profile{
		NGenes:       counts.NGenes(),
		NSamples:     counts.NSamples(),
		Outliers:     []string{},
		QualityFlags: []string{},
	}

	libraryStats(counts, th, p)
	expressionStats(counts, th, p)
	dispersionStats(counts, th, p)
	correlationStats(counts, p)
	complexityStats(counts, p)
	outlierStats(counts, th, p)
	qualityFlags(th, p)

	return p, nil
}

// libraryStats fills library-size descriptors and the zero-inflation
// fraction. The CV uses the sample standard deviation (ddof=1) and is nil
// for a single sample or an all-zero matrix.
func libraryStats(counts *matrix.CountMatrix, th Thresholds, p *Profile) {
	libs := counts.LibrarySizes()
	p.MeanLibrarySize = stat.Mean(libs, nil)
	p.MedianLibrarySize = median(libs)
	if len(libs) >= 2 && p.MeanLibrarySize > 0 {
		cv := stat.StdDev(libs, nil) / p.MeanLibrarySize
		p.LibrarySizeCV = ptr(cv)
	}
	p.DepthCategory = th.depthCategory(p.MeanLibrarySize)

	var zeros int
	for g := 0; g < counts.NGenes(); g++ {
		for _, v := range counts.GeneRow(g) {
			if v == 0 {
				zeros++
			}
		}
	}
	p.ZeroInflation = float64(zeros) / float64(counts.NGenes()*counts.NSamples())
}

func expressionStats(counts *matrix.CountMatrix, th Thresholds, p *Profile) {
	nGenes := counts.NGenes()
	nSamples := counts.NSamples()

	geneMeans := make([]float64, nGenes)
	var sumVar float64
	for g := 0; g < nGenes; g++ {
		row := counts.GeneRow(g)
		geneMeans[g] = stat.Mean(row, nil)
		if nSamples >= 2 {
			sumVar += stat.Variance(row, nil)
		}
	}

	p.MeanExpression = stat.Mean(geneMeans, nil)
	p.MedianExpression = median(geneMeans)
	if nSamples >= 2 {
		p.MeanVariance = ptr(sumVar / float64(nGenes))
	}

	var low, high int
	minPos, maxPos := math.Inf(1), math.Inf(-1)
	for _, m := range geneMeans {
		if m < th.LowExpression {
			low++
		}
		if m > th.HighExpression {
			high++
		}
		if m > 0 {
			if m < minPos {
				minPos = m
			}
			if m > maxPos {
				maxPos = m
			}
		}
	}
	p.LowExpressionGenes = low
	p.HighExpressionGenes = high
	p.PctLowExpression = float64(low) / float64(nGenes)
	p.PctHighExpression = float64(high) / float64(nGenes)
	if maxPos > 0 {
		p.ExpressionRangeLog10 = ptr(math.Log10(maxPos) - math.Log10(minPos))
	}
}

// dispersionStats estimates the biological coefficient of variation per gene
// as bcv² = (var − mean) / mean² over genes with positive mean, retaining
// only positive estimates. Non-positive estimates mean Poisson-or-under
// dispersion and carry no biological-variation signal. With no retained
// genes the BCV fields stay nil: a missing BCV is never "no variation".
func dispersionStats(counts *matrix.CountMatrix, th Thresholds, p *Profile) {
	if counts.NSamples() < 2 {
		return
	}

	var bcv2 []float64
	for g := 0; g < counts.NGenes(); g++ {
		row := counts.GeneRow(g)
		m := stat.Mean(row, nil)
		if m <= 0 {
			continue
		}
		v := stat.Variance(row, nil)
		est := (v - m) / (m * m)
		if est > 0 {
			bcv2 = append(bcv2, est)
		}
	}
	if len(bcv2) == 0 {
		return
	}

	p.BCV = ptr(math.Sqrt(median(bcv2)))
	p.MeanBCV = ptr(math.Sqrt(stat.Mean(bcv2, nil)))
	p.BCVCategory = th.bcvCategory(*p.BCV)
}

// correlationStats computes pairwise Pearson correlations between
// log2(count+1)-transformed samples over the strict upper triangle.
// Pairs involving a constant sample have undefined correlation and are
// dropped; if no pair survives the fields stay nil.
func correlationStats(counts *matrix.CountMatrix, p *Profile) {
	nSamples := counts.NSamples()
	if nSamples < 2 {
		return
	}

	cols := make([][]float64, nSamples)
	for s := 0; s < nSamples; s++ {
		col := counts.SampleColumn(s)
		for i, v := range col {
			col[i] = math.Log2(v + 1)
		}
		cols[s] = col
	}

	var corrs []float64
	for i := 0; i < nSamples; i++ {
		for j := i + 1; j < nSamples; j++ {
			r := stat.Correlation(cols[i], cols[j], nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			corrs = append(corrs, r)
		}
	}
	if len(corrs) == 0 {
		return
	}

	p.MeanSampleCorrelation = ptr(stat.Mean(corrs, nil))
	p.MedianSampleCorrelation = ptr(median(corrs))
	min := corrs[0]
	for _, r := range corrs[1:] {
		if r < min {
			min = r
		}
	}
	p.MinSampleCorrelation = ptr(min)
}

func complexityStats(counts *matrix.CountMatrix, p *Profile) {
	nGenes := counts.NGenes()
	nSamples := counts.NSamples()

	// Samples each gene is detected in, averaged over genes.
	var detectedSum int
	for g := 0; g < nGenes; g++ {
		for _, v := range counts.GeneRow(g) {
			if v > 0 {
				detectedSum++
			}
		}
	}
	p.MeanGenesDetected = float64(detectedSum) / float64(nGenes)

	// Genes detected per sample.
	perSample := make([]int, nSamples)
	for g := 0; g < nGenes; g++ {
		row := counts.GeneRow(g)
		for s, v := range row {
			if v > 0 {
				perSample[s]++
			}
		}
	}
	min := perSample[0]
	var sum int
	for _, n := range perSample {
		sum += n
		if n < min {
			min = n
		}
	}
	p.MeanGenesPerSample = float64(sum) / float64(nSamples)
	p.MinGenesPerSample = min

	// Share of each library taken by its 20 highest-count genes. Samples
	// with an empty library have no defined share and are skipped.
	var shares []float64
	for s := 0; s < nSamples; s++ {
		col := counts.SampleColumn(s)
		var total float64
		for _, v := range col {
			total += v
		}
		if total == 0 {
			continue
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(col)))
		top := col
		if len(top) > 20 {
			top = top[:20]
		}
		var topSum float64
		for _, v := range top {
			topSum += v
		}
		shares = append(shares, topSum/total)
	}
	if len(shares) > 0 {
		p.MeanTop20Share = stat.Mean(shares, nil)
	}
}

// outlierStats runs PCA over samples (observations) × genes (features) on
// log2(count+1) data and flags samples whose PC1 score sits more than
// OutlierZ population standard deviations from the mean. PCA needs at least
// three samples; below that the fields stay nil and profiling continues.
func outlierStats(counts *matrix.CountMatrix, th Thresholds, p *Profile) {
	nSamples := counts.NSamples()
	nGenes := counts.NGenes()
	if nSamples < 3 {
		return
	}

	obs := newDense(nSamples, nGenes)
	for s := 0; s < nSamples; s++ {
		col := counts.SampleColumn(s)
		for g, v := range col {
			obs.Set(s, g, math.Log2(v+1))
		}
	}

	vars, pc1 := principalComponents(obs)
	if vars == nil {
		return
	}

	var total float64
	for _, v := range vars {
		total += v
	}
	if total <= 0 {
		// Identical samples: no variance to explain, no outliers.
		return
	}
	p.PCAVarPC1 = ptr(vars[0] / total)
	if len(vars) > 1 {
		p.PCAVarPC2 = ptr(vars[1] / total)
	}

	mean := stat.Mean(pc1, nil)
	var ss float64
	for _, v := range pc1 {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(pc1)))
	if std == 0 {
		return
	}
	for s, v := range pc1 {
		if math.Abs((v-mean)/std) > th.OutlierZ {
			p.Outliers = append(p.Outliers, counts.Samples()[s])
		}
	}
}

func qualityFlags(th Thresholds, p *Profile) {
	if p.NSamples < th.MinSamples {
		p.QualityFlags = append(p.QualityFlags,
			fmt.Sprintf("only %d sample(s): too few samples for robust variance estimation", p.NSamples))
	}
	if p.ZeroInflation > th.ZeroInflationWarn {
		p.QualityFlags = append(p.QualityFlags,
			fmt.Sprintf("high zero inflation (%.0f%% of entries are zero): consider filtering lowly expressed genes", 100*p.ZeroInflation))
	}
	if p.LibrarySizeCV != nil && *p.LibrarySizeCV > th.LibraryCVWarn {
		p.QualityFlags = append(p.QualityFlags,
			fmt.Sprintf("uneven library sizes (CV=%.2f)", *p.LibrarySizeCV))
	}
	if len(p.Outliers) > 0 {
		p.QualityFlags = append(p.QualityFlags,
			fmt.Sprintf("%d potential outlier sample(s) detected: %s", len(p.Outliers), strings.Join(p.Outliers, ", ")))
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
