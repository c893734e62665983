// Package ranktest implements the Wilcoxon rank-sum (Mann-Whitney) two-sample
// test used to judge whether per-fold metric samples of a tested model differ
// significantly from the baseline's.
package ranktest

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Result holds the outcome of a rank-sum test.
type Result struct {
	// UStatistic is the Mann-Whitney U statistic of the first sample
	UStatistic float64
	// PValue is the two-sided p-value under the normal approximation
	PValue float64
}

// PValue is shorthand for Test(x, y).PValue.
func PValue(x, y []float64) float64 {
	return Test(x, y).PValue
}

// Test ranks the pooled samples and compares the rank sum of x against its
// expectation under the null hypothesis that x and y are drawn from the same
// distribution. Ties receive midranks and the variance is tie-corrected.
// Degenerate inputs (an empty sample, or all pooled values equal) yield a
// p-value of 1.
func Test(x, y []float64) Result {
	n1 := float64(len(x))
	n2 := float64(len(y))
	if n1 == 0 || n2 == 0 {
		return Result{PValue: 1}
	}

	type obs struct {
		value float64
		first bool
	}
	pooled := make([]obs, 0, len(x)+len(y))
	for _, v := range x {
		pooled = append(pooled, obs{v, true})
	}
	for _, v := range y {
		pooled = append(pooled, obs{v, false})
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].value < pooled[j].value })

	// midranks for ties; accumulate the tie correction term
	var rankSum float64
	var tieTerm float64
	for i := 0; i < len(pooled); {
		j := i
		for j < len(pooled) && pooled[j].value == pooled[i].value {
			j++
		}
		// ranks are 1-based; all of [i, j) share the average rank
		rank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if pooled[k].first {
				rankSum += rank
			}
		}
		ties := float64(j - i)
		tieTerm += ties*ties*ties - ties
		i = j
	}

	u := rankSum - n1*(n1+1)/2
	n := n1 + n2
	variance := n1 * n2 / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 {
		// all pooled values identical
		return Result{UStatistic: u, PValue: 1}
	}

	mean := n1 * n2 / 2
	// continuity correction toward the mean
	delta := u - mean
	switch {
	case delta > 0.5:
		delta -= 0.5
	case delta < -0.5:
		delta += 0.5
	default:
		delta = 0
	}

	z := delta / math.Sqrt(variance)
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * normal.CDF(-math.Abs(z))
	if p > 1 {
		p = 1
	}
	return Result{UStatistic: u, PValue: p}
}
