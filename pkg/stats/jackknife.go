// Package stats implements the resampling math behind the catalog's
// statistical routines, so test expectations and deployed warehouse
// results can be checked against a native implementation.
package stats

import (
	"math"

	"sqldeck/pkg/errors"
)

// zScores maps a confidence level in percent to the two-sided critical
// value of the standard normal distribution.
var zScores = map[int]float64{
	80: 1.2815515655446004,
	90: 1.6448536269514722,
	95: 1.959963984540054,
	98: 2.3263478740408408,
	99: 2.5758293035489004,
}

// DefaultConfidenceLevel is the confidence level used by JackknifeSumCI.
const DefaultConfidenceLevel = 95

// SumEstimate holds a point estimate of a total together with the
// jackknife confidence interval around it.
type SumEstimate struct {
	Total  float64
	Low    float64
	High   float64
	StdErr float64
}

// JackknifeSumCI estimates a total and its 95% confidence interval from
// per-bucket sums using delete-1 jackknife resampling over buckets.
//
// expectedBuckets is the number of buckets that should exist in the
// bucketing domain. counts holds one summed value per observed bucket;
// buckets that produced no rows are absent from counts and are treated
// as exactly-zero buckets, so len(counts) may be less than
// expectedBuckets but never greater. Counts are expected to be
// non-negative; negative values are not validated.
func JackknifeSumCI(expectedBuckets int, counts []float64) (SumEstimate, error) {
	return JackknifeSumCIAt(DefaultConfidenceLevel, expectedBuckets, counts)
}

// JackknifeSumCIAt is JackknifeSumCI at a caller-chosen confidence
// level in percent (one of 80, 90, 95, 98, 99).
func JackknifeSumCIAt(level, expectedBuckets int, counts []float64) (SumEstimate, error) {
	z, ok := zScores[level]
	if !ok {
		return SumEstimate{}, errors.InvalidInputError("confidence_level", level,
			"must be one of 80, 90, 95, 98, 99")
	}
	if expectedBuckets < 1 {
		return SumEstimate{}, errors.InvalidInputError("expected_bucket_count", expectedBuckets,
			"must be at least 1")
	}
	if expectedBuckets < len(counts) {
		return SumEstimate{}, errors.InvalidInputError("expected_bucket_count", expectedBuckets,
			"fewer than the number of observed buckets").
			WithContext("observed_buckets", len(counts))
	}
	for _, c := range counts {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return SumEstimate{}, errors.InvalidInputError("bucket_counts", c,
				"must be finite")
		}
	}

	n := expectedBuckets

	var total float64
	for _, c := range counts {
		total += c
	}

	// The leave-one-out replicate for a sum is total - counts[i], with
	// missing buckets contributing a replicate equal to total. Their sum
	// is (n-1)*total, so the replicate mean needs no second pass.
	meanLoo := total * float64(n-1) / float64(n)

	var ss float64
	for _, c := range counts {
		d := (total - c) - meanLoo
		ss += d * d
	}
	if pad := n - len(counts); pad > 0 {
		d := total - meanLoo
		ss += d * d * float64(pad)
	}

	// With a single bucket the (n-1) factor zeroes the variance, which
	// collapses the interval to the point estimate.
	variance := float64(n-1) / float64(n) * ss
	se := math.Sqrt(variance)

	return SumEstimate{
		Total:  total,
		Low:    total - z*se,
		High:   total + z*se,
		StdErr: se,
	}, nil
}
