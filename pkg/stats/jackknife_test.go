package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqldeck/pkg/errors"
)

func TestJackknifeSumCIWorkedExample(t *testing.T) {
	// Replicates for [10,20,30,40] are [90,80,70,60] with mean 75;
	// variance = (3/4)*500 = 375.
	est, err := JackknifeSumCI(4, []float64{10, 20, 30, 40})
	require.NoError(t, err)

	assert.InDelta(t, 100, est.Total, 1e-12)
	assert.InDelta(t, math.Sqrt(375), est.StdErr, 1e-12)
	assert.InDelta(t, 62.06, est.Low, 0.05)
	assert.InDelta(t, 137.94, est.High, 0.05)
}

func TestJackknifeSumCIAllZero(t *testing.T) {
	for _, n := range []int{1, 2, 5, 100} {
		est, err := JackknifeSumCI(n, make([]float64, n))
		require.NoError(t, err)
		assert.Zero(t, est.Total)
		assert.Zero(t, est.StdErr)
		assert.Zero(t, est.Low)
		assert.Zero(t, est.High)
	}
}

func TestJackknifeSumCISingleBucket(t *testing.T) {
	est, err := JackknifeSumCI(1, []float64{42.5})
	require.NoError(t, err)

	assert.Equal(t, 42.5, est.Total)
	assert.Zero(t, est.StdErr)
	assert.Equal(t, est.Total, est.Low)
	assert.Equal(t, est.Total, est.High)
}

func TestJackknifeSumCIPaddingInvariance(t *testing.T) {
	short, err := JackknifeSumCI(5, []float64{2, 3})
	require.NoError(t, err)

	padded, err := JackknifeSumCI(5, []float64{2, 3, 0, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, padded.Total, short.Total, 1e-12)
	assert.InDelta(t, padded.StdErr, short.StdErr, 1e-12)
	assert.InDelta(t, padded.Low, short.Low, 1e-12)
	assert.InDelta(t, padded.High, short.High, 1e-12)
}

func TestJackknifeSumCIMonotonicity(t *testing.T) {
	base := []float64{5, 7, 11, 13}
	baseEst, err := JackknifeSumCI(4, base)
	require.NoError(t, err)

	for i := range base {
		bumped := append([]float64(nil), base...)
		bumped[i] += 3
		est, err := JackknifeSumCI(4, bumped)
		require.NoError(t, err)
		assert.Greater(t, est.Total, baseEst.Total)
	}
}

func TestJackknifeSumCIPermutationInvariance(t *testing.T) {
	counts := []float64{4, 8, 15, 16, 23, 42}
	want, err := JackknifeSumCI(6, counts)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]float64(nil), counts...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, err := JackknifeSumCI(6, shuffled)
		require.NoError(t, err)
		assert.InDelta(t, want.Total, got.Total, 1e-9)
		assert.InDelta(t, want.Low, got.Low, 1e-9)
		assert.InDelta(t, want.High, got.High, 1e-9)
	}
}

func TestJackknifeSumCIIntervalSanity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		n := 1 + rng.Intn(40)
		observed := rng.Intn(n + 1)
		counts := make([]float64, observed)
		for j := range counts {
			counts[j] = float64(rng.Intn(1000))
		}

		est, err := JackknifeSumCI(n, counts)
		require.NoError(t, err)
		assert.LessOrEqual(t, est.Low, est.Total)
		assert.GreaterOrEqual(t, est.High, est.Total)
		assert.GreaterOrEqual(t, est.StdErr, 0.0)
	}
}

func TestJackknifeSumCIInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		expected int
		counts   []float64
	}{
		{"zero expected buckets", 0, []float64{1}},
		{"negative expected buckets", -3, nil},
		{"more observed than expected", 2, []float64{1, 2, 3}},
		{"NaN count", 3, []float64{1, math.NaN()}},
		{"infinite count", 3, []float64{math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JackknifeSumCI(tt.expected, tt.counts)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetErrorCode(err))
		})
	}
}

func TestJackknifeSumCIAtLevels(t *testing.T) {
	counts := []float64{10, 20, 30, 40}

	narrow, err := JackknifeSumCIAt(80, 4, counts)
	require.NoError(t, err)
	wide, err := JackknifeSumCIAt(99, 4, counts)
	require.NoError(t, err)

	assert.Equal(t, narrow.Total, wide.Total)
	assert.Greater(t, narrow.Low, wide.Low)
	assert.Less(t, narrow.High, wide.High)

	_, err = JackknifeSumCIAt(42, 4, counts)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetErrorCode(err))
}

func TestJackknifeSumCIMatchesDefaultLevel(t *testing.T) {
	counts := []float64{3, 1, 4, 1, 5}

	def, err := JackknifeSumCI(5, counts)
	require.NoError(t, err)
	at95, err := JackknifeSumCIAt(95, 5, counts)
	require.NoError(t, err)

	assert.Equal(t, def, at95)
}
