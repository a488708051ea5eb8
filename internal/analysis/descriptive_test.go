package analysis

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeParameterAndStatistic(t *testing.T) {
	sample := []float64{5, 3, 1, 4, 2}

	t.Run("parameter", func(t *testing.T) {
		r, err := Analyze(sample, Population)
		require.NoError(t, err)

		assert.Equal(t, []float64{1, 2, 3, 4, 5}, r.Sorted)
		assert.Equal(t, 5, r.N)
		assert.Equal(t, 15.0, r.Sum)
		assert.Equal(t, 3.0, r.Mean)
		assert.Equal(t, 3.0, r.Median)
		assert.Empty(t, r.Mode)
		assert.Equal(t, 1.0, r.Min)
		assert.Equal(t, 5.0, r.Max)
		assert.Equal(t, 4.0, r.Range)
		assert.Equal(t, 1.5, r.Q1)
		assert.Equal(t, 4.5, r.Q3)
		assert.Equal(t, 3.0, r.IQR)
		assert.Empty(t, r.Outliers)
		assert.InDelta(t, 2.0, r.Variance, 1e-12)
		assert.InDelta(t, 1.414, r.StdDev, 1e-3)
		assert.InDelta(t, 0, r.Skewness, 1e-12)
	})

	t.Run("statistic", func(t *testing.T) {
		r, err := Analyze(sample, Sample)
		require.NoError(t, err)

		assert.Equal(t, Sample, r.Kind)
		assert.InDelta(t, 2.5, r.Variance, 1e-12)
		assert.InDelta(t, 1.581, r.StdDev, 1e-3)
	})
}

func TestAnalyzeDoesNotMutateInput(t *testing.T) {
	sample := []float64{3, 1, 2}
	_, err := Analyze(sample, Population)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, sample)
}

func TestAnalyzeSortsNumerically(t *testing.T) {
	r, err := Analyze([]float64{10, 9, 100, -2}, Population)
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, 9, 10, 100}, r.Sorted)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		sample []float64
		kind   Kind
		err    error
	}{
		{"empty sample", nil, Population, ErrInsufficientData},
		{"single value", []float64{1}, Sample, ErrInsufficientData},
		{"unknown kind", []float64{1, 2}, Kind(7), ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.sample, tt.kind)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAnalyzeTwoValuesLeavesSkewnessUndefined(t *testing.T) {
	r, err := Analyze([]float64{1, 2}, Sample)
	require.NoError(t, err)
	assert.False(t, r.HasSkewness())
	assert.Equal(t, 1.0, r.Q1)
	assert.Equal(t, 2.0, r.Q3)
}

func TestAnalyzeReportsRepeatedOutliers(t *testing.T) {
	r, err := Analyze([]float64{50, 1, 2, 3, 50, 4, 1, 2, 3, 4}, Population)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 50}, r.Outliers)
	assert.Equal(t, 3.0, r.Median)
}

func TestAnalyzeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		n := 2 + rng.Intn(40)
		sample := make([]float64, n)
		for j := range sample {
			// Rounded values force ties and repeated modes.
			sample[j] = math.Round(rng.NormFloat64()*10) / 2
		}

		r, err := Analyze(sample, Population)
		require.NoError(t, err)

		shuffled := append([]float64(nil), sample...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		again, err := Analyze(shuffled, Population)
		require.NoError(t, err)

		assert.Equal(t, r.Median, again.Median, "median depends on input order")
		assert.LessOrEqual(t, r.Q1, r.Median)
		assert.LessOrEqual(t, r.Median, r.Q3)

		for _, o := range r.Outliers {
			assert.Contains(t, r.Sorted, o)
		}

		repeat, err := Analyze(sample, Population)
		require.NoError(t, err)
		assert.Equal(t, r.Sorted, repeat.Sorted)
		assert.Equal(t, r.Outliers, repeat.Outliers)
		assert.Equal(t, r.Mode, repeat.Mode)
		assert.Equal(t, r.Variance, repeat.Variance)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("parameter")
	require.NoError(t, err)
	assert.Equal(t, Population, k)

	k, err = ParseKind(" Statistic ")
	require.NoError(t, err)
	assert.Equal(t, Sample, k)

	_, err = ParseKind("sample")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestResultJSON(t *testing.T) {
	r, err := Analyze([]float64{2, 1}, Population)
	require.NoError(t, err)

	raw, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "parameter", decoded["kind"])
	assert.Nil(t, decoded["skewness"])
	assert.Contains(t, decoded, "skewness")
	assert.Equal(t, 1.5, decoded["mean"])
}
