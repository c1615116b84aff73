package risk

import "math/rand"

const (
	testDim     = 4
	testHeads   = 2
	testDimHead = 2
	testHidden  = 8
)

// testWeights builds a one-layer model over a single three-valued category and
// five continuous features. fill supplies every parameter except the output bias.
func testWeights(fill func() float64, outputBias float64) Weights {
	matrix := func(rows, cols int) [][]float64 {
		m := make([][]float64, rows)
		for i := range m {
			m[i] = make([]float64, cols)
			for j := range m[i] {
				m[i][j] = fill()
			}
		}
		return m
	}
	vector := func(n int) []float64 {
		v := make([]float64, n)
		for i := range v {
			v[i] = fill()
		}
		return v
	}
	inner := testHeads * testDimHead
	return Weights{
		Version:           "test",
		Categories:        []int{3},
		NumSpecialTokens:  2,
		NumContinuous:     5,
		Dim:               testDim,
		Heads:             testHeads,
		DimHead:           testDimHead,
		CategoryEmbedding: matrix(5, testDim),
		Layers: []LayerWeights{{
			AttnNorm: NormWeights{Weight: vector(testDim), Bias: vector(testDim)},
			QKV:      LinearWeights{Weight: matrix(3*inner, testDim)},
			Out:      LinearWeights{Weight: matrix(testDim, inner), Bias: vector(testDim)},
			FFNorm:   NormWeights{Weight: vector(testDim), Bias: vector(testDim)},
			FFIn:     LinearWeights{Weight: matrix(2*testHidden, testDim), Bias: vector(2 * testHidden)},
			FFOut:    LinearWeights{Weight: matrix(testDim, testHidden), Bias: vector(testDim)},
		}},
		ContinuousNorm: NormWeights{Weight: vector(5), Bias: vector(5)},
		MLP: []LinearWeights{
			{Weight: matrix(6, testDim+5), Bias: vector(6)},
			{Weight: matrix(1, 6), Bias: []float64{outputBias}},
		},
	}
}

func zeroWeights(outputBias float64) Weights {
	return testWeights(func() float64 { return 0 }, outputBias)
}

func randomWeights(seed int64) Weights {
	rng := rand.New(rand.NewSource(seed))
	return testWeights(func() float64 { return rng.NormFloat64() * 0.5 }, 0)
}

func sampleProfile() ApplicantProfile {
	return ApplicantProfile{
		HomeOwnership: HomeMortgage,
		LoanAmount:    250000,
		CreditScore:   720,
		AnnualIncome:  85000,
		MonthlyDebt:   1200,
		YearsInJob:    6,
	}
}
