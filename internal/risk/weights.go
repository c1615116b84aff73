package risk

// Weights is the JSON export of a trained tabular transformer. Matrices are
// stored row-major as [out][in], matching the layout of the training framework.
type Weights struct {
	Version           string          `json:"version"`
	Categories        []int           `json:"categories"`
	NumSpecialTokens  int             `json:"num_special_tokens"`
	NumContinuous     int             `json:"num_continuous"`
	Dim               int             `json:"dim"`
	Heads             int             `json:"heads"`
	DimHead           int             `json:"dim_head"`
	CategoryEmbedding [][]float64     `json:"category_embedding"`
	Layers            []LayerWeights  `json:"layers"`
	ContinuousMean    []float64       `json:"continuous_mean,omitempty"`
	ContinuousStd     []float64       `json:"continuous_std,omitempty"`
	ContinuousNorm    NormWeights     `json:"continuous_norm"`
	MLP               []LinearWeights `json:"mlp"`
}

// LinearWeights is a dense layer. Bias may be omitted for bias-free projections.
type LinearWeights struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias,omitempty"`
}

// NormWeights is a layer-norm affine transform.
type NormWeights struct {
	Weight []float64 `json:"weight"`
	Bias   []float64 `json:"bias"`
}

// LayerWeights is one transformer block: pre-norm attention followed by a
// pre-norm gated feed-forward.
type LayerWeights struct {
	AttnNorm NormWeights   `json:"attn_norm"`
	QKV      LinearWeights `json:"to_qkv"`
	Out      LinearWeights `json:"to_out"`
	FFNorm   NormWeights   `json:"ff_norm"`
	FFIn     LinearWeights `json:"ff_in"`
	FFOut    LinearWeights `json:"ff_out"`
}
