package risk

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const layerNormEps = 1e-5

// ModelContext holds validated, read-only model parameters. It is safe for
// concurrent use once constructed.
type ModelContext struct {
	version     string
	fingerprint string

	categories []int
	offsets    []int
	numCont    int
	dim        int
	heads      int
	dimHead    int

	embedding *mat.Dense
	blocks    []block
	contMean  []float64
	contStd   []float64
	contNorm  layerNorm
	mlp       []linear
}

// LoadModelContext reads a weights export from disk.
func LoadModelContext(path string) (*ModelContext, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read weights: %w", ErrModelUnavailable, err)
	}
	var w Weights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: decode weights: %w", ErrModelUnavailable, err)
	}
	return NewModelContext(w)
}

// NewModelContext validates the weight shapes and builds the inference matrices.
func NewModelContext(w Weights) (*ModelContext, error) {
	if len(w.Categories) == 0 || w.NumContinuous <= 0 || w.Dim <= 0 || w.Heads <= 0 || w.DimHead <= 0 {
		return nil, fmt.Errorf("%w: categories, num_continuous, dim, heads and dim_head must be positive", ErrModelUnavailable)
	}
	if w.NumSpecialTokens < 0 {
		return nil, fmt.Errorf("%w: num_special_tokens must not be negative", ErrModelUnavailable)
	}
	if len(w.Layers) == 0 {
		return nil, fmt.Errorf("%w: at least one transformer layer is required", ErrModelUnavailable)
	}
	if len(w.MLP) == 0 {
		return nil, fmt.Errorf("%w: mlp head is empty", ErrModelUnavailable)
	}

	m := &ModelContext{
		version:    w.Version,
		categories: append([]int(nil), w.Categories...),
		numCont:    w.NumContinuous,
		dim:        w.Dim,
		heads:      w.Heads,
		dimHead:    w.DimHead,
	}

	totalTokens := w.NumSpecialTokens
	m.offsets = make([]int, len(w.Categories))
	for i, n := range w.Categories {
		if n <= 0 {
			return nil, fmt.Errorf("%w: category %d has no values", ErrModelUnavailable, i)
		}
		m.offsets[i] = totalTokens
		totalTokens += n
	}

	var err error
	if m.embedding, err = denseFrom("category_embedding", w.CategoryEmbedding, totalTokens, w.Dim); err != nil {
		return nil, err
	}

	inner := w.Heads * w.DimHead
	for i, lw := range w.Layers {
		b, err := newBlock(i, lw, w.Dim, inner, w.Heads, w.DimHead)
		if err != nil {
			return nil, err
		}
		m.blocks = append(m.blocks, b)
	}

	if len(w.ContinuousMean) > 0 || len(w.ContinuousStd) > 0 {
		if len(w.ContinuousMean) != w.NumContinuous || len(w.ContinuousStd) != w.NumContinuous {
			return nil, fmt.Errorf("%w: continuous_mean and continuous_std must both have %d entries", ErrModelUnavailable, w.NumContinuous)
		}
		for i, s := range w.ContinuousStd {
			if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
				return nil, fmt.Errorf("%w: continuous_std[%d] must be positive", ErrModelUnavailable, i)
			}
		}
		m.contMean = append([]float64(nil), w.ContinuousMean...)
		m.contStd = append([]float64(nil), w.ContinuousStd...)
	}
	if m.contNorm, err = newLayerNorm("continuous_norm", w.ContinuousNorm, w.NumContinuous); err != nil {
		return nil, err
	}

	in := len(w.Categories)*w.Dim + w.NumContinuous
	for i, lw := range w.MLP {
		out := len(lw.Weight)
		if i == len(w.MLP)-1 && out != 1 {
			return nil, fmt.Errorf("%w: mlp output layer must produce a single logit, got %d", ErrModelUnavailable, out)
		}
		l, err := newLinear(fmt.Sprintf("mlp[%d]", i), lw, in, out)
		if err != nil {
			return nil, err
		}
		m.mlp = append(m.mlp, l)
		in = out
	}

	canonical, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("%w: fingerprint weights: %w", ErrModelUnavailable, err)
	}
	sum := sha256.Sum256(canonical)
	m.fingerprint = hex.EncodeToString(sum[:])
	return m, nil
}

// Version is the free-form version label from the export.
func (m *ModelContext) Version() string { return m.version }

// Fingerprint is a content hash of the weights.
func (m *ModelContext) Fingerprint() string { return m.fingerprint }

// Logit runs one forward pass and returns the raw output before the sigmoid.
func (m *ModelContext) Logit(categ []int, cont []float64) (float64, error) {
	if len(categ) != len(m.categories) {
		return 0, fmt.Errorf("%w: expected %d categorical features, got %d", ErrInvalidInput, len(m.categories), len(categ))
	}
	if len(cont) != m.numCont {
		return 0, fmt.Errorf("%w: expected %d continuous features, got %d", ErrInvalidInput, m.numCont, len(cont))
	}

	tokens := make([][]float64, len(categ))
	for i, c := range categ {
		if c < 0 || c >= m.categories[i] {
			return 0, fmt.Errorf("%w: categorical feature %d out of range", ErrInvalidInput, i)
		}
		tokens[i] = mat.Row(nil, m.offsets[i]+c, m.embedding)
	}
	for _, b := range m.blocks {
		tokens = b.forward(tokens)
	}

	x := make([]float64, 0, len(tokens)*m.dim+m.numCont)
	for _, t := range tokens {
		x = append(x, t...)
	}

	normCont := make([]float64, m.numCont)
	copy(normCont, cont)
	if m.contMean != nil {
		for i := range normCont {
			normCont[i] = (normCont[i] - m.contMean[i]) / m.contStd[i]
		}
	}
	x = append(x, m.contNorm.apply(normCont)...)

	for i, l := range m.mlp {
		x = l.apply(x)
		if i < len(m.mlp)-1 {
			relu(x)
		}
	}
	logit := x[0]
	if math.IsNaN(logit) || math.IsInf(logit, 0) {
		return 0, fmt.Errorf("%w: inference produced a non-finite logit", ErrInvalidInput)
	}
	return logit, nil
}

// Probability returns sigmoid(Logit).
func (m *ModelContext) Probability(categ []int, cont []float64) (float64, error) {
	logit, err := m.Logit(categ, cont)
	if err != nil {
		return 0, err
	}
	return sigmoid(logit), nil
}

type block struct {
	heads    int
	dimHead  int
	attnNorm layerNorm
	qkv      linear
	out      linear
	ffNorm   layerNorm
	ffIn     linear
	ffOut    linear
}

func newBlock(idx int, lw LayerWeights, dim, inner, heads, dimHead int) (block, error) {
	name := func(part string) string { return fmt.Sprintf("layers[%d].%s", idx, part) }
	b := block{heads: heads, dimHead: dimHead}
	var err error
	if b.attnNorm, err = newLayerNorm(name("attn_norm"), lw.AttnNorm, dim); err != nil {
		return block{}, err
	}
	if b.qkv, err = newLinear(name("to_qkv"), lw.QKV, dim, 3*inner); err != nil {
		return block{}, err
	}
	if b.out, err = newLinear(name("to_out"), lw.Out, inner, dim); err != nil {
		return block{}, err
	}
	if b.ffNorm, err = newLayerNorm(name("ff_norm"), lw.FFNorm, dim); err != nil {
		return block{}, err
	}
	gated := len(lw.FFIn.Weight)
	if gated == 0 || gated%2 != 0 {
		return block{}, fmt.Errorf("%w: %s must have an even, non-zero output size", ErrModelUnavailable, name("ff_in"))
	}
	if b.ffIn, err = newLinear(name("ff_in"), lw.FFIn, dim, gated); err != nil {
		return block{}, err
	}
	if b.ffOut, err = newLinear(name("ff_out"), lw.FFOut, gated/2, dim); err != nil {
		return block{}, err
	}
	return b, nil
}

func (b block) forward(x [][]float64) [][]float64 {
	n := len(x)
	inner := b.heads * b.dimHead

	qkv := make([][]float64, n)
	for i := range x {
		qkv[i] = b.qkv.apply(b.attnNorm.apply(x[i]))
	}

	scale := 1 / math.Sqrt(float64(b.dimHead))
	scores := make([]float64, n)
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		concat := make([]float64, inner)
		for h := 0; h < b.heads; h++ {
			lo, hi := h*b.dimHead, (h+1)*b.dimHead
			q := qkv[i][lo:hi]
			for j := 0; j < n; j++ {
				scores[j] = floats.Dot(q, qkv[j][inner+lo:inner+hi]) * scale
			}
			softmax(scores)
			dst := concat[lo:hi]
			for j := 0; j < n; j++ {
				floats.AddScaled(dst, scores[j], qkv[j][2*inner+lo:2*inner+hi])
			}
		}
		proj := b.out.apply(concat)
		floats.Add(proj, x[i])
		out[i] = proj
	}

	for i := range out {
		h := b.ffIn.apply(b.ffNorm.apply(out[i]))
		half := len(h) / 2
		gatedOut := make([]float64, half)
		for k := 0; k < half; k++ {
			gatedOut[k] = h[k] * gelu(h[half+k])
		}
		ff := b.ffOut.apply(gatedOut)
		floats.Add(out[i], ff)
	}
	return out
}

type linear struct {
	w *mat.Dense
	b []float64
}

func newLinear(name string, lw LinearWeights, in, out int) (linear, error) {
	w, err := denseFrom(name+".weight", lw.Weight, out, in)
	if err != nil {
		return linear{}, err
	}
	l := linear{w: w}
	if len(lw.Bias) > 0 {
		if len(lw.Bias) != out {
			return linear{}, fmt.Errorf("%w: %s.bias has %d entries, want %d", ErrModelUnavailable, name, len(lw.Bias), out)
		}
		if err := checkFinite(name+".bias", lw.Bias); err != nil {
			return linear{}, err
		}
		l.b = append([]float64(nil), lw.Bias...)
	}
	return l, nil
}

func (l linear) apply(x []float64) []float64 {
	r, _ := l.w.Dims()
	var y mat.VecDense
	y.MulVec(l.w, mat.NewVecDense(len(x), x))
	out := make([]float64, r)
	for i := range out {
		out[i] = y.AtVec(i)
	}
	if l.b != nil {
		floats.Add(out, l.b)
	}
	return out
}

type layerNorm struct {
	weight []float64
	bias   []float64
}

func newLayerNorm(name string, nw NormWeights, size int) (layerNorm, error) {
	if len(nw.Weight) != size || len(nw.Bias) != size {
		return layerNorm{}, fmt.Errorf("%w: %s must have %d weights and biases", ErrModelUnavailable, name, size)
	}
	if err := checkFinite(name+".weight", nw.Weight); err != nil {
		return layerNorm{}, err
	}
	if err := checkFinite(name+".bias", nw.Bias); err != nil {
		return layerNorm{}, err
	}
	return layerNorm{
		weight: append([]float64(nil), nw.Weight...),
		bias:   append([]float64(nil), nw.Bias...),
	}, nil
}

func (ln layerNorm) apply(x []float64) []float64 {
	n := float64(len(x))
	mean := floats.Sum(x) / n
	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= n
	inv := 1 / math.Sqrt(variance+layerNormEps)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v-mean)*inv*ln.weight[i] + ln.bias[i]
	}
	return out
}

func denseFrom(name string, rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("%w: %s has %d rows, want %d", ErrModelUnavailable, name, len(rows), r)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrModelUnavailable, name, i, len(row), c)
		}
		if err := checkFinite(name, row); err != nil {
			return nil, err
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

func checkFinite(name string, values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s contains a non-finite value", ErrModelUnavailable, name)
		}
	}
	return nil
}

func softmax(x []float64) {
	peak := floats.Max(x)
	var sum float64
	for i, v := range x {
		x[i] = math.Exp(v - peak)
		sum += x[i]
	}
	floats.Scale(1/sum, x)
}

func relu(x []float64) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

func gelu(x float64) float64 {
	return 0.5 * x * (1 + math.Erf(x/math.Sqrt2))
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
