package topics

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// float32 machine epsilon, keeps multiplicative updates away from 0/0
	muEpsilon = 1.1920929e-07
	// init values below this are treated as zero by NNDSVD
	initEpsilon = 1e-6
	// how often the reconstruction error is checked against Tolerance
	errorCheckEvery = 10
)

type ExtractorConfig struct {
	Topics    int
	MaxIter   int
	Tolerance float64
	Seed      uint64
	TopTerms  int
	NameTerms int
}

type Topic struct {
	Name  string
	Terms []string
}

// Model is the factorization of one bank's weight matrix. DocWeights has
// one row per document and one column per topic.
type Model struct {
	Topics     []Topic
	DocWeights *mat.Dense
}

type Extractor struct {
	cfg ExtractorConfig
}

func NewExtractor(cfg ExtractorConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract factorizes f.Matrix ≈ W·H with k non-negative topics, names each
// topic from its heaviest terms and projects every document onto the
// final topics.
func (e *Extractor) Extract(f *Fitted) *Model {
	x := f.Matrix
	k := e.cfg.Topics

	w, h := e.initialize(x, k)
	multiplicativeUpdate(x, w, h, e.cfg.MaxIter, e.cfg.Tolerance, true)

	// documents are re-projected on the fitted topics from a flat start
	n, _ := x.Dims()
	docWeights := mat.NewDense(n, k, nil)
	fill(docWeights, math.Sqrt(mean(x)/float64(k)))
	multiplicativeUpdate(x, docWeights, h, e.cfg.MaxIter, e.cfg.Tolerance, false)

	return &Model{
		Topics:     nameTopics(h, f.Vocabulary, e.cfg.TopTerms, e.cfg.NameTerms),
		DocWeights: docWeights,
	}
}

// initialize uses NNDSVDa when the rank fits the matrix and a seeded
// random start otherwise.
func (e *Extractor) initialize(x *mat.Dense, k int) (*mat.Dense, *mat.Dense) {
	n, m := x.Dims()
	if k <= min(n, m) {
		if w, h, ok := nndsvda(x, k); ok {
			return w, h
		}
	}

	rng := rand.New(rand.NewPCG(e.cfg.Seed, e.cfg.Seed))
	avg := math.Sqrt(mean(x) / float64(k))
	h := mat.NewDense(k, m, nil)
	h.Apply(func(_, _ int, _ float64) float64 { return avg * math.Abs(rng.NormFloat64()) }, h)
	w := mat.NewDense(n, k, nil)
	w.Apply(func(_, _ int, _ float64) float64 { return avg * math.Abs(rng.NormFloat64()) }, w)
	return w, h
}

// nndsvda seeds W and H from the leading singular triplets, keeping the
// dominant sign of each, then replaces zeros with the mean of x.
func nndsvda(x *mat.Dense, k int) (*mat.Dense, *mat.Dense, bool) {
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	n, m := x.Dims()
	w := mat.NewDense(n, k, nil)
	h := mat.NewDense(k, m, nil)

	for c := 0; c < k; c++ {
		ucol := mat.Col(nil, c, &u)
		vcol := mat.Col(nil, c, &v)

		if c == 0 {
			scale := math.Sqrt(s[0])
			for i, val := range ucol {
				w.Set(i, 0, scale*math.Abs(val))
			}
			for j, val := range vcol {
				h.Set(0, j, scale*math.Abs(val))
			}
			continue
		}

		up, un := splitSigns(ucol)
		vp, vn := splitSigns(vcol)
		upNorm, unNorm := floats.Norm(up, 2), floats.Norm(un, 2)
		vpNorm, vnNorm := floats.Norm(vp, 2), floats.Norm(vn, 2)

		uu, vv, sigma := up, vp, upNorm*vpNorm
		uNorm, vNorm := upNorm, vpNorm
		if mNeg := unNorm * vnNorm; mNeg >= sigma {
			uu, vv, sigma = un, vn, mNeg
			uNorm, vNorm = unNorm, vnNorm
		}
		if sigma == 0 {
			continue
		}

		lambda := math.Sqrt(s[c] * sigma)
		for i, val := range uu {
			w.Set(i, c, lambda*val/uNorm)
		}
		for j, val := range vv {
			h.Set(c, j, lambda*val/vNorm)
		}
	}

	avg := mean(x)
	zeroOrAvg := func(_, _ int, v float64) float64 {
		if v < initEpsilon {
			return avg
		}
		return v
	}
	w.Apply(zeroOrAvg, w)
	h.Apply(zeroOrAvg, h)

	return w, h, true
}

// multiplicativeUpdate runs Lee–Seung updates for the Frobenius loss. H is
// left untouched when updateH is false. It returns the iterations run.
func multiplicativeUpdate(x, w, h *mat.Dense, maxIter int, tol float64, updateH bool) int {
	n, m := x.Dims()
	k, _ := h.Dims()

	var (
		numW = mat.NewDense(n, k, nil)
		denW = mat.NewDense(n, k, nil)
		numH = mat.NewDense(k, m, nil)
		denH = mat.NewDense(k, m, nil)
		gram = mat.NewDense(k, k, nil)
	)

	errInit := reconstructionError(x, w, h)
	prevErr := errInit

	iter := 0
	for iter < maxIter {
		iter++

		numW.Mul(x, h.T())
		gram.Mul(h, h.T())
		denW.Mul(w, gram)
		w.Apply(func(i, j int, v float64) float64 {
			return v * numW.At(i, j) / (denW.At(i, j) + muEpsilon)
		}, w)

		if updateH {
			numH.Mul(w.T(), x)
			gram.Mul(w.T(), w)
			denH.Mul(gram, h)
			h.Apply(func(i, j int, v float64) float64 {
				return v * numH.At(i, j) / (denH.At(i, j) + muEpsilon)
			}, h)
		}

		if tol > 0 && iter%errorCheckEvery == 0 {
			e := reconstructionError(x, w, h)
			if errInit == 0 || (prevErr-e)/errInit < tol {
				break
			}
			prevErr = e
		}
	}

	return iter
}

func reconstructionError(x, w, h *mat.Dense) float64 {
	var approx, r mat.Dense
	approx.Mul(w, h)
	r.Sub(x, &approx)
	return mat.Norm(&r, 2)
}

// nameTopics ranks each topic's terms by weight, heaviest first with ties
// kept in vocabulary order, and names it after the leading terms.
func nameTopics(h *mat.Dense, vocab []string, topTerms, nameTerms int) []Topic {
	k, m := h.Dims()
	caser := cases.Title(language.English)

	topics := make([]Topic, k)
	for t := 0; t < k; t++ {
		row := h.RawRowView(t)
		order := make([]int, m)
		for j := range order {
			order[j] = j
		}
		sort.SliceStable(order, func(a, b int) bool {
			return row[order[a]] > row[order[b]]
		})

		top := min(topTerms, m)
		terms := make([]string, top)
		for i := 0; i < top; i++ {
			terms[i] = vocab[order[i]]
		}

		topics[t] = Topic{
			Name:  caser.String(strings.Join(terms[:min(nameTerms, top)], " ")),
			Terms: terms,
		}
	}
	return topics
}

func splitSigns(v []float64) (pos, neg []float64) {
	pos = make([]float64, len(v))
	neg = make([]float64, len(v))
	for i, x := range v {
		if x > 0 {
			pos[i] = x
		} else {
			neg[i] = -x
		}
	}
	return pos, neg
}

func mean(x *mat.Dense) float64 {
	n, m := x.Dims()
	return mat.Sum(x) / float64(n*m)
}

func fill(d *mat.Dense, v float64) {
	d.Apply(func(_, _ int, _ float64) float64 { return v }, d)
}
