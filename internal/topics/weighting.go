// Package topics discovers review themes for one bank at a time: TF-IDF
// weighting, non-negative matrix factorization and dominant-topic
// assignment. Nothing in this package is shared between banks.
package topics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

type WeightingConfig struct {
	MinDocFreq int
	MaxDocFrac float64
	NGramMin   int
	NGramMax   int
}

// Weights is either *Fitted or Insufficient.
type Weights interface {
	isWeights()
}

// Fitted is a documents × terms TF-IDF matrix. Rows follow the input
// order, columns follow Vocabulary, which is sorted.
type Fitted struct {
	Matrix     *mat.Dense
	Vocabulary []string
}

// Insufficient means the corpus cannot support a vocabulary. It is an
// expected outcome for small banks, not an error.
type Insufficient struct {
	Reason string
}

func (*Fitted) isWeights()     {}
func (Insufficient) isWeights() {}

type Weighter struct {
	cfg WeightingConfig
}

func NewWeighter(cfg WeightingConfig) *Weighter {
	return &Weighter{cfg: cfg}
}

// Fit builds the vocabulary and weights from docs alone. Terms are kept
// when they occur in at least MinDocFreq documents and in no more than
// MaxDocFrac of them.
func (w *Weighter) Fit(docs []string) Weights {
	n := len(docs)
	if n == 0 {
		return Insufficient{Reason: "no documents"}
	}

	counts := make([]map[string]int, n)
	df := make(map[string]int)
	for i, doc := range docs {
		c := make(map[string]int)
		for _, g := range ngrams(strings.Fields(doc), w.cfg.NGramMin, w.cfg.NGramMax) {
			c[g]++
		}
		for g := range c {
			df[g]++
		}
		counts[i] = c
	}

	if len(df) == 0 {
		return Insufficient{Reason: "empty vocabulary, documents only contain stop words"}
	}

	maxDocs := w.cfg.MaxDocFrac * float64(n)
	if maxDocs < float64(w.cfg.MinDocFreq) {
		return Insufficient{Reason: fmt.Sprintf(
			"max_doc_frac allows %.2f documents, fewer than min_doc_freq %d", maxDocs, w.cfg.MinDocFreq)}
	}

	vocab := make([]string, 0, len(df))
	for term, f := range df {
		if f >= w.cfg.MinDocFreq && float64(f) <= maxDocs {
			vocab = append(vocab, term)
		}
	}
	if len(vocab) == 0 {
		return Insufficient{Reason: "no terms remain after pruning"}
	}
	sort.Strings(vocab)

	m := len(vocab)
	index := make(map[string]int, m)
	idf := make([]float64, m)
	for j, term := range vocab {
		index[term] = j
		idf[j] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	data := make([]float64, n*m)
	for i, c := range counts {
		row := data[i*m : (i+1)*m]
		for term, cnt := range c {
			if j, ok := index[term]; ok {
				row[j] = float64(cnt) * idf[j]
			}
		}
		l2Normalize(row)
	}

	return &Fitted{Matrix: mat.NewDense(n, m, data), Vocabulary: vocab}
}

// ngrams returns the word n-grams of tokens for every n in [lo, hi].
func ngrams(tokens []string, lo, hi int) []string {
	var out []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func l2Normalize(row []float64) {
	var sum float64
	for _, v := range row {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for j := range row {
		row[j] /= norm
	}
}
