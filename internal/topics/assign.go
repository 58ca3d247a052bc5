package topics

import "gonum.org/v1/gonum/mat"

// Assign names the dominant topic of document doc. A nil model means the
// bank had no usable vocabulary and every document gets fallback.
// Equal weights resolve to the lowest topic index.
func Assign(model *Model, doc int, fallback string) string {
	if model == nil {
		return fallback
	}

	row := mat.Row(nil, doc, model.DocWeights)
	best := 0
	for t := 1; t < len(row); t++ {
		if row[t] > row[best] {
			best = t
		}
	}
	return model.Topics[best].Name
}

// AssignAll returns the theme of each of the first n documents.
func AssignAll(model *Model, n int, fallback string) []string {
	themes := make([]string, n)
	for i := range themes {
		themes[i] = Assign(model, i, fallback)
	}
	return themes
}
