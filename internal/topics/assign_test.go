package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestAssignFallback(t *testing.T) {
	assert.Equal(t, "General/Not Enough Data", Assign(nil, 0, "General/Not Enough Data"))
	assert.Equal(t, []string{"none", "none", "none"}, AssignAll(nil, 3, "none"))
}

func TestAssignDominantTopic(t *testing.T) {
	model := &Model{
		Topics: []Topic{{Name: "Slow"}, {Name: "Crash"}, {Name: "Fees"}},
		DocWeights: mat.NewDense(4, 3, []float64{
			0.1, 0.7, 0.2,
			0.3, 0.3, 0.1, // tie goes to the lowest index
			0, 0, 0,
			0, 0.4, 0.4,
		}),
	}

	assert.Equal(t, []string{"Crash", "Slow", "Slow", "Crash"}, AssignAll(model, 4, "fallback"))
}
