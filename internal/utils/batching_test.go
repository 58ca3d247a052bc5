package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatches(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, Batches(items, 3))
	assert.Equal(t, [][]int{items}, Batches(items, 10))
	assert.Nil(t, Batches(items, 0))
	assert.Nil(t, Batches([]int{}, 3))
}

func TestBatchesDoNotOverlap(t *testing.T) {
	items := []int{1, 2, 3, 4}
	b := Batches(items, 2)

	b[0] = append(b[0], 99)
	assert.Equal(t, []int{1, 2, 3, 4}, items)
}
