package utils

// Batches splits items into consecutive slices of at most size elements.
// The slices share the backing array of items.
func Batches[T any](items []T, size int) [][]T {
	if size < 1 || len(items) == 0 {
		return nil
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches
}
