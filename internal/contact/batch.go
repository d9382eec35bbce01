package contact

import "errors"

// ErrInvalidBatchSize is returned for non-positive batch sizes.
var ErrInvalidBatchSize = errors.New("batch size must be a positive integer")

// Partition slices a collection into the fixed-size window addressed by
// startBatch (1-based; values below 1 clamp to the first batch).
//
// A start offset at or past the end of the collection yields an empty
// batch, not an error: it means "nothing left at this offset" and callers
// treat it as a no-op.
func Partition(c Collection, batchSize, startBatch int) (Batch, error) {
	if batchSize <= 0 {
		return Batch{}, ErrInvalidBatchSize
	}

	b := startBatch - 1
	if b < 0 {
		b = 0
	}

	start := b * batchSize
	if start >= c.Len() {
		return Batch{Start: start, End: start}, nil
	}
	end := start + batchSize
	if end > c.Len() {
		end = c.Len()
	}
	return Batch{Start: start, End: end, Items: c.Records[start:end]}, nil
}

// BatchCount reports how many batches of size batchSize cover n items.
func BatchCount(n, batchSize int) int {
	if batchSize <= 0 || n <= 0 {
		return 0
	}
	return (n + batchSize - 1) / batchSize
}
