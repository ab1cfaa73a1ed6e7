package batch

import "github.com/sells-group/skiptrace-cli/internal/model"

// Partition splits items into contiguous batches of at most size items,
// preserving order. The concatenation of the returned batches is exactly
// the input list. size <= 0 yields a single batch.
func Partition(items []model.WorkItem, size int) [][]model.WorkItem {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]model.WorkItem{items}
	}

	batches := make([][]model.WorkItem, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
