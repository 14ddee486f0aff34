package records

// BatchCap limits operations per committed write batch. Firestore rejects
// batches above 500 operations; 400 leaves margin for the server-timestamp
// transforms each create carries.
const BatchCap = 400

func chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = BatchCap
	}
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
