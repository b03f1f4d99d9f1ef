package catalog

import "fmt"

// SlotRange represents an inclusive slot range.
type SlotRange struct {
	From uint64
	To   uint64
}

// SplitRange splits a slot range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]SlotRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to slot must be >= from slot")
	}

	ranges := make([]SlotRange, 0, (to-from)/batchSize+1)
	start := from
	for {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, SlotRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}
	return ranges, nil
}
