package validation

import "sort"

// groupStats summarizes a per-group size distribution (e.g. references per
// guideline).
type groupStats struct {
	Mean   float64
	Median float64
	Max    int

	// MaxKey is the group carrying Max.
	MaxKey string
}

// summarizeGroups computes mean, median and the largest group. Returns the
// zero value for an empty map.
func summarizeGroups(sizes map[string]int) groupStats {
	if len(sizes) == 0 {
		return groupStats{}
	}

	values := make([]int, 0, len(sizes))

	var stats groupStats

	sum := 0

	for key, size := range sizes {
		values = append(values, size)
		sum += size

		if size > stats.Max || (size == stats.Max && key < stats.MaxKey) {
			stats.Max = size
			stats.MaxKey = key
		}
	}

	sort.Ints(values)

	stats.Mean = float64(sum) / float64(len(values))

	mid := len(values) / 2
	if len(values)%2 == 1 {
		stats.Median = float64(values[mid])
	} else {
		stats.Median = float64(values[mid-1]+values[mid]) / 2
	}

	return stats
}
