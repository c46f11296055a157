package text

import (
	"slices"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/frametasks/internal/frame"
)

type valueCount struct {
	value cty.Value
	count int
}

func countValues(vals []cty.Value) []valueCount {
	index := make(map[string]int)
	var counted []valueCount
	for _, v := range vals {
		key, ok := frame.AsString(v)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(counted)
			index[key] = i
			counted = append(counted, valueCount{value: v})
		}
		counted[i].count++
	}
	slices.SortStableFunc(counted, func(a, b valueCount) int { return b.count - a.count })
	return counted
}

// topValues walks values in order and marks those whose running count stays
// below share of the total.
func topValues(values, counts []cty.Value, share float64) map[string]bool {
	nums := make([]float64, len(counts))
	total := 0.0
	for i, c := range counts {
		if c.IsNull() || !c.IsKnown() || c.Type() != cty.Number {
			continue
		}
		nums[i], _ = c.AsBigFloat().Float64()
		total += nums[i]
	}

	top := make(map[string]bool)
	running := 0.0
	for i, v := range values {
		running += nums[i]
		if running >= share*total {
			break
		}
		if s, ok := frame.AsString(v); ok {
			top[s] = true
		}
	}
	return top
}

