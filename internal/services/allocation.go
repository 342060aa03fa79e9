package services

import "math"

// AllocationPolicy selects how a total duration is split across stages.
type AllocationPolicy string

const (
	AllocationProportional AllocationPolicy = "proportional"
	AllocationEqual        AllocationPolicy = "equal"
	// AllocationCustom n'est pas encore implémentée et retombe sur proportional.
	AllocationCustom AllocationPolicy = "custom"
)

// Durée plancher d'une étape, en jours. Identique pour la conversion et la
// prévisualisation pour que celle-ci reste une projection fiable.
const minStageDays = 1

// AllocateDurations splits totalDays across len(weights) buckets according to
// policy. The sum of the result is always exactly totalDays: any rounding or
// clamping residue is absorbed by the last bucket.
func AllocateDurations(weights []float64, totalDays int, policy AllocationPolicy) []int {
	n := len(weights)
	if n == 0 {
		return []int{}
	}
	out := make([]int, n)

	switch policy {
	case AllocationEqual:
		share := totalDays / n
		for i := range out {
			out[i] = share
		}
	default: // proportional, et repli pour custom
		var sum float64
		for _, w := range weights {
			sum += w
		}
		if sum <= 0 {
			// poids tous nuls : répartition égale
			share := totalDays / n
			for i := range out {
				out[i] = share
			}
		} else {
			for i, w := range weights {
				out[i] = int(math.Round(float64(totalDays) * w / sum))
			}
		}
	}

	for i := range out {
		if out[i] < minStageDays {
			out[i] = minStageDays
		}
	}

	// Conservation exacte du total : le reliquat signé va au dernier lot.
	allocated := 0
	for _, d := range out {
		allocated += d
	}
	if diff := totalDays - allocated; diff != 0 {
		out[n-1] += diff
	}
	return out
}
