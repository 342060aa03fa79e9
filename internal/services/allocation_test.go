package services

import "testing"

func sum(ds []int) int {
	total := 0
	for _, d := range ds {
		total += d
	}
	return total
}

func TestAllocateProportional(t *testing.T) {
	got := AllocateDurations([]float64{10000, 10000}, 30, AllocationProportional)
	if len(got) != 2 || got[0] != 15 || got[1] != 15 {
		t.Fatalf("expected [15 15] got %v", got)
	}

	got = AllocateDurations([]float64{100, 200, 700}, 10, AllocationProportional)
	if got[0] != 1 || got[1] != 2 || got[2] != 7 {
		t.Fatalf("expected [1 2 7] got %v", got)
	}
}

func TestAllocateRemainderGoesToLast(t *testing.T) {
	// trois poids égaux sur 10 jours : 3+3+3 arrondi, le reliquat va au dernier
	got := AllocateDurations([]float64{1, 1, 1}, 10, AllocationProportional)
	if got[0] != 3 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("expected [3 3 4] got %v", got)
	}
}

func TestAllocateZeroWeightsFallsBackToEqualSplit(t *testing.T) {
	got := AllocateDurations([]float64{0, 0, 0, 0}, 10, AllocationProportional)
	if sum(got) != 10 {
		t.Fatalf("expected sum 10 got %v (sum %d)", got, sum(got))
	}
	if got[0] != 2 || got[1] != 2 || got[2] != 2 || got[3] != 4 {
		t.Fatalf("expected [2 2 2 4] got %v", got)
	}
}

func TestAllocateMinimumFloor(t *testing.T) {
	// un poids négligeable reçoit quand même au moins 1 jour
	got := AllocateDurations([]float64{1, 1000000}, 10, AllocationProportional)
	if got[0] != 1 {
		t.Fatalf("expected floor of 1 day got %v", got)
	}
	if sum(got) != 10 {
		t.Fatalf("expected sum 10 got %v", got)
	}
}

func TestAllocateEqual(t *testing.T) {
	got := AllocateDurations([]float64{10, 9000}, 30, AllocationEqual)
	if got[0] != 15 || got[1] != 15 {
		t.Fatalf("expected [15 15] got %v", got)
	}
}

func TestAllocateCustomFallsBackToProportional(t *testing.T) {
	weights := []float64{300, 700}
	custom := AllocateDurations(weights, 20, AllocationCustom)
	prop := AllocateDurations(weights, 20, AllocationProportional)
	if len(custom) != len(prop) || custom[0] != prop[0] || custom[1] != prop[1] {
		t.Fatalf("custom %v != proportional %v", custom, prop)
	}
}

func TestAllocateEmptyWeights(t *testing.T) {
	got := AllocateDurations(nil, 30, AllocationProportional)
	if len(got) != 0 {
		t.Fatalf("expected empty result got %v", got)
	}
}

func TestAllocateConservesTotal(t *testing.T) {
	cases := []struct {
		weights []float64
		total   int
		policy  AllocationPolicy
	}{
		{[]float64{1, 2, 3}, 17, AllocationProportional},
		{[]float64{5}, 90, AllocationProportional},
		{[]float64{0.1, 0.2, 0.7, 0.4}, 33, AllocationProportional},
		{[]float64{10, 10, 10}, 100, AllocationEqual},
		{[]float64{0, 0}, 7, AllocationProportional},
		{[]float64{1, 1, 1, 1, 1, 1, 1}, 3, AllocationProportional},
		{[]float64{42}, 0, AllocationEqual},
	}
	for _, c := range cases {
		got := AllocateDurations(c.weights, c.total, c.policy)
		if sum(got) != c.total {
			t.Fatalf("weights %v total %d policy %s: sum %d got %v", c.weights, c.total, c.policy, sum(got), got)
		}
	}
}
