package attribution

import (
	"math"
	"math/rand/v2"
	"slices"
)

// splitIndices partitions 0..n-1 into a seeded random train/test split.
// The test share is ceil(fraction*n); it is emptied when it would leave no
// training row.
func splitIndices(n int, fraction float64, seed uint64) (train, test []int) {
	nTest := int(math.Ceil(fraction * float64(n)))
	if n-nTest < 1 {
		nTest = 0
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	test = slices.Clone(perm[:nTest])
	train = slices.Clone(perm[nTest:])
	slices.Sort(test)
	slices.Sort(train)
	return train, test
}

func pick(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}
