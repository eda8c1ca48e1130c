package rng

// Intn maps one draw from src to an int in [0, n).
//
// Precondition: n > 0.
// Postcondition: 0 <= result < n.
func Intn(src Source, n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Uniform maps one draw from src to a float in [lo, hi).
//
// Precondition: lo <= hi.
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Percent returns one draw scaled to [0, 100).
func Percent(src Source) float64 {
	return src.Float64() * 100
}

// Shuffle performs a Fisher-Yates shuffle of n elements using swap.
//
// Postcondition: every permutation is reachable; n-1 draws are consumed.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := Intn(src, i+1)
		swap(i, j)
	}
}

// Sample returns k distinct indices drawn uniformly from [0, n).
//
// Precondition: 0 <= k <= n.
// Postcondition: len(result) == k and all values are distinct.
func Sample(src Source, n, k int) []int {
	if k < 0 || k > n {
		panic("rng: Sample called with k outside [0, n]")
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	out := make([]int, 0, k)
	for len(out) < k {
		idx := Intn(src, len(pool))
		out = append(out, pool[idx])
		pool[idx] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return out
}
