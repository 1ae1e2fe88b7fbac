package brackets

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// SeedPositions returns the seed (1-indexed) occupying each slot of a full
// bracket of the given size, which must be a power of two.
//
// The layout is built by repeatedly doubling the bracket and reflecting each
// seed against its new complement, so every slot pair sums to size+1 and seed
// s cannot meet any seed better than size/2^r+1-s before round r. For size 8
// the slots read [1 8 4 5 2 7 3 6]: seeds 1 and 2 sit in opposite halves and
// can only meet in the final.
func SeedPositions(size int) []int {
	positions := []int{1}
	for len(positions) < size {
		doubled := len(positions) * 2
		next := make([]int, 0, doubled)
		for _, s := range positions {
			next = append(next, s, doubled+1-s)
		}
		positions = next
	}
	return positions
}
