package hash

// HammingDistance counts the differing bit positions between two
// fingerprints of equal width.
func HammingDistance(hash1, hash2 uint64) int {
	xor := hash1 ^ hash2
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}
