package hash

import "testing"

func TestHammingDistance(t *testing.T) {
	tests := []struct {
		name     string
		hash1    uint64
		hash2    uint64
		expected int
	}{
		{"identical", 0, 0, 0},
		{"one bit", 1, 0, 1},
		{"two bits", 3, 0, 2},
		{"all bits", 0xFFFFFFFFFFFFFFFF, 0, 64},
		{"half bits", 0xAAAAAAAAAAAAAAAA, 0x5555555555555555, 64},
		{"similar", 0x8000000000000000, 0x8000000000000001, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HammingDistance(tt.hash1, tt.hash2)
			if got != tt.expected {
				t.Errorf("HammingDistance(%x, %x) = %d, want %d", tt.hash1, tt.hash2, got, tt.expected)
			}
		})
	}
}

func TestHammingDistance_Symmetric(t *testing.T) {
	a, b := uint64(0xDEADBEEFCAFEF00D), uint64(0x0123456789ABCDEF)
	if HammingDistance(a, b) != HammingDistance(b, a) {
		t.Error("distance is not symmetric")
	}
}
