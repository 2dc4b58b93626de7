package match

import (
	"testing"

	"imagedupe/internal/models"
)

func TestScore_PiecewiseValues(t *testing.T) {
	tests := []struct {
		d        int
		expected float64
	}{
		{0, 100.0},
		{1, 93.0},
		{2, 91.0},
		{3, 89.0},
		{4, 87.0},
		{5, 85.0},
		{6, 82.0},
		{7, 79.0},
		{8, 76.0},
		{9, 73.0},
		{10, 70.0},
		{11, 65.0},
		{15, 45.0},
		{20, 20.0},
		{24, 0.0},
		{30, 0.0},
		{64, 0.0},
	}

	for _, tt := range tests {
		if got := Score(tt.d); got != tt.expected {
			t.Errorf("Score(%d) = %v, want %v", tt.d, got, tt.expected)
		}
	}
}

func TestScore_BoundsAndMonotonic(t *testing.T) {
	prev := Score(0)
	for d := 0; d <= 64; d++ {
		s := Score(d)
		if s < 0 || s > 100 {
			t.Errorf("Score(%d) = %v out of [0, 100]", d, s)
		}
		if s > prev {
			t.Errorf("Score(%d) = %v increased from Score(%d) = %v", d, s, d-1, prev)
		}
		prev = s
	}
}

func TestDistance_Ready(t *testing.T) {
	a := &models.FileRecord{Perceptual: models.PerceptualHash{State: models.HashReady, Bits: 0b0111}}
	b := &models.FileRecord{Perceptual: models.PerceptualHash{State: models.HashReady, Bits: 0b0001}}

	d, ok := Distance(a, b)
	if !ok {
		t.Fatal("expected determinate distance")
	}
	if d != 2 {
		t.Errorf("distance = %d, want 2", d)
	}

	// Symmetry
	d2, ok := Distance(b, a)
	if !ok || d2 != d {
		t.Errorf("Distance(b, a) = %d, %v; want %d, true", d2, ok, d)
	}
}

func TestDistance_Indeterminate(t *testing.T) {
	ready := &models.FileRecord{Perceptual: models.PerceptualHash{State: models.HashReady, Bits: 42}}
	failed := &models.FileRecord{Perceptual: models.PerceptualHash{State: models.HashFailed}}
	pending := &models.FileRecord{}

	cases := []struct {
		name string
		a, b *models.FileRecord
	}{
		{"failed left", failed, ready},
		{"failed right", ready, failed},
		{"both failed", failed, failed},
		{"pending left", pending, ready},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Distance(tt.a, tt.b); ok {
				t.Error("expected indeterminate comparison, got a distance")
			}
		})
	}
}
