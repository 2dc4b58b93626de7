package hash

import "testing"

func TestVerifyDecoders(t *testing.T) {
	if err := VerifyDecoders(); err != nil {
		t.Fatalf("decoder precondition failed: %v", err)
	}
}
