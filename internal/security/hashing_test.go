package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndMatch(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "password123" {
		t.Fatalf("Hash = %q, want a bcrypt hash", hash)
	}
	if !h.Matches(hash, "password123") {
		t.Error("Matches should accept the original password")
	}
	if h.Matches(hash, "wrong") {
		t.Error("Matches should reject a wrong password")
	}
	if h.Matches("not-a-hash", "password123") {
		t.Error("Matches should reject an invalid hash")
	}
}

func TestNewHasher_Cost(t *testing.T) {
	testCases := []struct {
		in, want int
	}{
		{0, bcrypt.DefaultCost},
		{2, bcrypt.MinCost},
		{12, 12},
		{40, bcrypt.MaxCost},
	}
	for _, tc := range testCases {
		if got := NewHasher(tc.in).Cost; got != tc.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", tc.in, got, tc.want)
		}
	}
}
