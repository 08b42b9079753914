package crypto

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hasher := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := hasher.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash() returned empty string")
	}
	if strings.Contains(hash, "Sup3rSecret") {
		t.Fatal("Hash() output contains the plaintext password")
	}

	if !hasher.Verify("Sup3rSecret", hash) {
		t.Error("Verify() rejected the correct password")
	}
	if hasher.Verify("WrongPass1", hash) {
		t.Error("Verify() accepted a wrong password")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	hasher := BcryptHasher{Cost: bcrypt.MinCost}

	first, err := hasher.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	second, err := hasher.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password are identical; salt is missing")
	}
}

func TestHasherDefaultCost(t *testing.T) {
	hasher := NewBcryptHasher()
	if hasher.Cost != DefaultBcryptCost {
		t.Errorf("NewBcryptHasher() cost = %d, want %d", hasher.Cost, DefaultBcryptCost)
	}

	// zero-value hasher falls back to the default work factor
	hash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("Sup3rSecret")
	if err != nil {
		t.Fatalf("Hash() unexpected error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() unexpected error: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Errorf("encoded cost = %d, want %d", cost, bcrypt.MinCost)
	}
}

func TestVerifyGarbageHash(t *testing.T) {
	hasher := NewBcryptHasher()
	if hasher.Verify("anything", "not-a-bcrypt-hash") {
		t.Error("Verify() accepted a malformed hash")
	}
}
