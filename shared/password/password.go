// Package password wraps bcrypt for credential checks.
package password

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = bcrypt.DefaultCost

// dummyPlaintext seeds the hash compared against when the account is unknown.
const dummyPlaintext = "catalog-auth-dummy-password"

type Verifier struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
	dummyErr  error
}

// New returns a Verifier hashing at cost. Out-of-range costs fall back to DefaultCost.
// The dummy hash is generated here so no login pays for it.
func New(cost int) *Verifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	v := &Verifier{cost: cost}
	v.dummyOnce.Do(v.generateDummy)
	return v
}

func (v *Verifier) generateDummy() {
	v.dummyHash, v.dummyErr = bcrypt.GenerateFromPassword([]byte(dummyPlaintext), v.cost)
}

func (v *Verifier) Cost() int {
	return v.cost
}

// Verify reports whether plaintext matches storedHash.
// Any error from bcrypt (malformed hash, bad cost, mismatch) yields false.
func (v *Verifier) Verify(plaintext, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

// Dummy performs one full comparison against a throwaway hash of the verifier's cost.
// The result is always discarded.
func (v *Verifier) Dummy(plaintext string) {
	v.dummyOnce.Do(v.generateDummy)
	if v.dummyErr != nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(plaintext))
}

func (v *Verifier) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
