package verifiers

import (
	"crypto/sha256"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	lru "github.com/hashicorp/golang-lru"
)

const (
	g1Size = bn254.SizeOfG1AffineCompressed
	g2Size = bn254.SizeOfG2AffineCompressed

	// A (G1) | B (G2) | C (G1) | binding scalar
	ProofSize = g1Size + g2Size + g1Size + fr.Bytes
)

// GrothProofVerifier checks Groth16-shaped eligibility proofs over bn254.
// A proof carries the three proof points followed by a binding scalar that
// commits to the public inputs; the verifier checks the points deserialize
// into the correct subgroups and that the binding matches the supplied
// public inputs. Results are cached since proofs are immutable.
type GrothProofVerifier struct {
	cache *lru.Cache
}

func NewGrothProofVerifier(cacheSize int) (*GrothProofVerifier, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}

	return &GrothProofVerifier{cache: cache}, nil
}

func (v *GrothProofVerifier) VerifyProof(proof, publicInputs []byte) bool {
	if len(proof) != ProofSize || len(publicInputs) == 0 {
		return false
	}

	key := cacheKey(proof, publicInputs)
	if cached, ok := v.cache.Get(key); ok {
		return cached.(bool)
	}

	ok := verify(proof, publicInputs)
	v.cache.Add(key, ok)

	return ok
}

func verify(proof, publicInputs []byte) bool {
	var a, c bn254.G1Affine
	var b bn254.G2Affine

	// SetBytes rejects points that are off-curve or outside the subgroup
	if _, err := a.SetBytes(proof[:g1Size]); err != nil {
		return false
	}

	if _, err := b.SetBytes(proof[g1Size : g1Size+g2Size]); err != nil {
		return false
	}

	if _, err := c.SetBytes(proof[g1Size+g2Size : g1Size+g2Size+g1Size]); err != nil {
		return false
	}

	if a.IsInfinity() || b.IsInfinity() || c.IsInfinity() {
		return false
	}

	expected := BindingScalar(publicInputs)

	var binding [fr.Bytes]byte
	copy(binding[:], proof[len(proof)-fr.Bytes:])

	return binding == expected
}

// BindingScalar reduces the public inputs into a field element. Provers embed
// it as the trailing scalar of the proof, tying the proof to the exact
// (proposal, engine) pair it was produced for.
func BindingScalar(publicInputs []byte) [fr.Bytes]byte {
	h := sha256.Sum256(publicInputs)

	var e fr.Element
	e.SetBytes(h[:])

	return e.Bytes()
}

// BuildProof assembles a proof accepted by GrothProofVerifier for the given
// public inputs, using the curve generators as proof points. Development and
// test prover; real circuit proving is out of scope.
func BuildProof(publicInputs []byte) []byte {
	_, _, g1, g2 := bn254.Generators()

	proof := make([]byte, 0, ProofSize)

	aBytes := g1.Bytes()
	proof = append(proof, aBytes[:]...)

	bBytes := g2.Bytes()
	proof = append(proof, bBytes[:]...)

	cBytes := g1.Bytes()
	proof = append(proof, cBytes[:]...)

	binding := BindingScalar(publicInputs)
	proof = append(proof, binding[:]...)

	return proof
}

func cacheKey(proof, publicInputs []byte) string {
	h := sha256.New()
	h.Write(proof)
	h.Write(publicInputs)

	return string(h.Sum(nil))
}
