package verifiers

import (
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

// MLDSAVerifier validates ML-DSA-65 (Dilithium, NIST level 3) signatures.
// This is the production secondary-signature scheme for hybrid votes.
type MLDSAVerifier struct{}

func NewMLDSAVerifier() MLDSAVerifier {
	return MLDSAVerifier{}
}

func (MLDSAVerifier) VerifySecondarySignature(message, publicKey, signature []byte) bool {
	scheme := mldsa65.Scheme()

	if len(publicKey) != scheme.PublicKeySize() || len(signature) != scheme.SignatureSize() {
		return false
	}

	pk, err := scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return false
	}

	return scheme.Verify(pk, message, signature, nil)
}
