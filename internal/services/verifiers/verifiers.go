package verifiers

// SignatureVerifier checks the secondary (post-classical) signature of a
// hybrid vote. Implementations must be deterministic and side-effect free;
// vote and nullifier state belongs to the governance engine, never here.
type SignatureVerifier interface {
	VerifySecondarySignature(message, publicKey, signature []byte) bool
}

// ProofVerifier checks a zero-knowledge proof of voting eligibility without
// learning the voter's identity. Same purity contract as SignatureVerifier.
type ProofVerifier interface {
	VerifyProof(proof, publicInputs []byte) bool
}

// MockSignatureVerifier accepts any non-empty signature. Test double.
type MockSignatureVerifier struct{}

func (MockSignatureVerifier) VerifySecondarySignature(message, publicKey, signature []byte) bool {
	return len(publicKey) > 0 && len(signature) > 0
}

// MockProofVerifier accepts any non-empty proof. Test double.
type MockProofVerifier struct{}

func (MockProofVerifier) VerifyProof(proof, publicInputs []byte) bool {
	return len(proof) > 0
}

// RejectAllSignatureVerifier rejects everything. Test double.
type RejectAllSignatureVerifier struct{}

func (RejectAllSignatureVerifier) VerifySecondarySignature(message, publicKey, signature []byte) bool {
	return false
}

// RejectAllProofVerifier rejects everything. Test double.
type RejectAllProofVerifier struct{}

func (RejectAllProofVerifier) VerifyProof(proof, publicInputs []byte) bool {
	return false
}
