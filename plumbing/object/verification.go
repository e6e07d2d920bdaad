package object

import "fmt"

// TrustLevel represents the trust level of a signing key.
// The levels follow Git's trust model, from lowest to highest.
type TrustLevel int8

const (
	// TrustUndefined indicates the trust level is not set or unknown.
	TrustUndefined TrustLevel = iota
	// TrustNever indicates the key should never be trusted.
	TrustNever
	// TrustMarginal indicates marginal trust in the key.
	TrustMarginal
	// TrustFull indicates full trust in the key.
	TrustFull
	// TrustUltimate indicates ultimate trust (typically for own keys).
	TrustUltimate
)

// String returns the string representation of the trust level.
func (t TrustLevel) String() string {
	switch t {
	case TrustNever:
		return "never"
	case TrustMarginal:
		return "marginal"
	case TrustFull:
		return "full"
	case TrustUltimate:
		return "ultimate"
	default:
		return "undefined"
	}
}

// AtLeast returns true if this trust level meets or exceeds the required level.
func (t TrustLevel) AtLeast(required TrustLevel) bool {
	return t >= required
}

// VerificationResult is the outcome of a Signature port Verify call (spec
// §6), paired with the trust level of the key that produced it.
type VerificationResult struct {
	Type                  SignatureType
	Valid                 bool
	TrustLevel            TrustLevel
	KeyID                 string
	PrimaryKeyFingerprint string
	Signer                string
	Error                 error
}

// IsValid reports whether the signature itself checked out, independent of
// key trust.
func (r VerificationResult) IsValid() bool {
	return r.Valid && r.Error == nil
}

// IsTrusted reports whether the signature is valid and its key meets at
// least minTrust.
func (r VerificationResult) IsTrusted(minTrust TrustLevel) bool {
	return r.IsValid() && r.TrustLevel.AtLeast(minTrust)
}

// String renders a short human-readable summary of the result.
func (r VerificationResult) String() string {
	if !r.IsValid() {
		msg := "invalid " + r.Type.String() + " signature"
		if r.Error != nil {
			msg += ": " + r.Error.Error()
		}
		return msg
	}
	signer := r.Signer
	if signer == "" {
		signer = r.KeyID
	}
	return fmt.Sprintf("valid %s signature by %s, key %s (trust: %s)",
		r.Type, signer, r.KeyID, r.TrustLevel)
}
