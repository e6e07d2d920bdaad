package git

import "github.com/kvidal/gitcore/plumbing/object"

// VerifyObjectSignature reads the commit or tag at oid, splits its signed
// message from its trailing signature block (plumbing/object.
// SplitSignedPayload), and routes verification to r.Verifiers by detected
// signature type. Returns ErrNoSignature if oid carries no signature block.
func (r *Repo) VerifyObjectSignature(oid string) (*object.VerificationResult, error) {
	payload, err := r.ReadObject(oid)
	if err != nil {
		return nil, err
	}

	message, signature, _ := object.SplitSignedPayload(payload)
	if signature == nil {
		return nil, ErrNoSignature
	}

	result, err := r.Verifiers.Verify(signature, message)
	if err != nil {
		return nil, Wrap(SignatureInvalid, err)
	}
	return result, nil
}
