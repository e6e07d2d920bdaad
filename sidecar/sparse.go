// Grounded on format/matcher/sparse.go (kept from the teacher's pack
// reference) for the cone/pattern mode vocabulary this state persists.
package sidecar

import (
	billy "github.com/go-git/go-billy/v5"

	"github.com/kvidal/gitcore/format/matcher"
)

const sparseCheckoutFile = "info/sparse-checkout-codex.json"

// SparseCheckout is the normalized info/sparse-checkout-codex.json payload.
type SparseCheckout struct {
	Mode  matcher.SparseMode `json:"mode"`
	Rules []string           `json:"rules"`
}

// LoadSparseCheckout reads the sparse-checkout sidecar, returning cone mode
// with no rules if absent (equivalent to "everything selected").
func LoadSparseCheckout(fs billy.Filesystem) (*SparseCheckout, error) {
	sc := &SparseCheckout{Mode: matcher.ConeMode}
	if err := load(fs, sparseCheckoutFile, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// Set replaces the mode/rules and persists the sidecar.
func (sc *SparseCheckout) Set(fs billy.Filesystem, mode matcher.SparseMode, rules []string) error {
	sc.Mode = mode
	sc.Rules = rules
	return store(fs, sparseCheckoutFile, sc)
}

// Matcher builds the SparseMatcher this state currently describes.
func (sc *SparseCheckout) Matcher() (*matcher.SparseMatcher, error) {
	return matcher.NewSparseMatcher(sc.Mode, sc.Rules)
}
