package sidecar

import (
	billy "github.com/go-git/go-billy/v5"

	"github.com/kvidal/gitcore/transport/partial"
)

const partialCloneFile = "partial-clone-codex.json"

// LoadPartialClone reads partial-clone-codex.json into a partial.State,
// returning an empty (no filter negotiated) state if absent.
func LoadPartialClone(fs billy.Filesystem) (*partial.State, error) {
	s := partial.NewState()
	if err := load(fs, partialCloneFile, s); err != nil {
		return nil, err
	}
	if s.PromisorObjects == nil {
		s.PromisorObjects = map[string][]byte{}
	}
	return s, nil
}

// StorePartialClone rewrites partial-clone-codex.json in full.
func StorePartialClone(fs billy.Filesystem, s *partial.State) error {
	return store(fs, partialCloneFile, s)
}
