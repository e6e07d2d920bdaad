package git

import (
	"github.com/kvidal/gitcore/storage/refstore"
)

// RefEntry is one (name, oid) binding, re-exported from storage/refstore
// so callers need not import that package directly for simple ref reads.
type RefEntry = refstore.RefEntry

// ResolveRef resolves name to its bound OID.
func (r *Repo) ResolveRef(name string) (string, bool, error) {
	oid, ok, err := r.Refs.ResolveRef(name)
	if err != nil {
		return "", false, Wrap(IOError, err)
	}
	return oid, ok, nil
}

// ResolveHead resolves HEAD, following a symbolic ref if present.
func (r *Repo) ResolveHead() (string, error) {
	oid, err := r.Refs.ResolveHead()
	if err != nil {
		return "", Wrap(NotFound, err)
	}
	return oid, nil
}

// ListRefs lists every ref matching prefix, lexicographically sorted.
func (r *Repo) ListRefs(prefix string) ([]RefEntry, error) {
	out, err := r.Refs.ListRefs(prefix)
	if err != nil {
		return nil, Wrap(IOError, err)
	}
	return out, nil
}

// CreateRef creates name at oid, failing ALREADY_EXISTS if it already
// resolves.
func (r *Repo) CreateRef(name, oid, message string) error {
	if err := r.Refs.CreateRef(name, oid, message); err != nil {
		return Wrap(AlreadyExists, err)
	}
	return nil
}

// UpdateRef moves name to oid unconditionally, appending a reflog entry.
func (r *Repo) UpdateRef(name, oid, message string) error {
	if err := r.Refs.UpdateRef(name, oid, message); err != nil {
		return Wrap(IOError, err)
	}
	return nil
}

// DeleteRef removes name, failing NOT_FOUND if it does not resolve.
func (r *Repo) DeleteRef(name, message string) error {
	if err := r.Refs.DeleteRef(name, message); err != nil {
		return Wrap(NotFound, err)
	}
	return nil
}

// VerifyRef reports whether name currently resolves to oid.
func (r *Repo) VerifyRef(name, oid string) (bool, error) {
	ok, err := r.Refs.VerifyRef(name, oid)
	if err != nil {
		return false, Wrap(IOError, err)
	}
	return ok, nil
}
