package git

import "strings"

// ObjectStats summarizes the object store's on-disk contents (spec §4.14's
// repo info report): loose object count and total compressed size, plus
// the distinct pack bases present.
type ObjectStats struct {
	LooseCount int
	LooseBytes int64
	PackBases  []string
}

// RefStats summarizes the reference store's contents by ref kind.
type RefStats struct {
	Total    int
	Branches int
	Tags     int
	Remotes  int
}

// RepoInfo is the structure report Info returns: object/ref counts and the
// repository's configured hash algorithm and bare-ness.
type RepoInfo struct {
	HashAlgorithm string
	Bare          bool
	Objects       ObjectStats
	Refs          RefStats
}

// Info gathers a structural report over the repository's objects and refs
// (spec §4.14): object counts/sizes, pack bases, and ref counts by kind.
// It never decodes pack contents, matching the object store's opaque
// pack-passthrough contract.
func (r *Repo) Info() (*RepoInfo, error) {
	info := &RepoInfo{HashAlgorithm: r.algo.String(), Bare: r.IsBare()}

	loose, err := r.Objects.ListLooseObjects()
	if err != nil {
		return nil, Wrap(IOError, err)
	}
	info.Objects.LooseCount = len(loose)
	for _, o := range loose {
		_, _, diskSize, err := r.Objects.ReadEnvelope(o.OID)
		if err != nil {
			return nil, Wrap(ObjectFormat, err)
		}
		info.Objects.LooseBytes += diskSize
	}

	bases, err := r.Objects.ListPackBases()
	if err != nil {
		return nil, Wrap(IOError, err)
	}
	info.Objects.PackBases = bases

	refs, err := r.Refs.ListRefs("refs")
	if err != nil {
		return nil, Wrap(IOError, err)
	}
	info.Refs.Total = len(refs)
	for _, e := range refs {
		switch {
		case strings.HasPrefix(e.Name, "refs/heads/"):
			info.Refs.Branches++
		case strings.HasPrefix(e.Name, "refs/tags/"):
			info.Refs.Tags++
		case strings.HasPrefix(e.Name, "refs/remotes/"):
			info.Refs.Remotes++
		}
	}

	return info, nil
}
