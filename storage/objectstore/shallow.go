package objectstore

import (
	"errors"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

var errShallowDepth = errors.New("shallow boundary: depth must be >= 1")

// ShallowBoundary performs a breadth-first walk over parent links starting
// at head and returns the lexicographically sorted set of commit OIDs
// reached at exactly depth generations back (or the deepest reachable
// frontier, if the history is shorter than depth), per spec §4.5.
//
// The frontier is tracked in a treeset rather than a plain slice so that
// a commit reachable through multiple parent chains at the same depth is
// only recorded once, and the final listing is deterministic without a
// separate sort pass.
func (s *Store) ShallowBoundary(head string, depth int) ([]string, error) {
	if depth < 1 {
		return nil, errShallowDepth
	}

	frontier := []string{head}
	var last []string

	for level := 0; level < depth && len(frontier) > 0; level++ {
		last = frontier

		next := treeset.NewWith(utils.StringComparator)
		for _, oid := range frontier {
			parents, err := s.CommitParents(oid)
			if err != nil {
				return nil, err
			}
			for _, p := range parents {
				next.Add(p)
			}
		}

		if next.Empty() {
			frontier = nil
			break
		}

		frontier = make([]string, 0, next.Size())
		for _, v := range next.Values() {
			frontier = append(frontier, v.(string))
		}
	}

	if len(frontier) > 0 {
		last = frontier
	}

	out := treeset.NewWith(utils.StringComparator)
	for _, oid := range last {
		out.Add(oid)
	}
	result := make([]string, 0, out.Size())
	for _, v := range out.Values() {
		result = append(result, v.(string))
	}
	return result, nil
}
