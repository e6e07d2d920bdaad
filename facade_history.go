package git

import (
	"github.com/kvidal/gitcore/history"
)

// HistoryResult is the outcome of LastModified, re-exported from the
// history package so callers need not import it directly.
type HistoryResult = history.Result

// LastModified resolves ref (HEAD, a raw OID, or refs/<X> shorthand) to a
// commit and walks first-parent history to find the commit that last
// changed path (spec §4.10), alongside whatever OID is currently staged
// for path in the index. The index lookup is best-effort: a repository
// with no index file yet contributes a nil StagedOID rather than failing.
func (r *Repo) LastModified(path, ref string) (HistoryResult, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		idx = nil
	}
	res, err := history.LastModified(r.Objects, r.Refs, idx, path, ref)
	if err != nil {
		return HistoryResult{}, Wrap(NotFound, err)
	}
	return res, nil
}
