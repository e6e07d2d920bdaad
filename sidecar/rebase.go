// Rebase state machine per spec §4.14: "active -> active (continue,
// currentIndex++) -> completed (currentIndex >= steps.length); active ->
// aborted (abort); terminal states ignore continue."
package sidecar

import billy "github.com/go-git/go-billy/v5"

const rebaseStateFile = "rebase-codex/state.json"

// RebaseStatus is one of the rebase state machine's states.
type RebaseStatus string

const (
	RebaseActive    RebaseStatus = "active"
	RebaseCompleted RebaseStatus = "completed"
	RebaseAborted   RebaseStatus = "aborted"
)

// RebaseStep is one commit being replayed onto the new base.
type RebaseStep struct {
	CommitOID string `json:"commitOid"`
	Message   string `json:"message"`
}

// RebaseState is the normalized rebase-codex/state.json payload.
type RebaseState struct {
	OriginalHead string       `json:"originalHead"`
	Onto         string       `json:"onto"`
	Steps        []RebaseStep `json:"steps"`
	CurrentIndex int          `json:"currentIndex"`
	Status       RebaseStatus `json:"status"`
}

// LoadRebaseState reads rebase-codex/state.json. A missing file yields a
// zero-value state with an empty Status (no rebase in progress).
func LoadRebaseState(fs billy.Filesystem) (*RebaseState, error) {
	rs := &RebaseState{}
	if err := load(fs, rebaseStateFile, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// StartRebase initializes a fresh active rebase and persists it.
func StartRebase(fs billy.Filesystem, originalHead, onto string, steps []RebaseStep) (*RebaseState, error) {
	rs := &RebaseState{
		OriginalHead: originalHead,
		Onto:         onto,
		Steps:        steps,
		CurrentIndex: 0,
		Status:       RebaseActive,
	}
	if err := store(fs, rebaseStateFile, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// Continue advances the state machine: terminal states are a no-op;
// otherwise currentIndex is incremented and the state transitions to
// completed once every step has been applied.
func (rs *RebaseState) Continue(fs billy.Filesystem) error {
	if rs.Status != RebaseActive {
		return nil
	}
	rs.CurrentIndex++
	if rs.CurrentIndex >= len(rs.Steps) {
		rs.Status = RebaseCompleted
	}
	return store(fs, rebaseStateFile, rs)
}

// Abort transitions an active rebase to aborted; a no-op on terminal
// states.
func (rs *RebaseState) Abort(fs billy.Filesystem) error {
	if rs.Status != RebaseActive {
		return nil
	}
	rs.Status = RebaseAborted
	return store(fs, rebaseStateFile, rs)
}
