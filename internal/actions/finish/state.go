package finish

// State is a step of the finish workflow:
//
//	Idle → Fetching → Rebasing → {Conflicted | Rebased} → Merging → Cleanup → Done
//
// Conflicted is terminal; the rebase has been aborted by the time it is reported.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateRebasing
	StateConflicted
	StateRebased
	StateMerging
	StateCleanup
	StateDone
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateFetching:   "fetching",
	StateRebasing:   "rebasing",
	StateConflicted: "conflicted",
	StateRebased:    "rebased",
	StateMerging:    "merging",
	StateCleanup:    "cleanup",
	StateDone:       "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
