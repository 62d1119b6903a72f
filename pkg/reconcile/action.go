package reconcile

// Action is what the apply loop will do for one file. The set is closed so
// the apply dispatch can switch exhaustively.
type Action int

const (
	// ActionSkip means no filesystem action is needed.
	ActionSkip Action = iota
	// ActionAdd writes a file that exists upstream but not locally.
	ActionAdd
	// ActionRemove deletes a file upstream no longer ships and the user
	// never customized.
	ActionRemove
	// ActionPreserve keeps the local file untouched (customized, upstream
	// unchanged or gone).
	ActionPreserve
	// ActionUpdate overwrites a pristine local file with new upstream
	// content.
	ActionUpdate
	// ActionMerge marks a genuine conflict: both the user and upstream
	// changed the file. The engine never merges content; it writes
	// three-way conflict markers for external resolution.
	ActionMerge
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionPreserve:
		return "preserve"
	case ActionUpdate:
		return "update"
	case ActionMerge:
		return "merge"
	default:
		return "unknown"
	}
}
