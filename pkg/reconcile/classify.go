package reconcile

import "github.com/arthur-debert/kitsync/pkg/fingerprint"

// FileState is the classification of a single file for one reconciliation
// run. It is ephemeral and never persisted; the invariant
// Conflict == Customized && UpstreamChanged always holds.
type FileState struct {
	Path string

	// Empty hash means the file is absent on that side.
	CurrentHash  string
	OriginalHash string
	UpstreamHash string

	Customized      bool
	UpstreamChanged bool
	Conflict        bool
	Official        bool

	Action Action
}

// Classify derives the state and action for one file from its three
// fingerprints. Pure function; the stored Customized flag from the manifest
// is not consulted here — ReconcileAll ORs it in (the flag wins, and false
// positives are detected at apply time).
func Classify(path, originalHash, upstreamHash, currentHash string, official bool) FileState {
	return classify(path, originalHash, upstreamHash, currentHash, official, false)
}

func classify(path, originalHash, upstreamHash, currentHash string, official, flaggedCustomized bool) FileState {
	currentExists := currentHash != ""
	upstreamExists := upstreamHash != ""

	// Customized iff both hashes exist and differ. A missing original hash
	// means there is nothing to compare against, so the hash comparison says
	// "not customized"; the stored flag covers the first-manifest case.
	hashCustomized := currentExists && originalHash != "" && !fingerprint.Equal(originalHash, currentHash)
	customized := hashCustomized || (flaggedCustomized && currentExists)

	// Upstream changed if the file was added or removed upstream, or both
	// hashes exist and differ.
	upstreamChanged := (originalHash == "") != (upstreamHash == "") ||
		(originalHash != "" && upstreamHash != "" && !fingerprint.Equal(originalHash, upstreamHash))

	state := FileState{
		Path:            path,
		CurrentHash:     currentHash,
		OriginalHash:    originalHash,
		UpstreamHash:    upstreamHash,
		Customized:      customized,
		UpstreamChanged: upstreamChanged,
		Official:        official,
	}

	switch {
	case !currentExists && upstreamExists:
		state.Action = ActionAdd
	case !currentExists && !upstreamExists:
		state.Action = ActionSkip
	case !upstreamExists:
		if customized {
			state.Action = ActionPreserve
		} else {
			state.Action = ActionRemove
		}
	case anomalous(originalHash, upstreamHash, currentHash):
		// The file claims to equal both original and upstream while those
		// two differ from each other: a hash collision or a logic bug.
		// Classified as a conflict so the user reviews instead of the
		// engine guessing.
		state.Customized = true
		state.UpstreamChanged = true
		state.Action = ActionMerge
	case customized && upstreamChanged:
		state.Action = ActionMerge
	case customized:
		state.Action = ActionPreserve
	case upstreamChanged:
		state.Action = ActionUpdate
	default:
		state.Action = ActionSkip
	}

	state.Conflict = state.Customized && state.UpstreamChanged
	return state
}

// anomalous reports current matching both original and upstream while those
// two differ from each other. With digests compared by exact string equality
// this cannot fire (equality is transitive); the branch only matters if
// Equal ever grows looser comparison semantics.
func anomalous(originalHash, upstreamHash, currentHash string) bool {
	return fingerprint.Equal(currentHash, originalHash) &&
		fingerprint.Equal(currentHash, upstreamHash) &&
		!fingerprint.Equal(originalHash, upstreamHash)
}
