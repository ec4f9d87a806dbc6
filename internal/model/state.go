package model

// ArtifactState tracks one artifact through the processing pipeline.
type ArtifactState string

const (
	StatePending     ArtifactState = "pending"
	StateDownloading ArtifactState = "downloading"
	StateParsing     ArtifactState = "parsing"
	StateGrouping    ArtifactState = "grouping"
	StateSerializing ArtifactState = "serializing"
	StateUploading   ArtifactState = "uploading"
	StateDone        ArtifactState = "done"
	StateFailed      ArtifactState = "failed"
)

// transitions lists the forward edges of the artifact state machine.
// Failed is absorbing and reachable only from the states that touch
// external input or output.
var transitions = map[ArtifactState][]ArtifactState{
	StatePending:     {StateDownloading},
	StateDownloading: {StateParsing, StateUploading, StateFailed},
	StateParsing:     {StateGrouping, StateSerializing, StateFailed},
	StateGrouping:    {StateSerializing},
	StateSerializing: {StateUploading},
	StateUploading:   {StateDone, StateFailed},
}

// CanTransition reports whether the state machine permits moving from one
// state to another. Downloading may jump straight to Uploading for verbatim
// copy-through artifacts, and Parsing straight to Serializing for the flat
// convention, which skips grouping.
func CanTransition(from, to ArtifactState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state is an end state.
func (s ArtifactState) Terminal() bool {
	return s == StateDone || s == StateFailed
}
