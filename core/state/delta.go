package state

import (
	"github.com/arth-22/nexuscortex/core/clock"
	"github.com/arth-22/nexuscortex/core/latent"
)

// Delta is the closed set of mutations Reduce accepts, spec.md §4.1. Every
// variant is a struct implementing the unexported marker method so the set
// cannot be extended outside this package.
type Delta interface {
	isDelta()
}

// InputReceived appends a perceived event to inputs_recent and folds it
// into the corresponding latent slot.
type InputReceived struct {
	Event InputEvent
}

func (InputReceived) isDelta() {}

// OutputProposed introduces a new Output in Draft status.
type OutputProposed struct {
	ID          OutputId
	Content     string
	OriginEpoch PlanningEpoch
	RevisionOf  OutputId
}

func (OutputProposed) isDelta() {}

// CommitLevel discriminates OutputCommitted.
type CommitLevel int

const (
	Soft CommitLevel = iota
	Hard
)

// OutputCommitted advances an existing Output's status to SoftCommit or
// HardCommit.
type OutputCommitted struct {
	ID    OutputId
	Level CommitLevel
}

func (OutputCommitted) isDelta() {}

// OutputCanceled moves a non-Hard Output to Canceled.
type OutputCanceled struct {
	ID OutputId
}

func (OutputCanceled) isDelta() {}

// TaskCanceled names an in-flight side effect by an opaque task id (not
// necessarily an OutputId). Reduce accepts it without changing any state,
// and the reactor does not emit it.
type TaskCanceled struct {
	ID string
}

func (TaskCanceled) isDelta() {}

// VisualStateUpdate records a new perceptual-hash vision sample.
type VisualStateUpdate struct {
	Hash     uint64
	Distance float32
}

func (VisualStateUpdate) isDelta() {}

// LatentUpdate writes or blends a latent slot's vector.
type LatentUpdate struct {
	SlotKey    string
	Modality   latent.Modality
	Values     []float32
	Confidence float32
	DecayRate  float32
}

func (LatentUpdate) isDelta() {}

// MetaLatentUpdate applies additive adjustments to the metacognitive
// biases. The reducer clamps the result to [0,1].
type MetaLatentUpdate struct {
	ConfidencePenaltyDelta       float32
	InterruptionSensitivityDelta float32
}

func (MetaLatentUpdate) isDelta() {}

// IntentUpdate creates (Create=true) or updates an existing long-horizon
// intent. Updating a Dissolved intent is rejected.
type IntentUpdate struct {
	ID         IntentId
	Summary    string // meaningful only when Create
	Confidence float32
	Status     IntentStatus
	Create     bool
}

func (IntentUpdate) isDelta() {}

// TickAdvanced moves the clock forward by exactly one tick (spec.md's
// "Tick(n)" delta, renamed to avoid colliding with the clock.Tick type).
// Reduce accepts it only when To == state.Tick+1.
type TickAdvanced struct {
	To clock.Tick
}

func (TickAdvanced) isDelta() {}

// PlanDispatched records a new planner dispatch, becoming the sole
// ActivePlanState. Dispatching while a plan is already active first
// instructs the caller (via ReduceOutcome) to cancel the prior epoch.
type PlanDispatched struct {
	Epoch PlanningEpoch
}

func (PlanDispatched) isDelta() {}

// PlanResolved delivers a planner result correlated by epoch. A result
// whose epoch does not match ActivePlanState.Epoch is discarded as stale,
// never applied.
type PlanResolved struct {
	Epoch  PlanningEpoch
	Intent *PlanIntent
	Err    PlannerErrorKind // PlannerErrNone when Intent is set
}

func (PlanResolved) isDelta() {}

// PlanAborted cancels the active plan without a result, e.g. on
// interruption.
type PlanAborted struct {
	Epoch PlanningEpoch
}

func (PlanAborted) isDelta() {}
