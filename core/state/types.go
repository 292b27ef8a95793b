// Package state implements spec.md §3-4.1: the single mutable root
// (SharedState), its data model, and the one mutation path, Reduce. Every
// reader of SharedState gets a copy-on-read snapshot (Snapshot); the
// reactor's driver is the only writer.
package state

import (
	"github.com/arth-22/nexuscortex/core/clock"
	"github.com/arth-22/nexuscortex/core/latent"
	"github.com/arth-22/nexuscortex/core/memory"
)

// InputKind discriminates InputEvent's content.
type InputKind int

const (
	InputText InputKind = iota
	InputSpeechStart
	InputSpeechEnd
	InputVisual
)

// InputContent is the sum-typed payload of an InputEvent. Exactly the
// fields relevant to Kind are meaningful.
type InputContent struct {
	Kind           InputKind
	Text           string
	VisualHash     uint64
	VisualDistance float32
}

// InputEvent is a single perceived event from an external collaborator
// (audio, vision, or the UI shell).
type InputEvent struct {
	Source string
	Content InputContent
	// DedupKey, when non-empty, makes InputReceived idempotent: reducing
	// the same key twice appends only one inputs_recent entry (spec.md
	// §8's round-trip law). Left to the emitting adapter to set; the core
	// never invents one on the caller's behalf.
	DedupKey string
}

// IsInterrupting reports whether this event is a user Text or SpeechStart,
// spec.md's primary interruption trigger.
func (e InputEvent) IsInterrupting() bool {
	return e.Content.Kind == InputText || e.Content.Kind == InputSpeechStart
}

// Modality maps an InputEvent to the latent slot modality it feeds.
func (e InputEvent) Modality() latent.Modality {
	switch e.Content.Kind {
	case InputVisual:
		return latent.ModalityVisual
	case InputSpeechStart, InputSpeechEnd:
		return latent.ModalityAudio
	default:
		return latent.ModalityText
	}
}

// TickedInput pairs an InputEvent with the tick it was received on, the
// element type of the bounded inputs_recent sequence.
type TickedInput struct {
	Tick  clock.Tick
	Event InputEvent
}

// OutputId identifies an Output.
type OutputId string

// OutputStatus is the Output commitment state machine: Draft -> SoftCommit
// -> HardCommit, or Canceled from any non-Hard state. HardCommit is
// terminal and irrevocable.
type OutputStatus int

const (
	Draft OutputStatus = iota
	SoftCommit
	HardCommit
	Canceled
)

func (s OutputStatus) String() string {
	switch s {
	case Draft:
		return "draft"
	case SoftCommit:
		return "soft_commit"
	case HardCommit:
		return "hard_commit"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Output is a unit of externalized thought in flight through the
// crystallization gate.
type Output struct {
	ID          OutputId
	Content     string
	Status      OutputStatus
	ProposedAt  clock.Tick
	CommittedAt *clock.Tick
	OriginEpoch PlanningEpoch
	// RevisionOf is non-empty when this Output revises a prior one
	// (Intent.ReviseStatement). Revising a HardCommit output is a hard
	// reject at proposal time, never a silent drop (spec.md §9 point iii).
	RevisionOf OutputId
}

// PlanningEpoch monotonically identifies a planner dispatch for
// cancellation correlation. A result whose epoch does not match
// SharedState.ActivePlanState.Epoch is discarded as stale.
type PlanningEpoch uint64

// PlanIntentKind discriminates the planner's output sum type (spec.md's
// "Intent", renamed PlanIntent here to avoid colliding with
// LongHorizonIntent).
type PlanIntentKind int

const (
	BeginResponse PlanIntentKind = iota
	Delay
	AskClarification
	ReviseStatement
	DoNothing
)

// PlanIntent is the planner's decision for the current dispatch.
type PlanIntent struct {
	Kind PlanIntentKind

	// BeginResponse
	Confidence float32
	// Delay
	DelayTicks uint64
	// AskClarification
	Context string
	// ReviseStatement
	RefID      OutputId
	Correction string
}

// PlannerErrorKind is the closed error taxonomy a PlanResolved delta may
// carry instead of a PlanIntent.
type PlannerErrorKind int

const (
	PlannerErrNone PlannerErrorKind = iota
	PlannerErrTimeout
	PlannerErrTransport
	PlannerErrMalformed
	PlannerErrAborted
)

func (k PlannerErrorKind) String() string {
	switch k {
	case PlannerErrTimeout:
		return "timeout"
	case PlannerErrTransport:
		return "transport"
	case PlannerErrMalformed:
		return "malformed"
	case PlannerErrAborted:
		return "aborted"
	default:
		return "none"
	}
}

// ActivePlan records the in-flight planner dispatch, if any.
type ActivePlan struct {
	Epoch     PlanningEpoch
	StartedAt clock.Tick
}

// IntentId identifies a LongHorizonIntent.
type IntentId string

// IntentStatus is the long-horizon intent lifecycle. Dissolved is
// terminal.
type IntentStatus int

const (
	IntentActive IntentStatus = iota
	IntentSuspended
	IntentDissolved
)

func (s IntentStatus) String() string {
	switch s {
	case IntentActive:
		return "active"
	case IntentSuspended:
		return "suspended"
	case IntentDissolved:
		return "dissolved"
	default:
		return "unknown"
	}
}

// LongHorizonIntent is a goal tracked across many ticks, entered only via
// explicit IntentUpdate deltas from the planner path (the manager never
// raises intents on its own; see core/intent).
type LongHorizonIntent struct {
	ID             IntentId
	Summary        string
	CreatedAt      clock.Tick
	LastReinforced clock.Tick
	Confidence     float32
	Status         IntentStatus
}

// MetaLatents are the metacognitive biases that modulate the crystallizer
// gate.
type MetaLatents struct {
	ConfidencePenalty       float32
	InterruptionSensitivity float32
}

// VisualHashState is the most recent perceptual-hash vision sample.
type VisualHashState struct {
	Hash     uint64
	Stability float32
	LastTick clock.Tick
}

// PresenceState is the externally observable lifecycle projection.
type PresenceState int

const (
	Dormant PresenceState = iota
	Attentive
	Engaged
	QuietlyHolding
	Suspended
)

func (p PresenceState) String() string {
	switch p {
	case Dormant:
		return "dormant"
	case Attentive:
		return "attentive"
	case Engaged:
		return "engaged"
	case QuietlyHolding:
		return "quietly_holding"
	case Suspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// InputsRecentCapacity is the minimum bounded capacity spec.md requires
// (capacity >= 32); the reducer evicts exactly the oldest entry once full.
const InputsRecentCapacity = 32

// SharedState is the single mutable root. The only mutation path is
// Reduce; every other reader must go through Snapshot.
type SharedState struct {
	Tick            clock.Tick
	Latents         map[string]latent.Slot
	MetaLatents     MetaLatents
	InputsRecent    []TickedInput
	Outputs         map[OutputId]Output
	ActivePlanState *ActivePlan
	Intents         map[IntentId]LongHorizonIntent
	VisualHashLast  *VisualHashState
	Presence        PresenceState
	MemoryWorking   map[string]memory.Candidate
	seenDedupKeys   map[string]struct{}

	// Suspended reflects a UiCommand{Suspend|Resume}. Unlike every other
	// field here, it is set directly rather than through Reduce (TickStep
	// does so while draining UiCommand events): spec.md's closed Delta vocabulary has no variant for
	// it, and a UI-level pause command is not itself a cognitive-state
	// transition the way the other deltas are. See DESIGN.md.
	Suspended bool
}

// New returns a freshly initialized SharedState at Tick 0, Dormant
// presence, and empty collections.
func New() *SharedState {
	return &SharedState{
		Latents:       make(map[string]latent.Slot),
		Outputs:       make(map[OutputId]Output),
		Intents:       make(map[IntentId]LongHorizonIntent),
		MemoryWorking: make(map[string]memory.Candidate),
		Presence:      Dormant,
		seenDedupKeys: make(map[string]struct{}),
	}
}
