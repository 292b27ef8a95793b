// Package scheduler implements spec.md §4.8: translating a resolved
// PlanIntent into the state delta and side effect it requires. It never
// touches SharedState directly — Schedule returns values for the reactor
// to apply and dispatch.
package scheduler

import (
	"github.com/arth-22/nexuscortex/core/state"
	"github.com/google/uuid"
)

// SideEffectKind discriminates the side effects this package can request.
type SideEffectKind int

const (
	NoEffect SideEffectKind = iota
	SpawnRealizer
	ArmSelfWake
	LogOnly
)

// SideEffect is a value describing work the driver must perform outside
// the pure reactor step (spec.md §4.2's "every effectful operation ... is
// a SideEffect value").
type SideEffect struct {
	Kind       SideEffectKind
	OutputID   state.OutputId
	Content    string
	WakeAfterTicks uint64
	Message    string
}

// Schedule maps a resolved PlanIntent to the delta (if any) and side
// effect (if any) it produces. A nil delta or a SideEffect with Kind
// NoEffect means that half of the pair is a no-op.
func Schedule(intent state.PlanIntent, epoch state.PlanningEpoch) (state.Delta, SideEffect) {
	switch intent.Kind {
	case state.BeginResponse:
		id := state.OutputId(uuid.NewString())
		return state.OutputProposed{ID: id, Content: "", OriginEpoch: epoch},
			SideEffect{Kind: SpawnRealizer, OutputID: id}

	case state.Delay:
		return nil, SideEffect{Kind: ArmSelfWake, WakeAfterTicks: intent.DelayTicks, Message: "planner requested delay"}

	case state.AskClarification:
		id := state.OutputId(uuid.NewString())
		return state.OutputProposed{ID: id, Content: intent.Context, OriginEpoch: epoch},
			SideEffect{Kind: LogOnly, Message: "clarification requested"}

	case state.ReviseStatement:
		id := state.OutputId(uuid.NewString())
		// The reducer, not this package, enforces the hard-reject-on-
		// HardCommit rule (spec.md §4.1, §9 point iii) — Schedule always
		// proposes; OutputProposed{RevisionOf} is what gets rejected.
		return state.OutputProposed{ID: id, Content: intent.Correction, OriginEpoch: epoch, RevisionOf: intent.RefID},
			SideEffect{Kind: SpawnRealizer, OutputID: id}

	case state.DoNothing:
		return nil, SideEffect{Kind: NoEffect}

	default:
		return nil, SideEffect{Kind: NoEffect}
	}
}
