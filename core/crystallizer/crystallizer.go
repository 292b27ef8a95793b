// Package crystallizer implements the output-commit gate, spec.md §4.3: a
// pure function from a state snapshot to a commit decision, plus the
// sanitized projection handed to the planner client.
package crystallizer

import (
	"github.com/arth-22/nexuscortex/core/latent"
	"github.com/arth-22/nexuscortex/core/memory"
	"github.com/arth-22/nexuscortex/core/state"
)

// DecisionKind discriminates Decision.
type DecisionKind int

const (
	Deny DecisionKind = iota
	Delay
	AllowPartial
	AllowHard
)

func (k DecisionKind) String() string {
	switch k {
	case Deny:
		return "deny"
	case Delay:
		return "delay"
	case AllowPartial:
		return "allow_partial"
	case AllowHard:
		return "allow_hard"
	default:
		return "unknown"
	}
}

// Decision is the gate's verdict for one pending output.
type Decision struct {
	Kind  DecisionKind
	MsDelay uint64 // meaningful only when Kind == Delay
}

// Config carries the gate's environment-tunable thresholds (spec.md §6).
type Config struct {
	QuiescenceMinTicks     uint64
	SoftCommitMinAgeTicks  uint64
	TickMs                 uint64
}

// CheckGate evaluates the commit gate for one Draft output against the
// current snapshot. It reads only meta_latents, the latents aggregate,
// ticks since the last input, the output's own age, and presence (visual
// stability is not consulted) — never wall time, so identical inputs always produce an
// identical decision.
func CheckGate(snap state.Snapshot, output state.Output, cfg Config) Decision {
	if snap.Presence == state.Suspended {
		return Decision{Kind: Deny}
	}
	globalUncertainty := latent.GlobalUncertainty(snap.Latents)
	if globalUncertainty >= 0.7 || snap.MetaLatents.ConfidencePenalty > 0.6 {
		return Decision{Kind: Deny}
	}

	sinceInput := ticksSinceLastInput(snap)
	if sinceInput < cfg.QuiescenceMinTicks {
		remaining := cfg.QuiescenceMinTicks - sinceInput
		return Decision{Kind: Delay, MsDelay: remaining * cfg.TickMs}
	}

	outputAge := uint64(snap.Tick.Since(output.ProposedAt))
	if globalUncertainty > 0.4 || outputAge < cfg.SoftCommitMinAgeTicks {
		return Decision{Kind: AllowPartial}
	}
	return Decision{Kind: AllowHard}
}

func ticksSinceLastInput(snap state.Snapshot) uint64 {
	if len(snap.InputsRecent) == 0 {
		return ^uint64(0) // no input ever: treat as arbitrarily quiescent
	}
	last := snap.InputsRecent[len(snap.InputsRecent)-1]
	return snap.Tick.Since(last.Tick)
}

// InputSummary is a sanitized, copy-on-read view of one recent input for
// the planner snapshot — no pointers into live state.
type InputSummary struct {
	Source string
	Text   string
}

// PlannerSnapshot is the sanitized projection of SharedState passed to the
// async planner client (spec.md §4.3's extract_snapshot, §4.4's dispatch
// argument).
type PlannerSnapshot struct {
	Tick          uint64
	RecentInputs  []InputSummary
	TopClaims     []memory.Claim
	ActiveIntents []state.LongHorizonIntent
	MetaLatents   state.MetaLatents
	Presence      state.PresenceState
}

// ExtractPlannerSnapshot builds the planner-facing projection from a state
// snapshot and the top-k claims the memory subsystem already retrieved for
// this tick's dispatch (if any).
func ExtractPlannerSnapshot(snap state.Snapshot, topClaims []memory.Claim) PlannerSnapshot {
	inputs := make([]InputSummary, 0, len(snap.InputsRecent))
	for _, ti := range snap.InputsRecent {
		inputs = append(inputs, InputSummary{Source: ti.Event.Source, Text: ti.Event.Content.Text})
	}
	var active []state.LongHorizonIntent
	for _, i := range snap.Intents {
		if i.Status == state.IntentActive {
			active = append(active, i)
		}
	}
	return PlannerSnapshot{
		Tick:          uint64(snap.Tick),
		RecentInputs:  inputs,
		TopClaims:     topClaims,
		ActiveIntents: active,
		MetaLatents:   snap.MetaLatents,
		Presence:      snap.Presence,
	}
}
