// Package monitor implements the Self-Observation Monitor (C5, spec.md
// §4.5): a per-tick classifier that inspects newly-ingested events plus
// state and emits MetaLatentUpdate deltas. It never mutates SharedState
// directly.
package monitor

import "github.com/arth-22/nexuscortex/core/state"

// ObservationKind names the classified anomaly, for logging only — the
// numeric effect is what the reactor actually applies.
type ObservationKind int

const (
	NoObservation ObservationKind = iota
	UnexpectedInterruption
	UserCorrection
	ResponseTruncation
	StableAlignment
)

func (k ObservationKind) String() string {
	switch k {
	case UnexpectedInterruption:
		return "unexpected_interruption"
	case UserCorrection:
		return "user_correction"
	case ResponseTruncation:
		return "response_truncation"
	case StableAlignment:
		return "stable_alignment"
	default:
		return "none"
	}
}

const (
	userCorrectionWindowTicks   = 4
	stableAlignmentWindowTicks  = 6
	decayFactor                 = 0.98
)

// TickContext carries the facts about this tick the monitor needs beyond
// the snapshot itself, supplied by the reactor as it drains the inbox and
// applies the crystallizer gate.
type TickContext struct {
	JustInterrupted            bool
	OutputsJustCanceledPartial []state.OutputId // Draft->Canceled on the previous tick with non-empty content
}

// Observation pairs a classified kind with the resulting meta-latent
// delta.
type Observation struct {
	Kind  ObservationKind
	Delta state.MetaLatentUpdate
}

// Evaluate classifies this tick's observations and returns the deltas to
// apply. Geometric decay is always included as the base case: absent any
// other observation, both meta-latents drift toward zero at decayFactor
// per tick.
func Evaluate(snap state.Snapshot, ctx TickContext) []Observation {
	var out []Observation

	decayPenalty := -snap.MetaLatents.ConfidencePenalty * (1 - decayFactor)
	decaySensitivity := -snap.MetaLatents.InterruptionSensitivity * (1 - decayFactor)
	out = append(out, Observation{
		Kind:  NoObservation,
		Delta: state.MetaLatentUpdate{ConfidencePenaltyDelta: decayPenalty, InterruptionSensitivityDelta: decaySensitivity},
	})

	if ctx.JustInterrupted && anyDraftOrSoftCommitOutput(snap) {
		out = append(out, Observation{
			Kind:  UnexpectedInterruption,
			Delta: state.MetaLatentUpdate{InterruptionSensitivityDelta: 0.15},
		})
	}

	if ctx.JustInterrupted && recentlySoftCommitted(snap, userCorrectionWindowTicks) {
		out = append(out, Observation{
			Kind:  UserCorrection,
			Delta: state.MetaLatentUpdate{ConfidencePenaltyDelta: 0.20},
		})
	}

	for _, id := range ctx.OutputsJustCanceledPartial {
		_ = id
		out = append(out, Observation{
			Kind:  ResponseTruncation,
			Delta: state.MetaLatentUpdate{InterruptionSensitivityDelta: 0.10},
		})
	}

	if !ctx.JustInterrupted && anyOutputStableSince(snap, stableAlignmentWindowTicks) {
		out = append(out, Observation{
			Kind: StableAlignment,
			Delta: state.MetaLatentUpdate{
				ConfidencePenaltyDelta:       -snap.MetaLatents.ConfidencePenalty * 0.15,
				InterruptionSensitivityDelta: -snap.MetaLatents.InterruptionSensitivity * 0.15,
			},
		})
	}

	return out
}

func anyDraftOrSoftCommitOutput(snap state.Snapshot) bool {
	for _, o := range snap.Outputs {
		if o.Status == state.Draft || o.Status == state.SoftCommit {
			return true
		}
	}
	return false
}

func recentlySoftCommitted(snap state.Snapshot, window uint64) bool {
	for _, o := range snap.Outputs {
		if o.Status != state.SoftCommit || o.CommittedAt == nil {
			continue
		}
		if snap.Tick.Since(*o.CommittedAt) <= window {
			return true
		}
	}
	return false
}

// anyOutputStableSince reports whether some output reached HardCommit
// exactly `window` ticks ago. Evaluate runs once per tick, so checking
// for equality (rather than >=) fires StableAlignment exactly once per
// qualifying commit instead of every tick thereafter.
func anyOutputStableSince(snap state.Snapshot, window uint64) bool {
	for _, o := range snap.Outputs {
		if o.Status != state.HardCommit || o.CommittedAt == nil {
			continue
		}
		if snap.Tick.Since(*o.CommittedAt) == window {
			return true
		}
	}
	return false
}
