// Package intent implements the Long-Horizon Intent Manager (C6, spec.md
// §4.6): per-tick confidence decay, interruption-driven suspension, and
// dissolution. It never raises intents on its own — they enter the
// working set only via explicit IntentUpdate deltas from the planner
// path (the "no agentic drift" invariant).
package intent

import (
	"math"

	"github.com/arth-22/nexuscortex/core/state"
)

// Config carries the decay-rate and dissolution constants spec.md §4.6
// and §6 specify.
type Config struct {
	DecayLambda          float64 // default 0.01/tick for Active intents
	SuspendedDecayLambda  float64 // default 0.03/tick for Suspended intents
	DissolutionThreshold float32 // default 0.1; strict inequality dissolves
}

// DefaultConfig returns spec.md's documented default constants.
func DefaultConfig() Config {
	return Config{DecayLambda: 0.01, SuspendedDecayLambda: 0.03, DissolutionThreshold: 0.1}
}

// Step applies one tick's worth of decay, interruption-driven suspension,
// and dissolution to every tracked intent, returning the IntentUpdate
// deltas the reactor should reduce. It reads the snapshot only; it never
// mutates SharedState.
func Step(snap state.Snapshot, justInterrupted bool, cfg Config) []state.IntentUpdate {
	var updates []state.IntentUpdate
	for id, i := range snap.Intents {
		if i.Status == state.IntentDissolved {
			continue
		}

		status := i.Status
		lambda := cfg.DecayLambda
		if status == state.IntentSuspended {
			lambda = cfg.SuspendedDecayLambda
		}
		if justInterrupted && status == state.IntentActive {
			status = state.IntentSuspended
		}

		confidence := i.Confidence * float32(math.Exp(-lambda))
		if confidence < cfg.DissolutionThreshold {
			status = state.IntentDissolved
		}

		if status == i.Status && confidence == i.Confidence {
			continue
		}
		updates = append(updates, state.IntentUpdate{ID: id, Confidence: confidence, Status: status})
	}
	return updates
}
