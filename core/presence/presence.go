// Package presence implements spec.md §4.7: a pure projection from
// SharedState to the externally observable PresenceState. Presence is
// never stored independently — it is recomputed every tick and emitted
// only on change (the reactor's job, not this package's).
package presence

import "github.com/arth-22/nexuscortex/core/state"

// Config carries the one environment-tunable threshold this projection
// needs (spec.md §6).
type Config struct {
	AttentiveWindowTicks uint64
}

// Of derives the presence state from a snapshot, evaluating the rules top
// to bottom exactly as spec.md orders them: the first matching rule wins.
func Of(snap state.Snapshot, cfg Config) state.PresenceState {
	if snap.Suspended {
		return state.Suspended
	}
	if anyDraftOrSoftCommit(snap) || snap.ActivePlan != nil {
		return state.Engaged
	}
	if recentPerceptualInput(snap, cfg.AttentiveWindowTicks) {
		return state.Attentive
	}
	if anyActiveIntent(snap) {
		return state.QuietlyHolding
	}
	return state.Dormant
}

func anyDraftOrSoftCommit(snap state.Snapshot) bool {
	for _, o := range snap.Outputs {
		if o.Status == state.Draft || o.Status == state.SoftCommit {
			return true
		}
	}
	return false
}

func recentPerceptualInput(snap state.Snapshot, window uint64) bool {
	if snap.VisualHashLast != nil && snap.Tick.Since(snap.VisualHashLast.LastTick) < window {
		return true
	}
	for i := len(snap.InputsRecent) - 1; i >= 0; i-- {
		ti := snap.InputsRecent[i]
		switch ti.Event.Content.Kind {
		case state.InputSpeechStart, state.InputSpeechEnd, state.InputVisual:
			return snap.Tick.Since(ti.Tick) < window
		}
	}
	return false
}

func anyActiveIntent(snap state.Snapshot) bool {
	for _, i := range snap.Intents {
		if i.Status == state.IntentActive {
			return true
		}
	}
	return false
}
