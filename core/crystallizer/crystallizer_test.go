package crystallizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arth-22/nexuscortex/core/latent"
	"github.com/arth-22/nexuscortex/core/state"
)

func baseSnapshot() state.Snapshot {
	return state.Snapshot{
		Tick:    10,
		Outputs: map[state.OutputId]state.Output{},
		Latents: map[string]latent.Slot{"text": {Confidence: 1}},
		Presence: state.Engaged,
	}
}

func TestCheckGateDeniesWhenSuspended(t *testing.T) {
	snap := baseSnapshot()
	snap.Presence = state.Suspended
	out := state.Output{ID: "o1", ProposedAt: 5}
	decision := CheckGate(snap, out, Config{QuiescenceMinTicks: 3, SoftCommitMinAgeTicks: 2, TickMs: 50})
	assert.Equal(t, Deny, decision.Kind)
}

func TestCheckGateDeniesOnHighConfidencePenalty(t *testing.T) {
	snap := baseSnapshot()
	snap.MetaLatents.ConfidencePenalty = 0.9
	out := state.Output{ID: "o1", ProposedAt: 5}
	decision := CheckGate(snap, out, Config{QuiescenceMinTicks: 3, SoftCommitMinAgeTicks: 2, TickMs: 50})
	assert.Equal(t, Deny, decision.Kind)
}

func TestCheckGateDeniesAtExactUncertaintyBoundary(t *testing.T) {
	snap := baseSnapshot()
	snap.Latents = map[string]latent.Slot{"audio": {Confidence: 0.3}} // uncertainty == 0.7 exactly
	out := state.Output{ID: "o1", ProposedAt: 5}
	decision := CheckGate(snap, out, Config{QuiescenceMinTicks: 3, SoftCommitMinAgeTicks: 2, TickMs: 50})
	assert.Equal(t, Deny, decision.Kind)
}

func TestCheckGateDelaysBeforeQuiescence(t *testing.T) {
	snap := baseSnapshot()
	snap.InputsRecent = []state.TickedInput{{Tick: 9, Event: state.InputEvent{Source: "ui"}}}
	out := state.Output{ID: "o1", ProposedAt: 5}
	decision := CheckGate(snap, out, Config{QuiescenceMinTicks: 3, SoftCommitMinAgeTicks: 2, TickMs: 50})
	assert.Equal(t, Delay, decision.Kind)
	assert.EqualValues(t, 100, decision.MsDelay) // 2 remaining ticks * 50ms
}

func TestCheckGateAllowsPartialUnderUncertaintyOrYoungOutput(t *testing.T) {
	snap := baseSnapshot()
	out := state.Output{ID: "o1", ProposedAt: 9} // age 1 < SoftCommitMinAgeTicks(2)
	decision := CheckGate(snap, out, Config{QuiescenceMinTicks: 3, SoftCommitMinAgeTicks: 2, TickMs: 50})
	assert.Equal(t, AllowPartial, decision.Kind)
}

func TestCheckGateAllowsHardWhenStableAndOld(t *testing.T) {
	snap := baseSnapshot()
	out := state.Output{ID: "o1", ProposedAt: 0}
	decision := CheckGate(snap, out, Config{QuiescenceMinTicks: 3, SoftCommitMinAgeTicks: 2, TickMs: 50})
	assert.Equal(t, AllowHard, decision.Kind)
}

func TestExtractPlannerSnapshotOnlyIncludesActiveIntents(t *testing.T) {
	snap := baseSnapshot()
	snap.Intents = map[state.IntentId]state.LongHorizonIntent{
		"i1": {ID: "i1", Status: state.IntentActive},
		"i2": {ID: "i2", Status: state.IntentDissolved},
	}
	out := ExtractPlannerSnapshot(snap, nil)
	assert.Len(t, out.ActiveIntents, 1)
	assert.Equal(t, state.IntentId("i1"), out.ActiveIntents[0].ID)
}
