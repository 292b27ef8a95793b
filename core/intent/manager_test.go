package intent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arth-22/nexuscortex/core/state"
)

func TestStepDecaysActiveIntentConfidence(t *testing.T) {
	snap := state.Snapshot{
		Intents: map[state.IntentId]state.LongHorizonIntent{
			"i1": {ID: "i1", Status: state.IntentActive, Confidence: 0.5},
		},
	}
	updates := Step(snap, false, DefaultConfig())
	assert.Len(t, updates, 1)
	assert.Equal(t, state.IntentId("i1"), updates[0].ID)
	assert.Equal(t, state.IntentActive, updates[0].Status)
	assert.InDelta(t, 0.5*math.Exp(-0.01), updates[0].Confidence, 1e-6)
}

func TestStepSuspendsActiveIntentOnInterruption(t *testing.T) {
	snap := state.Snapshot{
		Intents: map[state.IntentId]state.LongHorizonIntent{
			"i1": {ID: "i1", Status: state.IntentActive, Confidence: 0.5},
		},
	}
	updates := Step(snap, true, DefaultConfig())
	assert.Len(t, updates, 1)
	assert.Equal(t, state.IntentSuspended, updates[0].Status)
}

func TestStepDissolvesBelowThreshold(t *testing.T) {
	snap := state.Snapshot{
		Intents: map[state.IntentId]state.LongHorizonIntent{
			"i1": {ID: "i1", Status: state.IntentActive, Confidence: 0.1},
		},
	}
	updates := Step(snap, false, DefaultConfig())
	assert.Len(t, updates, 1)
	assert.Equal(t, state.IntentDissolved, updates[0].Status)
}

func TestStepSkipsAlreadyDissolvedIntents(t *testing.T) {
	snap := state.Snapshot{
		Intents: map[state.IntentId]state.LongHorizonIntent{
			"i1": {ID: "i1", Status: state.IntentDissolved, Confidence: 0.01},
		},
	}
	updates := Step(snap, false, DefaultConfig())
	assert.Empty(t, updates)
}

func TestStepUsesFasterDecayForSuspendedIntents(t *testing.T) {
	snap := state.Snapshot{
		Intents: map[state.IntentId]state.LongHorizonIntent{
			"i1": {ID: "i1", Status: state.IntentSuspended, Confidence: 0.5},
		},
	}
	updates := Step(snap, false, DefaultConfig())
	assert.Len(t, updates, 1)
	assert.InDelta(t, 0.5*math.Exp(-0.03), updates[0].Confidence, 1e-6)
}
