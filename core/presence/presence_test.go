package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arth-22/nexuscortex/core/state"
)

func TestOfSuspendedOverridesEverything(t *testing.T) {
	snap := state.Snapshot{
		Suspended: true,
		Outputs:   map[state.OutputId]state.Output{"o1": {Status: state.Draft}},
	}
	assert.Equal(t, state.Suspended, Of(snap, Config{AttentiveWindowTicks: 50}))
}

func TestOfEngagedOnDraftOutput(t *testing.T) {
	snap := state.Snapshot{
		Outputs: map[state.OutputId]state.Output{"o1": {Status: state.Draft}},
	}
	assert.Equal(t, state.Engaged, Of(snap, Config{AttentiveWindowTicks: 50}))
}

func TestOfEngagedOnActivePlan(t *testing.T) {
	snap := state.Snapshot{
		Outputs:    map[state.OutputId]state.Output{},
		ActivePlan: &state.ActivePlan{Epoch: 1},
	}
	assert.Equal(t, state.Engaged, Of(snap, Config{AttentiveWindowTicks: 50}))
}

func TestOfAttentiveOnRecentSpeech(t *testing.T) {
	snap := state.Snapshot{
		Tick:    10,
		Outputs: map[state.OutputId]state.Output{},
		InputsRecent: []state.TickedInput{
			{Tick: 5, Event: state.InputEvent{Content: state.InputContent{Kind: state.InputSpeechStart}}},
		},
	}
	assert.Equal(t, state.Attentive, Of(snap, Config{AttentiveWindowTicks: 50}))
}

func TestOfNotAttentiveOnStaleSpeech(t *testing.T) {
	snap := state.Snapshot{
		Tick:    100,
		Outputs: map[state.OutputId]state.Output{},
		InputsRecent: []state.TickedInput{
			{Tick: 5, Event: state.InputEvent{Content: state.InputContent{Kind: state.InputSpeechStart}}},
		},
	}
	assert.NotEqual(t, state.Attentive, Of(snap, Config{AttentiveWindowTicks: 50}))
}

func TestOfQuietlyHoldingWithActiveIntentOnly(t *testing.T) {
	snap := state.Snapshot{
		Tick:    10,
		Outputs: map[state.OutputId]state.Output{},
		Intents: map[state.IntentId]state.LongHorizonIntent{"i1": {ID: "i1", Status: state.IntentActive}},
	}
	assert.Equal(t, state.QuietlyHolding, Of(snap, Config{AttentiveWindowTicks: 50}))
}

func TestOfDormantWhenNothingElseApplies(t *testing.T) {
	snap := state.Snapshot{
		Tick:    10,
		Outputs: map[state.OutputId]state.Output{},
	}
	assert.Equal(t, state.Dormant, Of(snap, Config{AttentiveWindowTicks: 50}))
}
