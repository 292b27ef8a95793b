package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arth-22/nexuscortex/core/state"
)

func TestScheduleBeginResponseProposesAndSpawnsRealizer(t *testing.T) {
	delta, effect := Schedule(state.PlanIntent{Kind: state.BeginResponse, Confidence: 0.8}, 1)
	require.NotNil(t, delta)
	proposed, ok := delta.(state.OutputProposed)
	require.True(t, ok)
	assert.EqualValues(t, 1, proposed.OriginEpoch)
	assert.Equal(t, SpawnRealizer, effect.Kind)
	assert.Equal(t, proposed.ID, effect.OutputID)
}

func TestScheduleDelayArmsSelfWakeOnly(t *testing.T) {
	delta, effect := Schedule(state.PlanIntent{Kind: state.Delay, DelayTicks: 5}, 1)
	assert.Nil(t, delta)
	assert.Equal(t, ArmSelfWake, effect.Kind)
	assert.EqualValues(t, 5, effect.WakeAfterTicks)
}

func TestScheduleAskClarificationLogsOnly(t *testing.T) {
	delta, effect := Schedule(state.PlanIntent{Kind: state.AskClarification, Context: "which one?"}, 1)
	require.NotNil(t, delta)
	proposed := delta.(state.OutputProposed)
	assert.Equal(t, "which one?", proposed.Content)
	assert.Equal(t, LogOnly, effect.Kind)
}

func TestScheduleReviseStatementCarriesRevisionOf(t *testing.T) {
	delta, effect := Schedule(state.PlanIntent{Kind: state.ReviseStatement, RefID: "o-prior", Correction: "actually..."}, 1)
	require.NotNil(t, delta)
	proposed := delta.(state.OutputProposed)
	assert.Equal(t, state.OutputId("o-prior"), proposed.RevisionOf)
	assert.Equal(t, SpawnRealizer, effect.Kind)
}

func TestScheduleDoNothingIsANoOp(t *testing.T) {
	delta, effect := Schedule(state.PlanIntent{Kind: state.DoNothing}, 1)
	assert.Nil(t, delta)
	assert.Equal(t, NoEffect, effect.Kind)
}
