package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arth-22/nexuscortex/core/clock"
)

func TestNewCandidateSeedsFullIntensity(t *testing.T) {
	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea")}
	cand := NewCandidate(claim, clock.Tick(5))

	assert.Equal(t, float32(1.0), cand.Claim.Intensity)
	assert.Equal(t, clock.Tick(5), cand.FirstSeen)
	assert.Equal(t, clock.Tick(5), cand.LastSeen)
	assert.Equal(t, "echo\x00likes", cand.ID)
}

func TestReinforceIncrementsIntensityAndLastSeen(t *testing.T) {
	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea")}
	cand := NewCandidate(claim, clock.Tick(0))
	next := cand.Reinforce(clock.Tick(3))

	assert.Equal(t, float32(1.5), next.Claim.Intensity)
	assert.Equal(t, clock.Tick(3), next.LastSeen)
	assert.Equal(t, clock.Tick(0), next.FirstSeen)
}

func TestConfidenceSaturatesAtMaxIntensityNorm(t *testing.T) {
	claim := Claim{Intensity: maxIntensityNorm * 2}
	assert.Equal(t, float32(1), claim.Confidence())

	claim.Intensity = maxIntensityNorm / 2
	assert.InDelta(t, float32(0.5), claim.Confidence(), 0.0001)

	claim.Intensity = -1
	assert.Equal(t, float32(0), claim.Confidence())
}

func TestPromoteToEpisodicStartsAtOneOccurrence(t *testing.T) {
	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea")}
	cand := NewCandidate(claim, clock.Tick(0))
	entry := PromoteToEpisodic(cand)

	assert.Equal(t, 1, entry.Occurrences)
	assert.Equal(t, cand.ID, entry.ID)
}

func TestPromoteToSemanticRecordsStableSinceTick(t *testing.T) {
	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea")}
	entry := PromoteToEpisodic(NewCandidate(claim, clock.Tick(0)))
	semantic := PromoteToSemantic(entry, clock.Tick(42))

	assert.Equal(t, clock.Tick(42), semantic.StableSince)
	assert.Equal(t, entry.ID, semantic.ID)
}

func TestClaimValueConstructorsSetKind(t *testing.T) {
	assert.Equal(t, ValueText, TextValue("x").Kind)
	assert.Equal(t, ValueNumber, NumberValue(3).Kind)
	assert.Equal(t, ValueEntityRef, RefValue("echo").Kind)
}
