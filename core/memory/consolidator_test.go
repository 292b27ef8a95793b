package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arth-22/nexuscortex/core/clock"
)

type fakeEpisodicStore struct {
	entries map[string]EpisodicEntry
	deleted []string
}

func newFakeEpisodicStore() *fakeEpisodicStore {
	return &fakeEpisodicStore{entries: make(map[string]EpisodicEntry)}
}

func (f *fakeEpisodicStore) Put(ctx context.Context, entry EpisodicEntry, ttl time.Duration) error {
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeEpisodicStore) GetBySubject(ctx context.Context, subject EntityId) ([]EpisodicEntry, error) {
	var out []EpisodicEntry
	for _, e := range f.entries {
		if e.Claim.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEpisodicStore) TopK(ctx context.Context, queryEmbedding []float32, k int) ([]EpisodicEntry, error) {
	return nil, nil
}

func (f *fakeEpisodicStore) Delete(ctx context.Context, id string) error {
	delete(f.entries, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSemanticStore struct {
	entries map[string]SemanticEntry
}

func newFakeSemanticStore() *fakeSemanticStore {
	return &fakeSemanticStore{entries: make(map[string]SemanticEntry)}
}

func (f *fakeSemanticStore) Put(ctx context.Context, entry SemanticEntry) error {
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeSemanticStore) GetBySubject(ctx context.Context, subject EntityId) ([]SemanticEntry, error) {
	var out []SemanticEntry
	for _, e := range f.entries {
		if e.Claim.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSemanticStore) TopK(ctx context.Context, queryEmbedding []float32, k int) ([]SemanticEntry, error) {
	return nil, nil
}

func TestConsolidatePromotesByAge(t *testing.T) {
	episodic := newFakeEpisodicStore()
	semantic := newFakeSemanticStore()
	c := NewConsolidator(episodic, semantic, time.Hour, nil)

	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea")}
	cand := NewCandidate(claim, clock.Tick(0))

	promoted := c.Consolidate(context.Background(), map[string]Candidate{cand.ID: cand}, clock.Tick(10))

	require.Len(t, promoted, 1)
	assert.Contains(t, episodic.entries, cand.ID)
}

func TestConsolidatePromotesByIntensity(t *testing.T) {
	episodic := newFakeEpisodicStore()
	semantic := newFakeSemanticStore()
	c := NewConsolidator(episodic, semantic, time.Hour, nil)

	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea"), Intensity: 5}
	cand := Candidate{ID: "echo\x00likes", Claim: claim, FirstSeen: clock.Tick(0), LastSeen: clock.Tick(0)}

	promoted := c.Consolidate(context.Background(), map[string]Candidate{cand.ID: cand}, clock.Tick(1))

	require.Len(t, promoted, 1)
	assert.Contains(t, episodic.entries, cand.ID)
}

func TestConsolidateReinforcesRatherThanDuplicatesAnExistingEpisodicEntry(t *testing.T) {
	episodic := newFakeEpisodicStore()
	semantic := newFakeSemanticStore()
	c := NewConsolidator(episodic, semantic, time.Hour, nil)

	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea")}
	existing := PromoteToEpisodic(NewCandidate(claim, clock.Tick(0)))
	episodic.entries[existing.ID] = existing

	// The observer re-synthesizes the same (subject, predicate) claim on a
	// later tick, after the original working-set candidate was already
	// removed by its first promotion.
	cand := NewCandidate(claim, clock.Tick(20))

	promoted := c.Consolidate(context.Background(), map[string]Candidate{cand.ID: cand}, clock.Tick(20))

	require.Len(t, promoted, 1)
	assert.Equal(t, 2, episodic.entries[existing.ID].Occurrences, "a repeat observation should reinforce, not re-promote a duplicate")
}

func TestConsolidateLeavesFreshLowIntensityCandidatesUnpromoted(t *testing.T) {
	episodic := newFakeEpisodicStore()
	semantic := newFakeSemanticStore()
	c := NewConsolidator(episodic, semantic, time.Hour, nil)

	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea")}
	cand := NewCandidate(claim, clock.Tick(0))

	promoted := c.Consolidate(context.Background(), map[string]Candidate{cand.ID: cand}, clock.Tick(1))

	assert.Empty(t, promoted)
	assert.Empty(t, episodic.entries)
}

func TestReinforceIncrementsOccurrencesWithoutPromotingBelowThreshold(t *testing.T) {
	episodic := newFakeEpisodicStore()
	semantic := newFakeSemanticStore()
	c := NewConsolidator(episodic, semantic, time.Hour, nil)

	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea"), Intensity: 2, Modality: Asserted}
	entry := PromoteToEpisodic(NewCandidate(claim, clock.Tick(0)))
	entry.Claim.Intensity = 2

	err := c.Reinforce(context.Background(), entry, clock.Tick(1))

	require.NoError(t, err)
	assert.Equal(t, 2, episodic.entries[entry.ID].Occurrences)
	assert.Empty(t, semantic.entries)
}

func TestReinforcePromotesToSemanticOnceEligible(t *testing.T) {
	episodic := newFakeEpisodicStore()
	semantic := newFakeSemanticStore()
	c := NewConsolidator(episodic, semantic, time.Hour, nil)

	claim := Claim{Subject: "echo", Predicate: "likes", Object: TextValue("tea"), Intensity: 3, Modality: Asserted}
	entry := PromoteToEpisodic(NewCandidate(claim, clock.Tick(0)))
	entry.Claim.Intensity = 3 // NewCandidate resets intensity to 1.0
	entry.Occurrences = 1

	err := c.Reinforce(context.Background(), entry, clock.Tick(5))

	require.NoError(t, err)
	assert.Contains(t, semantic.entries, entry.ID)
	assert.NotContains(t, episodic.entries, entry.ID)
	assert.Contains(t, episodic.deleted, entry.ID)
}
