package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/arth-22/nexuscortex/core/clock"
)

// workingToEpisodicAgeTicks and workingToEpisodicIntensity are the two
// promotion triggers from spec.md §4.6: age OR intensity, whichever fires
// first.
const (
	workingToEpisodicAgeTicks  = 5
	workingToEpisodicIntensity = 3.0
	episodicMinConfidence      = 0.9
	episodicMinOccurrences     = 2
)

// Consolidator promotes working-set candidates into the episodic store and
// episodic entries into the semantic store, per spec.md §4.6's rules. It
// promotes only when called: Consolidate moves candidates into the
// episodic store, and Reinforce moves an eligible episodic entry into the
// semantic store. Both write to the stores it was built with.
type Consolidator struct {
	episodic     EpisodicStore
	semantic     SemanticStore
	episodicTTL  time.Duration
	logger       *slog.Logger
}

func NewConsolidator(episodic EpisodicStore, semantic SemanticStore, episodicTTL time.Duration, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{episodic: episodic, semantic: semantic, episodicTTL: episodicTTL, logger: logger}
}

// Consolidate walks the working set. For each candidate it first checks
// whether the episodic store already holds an entry for the same
// (subject, predicate) — i.e. the observer re-synthesized a claim it has
// seen before, in a previous occurrence window — and if so reinforces
// that entry instead of re-promoting a duplicate. Only genuinely new
// candidates are evaluated against the age/intensity promotion
// thresholds. It returns the working-set IDs that were promoted or
// reinforced (and so should be removed from SharedState.memory_working
// by the caller, since their evidence now lives in the episodic store).
func (c *Consolidator) Consolidate(ctx context.Context, working map[string]Candidate, now clock.Tick) (promoted []string) {
	for id, cand := range working {
		existing, err := c.matchingEpisodicEntry(ctx, cand)
		if err != nil {
			c.logger.Error("episodic lookup failed", "id", id, "error", err)
			continue
		}
		if existing != nil {
			if err := c.Reinforce(ctx, *existing, now); err != nil {
				c.logger.Error("reinforcement failed", "id", id, "error", err)
				continue
			}
			promoted = append(promoted, id)
			continue
		}

		age := now.Since(cand.FirstSeen)
		if age > workingToEpisodicAgeTicks || cand.Claim.Intensity > workingToEpisodicIntensity {
			entry := PromoteToEpisodic(cand)
			if err := c.episodic.Put(ctx, entry, c.episodicTTL); err != nil {
				c.logger.Error("episodic promotion failed", "id", id, "error", err)
				continue
			}
			promoted = append(promoted, id)
		}
	}
	return promoted
}

// matchingEpisodicEntry looks up whether cand's (subject, predicate) pair
// already has an episodic entry, identified by the shared candidate/entry
// ID derivation. A nil, nil result means no match, not an error.
func (c *Consolidator) matchingEpisodicEntry(ctx context.Context, cand Candidate) (*EpisodicEntry, error) {
	entries, err := c.episodic.GetBySubject(ctx, cand.Claim.Subject)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == cand.ID {
			return &e, nil
		}
	}
	return nil, nil
}

// Reinforce is called when the observer finds evidence matching an entry
// already in the episodic store; it increments occurrences and may trigger
// semantic promotion.
func (c *Consolidator) Reinforce(ctx context.Context, entry EpisodicEntry, now clock.Tick) error {
	entry.Occurrences++
	entry.LastSeen = now
	if err := c.episodic.Put(ctx, entry, c.episodicTTL); err != nil {
		return err
	}
	if c.eligibleForSemantic(entry) {
		sem := PromoteToSemantic(entry, now)
		if err := c.semantic.Put(ctx, sem); err != nil {
			c.logger.Error("semantic promotion failed", "id", entry.ID, "error", err)
			return err
		}
		if err := c.episodic.Delete(ctx, entry.ID); err != nil {
			c.logger.Warn("failed to clear promoted episodic entry", "id", entry.ID, "error", err)
		}
	}
	return nil
}

func (c *Consolidator) eligibleForSemantic(e EpisodicEntry) bool {
	return e.Claim.Confidence() > episodicMinConfidence &&
		e.Claim.Modality == Asserted &&
		e.Occurrences >= episodicMinOccurrences
}
