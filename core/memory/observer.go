package memory

import (
	"log/slog"

	"github.com/arth-22/nexuscortex/core/clock"
	"github.com/arth-22/nexuscortex/core/latent"
)

// InputSummary is the minimal view of a perceived input the observer needs;
// it decouples this package from core/state to avoid an import cycle (state
// holds the working set this package populates).
type InputSummary struct {
	Source   string
	Text     string
	Modality latent.Modality
}

// Observer scans new inputs and stable latents each tick, synthesizing
// Claims and inserting or reinforcing working-set Candidates. It never
// touches the episodic or semantic stores directly — that is the
// Consolidator's job.
type Observer struct {
	logger *slog.Logger
}

func NewObserver(logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{logger: logger}
}

// Scan synthesizes claims from this tick's inputs and folds them into the
// working set, returning the updated set. Reinforcement of an existing
// candidate increments intensity by 0.5 rather than replacing it.
func (o *Observer) Scan(working map[string]Candidate, inputs []InputSummary, now clock.Tick) map[string]Candidate {
	next := make(map[string]Candidate, len(working))
	for k, v := range working {
		next[k] = v
	}

	for _, in := range inputs {
		if in.Text == "" {
			continue
		}
		claim := Claim{
			Subject:   EntityId(in.Source),
			Predicate: "said",
			Object:    TextValue(in.Text),
			Modality:  Observed,
			FirstSeen: now,
		}
		id := candidateID(claim.Subject, claim.Predicate)
		if existing, ok := next[id]; ok {
			next[id] = existing.Reinforce(now)
			continue
		}
		next[id] = NewCandidate(claim, now)
	}
	return next
}
