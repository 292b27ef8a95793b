package state

import (
	"github.com/arth-22/nexuscortex/core/clock"
	"github.com/arth-22/nexuscortex/core/latent"
	"github.com/arth-22/nexuscortex/core/memory"
)

// RejectReason is the closed set of typed reasons Reduce can refuse a
// delta. Reduce never panics and never silently drops a delta it cannot
// apply; every refusal is reported here.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectUnknownOutput
	RejectTerminalOutput
	RejectRevisesHardCommit
	RejectUnknownIntent
	RejectDissolvedIntent
	RejectIntentAlreadyExists
	RejectNonSuccessorTick
	RejectStaleEpoch
	RejectNoActivePlan
)

func (r RejectReason) String() string {
	switch r {
	case RejectUnknownOutput:
		return "unknown_output"
	case RejectTerminalOutput:
		return "terminal_output"
	case RejectRevisesHardCommit:
		return "revises_hard_commit"
	case RejectUnknownIntent:
		return "unknown_intent"
	case RejectDissolvedIntent:
		return "dissolved_intent"
	case RejectIntentAlreadyExists:
		return "intent_already_exists"
	case RejectNonSuccessorTick:
		return "non_successor_tick"
	case RejectStaleEpoch:
		return "stale_epoch"
	case RejectNoActivePlan:
		return "no_active_plan"
	default:
		return "none"
	}
}

// ReduceOutcome reports how a delta was applied, beyond the mutated state
// itself, so the reactor can drive its own fixed sidecar order (spec.md
// §4.2) without re-deriving what just happened.
type ReduceOutcome struct {
	// Rejected is non-nil when the delta was refused. State is unchanged.
	Rejected *RejectReason
	// JustInterrupted is true when this delta was a user Text or
	// SpeechStart InputReceived, spec.md's primary interruption trigger.
	JustInterrupted bool
	// SupersededEpoch, set alongside JustInterrupted when a plan was
	// active, names the epoch the reactor should now treat as stale and
	// instruct the planner client to abort.
	SupersededEpoch *PlanningEpoch
	// CancelPriorEpoch is set on a PlanDispatched delta that replaced an
	// already-active plan, instructing the reactor to abort the client
	// call for the named epoch.
	CancelPriorEpoch *PlanningEpoch
}

func rejected(reason RejectReason) ReduceOutcome {
	r := reason
	return ReduceOutcome{Rejected: &r}
}

// Reduce applies delta to state in place and reports the outcome. It is
// pure with respect to everything except state's own fields: it never
// performs I/O, blocks, or suspends (spec.md §4.1's core invariant).
func Reduce(s *SharedState, d Delta) ReduceOutcome {
	switch delta := d.(type) {
	case InputReceived:
		return reduceInputReceived(s, delta)
	case OutputProposed:
		return reduceOutputProposed(s, delta)
	case OutputCommitted:
		return reduceOutputCommitted(s, delta)
	case OutputCanceled:
		return reduceOutputCanceled(s, delta)
	case TaskCanceled:
		return ReduceOutcome{}
	case VisualStateUpdate:
		return reduceVisualStateUpdate(s, delta)
	case LatentUpdate:
		return reduceLatentUpdate(s, delta)
	case MetaLatentUpdate:
		return reduceMetaLatentUpdate(s, delta)
	case IntentUpdate:
		return reduceIntentUpdate(s, delta)
	case TickAdvanced:
		return reduceTickAdvanced(s, delta)
	case PlanDispatched:
		return reducePlanDispatched(s, delta)
	case PlanResolved:
		return reducePlanResolved(s, delta)
	case PlanAborted:
		return reducePlanAborted(s, delta)
	default:
		return ReduceOutcome{}
	}
}

func reduceInputReceived(s *SharedState, d InputReceived) ReduceOutcome {
	if d.Event.DedupKey != "" {
		if _, seen := s.seenDedupKeys[d.Event.DedupKey]; seen {
			return ReduceOutcome{}
		}
	}

	s.InputsRecent = append(s.InputsRecent, TickedInput{Tick: s.Tick, Event: d.Event})
	if len(s.InputsRecent) > InputsRecentCapacity {
		s.InputsRecent = s.InputsRecent[len(s.InputsRecent)-InputsRecentCapacity:]
	}
	if d.Event.DedupKey != "" {
		if s.seenDedupKeys == nil {
			s.seenDedupKeys = make(map[string]struct{})
		}
		s.seenDedupKeys[d.Event.DedupKey] = struct{}{}
	}

	applyLatentObservation(s, d.Event)

	outcome := ReduceOutcome{}
	if d.Event.IsInterrupting() {
		outcome.JustInterrupted = true
		if s.ActivePlanState != nil {
			epoch := s.ActivePlanState.Epoch
			outcome.SupersededEpoch = &epoch
		}
	}
	return outcome
}

func applyLatentObservation(s *SharedState, e InputEvent) {
	key := e.Modality().String()
	existing, ok := s.Latents[key]
	if !ok {
		existing = latent.NewSlot(e.Modality(), nil, defaultDecayRate, s.Tick)
	}
	values := existing.Values
	confidence := existing.Confidence
	if e.Content.Kind == InputVisual {
		confidence = clamp01(1 - e.Content.VisualDistance)
	}
	s.Latents[key] = existing.Observe(values, confidence, s.Tick)
}

const defaultDecayRate = 0.05

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func reduceOutputProposed(s *SharedState, d OutputProposed) ReduceOutcome {
	if d.RevisionOf != "" {
		if prior, ok := s.Outputs[d.RevisionOf]; ok && prior.Status == HardCommit {
			return rejected(RejectRevisesHardCommit)
		}
	}
	s.Outputs[d.ID] = Output{
		ID:          d.ID,
		Content:     d.Content,
		Status:      Draft,
		ProposedAt:  s.Tick,
		OriginEpoch: d.OriginEpoch,
		RevisionOf:  d.RevisionOf,
	}
	return ReduceOutcome{}
}

func reduceOutputCommitted(s *SharedState, d OutputCommitted) ReduceOutcome {
	out, ok := s.Outputs[d.ID]
	if !ok {
		return rejected(RejectUnknownOutput)
	}
	if out.Status == HardCommit || out.Status == Canceled {
		return rejected(RejectTerminalOutput)
	}
	if d.Level == Hard {
		out.Status = HardCommit
	} else {
		out.Status = SoftCommit
	}
	tick := s.Tick
	out.CommittedAt = &tick
	s.Outputs[d.ID] = out
	return ReduceOutcome{}
}

func reduceOutputCanceled(s *SharedState, d OutputCanceled) ReduceOutcome {
	out, ok := s.Outputs[d.ID]
	if !ok {
		return rejected(RejectUnknownOutput)
	}
	if out.Status == HardCommit {
		return rejected(RejectTerminalOutput)
	}
	out.Status = Canceled
	s.Outputs[d.ID] = out
	return ReduceOutcome{}
}

func reduceVisualStateUpdate(s *SharedState, d VisualStateUpdate) ReduceOutcome {
	s.VisualHashLast = &VisualHashState{
		Hash:      d.Hash,
		Stability: clamp01(1 - d.Distance),
		LastTick:  s.Tick,
	}
	return ReduceOutcome{}
}

func reduceLatentUpdate(s *SharedState, d LatentUpdate) ReduceOutcome {
	existing, ok := s.Latents[d.SlotKey]
	if !ok {
		s.Latents[d.SlotKey] = latent.NewSlot(d.Modality, d.Values, d.DecayRate, s.Tick)
		return ReduceOutcome{}
	}
	s.Latents[d.SlotKey] = existing.Observe(d.Values, d.Confidence, s.Tick)
	return ReduceOutcome{}
}

func reduceMetaLatentUpdate(s *SharedState, d MetaLatentUpdate) ReduceOutcome {
	s.MetaLatents.ConfidencePenalty = clamp01(s.MetaLatents.ConfidencePenalty + d.ConfidencePenaltyDelta)
	s.MetaLatents.InterruptionSensitivity = clamp01(s.MetaLatents.InterruptionSensitivity + d.InterruptionSensitivityDelta)
	return ReduceOutcome{}
}

func reduceIntentUpdate(s *SharedState, d IntentUpdate) ReduceOutcome {
	existing, ok := s.Intents[d.ID]
	if d.Create {
		if ok {
			return rejected(RejectIntentAlreadyExists)
		}
		s.Intents[d.ID] = LongHorizonIntent{
			ID:             d.ID,
			Summary:        d.Summary,
			CreatedAt:      s.Tick,
			LastReinforced: s.Tick,
			Confidence:     d.Confidence,
			Status:         IntentActive,
		}
		return ReduceOutcome{}
	}
	if !ok {
		return rejected(RejectUnknownIntent)
	}
	if existing.Status == IntentDissolved {
		return rejected(RejectDissolvedIntent)
	}
	existing.Confidence = d.Confidence
	existing.Status = d.Status
	existing.LastReinforced = s.Tick
	s.Intents[d.ID] = existing
	return ReduceOutcome{}
}

func reduceTickAdvanced(s *SharedState, d TickAdvanced) ReduceOutcome {
	if d.To != s.Tick.Next() {
		return rejected(RejectNonSuccessorTick)
	}
	s.Tick = d.To
	return ReduceOutcome{}
}

func reducePlanDispatched(s *SharedState, d PlanDispatched) ReduceOutcome {
	outcome := ReduceOutcome{}
	if s.ActivePlanState != nil {
		prior := s.ActivePlanState.Epoch
		outcome.CancelPriorEpoch = &prior
	}
	s.ActivePlanState = &ActivePlan{Epoch: d.Epoch, StartedAt: s.Tick}
	return outcome
}

func reducePlanResolved(s *SharedState, d PlanResolved) ReduceOutcome {
	if s.ActivePlanState == nil || s.ActivePlanState.Epoch != d.Epoch {
		// Stale: a result for an epoch we've already moved past. Discarded,
		// not an error — this is the steady-state interruption path.
		return rejected(RejectStaleEpoch)
	}
	s.ActivePlanState = nil
	return ReduceOutcome{}
}

func reducePlanAborted(s *SharedState, d PlanAborted) ReduceOutcome {
	if s.ActivePlanState == nil || s.ActivePlanState.Epoch != d.Epoch {
		return rejected(RejectStaleEpoch)
	}
	s.ActivePlanState = nil
	return ReduceOutcome{}
}

// Snapshot is a read-only, deep-enough copy of SharedState for sidecars
// and the crystallizer gate: maps are copied, but values within them are
// not mutated by any snapshot consumer, so the copy is shallow below the
// top level.
type Snapshot struct {
	Tick          clock.Tick
	Latents       map[string]latent.Slot
	MetaLatents   MetaLatents
	InputsRecent  []TickedInput
	Outputs       map[OutputId]Output
	ActivePlan    *ActivePlan
	Intents       map[IntentId]LongHorizonIntent
	VisualHashLast *VisualHashState
	Presence      PresenceState
	MemoryWorking map[string]memory.Candidate
	Suspended     bool
}

// ExtractSnapshot copies the fields of s needed by the crystallizer gate
// and the read-only sidecars.
func ExtractSnapshot(s *SharedState) Snapshot {
	latents := make(map[string]latent.Slot, len(s.Latents))
	for k, v := range s.Latents {
		latents[k] = v
	}
	outputs := make(map[OutputId]Output, len(s.Outputs))
	for k, v := range s.Outputs {
		outputs[k] = v
	}
	intents := make(map[IntentId]LongHorizonIntent, len(s.Intents))
	for k, v := range s.Intents {
		intents[k] = v
	}
	inputs := make([]TickedInput, len(s.InputsRecent))
	copy(inputs, s.InputsRecent)

	var activePlan *ActivePlan
	if s.ActivePlanState != nil {
		cp := *s.ActivePlanState
		activePlan = &cp
	}
	var visual *VisualHashState
	if s.VisualHashLast != nil {
		cp := *s.VisualHashLast
		visual = &cp
	}

	working := make(map[string]memory.Candidate, len(s.MemoryWorking))
	for k, v := range s.MemoryWorking {
		working[k] = v
	}

	return Snapshot{
		Tick:           s.Tick,
		Latents:        latents,
		MetaLatents:    s.MetaLatents,
		InputsRecent:   inputs,
		Outputs:        outputs,
		ActivePlan:     activePlan,
		Intents:        intents,
		VisualHashLast: visual,
		Presence:       s.Presence,
		MemoryWorking:  working,
		Suspended:      s.Suspended,
	}
}
