// Package reactor implements the per-tick step (C4, spec.md §4.2): the
// synchronous, non-suspending function that drains the inbox, runs the
// fixed sidecar order, settles in-flight plans, runs the crystallizer
// gate, and (if quiescent) dispatches a new plan. Every effectful
// operation is returned as a SideEffect value for the driver to perform;
// TickStep itself never performs I/O. Grounded on the teacher pack's
// pure-step driver pattern (other_examples' DefaultKernel: a step
// function returning side effects by value rather than performing them).
package reactor

import (
	"context"
	"log/slog"

	"github.com/arth-22/nexuscortex/core/crystallizer"
	"github.com/arth-22/nexuscortex/core/intake"
	"github.com/arth-22/nexuscortex/core/intent"
	"github.com/arth-22/nexuscortex/core/memory"
	"github.com/arth-22/nexuscortex/core/monitor"
	"github.com/arth-22/nexuscortex/core/planner"
	"github.com/arth-22/nexuscortex/core/presence"
	"github.com/arth-22/nexuscortex/core/scheduler"
	"github.com/arth-22/nexuscortex/core/state"
)

// SideEffectKind discriminates the effects TickStep can request of the
// driver, a superset of the scheduler's own (which are folded in
// verbatim) plus the reactor's own dispatch/presence effects.
type SideEffectKind int

const (
	Realize SideEffectKind = iota
	ArmSelfWake
	Log
	DispatchPlanner
	AbortPlanner
	PresenceUpdate
	EmitOutput
)

// SideEffect is one unit of work the driver must perform outside the
// pure step.
type SideEffect struct {
	Kind           SideEffectKind
	OutputID       state.OutputId
	Content        string
	WakeAfterTicks uint64
	Message        string
	Epoch          state.PlanningEpoch
	PlannerInput   crystallizer.PlannerSnapshot
	Presence       state.PresenceState
	OutputStatus   state.OutputStatus
}

// StepOutcome is TickStep's return value.
type StepOutcome struct {
	SideEffects []SideEffect
}

// Config aggregates every sub-component's environment-tunable constants
// (spec.md §6).
type Config struct {
	TickMs                 uint64
	QuiescenceMinTicks     uint64
	SoftCommitMinAgeTicks  uint64
	AttentiveWindowTicks   uint64
	Intent                 intent.Config
}

// DefaultConfig mirrors spec.md §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		TickMs:                50,
		QuiescenceMinTicks:    3,
		SoftCommitMinAgeTicks: 2,
		AttentiveWindowTicks:  50,
		Intent:                intent.DefaultConfig(),
	}
}

// Reactor holds the cross-tick counters the pure step needs (the epoch
// counter), the pending partial-cancellation ids the crystallizer gate
// produced last tick (consumed by this tick's Monitor call), and the
// memory subsystem's stateful stages (Observer, Consolidator own their
// stores; the reducer owns everything else).
type Reactor struct {
	cfg                    Config
	logger                 *slog.Logger
	observer               *memory.Observer
	consolidator           *memory.Consolidator
	nextEpoch              state.PlanningEpoch
	canceledPartialPending []state.OutputId
}

// New constructs a Reactor.
func New(cfg Config, logger *slog.Logger, observer *memory.Observer, consolidator *memory.Consolidator) *Reactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reactor{cfg: cfg, logger: logger, observer: observer, consolidator: consolidator}
}

// TickStep advances s by exactly one tick, applying events and deltas per
// spec.md §4.2's fixed order. planResults are any planner.Result values
// the driver already drained from the planner client's channel this
// cycle. It never blocks or performs I/O.
func (r *Reactor) TickStep(s *state.SharedState, events []intake.InboundEvent, planResults []planner.Result) StepOutcome {
	var effects []SideEffect

	// 1. Advance tick.
	state.Reduce(s, state.TickAdvanced{To: s.Tick.Next()})

	// 2. Drain inbox in arrival order.
	justInterrupted := false
	var newInputs []memory.InputSummary
	for _, ev := range events {
		switch ev.Kind {
		case intake.InboundInput:
			outcome := state.Reduce(s, state.InputReceived{Event: ev.Input})
			if outcome.JustInterrupted {
				justInterrupted = true
			}
			newInputs = append(newInputs, memory.InputSummary{
				Source:   ev.Input.Source,
				Text:     ev.Input.Content.Text,
				Modality: ev.Input.Modality(),
			})
		case intake.InboundUiCommand:
			r.applyUiCommand(s, ev.UiCommand, &effects)
		case intake.InboundPlanResult:
			planResults = append(planResults, ev.PlanResult)
		}
	}

	// Interruption supremacy: abort any active plan immediately.
	if justInterrupted && s.ActivePlanState != nil {
		epoch := s.ActivePlanState.Epoch
		state.Reduce(s, state.PlanAborted{Epoch: epoch})
		effects = append(effects, SideEffect{Kind: AbortPlanner, Epoch: epoch})
	}

	// 3a. Monitor. Consumes the partial-cancellation ids the crystallizer
	// gate produced on the previous tick (step 5 below), then clears them —
	// each cancellation is observed exactly once.
	snap := state.ExtractSnapshot(s)
	monitorCtx := monitor.TickContext{JustInterrupted: justInterrupted, OutputsJustCanceledPartial: r.canceledPartialPending}
	r.canceledPartialPending = nil
	for _, obs := range monitor.Evaluate(snap, monitorCtx) {
		state.Reduce(s, obs.Delta)
	}

	// 3b. Intent manager.
	snap = state.ExtractSnapshot(s)
	for _, upd := range intent.Step(snap, justInterrupted, r.cfg.Intent) {
		state.Reduce(s, upd)
	}

	// 3c. Memory observer + consolidator.
	if r.observer != nil {
		s.MemoryWorking = r.observer.Scan(s.MemoryWorking, newInputs, s.Tick)
	}
	if r.consolidator != nil {
		promoted := r.consolidator.Consolidate(context.Background(), s.MemoryWorking, s.Tick)
		for _, id := range promoted {
			delete(s.MemoryWorking, id)
		}
	}

	// 4. Plan settlement.
	for _, res := range planResults {
		outcome := state.Reduce(s, state.PlanResolved{Epoch: res.Epoch, Intent: res.Intent, Err: res.Err})
		if outcome.Rejected != nil {
			continue // stale epoch, discarded per spec.md §4.1
		}
		if res.Intent != nil {
			delta, effect := scheduler.Schedule(*res.Intent, res.Epoch)
			if delta != nil {
				state.Reduce(s, delta)
			}
			effects = append(effects, fromSchedulerEffect(effect))
		}
	}

	// 5. Crystallizer gate.
	snap = state.ExtractSnapshot(s)
	ccfg := crystallizer.Config{QuiescenceMinTicks: r.cfg.QuiescenceMinTicks, SoftCommitMinAgeTicks: r.cfg.SoftCommitMinAgeTicks, TickMs: r.cfg.TickMs}
	for id, out := range snap.Outputs {
		if out.Status != state.Draft {
			continue
		}
		decision := crystallizer.CheckGate(snap, out, ccfg)
		switch decision.Kind {
		case crystallizer.Deny:
			state.Reduce(s, state.OutputCanceled{ID: id})
			if out.Content != "" {
				r.canceledPartialPending = append(r.canceledPartialPending, id)
			}
		case crystallizer.AllowPartial:
			state.Reduce(s, state.OutputCommitted{ID: id, Level: state.Soft})
			effects = append(effects, SideEffect{Kind: EmitOutput, OutputID: id, OutputStatus: state.SoftCommit})
		case crystallizer.AllowHard:
			state.Reduce(s, state.OutputCommitted{ID: id, Level: state.Hard})
			effects = append(effects, SideEffect{Kind: EmitOutput, OutputID: id, OutputStatus: state.HardCommit})
		case crystallizer.Delay:
			effects = append(effects, SideEffect{Kind: ArmSelfWake, WakeAfterTicks: decision.MsDelay / max1(r.cfg.TickMs)})
		}
	}

	// 6. Planner dispatch.
	snap = state.ExtractSnapshot(s)
	if s.ActivePlanState == nil && r.isQuiescent(snap) {
		r.nextEpoch++
		epoch := r.nextEpoch
		state.Reduce(s, state.PlanDispatched{Epoch: epoch})
		plannerSnap := crystallizer.ExtractPlannerSnapshot(snap, nil)
		effects = append(effects, SideEffect{Kind: DispatchPlanner, Epoch: epoch, PlannerInput: plannerSnap})
	}

	// 7. Presence projection.
	pcfg := presence.Config{AttentiveWindowTicks: r.cfg.AttentiveWindowTicks}
	snap = state.ExtractSnapshot(s)
	next := presence.Of(snap, pcfg)
	if next != s.Presence {
		s.Presence = next
		effects = append(effects, SideEffect{Kind: PresenceUpdate, Presence: next})
	}

	return StepOutcome{SideEffects: effects}
}

// isQuiescent implements the glossary definition: no input in the last
// quiescence_min_ticks ticks and no Draft/SoftCommit output and no
// active_plan.
func (r *Reactor) isQuiescent(snap state.Snapshot) bool {
	if snap.ActivePlan != nil {
		return false
	}
	for _, o := range snap.Outputs {
		if o.Status == state.Draft || o.Status == state.SoftCommit {
			return false
		}
	}
	if len(snap.InputsRecent) == 0 {
		return true
	}
	last := snap.InputsRecent[len(snap.InputsRecent)-1]
	return snap.Tick.Since(last.Tick) >= r.cfg.QuiescenceMinTicks
}

func (r *Reactor) applyUiCommand(s *state.SharedState, cmd intake.UiCommand, effects *[]SideEffect) {
	switch cmd.Kind {
	case intake.Suspend:
		s.Suspended = true
	case intake.Resume:
		s.Suspended = false
	case intake.Attach:
		*effects = append(*effects, SideEffect{Kind: Log, Message: "ui attached"})
	case intake.ToggleMic:
		// Mic hardware state is an external adapter concern (spec.md §1's
		// out-of-scope list); the core only reacts to the audio events it
		// produces, not the toggle itself.
	case intake.ConsentResolved:
		if cmd.Decision != intake.ConsentGranted {
			delete(s.MemoryWorking, cmd.ConsentKey)
		}
	}
}

func fromSchedulerEffect(e scheduler.SideEffect) SideEffect {
	switch e.Kind {
	case scheduler.SpawnRealizer:
		return SideEffect{Kind: Realize, OutputID: e.OutputID, Content: e.Content}
	case scheduler.ArmSelfWake:
		return SideEffect{Kind: ArmSelfWake, WakeAfterTicks: e.WakeAfterTicks, Message: e.Message}
	case scheduler.LogOnly:
		return SideEffect{Kind: Log, Message: e.Message}
	default:
		return SideEffect{Kind: Log}
	}
}

func max1(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	return v
}

