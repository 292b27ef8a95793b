// Package intake implements the Event Intake & Side-Effect Runner (C12,
// spec.md §4.2 step 2, §5, §6): the typed inbox/outbox channels at the
// core's async edges, and the runner that executes a tick's collected
// SideEffect values outside the pure reactor step. Grounded on the
// teacher's errgroup-style fan-out (absent from the teacher itself but
// present across the pack, e.g. goadesign-goa-ai's worker pools) using
// golang.org/x/sync/errgroup, a teacher go.mod dependency the teacher
// never actually exercised.
package intake

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/arth-22/nexuscortex/core/planner"
	"github.com/arth-22/nexuscortex/core/scheduler"
	"github.com/arth-22/nexuscortex/core/state"
)

// UiCommandKind discriminates UiCommand's payload.
type UiCommandKind int

const (
	Attach UiCommandKind = iota
	Suspend
	Resume
	ToggleMic
	ConsentResolved
)

// ConsentDecision is the outcome of a user-facing memory-consent prompt.
type ConsentDecision int

const (
	ConsentGranted ConsentDecision = iota
	ConsentDeclined
	ConsentIgnored
)

// UiCommand is one inbound control message from the UI shell.
type UiCommand struct {
	Kind        UiCommandKind
	MicOn       bool
	ConsentKey  string
	Decision    ConsentDecision
}

// InboundKind discriminates InboundEvent.
type InboundKind int

const (
	InboundInput InboundKind = iota
	InboundPlanResult
	InboundUiCommand
)

// InboundEvent is the sum-typed payload the driver reads off the inbox.
type InboundEvent struct {
	Kind       InboundKind
	Input      state.InputEvent
	PlanResult planner.Result
	UiCommand  UiCommand
}

// Inbox is the external-to-core channel the driver's recv may suspend on
// (spec.md §5: the only suspension point in the driver loop).
type Inbox chan InboundEvent

// OutboundKind discriminates OutboundEvent.
type OutboundKind int

const (
	OutboundPresenceUpdate OutboundKind = iota
	OutboundOutputEvent
	OutboundContextSnapshot
	OutboundAskMemoryConsent
	OutboundAccessDenied
)

// ContextItem is one entry of a ContextSnapshot push.
type ContextItem struct {
	Content string
	Role    string
}

// OutboundEvent is one core-to-external UI event.
type OutboundEvent struct {
	Kind           OutboundKind
	Presence       state.PresenceState
	OutputContent  string
	OutputStatus   state.OutputStatus
	ContextItems   []ContextItem
	ConsentKey     string
}

// Outbox is the core-to-external channel of UI events.
type Outbox chan OutboundEvent

// Runner executes a tick's SideEffect values concurrently, outside the
// pure reactor step. Each side effect is handed to its registered handler
// and all handlers for one tick are awaited together; a handler's error
// is logged, never propagated back into SharedState (spec.md §7's
// propagation policy: recoverable errors stay local to the sidecar/effect
// that produced them).
type Runner struct {
	logger   *slog.Logger
	realize  func(ctx context.Context, effect scheduler.SideEffect) error
	selfWake func(ctx context.Context, effect scheduler.SideEffect) error
}

// NewRunner constructs a Runner. realize performs SpawnRealizer side
// effects (text/audio output realization); selfWake arms the reactor's
// self-wake timer for ArmSelfWake side effects. Either may be nil, in
// which case that effect kind is logged and dropped.
func NewRunner(logger *slog.Logger, realize, selfWake func(ctx context.Context, effect scheduler.SideEffect) error) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, realize: realize, selfWake: selfWake}
}

// Run executes effects concurrently and waits for all of them, returning
// the first error encountered (if any) purely for logging by the caller —
// it must never be fed back into Reduce.
func (r *Runner) Run(ctx context.Context, effects []scheduler.SideEffect) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, effect := range effects {
		effect := effect
		g.Go(func() error {
			return r.dispatch(gctx, effect)
		})
	}
	return g.Wait()
}

func (r *Runner) dispatch(ctx context.Context, effect scheduler.SideEffect) error {
	switch effect.Kind {
	case scheduler.NoEffect:
		return nil
	case scheduler.LogOnly:
		r.logger.Info("side effect", "message", effect.Message)
		return nil
	case scheduler.SpawnRealizer:
		if r.realize == nil {
			r.logger.Warn("no realizer registered", "output_id", effect.OutputID)
			return nil
		}
		if err := r.realize(ctx, effect); err != nil {
			r.logger.Error("realizer failed", "output_id", effect.OutputID, "error", err)
			return err
		}
		return nil
	case scheduler.ArmSelfWake:
		if r.selfWake == nil {
			r.logger.Warn("no self-wake handler registered", "wake_after_ticks", effect.WakeAfterTicks)
			return nil
		}
		if err := r.selfWake(ctx, effect); err != nil {
			r.logger.Error("self-wake arm failed", "error", err)
			return err
		}
		return nil
	default:
		return nil
	}
}
