package main

import (
	"context"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arth-22/nexuscortex/core/intake"
	"github.com/arth-22/nexuscortex/core/memory"
	"github.com/arth-22/nexuscortex/core/memory/episodic"
	"github.com/arth-22/nexuscortex/core/memory/semantic"
	"github.com/arth-22/nexuscortex/core/persistence"
	"github.com/arth-22/nexuscortex/core/planner"
	"github.com/arth-22/nexuscortex/core/reactor"
	"github.com/arth-22/nexuscortex/core/scheduler"
	"github.com/arth-22/nexuscortex/core/state"
	"github.com/arth-22/nexuscortex/internal/config"
	"github.com/arth-22/nexuscortex/internal/telemetry"
	"github.com/arth-22/nexuscortex/internal/transport/httpapi"
	"github.com/arth-22/nexuscortex/internal/transport/ws"
)

// recordedEntries tracks every entry ever Put into the episodic or
// semantic store, since neither store interface (spec.md's contract is
// put/get_by_subject/top_k, not list-all) exposes a way to enumerate
// everything it holds. BackupManager's collect closure reads this record
// rather than querying the stores directly.
type recordedEntries struct {
	mu       sync.Mutex
	episodic map[string]memory.EpisodicEntry
	semantic map[string]memory.SemanticEntry
}

func newRecordedEntries() *recordedEntries {
	return &recordedEntries{episodic: make(map[string]memory.EpisodicEntry), semantic: make(map[string]memory.SemanticEntry)}
}

func (r *recordedEntries) snapshot() persistence.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := persistence.Snapshot{}
	for _, e := range r.episodic {
		snap.Episodic = append(snap.Episodic, e)
	}
	for _, e := range r.semantic {
		snap.Semantic = append(snap.Semantic, e)
	}
	return snap
}

// trackingEpisodicStore wraps a memory.EpisodicStore, mirroring every Put
// and Delete into the shared recordedEntries for backup purposes.
type trackingEpisodicStore struct {
	memory.EpisodicStore
	rec *recordedEntries
}

func (t trackingEpisodicStore) Put(ctx context.Context, entry memory.EpisodicEntry, ttl time.Duration) error {
	if err := t.EpisodicStore.Put(ctx, entry, ttl); err != nil {
		return err
	}
	t.rec.mu.Lock()
	t.rec.episodic[entry.ID] = entry
	t.rec.mu.Unlock()
	return nil
}

func (t trackingEpisodicStore) Delete(ctx context.Context, id string) error {
	if err := t.EpisodicStore.Delete(ctx, id); err != nil {
		return err
	}
	t.rec.mu.Lock()
	delete(t.rec.episodic, id)
	t.rec.mu.Unlock()
	return nil
}

// trackingSemanticStore wraps a memory.SemanticStore, mirroring every Put
// into the shared recordedEntries for backup purposes.
type trackingSemanticStore struct {
	memory.SemanticStore
	rec *recordedEntries
}

func (t trackingSemanticStore) Put(ctx context.Context, entry memory.SemanticEntry) error {
	if err := t.SemanticStore.Put(ctx, entry); err != nil {
		return err
	}
	t.rec.mu.Lock()
	t.rec.semantic[entry.ID] = entry
	t.rec.mu.Unlock()
	return nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reactor loop and its transports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), envFile)
		},
	}
}

// runDaemon owns SharedState as its single writer: it is the only
// goroutine that calls reactor.TickStep or mutates the state underneath
// it, matching the teacher pack's DefaultKernel single-owner shape.
func runDaemon(parent context.Context, envPath string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(envPath)
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(telemetry.LevelFromEnv())
	metrics, err := telemetry.New("nexuscortex")
	if err != nil {
		return err
	}
	defer metrics.Shutdown(context.Background())

	rec := newRecordedEntries()
	var backup *persistence.BackupManager

	episodicStore, err := episodic.New(ctx, "redis://"+cfg.RedisAddr+"/0")
	if err != nil {
		logger.Warn("episodic store unavailable, memory consolidation disabled", "error", err)
	}
	var consolidator *memory.Consolidator
	if episodicStore != nil {
		semanticStore, err := semantic.New(&persistence.DgraphConfig{Endpoint: cfg.DgraphAddr, RetryCount: 3, RetryDelay: 2 * time.Second})
		if err != nil {
			logger.Warn("semantic store unavailable, memory consolidation disabled", "error", err)
		} else {
			episodicTTL := time.Duration(cfg.EpisodicTTLTicks) * cfg.TickInterval
			tracked := trackingEpisodicStore{EpisodicStore: episodicStore, rec: rec}
			trackedSemantic := trackingSemanticStore{SemanticStore: semanticStore, rec: rec}
			consolidator = memory.NewConsolidator(tracked, trackedSemantic, episodicTTL, logger)

			backupPath := filepath.Join(cfg.SemanticStorePath, "memory-backup.json")
			backup = persistence.NewBackupManager(backupPath, true, time.Minute, rec.snapshot)
			backup.Start()
			defer backup.Stop()
		}
	}
	observer := memory.NewObserver(logger)

	plannerClient := planner.New(cfg.PlannerEndpoint, cfg.PlannerTimeout)

	rcfg := reactor.DefaultConfig()
	rcfg.TickMs = uint64(cfg.TickInterval.Milliseconds())
	rcfg.QuiescenceMinTicks = cfg.QuiescenceMinTicks
	rcfg.SoftCommitMinAgeTicks = cfg.SoftCommitMinAgeTicks
	rcfg.AttentiveWindowTicks = cfg.AttentiveWindowTicks
	rcfg.Intent.DissolutionThreshold = float32(cfg.DissolutionThreshold)

	react := reactor.New(rcfg, logger, observer, consolidator)

	s := state.New()
	inbox := make(intake.Inbox, 64)
	outbox := make(intake.Outbox, 64)

	hub := ws.NewHub(logger, inbox)
	// HTTP handlers read a snapshot the tick loop refreshes, never s itself.
	var snapMu sync.Mutex
	cachedSnap := state.ExtractSnapshot(s)
	httpSrv := httpapi.New(func() state.Snapshot {
		snapMu.Lock()
		defer snapMu.Unlock()
		return cachedSnap
	}, inbox)

	wsServer := &http.Server{Addr: cfg.WsAddr, Handler: hub}
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: httpSrv.Handler()}

	go func() {
		logger.Info("http api listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http api stopped", "error", err)
		}
	}()
	go func() {
		logger.Info("websocket hub listening", "addr", cfg.WsAddr)
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("websocket hub stopped", "error", err)
		}
	}()

	runner := intake.NewRunner(logger, func(ctx context.Context, effect scheduler.SideEffect) error {
		// Spawning a realizer only marks the output Draft with empty content;
		// the outbox hears about it once the crystallizer gate actually
		// commits it (reactor.EmitOutput below). Reporting SoftCommit here
		// would race and duplicate that path for every realizer spawned.
		logger.Debug("realizer spawned", "output_id", effect.OutputID)
		return nil
	}, func(ctx context.Context, effect scheduler.SideEffect) error {
		logger.Debug("self-wake armed", "wake_after_ticks", effect.WakeAfterTicks)
		return nil
	})

	go func() {
		for ev := range outbox {
			hub.Broadcast(ev)
		}
	}()

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	var pendingEvents []intake.InboundEvent
	var pendingResults []planner.Result

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
			wsServer.Shutdown(shutdownCtx)
			close(outbox)
			return nil

		case ev := <-inbox:
			pendingEvents = append(pendingEvents, ev)

		case res := <-plannerClient.Results():
			pendingResults = append(pendingResults, res)

		case <-ticker.C:
			metrics.RecordTick(ctx)
			outcome := react.TickStep(s, pendingEvents, pendingResults)
			snapMu.Lock()
			cachedSnap = state.ExtractSnapshot(s)
			snapMu.Unlock()
			pendingEvents = nil
			pendingResults = nil

			var schedulerEffects []scheduler.SideEffect
			for _, effect := range outcome.SideEffects {
				switch effect.Kind {
				case reactor.DispatchPlanner:
					plannerClient.Dispatch(effect.PlannerInput, effect.Epoch)
				case reactor.AbortPlanner:
					plannerClient.Abort(effect.Epoch)
				case reactor.PresenceUpdate:
					outbox <- intake.OutboundEvent{Kind: intake.OutboundPresenceUpdate, Presence: effect.Presence}
				case reactor.EmitOutput:
					outbox <- intake.OutboundEvent{Kind: intake.OutboundOutputEvent, OutputContent: effect.Content, OutputStatus: effect.OutputStatus}
				case reactor.Realize:
					schedulerEffects = append(schedulerEffects, scheduler.SideEffect{Kind: scheduler.SpawnRealizer, OutputID: effect.OutputID, Content: effect.Content})
				case reactor.ArmSelfWake:
					metrics.RecordCrystallizerDecision(ctx, "delay")
					schedulerEffects = append(schedulerEffects, scheduler.SideEffect{Kind: scheduler.ArmSelfWake, WakeAfterTicks: effect.WakeAfterTicks})
				case reactor.Log:
					logger.Info(effect.Message)
				}
			}
			if len(schedulerEffects) > 0 {
				if err := runner.Run(ctx, schedulerEffects); err != nil {
					logger.Warn("side effect runner reported an error", "error", err)
				}
			}
		}
	}
}
