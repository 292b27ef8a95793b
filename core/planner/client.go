// Package planner implements the Async Planner Client (C8, spec.md §4.4):
// the only component allowed to perform network I/O. Dispatch runs on its
// own goroutine per epoch and reports completion on an inbound channel
// the reactor drains on its next tick; Abort is cooperative and
// epoch-correlated, grounded on the teacher's core/llm HTTP provider
// shape (anthropic_provider.go's context-carrying POST) and its
// ProviderStats bookkeeping (core/llm/multi_provider.go).
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/arth-22/nexuscortex/core/crystallizer"
	"github.com/arth-22/nexuscortex/core/state"
)

// Result is delivered on the client's Results channel; it is the wire
// equivalent of spec.md's PlanResolved delta.
type Result struct {
	Epoch  state.PlanningEpoch
	Intent *state.PlanIntent
	Err    state.PlannerErrorKind
}

// Stats mirrors the teacher's ProviderStats shape, scoped to this single
// planner endpoint rather than a provider set.
type Stats struct {
	TotalDispatches int64
	Succeeded       int64
	Failed          int64
	TotalLatency    time.Duration
	LastDispatchAt  time.Time
}

// Client dispatches planner requests over HTTP and correlates results by
// PlanningEpoch for cancellation.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	results    chan Result

	mu      sync.Mutex
	cancels map[state.PlanningEpoch]context.CancelFunc
	stats   Stats
}

// New constructs a Client. timeout is the per-dispatch deadline (spec.md
// §6's planner_timeout_ms, default 200ms).
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		timeout:    timeout,
		results:    make(chan Result, 8),
		cancels:    make(map[state.PlanningEpoch]context.CancelFunc),
	}
}

// Results returns the channel the reactor's driver drains on its next
// tick to emit PlanResolved.
func (c *Client) Results() <-chan Result { return c.results }

type wireRequest struct {
	Epoch    uint64                        `json:"epoch"`
	Tick     uint64                        `json:"tick"`
	Inputs   []crystallizer.InputSummary   `json:"recent_inputs"`
	Intents  []wireIntent                  `json:"active_intents"`
}

type wireIntent struct {
	ID         string  `json:"id"`
	Summary    string  `json:"summary"`
	Confidence float32 `json:"confidence"`
}

type wireResponse struct {
	Kind       string  `json:"kind"`
	Confidence float32 `json:"confidence,omitempty"`
	DelayTicks uint64  `json:"delay_ticks,omitempty"`
	Context    string  `json:"context,omitempty"`
	RefID      string  `json:"ref_id,omitempty"`
	Correction string  `json:"correction,omitempty"`
}

func (w wireResponse) toIntent() (state.PlanIntent, error) {
	switch w.Kind {
	case "begin_response":
		return state.PlanIntent{Kind: state.BeginResponse, Confidence: w.Confidence}, nil
	case "delay":
		return state.PlanIntent{Kind: state.Delay, DelayTicks: w.DelayTicks}, nil
	case "ask_clarification":
		return state.PlanIntent{Kind: state.AskClarification, Context: w.Context}, nil
	case "revise_statement":
		return state.PlanIntent{Kind: state.ReviseStatement, RefID: state.OutputId(w.RefID), Correction: w.Correction}, nil
	case "do_nothing":
		return state.PlanIntent{Kind: state.DoNothing}, nil
	default:
		return state.PlanIntent{}, fmt.Errorf("unrecognized intent kind %q", w.Kind)
	}
}

// Dispatch starts an asynchronous planner request for epoch and returns
// immediately; the result (success or typed error) eventually appears on
// Results(). Dispatch never blocks the caller — spec.md's reactor must
// remain strictly synchronous.
func (c *Client) Dispatch(snap crystallizer.PlannerSnapshot, epoch state.PlanningEpoch) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)

	c.mu.Lock()
	c.cancels[epoch] = cancel
	c.stats.TotalDispatches++
	c.stats.LastDispatchAt = time.Now()
	c.mu.Unlock()

	go c.run(ctx, cancel, snap, epoch)
}

func (c *Client) run(ctx context.Context, cancel context.CancelFunc, snap crystallizer.PlannerSnapshot, epoch state.PlanningEpoch) {
	start := time.Now()
	defer func() {
		c.mu.Lock()
		c.stats.TotalLatency += time.Since(start)
		delete(c.cancels, epoch)
		c.mu.Unlock()
		cancel()
	}()

	intent, errKind := c.call(ctx, snap, epoch)

	c.mu.Lock()
	if errKind == state.PlannerErrNone {
		c.stats.Succeeded++
	} else {
		c.stats.Failed++
	}
	c.mu.Unlock()

	result := Result{Epoch: epoch, Err: errKind}
	if errKind == state.PlannerErrNone {
		result.Intent = intent
	}
	c.results <- result
}

func (c *Client) call(ctx context.Context, snap crystallizer.PlannerSnapshot, epoch state.PlanningEpoch) (*state.PlanIntent, state.PlannerErrorKind) {
	wireIntents := make([]wireIntent, 0, len(snap.ActiveIntents))
	for _, i := range snap.ActiveIntents {
		wireIntents = append(wireIntents, wireIntent{ID: string(i.ID), Summary: i.Summary, Confidence: i.Confidence})
	}
	reqBody, err := json.Marshal(wireRequest{
		Epoch:   uint64(epoch),
		Tick:    snap.Tick,
		Inputs:  snap.RecentInputs,
		Intents: wireIntents,
	})
	if err != nil {
		return nil, state.PlannerErrMalformed
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, state.PlannerErrTransport
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, state.PlannerErrTimeout
		}
		if ctx.Err() == context.Canceled {
			return nil, state.PlannerErrAborted
		}
		return nil, state.PlannerErrTransport
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, state.PlannerErrTransport
	}
	if resp.StatusCode != http.StatusOK {
		return nil, state.PlannerErrTransport
	}

	var wireResp wireResponse
	if err := json.Unmarshal(body, &wireResp); err != nil {
		return nil, state.PlannerErrMalformed
	}
	planIntent, err := wireResp.toIntent()
	if err != nil {
		return nil, state.PlannerErrMalformed
	}
	return &planIntent, state.PlannerErrNone
}

// Abort best-effort cancels a prior dispatch for epoch. Idempotent and
// safe to call from any goroutine; aborting an unknown or already-
// completed epoch is a no-op.
func (c *Client) Abort(epoch state.PlanningEpoch) {
	c.mu.Lock()
	cancel, ok := c.cancels[epoch]
	if ok {
		delete(c.cancels, epoch)
	}
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

// StatsSnapshot returns a copy of the client's bookkeeping, the same
// copy-don't-share-the-lock shape as the teacher's GetStats.
func (c *Client) StatsSnapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
