package dispatch

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Catena/internal/mq"
)

// fakeHandle is a minimal chain.Handle for registry tests.
type fakeHandle struct {
	id      uuid.UUID
	pending bool
	runs    []uuid.UUID
}

func (h *fakeHandle) ID() uuid.UUID { return h.id }

func (h *fakeHandle) RunScheduledUnit(ctx context.Context, runID uuid.UUID) {
	h.runs = append(h.runs, runID)
}

func (h *fakeHandle) IsPending() bool { return h.pending }

func testDispatcher() *Dispatcher {
	return New(Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func stepReadyMessage(chainID, runID uuid.UUID) *mq.Message {
	return &mq.Message{
		ID:   uuid.New().String(),
		Type: mq.MessageTypeStepReady,
		Payload: map[string]any{
			"chain_id": chainID.String(),
			"run_id":   runID.String(),
		},
	}
}

// --- Dispatcher Tests ---

func TestNew(t *testing.T) {
	d := testDispatcher()

	if d.chains == nil {
		t.Error("chains registry should be initialized")
	}
	if d.IsStopped() {
		t.Error("should not be stopped initially")
	}
	if d.ActiveChainsCount() != 0 {
		t.Error("should have no active chains initially")
	}
}

func TestDispatcher_Registry(t *testing.T) {
	d := testDispatcher()
	h := &fakeHandle{id: uuid.New(), pending: true}

	if d.IsChainActive(h.id) {
		t.Error("chain should not be active initially")
	}

	d.register(h)

	if !d.IsChainActive(h.id) {
		t.Error("chain should be active after register")
	}
	if d.ActiveChainsCount() != 1 {
		t.Errorf("expected 1 active chain, got %d", d.ActiveChainsCount())
	}

	// Re-register is a no-op
	d.register(h)
	if d.ActiveChainsCount() != 1 {
		t.Errorf("re-register should not duplicate, got %d", d.ActiveChainsCount())
	}

	d.unregister(h.id)
	if d.IsChainActive(h.id) {
		t.Error("chain should not be active after unregister")
	}
}

func TestDispatcher_HandleStepReady(t *testing.T) {
	d := testDispatcher()
	h := &fakeHandle{id: uuid.New(), pending: true}
	d.register(h)

	runID := uuid.New()
	err := d.handleStepReady(context.Background(), stepReadyMessage(h.id, runID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.runs) != 1 || h.runs[0] != runID {
		t.Errorf("handle should be re-entered with the delivery's run ID, got %v", h.runs)
	}

	// Chain still pending: stays registered
	if !d.IsChainActive(h.id) {
		t.Error("pending chain should stay in the registry")
	}
}

func TestDispatcher_HandleStepReady_EvictsTerminal(t *testing.T) {
	d := testDispatcher()
	h := &fakeHandle{id: uuid.New(), pending: false}
	d.register(h)

	err := d.handleStepReady(context.Background(), stepReadyMessage(h.id, uuid.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.IsChainActive(h.id) {
		t.Error("terminal chain should be evicted from the registry")
	}
}

func TestDispatcher_HandleStepReady_UnknownChain(t *testing.T) {
	d := testDispatcher()

	// Unknown chain is acked and dropped, not an error
	err := d.handleStepReady(context.Background(), stepReadyMessage(uuid.New(), uuid.New()))
	if err != nil {
		t.Errorf("unknown chain should not be an error, got %v", err)
	}
}

func TestDispatcher_ScheduleNext_Stopped(t *testing.T) {
	d := testDispatcher()

	d.stoppedMu.Lock()
	d.stopped = true
	d.stoppedMu.Unlock()

	h := &fakeHandle{id: uuid.New(), pending: true}
	if err := d.ScheduleNext(context.Background(), h); err != ErrDispatcherStopped {
		t.Errorf("expected ErrDispatcherStopped, got %v", err)
	}
}
