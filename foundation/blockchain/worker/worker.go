// Package worker implements mining for a chain. A single goroutine takes
// transactions from the mempool in order and mines one block at a time.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/shardlab/powshard/foundation/blockchain/state"
)

// ErrShutdown is returned to callers waiting on a worker that was shut down.
var ErrShutdown = errors.New("worker is shut down")

// =============================================================================

// Worker manages the POW workflows for a chain.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan bool
	evHandler    state.EventHandler

	mu     sync.Mutex
	mining bool
	idle   []chan struct{}
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) *Worker {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	w := Worker{
		state:        st,
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan bool, 1),
		evHandler:    evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func() {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}()
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	// Pick up anything submitted before the worker was registered.
	if st.HasPendingWork() {
		w.SignalStartMining()
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// WaitIdle blocks until every accepted transaction has been mined into a
// block and no round is in flight.
func (w *Worker) WaitIdle(ctx context.Context) error {
	for {
		w.mu.Lock()
		if !w.mining && !w.state.HasPendingWork() {
			w.mu.Unlock()
			return nil
		}
		ch := make(chan struct{})
		w.idle = append(w.idle, ch)
		w.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shut:
			return ErrShutdown
		}
	}
}

// setMining records whether a round is in flight and wakes any goroutine
// waiting in WaitIdle when it finishes.
func (w *Worker) setMining(mining bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.mining = mining
	if mining {
		return
	}

	for _, ch := range w.idle {
		close(ch)
	}
	w.idle = nil
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
