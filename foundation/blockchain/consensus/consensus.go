// Package consensus runs the mining race for a single block. Several miners
// search for a nonce at the same time and the block is only committed once a
// majority of them have reported.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shardlab/powshard/foundation/blockchain/miner"
	"github.com/shardlab/powshard/foundation/blockchain/signature"
)

// ErrRoundTimeout is returned when a majority of miners didn't report before
// the round deadline. Nothing is committed and the round can be run again.
var ErrRoundTimeout = errors.New("consensus round timed out")

// Phase represents where the coordinator is in a round.
type Phase int32

// Set of phases a round moves through.
const (
	Idle Phase = iota
	Racing
	Converged
	Committed
)

func (p Phase) String() string {
	switch p {
	case Racing:
		return "racing"
	case Converged:
		return "converged"
	case Committed:
		return "committed"
	default:
		return "idle"
	}
}

// Majority returns the number of reports needed out of n miners.
func Majority(n int) int {
	return n/2 + 1
}

// =============================================================================

// Config represents the settings for a coordinator.
type Config struct {
	Miners     int
	Difficulty int
	NonceWidth int
	Timeout    time.Duration
	EvHandler  func(v string, args ...any)
}

// Result describes a round that reached majority.
type Result struct {
	MinerID  int
	Nonce    []byte
	Hash     []byte
	Reports  int
	Attempts uint64
	Duration time.Duration
}

// Coordinator runs mining rounds. Only one round runs at a time.
type Coordinator struct {
	cfg       Config
	evHandler func(v string, args ...any)
	round     sync.Mutex
	phase     atomic.Int32
	attempts  atomic.Uint64
	rounds    atomic.Uint64
}

// New constructs a coordinator. The number of miners is bounded by the
// available parallelism so every miner can run at the same time.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Miners < 1 {
		return nil, fmt.Errorf("miners must be at least 1, got %d", cfg.Miners)
	}
	if cfg.Difficulty < 0 {
		return nil, fmt.Errorf("difficulty can't be negative, got %d", cfg.Difficulty)
	}
	if cfg.NonceWidth < 1 {
		return nil, fmt.Errorf("nonce width must be at least 1, got %d", cfg.NonceWidth)
	}

	ev := cfg.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	if procs := runtime.GOMAXPROCS(0); cfg.Miners > procs {
		ev("consensus: New: miners[%d]: bounded by parallelism[%d]", cfg.Miners, procs)
		cfg.Miners = procs
	}

	c := Coordinator{
		cfg:       cfg,
		evHandler: ev,
	}

	return &c, nil
}

// Miners returns the number of miners that race in every round.
func (c *Coordinator) Miners() int {
	return c.cfg.Miners
}

// Majority returns the number of reports needed to commit a block.
func (c *Coordinator) Majority() int {
	return Majority(c.cfg.Miners)
}

// Phase returns the phase of the current round.
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

// Attempts returns the number of nonces tried across all rounds.
func (c *Coordinator) Attempts() uint64 {
	return c.attempts.Load()
}

// Rounds returns the number of rounds that committed a block.
func (c *Coordinator) Rounds() uint64 {
	return c.rounds.Load()
}

// Run races the miners against the header. Once a majority has reported, the
// remaining miners are cancelled and commit is called with the first nonce
// reported. Run doesn't return until every miner has stopped.
func (c *Coordinator) Run(ctx context.Context, header miner.Header, commit func(Result) error) (Result, error) {
	c.round.Lock()
	defer c.round.Unlock()

	defer c.setPhase(Idle)

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	before := c.attempts.Load()

	c.setPhase(Racing)

	results := make(chan miner.Found, c.cfg.Miners)

	var wg sync.WaitGroup
	for id := range c.cfg.Miners {
		wg.Add(1)
		go func() {
			defer wg.Done()

			mcfg := miner.Config{
				ID:         id,
				Difficulty: c.cfg.Difficulty,
				NonceWidth: c.cfg.NonceWidth,
				Attempts:   &c.attempts,
				EvHandler:  c.evHandler,
			}

			found, err := miner.Mine(ctx, mcfg, header)
			if err != nil {
				return
			}
			results <- found
		}()
	}

	var canonical miner.Found
	reports := 0
	majority := c.Majority()

	for reports < majority {
		select {
		case found := <-results:
			if reports == 0 {
				canonical = found
			}
			reports++
			c.evHandler("consensus: Run: report: miner[%d]: reports[%d/%d]", found.MinerID, reports, majority)

		case <-ctx.Done():
			cancel()
			wg.Wait()

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				c.evHandler("consensus: Run: TIMEOUT: reports[%d/%d]", reports, majority)
				return Result{}, fmt.Errorf("%w: %d of %d reports", ErrRoundTimeout, reports, majority)
			}
			return Result{}, ctx.Err()
		}
	}

	c.setPhase(Converged)

	cancel()
	wg.Wait()

	res := Result{
		MinerID:  canonical.MinerID,
		Nonce:    canonical.Nonce,
		Hash:     canonical.Hash,
		Reports:  reports,
		Attempts: c.attempts.Load() - before,
		Duration: time.Since(start),
	}

	c.evHandler("consensus: Run: converged: hash[%s]: attempts[%d]", signature.ToHex(res.Hash), res.Attempts)

	if commit != nil {
		if err := commit(res); err != nil {
			return Result{}, fmt.Errorf("commit: %w", err)
		}
	}

	c.setPhase(Committed)
	c.rounds.Add(1)

	return res, nil
}

func (c *Coordinator) setPhase(p Phase) {
	c.phase.Store(int32(p))
	c.evHandler("consensus: phase: %s", p)
}
