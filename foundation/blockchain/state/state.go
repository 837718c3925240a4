// Package state is the core API for a single chain and implements all the
// business rules and processing for the accounts allocated to it.
package state

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shardlab/powshard/foundation/blockchain/consensus"
	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/blockchain/mempool"
	"github.com/shardlab/powshard/foundation/blockchain/validator"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
}

// =============================================================================

// SerialID is the shard id used by the chain that holds every account.
const SerialID = -1

// Config represents the configuration required to start a chain.
type Config struct {
	ShardID   int
	Genesis   genesis.Genesis
	Accounts  []database.Account
	EvHandler EventHandler
}

// State manages the ledger, mempool and chain for one set of accounts.
type State struct {
	shardID   int
	genesis   genesis.Genesis
	evHandler EventHandler

	// submit makes validate, enqueue and debit one step so two transactions
	// can't both pass validation against the same balance or nonce.
	submit sync.Mutex

	// mine serializes rounds. pending holds the transaction taken from the
	// mempool whose block hasn't been committed yet.
	mine    sync.Mutex
	pending atomic.Pointer[database.Tx]

	db        *database.Database
	mempool   *mempool.Mempool
	chain     *database.Chain
	validator *validator.Validator
	consensus *consensus.Coordinator

	Worker Worker
}

// New constructs a new chain for the specified accounts.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	db, err := database.New(cfg.Accounts)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	mp, err := mempool.New(cfg.Genesis.MempoolCapacity)
	if err != nil {
		return nil, fmt.Errorf("mempool: %w", err)
	}

	v, err := validator.New(validator.DefaultKeyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}

	coord, err := consensus.New(consensus.Config{
		Miners:     cfg.Genesis.Miners,
		Difficulty: cfg.Genesis.Difficulty,
		NonceWidth: cfg.Genesis.NonceWidth,
		Timeout:    cfg.Genesis.RoundTimeout,
		EvHandler:  ev,
	})
	if err != nil {
		return nil, fmt.Errorf("consensus: %w", err)
	}

	state := State{
		shardID:   cfg.ShardID,
		genesis:   cfg.Genesis,
		evHandler: ev,

		db:        db,
		mempool:   mp,
		chain:     database.NewChain(cfg.Genesis.Difficulty, ev),
		validator: v,
		consensus: coord,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the chain.

	return &state, nil
}

// Shutdown cleanly brings the chain down.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// ShardID returns the id of the shard this chain serves.
func (s *State) ShardID() int {
	return s.shardID
}

// =============================================================================

// ErrInvariant is used when the ledger refuses a debit the validator accepted.
var ErrInvariant = errors.New("ledger rejected a validated transaction")
