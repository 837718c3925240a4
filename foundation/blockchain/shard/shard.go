// Package shard splits the accounts of a network across independent chains.
// Every shard has its own ledger, mempool, chain and miners. Nothing is shared
// between shards.
package shard

import (
	"context"
	"errors"
	"fmt"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/blockchain/state"
	"github.com/shardlab/powshard/foundation/blockchain/worker"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownShard is returned for a shard id outside the allocated range.
var ErrUnknownShard = errors.New("unknown shard")

// Allocate partitions the accounts, in order, into min(maxShards, len(ids))
// contiguous groups. The remainder goes one account at a time to the earliest
// groups, so 7 accounts over 3 shards gives sizes 3, 2 and 2.
func Allocate(ids []database.AccountID, maxShards int) ([][]database.AccountID, error) {
	if maxShards <= 0 {
		return nil, fmt.Errorf("max shards must be positive, got %d", maxShards)
	}
	if len(ids) == 0 {
		return nil, errors.New("no accounts to allocate")
	}

	n := min(maxShards, len(ids))
	size := len(ids) / n
	extra := len(ids) % n

	groups := make([][]database.AccountID, n)
	start := 0
	for i := range n {
		end := start + size
		if i < extra {
			end++
		}

		groups[i] = append([]database.AccountID(nil), ids[start:end]...)
		start = end
	}

	return groups, nil
}

// =============================================================================

// Config represents the configuration required to build the shards.
type Config struct {
	Genesis   genesis.Genesis
	Accounts  []database.Account
	EvHandler state.EventHandler
}

// Router owns the shards and sends each transaction to the one it names.
type Router struct {
	shards  []*state.State
	workers []*worker.Worker
	index   map[database.AccountID]int
}

// New allocates the accounts and starts a chain and worker per shard.
func New(cfg Config) (*Router, error) {
	ids := make([]database.AccountID, len(cfg.Accounts))
	byID := make(map[database.AccountID]database.Account, len(cfg.Accounts))
	for i, account := range cfg.Accounts {
		ids[i] = account.AccountID
		byID[account.AccountID] = account
	}

	groups, err := Allocate(ids, cfg.Genesis.MaxShards)
	if err != nil {
		return nil, err
	}

	r := Router{
		index: make(map[database.AccountID]int, len(ids)),
	}

	for shardID, group := range groups {
		accounts := make([]database.Account, len(group))
		for i, id := range group {
			account := byID[id]
			accounts[i] = database.NewAccount(id, account.Balance, account.PublicKey, shardID)
			r.index[id] = shardID
		}

		st, err := state.New(state.Config{
			ShardID:   shardID,
			Genesis:   cfg.Genesis,
			Accounts:  accounts,
			EvHandler: cfg.EvHandler,
		})
		if err != nil {
			r.Shutdown()
			return nil, fmt.Errorf("shard %d: %w", shardID, err)
		}

		r.shards = append(r.shards, st)
		r.workers = append(r.workers, worker.Run(st, cfg.EvHandler))
	}

	return &r, nil
}

// Shutdown stops every shard's worker.
func (r *Router) Shutdown() {
	for _, st := range r.shards {
		st.Shutdown()
	}
}

// NumShards returns the number of shards.
func (r *Router) NumShards() int {
	return len(r.shards)
}

// ValidShardID reports whether the id names a shard.
func (r *Router) ValidShardID(shardID int) bool {
	return shardID >= 0 && shardID < len(r.shards)
}

// Shard returns the chain for the specified shard.
func (r *Router) Shard(shardID int) (*state.State, error) {
	if !r.ValidShardID(shardID) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownShard, shardID)
	}

	return r.shards[shardID], nil
}

// ShardOf returns the shard the account was allocated to.
func (r *Router) ShardOf(accountID database.AccountID) (int, bool) {
	shardID, exists := r.index[accountID]
	return shardID, exists
}

// RouteTransaction submits the transaction to the specified shard. Payer and
// payee must both live in that shard.
func (r *Router) RouteTransaction(shardID int, txStr string, sigHex string) error {
	st, err := r.Shard(shardID)
	if err != nil {
		return err
	}

	return st.SubmitTransaction(txStr, sigHex)
}

// ListAccounts returns the accounts of every shard in allocation order.
func (r *Router) ListAccounts() []database.Account {
	var accounts []database.Account
	for _, st := range r.shards {
		accounts = append(accounts, st.RetrieveAccounts()...)
	}

	return accounts
}

// Drain blocks until every shard has mined all accepted transactions.
func (r *Router) Drain(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for shardID, w := range r.workers {
		g.Go(func() error {
			if err := w.WaitIdle(ctx); err != nil {
				return fmt.Errorf("shard %d: %w", shardID, err)
			}
			return nil
		})
	}

	return g.Wait()
}
