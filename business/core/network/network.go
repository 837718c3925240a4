// Package network provides the core business API for a simulated network. It
// runs the same participants twice: once on a single serial chain and once
// split across shards, each with its own ledger.
package network

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/blockchain/shard"
	"github.com/shardlab/powshard/foundation/blockchain/state"
	"github.com/shardlab/powshard/foundation/blockchain/worker"
	"github.com/shardlab/powshard/foundation/wallets"
	"golang.org/x/sync/errgroup"
)

// Set of errors returned by the network.
var (
	ErrUnknownShard = shard.ErrUnknownShard
	ErrBenchRunning = errors.New("benchmark is running, try again later")
)

// AccountInfo is what a client is shown about an account.
type AccountInfo struct {
	AccountID    database.AccountID
	Balance      uint64
	Nonce        uint64
	PublicKeyHex string
	ShardID      int
}

// Config represents the configuration required to start a network.
type Config struct {
	Genesis   genesis.Genesis
	Wallets   *wallets.Wallets
	EvHandler state.EventHandler
}

// Network owns the serial chain and the shards.
type Network struct {
	wallets      *wallets.Wallets
	evHandler    state.EventHandler
	serial       *state.State
	serialWorker *worker.Worker
	router       *shard.Router
	bench        sync.Mutex
	benching     atomic.Bool
}

// ChainStats describes the current state of one chain.
type ChainStats struct {
	ShardID    int
	Length     int
	Mempool    int
	Miners     int
	Attempts   uint64
	LatestHash string
}

// New constructs the serial chain and the shards from the same wallets.
func New(cfg Config) (*Network, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Wallets == nil {
		return nil, errors.New("wallets are required")
	}

	serial, err := state.New(state.Config{
		ShardID:   state.SerialID,
		Genesis:   cfg.Genesis,
		Accounts:  cfg.Wallets.Accounts(cfg.Genesis.Balance),
		EvHandler: ev,
	})
	if err != nil {
		return nil, fmt.Errorf("serial chain: %w", err)
	}
	serialWorker := worker.Run(serial, ev)

	router, err := shard.New(shard.Config{
		Genesis:   cfg.Genesis,
		Accounts:  cfg.Wallets.Accounts(cfg.Genesis.Balance),
		EvHandler: ev,
	})
	if err != nil {
		serial.Shutdown()
		return nil, fmt.Errorf("shards: %w", err)
	}

	n := Network{
		wallets:      cfg.Wallets,
		evHandler:    ev,
		serial:       serial,
		serialWorker: serialWorker,
		router:       router,
	}

	return &n, nil
}

// Shutdown stops mining on every chain.
func (n *Network) Shutdown() {
	n.evHandler("network: shutdown: started")
	defer n.evHandler("network: shutdown: completed")

	n.serial.Shutdown()
	n.router.Shutdown()
}

// Genesis returns the parameters the network was created with.
func (n *Network) Genesis() genesis.Genesis {
	return n.serial.RetrieveGenesis()
}

// Wallets returns the participant wallets.
func (n *Network) Wallets() *wallets.Wallets {
	return n.wallets
}

// =============================================================================

// Submit validates the transaction against the serial chain and queues it
// for mining. The error names the check that failed.
func (n *Network) Submit(txStr string, sigHex string) error {
	if n.benching.Load() {
		return ErrBenchRunning
	}

	return n.serial.SubmitTransaction(txStr, sigHex)
}

// SubmitTransaction reports whether the serial chain accepted the transaction.
func (n *Network) SubmitTransaction(txStr string, sigHex string) bool {
	err := n.Submit(txStr, sigHex)
	return err == nil
}

// SubmitSharded validates the transaction against the named shard and
// queues it for mining.
func (n *Network) SubmitSharded(txStr string, sigHex string, shardID string) error {
	id, err := n.ParseShardID(shardID)
	if err != nil {
		return err
	}

	if n.benching.Load() {
		return ErrBenchRunning
	}

	return n.router.RouteTransaction(id, txStr, sigHex)
}

// SubmitShardedTransaction reports whether the named shard accepted the
// transaction.
func (n *Network) SubmitShardedTransaction(txStr string, sigHex string, shardID string) bool {
	err := n.SubmitSharded(txStr, sigHex, shardID)
	return err == nil
}

// Check reports why the serial chain, or the named shard, would reject the
// transaction. Nothing is queued or debited.
func (n *Network) Check(txStr string, sigHex string, shardID string) error {
	st, err := n.chain(shardID)
	if err != nil {
		return err
	}

	return st.ValidateTransaction(txStr, sigHex)
}

// Benching reports whether a benchmark currently owns the chains.
func (n *Network) Benching() bool {
	return n.benching.Load()
}

// =============================================================================

// NumShards returns the number of shards.
func (n *Network) NumShards() int {
	return n.router.NumShards()
}

// IsValidShardID reports whether the id names a shard.
func (n *Network) IsValidShardID(shardID string) bool {
	_, err := n.ParseShardID(shardID)
	return err == nil
}

// ParseShardID converts the id into a shard index. Only the canonical
// decimal form is accepted, so "01" and "+1" don't name shard 1.
func (n *Network) ParseShardID(shardID string) (int, error) {
	id, err := strconv.Atoi(shardID)
	if err != nil || strconv.Itoa(id) != shardID || !n.router.ValidShardID(id) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownShard, shardID)
	}

	return id, nil
}

// ListAccounts returns the accounts of the serial chain when shardID is
// empty, otherwise the accounts of the named shard.
func (n *Network) ListAccounts(shardID string) ([]AccountInfo, error) {
	st, err := n.chain(shardID)
	if err != nil {
		return nil, err
	}

	accounts := st.RetrieveAccounts()

	out := make([]AccountInfo, len(accounts))
	for i, acc := range accounts {
		out[i] = AccountInfo{
			AccountID:    acc.AccountID,
			Balance:      acc.Balance,
			Nonce:        acc.Nonce,
			PublicKeyHex: acc.PublicKeyHex(),
			ShardID:      acc.ShardID,
		}
	}

	return out, nil
}

// Account returns a single account of the serial chain when shardID is
// empty, otherwise of the named shard.
func (n *Network) Account(shardID string, accountID database.AccountID) (database.Account, error) {
	st, err := n.chain(shardID)
	if err != nil {
		return database.Account{}, err
	}

	return st.QueryAccount(accountID)
}

// Blocks returns the blocks of the serial chain when shardID is empty,
// otherwise of the named shard.
func (n *Network) Blocks(shardID string) ([]database.Block, error) {
	st, err := n.chain(shardID)
	if err != nil {
		return nil, err
	}

	return st.QueryBlocks(0, -1), nil
}

// Stats returns the state of the serial chain when shardID is empty,
// otherwise of the named shard.
func (n *Network) Stats(shardID string) (ChainStats, error) {
	st, err := n.chain(shardID)
	if err != nil {
		return ChainStats{}, err
	}

	return chainStats(st), nil
}

// AllStats returns the serial chain first, then every shard in order.
func (n *Network) AllStats() []ChainStats {
	out := []ChainStats{chainStats(n.serial)}
	for id := range n.router.NumShards() {
		st, _ := n.router.Shard(id)
		out = append(out, chainStats(st))
	}

	return out
}

// Drain blocks until every chain has mined all accepted transactions.
func (n *Network) Drain(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := n.serialWorker.WaitIdle(ctx); err != nil {
			return fmt.Errorf("serial: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return n.router.Drain(ctx)
	})

	return g.Wait()
}

// Validate walks every chain and reports the first broken link.
func (n *Network) Validate() error {
	if err := n.serial.IsChainValid(); err != nil {
		return fmt.Errorf("serial: %w", err)
	}

	for id := range n.router.NumShards() {
		st, _ := n.router.Shard(id)
		if err := st.IsChainValid(); err != nil {
			return fmt.Errorf("shard %d: %w", id, err)
		}
	}

	return nil
}

// =============================================================================

// chain returns the serial chain or the named shard.
func (n *Network) chain(shardID string) (*state.State, error) {
	if shardID == "" {
		return n.serial, nil
	}

	id, err := n.ParseShardID(shardID)
	if err != nil {
		return nil, err
	}

	return n.router.Shard(id)
}

// chainStats reads the counters of a single chain.
func chainStats(st *state.State) ChainStats {
	return ChainStats{
		ShardID:    st.ShardID(),
		Length:     st.RetrieveChainLength(),
		Mempool:    st.QueryMempoolLength(),
		Miners:     st.RetrieveMiners(),
		Attempts:   st.RetrieveAttempts(),
		LatestHash: st.RetrieveLatestBlock().HashHex(),
	}
}
