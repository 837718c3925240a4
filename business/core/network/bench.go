package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/mempool"
	"github.com/shardlab/powshard/foundation/blockchain/state"
	"golang.org/x/sync/errgroup"
)

// retryFull is how long a benchmark submitter waits before retrying a
// transaction rejected by a full mempool.
const retryFull = 10 * time.Millisecond

// BenchResult compares the time to mine the same number of transactions on
// the serial chain and across the shards.
type BenchResult struct {
	Transactions  int
	Shards        int
	SerialTime    time.Duration
	ShardedTime   time.Duration
	SerialBlocks  int
	ShardedBlocks int

	// Miners is the number of miners racing on each chain. Attempts are the
	// nonces tried to mine the transactions in each mode.
	Miners          int
	SerialAttempts  uint64
	ShardedAttempts uint64
}

// Speedup returns how many times faster the shards were.
func (br BenchResult) Speedup() float64 {
	if br.ShardedTime == 0 {
		return 0
	}

	return float64(br.SerialTime) / float64(br.ShardedTime)
}

// signedTx is a transaction ready for submission.
type signedTx struct {
	tx  string
	sig string
}

// Bench generates and signs txs transactions for each mode, then measures
// how long each mode takes to accept and mine all of them. Signing happens
// before the clock starts.
//
// The benchmark spends from the live accounts: every transaction moves one
// unit out of the payer's balance and advances its nonce, and payees are
// never credited. Client submissions are rejected with ErrBenchRunning until
// it returns.
func (n *Network) Bench(ctx context.Context, txs int) (BenchResult, error) {
	if txs <= 0 {
		return BenchResult{}, fmt.Errorf("transactions must be positive, got %d", txs)
	}

	n.bench.Lock()
	defer n.bench.Unlock()

	n.benching.Store(true)
	defer n.benching.Store(false)

	n.evHandler("network: Bench: started: txs[%d]", txs)
	defer n.evHandler("network: Bench: completed")

	// Let anything already submitted finish so the chains are idle.
	if err := n.Drain(ctx); err != nil {
		return BenchResult{}, err
	}

	serialTxs, err := n.generate([]*state.State{n.serial}, txs)
	if err != nil {
		return BenchResult{}, fmt.Errorf("serial: %w", err)
	}

	var shards []*state.State
	for id := range n.router.NumShards() {
		st, _ := n.router.Shard(id)
		if len(st.RetrieveAccounts()) > 1 {
			shards = append(shards, st)
		}
	}
	if len(shards) == 0 {
		return BenchResult{}, errors.New("no shard has two accounts to transact between")
	}

	shardTxs, err := n.generate(shards, txs)
	if err != nil {
		return BenchResult{}, fmt.Errorf("shards: %w", err)
	}

	res := BenchResult{
		Transactions: txs,
		Shards:       n.router.NumShards(),
		Miners:       n.serial.RetrieveMiners(),
	}

	// Serial run.
	serialBefore := n.serial.RetrieveChainLength()
	serialAttempts := n.serial.RetrieveAttempts()
	start := time.Now()
	if err := submitAll(ctx, n.serial, serialTxs[0]); err != nil {
		return BenchResult{}, fmt.Errorf("serial: %w", err)
	}
	if err := n.serialWorker.WaitIdle(ctx); err != nil {
		return BenchResult{}, fmt.Errorf("serial: %w", err)
	}
	res.SerialTime = time.Since(start)
	res.SerialBlocks = n.serial.RetrieveChainLength() - serialBefore
	res.SerialAttempts = n.serial.RetrieveAttempts() - serialAttempts

	// Sharded run, every shard fed at the same time.
	shardedBefore := 0
	var shardedAttempts uint64
	for _, st := range shards {
		shardedBefore += st.RetrieveChainLength()
		shardedAttempts += st.RetrieveAttempts()
	}

	start = time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range shards {
		g.Go(func() error {
			return submitAll(gctx, st, shardTxs[i])
		})
	}
	if err := g.Wait(); err != nil {
		return BenchResult{}, fmt.Errorf("shards: %w", err)
	}
	if err := n.router.Drain(ctx); err != nil {
		return BenchResult{}, err
	}
	res.ShardedTime = time.Since(start)

	for _, st := range shards {
		res.ShardedBlocks += st.RetrieveChainLength()
		res.ShardedAttempts += st.RetrieveAttempts()
	}
	res.ShardedBlocks -= shardedBefore
	res.ShardedAttempts -= shardedAttempts

	n.evHandler("network: Bench: serial[%v]: sharded[%v]: speedup[%.2f]", res.SerialTime, res.ShardedTime, res.Speedup())

	return res, nil
}

// generate signs txs transactions spread round robin over the chains. Each
// payer pays the next account on its own chain, one unit at a time, with
// nonces continuing from the ledger.
func (n *Network) generate(chains []*state.State, txs int) ([][]signedTx, error) {
	out := make([][]signedTx, len(chains))
	nonces := make(map[database.AccountID]uint64)
	cursor := make([]int, len(chains))

	for i := range txs {
		c := i % len(chains)
		accounts := chains[c].RetrieveAccounts()

		payer := accounts[cursor[c]%len(accounts)]
		payee := accounts[(cursor[c]+1)%len(accounts)]
		cursor[c]++

		nonce, exists := nonces[payer.AccountID]
		if !exists {
			nonce = payer.Nonce
		}
		nonces[payer.AccountID] = nonce + 1

		if nonce-payer.Nonce >= payer.Balance {
			return nil, fmt.Errorf("account %s can't fund %d transactions", payer.AccountID, txs)
		}

		w, exists := n.wallets.Lookup(payer.AccountID)
		if !exists {
			return nil, fmt.Errorf("account %s: no wallet", payer.AccountID)
		}

		tx, sig, err := w.SignTx(1, payee.AccountID, nonce)
		if err != nil {
			return nil, err
		}

		out[c] = append(out[c], signedTx{tx: tx, sig: sig})
	}

	return out, nil
}

// submitAll submits the transactions in order, waiting while the mempool is
// full.
func submitAll(ctx context.Context, st *state.State, txs []signedTx) error {
	for _, stx := range txs {
		for {
			err := st.SubmitTransaction(stx.tx, stx.sig)
			if err == nil {
				break
			}
			if !errors.Is(err, mempool.ErrMempoolFull) {
				return err
			}

			select {
			case <-time.After(retryFull):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}
