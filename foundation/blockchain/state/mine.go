package state

import (
	"context"
	"errors"

	"github.com/shardlab/powshard/foundation/blockchain/consensus"
	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/miner"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNextBlock takes the oldest transaction and runs a consensus round to
// seal it into the next block. If the round doesn't reach majority the
// transaction is kept and is the first one mined on the next call.
func (s *State) MineNextBlock(ctx context.Context) (database.Block, error) {
	s.mine.Lock()
	defer s.mine.Unlock()

	s.evHandler("state: MineNextBlock: MINING: shard[%d]: check mempool", s.shardID)

	if s.pending.Load() == nil {
		tx, err := s.mempool.DequeueHead()
		if err != nil {
			return database.Block{}, ErrNoTransactions
		}
		s.pending.Store(&tx)
	}
	tx := *s.pending.Load()

	s.evHandler("state: MineNextBlock: MINING: shard[%d]: tx[%s]: perform POW", s.shardID, tx.Key())

	header := miner.NewHeader(s.chain.LatestBlock().Hash, tx.Bytes())

	var block database.Block
	commit := func(res consensus.Result) error {
		block = header.Block(res.Nonce)
		return s.chain.Append(block)
	}

	res, err := s.consensus.Run(ctx, header, commit)
	if err != nil {
		s.evHandler("state: MineNextBlock: MINING: shard[%d]: tx[%s]: ERROR: %s", s.shardID, tx.Key(), err)
		return database.Block{}, err
	}

	s.pending.Store(nil)

	s.evHandler("state: MineNextBlock: MINING: shard[%d]: blk[%s]: reports[%d]: attempts[%d]: duration[%v]", s.shardID, block.HashHex(), res.Reports, res.Attempts, res.Duration)

	return block, nil
}

// HasPendingWork reports whether there is a transaction waiting to be mined.
func (s *State) HasPendingWork() bool {
	return s.pending.Load() != nil || !s.mempool.IsEmpty()
}
