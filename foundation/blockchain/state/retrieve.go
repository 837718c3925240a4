package state

import (
	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.chain.LatestBlock()
}

// RetrieveChainLength returns the number of blocks including genesis.
func (s *State) RetrieveChainLength() int {
	return s.chain.Length()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveAccounts returns a copy of the ledger in allocation order.
func (s *State) RetrieveAccounts() []database.Account {
	return s.db.Copy()
}

// RetrieveAttempts returns the number of nonces tried by this chain's miners.
func (s *State) RetrieveAttempts() uint64 {
	return s.consensus.Attempts()
}

// RetrieveMiners returns the number of miners racing for each block.
func (s *State) RetrieveMiners() int {
	return s.consensus.Miners()
}
