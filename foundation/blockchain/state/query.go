package state

import (
	"github.com/shardlab/powshard/foundation/blockchain/database"
)

// QueryAccount returns a copy of the account from the ledger.
func (s *State) QueryAccount(accountID database.AccountID) (database.Account, error) {
	return s.db.Query(accountID)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocks returns the blocks in the range [from, to] by height. A to
// below zero means through the latest block.
func (s *State) QueryBlocks(from int, to int) []database.Block {
	blocks := s.chain.Blocks()

	if to < 0 || to >= len(blocks) {
		to = len(blocks) - 1
	}
	if from < 0 {
		from = 0
	}
	if from > to {
		return nil
	}

	return blocks[from : to+1]
}

// QueryBlocksByAccount returns the blocks whose transaction involves the
// account. If the account is empty, every block after genesis is returned.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) []database.Block {
	var out []database.Block

	for _, block := range s.chain.Blocks() {
		if block.IsGenesis() {
			continue
		}

		tx, err := database.ParseTx(string(block.Payload))
		if err != nil {
			continue
		}

		if accountID == "" || tx.PayerID == accountID || tx.PayeeID == accountID {
			out = append(out, block)
		}
	}

	return out
}

// IsChainValid walks the chain and reports the first broken link.
func (s *State) IsChainValid() error {
	return s.chain.Validate()
}
