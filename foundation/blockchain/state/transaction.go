package state

import (
	"fmt"
)

// SubmitTransaction accepts a signed transaction for inclusion. A transaction
// that passes validation is queued for mining and the payer is debited before
// this call returns.
func (s *State) SubmitTransaction(txStr string, sigHex string) error {
	s.submit.Lock()
	defer s.submit.Unlock()

	tx, err := s.validator.Check(txStr, sigHex, s.db)
	if err != nil {
		s.evHandler("state: SubmitTransaction: shard[%d]: REJECTED: %s", s.shardID, err)
		return err
	}

	n, err := s.mempool.Enqueue(tx)
	if err != nil {
		s.evHandler("state: SubmitTransaction: shard[%d]: REJECTED: %s", s.shardID, err)
		return err
	}

	if err := s.db.ApplyTransaction(tx); err != nil {
		panic(fmt.Errorf("%w: shard %d: tx %s: %w", ErrInvariant, s.shardID, tx.Key(), err))
	}

	s.evHandler("state: SubmitTransaction: shard[%d]: tx[%s]: accepted: mempool[%d]", s.shardID, tx.Key(), n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// ValidateTransaction reports whether the transaction would be accepted
// without changing anything.
func (s *State) ValidateTransaction(txStr string, sigHex string) error {
	_, err := s.validator.Check(txStr, sigHex, s.db)
	return err
}
