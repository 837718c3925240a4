// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"sync"

	"github.com/shardlab/powshard/foundation/blockchain/database"
)

// Set of errors returned by the mempool.
var (
	ErrMempoolFull  = errors.New("mempool is full")
	ErrMempoolEmpty = errors.New("mempool is empty")
)

// Mempool represents a bounded queue of validated transactions waiting to be
// mined. Transactions leave in the order they arrived.
type Mempool struct {
	mu       sync.RWMutex
	pool     []database.Tx
	capacity int
}

// New constructs a new mempool with the specified capacity.
func New(capacity int) (*Mempool, error) {
	if capacity <= 0 {
		return nil, errors.New("mempool capacity must be positive")
	}

	mp := Mempool{
		pool:     make([]database.Tx, 0, capacity),
		capacity: capacity,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Capacity returns the maximum number of transactions the pool can hold.
func (mp *Mempool) Capacity() int {
	return mp.capacity
}

// IsFull reports whether another transaction can be accepted.
func (mp *Mempool) IsFull() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool) >= mp.capacity
}

// IsEmpty reports whether there are transactions waiting to be mined.
func (mp *Mempool) IsEmpty() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool) == 0
}

// Enqueue adds the transaction to the back of the pool.
func (mp *Mempool) Enqueue(tx database.Tx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(mp.pool) >= mp.capacity {
		return len(mp.pool), ErrMempoolFull
	}

	mp.pool = append(mp.pool, tx)

	return len(mp.pool), nil
}

// DequeueHead removes and returns the oldest transaction in the pool.
func (mp *Mempool) DequeueHead() (database.Tx, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(mp.pool) == 0 {
		return database.Tx{}, ErrMempoolEmpty
	}

	tx := mp.pool[0]
	mp.pool[0] = database.Tx{}
	mp.pool = mp.pool[1:]

	return tx, nil
}

// Copy returns the transactions in the pool in queue order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Tx, len(mp.pool))
	copy(cpy, mp.pool)
	return cpy
}
