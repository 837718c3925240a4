package database

import (
	"fmt"
	"sync"
)

// Chain is the append-only sequence of blocks rooted at the genesis block.
type Chain struct {
	mu         sync.RWMutex
	difficulty int
	blocks     []Block
	evHandler  func(v string, args ...any)
}

// NewChain constructs a chain holding only the genesis block.
func NewChain(difficulty int, evHandler func(v string, args ...any)) *Chain {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	return &Chain{
		difficulty: difficulty,
		blocks:     []Block{Genesis()},
		evHandler:  evHandler,
	}
}

// Difficulty returns the number of leading zero bytes blocks must have.
func (c *Chain) Difficulty() int {
	return c.difficulty
}

// Append validates the block against the latest block and adds it to the chain.
func (c *Chain) Append(block Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if block.IsGenesis() {
		return ErrGenesisImmutable
	}

	if err := block.ValidateBlock(c.blocks[len(c.blocks)-1], c.difficulty, c.evHandler); err != nil {
		return err
	}

	c.blocks = append(c.blocks, block)
	return nil
}

// LatestBlock returns the latest block.
func (c *Chain) LatestBlock() Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.blocks[len(c.blocks)-1]
}

// Length returns the number of blocks including genesis.
func (c *Chain) Length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blocks)
}

// Blocks returns a copy of the blocks in chain order.
func (c *Chain) Blocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blocks := make([]Block, len(c.blocks))
	copy(blocks, c.blocks)
	return blocks
}

// Validate walks the chain and checks every link.
func (c *Chain) Validate() error {
	blocks := c.Blocks()

	if !blocks[0].IsGenesis() {
		return fmt.Errorf("block 0 is not the genesis block")
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], c.difficulty, c.evHandler); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}

	return nil
}
