package database

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shardlab/powshard/foundation/blockchain/signature"
)

// GenesisPayload is the payload of the first block of every chain.
const GenesisPayload = "Genesis"

// Set of errors returned when a block can't be added to a chain.
var (
	ErrBlockNotSolved   = errors.New("block hash doesn't meet the difficulty")
	ErrBlockHash        = errors.New("block hash doesn't match block content")
	ErrBlockParentHash  = errors.New("block parent hash doesn't match the latest block")
	ErrGenesisImmutable = errors.New("genesis block can't be appended")
)

// =============================================================================

// Block represents a transaction sealed with a proof of work and linked to
// the block before it.
type Block struct {
	PrevHash []byte
	Payload  []byte
	Nonce    []byte
	Hash     []byte
}

// NewBlock constructs a block and calculates its hash. The slices are copied
// so the block can't be changed through them.
func NewBlock(prevHash []byte, payload []byte, nonce []byte) Block {
	b := Block{
		PrevHash: clone(prevHash),
		Payload:  clone(payload),
		Nonce:    clone(nonce),
	}
	b.Hash = b.CalculateHash()

	return b
}

// Genesis returns the block every chain starts with.
func Genesis() Block {
	return NewBlock(nil, []byte(GenesisPayload), nil)
}

// CalculateHash returns SHA256(prevHash || payload || nonce).
func (b Block) CalculateHash() []byte {
	return signature.Hash(b.PrevHash, b.Payload, b.Nonce)
}

// HashHex returns the block hash for display.
func (b Block) HashHex() string {
	return signature.ToHex(b.Hash)
}

// IsGenesis reports whether this block is the root of a chain.
func (b Block) IsGenesis() bool {
	return len(b.PrevHash) == 0 && len(b.Nonce) == 0 && string(b.Payload) == GenesisPayload
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain after the previous block.
func (b Block) ValidateBlock(previousBlock Block, difficulty int, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%s]: check: block hash matches content", b.HashHex())

	if !bytes.Equal(b.Hash, b.CalculateHash()) {
		return fmt.Errorf("%w: got %s", ErrBlockHash, b.HashHex())
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: block hash has been solved", b.HashHex())

	if !IsHashSolved(difficulty, b.Hash) {
		return fmt.Errorf("%w: %s, difficulty %d", ErrBlockNotSolved, b.HashHex(), difficulty)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: parent hash does match parent block", b.HashHex())

	if !bytes.Equal(b.PrevHash, previousBlock.Hash) {
		return fmt.Errorf("%w: got %s, exp %s", ErrBlockParentHash, signature.ToHex(b.PrevHash), previousBlock.HashHex())
	}

	return nil
}

// =============================================================================

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// The first difficulty bytes must be zero.
func IsHashSolved(difficulty int, hash []byte) bool {
	if difficulty > len(hash) {
		return false
	}

	for i := range difficulty {
		if hash[i] != 0 {
			return false
		}
	}

	return true
}

// clone returns a copy of the slice, keeping nil as nil.
func clone(b []byte) []byte {
	if b == nil {
		return nil
	}

	c := make([]byte, len(b))
	copy(c, b)
	return c
}
