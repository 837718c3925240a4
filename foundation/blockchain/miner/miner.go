// Package miner implements the proof of work search performed by a single
// miner. Miners share nothing: each works from its own copy of the header.
package miner

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync/atomic"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/signature"
)

// flushEvery is the number of attempts a miner performs before adding them to
// the shared attempt counter.
const flushEvery = 256

// Header is the immutable part of a candidate block.
type Header struct {
	prevHash []byte
	payload  []byte
}

// NewHeader constructs a header from copies of the values.
func NewHeader(prevHash []byte, payload []byte) Header {
	h := Header{
		prevHash: make([]byte, len(prevHash)),
		payload:  make([]byte, len(payload)),
	}
	copy(h.prevHash, prevHash)
	copy(h.payload, payload)

	return h
}

// Block returns the block sealed with the specified nonce.
func (h Header) Block(nonce []byte) database.Block {
	return database.NewBlock(h.prevHash, h.payload, nonce)
}

// Attempt returns the hash the block would have with the specified nonce.
func Attempt(h Header, nonce []byte) []byte {
	return signature.Hash(h.prevHash, h.payload, nonce)
}

// =============================================================================

// Config represents the parameters for a single miner.
type Config struct {
	ID         int
	Difficulty int
	NonceWidth int
	Attempts   *atomic.Uint64
	EvHandler  func(v string, args ...any)
}

// Found is what a miner reports when it solves the header.
type Found struct {
	MinerID  int
	Nonce    []byte
	Hash     []byte
	Attempts uint64
}

// Mine samples random nonces until one solves the header or the context is
// cancelled. The context is checked once per sampled nonce.
func Mine(ctx context.Context, cfg Config, h Header) (Found, error) {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return Found{}, err
	}
	rng := rand.New(rand.NewChaCha8(seed))

	var attempts uint64
	var pending uint64
	flush := func() {
		if cfg.Attempts != nil && pending > 0 {
			cfg.Attempts.Add(pending)
		}
		pending = 0
	}
	defer flush()

	nonce := make([]byte, cfg.NonceWidth)
	for {
		if ctx.Err() != nil {
			ev("miner: Mine: miner[%d]: CANCELLED: attempts[%d]", cfg.ID, attempts)
			return Found{}, ctx.Err()
		}

		fill(rng, nonce)
		attempts++
		pending++
		if pending == flushEvery {
			flush()
		}

		hash := Attempt(h, nonce)
		if !database.IsHashSolved(cfg.Difficulty, hash) {
			continue
		}

		ev("miner: Mine: miner[%d]: SOLVED: hash[%s]: attempts[%d]", cfg.ID, signature.ToHex(hash), attempts)

		found := Found{
			MinerID:  cfg.ID,
			Nonce:    append([]byte(nil), nonce...),
			Hash:     hash,
			Attempts: attempts,
		}

		return found, nil
	}
}

// fill writes random bytes into the nonce.
func fill(rng *rand.Rand, nonce []byte) {
	var buf [8]byte
	for i := 0; i < len(nonce); i += len(buf) {
		binary.LittleEndian.PutUint64(buf[:], rng.Uint64())
		copy(nonce[i:], buf[:])
	}
}
