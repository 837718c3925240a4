package miner_test

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/miner"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Mine(t *testing.T) {
	prev := database.Genesis()
	header := miner.NewHeader(prev.Hash, []byte("1:Alice:00:Bob:0"))

	var attempts atomic.Uint64
	cfg := miner.Config{
		ID:         1,
		Difficulty: 1,
		NonceWidth: 10,
		Attempts:   &attempts,
	}

	t.Log("Given the need to solve a block header.")
	{
		found, err := miner.Mine(context.Background(), cfg, header)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to solve the header: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to solve the header.", success)

		if len(found.Nonce) != cfg.NonceWidth {
			t.Fatalf("\t%s\tShould produce a nonce of %d bytes: got %d", failed, cfg.NonceWidth, len(found.Nonce))
		}
		t.Logf("\t%s\tShould produce a nonce of %d bytes.", success, cfg.NonceWidth)

		if !bytes.Equal(found.Hash, miner.Attempt(header, found.Nonce)) || !database.IsHashSolved(cfg.Difficulty, found.Hash) {
			t.Fatalf("\t%s\tShould report a hash that solves the header.", failed)
		}
		t.Logf("\t%s\tShould report a hash that solves the header.", success)

		block := header.Block(found.Nonce)
		if err := block.ValidateBlock(prev, cfg.Difficulty, func(string, ...any) {}); err != nil {
			t.Fatalf("\t%s\tShould build a block that links to the parent: %v", failed, err)
		}
		t.Logf("\t%s\tShould build a block that links to the parent.", success)

		if attempts.Load() != found.Attempts {
			t.Fatalf("\t%s\tShould add every attempt to the counter: got %d, exp %d", failed, attempts.Load(), found.Attempts)
		}
		t.Logf("\t%s\tShould add every attempt to the counter.", success)
	}
}

func Test_MineCancel(t *testing.T) {
	header := miner.NewHeader(database.Genesis().Hash, []byte("1:Alice:00:Bob:0"))

	var attempts atomic.Uint64
	cfg := miner.Config{
		ID:         1,
		Difficulty: 32,
		NonceWidth: 10,
		Attempts:   &attempts,
	}

	t.Log("Given the need to stop mining when cancelled.")
	{
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := miner.Mine(ctx, cfg, header)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("\t%s\tShould return the context error: %v", failed, err)
		}
		t.Logf("\t%s\tShould return the context error.", success)

		n := attempts.Load()
		time.Sleep(20 * time.Millisecond)
		if attempts.Load() != n || n == 0 {
			t.Fatalf("\t%s\tShould stop attempting once returned: %d then %d", failed, n, attempts.Load())
		}
		t.Logf("\t%s\tShould stop attempting once returned.", success)
	}
}
