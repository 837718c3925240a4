package network_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shardlab/powshard/business/core/network"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/wallets"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newNetwork(t *testing.T) *network.Network {
	gen := genesis.Default()
	gen.Difficulty = 1
	gen.Miners = 3
	gen.MaxShards = 2
	gen.MempoolCapacity = 4
	gen.Accounts = []string{"Alice", "Bob", "Chris", "David", "Edgar"}

	ws, err := wallets.Generate(gen.Accounts)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate wallets: %v", failed, err)
	}

	n, err := network.New(network.Config{Genesis: gen, Wallets: ws})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to start the network: %v", failed, err)
	}
	t.Cleanup(n.Shutdown)

	return n
}

func Test_Submit(t *testing.T) {
	n := newNetwork(t)
	ws := n.Wallets()

	alice, _ := ws.Lookup("Alice")
	david, _ := ws.Lookup("David")

	t.Log("Given the need to submit transactions to the serial chain and the shards.")
	{
		tx, sig, _ := alice.SignTx(1, "Bob", 0)

		if !n.SubmitTransaction(tx, sig) {
			t.Fatalf("\t%s\tShould accept a valid serial transaction.", failed)
		}
		t.Logf("\t%s\tShould accept a valid serial transaction.", success)

		if n.SubmitTransaction(tx, sig) {
			t.Fatalf("\t%s\tShould reject a replayed serial transaction.", failed)
		}
		t.Logf("\t%s\tShould reject a replayed serial transaction.", success)

		if !n.SubmitShardedTransaction(tx, sig, "0") {
			t.Fatalf("\t%s\tShould accept the same transaction on its shard.", failed)
		}
		t.Logf("\t%s\tShould accept the same transaction on its shard.", success)

		tx, sig, _ = david.SignTx(1, "Alice", 0)
		if n.SubmitShardedTransaction(tx, sig, "1") {
			t.Fatalf("\t%s\tShould reject a cross shard transaction.", failed)
		}
		t.Logf("\t%s\tShould reject a cross shard transaction.", success)

		if err := n.SubmitSharded(tx, sig, "9"); !errors.Is(err, network.ErrUnknownShard) {
			t.Fatalf("\t%s\tShould reject an unknown shard: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an unknown shard.", success)

		if n.NumShards() != 2 || !n.IsValidShardID("1") || n.IsValidShardID("2") || n.IsValidShardID("x") {
			t.Fatalf("\t%s\tShould have two shards.", failed)
		}
		t.Logf("\t%s\tShould have two shards.", success)

		for _, id := range []string{"01", "+1", " 1", "-0", ""} {
			if n.IsValidShardID(id) {
				t.Fatalf("\t%s\tShould only accept canonical shard ids: %q", failed, id)
			}
		}
		t.Logf("\t%s\tShould only accept canonical shard ids.", success)

		tx, sig, _ = alice.SignTx(1, "Bob", 1)
		if err := n.Check(tx, sig, ""); err != nil {
			t.Fatalf("\t%s\tShould report the next serial transaction as valid: %v", failed, err)
		}
		if err := n.Check(tx, sig, "0"); err != nil {
			t.Fatalf("\t%s\tShould report the next shard transaction as valid: %v", failed, err)
		}
		if err := n.Check(tx, sig, "01"); !errors.Is(err, network.ErrUnknownShard) {
			t.Fatalf("\t%s\tShould reject checks against an unknown shard: %v", failed, err)
		}
		if acc, _ := n.Account("", "Alice"); acc.Nonce != 1 || acc.Balance != 99 {
			t.Fatalf("\t%s\tShould not change the ledger when checking: %d/%d", failed, acc.Balance, acc.Nonce)
		}
		t.Logf("\t%s\tShould check a transaction without changing the ledger.", success)

		serial, err := n.ListAccounts("")
		if err != nil || len(serial) != 5 || serial[0].Balance != 99 {
			t.Fatalf("\t%s\tShould list every serial account: %v", failed, err)
		}
		t.Logf("\t%s\tShould list every serial account.", success)

		shard1, err := n.ListAccounts("1")
		if err != nil || len(shard1) != 2 || shard1[0].AccountID != "David" || shard1[0].ShardID != 1 {
			t.Fatalf("\t%s\tShould list the accounts of a shard: %v", failed, err)
		}
		t.Logf("\t%s\tShould list the accounts of a shard.", success)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := n.Drain(ctx); err != nil {
			t.Fatalf("\t%s\tShould drain every chain: %v", failed, err)
		}

		blocks, _ := n.Blocks("")
		if len(blocks) != 2 {
			t.Fatalf("\t%s\tShould mine one serial block: got %d", failed, len(blocks)-1)
		}
		t.Logf("\t%s\tShould mine one serial block.", success)

		stats := n.AllStats()
		if len(stats) != 3 || stats[0].ShardID != -1 || stats[0].Length != 2 || stats[0].Mempool != 0 {
			t.Fatalf("\t%s\tShould report the serial chain first: %+v", failed, stats)
		}
		if stats[0].Attempts == 0 || stats[0].Miners == 0 || stats[0].LatestHash != blocks[1].HashHex() {
			t.Fatalf("\t%s\tShould report the mining counters: %+v", failed, stats[0])
		}
		t.Logf("\t%s\tShould report the mining counters.", success)

		s0, err := n.Stats("0")
		if err != nil || s0.ShardID != 0 || s0.Length != 2 {
			t.Fatalf("\t%s\tShould report a single shard: %+v, %v", failed, s0, err)
		}
		t.Logf("\t%s\tShould report a single shard.", success)
	}
}

func Test_Bench(t *testing.T) {
	n := newNetwork(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	t.Log("Given the need to compare the serial chain with the shards.")
	{
		res, err := n.Bench(ctx, 10)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to run the benchmark: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to run the benchmark.", success)

		if res.SerialBlocks != 10 || res.ShardedBlocks != 10 {
			t.Fatalf("\t%s\tShould mine every transaction in both modes: %d/%d", failed, res.SerialBlocks, res.ShardedBlocks)
		}
		t.Logf("\t%s\tShould mine every transaction in both modes.", success)

		if res.Miners == 0 || res.SerialAttempts < 10 || res.ShardedAttempts < 10 {
			t.Fatalf("\t%s\tShould count the nonces tried in each mode: %d/%d", failed, res.SerialAttempts, res.ShardedAttempts)
		}
		t.Logf("\t%s\tShould count the nonces tried in each mode.", success)

		if _, err := n.Bench(ctx, 0); err == nil {
			t.Fatalf("\t%s\tShould reject zero transactions.", failed)
		}
		t.Logf("\t%s\tShould reject zero transactions.", success)
	}
}

func Test_BenchRejectsSubmissions(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 8
	gen.Miners = 1
	gen.MaxShards = 2
	gen.Accounts = []string{"Alice", "Bob", "Chris", "David"}

	ws, err := wallets.Generate(gen.Accounts)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate wallets: %v", failed, err)
	}

	n, err := network.New(network.Config{Genesis: gen, Wallets: ws})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to start the network: %v", failed, err)
	}
	t.Cleanup(n.Shutdown)

	t.Log("Given the need to keep clients off the accounts a benchmark is spending.")
	{
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			_, err := n.Bench(ctx, 1)
			done <- err
		}()

		deadline := time.Now().Add(10 * time.Second)
		for !n.Benching() {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould start the benchmark.", failed)
			}
			time.Sleep(time.Millisecond)
		}

		chris, _ := ws.Lookup("Chris")
		tx, sig, _ := chris.SignTx(1, "David", 0)

		if err := n.Submit(tx, sig); !errors.Is(err, network.ErrBenchRunning) {
			t.Fatalf("\t%s\tShould reject serial submissions while benchmarking: %v", failed, err)
		}
		if err := n.SubmitSharded(tx, sig, "1"); !errors.Is(err, network.ErrBenchRunning) {
			t.Fatalf("\t%s\tShould reject sharded submissions while benchmarking: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject submissions while benchmarking.", success)

		cancel()
		if err := <-done; err == nil {
			t.Fatalf("\t%s\tShould stop the benchmark when cancelled.", failed)
		}

		if n.Benching() {
			t.Fatalf("\t%s\tShould accept submissions again after the benchmark.", failed)
		}
		t.Logf("\t%s\tShould accept submissions again after the benchmark.", success)
	}
}
