package shard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/blockchain/shard"
	"github.com/shardlab/powshard/foundation/blockchain/validator"
	"github.com/shardlab/powshard/foundation/wallets"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Allocate(t *testing.T) {
	ids := func(n int) []database.AccountID {
		out := make([]database.AccountID, n)
		for i := range n {
			out[i] = database.AccountID(rune('A' + i))
		}
		return out
	}

	type table struct {
		name      string
		accounts  int
		maxShards int
		sizes     []int
	}

	tt := []table{
		{name: "remainder", accounts: 7, maxShards: 3, sizes: []int{3, 2, 2}},
		{name: "even", accounts: 6, maxShards: 3, sizes: []int{2, 2, 2}},
		{name: "fewaccounts", accounts: 2, maxShards: 3, sizes: []int{1, 1}},
		{name: "default", accounts: 13, maxShards: 3, sizes: []int{5, 4, 4}},
		{name: "single", accounts: 4, maxShards: 1, sizes: []int{4}},
	}

	t.Log("Given the need to partition accounts into shards.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %d accounts over %d shards.", testID, tst.accounts, tst.maxShards)
			{
				f := func(t *testing.T) {
					in := ids(tst.accounts)

					groups, err := shard.Allocate(in, tst.maxShards)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to allocate: %v", failed, testID, err)
					}

					if len(groups) != len(tst.sizes) {
						t.Fatalf("\t%s\tTest %d:\tShould create %d shards: got %d", failed, testID, len(tst.sizes), len(groups))
					}
					t.Logf("\t%s\tTest %d:\tShould create %d shards.", success, testID, len(tst.sizes))

					var flat []database.AccountID
					for i, g := range groups {
						if len(g) != tst.sizes[i] {
							t.Fatalf("\t%s\tTest %d:\tShould give shard %d %d accounts: got %d", failed, testID, i, tst.sizes[i], len(g))
						}
						flat = append(flat, g...)
					}
					t.Logf("\t%s\tTest %d:\tShould give the remainder to the earliest shards.", success, testID)

					for i := range in {
						if flat[i] != in[i] {
							t.Fatalf("\t%s\tTest %d:\tShould place every account exactly once, in order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould place every account exactly once, in order.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Router(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 1
	gen.Miners = 3
	gen.Accounts = []string{"Alice", "Bob", "Chris", "David", "Edgar", "Phoebe", "Greg"}

	ws, err := wallets.Generate(gen.Accounts)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate wallets: %v", failed, err)
	}

	var accounts []database.Account
	for _, id := range ws.AccountIDs() {
		w, _ := ws.Lookup(id)
		accounts = append(accounts, database.NewAccount(id, gen.Balance, w.PublicKey, 0))
	}

	r, err := shard.New(shard.Config{Genesis: gen, Accounts: accounts})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the router: %v", failed, err)
	}
	defer r.Shutdown()

	t.Log("Given the need to route transactions to independent shards.")
	{
		if r.NumShards() != 3 || !r.ValidShardID(2) || r.ValidShardID(3) || r.ValidShardID(-1) {
			t.Fatalf("\t%s\tShould have shards 0 through 2.", failed)
		}
		t.Logf("\t%s\tShould have shards 0 through 2.", success)

		for _, acc := range r.ListAccounts() {
			shardID, _ := r.ShardOf(acc.AccountID)
			if acc.ShardID != shardID {
				t.Fatalf("\t%s\tShould record the shard on the account: %s", failed, acc.AccountID)
			}
		}
		t.Logf("\t%s\tShould record the shard on the account.", success)

		alice, _ := ws.Lookup("Alice")
		tx, sig, err := alice.SignTx(1, "Bob", 0)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign: %v", failed, err)
		}

		if err := r.RouteTransaction(7, tx, sig); !errors.Is(err, shard.ErrUnknownShard) {
			t.Fatalf("\t%s\tShould reject an unknown shard: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an unknown shard.", success)

		if err := r.RouteTransaction(1, tx, sig); !errors.Is(err, validator.ErrUnknownStakeholder) {
			t.Fatalf("\t%s\tShould reject accounts from another shard: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject accounts from another shard.", success)

		if err := r.RouteTransaction(0, tx, sig); err != nil {
			t.Fatalf("\t%s\tShould accept a transaction in the payer's shard: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a transaction in the payer's shard.", success)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := r.Drain(ctx); err != nil {
			t.Fatalf("\t%s\tShould drain every shard: %v", failed, err)
		}
		t.Logf("\t%s\tShould drain every shard.", success)

		s0, _ := r.Shard(0)
		s1, _ := r.Shard(1)
		if s0.RetrieveChainLength() != 2 || s1.RetrieveChainLength() != 1 {
			t.Fatalf("\t%s\tShould only grow the payer's chain.", failed)
		}
		t.Logf("\t%s\tShould only grow the payer's chain.", success)

		if s0 == s1 {
			t.Fatalf("\t%s\tShould build distinct shards.", failed)
		}
		t.Logf("\t%s\tShould build distinct shards.", success)
	}
}
