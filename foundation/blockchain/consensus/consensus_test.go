package consensus_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/shardlab/powshard/foundation/blockchain/consensus"
	"github.com/shardlab/powshard/foundation/blockchain/database"
	"github.com/shardlab/powshard/foundation/blockchain/miner"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Majority(t *testing.T) {
	tt := []struct {
		miners   int
		majority int
	}{
		{1, 1}, {2, 2}, {3, 2}, {4, 3}, {5, 3}, {8, 5},
	}

	t.Log("Given the need to know how many reports make a majority.")
	{
		for testID, tst := range tt {
			if got := consensus.Majority(tst.miners); got != tst.majority {
				t.Fatalf("\t%s\tTest %d:\tShould need %d reports for %d miners: got %d", failed, testID, tst.majority, tst.miners, got)
			}
			t.Logf("\t%s\tTest %d:\tShould need %d reports for %d miners.", success, testID, tst.majority, tst.miners)
		}
	}
}

func Test_MinersBounded(t *testing.T) {
	prev := runtime.GOMAXPROCS(2)
	defer runtime.GOMAXPROCS(prev)

	tt := []struct {
		configured int
		miners     int
		majority   int
	}{
		{1, 1, 1}, {2, 2, 2}, {5, 2, 2}, {256, 2, 2},
	}

	t.Log("Given the need to only race as many miners as can run at once.")
	{
		for testID, tst := range tt {
			c, err := consensus.New(consensus.Config{
				Miners:     tst.configured,
				Difficulty: 1,
				NonceWidth: 10,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct a coordinator: %v", failed, testID, err)
			}

			if c.Miners() != tst.miners || c.Majority() != tst.majority {
				t.Fatalf("\t%s\tTest %d:\tShould race %d miners needing %d reports for %d configured: got %d/%d", failed, testID, tst.miners, tst.majority, tst.configured, c.Miners(), c.Majority())
			}
			t.Logf("\t%s\tTest %d:\tShould race %d miners needing %d reports for %d configured.", success, testID, tst.miners, tst.majority, tst.configured)
		}

		c, _ := consensus.New(consensus.Config{Miners: 256, Difficulty: 1, NonceWidth: 10})
		header := miner.NewHeader(database.Genesis().Hash, []byte("1:Alice:00:Bob:0"))

		res, err := c.Run(context.Background(), header, nil)
		if err != nil || res.Reports != 2 {
			t.Fatalf("\t%s\tShould reach majority with the bounded miners: %v, reports %d", failed, err, res.Reports)
		}
		t.Logf("\t%s\tShould reach majority with the bounded miners.", success)
	}
}

func Test_Run(t *testing.T) {
	chain := database.NewChain(1, nil)

	c, err := consensus.New(consensus.Config{
		Miners:     5,
		Difficulty: 1,
		NonceWidth: 10,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a coordinator: %v", failed, err)
	}

	t.Log("Given the need to commit one block per round.")
	{
		header := miner.NewHeader(chain.LatestBlock().Hash, []byte("1:Alice:00:Bob:0"))

		var commits int
		commit := func(res consensus.Result) error {
			commits++
			if c.Phase() != consensus.Converged {
				t.Errorf("\t%s\tShould commit while converged: %s", failed, c.Phase())
			}
			return chain.Append(header.Block(res.Nonce))
		}

		res, err := c.Run(context.Background(), header, commit)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to run a round: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to run a round.", success)

		if res.Reports != c.Majority() {
			t.Fatalf("\t%s\tShould stop at %d of %d reports: got %d", failed, c.Majority(), c.Miners(), res.Reports)
		}
		t.Logf("\t%s\tShould stop at %d of %d reports.", success, c.Majority(), c.Miners())

		if commits != 1 || chain.Length() != 2 {
			t.Fatalf("\t%s\tShould append exactly one block: commits %d, length %d", failed, commits, chain.Length())
		}
		t.Logf("\t%s\tShould append exactly one block.", success)

		if c.Phase() != consensus.Idle || c.Rounds() != 1 {
			t.Fatalf("\t%s\tShould be idle after the round: %s", failed, c.Phase())
		}
		t.Logf("\t%s\tShould be idle after the round.", success)

		n := c.Attempts()
		time.Sleep(20 * time.Millisecond)
		if c.Attempts() != n || res.Attempts == 0 || res.Attempts > n {
			t.Fatalf("\t%s\tShould stop all miners before returning: %d then %d", failed, n, c.Attempts())
		}
		t.Logf("\t%s\tShould stop all miners before returning.", success)
	}
}

func Test_RunTimeout(t *testing.T) {
	c, err := consensus.New(consensus.Config{
		Miners:     3,
		Difficulty: 32,
		NonceWidth: 10,
		Timeout:    50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a coordinator: %v", failed, err)
	}

	t.Log("Given the need to bound a round that can't be solved.")
	{
		header := miner.NewHeader(database.Genesis().Hash, []byte("1:Alice:00:Bob:0"))

		called := false
		_, err := c.Run(context.Background(), header, func(consensus.Result) error {
			called = true
			return nil
		})
		if !errors.Is(err, consensus.ErrRoundTimeout) {
			t.Fatalf("\t%s\tShould time out the round: %v", failed, err)
		}
		t.Logf("\t%s\tShould time out the round.", success)

		if called || c.Rounds() != 0 {
			t.Fatalf("\t%s\tShould not commit anything.", failed)
		}
		t.Logf("\t%s\tShould not commit anything.", success)
	}
}

func Test_RunCancel(t *testing.T) {
	c, err := consensus.New(consensus.Config{
		Miners:     2,
		Difficulty: 32,
		NonceWidth: 10,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a coordinator: %v", failed, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	header := miner.NewHeader(database.Genesis().Hash, []byte("1:Alice:00:Bob:0"))
	if _, err := c.Run(ctx, header, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("\t%s\tShould return when the caller cancels: %v", failed, err)
	}
	t.Logf("\t%s\tShould return when the caller cancels.", success)

	if _, err := consensus.New(consensus.Config{Miners: 0, NonceWidth: 10}); err == nil {
		t.Fatalf("\t%s\tShould reject zero miners.", failed)
	}
	t.Logf("\t%s\tShould reject zero miners.", success)
}
