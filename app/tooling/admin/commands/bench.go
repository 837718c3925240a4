package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shardlab/powshard/business/core/network"
	"github.com/shardlab/powshard/foundation/blockchain/genesis"
	"github.com/shardlab/powshard/foundation/wallets"
	"go.uber.org/zap"
)

// Bench runs the serial against sharded comparison inside this process
// without starting a node.
//
//	admin bench 20 [zblock/genesis.json]
func Bench(args []string, log *zap.SugaredLogger) error {
	txs := 10
	if len(args) > 2 {
		var err error
		if txs, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("parsing transactions: %w", err)
		}
	}

	gen := genesis.Default()
	if len(args) > 3 {
		var err error
		if gen, err = genesis.Load(args[3]); err != nil {
			return err
		}
	}

	ws, err := wallets.Generate(gen.Accounts)
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...))
	}

	net, err := network.New(network.Config{
		Genesis:   gen,
		Wallets:   ws,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer net.Shutdown()

	res, err := net.Bench(context.Background(), txs)
	if err != nil {
		return err
	}

	fmt.Printf("Serial POC: %v (%d blocks, %d miners, %d attempts)\n\n", res.SerialTime, res.SerialBlocks, res.Miners, res.SerialAttempts)
	fmt.Printf("Sharding POC: %v (%d shards, %d blocks, %d attempts, %.2fx)\n", res.ShardedTime, res.Shards, res.ShardedBlocks, res.ShardedAttempts, res.Speedup())

	return nil
}
